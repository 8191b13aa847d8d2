package config

import (
	"strconv"
	"strings"
	"time"
)

// ReconcileConfig tunes the login reconciliation protocol. Everything here is
// injectable so tests can run with a zero-delay schedule.
type ReconcileConfig interface {
	GetBackoffSchedule() []time.Duration
	GetRepairRounds() int
	GetLoginDomain() string
}

type Reconcile struct{}

var _ ReconcileConfig = Reconcile{}

var defaultBackoffSchedule = []time.Duration{
	250 * time.Millisecond,
	600 * time.Millisecond,
	1200 * time.Millisecond,
	2500 * time.Millisecond,
	5000 * time.Millisecond,
}

// GetBackoffSchedule parses LOGIN_BACKOFF_SCHEDULE as comma-separated
// durations (e.g. "250ms,600ms,1200ms"). Unset or unparseable falls back to
// the default schedule.
func (Reconcile) GetBackoffSchedule() []time.Duration {
	raw := GetEnv("LOGIN_BACKOFF_SCHEDULE", "")
	if raw == "" {
		return defaultBackoffSchedule
	}
	parts := strings.Split(raw, ",")
	schedule := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		d, err := time.ParseDuration(strings.TrimSpace(part))
		if err != nil || d < 0 {
			return defaultBackoffSchedule
		}
		schedule = append(schedule, d)
	}
	return schedule
}

func (Reconcile) GetRepairRounds() int {
	rounds, err := strconv.Atoi(GetEnv("LOGIN_REPAIR_ROUNDS", "2"))
	if err != nil || rounds < 0 {
		return 2
	}
	return rounds
}

// GetLoginDomain is the local-domain suffix appended to derived login
// identities.
func (Reconcile) GetLoginDomain() string {
	return GetEnv("LOGIN_DOMAIN", "accounts.local")
}
