package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gradebook-hq/go-auth-bridge/internal/config"
)

func TestDefaults(t *testing.T) {
	c := config.New()

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "accounts.local", c.GetLoginDomain())
	require.Equal(t, 2, c.GetRepairRounds())
	require.Equal(t, []time.Duration{
		250 * time.Millisecond,
		600 * time.Millisecond,
		1200 * time.Millisecond,
		2500 * time.Millisecond,
		5000 * time.Millisecond,
	}, c.GetBackoffSchedule())
	require.True(t, c.GetEnableRateLimiting())
	require.Equal(t, 10, c.GetLoginMaxAttempts())
	require.Equal(t, 5*time.Minute, c.GetLoginAttemptWindow())
}

func TestPortPrefixedWithColon(t *testing.T) {
	t.Setenv("PORT", "9090")
	require.Equal(t, ":9090", config.New().GetPort())

	t.Setenv("PORT", ":7070")
	require.Equal(t, ":7070", config.New().GetPort())
}

func TestBackoffScheduleFromEnv(t *testing.T) {
	t.Setenv("LOGIN_BACKOFF_SCHEDULE", "10ms, 20ms,30ms")
	require.Equal(t, []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		30 * time.Millisecond,
	}, config.New().GetBackoffSchedule())
}

func TestBackoffScheduleFallsBackOnGarbage(t *testing.T) {
	t.Setenv("LOGIN_BACKOFF_SCHEDULE", "250ms,banana")
	require.Len(t, config.New().GetBackoffSchedule(), 5)
}

func TestRepairRoundsFromEnv(t *testing.T) {
	t.Setenv("LOGIN_REPAIR_ROUNDS", "3")
	require.Equal(t, 3, config.New().GetRepairRounds())

	t.Setenv("LOGIN_REPAIR_ROUNDS", "-1")
	require.Equal(t, 2, config.New().GetRepairRounds())
}
