package config

import (
	"strconv"
	"time"
)

type SecurityConfig interface {
	GetEnableRateLimiting() bool
	GetLoginMaxAttempts() int
	GetLoginAttemptWindow() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetEnableRateLimiting reports whether login attempts are throttled. The
// limiter also needs REDIS_ADDR to be set.
func (Security) GetEnableRateLimiting() bool {
	return GetEnv("RATE_LIMIT_LOGINS", "true") == "true"
}

func (Security) GetLoginMaxAttempts() int {
	attempts, err := strconv.Atoi(GetEnv("LOGIN_MAX_ATTEMPTS", "10"))
	if err != nil || attempts <= 0 {
		return 10
	}
	return attempts
}

func (Security) GetLoginAttemptWindow() time.Duration {
	window, err := time.ParseDuration(GetEnv("LOGIN_ATTEMPT_WINDOW", "5m"))
	if err != nil || window <= 0 {
		return 5 * time.Minute
	}
	return window
}
