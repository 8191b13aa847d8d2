package auth

import (
	"context"
	"time"
)

// DefaultBackoffSchedule is the delay before each sign-in retry. Five delays
// means six attempts in total; the schedule absorbs eventual-consistency lag
// after a credential record has just been provisioned, it is not a way to
// grind on genuinely wrong passwords.
var DefaultBackoffSchedule = []time.Duration{
	250 * time.Millisecond,
	600 * time.Millisecond,
	1200 * time.Millisecond,
	2500 * time.Millisecond,
	5000 * time.Millisecond,
}

// SleepFunc waits for d or until ctx is done. Injectable so tests run with
// zero delay.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
