package server_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/gradebook-hq/go-auth-bridge/server"
)

func newTestLimiter(t *testing.T, maxAttempts int, window time.Duration) (*server.LoginLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return server.NewLoginLimiter(client, maxAttempts, window), mr
}

func TestLimiterAllowsUpToMaxAttempts(t *testing.T) {
	limiter, _ := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Enforce(ctx, "alice", "10.0.0.1"))
	}
	require.ErrorIs(t, limiter.Enforce(ctx, "alice", "10.0.0.1"), server.ErrLoginRateLimited)
}

func TestLimiterWindowExpires(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, limiter.Enforce(ctx, "alice", ""))
	require.ErrorIs(t, limiter.Enforce(ctx, "alice", ""), server.ErrLoginRateLimited)

	mr.FastForward(time.Minute + time.Second)
	require.NoError(t, limiter.Enforce(ctx, "alice", ""))
}

func TestLimiterIdentifierIsCaseInsensitive(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, limiter.Enforce(ctx, "Alice", ""))
	require.ErrorIs(t, limiter.Enforce(ctx, "alice", ""), server.ErrLoginRateLimited)
}

func TestLimiterThrottlesByIPIndependently(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2, time.Minute)
	ctx := context.Background()

	// Two identifiers from the same address share the IP budget.
	require.NoError(t, limiter.Enforce(ctx, "alice", "10.0.0.9"))
	require.NoError(t, limiter.Enforce(ctx, "bob", "10.0.0.9"))
	require.ErrorIs(t, limiter.Enforce(ctx, "carol", "10.0.0.9"), server.ErrLoginRateLimited)
}

func TestLimiterUnavailableRedis(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1, time.Minute)
	mr.Close()

	err := limiter.Enforce(context.Background(), "alice", "")
	require.ErrorIs(t, err, server.ErrLimiterUnavailable)
}
