package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrLoginRateLimited   = errors.New("login rate limited")
	ErrLimiterUnavailable = errors.New("login limiter redis unavailable")
)

// LoginLimiter throttles login attempts per identifier and per client IP
// using a Redis counter with a fixed window.
type LoginLimiter struct {
	redis       *redis.Client
	maxAttempts int
	window      time.Duration
}

func NewLoginLimiter(redisClient *redis.Client, maxAttempts int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		redis:       redisClient,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

func (l *LoginLimiter) Enforce(ctx context.Context, identifier, ip string) error {
	if err := l.enforceKey(ctx, loginIdentifierKey(identifier)); err != nil {
		return err
	}
	if ip != "" {
		if err := l.enforceKey(ctx, loginIPKey(ip)); err != nil {
			return err
		}
	}
	return nil
}

func (l *LoginLimiter) enforceKey(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
		}
	}

	if count > int64(l.maxAttempts) {
		return ErrLoginRateLimited
	}

	return nil
}

func loginIdentifierKey(identifier string) string {
	return "login:id:" + strings.ToLower(identifier)
}

func loginIPKey(ip string) string {
	return "login:ip:" + ip
}
