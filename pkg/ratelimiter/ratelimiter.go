// Package ratelimiter implements fixed-window request counting backed by
// redis, so limits hold across processes instead of living in a
// per-instance map.
package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed   bool
	Remaining int64
	// Reset is the unix second at which the current window expires.
	Reset int64
}

// Allow counts a request against the fixed window for key. A nil redis
// client disables limiting entirely (useful for tests and local dev).
func Allow(ctx context.Context, rdb *redis.Client, key string, limit int64, window time.Duration) (*Result, error) {
	if rdb == nil {
		return &Result{Allowed: true, Remaining: limit}, nil
	}

	now := time.Now()
	windowStart := now.Truncate(window)
	redisKey := fmt.Sprintf("rate_limit:%s:%d", key, windowStart.Unix())

	count, err := rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to count request in redis: %w", err)
	}

	if count == 1 {
		// First hit in the window owns the expiry.
		if err := rdb.Expire(ctx, redisKey, window).Err(); err != nil {
			return nil, fmt.Errorf("failed to set rate limit expiry: %w", err)
		}
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   count <= limit,
		Remaining: remaining,
		Reset:     windowStart.Add(window).Unix(),
	}, nil
}
