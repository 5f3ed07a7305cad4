package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter shared across instances, backed by
// INCR with a window-length expiry on the first hit.
type RedisLimiter struct {
	client *redis.Client
	window time.Duration
	max    int
}

// NewRedisLimiter builds a limiter over an existing client.
func NewRedisLimiter(client *redis.Client, window time.Duration, max int) *RedisLimiter {
	return &RedisLimiter{client: client, window: window, max: max}
}

// Allow increments the key's counter, setting the expiry when the counter is
// fresh.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.client.Incr(ctx, "ratelimit:"+key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, "ratelimit:"+key, l.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(l.max), nil
}

// Close is a no-op; the client is owned by the caller.
func (l *RedisLimiter) Close() {}
