package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// RedisLimiter is a fixed-window counter shared by every server instance.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	k := redisKeyPrefix + key

	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit}, fmt.Errorf("redis incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit - 1}, fmt.Errorf("redis expire: %w", err)
		}
	}

	d := Decision{Allowed: n <= int64(l.limit), Limit: l.limit, Remaining: max(l.limit-int(n), 0)}
	if d.Allowed {
		return d, nil
	}

	ttl, err := l.client.PTTL(ctx, k).Result()
	switch {
	case err != nil:
		d.RetryAfter = l.window
	case ttl < 0:
		// Counter lost its expiry; start a fresh window.
		_ = l.client.Expire(ctx, k, l.window).Err()
		d.RetryAfter = l.window
	default:
		d.RetryAfter = ttl
	}
	return d, nil
}
