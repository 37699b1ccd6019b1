package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter provides Redis-backed fixed-window rate limiting.
// Each {key, window-bucket} pair gets a counter with TTL slightly above
// the window. Works correctly in multi-instance deployments since all
// instances share Redis.
type RedisRateLimiter struct {
	client *redis.Client
}

func NewRedisRateLimiter(client *redis.Client) RateLimiter {
	return &RedisRateLimiter{
		client: client,
	}
}

// Allow atomically increments the window counter and compares it to the
// limit. INCR keeps the check a single round trip, so concurrent requests
// near the limit cannot all pass.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := time.Now()
	windowSecs := int64(window.Seconds())
	if windowSecs <= 0 {
		windowSecs = 1
	}
	bucket := now.Unix() / windowSecs
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, bucket)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if count == 1 {
		// TTL outlives the window by a minute so a clock-edge INCR
		// never resurrects an expired bucket.
		if err := l.client.Expire(ctx, redisKey, window+time.Minute).Err(); err != nil {
			return Result{}, fmt.Errorf("failed to set rate limit expiry: %w", err)
		}
	}

	remaining := int64(limit) - count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   count <= int64(limit),
		Remaining: remaining,
		ResetAt:   time.Unix((bucket+1)*windowSecs, 0),
	}, nil
}
