package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one fixed-window check.
type Result struct {
	Allowed   bool
	Remaining int64
	ResetAt   time.Time
}

// RetryAfter returns how long the caller should wait before retrying.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// RateLimiter is a short fixed-window request counter. Errors from the
// backing store are returned as-is; the caller decides the fail-open or
// fail-closed policy.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}
