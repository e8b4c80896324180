// Package ratelimit implements a coarse fixed-window request budget
// guard. Windows are wall-clock based and reset exactly at
// windowStart + window; this is an abuse guard, not a fairness
// mechanism, so no sliding window or token bucket is attempted.
package ratelimit

import (
	"context"
	"time"
)

// Store counts hits per key within a fixed window. The in-memory
// implementation yields per-instance budgets; substitute the redis
// store when a global budget is needed across instances.
type Store interface {
	// Incr increments the counter for key, starting a fresh window when
	// the previous one has closed. It returns the count within the
	// current window and the time remaining until the window resets.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, remaining time.Duration, err error)
}

// Result reports the outcome of an Allow check.
type Result struct {
	Allowed           bool
	RetryAfterSeconds int
}

// Limiter applies a points-per-window budget over a Store.
type Limiter struct {
	store Store
}

// NewLimiter creates a limiter over the given store.
func NewLimiter(store Store) *Limiter {
	return &Limiter{store: store}
}

// Allow consumes one request from the key's budget. On a store failure
// the request is admitted; the limiter fails open because it guards
// abuse, not correctness.
func (l *Limiter) Allow(ctx context.Context, key string, points int, window time.Duration) (Result, error) {
	count, remaining, err := l.store.Incr(ctx, key, window)
	if err != nil {
		return Result{Allowed: true}, err
	}
	if count > int64(points) {
		retry := int(remaining.Seconds())
		if retry < 1 {
			retry = 1
		}
		return Result{Allowed: false, RetryAfterSeconds: retry}, nil
	}
	return Result{Allowed: true}, nil
}
