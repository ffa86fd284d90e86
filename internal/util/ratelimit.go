package util

import (
	"context"
	"sync"
	"time"
)

// RateLimiter enforces a minimum interval between successive operations.
// The upstream source rate-limits aggressive clients, so every request the
// fetcher issues passes through one shared limiter.
type RateLimiter struct {
	interval time.Duration
	last     time.Time
	mu       sync.Mutex
}

// NewRateLimiter creates a RateLimiter that allows one operation per
// interval. A non-positive interval disables limiting.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{interval: interval}
}

// Wait blocks until the configured interval has elapsed since the previous
// permitted operation, or the context is cancelled. The first call never
// blocks.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	now := time.Now()
	var sleep time.Duration
	if !rl.last.IsZero() {
		if next := rl.last.Add(rl.interval); next.After(now) {
			sleep = next.Sub(now)
		}
	}
	rl.last = now.Add(sleep)
	rl.mu.Unlock()

	if sleep <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(sleep):
		return nil
	}
}
