package translate

import (
	"context"
	"sync"
	"time"
)

// RateLimiter enforces a single minimum interval between successive API
// calls — a one-token bucket rather than a full token-bucket-with-burst,
// since the translation API backing this assistant has no documented burst
// allowance worth modeling.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewRateLimiter creates a limiter enforcing at least interval between
// calls to Wait.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{interval: interval}
}

// Wait blocks until the minimum interval has elapsed since the previous
// call's completion, or returns ctx.Err() if cancelled first.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	var wait time.Duration
	if !r.last.IsZero() {
		elapsed := time.Since(r.last)
		if elapsed < r.interval {
			wait = r.interval - elapsed
		}
	}
	r.mu.Unlock()

	if err := sleepOrCancel(ctx, wait); err != nil {
		return err
	}

	r.mu.Lock()
	r.last = time.Now()
	r.mu.Unlock()
	return nil
}

// DefaultRateLimitInterval is the spec's minimum spacing between calls.
const DefaultRateLimitInterval = 100 * time.Millisecond
