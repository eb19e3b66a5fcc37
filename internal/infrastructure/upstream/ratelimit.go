package upstream

import (
	"context"
	"sync"
	"time"
)

const maxBackoffShift = 5 // failure backoff multiplier capped at 2^5 = 32x

// RateLimiter implements a token bucket with continuous refill and
// failure-coupled backoff. Each source adapter owns one instance.
// Thread-safe and suitable for concurrent API calls.
type RateLimiter struct {
	mu         sync.Mutex
	units      float64
	capacity   float64
	refillRate float64 // units per second
	lastRefill time.Time
	failures   int
}

// NewRateLimiter creates a limiter admitting capacity requests per window.
// The bucket starts full.
func NewRateLimiter(capacity int, window time.Duration) *RateLimiter {
	if capacity < 1 {
		capacity = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &RateLimiter{
		units:      float64(capacity),
		capacity:   float64(capacity),
		refillRate: float64(capacity) / window.Seconds(),
		lastRefill: time.Now(),
	}
}

// TryAcquire attempts to consume one unit without blocking.
func (r *RateLimiter) TryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()
	if r.units >= 1 {
		r.units--
		return true
	}
	return false
}

// WaitForUnit blocks the caller until a unit is available or ctx is done.
// While the bucket is empty it sleeps the per-unit refill interval scaled by
// 2^min(consecutiveFailures, 5), so sustained upstream failures slow the
// effective request rate even though the nominal refill is unchanged.
// An explicit loop, not recursion: one suspension point per iteration.
func (r *RateLimiter) WaitForUnit(ctx context.Context) error {
	for {
		if r.TryAcquire() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.retryDelay()):
		}
	}
}

// ReportSuccess resets the consecutive failure counter.
func (r *RateLimiter) ReportSuccess() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = 0
}

// ReportFailure records one upstream failure, growing the wait backoff.
func (r *RateLimiter) ReportFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
}

// AvailableUnits returns the whole units currently in the bucket.
func (r *RateLimiter) AvailableUnits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refill()
	return int(r.units)
}

// retryDelay computes the empty-bucket wait: the base per-unit interval
// scaled by the capped failure multiplier.
func (r *RateLimiter) retryDelay() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	shift := r.failures
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	perUnit := time.Duration(float64(time.Second) / r.refillRate)
	return perUnit * time.Duration(1<<shift)
}

// refill adds fractional units based on elapsed time, capped at capacity.
// Must be called with the mutex held.
func (r *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	r.units += elapsed * r.refillRate
	if r.units > r.capacity {
		r.units = r.capacity
	}
	r.lastRefill = now
}
