package upstream

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

const (
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 10 * time.Second
)

// Do runs op up to attempts times, sleeping an exponentially growing,
// jittered delay between attempts. It returns nil on the first success and
// the last error, wrapped, once attempts are exhausted. The sleep is
// ctx-aware, so a cancelled context aborts the remaining attempts.
func Do(ctx context.Context, name string, attempts int, op func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			delay := retryBackoff(i - 1)
			slog.Debug("retrying upstream call",
				slog.String("op", name),
				slog.Int("attempt", i+1),
				slog.Duration("delay", delay),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := op(ctx); err != nil {
			lastErr = err
			slog.Warn("upstream call failed",
				slog.String("op", name),
				slog.Int("attempt", i+1),
				slog.Any("error", err),
			)
			continue
		}
		return nil
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, lastErr)
}

// retryBackoff returns baseDelay * 2^retryCount with +/-25% jitter, capped
// at retryMaxDelay before jitter is applied.
func retryBackoff(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	if retryCount > 30 {
		retryCount = 30
	}

	backoff := retryBaseDelay * time.Duration(1<<retryCount)
	if backoff > retryMaxDelay {
		backoff = retryMaxDelay
	}

	// jitter in [0.75, 1.25)
	jitter := 0.75 + rand.Float64()*0.5
	return time.Duration(float64(backoff) * jitter)
}
