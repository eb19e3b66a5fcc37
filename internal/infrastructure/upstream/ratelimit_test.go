package upstream

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_TryAcquire(t *testing.T) {
	// 2 units, refilling over a long window so the test sees no refill
	rl := NewRateLimiter(2, time.Hour)

	if !rl.TryAcquire() {
		t.Error("expected first TryAcquire to succeed")
	}
	if !rl.TryAcquire() {
		t.Error("expected second TryAcquire to succeed")
	}
	if rl.TryAcquire() {
		t.Error("expected third TryAcquire to fail")
	}
}

func TestRateLimiter_FractionalRefill(t *testing.T) {
	// 10 units per second
	rl := NewRateLimiter(10, time.Second)
	for i := 0; i < 10; i++ {
		if !rl.TryAcquire() {
			t.Fatalf("expected acquire %d to succeed", i)
		}
	}
	if rl.TryAcquire() {
		t.Error("expected empty bucket to deny")
	}

	// ~1.2 units accumulate across repeated sub-second refills
	time.Sleep(40 * time.Millisecond)
	_ = rl.AvailableUnits()
	time.Sleep(40 * time.Millisecond)
	_ = rl.AvailableUnits()
	time.Sleep(40 * time.Millisecond)

	if !rl.TryAcquire() {
		t.Error("expected TryAcquire to succeed after fractional refill")
	}
}

func TestRateLimiter_WaitForUnit(t *testing.T) {
	// 1 unit, 100/second refill (fast for testing)
	rl := NewRateLimiter(1, 10*time.Millisecond)

	if err := rl.WaitForUnit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := time.Now()
	if err := rl.WaitForUnit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Errorf("expected WaitForUnit to block, but elapsed=%v", elapsed)
	}
}

func TestRateLimiter_WaitForUnit_ContextCancelled(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	rl.TryAcquire() // drain

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := rl.WaitForUnit(ctx); err == nil {
		t.Error("expected context error from WaitForUnit on empty bucket")
	}
}

func TestRateLimiter_FailureBackoffGrowth(t *testing.T) {
	// 1 unit per second: base per-unit interval is 1s
	rl := NewRateLimiter(1, time.Second)
	base := rl.retryDelay()
	if base != time.Second {
		t.Fatalf("expected 1s base delay, got %v", base)
	}

	rl.ReportFailure()
	rl.ReportFailure()
	rl.ReportFailure()

	// after 3 consecutive failures the delay is 2^3 = 8x the base
	if got := rl.retryDelay(); got != 8*time.Second {
		t.Errorf("expected 8s delay after 3 failures, got %v", got)
	}
}

func TestRateLimiter_FailureBackoffCap(t *testing.T) {
	rl := NewRateLimiter(1, time.Second)
	for i := 0; i < 20; i++ {
		rl.ReportFailure()
	}

	// multiplier caps at 2^5 = 32x
	if got := rl.retryDelay(); got != 32*time.Second {
		t.Errorf("expected capped 32s delay, got %v", got)
	}
}

func TestRateLimiter_ReportSuccessResetsBackoff(t *testing.T) {
	rl := NewRateLimiter(1, time.Second)
	rl.ReportFailure()
	rl.ReportFailure()
	rl.ReportSuccess()

	if got := rl.retryDelay(); got != time.Second {
		t.Errorf("expected base delay after success, got %v", got)
	}
}

func TestRateLimiter_AvailableUnits(t *testing.T) {
	rl := NewRateLimiter(5, time.Hour)
	if got := rl.AvailableUnits(); got != 5 {
		t.Errorf("expected 5 available units, got %d", got)
	}
	rl.TryAcquire()
	rl.TryAcquire()
	if got := rl.AvailableUnits(); got != 3 {
		t.Errorf("expected 3 available units, got %d", got)
	}
}
