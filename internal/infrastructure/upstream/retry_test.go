package upstream

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDo_FirstAttemptSucceeds(t *testing.T) {
	calls := 0
	err := Do(context.Background(), "op", 3, func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), "op", 5, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("still down")
	calls := 0
	err := Do(context.Background(), "flaky-op", 3, func(ctx context.Context) error {
		calls++
		return sentinel
	})
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("expected wrapped last error, got %v", err)
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("expected attempt count in error, got %q", err)
	}
}

func TestDo_ContextCancelAbortsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, "op", 10, func(ctx context.Context) error {
		calls++
		return errors.New("down")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls == 0 || calls > 2 {
		t.Errorf("expected cancel during early backoff, got %d calls", calls)
	}
}

func TestRetryBackoff_GrowthAndCap(t *testing.T) {
	for i, want := range []time.Duration{
		500 * time.Millisecond,
		time.Second,
		2 * time.Second,
	} {
		got := retryBackoff(i)
		// jitter keeps the result within +/-25% of the nominal delay
		if got < time.Duration(float64(want)*0.75) || got > time.Duration(float64(want)*1.25) {
			t.Errorf("retryBackoff(%d) = %v, want within 25%% of %v", i, got, want)
		}
	}

	if got := retryBackoff(20); got > time.Duration(float64(retryMaxDelay)*1.25) {
		t.Errorf("expected capped delay, got %v", got)
	}
}
