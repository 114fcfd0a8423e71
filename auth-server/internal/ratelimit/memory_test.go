package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(MemoryLimiterConfig{Now: func() time.Time { return now }})

	for i := 0; i < 3; i++ {
		decision, err := limiter.Allow(context.Background(), "token:web", 3, time.Minute)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !decision.Allowed {
			t.Fatalf("request %d denied inside limit", i)
		}
		if decision.Remaining != 3-(i+1) {
			t.Fatalf("remaining = %d after %d requests", decision.Remaining, i+1)
		}
	}

	decision, err := limiter.Allow(context.Background(), "token:web", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow over limit: %v", err)
	}
	if decision.Allowed {
		t.Fatal("fourth request allowed inside the window")
	}
	if decision.RetryAfter != time.Minute {
		t.Fatalf("retry after = %v, want the full window", decision.RetryAfter)
	}
	if decision.RetryAfterSeconds() != 60 {
		t.Fatalf("retry after seconds = %d", decision.RetryAfterSeconds())
	}

	// Other keys are unaffected.
	other, err := limiter.Allow(context.Background(), "token:cli", 3, time.Minute)
	if err != nil || !other.Allowed {
		t.Fatalf("separate key denied: allowed=%v err=%v", other.Allowed, err)
	}

	// The window rolls over and the counter resets.
	now = now.Add(61 * time.Second)
	decision, err = limiter.Allow(context.Background(), "token:web", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow after window: %v", err)
	}
	if !decision.Allowed || decision.Remaining != 2 {
		t.Fatalf("window did not reset: %+v", decision)
	}
}

func TestMemoryLimiterZeroLimitMeansUnlimited(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{})
	for i := 0; i < 100; i++ {
		decision, err := limiter.Allow(context.Background(), "k", 0, time.Minute)
		if err != nil || !decision.Allowed {
			t.Fatalf("request %d denied with no limit", i)
		}
	}
}
