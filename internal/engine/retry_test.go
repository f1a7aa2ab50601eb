package engine

import (
	"testing"
	"time"
)

func TestRetryPolicy(t *testing.T) {
	t.Parallel()

	t.Run("zero value grants a single attempt with no delay", func(t *testing.T) {
		var p RetryPolicy
		if got := p.attempts(); got != 1 {
			t.Fatalf("expected 1 attempt, got %d", got)
		}
		if got := p.delay(1); got != 0 {
			t.Fatalf("expected no delay, got %v", got)
		}
	})

	t.Run("zero delay policy keeps its attempt budget", func(t *testing.T) {
		p := ZeroDelayPolicy(5)
		if got := p.attempts(); got != 5 {
			t.Fatalf("expected 5 attempts, got %d", got)
		}
		if got := p.delay(3); got != 0 {
			t.Fatalf("expected no delay, got %v", got)
		}
	})
}

func TestDefaultRetryPolicy_BackoffBounds(t *testing.T) {
	t.Parallel()

	p := DefaultRetryPolicy()
	const (
		base     = 100 * time.Millisecond
		maxDelay = 2 * time.Second
	)

	// Jitter is random; only the bounds are stable.
	for attempt := 1; attempt <= 10; attempt++ {
		for i := 0; i < 20; i++ {
			d := p.delay(attempt)
			if d < base {
				t.Fatalf("attempt %d: delay %v below base %v", attempt, d, base)
			}
			if d > maxDelay {
				t.Fatalf("attempt %d: delay %v above cap %v", attempt, d, maxDelay)
			}
		}
	}
}
