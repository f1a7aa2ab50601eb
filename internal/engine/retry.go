package engine

import (
	rand "math/rand/v2"
	"time"
)

// RetryPolicy bounds how the orchestrator retries transient conflicts. It is
// injected rather than hardcoded so tests can substitute a zero-delay policy.
type RetryPolicy struct {
	MaxAttempts int
	// Backoff maps a 1-based attempt number to the delay before the next
	// attempt. Nil means no delay.
	Backoff func(attempt int) time.Duration
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	if p.Backoff == nil {
		return 0
	}
	return p.Backoff(attempt)
}

// ZeroDelayPolicy retries immediately; intended for tests and inline mode.
func ZeroDelayPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: maxAttempts}
}

// DefaultRetryPolicy uses capped full-jitter backoff: each delay is the base
// plus a random share of the growth from the previous ceiling.
func DefaultRetryPolicy() RetryPolicy {
	const (
		base       = 100 * time.Millisecond
		multiplier = 2.0
		capDur     = 2 * time.Second
	)
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff: func(attempt int) time.Duration {
			return jitterBackoff(attempt, base, multiplier, capDur)
		},
	}
}

func jitterBackoff(attempt int, base time.Duration, mult float64, capDur time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	ceiling := float64(base)
	for i := 1; i < attempt; i++ {
		ceiling *= mult
		if capDur > 0 && ceiling >= float64(capDur) {
			ceiling = float64(capDur)
			break
		}
	}
	span := time.Duration(ceiling) - base
	if span <= 0 {
		return base
	}
	next := base + time.Duration(rand.Int64N(int64(span))) //nolint:gosec // non-crypto backoff jitter
	if capDur > 0 && next > capDur {
		return capDur
	}
	return next
}
