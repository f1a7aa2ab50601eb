package domain

import "errors"

var (
	// Validation failures surface to the caller immediately.
	ErrInvalidPartySize = errors.New("invalid party size")
	ErrInvalidWindow    = errors.New("invalid booking window")
	ErrInvalidID        = errors.New("invalid id")

	// ErrNoCapacity means no strategy on the ladder produced a seatable
	// candidate; the booking stays pending with this reason.
	ErrNoCapacity = errors.New("no candidate satisfies capacity constraints")

	// Retryable conflicts.
	ErrHoldConflict       = errors.New("tables already held or allocated for an overlapping window")
	ErrAllocationConflict = errors.New("concurrent allocation raced for an overlapping slot")

	// ErrStaleHold means the hold expired or was already consumed before
	// confirm; retry from candidate generation, never by reusing the hold.
	ErrStaleHold = errors.New("hold expired or already consumed")

	ErrHoldNotFound           = errors.New("hold not found")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrIdempotencyConflict    = errors.New("idempotency key reused with different inputs")
)

// RetryableConflict reports whether the error is a transient collision the
// orchestrator may retry with fresh candidates.
func RetryableConflict(err error) bool {
	return errors.Is(err, ErrHoldConflict) || errors.Is(err, ErrAllocationConflict) || errors.Is(err, ErrStaleHold)
}
