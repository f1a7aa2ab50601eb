package domain

import (
	"fmt"
	"time"
)

// Allocation is a committed binding between one booking and one table.
// Shadow allocations are speculative and never block other bookings.
type Allocation struct {
	ID             string
	BookingID      string
	TableID        string
	Date           time.Time
	StartAt        time.Time
	EndAt          time.Time
	SlotKey        string
	Shadow         bool
	IdempotencyKey string
	CreatedAt      time.Time
}

func (a Allocation) Window() Window {
	return Window{Start: a.StartAt, End: a.EndAt}
}

// Blocking reports whether the allocation participates in conflict checks.
func (a Allocation) Blocking() bool {
	return !a.Shadow
}

// slotBucket is the de-duplication granularity for allocation slot keys.
const slotBucket = 15 * time.Minute

// SlotKeyFor derives the same-day, same-time-bucket de-duplication key that
// backs the storage uniqueness constraint on non-shadow allocations.
func SlotKeyFor(date, start time.Time) string {
	return fmt.Sprintf("%s:%s", date.Format("2006-01-02"), start.UTC().Truncate(slotBucket).Format("15:04"))
}
