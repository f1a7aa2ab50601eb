package domain

import "time"

type BookingStatus string

const (
	BookingPending           BookingStatus = "pending"
	BookingPendingAllocation BookingStatus = "pending_allocation"
	BookingConfirmed         BookingStatus = "confirmed"
	BookingCancelled         BookingStatus = "cancelled"
	BookingCompleted         BookingStatus = "completed"
	BookingNoShow            BookingStatus = "no_show"
	BookingCheckedIn         BookingStatus = "checked_in"
)

// BlocksAssignment reports whether a booking in this status still needs (and
// may receive) a table assignment.
func (s BookingStatus) BlocksAssignment() bool {
	return s == BookingPending || s == BookingPendingAllocation
}

type BookingType string

const (
	BookingTypeLunch  BookingType = "lunch"
	BookingTypeDinner BookingType = "dinner"
	BookingTypeDrinks BookingType = "drinks"
)

// Booking is the engine's view of a reservation request. Date is midnight in
// the restaurant's timezone; StartAt/EndAt are the dining window. EndAt may be
// zero when the caller defers to the schedule service's turn bands.
type Booking struct {
	ID                string
	RestaurantID      string
	Date              time.Time
	StartAt           time.Time
	EndAt             time.Time
	PartySize         int
	SeatingPreference SeatingType
	BookingType       BookingType
	Status            BookingStatus
}

// Window is a half-open [Start, End) time interval.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Valid() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && w.Start.Before(w.End)
}

// Overlaps uses half-open semantics: windows that merely touch do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

func (b Booking) Window() Window {
	return Window{Start: b.StartAt, End: b.EndAt}
}
