package engine

import (
	"context"
	"time"

	"github.com/jinzhu/now"

	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/domain"
)

// Schedule supplies the restaurant's timezone and turn-band durations, used
// to derive an end time when a booking does not carry one.
type Schedule struct {
	Timezone  string
	TurnBands []TurnBand
}

// TurnBand gives the default dining duration for parties up to MaxPartySize.
type TurnBand struct {
	MaxPartySize    int
	DurationMinutes int
}

// ScheduleService is the external schedule collaborator.
type ScheduleService interface {
	RestaurantSchedule(ctx context.Context, restaurantID string) (Schedule, error)
}

// DefaultTurnBands mirrors standard dinner service turns.
var DefaultTurnBands = []TurnBand{
	{MaxPartySize: 2, DurationMinutes: 60},
	{MaxPartySize: 4, DurationMinutes: 75},
	{MaxPartySize: 6, DurationMinutes: 85},
	{MaxPartySize: 8, DurationMinutes: 90},
}

// Duration picks the turn band for a party size; parties beyond the last band
// use the last band's duration.
func (s Schedule) Duration(partySize int) time.Duration {
	bands := s.TurnBands
	if len(bands) == 0 {
		bands = DefaultTurnBands
	}
	for _, band := range bands {
		if partySize <= band.MaxPartySize {
			return time.Duration(band.DurationMinutes) * time.Minute
		}
	}
	return time.Duration(bands[len(bands)-1].DurationMinutes) * time.Minute
}

func (s Schedule) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ResolveWindow fills a booking's dining window. A zero EndAt is derived from
// the schedule's turn bands. Returns ErrInvalidWindow when the result is not
// a valid half-open interval.
func ResolveWindow(b domain.Booking, schedule Schedule) (domain.Window, error) {
	if b.StartAt.IsZero() {
		return domain.Window{}, domain.ErrInvalidWindow
	}
	end := b.EndAt
	if end.IsZero() {
		end = b.StartAt.Add(schedule.Duration(b.PartySize))
	}
	w := domain.Window{Start: b.StartAt, End: end}
	if !w.Valid() {
		return domain.Window{}, domain.ErrInvalidWindow
	}
	return w, nil
}

// DayBounds returns the [midnight, next midnight) span containing t in the
// schedule's timezone; the sweep uses it to scope its date.
func DayBounds(t time.Time, schedule Schedule) (time.Time, time.Time) {
	local := now.New(t.In(schedule.Location()))
	start := local.BeginningOfDay()
	return start, start.AddDate(0, 0, 1)
}
