package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/domain"
)

func TestResolveWindow(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC)
	schedule := Schedule{TurnBands: DefaultTurnBands}

	t.Run("explicit end wins", func(t *testing.T) {
		w, err := ResolveWindow(domain.Booking{StartAt: start, EndAt: start.Add(2 * time.Hour), PartySize: 2}, schedule)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if w.End != start.Add(2*time.Hour) {
			t.Fatalf("expected explicit end, got %v", w.End)
		}
	})

	t.Run("zero end derives from turn bands", func(t *testing.T) {
		cases := []struct {
			partySize int
			want      time.Duration
		}{
			{1, 60 * time.Minute},
			{2, 60 * time.Minute},
			{4, 75 * time.Minute},
			{6, 85 * time.Minute},
			{8, 90 * time.Minute},
			{12, 90 * time.Minute},
		}
		for _, tc := range cases {
			w, err := ResolveWindow(domain.Booking{StartAt: start, PartySize: tc.partySize}, schedule)
			if err != nil {
				t.Fatalf("party %d: unexpected error: %v", tc.partySize, err)
			}
			if got := w.End.Sub(w.Start); got != tc.want {
				t.Fatalf("party %d: duration %v, want %v", tc.partySize, got, tc.want)
			}
		}
	})

	t.Run("zero start is invalid", func(t *testing.T) {
		_, err := ResolveWindow(domain.Booking{PartySize: 2}, schedule)
		if !errors.Is(err, domain.ErrInvalidWindow) {
			t.Fatalf("expected ErrInvalidWindow, got %v", err)
		}
	})

	t.Run("end before start is invalid", func(t *testing.T) {
		_, err := ResolveWindow(domain.Booking{StartAt: start, EndAt: start.Add(-time.Minute), PartySize: 2}, schedule)
		if !errors.Is(err, domain.ErrInvalidWindow) {
			t.Fatalf("expected ErrInvalidWindow, got %v", err)
		}
	})
}

func TestDayBounds(t *testing.T) {
	t.Parallel()

	schedule := Schedule{Timezone: "America/New_York"}
	// 02:30 UTC on the 15th is still the evening of the 14th in New York.
	at := time.Date(2025, 6, 15, 2, 30, 0, 0, time.UTC)

	start, end := DayBounds(at, schedule)
	loc := schedule.Location()
	if start.In(loc).Hour() != 0 || start.In(loc).Day() != 14 {
		t.Fatalf("expected local midnight on the 14th, got %v", start.In(loc))
	}
	if got := end.Sub(start); got != 24*time.Hour {
		t.Fatalf("expected a 24h day, got %v", got)
	}
}

func TestScheduleLocation_UnknownTimezoneFallsBackToUTC(t *testing.T) {
	t.Parallel()

	s := Schedule{Timezone: "Not/AZone"}
	if got := s.Location(); got != time.UTC {
		t.Fatalf("expected UTC fallback, got %v", got)
	}
}
