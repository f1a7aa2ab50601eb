package engine

import (
	"testing"
	"time"
)

func TestDemandProfile_MultiplierFor(t *testing.T) {
	t.Parallel()

	profile := DefaultDemandProfile()
	// 2025-06-11 is a Wednesday, 2025-06-13 a Friday.
	at := func(day, hour, minute int) time.Time {
		return time.Date(2025, 6, day, hour, minute, 0, 0, time.UTC)
	}

	cases := []struct {
		name string
		t    time.Time
		want float64
	}{
		{"weekday lunch", at(11, 12, 30), 1.2},
		{"weekday afternoon lull", at(11, 15, 0), 0.8},
		{"weekday dinner peak", at(11, 19, 0), 1.5},
		{"weekend dinner outranks weekday rule", at(13, 19, 0), 1.8},
		{"dinner window end is exclusive", at(11, 21, 0), 1.0},
		{"late night falls back to base", at(11, 23, 30), 1.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := profile.MultiplierFor(tc.t); got != tc.want {
				t.Fatalf("MultiplierFor(%v) = %v, want %v", tc.t, got, tc.want)
			}
		})
	}
}

func TestDemandProfile_NarrowerWindowWins(t *testing.T) {
	t.Parallel()

	profile := &DemandProfile{
		Base: 1.0,
		Rules: []DemandRule{
			{StartHour: 17, EndHour: 22, Multiplier: 1.3},
			{StartHour: 19, EndHour: 20, Multiplier: 2.0},
		},
	}
	if got := profile.MultiplierFor(time.Date(2025, 6, 11, 19, 30, 0, 0, time.UTC)); got != 2.0 {
		t.Fatalf("expected the narrower rule to win, got %v", got)
	}
	if got := profile.MultiplierFor(time.Date(2025, 6, 11, 18, 0, 0, 0, time.UTC)); got != 1.3 {
		t.Fatalf("expected the wide rule outside the narrow window, got %v", got)
	}
}

func TestDemandProfile_ZeroValue(t *testing.T) {
	t.Parallel()

	var profile DemandProfile
	if got := profile.MultiplierFor(time.Now()); got != 1.0 {
		t.Fatalf("empty profile should return 1.0, got %v", got)
	}
}
