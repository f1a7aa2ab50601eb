package engine

import (
	"testing"
	"time"

	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/domain"
)

func TestFindConflicts(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC)
	window := func(startHour, startMin, endHour, endMin int) domain.Window {
		return domain.Window{
			Start: time.Date(2025, 6, 14, startHour, startMin, 0, 0, time.UTC),
			End:   time.Date(2025, 6, 14, endHour, endMin, 0, 0, time.UTC),
		}
	}

	alloc := func(id, tableID string, w domain.Window) domain.Allocation {
		return domain.Allocation{ID: id, TableID: tableID, StartAt: w.Start, EndAt: w.End}
	}

	t.Run("overlapping allocation on a wanted table conflicts", func(t *testing.T) {
		got := FindConflicts(
			[]string{"t1"},
			window(18, 0, 19, 0),
			[]domain.Allocation{alloc("a1", "t1", window(18, 30, 20, 0))},
			nil, now, "",
		)
		if len(got.AllocationIDs) != 1 || got.AllocationIDs[0] != "a1" {
			t.Fatalf("expected allocation a1 to conflict, got %+v", got)
		}
	})

	t.Run("back to back windows never conflict", func(t *testing.T) {
		got := FindConflicts(
			[]string{"t1"},
			window(18, 0, 19, 0),
			[]domain.Allocation{alloc("a1", "t1", window(19, 0, 20, 0))},
			[]domain.Hold{{ID: "h1", TableIDs: []string{"t1"}, StartAt: window(17, 0, 18, 0).Start, EndAt: window(17, 0, 18, 0).End, ExpiresAt: now.Add(time.Minute)}},
			now, "",
		)
		if got.Any() {
			t.Fatalf("expected no conflicts for touching windows, got %+v", got)
		}
	})

	t.Run("shadow allocations never block", func(t *testing.T) {
		shadow := alloc("a1", "t1", window(18, 0, 20, 0))
		shadow.Shadow = true
		got := FindConflicts([]string{"t1"}, window(18, 0, 19, 0), []domain.Allocation{shadow}, nil, now, "")
		if got.Any() {
			t.Fatalf("expected shadow allocation to be ignored, got %+v", got)
		}
	})

	t.Run("other tables never conflict", func(t *testing.T) {
		got := FindConflicts(
			[]string{"t1"},
			window(18, 0, 19, 0),
			[]domain.Allocation{alloc("a1", "t2", window(18, 0, 19, 0))},
			nil, now, "",
		)
		if got.Any() {
			t.Fatalf("expected no conflict on unrelated table, got %+v", got)
		}
	})

	t.Run("active hold blocks even without allocation rows", func(t *testing.T) {
		hold := domain.Hold{
			ID:        "h1",
			TableIDs:  []string{"t1", "t2"},
			StartAt:   window(18, 0, 19, 30).Start,
			EndAt:     window(18, 0, 19, 30).End,
			ExpiresAt: now.Add(2 * time.Minute),
		}
		got := FindConflicts([]string{"t2"}, window(19, 0, 20, 0), nil, []domain.Hold{hold}, now, "")
		if len(got.HoldIDs) != 1 || got.HoldIDs[0] != "h1" {
			t.Fatalf("expected hold h1 to conflict, got %+v", got)
		}
	})

	t.Run("expired hold does not block", func(t *testing.T) {
		hold := domain.Hold{
			ID:        "h1",
			TableIDs:  []string{"t1"},
			StartAt:   window(18, 0, 19, 0).Start,
			EndAt:     window(18, 0, 19, 0).End,
			ExpiresAt: now.Add(-time.Second),
		}
		got := FindConflicts([]string{"t1"}, window(18, 0, 19, 0), nil, []domain.Hold{hold}, now, "")
		if got.Any() {
			t.Fatalf("expected expired hold to be ignored, got %+v", got)
		}
	})

	t.Run("caller's own hold is excluded", func(t *testing.T) {
		hold := domain.Hold{
			ID:        "h1",
			TableIDs:  []string{"t1"},
			StartAt:   window(18, 0, 19, 0).Start,
			EndAt:     window(18, 0, 19, 0).End,
			ExpiresAt: now.Add(time.Minute),
		}
		got := FindConflicts([]string{"t1"}, window(18, 0, 19, 0), nil, []domain.Hold{hold}, now, "h1")
		if got.Any() {
			t.Fatalf("expected own hold to be excluded, got %+v", got)
		}
	})
}
