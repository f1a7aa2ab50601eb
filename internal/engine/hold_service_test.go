package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/clock"
	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/domain"
)

func TestHoldService_CreateHold(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 14, 17, 0, 0, 0, time.UTC)
	ttl := 3 * time.Minute
	dinner := domain.Window{
		Start: time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 14, 19, 30, 0, 0, time.UTC),
	}

	makeSvc := func(allocations []domain.Allocation, holds []domain.Hold) (*HoldService, *fakeHoldRepo) {
		repo := newFakeHoldRepo(allocations, holds)
		svc := NewHoldService(repo, clock.NewFixed(now), WithHoldTTL(ttl))
		return svc, repo
	}

	t.Run("creates hold when tables are free", func(t *testing.T) {
		svc, repo := makeSvc(nil, nil)

		hold, err := svc.CreateHold(context.Background(), CreateHoldInput{
			BookingID: "booking-1",
			TableIDs:  []string{"t1", "t2"},
			Window:    dinner,
			CreatedBy: "auto-assign",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if hold.ID == "" {
			t.Fatalf("expected hold ID to be set")
		}
		if hold.ExpiresAt != now.Add(ttl) {
			t.Fatalf("expected expires_at %v, got %v", now.Add(ttl), hold.ExpiresAt)
		}
		if len(repo.holds) != 1 {
			t.Fatalf("expected 1 hold in repo, got %d", len(repo.holds))
		}
	})

	t.Run("all requested tables fail together on any conflict", func(t *testing.T) {
		svc, repo := makeSvc(nil, []domain.Hold{{
			ID:        "hold-other",
			BookingID: "booking-other",
			TableIDs:  []string{"t2"},
			StartAt:   dinner.Start,
			EndAt:     dinner.End,
			ExpiresAt: now.Add(time.Minute),
		}})

		_, err := svc.CreateHold(context.Background(), CreateHoldInput{
			BookingID: "booking-1",
			TableIDs:  []string{"t1", "t2"},
			Window:    dinner,
		})
		if !errors.Is(err, domain.ErrHoldConflict) {
			t.Fatalf("expected ErrHoldConflict, got %v", err)
		}
		if len(repo.holds) != 1 {
			t.Fatalf("expected no hold created on conflict, got %d", len(repo.holds))
		}
	})

	t.Run("committed allocation blocks the hold", func(t *testing.T) {
		svc, _ := makeSvc([]domain.Allocation{{
			ID:      "a1",
			TableID: "t1",
			StartAt: dinner.Start.Add(30 * time.Minute),
			EndAt:   dinner.End.Add(30 * time.Minute),
		}}, nil)

		_, err := svc.CreateHold(context.Background(), CreateHoldInput{
			BookingID: "booking-1",
			TableIDs:  []string{"t1"},
			Window:    dinner,
		})
		if !errors.Is(err, domain.ErrHoldConflict) {
			t.Fatalf("expected ErrHoldConflict, got %v", err)
		}
	})

	t.Run("expired hold frees its tables", func(t *testing.T) {
		svc, _ := makeSvc(nil, []domain.Hold{{
			ID:        "hold-old",
			TableIDs:  []string{"t1"},
			StartAt:   dinner.Start,
			EndAt:     dinner.End,
			ExpiresAt: now.Add(-time.Second),
		}})

		_, err := svc.CreateHold(context.Background(), CreateHoldInput{
			BookingID: "booking-1",
			TableIDs:  []string{"t1"},
			Window:    dinner,
		})
		if err != nil {
			t.Fatalf("expected expired hold to be ignored, got %v", err)
		}
	})

	t.Run("empty table set is rejected", func(t *testing.T) {
		svc, _ := makeSvc(nil, nil)
		_, err := svc.CreateHold(context.Background(), CreateHoldInput{
			BookingID: "booking-1",
			Window:    dinner,
		})
		if !errors.Is(err, domain.ErrInvalidID) {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("invalid window is rejected", func(t *testing.T) {
		svc, _ := makeSvc(nil, nil)
		_, err := svc.CreateHold(context.Background(), CreateHoldInput{
			BookingID: "booking-1",
			TableIDs:  []string{"t1"},
			Window:    domain.Window{Start: dinner.End, End: dinner.Start},
		})
		if !errors.Is(err, domain.ErrInvalidWindow) {
			t.Fatalf("expected ErrInvalidWindow, got %v", err)
		}
	})
}

func TestHoldService_Release(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 14, 17, 0, 0, 0, time.UTC)

	t.Run("release deletes the hold", func(t *testing.T) {
		repo := newFakeHoldRepo(nil, []domain.Hold{{ID: "h1", TableIDs: []string{"t1"}, ExpiresAt: now.Add(time.Minute)}})
		svc := NewHoldService(repo, clock.NewFixed(now))

		if err := svc.Release(context.Background(), "h1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(repo.holds) != 0 {
			t.Fatalf("expected hold removed, got %d", len(repo.holds))
		}
	})

	t.Run("releasing a missing hold is a no-op", func(t *testing.T) {
		repo := newFakeHoldRepo(nil, nil)
		svc := NewHoldService(repo, clock.NewFixed(now))

		if err := svc.Release(context.Background(), "gone"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := svc.Release(context.Background(), ""); err != nil {
			t.Fatalf("expected no error for empty id, got %v", err)
		}
	})
}

func TestHoldService_SweepExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 14, 17, 0, 0, 0, time.UTC)
	repo := newFakeHoldRepo(nil, []domain.Hold{
		{ID: "h1", ExpiresAt: now.Add(-time.Minute)},
		{ID: "h2", ExpiresAt: now.Add(-time.Second)},
		{ID: "h3", ExpiresAt: now.Add(time.Minute)},
	})
	svc := NewHoldService(repo, clock.NewFixed(now))

	removed, err := svc.SweepExpired(context.Background(), 10)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if len(repo.holds) != 1 || repo.holds[0].ID != "h3" {
		t.Fatalf("expected only h3 to survive, got %+v", repo.holds)
	}
}

type fakeHoldRepo struct {
	allocations []domain.Allocation
	holds       []domain.Hold
}

func newFakeHoldRepo(allocations []domain.Allocation, holds []domain.Hold) *fakeHoldRepo {
	return &fakeHoldRepo{
		allocations: append([]domain.Allocation{}, allocations...),
		holds:       append([]domain.Hold{}, holds...),
	}
}

func (f *fakeHoldRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeHoldRepo) LockTables(context.Context, []string) error { return nil }

func (f *fakeHoldRepo) OverlappingAllocations(_ context.Context, tableIDs []string, window domain.Window) ([]domain.Allocation, error) {
	wanted := make(map[string]bool, len(tableIDs))
	for _, id := range tableIDs {
		wanted[id] = true
	}
	var out []domain.Allocation
	for _, a := range f.allocations {
		if wanted[a.TableID] && window.Overlaps(a.Window()) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeHoldRepo) OverlappingHolds(_ context.Context, tableIDs []string, window domain.Window, now time.Time, excludeHoldID string) ([]domain.Hold, error) {
	wanted := make(map[string]bool, len(tableIDs))
	for _, id := range tableIDs {
		wanted[id] = true
	}
	var out []domain.Hold
	for _, h := range f.holds {
		if h.ID == excludeHoldID || !h.Active(now) || !window.Overlaps(h.Window()) {
			continue
		}
		for _, id := range h.TableIDs {
			if wanted[id] {
				out = append(out, h)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeHoldRepo) CreateHold(_ context.Context, hold domain.Hold) error {
	f.holds = append(f.holds, hold)
	return nil
}

func (f *fakeHoldRepo) DeleteHold(_ context.Context, holdID string) (bool, error) {
	for i, h := range f.holds {
		if h.ID == holdID {
			f.holds = append(f.holds[:i], f.holds[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeHoldRepo) DeleteExpiredHolds(_ context.Context, cutoff time.Time, limit int) (int, error) {
	removed := 0
	kept := f.holds[:0]
	for _, h := range f.holds {
		if removed < limit && !h.ExpiresAt.After(cutoff) {
			removed++
			continue
		}
		kept = append(kept, h)
	}
	f.holds = kept
	return removed, nil
}
