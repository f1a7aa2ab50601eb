package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/clock"
	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/domain"
)

// HoldRepository is the storage contract for the hold manager. LockTables
// must take row locks in a stable order so concurrent hold creation for
// overlapping table sets serializes instead of deadlocking; the repository
// maps storage uniqueness/exclusion violations to domain.ErrHoldConflict.
type HoldRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockTables(ctx context.Context, tableIDs []string) error
	OverlappingAllocations(ctx context.Context, tableIDs []string, window domain.Window) ([]domain.Allocation, error)
	OverlappingHolds(ctx context.Context, tableIDs []string, window domain.Window, now time.Time, excludeHoldID string) ([]domain.Hold, error)
	CreateHold(ctx context.Context, hold domain.Hold) error
	DeleteHold(ctx context.Context, holdID string) (bool, error)
	DeleteExpiredHolds(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// HoldService converts chosen candidates into time-boxed exclusive holds.
type HoldService struct {
	repo    HoldRepository
	clock   clock.Clock
	holdTTL time.Duration
	logger  *slog.Logger
}

func NewHoldService(repo HoldRepository, clk clock.Clock, opts ...HoldServiceOption) *HoldService {
	svc := &HoldService{
		repo:    repo,
		clock:   clk,
		holdTTL: domain.DefaultHoldTTL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type HoldServiceOption func(*HoldService)

// WithHoldTTL overrides the default TTL for new holds.
func WithHoldTTL(d time.Duration) HoldServiceOption {
	return func(s *HoldService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

func WithHoldLogger(logger *slog.Logger) HoldServiceOption {
	return func(s *HoldService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type CreateHoldInput struct {
	BookingID    string
	RestaurantID string
	ZoneID       string
	TableIDs     []string
	Window       domain.Window
	// TTL overrides the service default when positive.
	TTL       time.Duration
	CreatedBy string
}

// CreateHold re-checks conflicts and inserts the hold inside one transaction;
// this is the critical-section boundary for hold creation. Any requested
// table already held or allocated for an overlapping window fails the whole
// call with domain.ErrHoldConflict.
func (s *HoldService) CreateHold(ctx context.Context, in CreateHoldInput) (domain.Hold, error) {
	if len(in.TableIDs) == 0 {
		return domain.Hold{}, fmt.Errorf("%w: hold needs at least one table", domain.ErrInvalidID)
	}
	if !in.Window.Valid() {
		return domain.Hold{}, domain.ErrInvalidWindow
	}

	now := s.clock.Now()
	ttl := s.holdTTL
	if in.TTL > 0 {
		ttl = in.TTL
	}

	hold := domain.Hold{
		ID:           newID(),
		BookingID:    in.BookingID,
		RestaurantID: in.RestaurantID,
		ZoneID:       in.ZoneID,
		TableIDs:     append([]string(nil), in.TableIDs...),
		StartAt:      in.Window.Start,
		EndAt:        in.Window.End,
		ExpiresAt:    now.Add(ttl),
		CreatedBy:    in.CreatedBy,
		CreatedAt:    now,
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.LockTables(txCtx, in.TableIDs); err != nil {
			return err
		}

		allocations, err := s.repo.OverlappingAllocations(txCtx, in.TableIDs, in.Window)
		if err != nil {
			return err
		}
		holds, err := s.repo.OverlappingHolds(txCtx, in.TableIDs, in.Window, now, "")
		if err != nil {
			return err
		}
		if conflicts := FindConflicts(in.TableIDs, in.Window, allocations, holds, now, ""); conflicts.Any() {
			return fmt.Errorf("%w: allocations=%v holds=%v",
				domain.ErrHoldConflict, conflicts.AllocationIDs, conflicts.HoldIDs)
		}

		return s.repo.CreateHold(txCtx, hold)
	})
	if err != nil {
		return domain.Hold{}, err
	}

	s.logger.Debug("hold created",
		"hold_id", hold.ID,
		"booking_id", hold.BookingID,
		"tables", hold.TableIDs,
		"expires_at", hold.ExpiresAt,
	)
	return hold, nil
}

// Release discards a hold and frees its tables immediately. Releasing an
// already-released or expired hold is a no-op, not an error.
func (s *HoldService) Release(ctx context.Context, holdID string) error {
	if holdID == "" {
		return nil
	}
	deleted, err := s.repo.DeleteHold(ctx, holdID)
	if err != nil {
		return err
	}
	if deleted {
		s.logger.Debug("hold released", "hold_id", holdID)
	}
	return nil
}

// SweepExpired physically removes expired hold rows. Expiry is lazy, so
// correctness never depends on the sweep; it just keeps the table small.
func (s *HoldService) SweepExpired(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	removed, err := s.repo.DeleteExpiredHolds(ctx, s.clock.Now(), limit)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("expired holds removed", "count", removed)
	}
	return removed, nil
}
