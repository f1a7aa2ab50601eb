package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/clock"
	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/domain"
)

// CommitRepository is the storage contract for confirming holds. The
// repository maps storage uniqueness/exclusion violations on allocation
// insert to domain.ErrAllocationConflict.
type CommitRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error)
	FindAllocationsByIdempotencyKey(ctx context.Context, bookingID, key string) ([]domain.Allocation, error)
	GetBooking(ctx context.Context, bookingID string) (domain.Booking, error)
	CreateAllocations(ctx context.Context, allocations []domain.Allocation) error
	UpdateBookingStatus(ctx context.Context, bookingID string, status domain.BookingStatus) error
	DeleteHold(ctx context.Context, holdID string) (bool, error)
}

// CommitService atomically converts a hold into permanent allocations and the
// booking's confirmed status.
type CommitService struct {
	repo   CommitRepository
	clock  clock.Clock
	logger *slog.Logger
}

func NewCommitService(repo CommitRepository, clk clock.Clock, logger *slog.Logger) *CommitService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommitService{repo: repo, clock: clk, logger: logger}
}

type ConfirmHoldInput struct {
	HoldID         string
	BookingID      string
	IdempotencyKey string
}

type ConfirmResult struct {
	Allocations []domain.Allocation
	// Created is false when the idempotency key matched a prior commit and
	// the existing allocations were returned unchanged.
	Created bool
}

// ConfirmHold converts the hold's table set into one allocation per table,
// transitions the booking to confirmed, and invalidates the hold in a single
// transaction. Re-invoking with the same idempotency key after a prior
// success returns the same allocations without creating duplicates. Expired
// or already-consumed holds fail with domain.ErrStaleHold; a concurrent
// committer racing for an overlapping slot surfaces as
// domain.ErrAllocationConflict, which callers treat as retryable.
func (s *CommitService) ConfirmHold(ctx context.Context, in ConfirmHoldInput) (ConfirmResult, error) {
	if in.IdempotencyKey == "" {
		return ConfirmResult{}, domain.ErrIdempotencyKeyRequired
	}

	now := s.clock.Now()
	var result ConfirmResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		// Prior success under the same key wins before any hold state is
		// consulted: the hold is gone after a successful commit.
		existing, err := s.repo.FindAllocationsByIdempotencyKey(txCtx, in.BookingID, in.IdempotencyKey)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			result = ConfirmResult{Allocations: existing, Created: false}
			return nil
		}

		hold, err := s.repo.GetHoldForUpdate(txCtx, in.HoldID)
		if err != nil {
			if errors.Is(err, domain.ErrHoldNotFound) {
				return domain.ErrStaleHold
			}
			return err
		}
		if !hold.Active(now) {
			return domain.ErrStaleHold
		}
		if hold.BookingID != "" && hold.BookingID != in.BookingID {
			return domain.ErrHoldConflict
		}

		booking, err := s.repo.GetBooking(txCtx, in.BookingID)
		if err != nil {
			return err
		}
		if !booking.Status.BlocksAssignment() {
			return domain.ErrStaleHold
		}

		allocations := make([]domain.Allocation, 0, len(hold.TableIDs))
		for _, tableID := range hold.TableIDs {
			allocations = append(allocations, domain.Allocation{
				ID:             newID(),
				BookingID:      in.BookingID,
				TableID:        tableID,
				Date:           booking.Date,
				StartAt:        hold.StartAt,
				EndAt:          hold.EndAt,
				SlotKey:        domain.SlotKeyFor(booking.Date, hold.StartAt),
				IdempotencyKey: in.IdempotencyKey,
				CreatedAt:      now,
			})
		}

		if err := s.repo.CreateAllocations(txCtx, allocations); err != nil {
			// A concurrent commit under the same key may have won the race.
			if errors.Is(err, domain.ErrAllocationConflict) {
				prior, readErr := s.repo.FindAllocationsByIdempotencyKey(txCtx, in.BookingID, in.IdempotencyKey)
				if readErr != nil {
					return readErr
				}
				if len(prior) > 0 {
					if !replayCoversHold(prior, hold) {
						return domain.ErrIdempotencyConflict
					}
					result = ConfirmResult{Allocations: prior, Created: false}
					return nil
				}
			}
			return err
		}

		if err := s.repo.UpdateBookingStatus(txCtx, in.BookingID, domain.BookingConfirmed); err != nil {
			return err
		}
		if _, err := s.repo.DeleteHold(txCtx, in.HoldID); err != nil {
			return err
		}

		result = ConfirmResult{Allocations: allocations, Created: true}
		return nil
	})
	if err != nil {
		return ConfirmResult{}, err
	}

	if result.Created {
		s.logger.Info("hold confirmed",
			"hold_id", in.HoldID,
			"booking_id", in.BookingID,
			"allocations", len(result.Allocations),
		)
	}
	return result, nil
}

// replayCoversHold reports whether the replayed rows carry exactly the hold's
// table set. A mismatch means the idempotency key was reused for different
// inputs and the replay must not be served.
func replayCoversHold(allocations []domain.Allocation, hold domain.Hold) bool {
	if len(allocations) != len(hold.TableIDs) {
		return false
	}
	tables := make(map[string]bool, len(hold.TableIDs))
	for _, id := range hold.TableIDs {
		tables[id] = true
	}
	for _, a := range allocations {
		if !tables[a.TableID] {
			return false
		}
	}
	return true
}
