package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/domain"
)

// AllocationRepository persists committed table allocations and serves the
// commit transaction. Two independent constraints back the engine's conflict
// checks: a partial unique index on (table_id, slot_key) and a gist exclusion
// constraint on the [start_at, end_at) range per table, both ignoring shadow
// rows. Either violation surfaces as domain.ErrAllocationConflict.
type AllocationRepository struct {
	pool  *pgxpool.Pool
	holds *HoldRepository
}

func NewAllocationRepository(pool *pgxpool.Pool) *AllocationRepository {
	return &AllocationRepository{pool: pool, holds: NewHoldRepository(pool)}
}

func (r *AllocationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *AllocationRepository) GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error) {
	return r.holds.GetHoldForUpdate(ctx, holdID)
}

func (r *AllocationRepository) DeleteHold(ctx context.Context, holdID string) (bool, error) {
	return r.holds.DeleteHold(ctx, holdID)
}

func (r *AllocationRepository) FindAllocationsByIdempotencyKey(ctx context.Context, bookingID, key string) ([]domain.Allocation, error) {
	const q = `
SELECT id, booking_id, table_id, booking_date, start_at, end_at, slot_key, shadow, COALESCE(idempotency_key, ''), created_at
FROM allocations
WHERE booking_id = $1 AND idempotency_key = $2
ORDER BY table_id`

	rows, err := query(ctx, r.pool, q, bookingID, key)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("find allocations by idempotency key: %w", err)
	}
	defer rows.Close()
	return scanAllocations(rows)
}

func (r *AllocationRepository) GetBooking(ctx context.Context, bookingID string) (domain.Booking, error) {
	return getBooking(ctx, r.pool, bookingID)
}

func (r *AllocationRepository) UpdateBookingStatus(ctx context.Context, bookingID string, status domain.BookingStatus) error {
	return updateBookingStatus(ctx, r.pool, bookingID, status)
}

// CreateAllocations inserts the rows under a savepoint when a transaction is
// already open. A constraint violation would otherwise abort the enclosing
// commit transaction, and the committer's idempotency re-read after a lost
// race has to keep working in it.
func (r *AllocationRepository) CreateAllocations(ctx context.Context, allocations []domain.Allocation) error {
	if tx := txFromContext(ctx); tx != nil {
		nested, err := tx.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin allocation savepoint: %w", err)
		}
		if err := insertAllocations(ctx, nested, allocations); err != nil {
			_ = nested.Rollback(ctx)
			return err
		}
		if err := nested.Commit(ctx); err != nil {
			return fmt.Errorf("release allocation savepoint: %w", err)
		}
		return nil
	}
	return insertAllocations(ctx, r.pool, allocations)
}

type allocationExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertAllocations(ctx context.Context, db allocationExecer, allocations []domain.Allocation) error {
	const stmt = `
INSERT INTO allocations (id, booking_id, table_id, booking_date, start_at, end_at, slot_key, shadow, idempotency_key, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10)`

	for _, a := range allocations {
		_, err := db.Exec(ctx, stmt,
			a.ID,
			a.BookingID,
			a.TableID,
			a.Date,
			a.StartAt,
			a.EndAt,
			a.SlotKey,
			a.Shadow,
			a.IdempotencyKey,
			a.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) || isExclusionViolation(err) {
				return domain.ErrAllocationConflict
			}
			if isInvalidUUID(err) {
				return domain.ErrInvalidID
			}
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: allocation references missing row", domain.ErrInvalidID)
			}
			return fmt.Errorf("create allocation: %w", err)
		}
	}
	return nil
}

// AllocationsInWindow returns every non-shadow allocation for the restaurant
// overlapping the window, the snapshot for one generation pass.
func (r *AllocationRepository) AllocationsInWindow(ctx context.Context, restaurantID string, window domain.Window) ([]domain.Allocation, error) {
	const q = `
SELECT a.id, a.booking_id, a.table_id, a.booking_date, a.start_at, a.end_at, a.slot_key, a.shadow, COALESCE(a.idempotency_key, ''), a.created_at
FROM allocations a
JOIN table_inventory t ON t.id = a.table_id
WHERE t.restaurant_id = $1 AND NOT a.shadow AND a.start_at < $3 AND a.end_at > $2
ORDER BY a.start_at, a.table_id`

	rows, err := query(ctx, r.pool, q, restaurantID, window.Start, window.End)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("allocations in window: %w", err)
	}
	defer rows.Close()
	return scanAllocations(rows)
}

// ActiveHolds is part of the snapshot store; delegated so the orchestrator
// needs only one snapshot dependency.
func (r *AllocationRepository) ActiveHolds(ctx context.Context, restaurantID string, now time.Time) ([]domain.Hold, error) {
	return r.holds.ActiveHolds(ctx, restaurantID, now)
}

func scanAllocations(rows pgx.Rows) ([]domain.Allocation, error) {
	var allocations []domain.Allocation
	for rows.Next() {
		var a domain.Allocation
		if err := rows.Scan(
			&a.ID, &a.BookingID, &a.TableID, &a.Date, &a.StartAt, &a.EndAt,
			&a.SlotKey, &a.Shadow, &a.IdempotencyKey, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		allocations = append(allocations, a)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate allocations: %w", rows.Err())
	}
	return allocations, nil
}
