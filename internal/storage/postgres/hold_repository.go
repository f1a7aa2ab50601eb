package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/domain"
)

// HoldRepository persists table holds as rows in table_holds plus one
// table_hold_members row per claimed table. Releasing or confirming a hold
// deletes the rows; expiry is enforced by comparing expires_at, so stale rows
// never block even before the janitor removes them.
type HoldRepository struct {
	pool *pgxpool.Pool
}

func NewHoldRepository(pool *pgxpool.Pool) *HoldRepository {
	return &HoldRepository{pool: pool}
}

func (r *HoldRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// LockTables takes FOR UPDATE row locks on the given tables in id order, so
// two transactions claiming overlapping sets serialize instead of
// deadlocking.
func (r *HoldRepository) LockTables(ctx context.Context, tableIDs []string) error {
	if len(tableIDs) == 0 {
		return nil
	}
	ordered := append([]string(nil), tableIDs...)
	sort.Strings(ordered)

	const lockQuery = `SELECT id FROM table_inventory WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	rows, err := query(ctx, r.pool, lockQuery, ordered)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("lock tables: %w", err)
	}
	defer rows.Close()

	locked := 0
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan locked table: %w", err)
		}
		locked++
	}
	if rows.Err() != nil {
		return fmt.Errorf("iterate locked tables: %w", rows.Err())
	}
	if locked != len(ordered) {
		return fmt.Errorf("%w: unknown table in %v", domain.ErrInvalidID, ordered)
	}
	return nil
}

func (r *HoldRepository) OverlappingAllocations(ctx context.Context, tableIDs []string, window domain.Window) ([]domain.Allocation, error) {
	const q = `
SELECT id, booking_id, table_id, booking_date, start_at, end_at, slot_key, shadow, COALESCE(idempotency_key, ''), created_at
FROM allocations
WHERE table_id = ANY($1) AND NOT shadow AND start_at < $3 AND end_at > $2`

	rows, err := query(ctx, r.pool, q, tableIDs, window.Start, window.End)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("overlapping allocations: %w", err)
	}
	defer rows.Close()
	return scanAllocations(rows)
}

func (r *HoldRepository) OverlappingHolds(ctx context.Context, tableIDs []string, window domain.Window, now time.Time, excludeHoldID string) ([]domain.Hold, error) {
	const q = `
SELECT h.id, COALESCE(h.booking_id::text, ''), h.restaurant_id, COALESCE(h.zone_id::text, ''),
       h.start_at, h.end_at, h.expires_at, h.created_by, h.created_at,
       ARRAY_AGG(m.table_id::text ORDER BY m.table_id) AS table_ids
FROM table_holds h
JOIN table_hold_members m ON m.hold_id = h.id
WHERE h.expires_at > $3
  AND h.start_at < $2 AND h.end_at > $1
  AND ($4 = '' OR h.id::text <> $4)
  AND EXISTS (
    SELECT 1 FROM table_hold_members mm
    WHERE mm.hold_id = h.id AND mm.table_id = ANY($5)
  )
GROUP BY h.id`

	rows, err := query(ctx, r.pool, q, window.Start, window.End, now, excludeHoldID, tableIDs)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("overlapping holds: %w", err)
	}
	defer rows.Close()
	return scanHolds(rows)
}

func (r *HoldRepository) CreateHold(ctx context.Context, hold domain.Hold) error {
	const insertHold = `
INSERT INTO table_holds (id, booking_id, restaurant_id, zone_id, start_at, end_at, expires_at, created_by, created_at)
VALUES ($1, NULLIF($2, '')::uuid, $3, NULLIF($4, '')::uuid, $5, $6, $7, $8, $9)`

	_, err := exec(ctx, r.pool, insertHold,
		hold.ID,
		hold.BookingID,
		hold.RestaurantID,
		hold.ZoneID,
		hold.StartAt,
		hold.EndAt,
		hold.ExpiresAt,
		hold.CreatedBy,
		hold.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create hold: %w", err)
	}

	const insertMember = `INSERT INTO table_hold_members (hold_id, table_id) VALUES ($1, $2)`
	for _, tableID := range hold.TableIDs {
		if _, err := exec(ctx, r.pool, insertMember, hold.ID, tableID); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrHoldConflict
			}
			if isForeignKeyViolation(err) || isInvalidUUID(err) {
				return domain.ErrInvalidID
			}
			return fmt.Errorf("create hold member: %w", err)
		}
	}
	return nil
}

func (r *HoldRepository) DeleteHold(ctx context.Context, holdID string) (bool, error) {
	const stmt = `DELETE FROM table_holds WHERE id = $1`
	tag, err := exec(ctx, r.pool, stmt, holdID)
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("delete hold: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteExpiredHolds removes up to limit expired rows; members cascade.
func (r *HoldRepository) DeleteExpiredHolds(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	const stmt = `
DELETE FROM table_holds
WHERE id IN (
  SELECT id FROM table_holds WHERE expires_at <= $1 ORDER BY expires_at LIMIT $2
)`
	tag, err := exec(ctx, r.pool, stmt, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("delete expired holds: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// GetHoldForUpdate locks the hold row for the confirm transaction.
func (r *HoldRepository) GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error) {
	const q = `
SELECT id, COALESCE(booking_id::text, ''), restaurant_id, COALESCE(zone_id::text, ''),
       start_at, end_at, expires_at, created_by, created_at
FROM table_holds
WHERE id = $1
FOR UPDATE`

	var h domain.Hold
	err := queryRow(ctx, r.pool, q, holdID).Scan(
		&h.ID, &h.BookingID, &h.RestaurantID, &h.ZoneID,
		&h.StartAt, &h.EndAt, &h.ExpiresAt, &h.CreatedBy, &h.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Hold{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Hold{}, domain.ErrHoldNotFound
		}
		return domain.Hold{}, fmt.Errorf("get hold: %w", err)
	}

	const members = `SELECT table_id::text FROM table_hold_members WHERE hold_id = $1 ORDER BY table_id`
	rows, err := query(ctx, r.pool, members, holdID)
	if err != nil {
		return domain.Hold{}, fmt.Errorf("get hold members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return domain.Hold{}, fmt.Errorf("scan hold member: %w", err)
		}
		h.TableIDs = append(h.TableIDs, id)
	}
	if rows.Err() != nil {
		return domain.Hold{}, fmt.Errorf("iterate hold members: %w", rows.Err())
	}
	return h, nil
}

// ActiveHolds returns every unexpired hold for the restaurant.
func (r *HoldRepository) ActiveHolds(ctx context.Context, restaurantID string, now time.Time) ([]domain.Hold, error) {
	const q = `
SELECT h.id, COALESCE(h.booking_id::text, ''), h.restaurant_id, COALESCE(h.zone_id::text, ''),
       h.start_at, h.end_at, h.expires_at, h.created_by, h.created_at,
       ARRAY_AGG(m.table_id::text ORDER BY m.table_id) AS table_ids
FROM table_holds h
JOIN table_hold_members m ON m.hold_id = h.id
WHERE h.restaurant_id = $1 AND h.expires_at > $2
GROUP BY h.id
ORDER BY h.created_at`

	rows, err := query(ctx, r.pool, q, restaurantID, now)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("active holds: %w", err)
	}
	defer rows.Close()
	return scanHolds(rows)
}

func scanHolds(rows pgx.Rows) ([]domain.Hold, error) {
	var holds []domain.Hold
	for rows.Next() {
		var h domain.Hold
		if err := rows.Scan(
			&h.ID, &h.BookingID, &h.RestaurantID, &h.ZoneID,
			&h.StartAt, &h.EndAt, &h.ExpiresAt, &h.CreatedBy, &h.CreatedAt,
			&h.TableIDs,
		); err != nil {
			return nil, fmt.Errorf("scan hold: %w", err)
		}
		holds = append(holds, h)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate holds: %w", rows.Err())
	}
	return holds, nil
}
