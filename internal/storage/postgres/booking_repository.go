package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/domain"
)

// BookingRepository reads and transitions bookings. The engine never creates
// bookings; they arrive through the wider reservation system.
type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

const bookingColumns = `id, restaurant_id, booking_date, start_at, end_at, party_size, seating_preference, booking_type, status`

func (r *BookingRepository) GetBooking(ctx context.Context, bookingID string) (domain.Booking, error) {
	return getBooking(ctx, r.pool, bookingID)
}

func (r *BookingRepository) UpdateBookingStatus(ctx context.Context, bookingID string, status domain.BookingStatus) error {
	return updateBookingStatus(ctx, r.pool, bookingID, status)
}

// ListUnassigned returns bookings in a blocking status within the day window
// that have no allocation rows yet, ordered by start time for the sweep.
func (r *BookingRepository) ListUnassigned(ctx context.Context, restaurantID string, day domain.Window) ([]domain.Booking, error) {
	q := `
SELECT ` + bookingColumns + `
FROM bookings b
WHERE restaurant_id = $1
  AND status IN ('pending', 'pending_allocation')
  AND start_at >= $2 AND start_at < $3
  AND NOT EXISTS (SELECT 1 FROM allocations a WHERE a.booking_id = b.id AND NOT a.shadow)
ORDER BY start_at, id`

	rows, err := query(ctx, r.pool, q, restaurantID, day.Start, day.End)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list unassigned bookings: %w", err)
	}
	defer rows.Close()
	return scanBookings(rows)
}

// ListBlockingForDay returns every booking in a blocking status for the day,
// allocated or not, feeding the future-conflict lookahead.
func (r *BookingRepository) ListBlockingForDay(ctx context.Context, restaurantID string, day domain.Window) ([]domain.Booking, error) {
	q := `
SELECT ` + bookingColumns + `
FROM bookings
WHERE restaurant_id = $1
  AND status IN ('pending', 'pending_allocation')
  AND start_at >= $2 AND start_at < $3
ORDER BY start_at, id`

	rows, err := query(ctx, r.pool, q, restaurantID, day.Start, day.End)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list bookings for day: %w", err)
	}
	defer rows.Close()
	return scanBookings(rows)
}

// RestaurantsWithUnassigned returns the restaurants that currently have at
// least one unallocated blocking booking starting at or after the cutoff. The
// sweeper uses this to avoid scheduling work for idle restaurants.
func (r *BookingRepository) RestaurantsWithUnassigned(ctx context.Context, cutoff time.Time) ([]string, error) {
	q := `
SELECT DISTINCT restaurant_id
FROM bookings b
WHERE status IN ('pending', 'pending_allocation')
  AND start_at >= $1
  AND NOT EXISTS (SELECT 1 FROM allocations a WHERE a.booking_id = b.id AND NOT a.shadow)
ORDER BY restaurant_id`

	rows, err := query(ctx, r.pool, q, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list restaurants with unassigned bookings: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan restaurant id: %w", err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate restaurant ids: %w", rows.Err())
	}
	return ids, nil
}

func getBooking(ctx context.Context, pool *pgxpool.Pool, bookingID string) (domain.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	b, err := scanBooking(queryRow(ctx, pool, q, bookingID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Booking{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Booking{}, domain.ErrBookingNotFound
		}
		return domain.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func updateBookingStatus(ctx context.Context, pool *pgxpool.Pool, bookingID string, status domain.BookingStatus) error {
	const stmt = `UPDATE bookings SET status = $2 WHERE id = $1`
	tag, err := exec(ctx, pool, stmt, bookingID, status)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func scanBooking(row pgx.Row) (domain.Booking, error) {
	var b domain.Booking
	var end *time.Time
	err := row.Scan(
		&b.ID, &b.RestaurantID, &b.Date, &b.StartAt, &end,
		&b.PartySize, &b.SeatingPreference, &b.BookingType, &b.Status,
	)
	if err != nil {
		return domain.Booking{}, err
	}
	// NULL end_at stays zero; the schedule's turn bands derive the real end.
	if end != nil {
		b.EndAt = *end
	}
	return b, nil
}

func scanBookings(rows pgx.Rows) ([]domain.Booking, error) {
	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate bookings: %w", rows.Err())
	}
	return bookings, nil
}
