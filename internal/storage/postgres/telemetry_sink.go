package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/telemetry"
)

// TelemetrySink appends engine events to rejection_events. Writes happen off
// the allocation path through the async recorder, so a failed insert costs an
// event, never an assignment.
type TelemetrySink struct {
	pool *pgxpool.Pool
}

func NewTelemetrySink(pool *pgxpool.Pool) *TelemetrySink {
	return &TelemetrySink{pool: pool}
}

func (s *TelemetrySink) Write(ctx context.Context, event telemetry.Event) error {
	const stmt = `
INSERT INTO rejection_events (kind, booking_id, restaurant_id, hold_id, table_ids, rejection_kind, dominant_penalty, detail, occurred_at)
VALUES ($1, NULLIF($2, '')::uuid, NULLIF($3, '')::uuid, NULLIF($4, '')::uuid, $5, $6, $7, $8, $9)`

	rejectionKind := ""
	dominant := ""
	var detail []byte
	if event.Rejection != nil {
		rejectionKind = string(event.Rejection.Kind)
		dominant = string(event.Rejection.DominantPenalty)
		encoded, err := json.Marshal(event.Rejection)
		if err != nil {
			return fmt.Errorf("encode rejection: %w", err)
		}
		detail = encoded
	}

	_, err := s.pool.Exec(ctx, stmt,
		string(event.Kind),
		event.BookingID,
		event.RestaurantID,
		event.HoldID,
		event.TableIDs,
		rejectionKind,
		dominant,
		detail,
		event.At,
	)
	if err != nil {
		return fmt.Errorf("insert telemetry event: %w", err)
	}
	return nil
}
