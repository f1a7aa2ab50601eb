package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/domain"
	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/engine"
)

// SettingsRepository reads per-restaurant strategic weights and the service
// schedule. A restaurant with no settings row gets the defaults; partial rows
// are normalized by the scorer.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

func (r *SettingsRepository) StrategicWeights(ctx context.Context, restaurantID string) (domain.StrategicWeights, error) {
	const q = `
SELECT scarcity_weight, demand_multiplier, future_conflict_penalty,
       slack_weight, table_count_weight, fragmentation_weight,
       zone_balance_weight, adjacency_depth_weight, table_scarcity
FROM restaurant_settings
WHERE restaurant_id = $1`

	var (
		w            domain.StrategicWeights
		scarcityJSON []byte
	)
	err := queryRow(ctx, r.pool, q, restaurantID).Scan(
		&w.Scarcity,
		&w.DemandMultiplierOverride,
		&w.FutureConflictPenalty,
		&w.SlackWeight,
		&w.TableCountWeight,
		&w.FragmentationWeight,
		&w.ZoneBalanceWeight,
		&w.AdjacencyDepthWeight,
		&scarcityJSON,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.StrategicWeights{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.DefaultStrategicWeights(), nil
		}
		return domain.StrategicWeights{}, fmt.Errorf("get strategic weights: %w", err)
	}

	if len(scarcityJSON) > 0 {
		if err := json.Unmarshal(scarcityJSON, &w.TableScarcity); err != nil {
			return domain.StrategicWeights{}, fmt.Errorf("decode table scarcity: %w", err)
		}
	}
	return w.Normalized(), nil
}

type turnBandRow struct {
	MaxPartySize    int `json:"max_party_size"`
	DurationMinutes int `json:"duration_minutes"`
}

func (r *SettingsRepository) RestaurantSchedule(ctx context.Context, restaurantID string) (engine.Schedule, error) {
	const q = `SELECT timezone, turn_bands FROM restaurant_settings WHERE restaurant_id = $1`

	var (
		tz        string
		bandsJSON []byte
	)
	err := queryRow(ctx, r.pool, q, restaurantID).Scan(&tz, &bandsJSON)
	if err != nil {
		if isInvalidUUID(err) {
			return engine.Schedule{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return engine.Schedule{TurnBands: engine.DefaultTurnBands}, nil
		}
		return engine.Schedule{}, fmt.Errorf("get schedule: %w", err)
	}

	schedule := engine.Schedule{Timezone: tz, TurnBands: engine.DefaultTurnBands}
	if len(bandsJSON) > 0 {
		var rows []turnBandRow
		if err := json.Unmarshal(bandsJSON, &rows); err != nil {
			return engine.Schedule{}, fmt.Errorf("decode turn bands: %w", err)
		}
		if len(rows) > 0 {
			bands := make([]engine.TurnBand, len(rows))
			for i, row := range rows {
				bands[i] = engine.TurnBand{MaxPartySize: row.MaxPartySize, DurationMinutes: row.DurationMinutes}
			}
			schedule.TurnBands = bands
		}
	}
	return schedule, nil
}
