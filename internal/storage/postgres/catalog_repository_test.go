package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/domain"
	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/testutil"
)

func TestTableRepository_ActiveTables(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewTableRepository(pool)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	restaurantID := testutil.NewRestaurantID()
	t1 := testutil.InsertTable(t, ctx, pool, restaurantID, "T1", 2, domain.SeatingStandard, "")
	t2 := testutil.InsertTable(t, ctx, pool, restaurantID, "T2", 4, domain.SeatingBooth, "")
	testutil.InsertAdjacency(t, ctx, pool, t1, t2)

	inactive := testutil.InsertTable(t, ctx, pool, restaurantID, "T3", 6, domain.SeatingStandard, "")
	if _, err := pool.Exec(ctx, `UPDATE table_inventory SET active = FALSE WHERE id = $1`, inactive); err != nil {
		t.Fatalf("deactivate table: %v", err)
	}

	tables, adjacency, err := repo.ActiveTables(ctx, restaurantID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("expected 2 active tables, got %d", len(tables))
	}
	if !adjacency.Adjacent(t1, t2) {
		t.Fatalf("expected %s and %s adjacent", t1, t2)
	}
}

func TestSettingsRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewSettingsRepository(pool)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)

	t.Run("missing settings row falls back to defaults", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		restaurantID := testutil.NewRestaurantID()

		weights, err := repo.StrategicWeights(ctx, restaurantID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if weights.Scarcity != domain.DefaultScarcityWeight {
			t.Fatalf("expected default scarcity, got %v", weights.Scarcity)
		}

		schedule, err := repo.RestaurantSchedule(ctx, restaurantID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if schedule.Duration(2) != 60*time.Minute {
			t.Fatalf("expected default turn bands, got %v", schedule.Duration(2))
		}
	})

	t.Run("stored overrides round-trip", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		restaurantID := testutil.NewRestaurantID()

		_, err := pool.Exec(ctx, `
INSERT INTO restaurant_settings (restaurant_id, timezone, turn_bands, scarcity_weight, demand_multiplier, table_scarcity)
VALUES ($1, 'America/New_York', '[{"max_party_size": 4, "duration_minutes": 120}]', 30, 1.4, '{"some-table": 2.5}')`,
			restaurantID,
		)
		if err != nil {
			t.Fatalf("insert settings: %v", err)
		}

		weights, err := repo.StrategicWeights(ctx, restaurantID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if weights.Scarcity != 30 {
			t.Fatalf("expected scarcity 30, got %v", weights.Scarcity)
		}
		if weights.DemandMultiplierOverride == nil || *weights.DemandMultiplierOverride != 1.4 {
			t.Fatalf("expected demand multiplier 1.4, got %v", weights.DemandMultiplierOverride)
		}
		if weights.TableScarcity["some-table"] != 2.5 {
			t.Fatalf("expected table scarcity metric, got %+v", weights.TableScarcity)
		}
		if weights.SlackWeight != domain.DefaultSlackWeight {
			t.Fatalf("expected defaulted slack weight, got %v", weights.SlackWeight)
		}

		schedule, err := repo.RestaurantSchedule(ctx, restaurantID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if schedule.Timezone != "America/New_York" {
			t.Fatalf("expected timezone stored, got %q", schedule.Timezone)
		}
		if schedule.Duration(3) != 120*time.Minute {
			t.Fatalf("expected stored turn band, got %v", schedule.Duration(3))
		}
	})
}
