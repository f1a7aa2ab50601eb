package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/domain"
)

// TableRepository reads the physical floor plan: tables and their adjacency
// graph. The engine treats the result as an immutable per-attempt snapshot.
type TableRepository struct {
	pool *pgxpool.Pool
}

func NewTableRepository(pool *pgxpool.Pool) *TableRepository {
	return &TableRepository{pool: pool}
}

func (r *TableRepository) ActiveTables(ctx context.Context, restaurantID string) ([]domain.Table, domain.Adjacency, error) {
	const tablesQuery = `
SELECT id, restaurant_id, table_number, capacity, seating_type, COALESCE(zone_id::text, ''), active
FROM table_inventory
WHERE restaurant_id = $1 AND active
ORDER BY table_number`

	rows, err := query(ctx, r.pool, tablesQuery, restaurantID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, nil, domain.ErrInvalidID
		}
		return nil, nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []domain.Table
	for rows.Next() {
		var t domain.Table
		if err := rows.Scan(&t.ID, &t.RestaurantID, &t.TableNumber, &t.Capacity, &t.SeatingType, &t.ZoneID, &t.Active); err != nil {
			return nil, nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}
	if rows.Err() != nil {
		return nil, nil, fmt.Errorf("iterate tables: %w", rows.Err())
	}

	const edgesQuery = `
SELECT j.table_id::text, j.adjacent_table_id::text
FROM table_adjacencies j
JOIN table_inventory t ON t.id = j.table_id
WHERE t.restaurant_id = $1`

	edgeRows, err := query(ctx, r.pool, edgesQuery, restaurantID)
	if err != nil {
		return nil, nil, fmt.Errorf("list adjacencies: %w", err)
	}
	defer edgeRows.Close()

	adjacency := make(domain.Adjacency)
	for edgeRows.Next() {
		var a, b string
		if err := edgeRows.Scan(&a, &b); err != nil {
			return nil, nil, fmt.Errorf("scan adjacency: %w", err)
		}
		adjacency.AddEdge(a, b)
	}
	if edgeRows.Err() != nil {
		return nil, nil, fmt.Errorf("iterate adjacencies: %w", edgeRows.Err())
	}
	return tables, adjacency, nil
}
