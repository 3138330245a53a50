// Package stats aggregates read-only catalog and inventory statistics.
package stats

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Overview is the aggregated snapshot served to dashboards.
type Overview struct {
	TotalProducts    int            `json:"total_products"`
	ActiveProducts   int            `json:"active_products"`
	TotalVariants    int            `json:"total_variants"`
	TotalCollections int            `json:"total_collections"`
	LowStock         int            `json:"low_stock"`
	OutOfStock       int            `json:"out_of_stock"`
	PerCategory      []CategoryStat `json:"per_category"`
}

// CategoryStat is the product count for one category.
type CategoryStat struct {
	CategoryID uuid.UUID `json:"category_id"`
	Name       string    `json:"name"`
	Products   int       `json:"products"`
}

// Repository runs the aggregate queries.
type Repository interface {
	Overview(ctx context.Context) (Overview, error)
}

// PostgresRepository aggregates directly over catalog tables.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PostgresRepository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Overview(ctx context.Context) (Overview, error) {
	var o Overview
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM products WHERE status = 'active'),
			(SELECT COUNT(*) FROM product_variants),
			(SELECT COUNT(*) FROM collections),
			(SELECT COUNT(*) FROM inventory_records WHERE track_inventory AND quantity <= low_stock_alert AND quantity > 0),
			(SELECT COUNT(*) FROM inventory_records WHERE track_inventory AND quantity <= 0)`).
		Scan(&o.TotalProducts, &o.ActiveProducts, &o.TotalVariants, &o.TotalCollections, &o.LowStock, &o.OutOfStock)
	if err != nil {
		return Overview{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.name, COUNT(p.id)
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		GROUP BY c.id, c.name
		ORDER BY c.name`)
	if err != nil {
		return Overview{}, err
	}
	defer rows.Close()

	o.PerCategory = []CategoryStat{}
	for rows.Next() {
		var stat CategoryStat
		if err := rows.Scan(&stat.CategoryID, &stat.Name, &stat.Products); err != nil {
			return Overview{}, err
		}
		o.PerCategory = append(o.PerCategory, stat)
	}
	return o, rows.Err()
}
