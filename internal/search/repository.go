package search

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Query describes one search request.
type Query struct {
	Term       string
	CategoryID *uuid.UUID
	Status     string
	Condition  string
	MinPrice   *float64
	MaxPrice   *float64
	Page       int
	PerPage    int
}

// Hit is one product summary in the result set.
type Hit struct {
	ID            uuid.UUID `json:"id"`
	CategoryID    uuid.UUID `json:"category_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Status        string    `json:"status"`
	Condition     string    `json:"condition"`
	StartingPrice float64   `json:"starting_price"`
	CreatedAt     time.Time `json:"created_at"`
}

// Repository runs search queries against catalog state.
type Repository interface {
	Search(ctx context.Context, query Query, limit, offset int) ([]Hit, int, error)
}

// PostgresRepository queries the products table directly with trigram-free
// ILIKE matching; good enough at catalog scale and index-friendly with
// pg_trgm when it grows.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PostgresRepository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Search(ctx context.Context, query Query, limit, offset int) ([]Hit, int, error) {
	const where = `
		WHERE ($1 = '' OR title ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
		  AND ($2::uuid IS NULL OR category_id = $2)
		  AND ($3 = '' OR status = $3)
		  AND ($4 = '' OR condition = $4)
		  AND ($5::numeric IS NULL OR starting_price >= $5)
		  AND ($6::numeric IS NULL OR starting_price <= $6)`

	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where,
		query.Term, query.CategoryID, query.Status, query.Condition, query.MinPrice, query.MaxPrice).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, category_id, title, description, status, condition, starting_price, created_at
		FROM products`+where+`
		ORDER BY created_at DESC, id
		LIMIT $7 OFFSET $8`,
		query.Term, query.CategoryID, query.Status, query.Condition, query.MinPrice, query.MaxPrice, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	hits := []Hit{}
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.ID, &h.CategoryID, &h.Title, &h.Description, &h.Status, &h.Condition, &h.StartingPrice, &h.CreatedAt); err != nil {
			return nil, 0, err
		}
		hits = append(hits, h)
	}
	return hits, total, rows.Err()
}
