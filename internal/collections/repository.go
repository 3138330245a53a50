package collections

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hawker-io/hawker/internal/shared"
)

// Repository abstracts collection storage for the service.
type Repository interface {
	Create(ctx context.Context, collection Collection) (Collection, error)
	Get(ctx context.Context, id uuid.UUID) (Collection, error)
	List(ctx context.Context, activeOnly bool) ([]Collection, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddMembers(ctx context.Context, id uuid.UUID, productIDs []uuid.UUID) error
	RemoveMembers(ctx context.Context, id uuid.UUID, productIDs []uuid.UUID) error
}

// PostgresRepository persists collections in PostgreSQL. Membership lives in
// collection_products with a composite primary key, so inserts are naturally
// idempotent with ON CONFLICT DO NOTHING.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PostgresRepository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, collection Collection) (Collection, error) {
	now := time.Now().UTC()
	collection.CreatedAt = now
	collection.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO collections (id, name, slug, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		collection.ID, collection.Name, collection.Slug, collection.Description,
		collection.IsActive, collection.CreatedAt, collection.UpdatedAt)
	if err != nil {
		return Collection{}, err
	}
	return collection, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Collection, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, slug, description, is_active, created_at, updated_at
		FROM collections WHERE id = $1`, id)
	collection, err := scanCollection(row)
	if err != nil {
		return Collection{}, err
	}
	collection.ProductIDs, err = r.members(ctx, id)
	if err != nil {
		return Collection{}, err
	}
	return collection, nil
}

func (r *PostgresRepository) List(ctx context.Context, activeOnly bool) ([]Collection, error) {
	query := `SELECT id, name, slug, description, is_active, created_at, updated_at FROM collections`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		result[i].ProductIDs, err = r.members(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFoundf("collection %s", id)
	}
	return nil
}

func (r *PostgresRepository) AddMembers(ctx context.Context, id uuid.UUID, productIDs []uuid.UUID) error {
	for _, productID := range productIDs {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO collection_products (collection_id, product_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, productID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresRepository) RemoveMembers(ctx context.Context, id uuid.UUID, productIDs []uuid.UUID) error {
	for _, productID := range productIDs {
		_, err := r.pool.Exec(ctx, `
			DELETE FROM collection_products WHERE collection_id = $1 AND product_id = $2`, id, productID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresRepository) members(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT product_id FROM collection_products WHERE collection_id = $1 ORDER BY product_id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var productID uuid.UUID
		if err := rows.Scan(&productID); err != nil {
			return nil, err
		}
		ids = append(ids, productID)
	}
	return ids, rows.Err()
}

func scanCollection(row pgx.Row) (Collection, error) {
	var c Collection
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Collection{}, shared.NotFoundf("collection")
		}
		return Collection{}, err
	}
	return c, nil
}
