package products

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hawker-io/hawker/internal/platform/db"
	"github.com/hawker-io/hawker/internal/shared"
)

// Repository abstracts product and variant storage for the service.
type Repository interface {
	CreateProduct(ctx context.Context, product Product) (Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (Product, error)
	UpdateProduct(ctx context.Context, product Product) error
	CreateVariant(ctx context.Context, variant Variant) (Variant, error)
	GetVariant(ctx context.Context, id uuid.UUID) (Variant, error)
	VariantBySKU(ctx context.Context, sku string) (Variant, error)
	ListVariants(ctx context.Context, productID uuid.UUID) ([]Variant, error)
	DeleteVariant(ctx context.Context, id uuid.UUID) error
	CountByCategory(ctx context.Context) (map[uuid.UUID]int, error)
	HasProducts(ctx context.Context, categoryID uuid.UUID) (bool, error)
}

// PostgresRepository persists products and variants in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PostgresRepository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const productColumns = `id, category_id, title, description, condition, starting_price, buy_now_price, images, status, created_at, updated_at`

func (r *PostgresRepository) CreateProduct(ctx context.Context, product Product) (Product, error) {
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	images, err := json.Marshal(product.Images)
	if err != nil {
		return Product{}, err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO products (id, category_id, title, description, condition, starting_price, buy_now_price, images, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		product.ID, product.CategoryID, product.Title, product.Description, string(product.Condition),
		product.StartingPrice, product.BuyNowPrice, images, string(product.Status), product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	return product, nil
}

func (r *PostgresRepository) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

func (r *PostgresRepository) UpdateProduct(ctx context.Context, product Product) error {
	images, err := json.Marshal(product.Images)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE products
		SET category_id = $2, title = $3, description = $4, condition = $5,
		    starting_price = $6, buy_now_price = $7, images = $8, status = $9, updated_at = $10
		WHERE id = $1`,
		product.ID, product.CategoryID, product.Title, product.Description, string(product.Condition),
		product.StartingPrice, product.BuyNowPrice, images, string(product.Status), time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFoundf("product %s", product.ID)
	}
	return nil
}

const variantColumns = `id, product_id, sku, title, price, attributes, position, is_active, created_at, updated_at`

// CreateVariant inserts a variant; the unique index on sku is the single
// point of truth for catalog-wide SKU uniqueness.
func (r *PostgresRepository) CreateVariant(ctx context.Context, variant Variant) (Variant, error) {
	now := time.Now().UTC()
	variant.CreatedAt = now
	variant.UpdatedAt = now
	attrs, err := json.Marshal(variant.Attributes)
	if err != nil {
		return Variant{}, err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO product_variants (id, product_id, sku, title, price, attributes, position, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		variant.ID, variant.ProductID, variant.SKU, variant.Title, variant.Price,
		attrs, variant.Position, variant.IsActive, variant.CreatedAt, variant.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Variant{}, shared.Conflictf("sku %q already exists", variant.SKU)
		}
		return Variant{}, err
	}
	return variant, nil
}

func (r *PostgresRepository) GetVariant(ctx context.Context, id uuid.UUID) (Variant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+variantColumns+` FROM product_variants WHERE id = $1`, id)
	return scanVariant(row)
}

func (r *PostgresRepository) VariantBySKU(ctx context.Context, sku string) (Variant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+variantColumns+` FROM product_variants WHERE sku = $1`, sku)
	return scanVariant(row)
}

func (r *PostgresRepository) ListVariants(ctx context.Context, productID uuid.UUID) ([]Variant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+variantColumns+` FROM product_variants
		WHERE product_id = $1 ORDER BY position, sku`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []Variant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func (r *PostgresRepository) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM product_variants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFoundf("variant %s", id)
	}
	return nil
}

func (r *PostgresRepository) CountByCategory(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT category_id, COUNT(*) FROM products GROUP BY category_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			categoryID uuid.UUID
			count      int
		)
		if err := rows.Scan(&categoryID, &count); err != nil {
			return nil, err
		}
		counts[categoryID] = count
	}
	return counts, rows.Err()
}

func (r *PostgresRepository) HasProducts(ctx context.Context, categoryID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE category_id = $1)`, categoryID).Scan(&exists)
	return exists, err
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p         Product
		condition string
		status    string
		images    []byte
	)
	err := row.Scan(&p.ID, &p.CategoryID, &p.Title, &p.Description, &condition,
		&p.StartingPrice, &p.BuyNowPrice, &images, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.NotFoundf("product")
		}
		return Product{}, err
	}
	p.Condition = Condition(condition)
	p.Status = Status(status)
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return Product{}, err
		}
	}
	return p, nil
}

func scanVariant(row pgx.Row) (Variant, error) {
	var (
		v     Variant
		attrs []byte
	)
	err := row.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Title, &v.Price,
		&attrs, &v.Position, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Variant{}, shared.NotFoundf("variant")
		}
		return Variant{}, err
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &v.Attributes); err != nil {
			return Variant{}, err
		}
	}
	return v, nil
}
