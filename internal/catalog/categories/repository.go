package categories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hawker-io/hawker/internal/catalog/attribute"
	"github.com/hawker-io/hawker/internal/platform/db"
	"github.com/hawker-io/hawker/internal/shared"
)

// Repository abstracts category storage for the service.
type Repository interface {
	Create(ctx context.Context, category Category) (Category, error)
	Get(ctx context.Context, id uuid.UUID) (Category, error)
	Update(ctx context.Context, category Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]Category, error)
	HasChildren(ctx context.Context, id uuid.UUID) (bool, error)
	AddAttribute(ctx context.Context, def attribute.Definition) (attribute.Definition, error)
	Attributes(ctx context.Context, categoryID uuid.UUID) ([]attribute.Definition, error)
}

// PostgresRepository persists categories in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PostgresRepository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const categoryColumns = `id, name, slug, description, parent_id, sort_order, is_active, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, category Category) (Category, error) {
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO categories (id, name, slug, description, parent_id, sort_order, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		category.ID, category.Name, category.Slug, category.Description,
		category.ParentID, category.SortOrder, category.IsActive, category.CreatedAt, category.UpdatedAt)
	if err != nil {
		return Category{}, err
	}
	return category, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Category, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	return scanCategory(row)
}

func (r *PostgresRepository) Update(ctx context.Context, category Category) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE categories
		SET name = $2, slug = $3, description = $4, parent_id = $5, sort_order = $6, is_active = $7, updated_at = $8
		WHERE id = $1`,
		category.ID, category.Name, category.Slug, category.Description,
		category.ParentID, category.SortOrder, category.IsActive, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFoundf("category %s", category.ID)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFoundf("category %s", id)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *PostgresRepository) HasChildren(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE parent_id = $1)`, id).Scan(&exists)
	return exists, err
}

// AddAttribute inserts a definition; the (category_id, name) unique index is
// the single point of truth for schema name uniqueness.
func (r *PostgresRepository) AddAttribute(ctx context.Context, def attribute.Definition) (attribute.Definition, error) {
	def.CreatedAt = time.Now().UTC()
	options, err := json.Marshal(def.Options)
	if err != nil {
		return attribute.Definition{}, err
	}
	var defaultValue []byte
	if def.DefaultValue != nil {
		defaultValue, err = json.Marshal(def.DefaultValue)
		if err != nil {
			return attribute.Definition{}, err
		}
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO category_attributes (id, category_id, name, type, required, options, default_value, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		def.ID, def.CategoryID, def.Name, string(def.Type), def.Required, options, defaultValue, def.SortOrder, def.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return attribute.Definition{}, shared.Conflictf("attribute %q already defined on category", def.Name)
		}
		return attribute.Definition{}, err
	}
	return def, nil
}

func (r *PostgresRepository) Attributes(ctx context.Context, categoryID uuid.UUID) ([]attribute.Definition, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, category_id, name, type, required, options, default_value, sort_order, created_at
		FROM category_attributes WHERE category_id = $1 ORDER BY sort_order, name`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []attribute.Definition
	for rows.Next() {
		var (
			def          attribute.Definition
			typ          string
			options      []byte
			defaultValue []byte
		)
		if err := rows.Scan(&def.ID, &def.CategoryID, &def.Name, &typ, &def.Required, &options, &defaultValue, &def.SortOrder, &def.CreatedAt); err != nil {
			return nil, err
		}
		def.Type = attribute.Type(typ)
		if len(options) > 0 {
			if err := json.Unmarshal(options, &def.Options); err != nil {
				return nil, err
			}
		}
		if len(defaultValue) > 0 {
			var v attribute.Value
			if err := json.Unmarshal(defaultValue, &v); err != nil {
				return nil, err
			}
			def.DefaultValue = &v
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ParentID, &c.SortOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, shared.NotFoundf("category")
		}
		return Category{}, err
	}
	return c, nil
}
