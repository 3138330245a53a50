// Package collections maintains curated, named sets of product references
// independent of the category tree.
package collections

import (
	"time"

	"github.com/google/uuid"
)

// Collection is a named product set. Names are not unique; membership is a
// set, so re-adding a product is a no-op.
type Collection struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	IsActive    bool        `json:"is_active"`
	ProductIDs  []uuid.UUID `json:"product_ids"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Contains reports membership of a product id.
func (c Collection) Contains(productID uuid.UUID) bool {
	for _, id := range c.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// CreateInput carries the fields accepted on collection creation.
type CreateInput struct {
	Name        string
	Description string
	IsActive    *bool
}
