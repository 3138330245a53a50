// Package categories owns the hierarchical category tree and each category's
// attribute schema.
package categories

import (
	"time"

	"github.com/google/uuid"
)

// Category is one node in the category forest. Every non-root category has an
// existing parent and the forest is acyclic; both invariants are re-checked on
// every mutation.
type Category struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	SortOrder   int        `json:"sort_order"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TreeNode is a category with its resolved children, produced by Tree.
type TreeNode struct {
	Category
	ProductCount int         `json:"product_count"`
	Children     []*TreeNode `json:"children,omitempty"`
}

// CreateInput carries the fields accepted on category creation.
type CreateInput struct {
	Name        string
	Description string
	ParentID    *uuid.UUID
	SortOrder   int
	IsActive    *bool
}

// UpdateInput carries optional fields for a category update; nil fields are
// left unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	ParentID    *uuid.UUID
	SortOrder   *int
	IsActive    *bool
}
