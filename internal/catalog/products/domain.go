// Package products owns products and their purchasable variants, validating
// variant attributes against the owning category's schema.
package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/hawker-io/hawker/internal/catalog/attribute"
	"github.com/hawker-io/hawker/internal/shared"
)

// Condition enumerates accepted product conditions.
type Condition string

const (
	ConditionNew         Condition = "new"
	ConditionUsed        Condition = "used"
	ConditionRefurbished Condition = "refurbished"
)

// Known reports whether c is a recognised condition.
func (c Condition) Known() bool {
	switch c {
	case ConditionNew, ConditionUsed, ConditionRefurbished:
		return true
	}
	return false
}

// Status enumerates the product lifecycle states.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusSold     Status = "sold"
	StatusArchived Status = "archived"
)

// Known reports whether s is a recognised status.
func (s Status) Known() bool {
	switch s {
	case StatusDraft, StatusActive, StatusSold, StatusArchived:
		return true
	}
	return false
}

// legalTransitions holds the allowed status moves; anything absent is an
// illegal transition.
var legalTransitions = map[Status][]Status{
	StatusDraft:  {StatusActive},
	StatusActive: {StatusSold, StatusArchived},
	StatusSold:   {StatusArchived},
}

// CanTransition reports whether from → to is a legal status move.
func CanTransition(from, to Status) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Product is a sellable listing under one category.
type Product struct {
	ID            uuid.UUID  `json:"id"`
	CategoryID    uuid.UUID  `json:"category_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Condition     Condition  `json:"condition"`
	StartingPrice float64    `json:"starting_price"`
	BuyNowPrice   *float64   `json:"buy_now_price,omitempty"`
	Images        []string   `json:"images"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Variant is one purchasable variation of a product. SKU is unique across the
// whole catalog. Quantity is not stored here; it derives from the variant's
// inventory record.
type Variant struct {
	ID         uuid.UUID                  `json:"id"`
	ProductID  uuid.UUID                  `json:"product_id"`
	SKU        string                     `json:"sku"`
	Title      string                     `json:"title"`
	Price      float64                    `json:"price"`
	Attributes map[string]attribute.Value `json:"attributes"`
	Position   int                        `json:"position"`
	IsActive   bool                       `json:"is_active"`
	CreatedAt  time.Time                  `json:"created_at"`
	UpdatedAt  time.Time                  `json:"updated_at"`
}

// CreateProductInput carries the fields accepted on product creation.
type CreateProductInput struct {
	CategoryID    uuid.UUID
	Title         string
	Description   string
	Condition     Condition
	StartingPrice float64
	BuyNowPrice   *float64
	Images        []string
	Status        Status
}

func (in CreateProductInput) validate() error {
	if in.Title == "" {
		return shared.Validationf("product title is required")
	}
	if !in.Condition.Known() {
		return shared.Validationf("unknown condition %q", in.Condition)
	}
	if in.StartingPrice < 0 {
		return shared.Validationf("starting price must not be negative")
	}
	if in.BuyNowPrice != nil && *in.BuyNowPrice < in.StartingPrice {
		return shared.Validationf("buy now price must be at least the starting price")
	}
	if in.Status != "" && !in.Status.Known() {
		return shared.Validationf("unknown status %q", in.Status)
	}
	return nil
}

// VariantInput carries the fields accepted when creating one variant. The
// Inventory pointer, when set, seeds the variant's inventory record.
type VariantInput struct {
	Title      string
	SKU        string
	Price      float64
	Inventory  *int
	Attributes map[string]attribute.Value
	Position   int
	IsActive   *bool
}

// BulkFailure reports one rejected entry of a bulk variant request.
type BulkFailure struct {
	Index  int    `json:"index"`
	SKU    string `json:"sku,omitempty"`
	Reason string `json:"reason"`
}

// BulkResult carries partial-success output: created variants alongside
// per-item failures; the batch itself never aborts.
type BulkResult struct {
	Created  []Variant
	Failures []BulkFailure
}
