package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hawker-io/hawker/internal/catalog/attribute"
	"github.com/hawker-io/hawker/internal/shared"
)

// CategoryPort supplies the owning category's attribute schema; owned by the
// category tree. A NotFound error doubles as the existence check.
type CategoryPort interface {
	Schema(ctx context.Context, categoryID uuid.UUID) ([]attribute.Definition, error)
}

// StockInitializer opens an inventory record for a freshly created variant
// and drops it again when the variant goes away. Owned by the inventory
// ledger; nil disables seeding (tests, imports).
type StockInitializer interface {
	InitializeSubject(ctx context.Context, subjectID uuid.UUID, subjectType string, quantity int) error
	RemoveSubject(ctx context.Context, subjectID uuid.UUID) error
}

// Service coordinates product and variant operations.
type Service struct {
	repo       Repository
	categories CategoryPort
	inventory  StockInitializer
}

// NewService builds Service.
func NewService(repo Repository, categories CategoryPort, inventory StockInitializer) *Service {
	return &Service{repo: repo, categories: categories, inventory: inventory}
}

// CreateProduct validates prices and lifecycle state, checks the category
// exists, then persists. Status defaults to active when omitted.
func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (Product, error) {
	if err := input.validate(); err != nil {
		return Product{}, err
	}
	if _, err := s.categories.Schema(ctx, input.CategoryID); err != nil {
		return Product{}, err
	}
	status := input.Status
	if status == "" {
		status = StatusActive
	}
	product := Product{
		ID:            uuid.New(),
		CategoryID:    input.CategoryID,
		Title:         input.Title,
		Description:   input.Description,
		Condition:     input.Condition,
		StartingPrice: input.StartingPrice,
		BuyNowPrice:   input.BuyNowPrice,
		Images:        input.Images,
		Status:        status,
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	return s.repo.CreateProduct(ctx, product)
}

// GetProduct returns one product.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// UpdateStatus moves a product along the lifecycle. Only draft→active,
// active→sold, active→archived and sold→archived are legal.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, next Status) (Product, error) {
	if !next.Known() {
		return Product{}, shared.Validationf("unknown status %q", next)
	}
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if product.Status == next {
		return product, nil
	}
	if !CanTransition(product.Status, next) {
		return Product{}, shared.Statef("cannot move product from %s to %s", product.Status, next)
	}
	product.Status = next
	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return Product{}, err
	}
	return product, nil
}

// CreateVariant adds one variant, validating its attributes against the
// owning category's schema and seeding an inventory record.
func (s *Service) CreateVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (Variant, error) {
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return Variant{}, err
	}
	variant, err := s.buildVariant(ctx, product, input)
	if err != nil {
		return Variant{}, err
	}
	created, err := s.repo.CreateVariant(ctx, variant)
	if err != nil {
		return Variant{}, err
	}
	if err := s.seedInventory(ctx, created.ID, input.Inventory); err != nil {
		return Variant{}, err
	}
	return created, nil
}

// CreateVariantsBulk processes each entry independently: invalid or
// conflicting entries land in Failures, the rest are created. The batch
// itself never aborts.
func (s *Service) CreateVariantsBulk(ctx context.Context, productID uuid.UUID, inputs []VariantInput) (BulkResult, error) {
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return BulkResult{}, err
	}
	result := BulkResult{Created: []Variant{}, Failures: []BulkFailure{}}
	for i, input := range inputs {
		variant, err := s.buildVariant(ctx, product, input)
		if err == nil {
			variant, err = s.repo.CreateVariant(ctx, variant)
		}
		if err == nil {
			err = s.seedInventory(ctx, variant.ID, input.Inventory)
		}
		if err != nil {
			result.Failures = append(result.Failures, BulkFailure{
				Index:  i,
				SKU:    input.SKU,
				Reason: shared.UserSafeMessage(err),
			})
			continue
		}
		result.Created = append(result.Created, variant)
	}
	return result, nil
}

// GetVariant returns one variant.
func (s *Service) GetVariant(ctx context.Context, id uuid.UUID) (Variant, error) {
	return s.repo.GetVariant(ctx, id)
}

// ListVariants returns a product's variants in position order.
func (s *Service) ListVariants(ctx context.Context, productID uuid.UUID) ([]Variant, error) {
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.ListVariants(ctx, productID)
}

// DeleteVariant removes a variant along with its inventory record.
func (s *Service) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteVariant(ctx, id); err != nil {
		return err
	}
	if s.inventory == nil {
		return nil
	}
	if err := s.inventory.RemoveSubject(ctx, id); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("remove inventory for variant %s: %w", id, err)
	}
	return nil
}

// CountByCategory reports product counts per category.
func (s *Service) CountByCategory(ctx context.Context) (map[uuid.UUID]int, error) {
	return s.repo.CountByCategory(ctx)
}

// HasProducts reports whether any product references the category.
func (s *Service) HasProducts(ctx context.Context, categoryID uuid.UUID) (bool, error) {
	return s.repo.HasProducts(ctx, categoryID)
}

// ProductExists reports whether a product id resolves.
func (s *Service) ProductExists(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, err := s.repo.GetProduct(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ResolveSubject classifies an id as a product or a variant for the
// inventory ledger's existence check.
func (s *Service) ResolveSubject(ctx context.Context, id uuid.UUID) (string, error) {
	if _, err := s.repo.GetVariant(ctx, id); err == nil {
		return "variant", nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return "", err
	}
	if _, err := s.repo.GetProduct(ctx, id); err != nil {
		return "", err
	}
	return "product", nil
}

// buildVariant validates one variant input against the product's category
// schema and checks the SKU is free. The repository's unique index
// re-validates the SKU at insert time.
func (s *Service) buildVariant(ctx context.Context, product Product, input VariantInput) (Variant, error) {
	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		return Variant{}, shared.Validationf("variant sku is required")
	}
	if input.Price < 0 {
		return Variant{}, shared.Validationf("variant price must not be negative")
	}
	if _, err := s.repo.VariantBySKU(ctx, sku); err == nil {
		return Variant{}, shared.Conflictf("sku %q already exists", sku)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return Variant{}, err
	}
	attrs, err := s.normalizeAttributes(ctx, product.CategoryID, input.Attributes)
	if err != nil {
		return Variant{}, err
	}
	variant := Variant{
		ID:         uuid.New(),
		ProductID:  product.ID,
		SKU:        sku,
		Title:      input.Title,
		Price:      input.Price,
		Attributes: attrs,
		Position:   input.Position,
		IsActive:   true,
	}
	if input.IsActive != nil {
		variant.IsActive = *input.IsActive
	}
	return variant, nil
}

// normalizeAttributes type-checks values that match a declared definition on
// the category. Dimensions without a declaration pass through untouched;
// declarations only constrain, they do not enumerate.
func (s *Service) normalizeAttributes(ctx context.Context, categoryID uuid.UUID, attrs map[string]attribute.Value) (map[string]attribute.Value, error) {
	out := make(map[string]attribute.Value, len(attrs))
	if len(attrs) == 0 {
		return out, nil
	}
	defs, err := s.categories.Schema(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]attribute.Definition, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
	}
	for name, value := range attrs {
		def, declared := byName[name]
		if !declared {
			out[name] = value
			continue
		}
		normalized, err := attribute.Normalize(def, value)
		if err != nil {
			return nil, err
		}
		out[name] = normalized
	}
	return out, nil
}

func (s *Service) seedInventory(ctx context.Context, variantID uuid.UUID, initial *int) error {
	if s.inventory == nil {
		return nil
	}
	quantity := 0
	if initial != nil {
		if *initial < 0 {
			return shared.Validationf("initial inventory must not be negative")
		}
		quantity = *initial
	}
	if err := s.inventory.InitializeSubject(ctx, variantID, "variant", quantity); err != nil {
		return fmt.Errorf("seed inventory for variant %s: %w", variantID, err)
	}
	return nil
}
