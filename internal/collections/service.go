package collections

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/hawker-io/hawker/internal/shared"
)

// ProductPort answers product existence checks; owned by the catalog.
type ProductPort interface {
	ProductExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service coordinates collection operations.
type Service struct {
	repo     Repository
	products ProductPort
}

// NewService builds Service.
func NewService(repo Repository, products ProductPort) *Service {
	return &Service{repo: repo, products: products}
}

// Create adds a collection. Names carry no uniqueness constraint.
func (s *Service) Create(ctx context.Context, input CreateInput) (Collection, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Collection{}, shared.Validationf("collection name is required")
	}
	collection := Collection{
		ID:          uuid.New(),
		Name:        input.Name,
		Slug:        shared.Slugify(input.Name),
		Description: input.Description,
		IsActive:    true,
		ProductIDs:  []uuid.UUID{},
	}
	if input.IsActive != nil {
		collection.IsActive = *input.IsActive
	}
	return s.repo.Create(ctx, collection)
}

// Get returns one collection with its membership.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Collection, error) {
	return s.repo.Get(ctx, id)
}

// List returns collections, optionally only active ones.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]Collection, error) {
	return s.repo.List(ctx, activeOnly)
}

// Delete removes a collection and its membership.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// AddProducts unions product ids into the collection. All-or-nothing: every
// id must resolve to an existing product before any membership changes, and
// the first missing id fails the whole call naming it. Re-adding an existing
// member is a no-op; its existence was proven when it joined, so the lookup
// is skipped.
func (s *Service) AddProducts(ctx context.Context, id uuid.UUID, productIDs []uuid.UUID) (Collection, error) {
	if len(productIDs) == 0 {
		return Collection{}, shared.Validationf("product_ids must not be empty")
	}
	collection, err := s.repo.Get(ctx, id)
	if err != nil {
		return Collection{}, err
	}
	for _, productID := range productIDs {
		if collection.Contains(productID) {
			continue
		}
		exists, err := s.products.ProductExists(ctx, productID)
		if err != nil {
			return Collection{}, err
		}
		if !exists {
			return Collection{}, shared.NotFoundf("product %s", productID)
		}
	}
	if err := s.repo.AddMembers(ctx, id, dedupe(productIDs)); err != nil {
		return Collection{}, err
	}
	return s.repo.Get(ctx, id)
}

// RemoveProducts drops product ids from the collection; ids not in the set
// are ignored.
func (s *Service) RemoveProducts(ctx context.Context, id uuid.UUID, productIDs []uuid.UUID) (Collection, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return Collection{}, err
	}
	if err := s.repo.RemoveMembers(ctx, id, dedupe(productIDs)); err != nil {
		return Collection{}, err
	}
	return s.repo.Get(ctx, id)
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
