package categories

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/hawker-io/hawker/internal/catalog/attribute"
	"github.com/hawker-io/hawker/internal/shared"
)

// ProductCounter supplies read-only product counts per category; owned by the
// product catalog, consumed here when the tree is requested with counts.
type ProductCounter interface {
	CountByCategory(ctx context.Context) (map[uuid.UUID]int, error)
	HasProducts(ctx context.Context, categoryID uuid.UUID) (bool, error)
}

// Service coordinates category tree operations.
type Service struct {
	repo     Repository
	products ProductCounter
}

// NewService builds Service. products may be nil until the catalog is wired.
func NewService(repo Repository, products ProductCounter) *Service {
	return &Service{repo: repo, products: products}
}

// Create adds a category, validating the parent reference first.
func (s *Service) Create(ctx context.Context, input CreateInput) (Category, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Category{}, shared.Validationf("category name is required")
	}
	if input.ParentID != nil {
		if _, err := s.repo.Get(ctx, *input.ParentID); err != nil {
			return Category{}, shared.NotFoundf("parent category %s", *input.ParentID)
		}
	}
	category := Category{
		ID:          uuid.New(),
		Name:        input.Name,
		Slug:        shared.Slugify(input.Name),
		Description: input.Description,
		ParentID:    input.ParentID,
		SortOrder:   input.SortOrder,
		IsActive:    true,
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	return s.repo.Create(ctx, category)
}

// Get returns one category.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Category, error) {
	return s.repo.Get(ctx, id)
}

// Update applies a partial update. Re-parenting re-checks the acyclicity
// invariant: the new parent must exist and must not be the category itself or
// any of its descendants.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Category, error) {
	category, err := s.repo.Get(ctx, id)
	if err != nil {
		return Category{}, err
	}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return Category{}, shared.Validationf("category name is required")
		}
		category.Name = *input.Name
		category.Slug = shared.Slugify(*input.Name)
	}
	if input.Description != nil {
		category.Description = *input.Description
	}
	if input.SortOrder != nil {
		category.SortOrder = *input.SortOrder
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if input.ParentID != nil {
		if *input.ParentID == id {
			return Category{}, shared.Validationf("category cannot be its own parent")
		}
		if _, err := s.repo.Get(ctx, *input.ParentID); err != nil {
			return Category{}, shared.NotFoundf("parent category %s", *input.ParentID)
		}
		if err := s.ensureNoCycle(ctx, id, *input.ParentID); err != nil {
			return Category{}, err
		}
		category.ParentID = input.ParentID
	}
	if err := s.repo.Update(ctx, category); err != nil {
		return Category{}, err
	}
	return category, nil
}

// Delete removes a category once nothing references it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	hasChildren, err := s.repo.HasChildren(ctx, id)
	if err != nil {
		return err
	}
	if hasChildren {
		return shared.Conflictf("category has subcategories")
	}
	if s.products != nil {
		hasProducts, err := s.products.HasProducts(ctx, id)
		if err != nil {
			return err
		}
		if hasProducts {
			return shared.Conflictf("category has associated products")
		}
	}
	return s.repo.Delete(ctx, id)
}

// AddAttribute validates and appends a definition to the category's schema.
// A failed append leaves the schema list unchanged.
func (s *Service) AddAttribute(ctx context.Context, categoryID uuid.UUID, def attribute.Definition) (attribute.Definition, error) {
	if _, err := s.repo.Get(ctx, categoryID); err != nil {
		return attribute.Definition{}, err
	}
	def.ID = uuid.New()
	def.CategoryID = categoryID
	if err := attribute.ValidateDefinition(def); err != nil {
		return attribute.Definition{}, err
	}
	existing, err := s.repo.Attributes(ctx, categoryID)
	if err != nil {
		return attribute.Definition{}, err
	}
	for _, attr := range existing {
		if attr.Name == def.Name {
			return attribute.Definition{}, shared.Conflictf("attribute %q already defined on category", def.Name)
		}
	}
	// The repository's unique index re-validates at insert time; the scan
	// above only gives a friendlier path for the common case.
	return s.repo.AddAttribute(ctx, def)
}

// Schema returns the ordered attribute definitions for a category.
func (s *Service) Schema(ctx context.Context, categoryID uuid.UUID) ([]attribute.Definition, error) {
	if _, err := s.repo.Get(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.repo.Attributes(ctx, categoryID)
}

// Tree builds the category forest. Product counts come from the catalog port
// and are zero when counts are not requested.
func (s *Service) Tree(ctx context.Context, includeProductCounts bool) ([]*TreeNode, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	var counts map[uuid.UUID]int
	if includeProductCounts && s.products != nil {
		counts, err = s.products.CountByCategory(ctx)
		if err != nil {
			return nil, err
		}
	}

	nodes := make(map[uuid.UUID]*TreeNode, len(all))
	for _, c := range all {
		nodes[c.ID] = &TreeNode{Category: c, ProductCount: counts[c.ID]}
	}
	var roots []*TreeNode
	for _, c := range all {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	sortNodes(roots)
	return roots, nil
}

func sortNodes(nodes []*TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].SortOrder != nodes[j].SortOrder {
			return nodes[i].SortOrder < nodes[j].SortOrder
		}
		return nodes[i].Name < nodes[j].Name
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

// ensureNoCycle walks up from newParent; reaching id means the move would
// close a cycle.
func (s *Service) ensureNoCycle(ctx context.Context, id, newParent uuid.UUID) error {
	current := newParent
	for {
		parent, err := s.repo.Get(ctx, current)
		if err != nil {
			return err
		}
		if parent.ParentID == nil {
			return nil
		}
		if *parent.ParentID == id {
			return shared.Conflictf("move would create a category cycle")
		}
		current = *parent.ParentID
	}
}
