package products

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hawker-io/hawker/internal/catalog/attribute"
	"github.com/hawker-io/hawker/internal/shared"
)

type memoryRepo struct {
	mu       sync.RWMutex
	products map[uuid.UUID]Product
	variants map[uuid.UUID]Variant
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products: make(map[uuid.UUID]Product),
		variants: make(map[uuid.UUID]Variant),
	}
}

func (r *memoryRepo) CreateProduct(ctx context.Context, product Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = product
	return product, nil
}

func (r *memoryRepo) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return Product{}, shared.NotFoundf("product %s", id)
	}
	return p, nil
}

func (r *memoryRepo) UpdateProduct(ctx context.Context, product Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[product.ID]; !ok {
		return shared.NotFoundf("product %s", product.ID)
	}
	r.products[product.ID] = product
	return nil
}

func (r *memoryRepo) CreateVariant(ctx context.Context, variant Variant) (Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.variants {
		if existing.SKU == variant.SKU {
			return Variant{}, shared.Conflictf("sku %q already exists", variant.SKU)
		}
	}
	r.variants[variant.ID] = variant
	return variant, nil
}

func (r *memoryRepo) GetVariant(ctx context.Context, id uuid.UUID) (Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variants[id]
	if !ok {
		return Variant{}, shared.NotFoundf("variant %s", id)
	}
	return v, nil
}

func (r *memoryRepo) VariantBySKU(ctx context.Context, sku string) (Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.variants {
		if v.SKU == sku {
			return v, nil
		}
	}
	return Variant{}, shared.NotFoundf("variant with sku %q", sku)
}

func (r *memoryRepo) ListVariants(ctx context.Context, productID uuid.UUID) ([]Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []Variant
	for _, v := range r.variants {
		if v.ProductID == productID {
			result = append(result, v)
		}
	}
	return result, nil
}

func (r *memoryRepo) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.variants[id]; !ok {
		return shared.NotFoundf("variant %s", id)
	}
	delete(r.variants, id)
	return nil
}

func (r *memoryRepo) CountByCategory(ctx context.Context) (map[uuid.UUID]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[uuid.UUID]int)
	for _, p := range r.products {
		counts[p.CategoryID]++
	}
	return counts, nil
}

func (r *memoryRepo) HasProducts(ctx context.Context, categoryID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.products {
		if p.CategoryID == categoryID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) variantCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.variants)
}

type stubSchemas struct {
	schemas map[uuid.UUID][]attribute.Definition
}

func (s stubSchemas) Schema(ctx context.Context, categoryID uuid.UUID) ([]attribute.Definition, error) {
	defs, ok := s.schemas[categoryID]
	if !ok {
		return nil, shared.NotFoundf("category %s", categoryID)
	}
	return defs, nil
}

type recordingInitializer struct {
	mu    sync.Mutex
	calls map[uuid.UUID]int
}

func newRecordingInitializer() *recordingInitializer {
	return &recordingInitializer{calls: make(map[uuid.UUID]int)}
}

func (r *recordingInitializer) InitializeSubject(ctx context.Context, subjectID uuid.UUID, subjectType string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[subjectID] = quantity
	return nil
}

func (r *recordingInitializer) RemoveSubject(ctx context.Context, subjectID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.calls, subjectID)
	return nil
}

func testCatalog(t *testing.T) (*Service, *memoryRepo, *recordingInitializer, uuid.UUID) {
	t.Helper()
	repo := newMemoryRepo()
	categoryID := uuid.New()
	schemas := stubSchemas{schemas: map[uuid.UUID][]attribute.Definition{
		categoryID: {
			{Name: "Warranty Period", Type: attribute.TypeSelect, Options: []string{"1 Year", "2 Years", "3 Years"}},
		},
	}}
	inv := newRecordingInitializer()
	return NewService(repo, schemas, inv), repo, inv, categoryID
}

func TestCreateProductValidation(t *testing.T) {
	svc, _, _, categoryID := testCatalog(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, CreateProductInput{
		CategoryID: uuid.New(), Title: "Phone", Condition: ConditionNew, StartingPrice: 10,
	})
	require.ErrorIs(t, err, shared.ErrNotFound)

	lowBuyNow := 5.0
	_, err = svc.CreateProduct(ctx, CreateProductInput{
		CategoryID: categoryID, Title: "Phone", Condition: ConditionNew,
		StartingPrice: 10, BuyNowPrice: &lowBuyNow,
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateProduct(ctx, CreateProductInput{
		CategoryID: categoryID, Title: "Phone", Condition: Condition("mint"), StartingPrice: 10,
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		CategoryID: categoryID, Title: "Phone", Condition: ConditionNew, StartingPrice: 10,
	})
	require.NoError(t, err)
	require.Equal(t, StatusActive, created.Status)

	draft, err := svc.CreateProduct(ctx, CreateProductInput{
		CategoryID: categoryID, Title: "Prototype", Condition: ConditionNew,
		StartingPrice: 10, Status: StatusDraft,
	})
	require.NoError(t, err)
	require.Equal(t, StatusDraft, draft.Status)
}

func TestUpdateStatusTransitions(t *testing.T) {
	svc, _, _, categoryID := testCatalog(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		CategoryID: categoryID, Title: "Phone", Condition: ConditionNew,
		StartingPrice: 10, Status: StatusDraft,
	})
	require.NoError(t, err)

	product, err = svc.UpdateStatus(ctx, product.ID, StatusActive)
	require.NoError(t, err)
	require.Equal(t, StatusActive, product.Status)

	_, err = svc.UpdateStatus(ctx, product.ID, StatusDraft)
	require.ErrorIs(t, err, shared.ErrState)

	product, err = svc.UpdateStatus(ctx, product.ID, StatusSold)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, product.ID, StatusActive)
	require.ErrorIs(t, err, shared.ErrState)

	product, err = svc.UpdateStatus(ctx, product.ID, StatusArchived)
	require.NoError(t, err)
	require.Equal(t, StatusArchived, product.Status)

	_, err = svc.UpdateStatus(ctx, product.ID, Status("retired"))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateVariantEnforcesSKUUniqueness(t *testing.T) {
	svc, repo, _, categoryID := testCatalog(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		CategoryID: categoryID, Title: "Phone", Condition: ConditionNew, StartingPrice: 10,
	})
	require.NoError(t, err)

	_, err = svc.CreateVariant(ctx, product.ID, VariantInput{SKU: "PHN-001", Price: 12})
	require.NoError(t, err)

	_, err = svc.CreateVariant(ctx, product.ID, VariantInput{SKU: "PHN-001", Price: 15})
	require.ErrorIs(t, err, shared.ErrConflict)
	require.Equal(t, 1, repo.variantCount())
}

func TestCreateVariantValidatesDeclaredAttributes(t *testing.T) {
	svc, _, _, categoryID := testCatalog(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		CategoryID: categoryID, Title: "Phone", Condition: ConditionNew, StartingPrice: 10,
	})
	require.NoError(t, err)

	_, err = svc.CreateVariant(ctx, product.ID, VariantInput{
		SKU: "PHN-BAD", Price: 12,
		Attributes: map[string]attribute.Value{"Warranty Period": attribute.Text("4 Years")},
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	variant, err := svc.CreateVariant(ctx, product.ID, VariantInput{
		SKU: "PHN-OK", Price: 12,
		Attributes: map[string]attribute.Value{
			"Warranty Period": attribute.Text("2 Years"),
			"color":           attribute.Text("Black"),
			"storage":         attribute.Text("256GB"),
		},
	})
	require.NoError(t, err)
	require.Equal(t, attribute.TypeSelect, variant.Attributes["Warranty Period"].Kind())
	require.Equal(t, "Black", variant.Attributes["color"].String())
}

func TestCreateVariantSeedsInventory(t *testing.T) {
	svc, _, inv, categoryID := testCatalog(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		CategoryID: categoryID, Title: "Phone", Condition: ConditionNew, StartingPrice: 10,
	})
	require.NoError(t, err)

	initial := 40
	variant, err := svc.CreateVariant(ctx, product.ID, VariantInput{
		SKU: "PHN-SEED", Price: 12, Inventory: &initial,
	})
	require.NoError(t, err)
	require.Equal(t, 40, inv.calls[variant.ID])

	bare, err := svc.CreateVariant(ctx, product.ID, VariantInput{SKU: "PHN-ZERO", Price: 12})
	require.NoError(t, err)
	require.Equal(t, 0, inv.calls[bare.ID])
	require.Contains(t, inv.calls, bare.ID)
}

func TestCreateVariantsBulkPartialSuccess(t *testing.T) {
	svc, repo, _, categoryID := testCatalog(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		CategoryID: categoryID, Title: "Phone", Condition: ConditionNew, StartingPrice: 10,
	})
	require.NoError(t, err)

	_, err = svc.CreateVariant(ctx, product.ID, VariantInput{SKU: "PHN-DUP", Price: 12})
	require.NoError(t, err)

	result, err := svc.CreateVariantsBulk(ctx, product.ID, []VariantInput{
		{SKU: "PHN-A", Price: 12},
		{SKU: "PHN-B", Price: 13},
		{SKU: "PHN-DUP", Price: 14},
		{SKU: "PHN-C", Price: 15},
	})
	require.NoError(t, err)
	require.Len(t, result.Created, 3)
	require.Len(t, result.Failures, 1)
	require.Equal(t, 2, result.Failures[0].Index)
	require.Equal(t, "PHN-DUP", result.Failures[0].SKU)
	require.Equal(t, 4, repo.variantCount())
}

func TestResolveSubject(t *testing.T) {
	svc, _, _, categoryID := testCatalog(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		CategoryID: categoryID, Title: "Phone", Condition: ConditionNew, StartingPrice: 10,
	})
	require.NoError(t, err)
	variant, err := svc.CreateVariant(ctx, product.ID, VariantInput{SKU: "PHN-SUB", Price: 12})
	require.NoError(t, err)

	kind, err := svc.ResolveSubject(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, "product", kind)

	kind, err = svc.ResolveSubject(ctx, variant.ID)
	require.NoError(t, err)
	require.Equal(t, "variant", kind)

	_, err = svc.ResolveSubject(ctx, uuid.New())
	require.ErrorIs(t, err, shared.ErrNotFound)
}
