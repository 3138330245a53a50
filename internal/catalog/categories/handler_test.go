package categories

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/hawker-io/hawker/internal/catalog/attribute"
	"github.com/hawker-io/hawker/internal/shared"
)

type stubCategoryService struct {
	create       func(ctx context.Context, input CreateInput) (Category, error)
	get          func(ctx context.Context, id uuid.UUID) (Category, error)
	update       func(ctx context.Context, id uuid.UUID, input UpdateInput) (Category, error)
	deleteFn     func(ctx context.Context, id uuid.UUID) error
	addAttribute func(ctx context.Context, categoryID uuid.UUID, def attribute.Definition) (attribute.Definition, error)
	schema       func(ctx context.Context, categoryID uuid.UUID) ([]attribute.Definition, error)
	tree         func(ctx context.Context, includeProductCounts bool) ([]*TreeNode, error)
}

func (s *stubCategoryService) Create(ctx context.Context, input CreateInput) (Category, error) {
	return s.create(ctx, input)
}

func (s *stubCategoryService) Get(ctx context.Context, id uuid.UUID) (Category, error) {
	return s.get(ctx, id)
}

func (s *stubCategoryService) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Category, error) {
	return s.update(ctx, id, input)
}

func (s *stubCategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.deleteFn(ctx, id)
}

func (s *stubCategoryService) AddAttribute(ctx context.Context, categoryID uuid.UUID, def attribute.Definition) (attribute.Definition, error) {
	return s.addAttribute(ctx, categoryID, def)
}

func (s *stubCategoryService) Schema(ctx context.Context, categoryID uuid.UUID) ([]attribute.Definition, error) {
	return s.schema(ctx, categoryID)
}

func (s *stubCategoryService) Tree(ctx context.Context, includeProductCounts bool) ([]*TreeNode, error) {
	return s.tree(ctx, includeProductCounts)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type stubReindexQueue struct {
	calls int
}

func (q *stubReindexQueue) EnqueueSearchReindex(ctx context.Context, force bool) (*asynq.TaskInfo, error) {
	q.calls++
	return nil, nil
}

func categoryRouter(t *testing.T, stub *stubCategoryService) http.Handler {
	t.Helper()
	return categoryRouterWithQueue(t, stub, nil)
}

func categoryRouterWithQueue(t *testing.T, stub *stubCategoryService, queue ReindexQueue) http.Handler {
	t.Helper()
	h := NewHandler(nil, stub, queue)
	r := chi.NewRouter()
	r.Route("/categories", h.MountRoutes)
	return r
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestCreateCategoryEnvelope(t *testing.T) {
	stub := &stubCategoryService{
		create: func(_ context.Context, input CreateInput) (Category, error) {
			return Category{ID: uuid.New(), Name: input.Name, Slug: shared.Slugify(input.Name), IsActive: true}, nil
		},
	}
	router := categoryRouter(t, stub)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/categories/", strings.NewReader(`{"name":"Consumer Electronics"}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	env := decodeEnvelope(t, rec)
	require.True(t, env.Success)

	var category Category
	require.NoError(t, json.Unmarshal(env.Data, &category))
	require.Equal(t, "Consumer Electronics", category.Name)
	require.Equal(t, "consumer-electronics", category.Slug)
}

func TestCreateCategoryRejectsShortName(t *testing.T) {
	router := categoryRouter(t, &stubCategoryService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/categories/", strings.NewReader(`{"name":"A"}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, decodeEnvelope(t, rec).Success)
}

func TestTreePassesProductCountFlag(t *testing.T) {
	var gotFlag bool
	stub := &stubCategoryService{
		tree: func(_ context.Context, includeProductCounts bool) ([]*TreeNode, error) {
			gotFlag = includeProductCounts
			return []*TreeNode{{Category: Category{ID: uuid.New(), Name: "Root"}, ProductCount: 7}}, nil
		},
	}
	router := categoryRouter(t, stub)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/categories/?include_product_count=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, gotFlag)

	var nodes []*TreeNode
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &nodes))
	require.Len(t, nodes, 1)
	require.Equal(t, 7, nodes[0].ProductCount)
}

func TestDeleteCategoryWithProductsIsConflict(t *testing.T) {
	stub := &stubCategoryService{
		deleteFn: func(_ context.Context, id uuid.UUID) error {
			return shared.Conflictf("category %s still has products", id)
		},
	}
	router := categoryRouter(t, stub)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/categories/"+uuid.NewString(), nil))

	require.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	require.False(t, env.Success)
	require.Contains(t, env.Error, "still has products")
}

func TestTreeWritesQueueSearchReindex(t *testing.T) {
	queue := &stubReindexQueue{}
	stub := &stubCategoryService{
		update: func(_ context.Context, id uuid.UUID, input UpdateInput) (Category, error) {
			return Category{ID: id, Name: *input.Name}, nil
		},
		deleteFn: func(_ context.Context, _ uuid.UUID) error {
			return shared.Conflictf("category still has products")
		},
	}
	router := categoryRouterWithQueue(t, stub, queue)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/categories/"+uuid.NewString(), strings.NewReader(`{"name":"Optics"}`))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, queue.calls)

	// A rejected delete leaves the index untouched, so no hint goes out.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/categories/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, 1, queue.calls)
}

func TestAddAttributeRejectsUnknownType(t *testing.T) {
	router := categoryRouter(t, &stubCategoryService{})

	body := `{"name":"Warranty Period","type":"duration"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/categories/"+uuid.NewString()+"/attributes", strings.NewReader(body))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAttributesForMissingCategory(t *testing.T) {
	stub := &stubCategoryService{
		schema: func(_ context.Context, categoryID uuid.UUID) ([]attribute.Definition, error) {
			return nil, shared.NotFoundf("category %s", categoryID)
		},
	}
	router := categoryRouter(t, stub)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/categories/"+uuid.NewString()+"/attributes", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}
