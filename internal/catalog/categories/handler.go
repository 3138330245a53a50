package categories

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/hawker-io/hawker/internal/catalog/attribute"
	"github.com/hawker-io/hawker/internal/platform/httpx"
	"github.com/hawker-io/hawker/internal/shared"
)

// CategoryService exposes the business logic required by the handler.
type CategoryService interface {
	Create(ctx context.Context, input CreateInput) (Category, error)
	Get(ctx context.Context, id uuid.UUID) (Category, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddAttribute(ctx context.Context, categoryID uuid.UUID, def attribute.Definition) (attribute.Definition, error)
	Schema(ctx context.Context, categoryID uuid.UUID) ([]attribute.Definition, error)
	Tree(ctx context.Context, includeProductCounts bool) ([]*TreeNode, error)
}

// ReindexQueue schedules a search index refresh after tree writes. Search
// results carry category names, so renames and deletes stale the index.
// nil disables queueing.
type ReindexQueue interface {
	EnqueueSearchReindex(ctx context.Context, force bool) (*asynq.TaskInfo, error)
}

// Handler wires HTTP endpoints for the category tree.
type Handler struct {
	logger   *slog.Logger
	service  CategoryService
	queue    ReindexQueue
	validate *validator.Validate
}

// NewHandler constructs the category handler.
func NewHandler(logger *slog.Logger, service CategoryService, queue ReindexQueue) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, queue: queue, validate: validator.New()}
}

// MountRoutes registers category routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.tree)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/attributes", h.createAttribute)
	r.Get("/{id}/attributes", h.listAttributes)
}

type createCategoryRequest struct {
	Name        string     `json:"name" validate:"required,min=2,max=100"`
	Description string     `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id"`
	SortOrder   int        `json:"sort_order"`
	IsActive    *bool      `json:"is_active"`
}

type updateCategoryRequest struct {
	Name        *string    `json:"name" validate:"omitempty,min=2,max=100"`
	Description *string    `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id"`
	SortOrder   *int       `json:"sort_order"`
	IsActive    *bool      `json:"is_active"`
}

type createAttributeRequest struct {
	Name         string           `json:"name" validate:"required,min=2,max=50"`
	Type         string           `json:"type" validate:"required,oneof=text select boolean number"`
	Required     bool             `json:"required"`
	Options      []string         `json:"options"`
	DefaultValue *attribute.Value `json:"default_value"`
	SortOrder    int              `json:"sort_order"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("%s", err.Error()))
		return
	}
	category, err := h.service.Create(r.Context(), CreateInput{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		SortOrder:   req.SortOrder,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.logger.Error("create category failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, category)
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	includeCounts := r.URL.Query().Get("include_product_count") == "true"
	tree, err := h.service.Tree(r.Context(), includeCounts)
	if err != nil {
		h.logger.Error("build category tree failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if tree == nil {
		tree = []*TreeNode{}
	}
	httpx.OK(w, tree)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	category, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, category)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req updateCategoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("%s", err.Error()))
		return
	}
	category, err := h.service.Update(r.Context(), id, UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		SortOrder:   req.SortOrder,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.logger.Error("update category failed", slog.Any("error", err), slog.String("id", id.String()))
		httpx.RespondError(w, err)
		return
	}
	h.queueReindex(r.Context())
	httpx.OK(w, category)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete category failed", slog.Any("error", err), slog.String("id", id.String()))
		httpx.RespondError(w, err)
		return
	}
	h.queueReindex(r.Context())
	httpx.OK(w, map[string]string{"deleted": id.String()})
}

func (h *Handler) createAttribute(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req createAttributeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("%s", err.Error()))
		return
	}
	def, err := h.service.AddAttribute(r.Context(), id, attribute.Definition{
		Name:         req.Name,
		Type:         attribute.Type(req.Type),
		Required:     req.Required,
		Options:      req.Options,
		DefaultValue: req.DefaultValue,
		SortOrder:    req.SortOrder,
	})
	if err != nil {
		h.logger.Error("add attribute failed", slog.Any("error", err), slog.String("category_id", id.String()))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, def)
}

func (h *Handler) listAttributes(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	defs, err := h.service.Schema(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if defs == nil {
		defs = []attribute.Definition{}
	}
	httpx.OK(w, defs)
}

// queueReindex hands a stale-index hint to the job queue. Losing the hint is
// tolerable, so enqueue failures are logged and the response proceeds.
func (h *Handler) queueReindex(ctx context.Context) {
	if h.queue == nil {
		return
	}
	if _, err := h.queue.EnqueueSearchReindex(ctx, false); err != nil {
		h.logger.Warn("enqueue search reindex", slog.Any("error", err))
	}
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid category id")
		return uuid.Nil, false
	}
	return id, true
}
