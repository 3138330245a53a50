package products

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

// ProductService exposes the business logic required by the handler.
type ProductService interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (Product, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next Status) (Product, error)
	CreateVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (Variant, error)
	CreateVariantsBulk(ctx context.Context, productID uuid.UUID, inputs []VariantInput) (BulkResult, error)
	ListVariants(ctx context.Context, productID uuid.UUID) ([]Variant, error)
	DeleteVariant(ctx context.Context, id uuid.UUID) error
}

// ReindexQueue schedules a search index refresh after catalog writes.
// nil disables queueing; the periodic refresh still covers the index.
type ReindexQueue interface {
	EnqueueSearchReindex(ctx context.Context, force bool) (*asynq.TaskInfo, error)
}

// Handler wires HTTP endpoints for products and variants.
type Handler struct {
	logger   *slog.Logger
	service  ProductService
	queue    ReindexQueue
	validate *validator.Validate
}

// NewHandler constructs the product handler.
func NewHandler(logger *slog.Logger, service ProductService, queue ReindexQueue) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, queue: queue, validate: validator.New()}
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}/status", h.updateStatus)
	r.Post("/{id}/variants", h.createVariant)
	r.Post("/{id}/variants/bulk", h.createVariantsBulk)
	r.Get("/{id}/variants", h.listVariants)
}

// MountVariantRoutes registers routes addressed by variant id.
func (h *Handler) MountVariantRoutes(r chi.Router) {
	r.Delete("/{id}", h.deleteVariant)
}

type createProductRequest struct {
	CategoryID    uuid.UUID `json:"category_id" validate:"required"`
	Title         string    `json:"title" validate:"required,min=2,max=200"`
	Description   string    `json:"description"`
	Condition     string    `json:"condition" validate:"required,oneof=new used refurbished"`
	StartingPrice float64   `json:"starting_price" validate:"gte=0"`
	BuyNowPrice   *float64  `json:"buy_now_price"`
	Images        []string  `json:"images"`
	Status        string    `json:"status" validate:"omitempty,oneof=draft active sold archived"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type variantRequest struct {
	Title      string                     `json:"title"`
	SKU        string                     `json:"sku" validate:"required,min=1,max=64"`
	Price      float64                    `json:"price" validate:"gte=0"`
	Inventory  *int                       `json:"inventory"`
	Attributes map[string]attribute.Value `json:"attributes"`
	Position   int                        `json:"position"`
	IsActive   *bool                      `json:"is_active"`
}

func (req variantRequest) toInput() VariantInput {
	return VariantInput{
		Title:      req.Title,
		SKU:        req.SKU,
		Price:      req.Price,
		Inventory:  req.Inventory,
		Attributes: req.Attributes,
		Position:   req.Position,
		IsActive:   req.IsActive,
	}
}

type createVariantRequest struct {
	Variant variantRequest `json:"variant" validate:"required"`
}

type createVariantsBulkRequest struct {
	Variants []variantRequest `json:"variants" validate:"required,min=1,dive"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("%s", err.Error()))
		return
	}
	product, err := h.service.CreateProduct(r.Context(), CreateProductInput{
		CategoryID:    req.CategoryID,
		Title:         req.Title,
		Description:   req.Description,
		Condition:     Condition(req.Condition),
		StartingPrice: req.StartingPrice,
		BuyNowPrice:   req.BuyNowPrice,
		Images:        req.Images,
		Status:        Status(req.Status),
	})
	if err != nil {
		h.logger.Error("create product failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.queueReindex(r.Context())
	httpx.Created(w, map[string]Product{"product": product})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]Product{"product": product})
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("%s", err.Error()))
		return
	}
	product, err := h.service.UpdateStatus(r.Context(), id, Status(req.Status))
	if err != nil {
		h.logger.Error("update product status failed", slog.Any("error", err), slog.String("id", id.String()))
		httpx.RespondError(w, err)
		return
	}
	h.queueReindex(r.Context())
	httpx.OK(w, map[string]Product{"product": product})
}

func (h *Handler) createVariant(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req createVariantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("%s", err.Error()))
		return
	}
	variant, err := h.service.CreateVariant(r.Context(), id, req.Variant.toInput())
	if err != nil {
		h.logger.Error("create variant failed", slog.Any("error", err), slog.String("product_id", id.String()))
		httpx.RespondError(w, err)
		return
	}
	h.queueReindex(r.Context())
	httpx.Created(w, variant)
}

func (h *Handler) createVariantsBulk(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req createVariantsBulkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("%s", err.Error()))
		return
	}
	inputs := make([]VariantInput, len(req.Variants))
	for i, v := range req.Variants {
		inputs[i] = v.toInput()
	}
	result, err := h.service.CreateVariantsBulk(r.Context(), id, inputs)
	if err != nil {
		h.logger.Error("bulk create variants failed", slog.Any("error", err), slog.String("product_id", id.String()))
		httpx.RespondError(w, err)
		return
	}
	if len(result.Created) > 0 {
		h.queueReindex(r.Context())
	}
	httpx.Partial(w, result.Created, result.Failures)
}

func (h *Handler) listVariants(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	variants, err := h.service.ListVariants(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if variants == nil {
		variants = []Variant{}
	}
	httpx.OK(w, variants)
}

func (h *Handler) deleteVariant(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteVariant(r.Context(), id); err != nil {
		h.logger.Error("delete variant failed", slog.Any("error", err), slog.String("id", id.String()))
		httpx.RespondError(w, err)
		return
	}
	h.queueReindex(r.Context())
	httpx.OK(w, map[string]string{"deleted": id.String()})
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
		httpx.Fail(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
