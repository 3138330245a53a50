package collections

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hawker-io/hawker/internal/platform/httpx"
	"github.com/hawker-io/hawker/internal/shared"
)

// CollectionService exposes the business logic required by the handler.
type CollectionService interface {
	Create(ctx context.Context, input CreateInput) (Collection, error)
	Get(ctx context.Context, id uuid.UUID) (Collection, error)
	List(ctx context.Context, activeOnly bool) ([]Collection, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddProducts(ctx context.Context, id uuid.UUID, productIDs []uuid.UUID) (Collection, error)
	RemoveProducts(ctx context.Context, id uuid.UUID, productIDs []uuid.UUID) (Collection, error)
}

// Handler wires HTTP endpoints for collections.
type Handler struct {
	logger   *slog.Logger
	service  CollectionService
	validate *validator.Validate
}

// NewHandler constructs the collection handler.
func NewHandler(logger *slog.Logger, service CollectionService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers collection routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/products", h.addProducts)
	r.Delete("/{id}/products", h.removeProducts)
}

type createCollectionRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

type membershipRequest struct {
	ProductIDs []uuid.UUID `json:"product_ids" validate:"required,min=1"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("%s", err.Error()))
		return
	}
	collection, err := h.service.Create(r.Context(), CreateInput{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.logger.Error("create collection failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, collection)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	collections, err := h.service.List(r.Context(), activeOnly)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if collections == nil {
		collections = []Collection{}
	}
	httpx.OK(w, collections)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	collection, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, collection)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete collection failed", slog.Any("error", err), slog.String("id", id.String()))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]string{"deleted": id.String()})
}

func (h *Handler) addProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeMembership(w, r)
	if !ok {
		return
	}
	collection, err := h.service.AddProducts(r.Context(), id, req.ProductIDs)
	if err != nil {
		h.logger.Error("add collection products failed", slog.Any("error", err), slog.String("id", id.String()))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, collection)
}

func (h *Handler) removeProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeMembership(w, r)
	if !ok {
		return
	}
	collection, err := h.service.RemoveProducts(r.Context(), id, req.ProductIDs)
	if err != nil {
		h.logger.Error("remove collection products failed", slog.Any("error", err), slog.String("id", id.String()))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, collection)
}

func (h *Handler) decodeMembership(w http.ResponseWriter, r *http.Request) (membershipRequest, bool) {
	var req membershipRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("%s", err.Error()))
		return req, false
	}
	return req, true
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid collection id")
		return uuid.Nil, false
	}
	return id, true
}
