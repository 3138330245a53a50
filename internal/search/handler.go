package search

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hawker-io/hawker/internal/platform/httpx"
)

// SearchService exposes the query side required by the handler.
type SearchService interface {
	Search(ctx context.Context, query Query) (Result, error)
}

// Handler wires the read-only search endpoint.
type Handler struct {
	logger  *slog.Logger
	service SearchService
}

// NewHandler constructs the search handler.
func NewHandler(logger *slog.Logger, service SearchService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers search routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.search)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := Query{
		Term:      q.Get("q"),
		Status:    q.Get("status"),
		Condition: q.Get("condition"),
	}
	if raw := q.Get("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid category id")
			return
		}
		query.CategoryID = &id
	}
	if raw := q.Get("min_price"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid min price")
			return
		}
		query.MinPrice = &price
	}
	if raw := q.Get("max_price"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid max price")
			return
		}
		query.MaxPrice = &price
	}
	query.Page, _ = strconv.Atoi(q.Get("page"))
	query.PerPage, _ = strconv.Atoi(q.Get("per_page"))

	result, err := h.service.Search(r.Context(), query)
	if err != nil {
		h.logger.Error("search failed", slog.Any("error", err), slog.String("term", query.Term))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, result)
}
