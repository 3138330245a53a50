package stats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hawker-io/hawker/internal/platform/httpx"
)

// StatsService exposes the aggregate query required by the handler.
type StatsService interface {
	Overview(ctx context.Context) (Overview, error)
}

// Handler wires the read-only statistics endpoint.
type Handler struct {
	logger  *slog.Logger
	service StatsService
}

// NewHandler constructs the stats handler.
func NewHandler(logger *slog.Logger, service StatsService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers stats routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.overview)
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		h.logger.Error("stats overview failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, overview)
}
