package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hawker-io/hawker/internal/catalog/categories"
	"github.com/hawker-io/hawker/internal/catalog/products"
	"github.com/hawker-io/hawker/internal/collections"
	"github.com/hawker-io/hawker/internal/inventory"
	"github.com/hawker-io/hawker/internal/observability"
	"github.com/hawker-io/hawker/internal/search"
	"github.com/hawker-io/hawker/internal/stats"
	"github.com/hawker-io/hawker/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	CategoriesHandler  *categories.Handler
	ProductsHandler    *products.Handler
	InventoryHandler   *inventory.Handler
	CollectionsHandler *collections.Handler
	SearchHandler      *search.Handler
	StatsHandler       *stats.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with Hawker defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/categories", params.CategoriesHandler.MountRoutes)
		r.Route("/products", params.ProductsHandler.MountRoutes)
		r.Route("/variants", params.ProductsHandler.MountVariantRoutes)
		r.Route("/inventory", params.InventoryHandler.MountRoutes)
		r.Route("/collections", params.CollectionsHandler.MountRoutes)
		if params.SearchHandler != nil {
			r.Route("/search", params.SearchHandler.MountRoutes)
		}
		if params.StatsHandler != nil {
			r.Route("/stats", params.StatsHandler.MountRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
