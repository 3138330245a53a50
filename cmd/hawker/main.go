package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/hawker-io/hawker/internal/app"
	"github.com/hawker-io/hawker/internal/catalog/categories"
	"github.com/hawker-io/hawker/internal/catalog/products"
	"github.com/hawker-io/hawker/internal/collections"
	"github.com/hawker-io/hawker/internal/inventory"
	"github.com/hawker-io/hawker/internal/observability"
	"github.com/hawker-io/hawker/internal/platform/cache"
	"github.com/hawker-io/hawker/internal/platform/db"
	"github.com/hawker-io/hawker/internal/search"
	"github.com/hawker-io/hawker/internal/shared"
	"github.com/hawker-io/hawker/internal/stats"
	"github.com/hawker-io/hawker/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)

	productsRepo := products.NewRepository(pool)
	categoriesRepo := categories.NewRepository(pool)
	inventoryRepo := inventory.NewRepository(pool)

	// Wire catalog and ledger both ways: products seed inventory records,
	// inventory checks subject existence through the catalog.
	var productsService *products.Service
	categoriesService := categories.NewService(categoriesRepo, counterFunc{&productsService})
	inventoryService := inventory.NewService(logger, inventoryRepo, resolverFunc{&productsService}, auditLogger)
	productsService = products.NewService(productsRepo, categoriesService, inventoryService)

	collectionsService := collections.NewService(collections.NewRepository(pool), productsService)

	searchCache := search.NewCache(redisClient, cfg.SearchCacheTTL)
	searchService := search.NewService(search.NewRepository(pool), searchCache)
	if err := searchCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("search cache subscribe", slog.Any("error", err))
	}
	statsService := stats.NewService(stats.NewRepository(pool))

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	// Catalog writes hint the worker to refresh the search index ahead of
	// the scheduled run.
	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		CategoriesHandler:  categories.NewHandler(logger, categoriesService, jobsClient),
		ProductsHandler:    products.NewHandler(logger, productsService, jobsClient),
		InventoryHandler:   inventory.NewHandler(logger, inventoryService),
		CollectionsHandler: collections.NewHandler(logger, collectionsService),
		SearchHandler:      search.NewHandler(logger, searchService),
		StatsHandler:       stats.NewHandler(logger, statsService),
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// counterFunc defers the catalog dependency until productsService exists;
// the categories service only consults it at request time.
type counterFunc struct {
	svc **products.Service
}

func (c counterFunc) CountByCategory(ctx context.Context) (map[uuid.UUID]int, error) {
	return (*c.svc).CountByCategory(ctx)
}

func (c counterFunc) HasProducts(ctx context.Context, categoryID uuid.UUID) (bool, error) {
	return (*c.svc).HasProducts(ctx, categoryID)
}

type resolverFunc struct {
	svc **products.Service
}

func (r resolverFunc) ResolveSubject(ctx context.Context, id uuid.UUID) (string, error) {
	return (*r.svc).ResolveSubject(ctx, id)
}
