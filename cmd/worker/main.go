package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hawker-io/hawker/internal/app"
	"github.com/hawker-io/hawker/internal/inventory"
	jobmetrics "github.com/hawker-io/hawker/internal/jobs"
	"github.com/hawker-io/hawker/internal/platform/cache"
	"github.com/hawker-io/hawker/internal/platform/db"
	"github.com/hawker-io/hawker/internal/search"
	"github.com/hawker-io/hawker/internal/shared"
	"github.com/hawker-io/hawker/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	searchCache := search.NewCache(redisClient, cfg.SearchCacheTTL)
	searchService := search.NewService(search.NewRepository(pool), searchCache)

	auditLogger := shared.NewAuditLogger(pool)
	inventoryService := inventory.NewService(logger, inventory.NewRepository(pool), nil, auditLogger)

	metrics := jobmetrics.NewMetrics(nil)

	lowStockTask, err := jobs.NewLowStockScanTask(time.Now())
	if err != nil {
		logger.Error("build low stock task", slog.Any("error", err))
		os.Exit(1)
	}
	reindexTask, err := jobs.NewSearchReindexTask(false)
	if err != nil {
		logger.Error("build reindex task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		Logger:    logger,
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSearchReindex, Handler: jobs.NewSearchReindexHandler(logger, searchService, metrics)},
			{Type: jobs.TaskLowStockScan, Handler: jobs.NewLowStockScanHandler(logger, inventoryService, auditLogger, metrics)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/15 * * * *", Task: reindexTask},
			{Spec: "0 6 * * *", Task: lowStockTask},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker shut down")
}
