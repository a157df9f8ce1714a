package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/tavolo-pos/tavolo-pos/internal/app"
	"github.com/tavolo-pos/tavolo-pos/internal/billing"
	"github.com/tavolo-pos/tavolo-pos/internal/catalog"
	"github.com/tavolo-pos/tavolo-pos/internal/dashboard"
	jobmetrics "github.com/tavolo-pos/tavolo-pos/internal/jobs"
	"github.com/tavolo-pos/tavolo-pos/internal/platform/cache"
	"github.com/tavolo-pos/tavolo-pos/internal/platform/db"
	"github.com/tavolo-pos/tavolo-pos/internal/shared"
	"github.com/tavolo-pos/tavolo-pos/internal/stock"
	"github.com/tavolo-pos/tavolo-pos/internal/users"
	"github.com/tavolo-pos/tavolo-pos/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
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
	idempotencyStore := shared.NewIdempotencyStore(pool)

	stockService := stock.NewService(stock.NewRepository(pool), auditLogger)
	catalogService := catalog.NewService(catalog.NewRepository(pool))
	usersService := users.NewService(users.NewRepository(pool))

	statsCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	billingService := billing.NewService(billing.NewRepository(pool), catalogService, usersService, billing.ServiceOptions{Cache: statsCache})
	dashboardService := dashboard.NewService(billingService, statsCache)

	metrics := jobmetrics.NewMetrics(nil)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLowStockScan, Handler: jobs.NewLowStockScanHandler(stockService, auditLogger, metrics, logger)},
			{Type: jobs.TaskStatsWarmup, Handler: jobs.NewStatsWarmupHandler(dashboardService, metrics, logger)},
			{Type: jobs.TaskIdempotencyCleanup, Handler: jobs.NewIdempotencyCleanupHandler(idempotencyStore, cfg.IdempotencyRetention, metrics, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 1 * * *", Task: jobs.NewLowStockScanTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 5 * * *", Task: jobs.NewStatsWarmupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "15 2 * * *", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
