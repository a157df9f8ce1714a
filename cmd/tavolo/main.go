package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/tavolo-pos/tavolo-pos/internal/app"
	"github.com/tavolo-pos/tavolo-pos/internal/auth"
	"github.com/tavolo-pos/tavolo-pos/internal/billing"
	"github.com/tavolo-pos/tavolo-pos/internal/cashdrawer"
	"github.com/tavolo-pos/tavolo-pos/internal/catalog"
	"github.com/tavolo-pos/tavolo-pos/internal/dashboard"
	"github.com/tavolo-pos/tavolo-pos/internal/observability"
	"github.com/tavolo-pos/tavolo-pos/internal/platform/cache"
	"github.com/tavolo-pos/tavolo-pos/internal/platform/db"
	"github.com/tavolo-pos/tavolo-pos/internal/rbac"
	"github.com/tavolo-pos/tavolo-pos/internal/shared"
	"github.com/tavolo-pos/tavolo-pos/internal/stock"
	"github.com/tavolo-pos/tavolo-pos/internal/users"
	"github.com/tavolo-pos/tavolo-pos/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	rbacService := rbac.NewService(rbac.NewRepository(dbpool))
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}
	rbacHandler := rbac.NewHandler(logger, rbacService, rbacMiddleware)

	authService := auth.NewService(auth.NewRepository(dbpool))
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	usersService := users.NewService(users.NewRepository(dbpool))
	usersHandler := users.NewHandler(logger, usersService, auditLogger, rbacMiddleware)

	catalogService := catalog.NewService(catalog.NewRepository(dbpool))
	catalogHandler := catalog.NewHandler(logger, catalogService, rbacMiddleware)

	stockService := stock.NewService(stock.NewRepository(dbpool), auditLogger)
	stockHandler := stock.NewHandler(logger, stockService, rbacMiddleware)

	cashService := cashdrawer.NewService(cashdrawer.NewRepository(dbpool), auditLogger)
	cashHandler := cashdrawer.NewHandler(logger, cashService, rbacMiddleware)

	metrics := observability.NewMetrics()
	statsCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)

	billingService := billing.NewService(billing.NewRepository(dbpool), catalogService, usersService, billing.ServiceOptions{
		Cache:       statsCache,
		Metrics:     metrics,
		Audit:       auditLogger,
		Idempotency: idempotencyStore,
	})
	billingHandler := billing.NewHandler(logger, billingService, rbacMiddleware)

	dashboardService := dashboard.NewService(billingService, statsCache)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, rbacMiddleware)
	if err := statsCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, rbacMiddleware.Require(rbac.ModulePermissions, rbac.ActionEdit), logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AuthHandler:      authHandler,
		CatalogHandler:   catalogHandler,
		StockHandler:     stockHandler,
		CashHandler:      cashHandler,
		BillingHandler:   billingHandler,
		UsersHandler:     usersHandler,
		RBACHandler:      rbacHandler,
		DashboardHandler: dashboardHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
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
