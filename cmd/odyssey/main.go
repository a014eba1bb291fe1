package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-pos/cmd/odyssey/cli"
	"github.com/odyssey-erp/odyssey-pos/internal/app"
	"github.com/odyssey-erp/odyssey-pos/internal/ar"
	"github.com/odyssey-erp/odyssey-pos/internal/audit"
	"github.com/odyssey-erp/odyssey-pos/internal/auth"
	"github.com/odyssey-erp/odyssey-pos/internal/customers"
	"github.com/odyssey-erp/odyssey-pos/internal/expenses"
	"github.com/odyssey-erp/odyssey-pos/internal/observability"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
	"github.com/odyssey-erp/odyssey-pos/internal/products"
	"github.com/odyssey-erp/odyssey-pos/internal/rbac"
	"github.com/odyssey-erp/odyssey-pos/internal/reports"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/users"
	"github.com/odyssey-erp/odyssey-pos/jobs"
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

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		if err := runJobsCommand(ctx, cfg, os.Args[2:]); err != nil {
			logger.Error("jobs command", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)
	rbacMiddleware := rbac.Middleware{Logger: logger}
	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	loc := cfg.Location()

	tokenStore := auth.NewTokenStore(redisClient, cfg.AuthTokenTTL)
	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, tokenStore, auditLogger, logger)
	authService := auth.NewService(usersRepo, tokenStore, logger)
	authHandler := auth.NewHandler(logger, authService, cfg.LoginRateLimitPerMinute)

	productsService := products.NewService(products.NewRepository(pool), auditLogger, reportCache, logger)
	customersService := customers.NewService(customers.NewRepository(pool), auditLogger, reportCache, logger)
	ledgerService := ar.NewService(ar.NewRepository(pool), auditLogger, reportCache, logger,
		ar.WithLocation(loc),
		ar.WithIdempotency(idempotencyStore),
		ar.WithMetrics(metrics),
	)
	expensesService := expenses.NewService(expenses.NewRepository(pool), auditLogger, reportCache, logger, loc)
	reportsService := reports.NewService(reports.NewRepository(pool), reportCache, loc)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Metrics:          metrics,
		AuthHandler:      authHandler,
		UsersHandler:     users.NewHandler(logger, usersService, rbacMiddleware),
		ProductsHandler:  products.NewHandler(logger, productsService, rbacMiddleware),
		CustomersHandler: customers.NewHandler(logger, customersService, rbacMiddleware),
		LedgerHandler:    ar.NewHandler(logger, ledgerService),
		ExpensesHandler:  expenses.NewHandler(logger, expensesService, rbacMiddleware),
		ReportsHandler:   reports.NewHandler(logger, reportsService),
		AuditHandler:     audit.NewHandler(logger, audit.NewService(audit.NewRepository(pool)), rbacMiddleware, loc),
		JobHandler:       jobs.NewHandler(inspector, jobClient, rbacMiddleware, logger),
		Authenticate:     authHandler.Middleware(),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("tz", loc.String()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runJobsCommand(ctx context.Context, cfg *app.Config, args []string) error {
	fs := flag.NewFlagSet("jobs", flag.ContinueOnError)
	repair := fs.Bool("repair", false, "rewrite drifted customer balances (reconcile only)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: odyssey jobs [-repair] trigger <job> | stats")
	}

	jobsCLI := cli.NewJobsCLI(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer jobsCLI.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	switch fs.Arg(0) {
	case "trigger":
		if fs.NArg() < 2 {
			return errors.New("usage: odyssey jobs [-repair] trigger <job>")
		}
		info, err := jobsCLI.Trigger(ctx, fs.Arg(1), *repair)
		if err != nil {
			return err
		}
		return enc.Encode(map[string]string{"taskId": info.ID, "queue": info.Queue, "type": info.Type})
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			return err
		}
		return enc.Encode(stats)
	default:
		return fmt.Errorf("unknown jobs command %q", fs.Arg(0))
	}
}
