package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/plasa/shopper-settlement/api/controllers"
	"github.com/plasa/shopper-settlement/api/routes"
	"github.com/plasa/shopper-settlement/internal/orders"
	"github.com/plasa/shopper-settlement/internal/orderstatus"
	"github.com/plasa/shopper-settlement/internal/revenue"
	"github.com/plasa/shopper-settlement/internal/settlement"
	"github.com/plasa/shopper-settlement/internal/sysconfig"
	"github.com/plasa/shopper-settlement/internal/wallets"
	"github.com/plasa/shopper-settlement/pkg/auth/session"
	"github.com/plasa/shopper-settlement/pkg/config"
	"github.com/plasa/shopper-settlement/pkg/db"
	"github.com/plasa/shopper-settlement/pkg/instance"
	"github.com/plasa/shopper-settlement/pkg/logger"
	"github.com/plasa/shopper-settlement/pkg/metrics"
	"github.com/plasa/shopper-settlement/pkg/migrate"
	"github.com/plasa/shopper-settlement/pkg/outbox"
	"github.com/plasa/shopper-settlement/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionChecker, err := session.NewChecker(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create session checker", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svcs, err := buildServices(cfg, logg, dbClient, metrics.NewSettlementMetrics(promRegistry))
	if err != nil {
		logg.Error(context.Background(), "failed to wire settlement services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			controllers.ReadinessChecks{DB: dbClient, Redis: redisClient},
			sessionChecker,
			redisClient,
			promRegistry,
			svcs.orderStatus,
			svcs.revenue,
			svcs.wallets,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serverErr <- server.ListenAndServe()
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server shutting down gracefully")
	}
}

type services struct {
	orderStatus orderstatus.Service
	revenue     revenue.Service
	wallets     wallets.Service
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, settlementMetrics *metrics.SettlementMetrics) (*services, error) {
	conn := dbClient.DB()

	fallbackPct, err := cfg.Settlement.CommissionPercentage()
	if err != nil {
		return nil, err
	}
	configReader, err := sysconfig.NewReader(conn, fallbackPct)
	if err != nil {
		return nil, err
	}

	ordersRepo := orders.NewRepository(conn)
	walletsRepo := wallets.NewRepository(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	revenueService, err := revenue.NewService(revenue.ServiceParams{
		Orders:  ordersRepo,
		Revenue: revenue.NewRepository(conn),
		Config:  configReader,
		Tx:      dbClient,
		Outbox:  emitter,
		Logger:  logg,
		Metrics: settlementMetrics,
	})
	if err != nil {
		return nil, err
	}

	engine, err := settlement.NewEngine(settlement.Params{
		Orders:  ordersRepo,
		Wallets: walletsRepo,
		Refunds: settlement.NewRefundStore(conn),
		Revenue: revenueService,
		Tx:      dbClient,
		Outbox:  emitter,
		Logger:  logg,
		Metrics: settlementMetrics,
	})
	if err != nil {
		return nil, err
	}

	orderStatusService, err := orderstatus.NewService(orderstatus.Params{
		Orders:           ordersRepo,
		Engine:           engine,
		Config:           configReader,
		Tx:               dbClient,
		Outbox:           emitter,
		Logger:           logg,
		BroadcastTimeout: cfg.Settlement.BroadcastTimeout,
	})
	if err != nil {
		return nil, err
	}

	walletService, err := wallets.NewService(walletsRepo)
	if err != nil {
		return nil, err
	}

	return &services{
		orderStatus: orderStatusService,
		revenue:     revenueService,
		wallets:     walletService,
	}, nil
}
