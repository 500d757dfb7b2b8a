package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/plasa/shopper-settlement/internal/cron"
	"github.com/plasa/shopper-settlement/internal/orders"
	"github.com/plasa/shopper-settlement/internal/revenue"
	"github.com/plasa/shopper-settlement/internal/sysconfig"
	"github.com/plasa/shopper-settlement/pkg/config"
	"github.com/plasa/shopper-settlement/pkg/db"
	"github.com/plasa/shopper-settlement/pkg/instance"
	"github.com/plasa/shopper-settlement/pkg/logger"
	"github.com/plasa/shopper-settlement/pkg/metrics"
	"github.com/plasa/shopper-settlement/pkg/migrate"
	"github.com/plasa/shopper-settlement/pkg/outbox"
	"github.com/plasa/shopper-settlement/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	metricsCollector := metrics.NewCronMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, cfg.Cron.LockKey, cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	jobs, err := buildJobs(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Jobs:       jobs,
		Lock:       lock,
		Metrics:    metricsCollector,
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildJobs(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) ([]cron.Job, error) {
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
	outboxRepo := outbox.NewRepository(conn)
	revenueService, err := revenue.NewService(revenue.ServiceParams{
		Orders:  ordersRepo,
		Revenue: revenue.NewRepository(conn),
		Config:  configReader,
		Tx:      dbClient,
		Outbox:  outbox.NewService(outboxRepo, logg),
		Logger:  logg,
		Metrics: metrics.NewSettlementMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		return nil, err
	}

	reconcile, err := cron.NewRevenueReconcileJob(cron.RevenueReconcileJobParams{
		Logger:   logg,
		Orders:   ordersRepo,
		Revenue:  revenueService,
		Config:   configReader,
		Limit:    cfg.Cron.ReconcileBatchSize,
		Lookback: cfg.Cron.ReconcileLookback,
	})
	if err != nil {
		return nil, err
	}

	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:      logg,
		Outbox:      outboxRepo,
		Retention:   time.Duration(cfg.Outbox.RetentionDays) * 24 * time.Hour,
		MinAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}

	return []cron.Job{reconcile, retention}, nil
}
