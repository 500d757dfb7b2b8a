package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/plasa/shopper-settlement/internal/analytics"
	"github.com/plasa/shopper-settlement/internal/analytics/worker"
	"github.com/plasa/shopper-settlement/internal/analytics/writer"
	"github.com/plasa/shopper-settlement/pkg/bigquery"
	"github.com/plasa/shopper-settlement/pkg/config"
	"github.com/plasa/shopper-settlement/pkg/instance"
	"github.com/plasa/shopper-settlement/pkg/logger"
	"github.com/plasa/shopper-settlement/pkg/outbox/idempotency"
	"github.com/plasa/shopper-settlement/pkg/outbox/registry"
	"github.com/plasa/shopper-settlement/pkg/pubsub"
	"github.com/plasa/shopper-settlement/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "analytics-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "analytics-worker"

	logg = logger.New(logger.Options{
		ServiceName: "analytics-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, pubsub.AnalyticsRequirements(cfg.PubSub), logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	bqClient, err := bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg)
	requireResource(ctx, logg, "bigquery client", err)
	defer func() {
		if err := bqClient.Close(); err != nil {
			logg.Error(ctx, "failed to close bigquery client", err)
		}
	}()

	subscription := pubsubClient.Subscription(cfg.PubSub.AnalyticsSubscription)
	if subscription == nil {
		requireResource(ctx, logg, "analytics subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	analyticsWriter, err := writer.New(bqClient, writer.Config{
		SettlementTable: cfg.BigQuery.SettlementEventsTable,
	})
	requireResource(ctx, logg, "analytics bigquery writer", err)
	defer func() {
		if err := analyticsWriter.Flush(context.Background()); err != nil {
			logg.Error(ctx, "failed to flush buffered settlement rows", err)
		}
	}()

	events, err := registry.NewEventRegistry(cfg.PubSub)
	requireResource(ctx, logg, "event registry", err)

	sink, err := analytics.NewSink(analyticsWriter, registry.NewSettlementDecoders(events))
	requireResource(ctx, logg, "settlement sink", err)

	service, err := worker.NewService(subscription, sink, manager, logg)
	requireResource(ctx, logg, "analytics worker service", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(runCtx, "analytics worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "analytics worker failed", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "analytics worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
