package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/quoteengine-backend/internal/analytics/router"
	"github.com/angelmondragon/quoteengine-backend/internal/analytics/types"
	"github.com/angelmondragon/quoteengine-backend/internal/analytics/worker"
	"github.com/angelmondragon/quoteengine-backend/internal/analytics/writer"
	"github.com/angelmondragon/quoteengine-backend/pkg/bigquery"
	"github.com/angelmondragon/quoteengine-backend/pkg/config"
	"github.com/angelmondragon/quoteengine-backend/pkg/logger"
	"github.com/angelmondragon/quoteengine-backend/pkg/metrics"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/quoteengine-backend/pkg/pubsub"
	"github.com/angelmondragon/quoteengine-backend/pkg/redis"
)

const serviceKind = "analytics-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceKind})
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind
	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"serviceKind":  cfg.Service.Kind,
		"subscription": cfg.PubSub.AnalyticsSubscription,
	})

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "analytics worker failed", err)
		os.Exit(1)
	}
}

// run wires the subscriber to the BigQuery writer. Every client opened along
// the way is closed on return, newest first.
func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i].Close())
		}
	}()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	closers = append(closers, redisClient)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg, pubsub.AnalyticsSubscription(cfg.PubSub))
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}
	closers = append(closers, pubsubClient)

	bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, types.Tables(cfg.BigQuery), logg)
	if err != nil {
		return fmt.Errorf("bigquery: %w", err)
	}
	closers = append(closers, bqClient)

	subscription := pubsubClient.AnalyticsSubscription()
	if subscription == nil {
		return errors.New("analytics subscription not configured")
	}

	guard, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL, cfg.Eventing.IdempotencyLease)
	if err != nil {
		return fmt.Errorf("idempotency manager: %w", err)
	}
	rowWriter, err := writer.New(bqClient, writer.ConfigFromBigQuery(cfg.BigQuery))
	if err != nil {
		return fmt.Errorf("bigquery writer: %w", err)
	}
	routes, err := router.NewRouter(rowWriter, logg, nil)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}
	service, err := worker.NewService(subscription, routes, guard, rowWriter, logg)
	if err != nil {
		return fmt.Errorf("worker: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	service.WithMetrics(metrics.NewWorkerMetrics(registry))

	go func() {
		if err := metrics.Serve(ctx, net.JoinHostPort("", cfg.App.Port), registry); err != nil {
			logg.Error(ctx, "metrics server stopped", err)
		}
	}()

	logg.Info(ctx, "analytics worker ready")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
