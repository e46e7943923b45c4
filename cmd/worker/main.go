package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	matchingsvc "github.com/kaiub/surplus-backend/internal/matching"
	notifysvc "github.com/kaiub/surplus-backend/internal/notify"
	"github.com/kaiub/surplus-backend/pkg/config"
	"github.com/kaiub/surplus-backend/pkg/db"
	"github.com/kaiub/surplus-backend/pkg/instance"
	"github.com/kaiub/surplus-backend/pkg/logger"
	"github.com/kaiub/surplus-backend/pkg/metrics"
	"github.com/kaiub/surplus-backend/pkg/migrate"
	"github.com/kaiub/surplus-backend/pkg/outbox/idempotency"
	"github.com/kaiub/surplus-backend/pkg/pubsub"
	"github.com/kaiub/surplus-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	idempotencyManager, err := idempotency.NewManager(redisClient, cfg.Eventing.IdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency manager", err)
		os.Exit(1)
	}

	scorer, err := matchingsvc.NewRemoteScorer(cfg.Scoring, matchingsvc.NewHeuristicScorer(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create scorer", err)
		os.Exit(1)
	}
	matchingService, err := matchingsvc.NewService(
		matchingsvc.NewRepository(dbClient.DB()),
		scorer,
		metrics.NewMatchingMetrics(nil),
		logg,
		"event",
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create matching service", err)
		os.Exit(1)
	}
	matchingConsumer, err := matchingsvc.NewConsumer(matchingService, pubsubClient.MatchingSubscription(), idempotencyManager, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create matching consumer", err)
		os.Exit(1)
	}

	messenger, err := notifysvc.NewLogMessenger(logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create messenger", err)
		os.Exit(1)
	}
	notifyService, err := notifysvc.NewService(
		notifysvc.NewRepository(dbClient.DB()),
		messenger,
		metrics.NewNotifyMetrics(nil),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create notify service", err)
		os.Exit(1)
	}
	notifyConsumer, err := notifysvc.NewConsumer(notifyService, pubsubClient.NotifySubscription(), idempotencyManager, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notify consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:           cfg,
		Logger:           logg,
		DB:               dbClient,
		Redis:            redisClient,
		PubSub:           pubsubClient,
		MatchingConsumer: matchingConsumer,
		NotifyConsumer:   notifyConsumer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "instance": instance.GetID()})
	logg.Info(ctx, "starting worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}
