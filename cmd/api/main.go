package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kaiub/surplus-backend/api/controllers"
	"github.com/kaiub/surplus-backend/api/routes"
	"github.com/kaiub/surplus-backend/internal/listings"
	"github.com/kaiub/surplus-backend/internal/matching"
	"github.com/kaiub/surplus-backend/internal/notify"
	"github.com/kaiub/surplus-backend/pkg/config"
	"github.com/kaiub/surplus-backend/pkg/db"
	"github.com/kaiub/surplus-backend/pkg/logger"
	"github.com/kaiub/surplus-backend/pkg/metrics"
	"github.com/kaiub/surplus-backend/pkg/migrate"
	"github.com/kaiub/surplus-backend/pkg/outbox"
	"github.com/kaiub/surplus-backend/pkg/redis"
)

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

	registry := prometheus.NewRegistry()

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	listingsService, err := listings.NewService(listings.NewRepository(dbClient.DB()), dbClient, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create listings service", err)
		os.Exit(1)
	}

	scorer, err := matching.NewRemoteScorer(cfg.Scoring, matching.NewHeuristicScorer(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create scorer", err)
		os.Exit(1)
	}
	matchingService, err := matching.NewService(
		matching.NewRepository(dbClient.DB()),
		scorer,
		metrics.NewMatchingMetrics(registry),
		logg,
		"api",
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create matching service", err)
		os.Exit(1)
	}

	messenger, err := notify.NewLogMessenger(logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create messenger", err)
		os.Exit(1)
	}
	notifyService, err := notify.NewService(
		notify.NewRepository(dbClient.DB()),
		messenger,
		metrics.NewNotifyMetrics(registry),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create notify service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			redisClient,
			map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
			registry,
			listingsService,
			matchingService,
			notifyService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
