package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/merchantpulse/pricing-backend/api/routes"
	"github.com/merchantpulse/pricing-backend/internal/markets"
	"github.com/merchantpulse/pricing-backend/internal/pricing"
	"github.com/merchantpulse/pricing-backend/pkg/config"
	"github.com/merchantpulse/pricing-backend/pkg/db"
	"github.com/merchantpulse/pricing-backend/pkg/logger"
	"github.com/merchantpulse/pricing-backend/pkg/metrics"
	"github.com/merchantpulse/pricing-backend/pkg/migrate"
	"github.com/merchantpulse/pricing-backend/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
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
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pricingMetrics := metrics.NewPricingMetrics(registry)

	pricingRepo := pricing.NewRepository(dbClient.DB())
	resolutionCache := pricing.NewResolutionCache(redisClient, cfg.Pricing.ResolutionCacheTTL, pricingMetrics, logg)

	resolver, err := pricing.NewResolver(pricingRepo, resolutionCache, cfg.Pricing, logg, pricingMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create price resolver", err)
		os.Exit(1)
	}

	calculator, err := pricing.NewCalculator(pricingRepo, resolver, dbClient, logg, pricingMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create price calculator", err)
		os.Exit(1)
	}

	marketsService, err := markets.NewService(markets.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create markets service", err)
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, resolver, calculator, marketsService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
