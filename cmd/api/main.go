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

	"github.com/angelmondragon/wholesale-offers/api/controllers"
	"github.com/angelmondragon/wholesale-offers/api/routes"
	"github.com/angelmondragon/wholesale-offers/internal/offers"
	product "github.com/angelmondragon/wholesale-offers/internal/products"
	"github.com/angelmondragon/wholesale-offers/pkg/config"
	"github.com/angelmondragon/wholesale-offers/pkg/db"
	"github.com/angelmondragon/wholesale-offers/pkg/logger"
	"github.com/angelmondragon/wholesale-offers/pkg/metrics"
	"github.com/angelmondragon/wholesale-offers/pkg/migrate"
	"github.com/angelmondragon/wholesale-offers/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "offers-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "offers-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	pingers := map[string]controllers.Pinger{"db": dbClient}

	var badgeCache *offers.BadgeCache
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		pingers["redis"] = redisClient
		badgeCache = offers.NewBadgeCache(redisClient, cfg.Offers.CacheTTL, logg)
	} else {
		logg.Warn(ctx, "redis not configured, offer badge cache disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	catalog := product.NewGuardedLookup(product.NewLookup(dbClient), product.BreakerSettings{
		Timeout:      cfg.Offers.CatalogBreakerTimeout,
		MinRequests:  cfg.Offers.CatalogBreakerMinRequests,
		FailureRatio: cfg.Offers.CatalogBreakerFailureRatio,
	}, logg, metrics.NewBreakerMetrics(registry))

	offerService, err := offers.NewService(
		offers.NewRepository(dbClient),
		catalog,
		logg,
		offers.ServiceOptions{
			Cache:          badgeCache,
			Metrics:        metrics.NewOfferMetrics(registry),
			RoundingPlaces: cfg.Offers.RoundingPlaces,
			MaxCartLines:   cfg.Offers.MaxCartLines,
		},
	)
	if err != nil {
		logg.Error(ctx, "failed to create offer service", err)
		os.Exit(1)
	}

	addr := ":" + cfg.App.Port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			Offers:   offerService,
			Gatherer: registry,
			Pingers:  pingers,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(serverCtx, "graceful shutdown failed", err)
		}
	}
}
