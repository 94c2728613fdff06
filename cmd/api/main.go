package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ecomops/logiscan-backend/api/routes"
	"github.com/ecomops/logiscan-backend/internal/auth"
	"github.com/ecomops/logiscan-backend/internal/bridge"
	"github.com/ecomops/logiscan-backend/internal/manifests"
	"github.com/ecomops/logiscan-backend/internal/provisioning"
	"github.com/ecomops/logiscan-backend/internal/scans"
	"github.com/ecomops/logiscan-backend/internal/users"
	"github.com/ecomops/logiscan-backend/internal/warehouses"
	"github.com/ecomops/logiscan-backend/pkg/config"
	"github.com/ecomops/logiscan-backend/pkg/db"
	"github.com/ecomops/logiscan-backend/pkg/logger"
	"github.com/ecomops/logiscan-backend/pkg/metrics"
	"github.com/ecomops/logiscan-backend/pkg/migrate"
	"github.com/ecomops/logiscan-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

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
	ingestMetrics := metrics.NewIngestMetrics(registry)
	bridgeMetrics := metrics.NewBridgeMetrics(registry)

	userRepo := users.NewRepository(dbClient.DB())
	warehouseRepo := warehouses.NewRepository(dbClient.DB())
	manifestRepo := manifests.NewRepository(dbClient.DB())
	scanRepo := scans.NewRepository(dbClient.DB())
	bridgeRepo := bridge.NewRepository(dbClient.DB())
	tenantRepo := provisioning.NewTenantRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:      userRepo,
		TokenStore:    redisClient,
		RateLimiter:   redisClient,
		JWTConfig:     cfg.JWT,
		RateLimitConf: cfg.AuthRateLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	manifestService, err := manifests.NewService(manifestRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create manifest service", err)
		os.Exit(1)
	}

	warehouseService, err := warehouses.NewService(warehouseRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create warehouse service", err)
		os.Exit(1)
	}

	provisioningService, err := provisioning.NewService(provisioning.ServiceParams{
		Tenants:     tenantRepo,
		Warehouses:  warehouseRepo,
		Users:       userRepo,
		Tx:          dbClient,
		PasswordCfg: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create provisioning service", err)
		os.Exit(1)
	}

	bridgeService, err := bridge.NewService(bridge.ServiceParams{
		Config:  cfg.Bridge,
		Logger:  logg,
		Repo:    bridgeRepo,
		Tx:      dbClient,
		Metrics: bridgeMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create bridge service", err)
		os.Exit(1)
	}
	dispatcher := bridge.NewDispatcher(logg, bridgeService, cfg.Bridge.QueueDepth)

	scanService, err := scans.NewService(scans.ServiceParams{
		Repo:         scanRepo,
		ManifestRepo: manifestRepo,
		ManifestSvc:  manifestService,
		Tx:           dbClient,
		Notifier:     dispatcher,
		Metrics:      ingestMetrics,
		MaxBatchSize: cfg.Ingest.MaxBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scan service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dispatcher.Start(ctx)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:              cfg,
			Logger:              logg,
			DB:                  dbClient,
			Redis:               redisClient,
			Registry:            registry,
			AuthService:         authService,
			UserRepo:            userRepo,
			ManifestService:     manifestService,
			ScanService:         scanService,
			WarehouseService:    warehouseService,
			ProvisioningService: provisioningService,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "error during server shutdown", err)
		}
		dispatcher.Wait()
	}

	logg.Info(logCtx, "api server stopped")
}
