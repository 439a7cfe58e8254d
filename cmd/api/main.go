package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/octobees/bizdirectory/api/internal/auth"
	"github.com/octobees/bizdirectory/api/internal/cache"
	"github.com/octobees/bizdirectory/api/internal/config"
	"github.com/octobees/bizdirectory/api/internal/database"
	"github.com/octobees/bizdirectory/api/internal/handler"
	"github.com/octobees/bizdirectory/api/internal/logging"
	"github.com/octobees/bizdirectory/api/internal/metrics"
	middlewarepkg "github.com/octobees/bizdirectory/api/internal/middleware"
	"github.com/octobees/bizdirectory/api/internal/repository"
	"github.com/octobees/bizdirectory/api/internal/router"
	"github.com/octobees/bizdirectory/api/internal/service"
	"github.com/octobees/bizdirectory/api/internal/service/importer"
	"github.com/octobees/bizdirectory/api/internal/source"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// the logger is configured from cfg, so fall back to a bare one here
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		zap.NewExample().Fatal("failed to build logger", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal("failed to apply schema", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	businessCache := cache.New(
		cache.WithMetrics(appMetrics),
		cache.WithLogger(logger.Named("cache")),
	)
	businessCache.Start(cfg.Cache.SweepInterval)
	defer businessCache.Stop()

	businessesRepo := repository.NewPGXBusinessesRepository(pool)
	categoriesRepo := repository.NewPGXCategoriesRepository(pool)

	businessesService := service.NewBusinessesService(businessesRepo, categoriesRepo, businessCache, service.CacheTTLs{
		Featured: cfg.Cache.FeaturedTTL,
		Random:   cfg.Cache.RandomTTL,
	}, logger.Named("businesses"))

	bulkImporter := importer.New(businessesRepo,
		importer.WithLogger(logger.Named("importer")),
		importer.WithMetrics(appMetrics),
		importer.WithInvalidator(businessesService),
		importer.WithDefaultBatchSize(cfg.Import.BatchSize),
		importer.WithDefaultCountry(cfg.Import.DefaultCountryCode),
	)

	var fetcher source.Fetcher
	if cfg.DatasetBaseURL != "" {
		client, err := source.NewClient(nil, cfg.DatasetBaseURL, cfg.Import.MaxUploadBytes)
		if err != nil {
			logger.Fatal("failed to configure dataset source", zap.Error(err))
		}
		fetcher = client
	} else {
		logger.Info("DATASET_BASE_URL not set, remote imports disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(logger.Named("http"), appMetrics))
	e.Use(echoMiddleware.Recover())
	if cfg.Import.MaxUploadBytes > 0 {
		// multipart framing adds a little on top of the file itself
		e.Use(echoMiddleware.BodyLimit(formatBodyLimit(cfg.Import.MaxUploadBytes + 1<<20)))
	}

	router.Register(e, cfg, auth.NewVerifier(cfg.JWTSecret, 30*time.Second), registry, router.Handlers{
		Businesses:      handler.NewBusinessesHandler(businessesService),
		AdminImport:     handler.NewAdminImportHandler(bulkImporter, fetcher, cfg.Import.MaxUploadBytes),
		AdminBusinesses: handler.NewAdminBusinessHandler(businessesService),
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("port", cfg.Port))
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func formatBodyLimit(n int64) string {
	return strconv.FormatInt(n/1024, 10) + "K"
}
