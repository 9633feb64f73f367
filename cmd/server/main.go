package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/mux"

	"github.com/storelab/replenish/internal/api"
	"github.com/storelab/replenish/internal/cache"
	"github.com/storelab/replenish/internal/collector"
	"github.com/storelab/replenish/internal/config"
	"github.com/storelab/replenish/internal/engine"
	"github.com/storelab/replenish/internal/repository"
	"github.com/storelab/replenish/internal/repository/postgres"
	"github.com/storelab/replenish/internal/service"
	"github.com/storelab/replenish/internal/storage"
	"github.com/storelab/replenish/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize repositories
	salesRepo := postgres.NewSalesRepository(db)
	itemRepo := postgres.NewItemRepository(db)
	promotionRepo := postgres.NewPromotionRepository(db)
	predictionRepo := postgres.NewPredictionRepository(db)
	outcomeRepo := postgres.NewOutcomeRepository(db)
	calibrationRepo := postgres.NewCalibrationRepository(db)

	// Inventory snapshot cache, noop when redis is disabled or unreachable
	snapshots, err := cache.NewSnapshotCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("snapshot cache unavailable, running without cache")
		snapshots = cache.NewNoopSnapshotCache()
	}

	// Order sheet archive is optional
	var archive storage.ObjectStorage
	if cfg.Storage.Enabled {
		archive, err = storage.NewMinioClient(cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to initialize object storage: %v", err)
		}
	}

	// Engine parameters; calibratable fields are reloaded from the
	// database at the start of every run.
	params := engine.DefaultParams()
	params.SimplifiedPending = cfg.Engine.SimplifiedPending

	// Initialize services
	forecastService := service.NewForecastService(
		itemRepo, salesRepo, promotionRepo, predictionRepo, calibrationRepo,
		snapshots, archive, params, cfg.Engine.Workers,
	)
	calibrationService := service.NewCalibrationService(
		itemRepo, salesRepo, predictionRepo, outcomeRepo, calibrationRepo, params,
	)
	reportService := service.NewReportService(predictionRepo, outcomeRepo, calibrationRepo)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		Report:      reportService,
		Forecast:    forecastService,
		Calibration: calibrationService,
	}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Collector webhook listens on its own port when Drive credentials
	// are configured.
	collectorSrv := startCollector(cfg, salesRepo, itemRepo, promotionRepo, snapshots)

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if collectorSrv != nil {
		if err := collectorSrv.Shutdown(ctx); err != nil {
			logger.Log.Error().Err(err).Msg("Collector forced to shutdown")
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

// startCollector wires the Drive ingest webhook when credentials are
// configured. Returns nil when the collector is disabled.
func startCollector(
	cfg *config.Config,
	sales repository.SalesRepository,
	items repository.ItemRepository,
	promotions repository.PromotionRepository,
	snapshots cache.SnapshotCache,
) *http.Server {
	if cfg.Collector.CredentialsFile == "" {
		logger.Log.Info().Msg("Collector disabled, no Drive credentials configured")
		return nil
	}

	creds, err := os.ReadFile(cfg.Collector.CredentialsFile)
	if err != nil {
		log.Fatalf("Failed to read Drive credentials: %v", err)
	}
	driveService, err := collector.NewDriveService(creds)
	if err != nil {
		log.Fatalf("Failed to initialize Drive service: %v", err)
	}

	ingestService := collector.NewIngestService(driveService, sales, items, promotions, snapshots)
	handler := collector.NewHandler(driveService, ingestService, cfg.Collector.FolderID)

	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Collector.WebhookPort,
		Handler: r,
	}
	go func() {
		logger.Log.Info().Str("port", cfg.Collector.WebhookPort).Msg("Starting collector webhook")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start collector webhook")
		}
	}()

	// Poll the folder on a fixed interval as a fallback for missed
	// webhook notifications.
	if cfg.Collector.FolderID != "" && cfg.Collector.PollSeconds > 0 {
		go func() {
			ticker := time.NewTicker(time.Duration(cfg.Collector.PollSeconds) * time.Second)
			defer ticker.Stop()
			for range ticker.C {
				if err := ingestService.SyncFolder(context.Background(), cfg.Collector.FolderID); err != nil {
					logger.Log.Error().Err(err).Msg("Folder sync failed")
				}
			}
		}()
	}
	return srv
}
