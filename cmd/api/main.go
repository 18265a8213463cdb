package main

// @title Urban Context API
// @version 1.0.0
// @description Геоконтекст точки: статические слои города, OSM-метрики окружения и дневная погода.

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/urban-context/docs"
	"github.com/urban-context/internal/config"
	httpDelivery "github.com/urban-context/internal/delivery/http"
	"github.com/urban-context/internal/delivery/http/handler"
	"github.com/urban-context/internal/infrastructure/openmeteo"
	"github.com/urban-context/internal/infrastructure/overpass"
	"github.com/urban-context/internal/pkg/logger"
	"github.com/urban-context/internal/pkg/metrics"
	"github.com/urban-context/internal/repository/cache"
	"github.com/urban-context/internal/repository/postgres"
	"github.com/urban-context/internal/usecase"
	"go.uber.org/zap"
)

const dbStatsInterval = 15 * time.Second

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Urban Context Service")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.Duration("osm_ttl", cfg.Cache.OSMTTL),
		zap.Duration("weather_ttl", cfg.Cache.WeatherTTL),
	)

	// 3. Connect to PostgreSQL (статические слои и точечные кеши)
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}

	// 4. Connect to Redis (кеш метаданных слоёв)
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	// 5. Repositories
	tx := postgres.NewTransactor(db)
	featureRepo := postgres.NewFeatureRepository(db)
	statsRepo := postgres.NewStatsRepository(db)
	osmRepo := postgres.NewOSMMetricsRepository(db)
	weatherRepo := postgres.NewWeatherCacheRepository(db)
	cacheRepo := cache.NewCacheRepository(redisClient)

	// 6. Upstream clients
	overpassClient := overpass.NewClient(&cfg.Overpass, log)
	openMeteoClient := openmeteo.NewClient(&cfg.OpenMeteo, log)

	// 7. Use cases
	featureUC := usecase.NewFeatureUseCase(featureRepo, &cfg.Query, log)
	statsUC := usecase.NewStatsUseCase(statsRepo, cacheRepo, cfg.Cache.MetadataTTL, cfg.Enrich.MaxRadiusM, log)
	osmUC := usecase.NewOSMMetricsUseCase(osmRepo, tx, usecase.NewOSMAggregator(overpassClient, log), &cfg.Cache, log)
	weatherUC := usecase.NewWeatherUseCase(weatherRepo, tx, openMeteoClient, &cfg.Cache, log)
	enrichUC := usecase.NewEnrichmentUseCase(featureUC, osmUC, weatherUC, cfg, log)

	log.Info("Use cases initialized")

	// 8. HTTP handlers and server
	datasetHandler := handler.NewDatasetHandler(featureUC, statsUC, log)
	enrichHandler := handler.NewEnrichHandler(enrichUC, osmUC, weatherUC, cfg.Enrich, log)
	healthHandler := handler.NewHealthHandler(map[string]handler.HealthChecker{
		"postgres": db,
		"redis":    redisClient,
	}, log)

	server := httpDelivery.NewServer(cfg, log, datasetHandler, enrichHandler, healthHandler)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go reportDBStats(ctx, db)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 9. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Failed to close PostgreSQL", zap.Error(err))
	}
	if err := redisClient.Close(); err != nil {
		log.Error("Failed to close Redis", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}

// reportDBStats периодически выгружает состояние пула соединений в метрики
func reportDBStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(dbStatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Stats())
		}
	}
}
