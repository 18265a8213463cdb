package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urban-context/internal/config"
	"github.com/urban-context/internal/infrastructure/openmeteo"
	"github.com/urban-context/internal/infrastructure/overpass"
	"github.com/urban-context/internal/pkg/logger"
	"github.com/urban-context/internal/repository/cache"
	"github.com/urban-context/internal/repository/postgres"
	redisRepo "github.com/urban-context/internal/repository/redis"
	"github.com/urban-context/internal/usecase"
	"github.com/urban-context/internal/worker"
	"github.com/urban-context/internal/worker/prefetch"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Context Prefetch Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("batch_size", cfg.Worker.BatchSize),
		zap.Int("max_retries", cfg.Worker.MaxRetries))

	// 3. Connect to PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	// 4. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 5. Repositories and use cases
	tx := postgres.NewTransactor(db)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log, cfg.Worker.StreamReadTimeout)

	osmUC := usecase.NewOSMMetricsUseCase(
		postgres.NewOSMMetricsRepository(db),
		tx,
		usecase.NewOSMAggregator(overpass.NewClient(&cfg.Overpass, log), log),
		&cfg.Cache,
		log,
	)
	weatherUC := usecase.NewWeatherUseCase(
		postgres.NewWeatherCacheRepository(db),
		tx,
		openmeteo.NewClient(&cfg.OpenMeteo, log),
		&cfg.Cache,
		log,
	)

	// 6. Workers
	workerManager := worker.NewWorkerManager(log, worker.DefaultShutdownTimeout)
	workerManager.Register(prefetch.NewWorker(streamRepo, osmUC, weatherUC, cfg, log))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	cancel()

	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Worker shutdown complete")
}
