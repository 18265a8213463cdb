package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"github.com/urban-context/internal/config"
	"github.com/urban-context/internal/delivery/http/handler"
	"github.com/urban-context/internal/delivery/http/middleware"
	"github.com/urban-context/internal/pkg/errors"
	"github.com/urban-context/internal/pkg/logger"
	"github.com/urban-context/internal/pkg/metrics"
	"github.com/urban-context/internal/pkg/utils"
	"go.uber.org/zap"
)

// Server - HTTP сервер на основе Fiber
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	datasetHandler *handler.DatasetHandler
	enrichHandler  *handler.EnrichHandler
	healthHandler  *handler.HealthHandler
}

// NewServer - создание нового HTTP сервера
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	datasetHandler *handler.DatasetHandler,
	enrichHandler *handler.EnrichHandler,
	healthHandler *handler.HealthHandler,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Urban Context Service",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:            app,
		config:         cfg,
		logger:         logger,
		datasetHandler: datasetHandler,
		enrichHandler:  enrichHandler,
		healthHandler:  healthHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// App - экземпляр fiber для тестов
func (s *Server) App() *fiber.App {
	return s.app
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.RequestLogger(s.logger))
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(metrics.Middleware())
	s.app.Use(middleware.CORS())
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)
	s.app.Get("/metrics", metrics.Handler())

	api := s.app.Group("/api/v1")

	api.Get("/health", s.healthHandler.Health)

	// Static layers
	api.Get("/datasets", s.datasetHandler.List)
	api.Get("/datasets/:name", s.datasetHandler.Features)
	api.Get("/datasets/:name/metadata", s.datasetHandler.Metadata)
	api.Get("/context", s.datasetHandler.Context)

	// Point pipelines
	api.Get("/enrich/point", s.enrichHandler.EnrichPoint)
	api.Get("/osm/metrics", s.enrichHandler.OSMMetrics)
	api.Get("/weather/daily", s.enrichHandler.WeatherDaily)
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - ошибки fiber (404 маршрута, 405) в формате ErrorResponse
func customErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if fe, ok := err.(*fiber.Error); ok {
			return c.Status(fe.Code).JSON(utils.ErrorResponse{
				Error: errors.New("HTTP_ERROR", fe.Message, fe.Code),
			})
		}

		logger.FromContext(c.UserContext(), log).Error("Unhandled HTTP error",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return utils.SendError(c, err)
	}
}
