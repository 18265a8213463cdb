package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/urban-context/internal/usecase/dto"
	"go.uber.org/zap"
)

// HealthChecker - зависимость с проверкой доступности
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler - состояние БД и Redis
type HealthHandler struct {
	checks map[string]HealthChecker
	logger *zap.Logger
}

// NewHealthHandler - создание нового HealthHandler
func NewHealthHandler(checks map[string]HealthChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{checks: checks, logger: logger}
}

// Health godoc
// @Summary Проверка состояния сервиса
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /api/v1/health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{Status: "healthy", Services: make(map[string]string, len(h.checks))}
	for name, check := range h.checks {
		if err := check.Health(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("service", name), zap.Error(err))
			resp.Services[name] = "unhealthy"
			resp.Status = "degraded"
			continue
		}
		resp.Services[name] = "healthy"
	}

	if resp.Status != "healthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
