package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/urban-context/internal/config"
	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/pkg/errors"
	"github.com/urban-context/internal/pkg/logger"
	"github.com/urban-context/internal/pkg/utils"
	"github.com/urban-context/internal/pkg/validator"
	"github.com/urban-context/internal/usecase"
	"github.com/urban-context/internal/usecase/dto"
	"go.uber.org/zap"
)

// EnrichHandler - контекст точки и отдельные конвейеры кеша
type EnrichHandler struct {
	enrichUC  EnrichmentService
	osmUC     usecase.OSMMetricsProvider
	weatherUC usecase.WeatherProvider
	cfg       config.EnrichConfig
	logger    *zap.Logger
}

// NewEnrichHandler - создание нового EnrichHandler
func NewEnrichHandler(
	enrichUC EnrichmentService,
	osmUC usecase.OSMMetricsProvider,
	weatherUC usecase.WeatherProvider,
	cfg config.EnrichConfig,
	logger *zap.Logger,
) *EnrichHandler {
	return &EnrichHandler{
		enrichUC:  enrichUC,
		osmUC:     osmUC,
		weatherUC: weatherUC,
		cfg:       cfg,
		logger:    logger,
	}
}

// EnrichPoint godoc
// @Summary Контекст точки: OSM метрики, погода, геометрии слоёв
// @Description Ошибки отдельных секций возвращаются в поле errors, ошибки валидации - 400.
// @Tags Enrich
// @Produce json
// @Param lat query number true "Широта"
// @Param lon query number true "Долгота"
// @Param radius_m query number false "Радиус в метрах (не больше ENRICH_MAX_RADIUS_M)" default(300)
// @Param start query string false "Начало диапазона погоды YYYY-MM-DD"
// @Param end query string false "Конец диапазона погоды YYYY-MM-DD"
// @Param include_weather query bool false "Погода" default(true)
// @Param include_osm query bool false "OSM метрики" default(true)
// @Param osm_refresh query bool false "Пересчитать OSM метрики" default(false)
// @Param include_geometries query bool false "Геометрии слоёв" default(true)
// @Param mode query string false "bbox | radius | both | none" default(both)
// @Param datasets query string false "Слои через запятую"
// @Param bbox query string false "minx,miny,maxx,maxy; заменяет вычисленный прямоугольник"
// @Param limit query int false "Лимит объектов на слой" default(2000)
// @Param simplify_m query number false "Допуск упрощения в метрах"
// @Success 200 {object} utils.SuccessResponse{data=dto.EnrichPointResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/enrich/point [get]
func (h *EnrichHandler) EnrichPoint(c *fiber.Ctx) error {
	req := dto.NewEnrichPointRequest(h.cfg.DefaultRadiusM, h.cfg.DefaultLimit)
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage(err.Error()))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	resp, err := h.enrichUC.EnrichPoint(c.UserContext(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	if len(resp.Errors) > 0 {
		logger.FromContext(c.UserContext(), h.logger).Info("Enrichment completed with section errors",
			zap.Any("errors", resp.Errors))
	}
	return utils.SendSuccess(c, resp, nil)
}

// OSMMetrics godoc
// @Summary OSM метрики вокруг точки (кеш на 30 дней)
// @Tags Pipelines
// @Produce json
// @Param lat query number true "Широта"
// @Param lon query number true "Долгота"
// @Param radius_m query int false "Буфер в метрах" default(300)
// @Param refresh query bool false "Пересчитать" default(false)
// @Success 200 {object} utils.SuccessResponse{data=domain.OSMMetricsResult}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/osm/metrics [get]
func (h *EnrichHandler) OSMMetrics(c *fiber.Ctx) error {
	req := dto.OSMMetricsRequest{BufferM: 300}
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage(err.Error()))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.osmUC.GetOrCompute(c.UserContext(), *req.Lat, *req.Lon, req.BufferM, req.Refresh)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, result, nil)
}

// WeatherDaily godoc
// @Summary Дневная погода для точки (кеш по дням)
// @Tags Pipelines
// @Produce json
// @Param lat query number true "Широта"
// @Param lon query number true "Долгота"
// @Param start query string true "YYYY-MM-DD"
// @Param end query string true "YYYY-MM-DD"
// @Success 200 {object} utils.SuccessResponse{data=dto.WeatherDaily}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/weather/daily [get]
func (h *EnrichHandler) WeatherDaily(c *fiber.Ctx) error {
	var req dto.WeatherDailyRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage(err.Error()))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	r, err := usecase.ParseDateRange(req.Start, req.End)
	if err != nil {
		return utils.SendError(c, err)
	}

	records, err := h.weatherUC.GetOrFetch(c.UserContext(), *req.Lat, *req.Lon, r)
	if err != nil {
		return utils.SendError(c, err)
	}

	rows := usecase.WeatherRows(records)
	return utils.SendSuccess(c, dto.WeatherDaily{Provider: domain.ProviderOpenMeteo, Rows: rows}, &utils.Meta{Total: len(rows)})
}
