package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/urban-context/internal/pkg/errors"
	"github.com/urban-context/internal/pkg/logger"
	"github.com/urban-context/internal/pkg/utils"
	"github.com/urban-context/internal/pkg/validator"
	"github.com/urban-context/internal/usecase/dto"
	"go.uber.org/zap"
)

// DatasetHandler - каталог статических слоёв
type DatasetHandler struct {
	featureUC FeatureService
	statsUC   StatsService
	logger    *zap.Logger
}

// NewDatasetHandler - создание нового DatasetHandler
func NewDatasetHandler(featureUC FeatureService, statsUC StatsService, logger *zap.Logger) *DatasetHandler {
	return &DatasetHandler{
		featureUC: featureUC,
		statsUC:   statsUC,
		logger:    logger,
	}
}

// List godoc
// @Summary Список слоёв
// @Tags Datasets
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.DatasetList}
// @Router /api/v1/datasets [get]
func (h *DatasetHandler) List(c *fiber.Ctx) error {
	names := h.featureUC.ListLayers()
	return utils.SendSuccess(c, dto.DatasetList{Datasets: names}, &utils.Meta{Total: len(names)})
}

// Features godoc
// @Summary Объекты слоя в GeoJSON
// @Description bbox имеет приоритет над lat+lon. Для trees и buildings bbox обязателен.
// @Tags Datasets
// @Produce json
// @Param name path string true "Имя слоя"
// @Param bbox query string false "minx,miny,maxx,maxy (EPSG:4326)"
// @Param lat query number false "Широта"
// @Param lon query number false "Долгота"
// @Param radius_m query number false "Радиус в метрах" default(300)
// @Param limit query int false "Лимит, 0 - размер страницы по умолчанию"
// @Param offset query int false "Смещение" default(0)
// @Param simplify_m query number false "Допуск упрощения в метрах (линии и полигоны)"
// @Success 200 {object} dto.FeatureCollection
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/datasets/{name} [get]
func (h *DatasetHandler) Features(c *fiber.Ctx) error {
	req := dto.FeatureRequest{RadiusM: 300}
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage(err.Error()))
	}
	req.Dataset = c.Params("name")

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	fc, err := h.featureUC.QueryDataset(c.UserContext(), req)
	if err != nil {
		logger.FromContext(c.UserContext(), h.logger).Debug("Dataset query rejected",
			zap.String("dataset", req.Dataset), zap.Error(err))
		return utils.SendError(c, err)
	}

	// GeoJSON отдаётся без обёртки, чтобы его читали картографические клиенты
	return utils.SendRaw(c, fc)
}

// Metadata godoc
// @Summary Сводка по слою
// @Tags Datasets
// @Produce json
// @Param name path string true "Имя слоя"
// @Success 200 {object} utils.SuccessResponse{data=domain.LayerMetadata}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/datasets/{name}/metadata [get]
func (h *DatasetHandler) Metadata(c *fiber.Ctx) error {
	meta, err := h.statsUC.LayerMetadata(c.UserContext(), c.Params("name"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, meta, nil)
}

// Context godoc
// @Summary Агрегаты статических слоёв вокруг точки
// @Tags Context
// @Produce json
// @Param lat query number true "Широта"
// @Param lon query number true "Долгота"
// @Param radius_m query number false "Радиус в метрах" default(300)
// @Success 200 {object} utils.SuccessResponse{data=domain.ContextMetrics}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/context [get]
func (h *DatasetHandler) Context(c *fiber.Ctx) error {
	req := dto.ContextRequest{RadiusM: 300}
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage(err.Error()))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.statsUC.ContextMetrics(c.UserContext(), *req.Lat, *req.Lon, req.RadiusM)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, result, nil)
}
