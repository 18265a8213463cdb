package usecase

import (
	"context"
	"math"
	"time"

	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/domain/repository"
	"github.com/urban-context/internal/pkg/errors"
	"github.com/urban-context/internal/pkg/metrics"
	"go.uber.org/zap"
)

// StatsUseCase - сводки по слоям и агрегаты вокруг точки
type StatsUseCase struct {
	statsRepo   repository.StatsRepository
	cacheRepo   repository.CacheRepository
	logger      *zap.Logger
	metadataTTL time.Duration
	maxRadiusM  float64
}

// NewStatsUseCase создает StatsUseCase
func NewStatsUseCase(
	statsRepo repository.StatsRepository,
	cacheRepo repository.CacheRepository,
	metadataTTL time.Duration,
	maxRadiusM float64,
	logger *zap.Logger,
) *StatsUseCase {
	return &StatsUseCase{
		statsRepo:   statsRepo,
		cacheRepo:   cacheRepo,
		logger:      logger,
		metadataTTL: metadataTTL,
		maxRadiusM:  maxRadiusM,
	}
}

// LayerMetadata - cache-aside через Redis; ошибки кеша не прерывают запрос
func (uc *StatsUseCase) LayerMetadata(ctx context.Context, name string) (*domain.LayerMetadata, error) {
	layer, err := ResolveLayer(name)
	if err != nil {
		return nil, err
	}

	cached, err := uc.cacheRepo.GetLayerMetadata(ctx, layer.Name)
	if err != nil {
		uc.logger.Warn("Failed to read layer metadata from cache", zap.String("layer", layer.Name), zap.Error(err))
	}
	if cached != nil {
		metrics.ObserveCache(metrics.PipelineMetadata, true)
		return cached, nil
	}
	metrics.ObserveCache(metrics.PipelineMetadata, false)

	meta, err := uc.statsRepo.LayerMetadata(ctx, layer)
	if err != nil {
		return nil, err
	}

	if err := uc.cacheRepo.SetLayerMetadata(ctx, meta, uc.metadataTTL); err != nil {
		uc.logger.Warn("Failed to cache layer metadata", zap.String("layer", layer.Name), zap.Error(err))
	}

	return meta, nil
}

// ContextMetrics - здания, деревья, зелень и улицы в радиусе от точки
func (uc *StatsUseCase) ContextMetrics(ctx context.Context, lat, lon, radiusM float64) (*domain.ContextMetrics, error) {
	p := domain.Point{Lat: lat, Lon: lon}
	if !p.Valid() {
		return nil, errors.ErrInvalidCoordinates
	}
	if !(radiusM > 0) || math.IsInf(radiusM, 0) || radiusM > uc.maxRadiusM {
		return nil, errors.ErrInvalidRadius.WithDetails(map[string]interface{}{
			"radius_m":     radiusM,
			"max_radius_m": uc.maxRadiusM,
		})
	}

	return uc.statsRepo.ContextMetrics(ctx, p, radiusM)
}
