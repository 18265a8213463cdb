package handler

import (
	"context"

	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/usecase"
	"github.com/urban-context/internal/usecase/dto"
)

// FeatureService - каталог слоёв
type FeatureService interface {
	ListLayers() []string
	QueryDataset(ctx context.Context, req dto.FeatureRequest) (*dto.FeatureCollection, error)
}

// StatsService - сводки слоёв и агрегаты вокруг точки
type StatsService interface {
	LayerMetadata(ctx context.Context, name string) (*domain.LayerMetadata, error)
	ContextMetrics(ctx context.Context, lat, lon, radiusM float64) (*domain.ContextMetrics, error)
}

// EnrichmentService - сборка контекста точки
type EnrichmentService interface {
	EnrichPoint(ctx context.Context, req dto.EnrichPointRequest) (*dto.EnrichPointResponse, error)
}

var (
	_ FeatureService    = (*usecase.FeatureUseCase)(nil)
	_ StatsService      = (*usecase.StatsUseCase)(nil)
	_ EnrichmentService = (*usecase.EnrichmentUseCase)(nil)
)
