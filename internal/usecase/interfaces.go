package usecase

import (
	"context"

	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/usecase/dto"
)

// FeatureQuerier - выборка объектов слоя для оркестратора
type FeatureQuerier interface {
	Query(ctx context.Context, q domain.FeatureQuery) (*dto.FeatureCollection, error)
}

// OSMMetricsProvider - OSM конвейер с кешем
type OSMMetricsProvider interface {
	GetOrCompute(ctx context.Context, lat, lon float64, bufferM int, forceRefresh bool) (*domain.OSMMetricsResult, error)
}

// WeatherProvider - погодный конвейер с кешем
type WeatherProvider interface {
	GetOrFetch(ctx context.Context, lat, lon float64, r domain.DateRange) ([]domain.WeatherRecord, error)
}

// OSMComputer - расчёт OSM метрик без кеша
type OSMComputer interface {
	Aggregate(ctx context.Context, p domain.Point, bufferM int) domain.OSMAggregation
}

var (
	_ FeatureQuerier     = (*FeatureUseCase)(nil)
	_ OSMMetricsProvider = (*OSMMetricsUseCase)(nil)
	_ WeatherProvider    = (*WeatherUseCase)(nil)
	_ OSMComputer        = (*OSMAggregator)(nil)
)
