package repository

import (
	"context"

	"github.com/urban-context/internal/domain"
)

// StatsRepository - агрегаты по статическим слоям
type StatsRepository interface {
	// LayerMetadata возвращает количество, SRID, охват и типы геометрий слоя
	LayerMetadata(ctx context.Context, layer domain.Layer) (*domain.LayerMetadata, error)

	// ContextMetrics считает здания, деревья, площадь зелени и длину улиц в радиусе
	ContextMetrics(ctx context.Context, center domain.Point, radiusM float64) (*domain.ContextMetrics, error)
}
