package repository

import (
	"context"

	"github.com/urban-context/internal/domain"
)

// FeatureRepository - чтение объектов статических слоёв.
// Результаты упорядочены по id по возрастанию.
type FeatureRepository interface {
	// FindByEnvelope - объекты, пересекающие прямоугольник
	FindByEnvelope(ctx context.Context, layer domain.Layer, env domain.Envelope, page domain.PageOptions) ([]domain.Feature, error)

	// FindByRadius - объекты в пределах radiusM метров (расстояние по поверхности Земли)
	FindByRadius(ctx context.Context, layer domain.Layer, center domain.Point, radiusM float64, page domain.PageOptions) ([]domain.Feature, error)
}
