package repository

import (
	"context"
	"time"

	"github.com/urban-context/internal/domain"
)

// OSMMetricsRepository - история расчётов OSM метрик по (bucket, buffer)
type OSMMetricsRepository interface {
	// FindLatest возвращает самый свежий снимок не старше notBefore (nil, nil если нет)
	FindLatest(ctx context.Context, key domain.BucketKey, bufferM int, notBefore time.Time) (*domain.OSMSnapshot, error)

	// Insert добавляет новый снимок; существующие не изменяются
	Insert(ctx context.Context, snapshot *domain.OSMSnapshot) error
}

// WeatherCacheRepository - дневные записи погоды по (bucket, date, provider)
type WeatherCacheRepository interface {
	// ListDays возвращает записи диапазона, упорядоченные по дате
	ListDays(ctx context.Context, key domain.BucketKey, provider string, r domain.DateRange) ([]domain.WeatherRecord, error)

	// InsertMissing добавляет дни, которых ещё нет; существующие не перезаписываются.
	// Возвращает число фактически вставленных строк.
	InsertMissing(ctx context.Context, key domain.BucketKey, provider string, days []domain.WeatherDay) (int, error)
}
