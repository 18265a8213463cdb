package repository

import (
	"context"

	"github.com/urban-context/internal/domain"
)

// MapQueryClient - клиент Overpass API
type MapQueryClient interface {
	// Query выполняет запрос Overpass QL; при исчерпании попыток возвращает ошибку
	Query(ctx context.Context, query string) (*domain.OverpassResult, error)
}

// WeatherArchiveClient - клиент архива погоды
type WeatherArchiveClient interface {
	// FetchDaily возвращает по записи на каждый день диапазона
	FetchDaily(ctx context.Context, lat, lon float64, r domain.DateRange) ([]domain.WeatherDay, error)
}
