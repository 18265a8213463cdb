package usecase

import (
	"context"
	"time"

	"github.com/urban-context/internal/config"
	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/domain/repository"
	"github.com/urban-context/internal/pkg/errors"
	"github.com/urban-context/internal/pkg/geo"
	"github.com/urban-context/internal/pkg/metrics"
	"go.uber.org/zap"
)

// WeatherUseCase - погодный конвейер: дни диапазона из кеша, пропуски из архива
type WeatherUseCase struct {
	repo     repository.WeatherCacheRepository
	tx       repository.Transactor
	client   repository.WeatherArchiveClient
	logger   *zap.Logger
	decimals int
}

// NewWeatherUseCase создает WeatherUseCase
func NewWeatherUseCase(
	repo repository.WeatherCacheRepository,
	tx repository.Transactor,
	client repository.WeatherArchiveClient,
	cfg *config.CacheConfig,
	logger *zap.Logger,
) *WeatherUseCase {
	return &WeatherUseCase{
		repo:     repo,
		tx:       tx,
		client:   client,
		logger:   logger,
		decimals: cfg.WeatherDecimals,
	}
}

// GetOrFetch возвращает дни диапазона по дате. Если хоть одного дня нет,
// архив запрашивается за весь диапазон, а вставляются только отсутствующие дни.
func (uc *WeatherUseCase) GetOrFetch(ctx context.Context, lat, lon float64, r domain.DateRange) ([]domain.WeatherRecord, error) {
	if !(domain.Point{Lat: lat, Lon: lon}).Valid() {
		return nil, errors.ErrInvalidCoordinates
	}
	if !r.Valid() {
		return nil, errors.ErrInvalidDateRange
	}

	key := geo.NewBucketKey(lat, lon, uc.decimals)

	existing, err := uc.repo.ListDays(ctx, key, domain.ProviderOpenMeteo, r)
	if err != nil {
		return nil, err
	}

	missing := missingDays(r, existing)
	if len(missing) == 0 {
		metrics.ObserveCache(metrics.PipelineWeather, true)
		return existing, nil
	}
	metrics.ObserveCache(metrics.PipelineWeather, false)

	fetched, err := uc.client.FetchDaily(ctx, key.LatRound, key.LonRound, r)
	if err != nil {
		return nil, err
	}

	toInsert := make([]domain.WeatherDay, 0, len(missing))
	for _, day := range fetched {
		if missing[domain.TruncateDay(day.Date)] {
			toInsert = append(toInsert, day)
		}
	}

	var rows []domain.WeatherRecord
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		inserted, err := uc.repo.InsertMissing(ctx, key, domain.ProviderOpenMeteo, toInsert)
		if err != nil {
			return err
		}
		metrics.WeatherDaysFetched.Add(float64(inserted))

		rows, err = uc.repo.ListDays(ctx, key, domain.ProviderOpenMeteo, r)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(rows) < len(r.Days()) {
		uc.logger.Warn("Weather archive returned incomplete range",
			zap.Float64("lat_round", key.LatRound),
			zap.Float64("lon_round", key.LonRound),
			zap.Int("expected", len(r.Days())),
			zap.Int("got", len(rows)))
	}

	return rows, nil
}

// WeatherRows разворачивает записи в строки ответа
func WeatherRows(records []domain.WeatherRecord) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rec.Row())
	}
	return rows
}

func missingDays(r domain.DateRange, existing []domain.WeatherRecord) map[time.Time]bool {
	have := make(map[time.Time]bool, len(existing))
	for _, rec := range existing {
		have[domain.TruncateDay(rec.Date)] = true
	}
	missing := make(map[time.Time]bool)
	for _, d := range r.Days() {
		if !have[d] {
			missing[d] = true
		}
	}
	return missing
}
