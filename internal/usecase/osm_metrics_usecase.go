package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/urban-context/internal/config"
	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/domain/repository"
	"github.com/urban-context/internal/pkg/errors"
	"github.com/urban-context/internal/pkg/geo"
	"github.com/urban-context/internal/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// OSMMetricsUseCase - OSM конвейер: округление, поиск свежего снимка, расчёт при промахе
type OSMMetricsUseCase struct {
	repo     repository.OSMMetricsRepository
	tx       repository.Transactor
	computer OSMComputer
	logger   *zap.Logger

	ttl      time.Duration
	decimals int
	dedupe   bool
	group    singleflight.Group
	now      func() time.Time
}

// NewOSMMetricsUseCase создает OSMMetricsUseCase
func NewOSMMetricsUseCase(
	repo repository.OSMMetricsRepository,
	tx repository.Transactor,
	computer OSMComputer,
	cfg *config.CacheConfig,
	logger *zap.Logger,
) *OSMMetricsUseCase {
	return &OSMMetricsUseCase{
		repo:     repo,
		tx:       tx,
		computer: computer,
		logger:   logger,
		ttl:      cfg.OSMTTL,
		decimals: cfg.OSMDecimals,
		dedupe:   cfg.OSMDedupeCompute,
		now:      time.Now,
	}
}

// SetClock подменяет источник времени
func (uc *OSMMetricsUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

// GetOrCompute возвращает метрики из кеша или рассчитывает новые.
// forceRefresh пропускает чтение кеша, но новый снимок всё равно сохраняется.
func (uc *OSMMetricsUseCase) GetOrCompute(ctx context.Context, lat, lon float64, bufferM int, forceRefresh bool) (*domain.OSMMetricsResult, error) {
	if !(domain.Point{Lat: lat, Lon: lon}).Valid() {
		return nil, errors.ErrInvalidCoordinates
	}
	if bufferM <= 0 {
		return nil, errors.ErrInvalidRadius.WithMessage("buffer_m must be positive")
	}

	key := geo.NewBucketKey(lat, lon, uc.decimals)

	if !forceRefresh {
		snapshot, err := uc.repo.FindLatest(ctx, key, bufferM, uc.now().Add(-uc.ttl))
		if err != nil {
			return nil, err
		}
		if snapshot != nil {
			metrics.ObserveCache(metrics.PipelineOSM, true)
			return &domain.OSMMetricsResult{
				Cached:      true,
				ExtractedAt: snapshot.ExtractedAt,
				OSMMetrics:  snapshot.Metrics,
			}, nil
		}
	}
	metrics.ObserveCache(metrics.PipelineOSM, false)

	if !uc.dedupe {
		return uc.compute(ctx, lat, lon, key, bufferM)
	}

	sfKey := fmt.Sprintf("%v:%v:%d", key.LatRound, key.LonRound, bufferM)
	v, err, shared := uc.group.Do(sfKey, func() (interface{}, error) {
		return uc.compute(ctx, lat, lon, key, bufferM)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		uc.logger.Debug("OSM computation shared", zap.String("key", sfKey))
	}
	result := *v.(*domain.OSMMetricsResult)
	return &result, nil
}

func (uc *OSMMetricsUseCase) compute(ctx context.Context, lat, lon float64, key domain.BucketKey, bufferM int) (*domain.OSMMetricsResult, error) {
	agg := uc.computer.Aggregate(ctx, domain.Point{Lat: lat, Lon: lon}, bufferM)
	if !agg.Available() {
		uc.logger.Warn("OSM metrics unavailable",
			zap.Float64("lat_round", key.LatRound),
			zap.Float64("lon_round", key.LonRound),
			zap.Int("buffer_m", bufferM),
			zap.String("reason", agg.Reason))
		return nil, errors.ErrUpstreamUnavailable
	}

	// неполный расчёт отдаём как есть, но не кешируем: следующий вызов пересчитает
	if !agg.Complete() {
		uc.logger.Warn("OSM metrics incomplete, snapshot not stored",
			zap.Float64("lat_round", key.LatRound),
			zap.Float64("lon_round", key.LonRound),
			zap.Int("buffer_m", bufferM),
			zap.String("reason", agg.Reason))
		return &domain.OSMMetricsResult{
			Cached:      false,
			ExtractedAt: uc.now().UTC(),
			Degraded:    true,
			OSMMetrics:  agg.Metrics,
		}, nil
	}

	snapshot := &domain.OSMSnapshot{
		Key:         key,
		BufferM:     bufferM,
		ExtractedAt: uc.now().UTC(),
		Metrics:     agg.Metrics,
	}
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		return uc.repo.Insert(ctx, snapshot)
	})
	if err != nil {
		return nil, err
	}

	return &domain.OSMMetricsResult{
		Cached:      false,
		ExtractedAt: snapshot.ExtractedAt,
		OSMMetrics:  snapshot.Metrics,
	}, nil
}
