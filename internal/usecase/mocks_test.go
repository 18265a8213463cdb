package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/usecase/dto"
)

// MockFeatureRepository is a mock implementation of FeatureRepository
type MockFeatureRepository struct {
	mock.Mock
}

func (m *MockFeatureRepository) FindByEnvelope(ctx context.Context, layer domain.Layer, env domain.Envelope, page domain.PageOptions) ([]domain.Feature, error) {
	args := m.Called(ctx, layer, env, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Feature), args.Error(1)
}

func (m *MockFeatureRepository) FindByRadius(ctx context.Context, layer domain.Layer, center domain.Point, radiusM float64, page domain.PageOptions) ([]domain.Feature, error) {
	args := m.Called(ctx, layer, center, radiusM, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Feature), args.Error(1)
}

// MockStatsRepository is a mock implementation of StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) LayerMetadata(ctx context.Context, layer domain.Layer) (*domain.LayerMetadata, error) {
	args := m.Called(ctx, layer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LayerMetadata), args.Error(1)
}

func (m *MockStatsRepository) ContextMetrics(ctx context.Context, center domain.Point, radiusM float64) (*domain.ContextMetrics, error) {
	args := m.Called(ctx, center, radiusM)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContextMetrics), args.Error(1)
}

// MockCacheRepository is a mock implementation of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) GetLayerMetadata(ctx context.Context, layer string) (*domain.LayerMetadata, error) {
	args := m.Called(ctx, layer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LayerMetadata), args.Error(1)
}

func (m *MockCacheRepository) SetLayerMetadata(ctx context.Context, meta *domain.LayerMetadata, ttl time.Duration) error {
	args := m.Called(ctx, meta, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) DeleteLayerMetadata(ctx context.Context, layer string) error {
	args := m.Called(ctx, layer)
	return args.Error(0)
}

// MockOSMMetricsRepository is a mock implementation of OSMMetricsRepository
type MockOSMMetricsRepository struct {
	mock.Mock
}

func (m *MockOSMMetricsRepository) FindLatest(ctx context.Context, key domain.BucketKey, bufferM int, notBefore time.Time) (*domain.OSMSnapshot, error) {
	args := m.Called(ctx, key, bufferM, notBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OSMSnapshot), args.Error(1)
}

func (m *MockOSMMetricsRepository) Insert(ctx context.Context, snapshot *domain.OSMSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

// MockWeatherCacheRepository is a mock implementation of WeatherCacheRepository
type MockWeatherCacheRepository struct {
	mock.Mock
}

func (m *MockWeatherCacheRepository) ListDays(ctx context.Context, key domain.BucketKey, provider string, r domain.DateRange) ([]domain.WeatherRecord, error) {
	args := m.Called(ctx, key, provider, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WeatherRecord), args.Error(1)
}

func (m *MockWeatherCacheRepository) InsertMissing(ctx context.Context, key domain.BucketKey, provider string, days []domain.WeatherDay) (int, error) {
	args := m.Called(ctx, key, provider, days)
	return args.Int(0), args.Error(1)
}

// MockMapQueryClient is a mock implementation of MapQueryClient
type MockMapQueryClient struct {
	mock.Mock
}

func (m *MockMapQueryClient) Query(ctx context.Context, query string) (*domain.OverpassResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OverpassResult), args.Error(1)
}

// MockWeatherArchiveClient is a mock implementation of WeatherArchiveClient
type MockWeatherArchiveClient struct {
	mock.Mock
}

func (m *MockWeatherArchiveClient) FetchDaily(ctx context.Context, lat, lon float64, r domain.DateRange) ([]domain.WeatherDay, error) {
	args := m.Called(ctx, lat, lon, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WeatherDay), args.Error(1)
}

// MockOSMComputer is a mock implementation of OSMComputer
type MockOSMComputer struct {
	mock.Mock
}

func (m *MockOSMComputer) Aggregate(ctx context.Context, p domain.Point, bufferM int) domain.OSMAggregation {
	args := m.Called(ctx, p, bufferM)
	return args.Get(0).(domain.OSMAggregation)
}

// MockFeatureQuerier is a mock implementation of FeatureQuerier
type MockFeatureQuerier struct {
	mock.Mock
}

func (m *MockFeatureQuerier) Query(ctx context.Context, q domain.FeatureQuery) (*dto.FeatureCollection, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.FeatureCollection), args.Error(1)
}

// MockOSMMetricsProvider is a mock implementation of OSMMetricsProvider
type MockOSMMetricsProvider struct {
	mock.Mock
}

func (m *MockOSMMetricsProvider) GetOrCompute(ctx context.Context, lat, lon float64, bufferM int, forceRefresh bool) (*domain.OSMMetricsResult, error) {
	args := m.Called(ctx, lat, lon, bufferM, forceRefresh)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OSMMetricsResult), args.Error(1)
}

// MockWeatherProvider is a mock implementation of WeatherProvider
type MockWeatherProvider struct {
	mock.Mock
}

func (m *MockWeatherProvider) GetOrFetch(ctx context.Context, lat, lon float64, r domain.DateRange) ([]domain.WeatherRecord, error) {
	args := m.Called(ctx, lat, lon, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WeatherRecord), args.Error(1)
}

// fakeTx runs fn directly and records calls and the returned error
type fakeTx struct {
	calls int
	err   error
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	if err := fn(ctx); err != nil {
		f.err = err
		return err
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
