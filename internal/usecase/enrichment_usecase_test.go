package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/urban-context/internal/config"
	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/pkg/errors"
	"github.com/urban-context/internal/usecase"
	"github.com/urban-context/internal/usecase/dto"
	"go.uber.org/zap"
)

type EnrichmentSuite struct {
	suite.Suite
	ctx      context.Context
	features *MockFeatureQuerier
	osm      *MockOSMMetricsProvider
	weather  *MockWeatherProvider
	uc       *usecase.EnrichmentUseCase
	lat, lon float64
}

func (s *EnrichmentSuite) SetupTest() {
	s.ctx = context.Background()
	s.features = new(MockFeatureQuerier)
	s.osm = new(MockOSMMetricsProvider)
	s.weather = new(MockWeatherProvider)
	s.lat, s.lon = 42.6977, 23.3219

	cfg := &config.Config{
		Query: config.QueryConfig{GeometryConcurrency: 2},
		Enrich: config.EnrichConfig{
			MaxRadiusM:      1000,
			DefaultRadiusM:  300,
			DefaultLimit:    2000,
			DefaultDatasets: []string{domain.LayerStreets, domain.LayerGreenAreas, domain.LayerPOIs},
		},
	}
	s.uc = usecase.NewEnrichmentUseCase(s.features, s.osm, s.weather, cfg, zap.NewNop())
}

func (s *EnrichmentSuite) request() dto.EnrichPointRequest {
	req := dto.NewEnrichPointRequest(300, 2000)
	req.Lat = &s.lat
	req.Lon = &s.lon
	req.Start = "2024-01-01"
	req.End = "2024-01-02"
	return req
}

func emptyCollection() *dto.FeatureCollection {
	return &dto.FeatureCollection{Type: "FeatureCollection", Features: []dto.Feature{}, CRS: dto.CRS4326()}
}

func (s *EnrichmentSuite) TestFullResponse() {
	req := s.request()
	req.Datasets = "pois,trees"

	s.osm.On("GetOrCompute", s.ctx, s.lat, s.lon, 300, false).
		Return(&domain.OSMMetricsResult{Cached: true, OSMMetrics: domain.OSMMetrics{RoadTotalLengthM: 10}}, nil)
	key := domain.BucketKey{LatRound: 42.6977, LonRound: 23.3219}
	s.weather.On("GetOrFetch", s.ctx, s.lat, s.lon, domain.DateRange{Start: day("2024-01-01"), End: day("2024-01-02")}).
		Return([]domain.WeatherRecord{record(key, "2024-01-01", 3), record(key, "2024-01-02", 4)}, nil)
	s.features.On("Query", s.ctx, mock.Anything).Return(emptyCollection(), nil)

	resp, err := s.uc.EnrichPoint(s.ctx, req)
	s.Require().NoError(err)

	s.Equal(domain.Point{Lat: s.lat, Lon: s.lon}, resp.Point)
	s.Equal(300.0, resp.RadiusM)
	s.Equal(dto.BBoxSourceComputed, resp.BBox.Source)
	s.Less(resp.BBox.MinX, s.lon)
	s.Greater(resp.BBox.MaxY, s.lat)
	s.Equal(2000, resp.Limits.LimitRequested)
	s.Equal(1000.0, resp.Limits.MaxRadiusM)
	s.Equal(10000, resp.Limits.DatasetCaps[domain.LayerTrees])

	s.Require().NotNil(resp.OSM)
	s.True(resp.OSM.Cached)

	s.Require().NotNil(resp.WeatherDaily)
	s.Equal(domain.ProviderOpenMeteo, resp.WeatherDaily.Provider)
	s.Len(resp.WeatherDaily.Rows, 2)
	s.Equal(550.0, resp.ElevationM)

	s.Require().Contains(resp.Geometries, dto.ModeBBox)
	s.Require().Contains(resp.Geometries, dto.ModeRadius)
	s.Len(resp.Geometries[dto.ModeBBox], 2)
	s.Len(resp.Geometries[dto.ModeRadius], 2)
	s.Empty(resp.Errors)

	// 2 modes x 2 datasets
	s.features.AssertNumberOfCalls(s.T(), "Query", 4)
}

func (s *EnrichmentSuite) TestGeometryQueriesUseModeAndCaps() {
	req := s.request()
	req.IncludeOSM = false
	req.IncludeWeather = false
	req.Datasets = "trees"
	req.Limit = 15000
	req.SimplifyM = 2

	var queries []domain.FeatureQuery
	s.features.On("Query", s.ctx, mock.Anything).
		Run(func(args mock.Arguments) { queries = append(queries, args.Get(1).(domain.FeatureQuery)) }).
		Return(emptyCollection(), nil)

	// single concurrent slot keeps the slice append race-free
	s.uc = usecase.NewEnrichmentUseCase(s.features, s.osm, s.weather, &config.Config{
		Query:  config.QueryConfig{GeometryConcurrency: 1},
		Enrich: config.EnrichConfig{MaxRadiusM: 1000},
	}, zap.NewNop())

	_, err := s.uc.EnrichPoint(s.ctx, req)
	s.Require().NoError(err)

	s.Require().Len(queries, 2)
	for _, q := range queries {
		s.Equal(domain.LayerTrees, q.Layer)
		s.Equal(10000, q.Limit)
		s.Require().NotNil(q.SimplifyM)
		s.Equal(2.0, *q.SimplifyM)
		mode, ok := q.Mode()
		s.True(ok)
		if mode == domain.SpatialModeRadius {
			s.Equal(300.0, q.RadiusM)
		}
	}
}

func (s *EnrichmentSuite) TestUserBBox() {
	req := s.request()
	req.IncludeOSM = false
	req.IncludeWeather = false
	req.Mode = dto.ModeBBox
	req.Datasets = "pois"
	req.BBox = "23.30,42.68,23.34,42.71"

	env := domain.Envelope{MinX: 23.30, MinY: 42.68, MaxX: 23.34, MaxY: 42.71}
	s.features.On("Query", s.ctx, domain.FeatureQuery{Layer: domain.LayerPOIs, Envelope: &env, Limit: 2000}).
		Return(emptyCollection(), nil)

	resp, err := s.uc.EnrichPoint(s.ctx, req)
	s.Require().NoError(err)

	s.Equal(dto.BBoxSourceUser, resp.BBox.Source)
	s.Equal(env, resp.BBox.Envelope)
	s.NotContains(resp.Geometries, dto.ModeRadius)
	s.Nil(resp.OSM)
	s.Nil(resp.WeatherDaily)
	s.features.AssertExpectations(s.T())
}

func (s *EnrichmentSuite) TestSectionFailuresAreIsolated() {
	req := s.request()
	req.Mode = dto.ModeRadius
	req.Datasets = "pois,streets"

	s.osm.On("GetOrCompute", s.ctx, s.lat, s.lon, 300, false).Return(nil, errors.ErrUpstreamUnavailable)
	s.weather.On("GetOrFetch", s.ctx, s.lat, s.lon, mock.Anything).Return([]domain.WeatherRecord{}, nil)
	s.features.On("Query", s.ctx, mock.MatchedBy(func(q domain.FeatureQuery) bool { return q.Layer == domain.LayerPOIs })).
		Return(emptyCollection(), nil)
	s.features.On("Query", s.ctx, mock.MatchedBy(func(q domain.FeatureQuery) bool { return q.Layer == domain.LayerStreets })).
		Return(nil, errors.ErrServiceUnavailable)

	resp, err := s.uc.EnrichPoint(s.ctx, req)
	s.Require().NoError(err)

	s.Nil(resp.OSM)
	s.Equal(errors.ErrUpstreamUnavailable.Message, resp.Errors[usecase.SectionOSM])
	s.Equal(errors.ErrServiceUnavailable.Message, resp.Errors["geometries.radius.streets"])
	s.NotNil(resp.WeatherDaily)
	s.Nil(resp.ElevationM)
	s.Contains(resp.Geometries[dto.ModeRadius], domain.LayerPOIs)
	s.NotContains(resp.Geometries[dto.ModeRadius], domain.LayerStreets)
}

func (s *EnrichmentSuite) TestDegradedOSMIsReported() {
	req := s.request()
	req.IncludeWeather = false
	req.IncludeGeometries = false

	s.osm.On("GetOrCompute", s.ctx, s.lat, s.lon, 300, false).
		Return(&domain.OSMMetricsResult{Degraded: true, OSMMetrics: domain.OSMMetrics{RoadTotalLengthM: 42}}, nil)

	resp, err := s.uc.EnrichPoint(s.ctx, req)
	s.Require().NoError(err)

	s.Require().NotNil(resp.OSM)
	s.True(resp.OSM.Degraded)
	s.Equal(42.0, resp.OSM.RoadTotalLengthM)
	s.Require().Contains(resp.Errors, usecase.SectionOSM)
	s.Contains(resp.Errors[usecase.SectionOSM], "incomplete")
}

func (s *EnrichmentSuite) TestSubMetreRadiusKeepsPositiveOSMBuffer() {
	req := s.request()
	req.RadiusM = 0.4
	req.IncludeWeather = false
	req.IncludeGeometries = false

	s.osm.On("GetOrCompute", s.ctx, s.lat, s.lon, 1, false).
		Return(&domain.OSMMetricsResult{}, nil)

	resp, err := s.uc.EnrichPoint(s.ctx, req)
	s.Require().NoError(err)

	s.Empty(resp.Errors)
	s.osm.AssertCalled(s.T(), "GetOrCompute", s.ctx, s.lat, s.lon, 1, false)
}

func (s *EnrichmentSuite) TestModeNoneSkipsGeometries() {
	req := s.request()
	req.IncludeOSM = false
	req.IncludeWeather = false
	req.Mode = dto.ModeNone

	resp, err := s.uc.EnrichPoint(s.ctx, req)
	s.Require().NoError(err)

	s.Nil(resp.Geometries)
	s.features.AssertNotCalled(s.T(), "Query", mock.Anything, mock.Anything)
}

func (s *EnrichmentSuite) TestValidationAbortsBeforeIO() {
	tests := []struct {
		name   string
		mutate func(r *dto.EnrichPointRequest)
		want   *errors.AppError
	}{
		{"missing lat", func(r *dto.EnrichPointRequest) { r.Lat = nil }, errors.ErrInvalidCoordinates},
		{"radius above max", func(r *dto.EnrichPointRequest) { r.RadiusM = 1500 }, errors.ErrInvalidRadius},
		{"zero radius", func(r *dto.EnrichPointRequest) { r.RadiusM = 0 }, errors.ErrInvalidRadius},
		{"bad mode", func(r *dto.EnrichPointRequest) { r.Mode = "circle" }, errors.ErrInvalidMode},
		{"unknown datasets", func(r *dto.EnrichPointRequest) { r.Datasets = "pois,rivers,lakes" }, errors.ErrUnknownDataset},
		{"zero limit", func(r *dto.EnrichPointRequest) { r.Limit = 0 }, errors.ErrInvalidLimit},
		{"missing dates with weather", func(r *dto.EnrichPointRequest) { r.End = "" }, errors.ErrMissingDateRange},
		{"reversed dates", func(r *dto.EnrichPointRequest) { r.Start, r.End = "2024-02-01", "2024-01-01" }, errors.ErrInvalidDateRange},
		{"bad bbox", func(r *dto.EnrichPointRequest) { r.BBox = "1,1,0,0" }, errors.ErrInvalidBBox},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := s.request()
			tt.mutate(&req)

			_, err := s.uc.EnrichPoint(s.ctx, req)
			s.ErrorIs(err, tt.want)
		})
	}

	s.osm.AssertNotCalled(s.T(), "GetOrCompute", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.weather.AssertNotCalled(s.T(), "GetOrFetch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.features.AssertNotCalled(s.T(), "Query", mock.Anything, mock.Anything)
}

func (s *EnrichmentSuite) TestWeatherDisabledAllowsMissingDates() {
	req := s.request()
	req.IncludeWeather = false
	req.IncludeOSM = false
	req.IncludeGeometries = false
	req.Start, req.End = "", ""

	resp, err := s.uc.EnrichPoint(s.ctx, req)
	s.Require().NoError(err)
	s.Nil(resp.WeatherDaily)
	s.Nil(resp.Geometries)
}

func TestEnrichmentSuite(t *testing.T) {
	suite.Run(t, new(EnrichmentSuite))
}

func TestResolveModes(t *testing.T) {
	modes, err := usecase.ResolveModes("")
	require.NoError(t, err)
	assert.Equal(t, []string{dto.ModeBBox, dto.ModeRadius}, modes)

	modes, err = usecase.ResolveModes("none")
	require.NoError(t, err)
	assert.Empty(t, modes)

	_, err = usecase.ResolveModes("polygon")
	assert.ErrorIs(t, err, errors.ErrInvalidMode)
}

func TestEnrichmentUseCase_ResolveDatasets(t *testing.T) {
	uc := usecase.NewEnrichmentUseCase(nil, nil, nil, &config.Config{
		Enrich: config.EnrichConfig{DefaultDatasets: []string{"streets", "pois"}},
	}, zap.NewNop())

	t.Run("defaults", func(t *testing.T) {
		got, err := uc.ResolveDatasets("")
		require.NoError(t, err)
		assert.Equal(t, []string{"streets", "pois"}, got)
	})

	t.Run("deduplicates", func(t *testing.T) {
		got, err := uc.ResolveDatasets("pois, trees,pois")
		require.NoError(t, err)
		assert.Equal(t, []string{"pois", "trees"}, got)
	})

	t.Run("reports every unknown name", func(t *testing.T) {
		_, err := uc.ResolveDatasets("rivers,pois,lakes")
		appErr, ok := errors.As(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrUnknownDataset.Code, appErr.Code)
		assert.Equal(t, []string{"rivers", "lakes"}, appErr.Details["unknown"])
	})

	t.Run("uncapped layers are not enrich datasets", func(t *testing.T) {
		_, err := uc.ResolveDatasets("pois,neighbourhoods")
		appErr, ok := errors.As(err)
		require.True(t, ok)
		assert.Equal(t, []string{"neighbourhoods"}, appErr.Details["unknown"])
		assert.NotContains(t, appErr.Details["available"], "neighbourhoods")
	})
}

func TestOSMBufferM(t *testing.T) {
	assert.Equal(t, 1, usecase.OSMBufferM(0.4))
	assert.Equal(t, 1, usecase.OSMBufferM(1))
	assert.Equal(t, 301, usecase.OSMBufferM(300.2))
	assert.Equal(t, 300, usecase.OSMBufferM(300))
}

func TestParseDateRange(t *testing.T) {
	r, err := usecase.ParseDateRange("2024-01-01", "2024-01-01")
	require.NoError(t, err)
	assert.Len(t, r.Days(), 1)

	_, err = usecase.ParseDateRange("2024-13-01", "2024-01-01")
	assert.ErrorIs(t, err, errors.ErrInvalidDateRange)

	_, err = usecase.ParseDateRange("", "2024-01-01")
	assert.ErrorIs(t, err, errors.ErrMissingDateRange)
}
