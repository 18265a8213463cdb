package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/urban-context/internal/config"
	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/pkg/errors"
	"github.com/urban-context/internal/pkg/geo"
	"github.com/urban-context/internal/pkg/logger"
	"github.com/urban-context/internal/usecase/dto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Section names in EnrichPointResponse.Errors
const (
	SectionOSM        = "osm"
	SectionWeather    = "weather_daily"
	SectionGeometries = "geometries"
)

// EnrichmentUseCase собирает контекст точки из OSM, погоды и статических слоёв
type EnrichmentUseCase struct {
	features    FeatureQuerier
	osm         OSMMetricsProvider
	weather     WeatherProvider
	cfg         config.EnrichConfig
	concurrency int
	logger      *zap.Logger
}

// NewEnrichmentUseCase создает EnrichmentUseCase
func NewEnrichmentUseCase(
	features FeatureQuerier,
	osm OSMMetricsProvider,
	weather WeatherProvider,
	cfg *config.Config,
	logger *zap.Logger,
) *EnrichmentUseCase {
	concurrency := cfg.Query.GeometryConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &EnrichmentUseCase{
		features:    features,
		osm:         osm,
		weather:     weather,
		cfg:         cfg.Enrich,
		concurrency: concurrency,
		logger:      logger,
	}
}

// enrichPlan - провалидированный запрос
type enrichPlan struct {
	point     domain.Point
	radiusM   float64
	modes     []string
	datasets  []string
	bbox      dto.BBoxInfo
	dates     *domain.DateRange
	limit     int
	simplifyM *float64
}

// EnrichPoint валидирует запрос целиком, затем выполняет секции.
// Ошибка валидации прерывает вызов, ошибка секции попадает в Errors.
func (uc *EnrichmentUseCase) EnrichPoint(ctx context.Context, req dto.EnrichPointRequest) (*dto.EnrichPointResponse, error) {
	plan, err := uc.plan(req)
	if err != nil {
		return nil, err
	}

	resp := &dto.EnrichPointResponse{
		Point:   plan.point,
		RadiusM: plan.radiusM,
		BBox:    plan.bbox,
		Limits: dto.Limits{
			LimitRequested: plan.limit,
			DatasetCaps:    domain.LayerCaps(),
			MaxRadiusM:     uc.cfg.MaxRadiusM,
		},
	}

	var (
		mu       sync.Mutex
		failures = make(map[string]string)
	)
	fail := func(section string, err error) {
		mu.Lock()
		defer mu.Unlock()
		failures[section] = sectionMessage(err)
	}

	log := logger.FromContext(ctx, uc.logger)
	var g errgroup.Group

	if req.IncludeOSM {
		g.Go(func() error {
			result, err := uc.osm.GetOrCompute(ctx, plan.point.Lat, plan.point.Lon, OSMBufferM(plan.radiusM), req.OSMRefresh)
			if err != nil {
				log.Warn("OSM section failed", zap.Error(err))
				fail(SectionOSM, err)
				return nil
			}
			resp.OSM = result
			if result.Degraded {
				// неполные метрики отдаём с нулями, но помечаем секцию
				fail(SectionOSM, errors.ErrUpstreamUnavailable.WithMessage(osmIncompleteMessage))
			}
			return nil
		})
	}

	if plan.dates != nil {
		g.Go(func() error {
			records, err := uc.weather.GetOrFetch(ctx, plan.point.Lat, plan.point.Lon, *plan.dates)
			if err != nil {
				log.Warn("Weather section failed", zap.Error(err))
				fail(SectionWeather, err)
				return nil
			}
			rows := WeatherRows(records)
			resp.WeatherDaily = &dto.WeatherDaily{Provider: domain.ProviderOpenMeteo, Rows: rows}
			if len(rows) > 0 {
				if elevation, ok := rows[0]["elevation_m"]; ok {
					resp.ElevationM = elevation
				}
			}
			return nil
		})
	}

	if req.IncludeGeometries && len(plan.modes) > 0 {
		g.Go(func() error {
			resp.Geometries = uc.geometries(ctx, plan, func(key string, err error) {
				log.Warn("Geometry query failed", zap.String("section", key), zap.Error(err))
				fail(key, err)
			})
			return nil
		})
	}

	_ = g.Wait()

	if len(failures) > 0 {
		resp.Errors = failures
	}
	return resp, nil
}

// geometries запускает запросы по парам (режим, слой) с ограничением параллелизма
func (uc *EnrichmentUseCase) geometries(ctx context.Context, plan *enrichPlan, fail func(string, error)) dto.Geometries {
	out := make(dto.Geometries, len(plan.modes))
	for _, mode := range plan.modes {
		out[mode] = make(map[string]*dto.FeatureCollection, len(plan.datasets))
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(uc.concurrency)

	for _, mode := range plan.modes {
		for _, dataset := range plan.datasets {
			g.Go(func() error {
				q := uc.featureQuery(plan, mode, dataset)
				fc, err := uc.features.Query(ctx, q)
				if err != nil {
					fail(fmt.Sprintf("%s.%s.%s", SectionGeometries, mode, dataset), err)
					return nil
				}
				mu.Lock()
				out[mode][dataset] = fc
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()

	return out
}

func (uc *EnrichmentUseCase) featureQuery(plan *enrichPlan, mode, dataset string) domain.FeatureQuery {
	limit := plan.limit
	if layer, ok := domain.LookupLayer(dataset); ok && layer.MaxLimit > 0 && limit > layer.MaxLimit {
		limit = layer.MaxLimit
	}

	q := domain.FeatureQuery{
		Layer:     dataset,
		Limit:     limit,
		SimplifyM: plan.simplifyM,
	}
	if mode == dto.ModeBBox {
		env := plan.bbox.Envelope
		q.Envelope = &env
	} else {
		center := plan.point
		q.Center = &center
		q.RadiusM = plan.radiusM
	}
	return q
}

func (uc *EnrichmentUseCase) plan(req dto.EnrichPointRequest) (*enrichPlan, error) {
	if req.Lat == nil || req.Lon == nil {
		return nil, errors.ErrInvalidCoordinates.WithMessage("lat and lon are required")
	}
	p := domain.Point{Lat: *req.Lat, Lon: *req.Lon}
	if !p.Valid() {
		return nil, errors.ErrInvalidCoordinates
	}

	if !(req.RadiusM > 0) || req.RadiusM > uc.cfg.MaxRadiusM {
		return nil, errors.ErrInvalidRadius.WithDetails(map[string]interface{}{
			"radius_m":     req.RadiusM,
			"max_radius_m": uc.cfg.MaxRadiusM,
		})
	}

	modes, err := ResolveModes(req.Mode)
	if err != nil {
		return nil, err
	}

	datasets, err := uc.ResolveDatasets(req.Datasets)
	if err != nil {
		return nil, err
	}

	if req.Limit <= 0 {
		return nil, errors.ErrInvalidLimit.WithMessage("limit must be positive")
	}
	if req.SimplifyM < 0 {
		return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{"simplify_m": "must not be negative"})
	}

	plan := &enrichPlan{
		point:    p,
		radiusM:  req.RadiusM,
		modes:    modes,
		datasets: datasets,
		limit:    req.Limit,
	}
	if req.SimplifyM > 0 {
		s := req.SimplifyM
		plan.simplifyM = &s
	}

	if req.IncludeWeather {
		dates, err := ParseDateRange(req.Start, req.End)
		if err != nil {
			return nil, err
		}
		plan.dates = &dates
	}

	if req.BBox != "" {
		env, err := geo.ParseEnvelope(req.BBox)
		if err != nil {
			return nil, errors.ErrInvalidBBox.WithMessage(err.Error())
		}
		plan.bbox = dto.BBoxInfo{Envelope: env, Source: dto.BBoxSourceUser}
	} else {
		env, err := geo.EnvelopeFromPointRadius(p.Lat, p.Lon, req.RadiusM)
		if err != nil {
			return nil, errors.ErrInvalidCoordinates.WithMessage(err.Error())
		}
		plan.bbox = dto.BBoxInfo{Envelope: env, Source: dto.BBoxSourceComputed}
	}

	return plan, nil
}

// ResolveModes разворачивает режим в список режимов геометрий
func ResolveModes(mode string) ([]string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", dto.ModeBoth:
		return []string{dto.ModeBBox, dto.ModeRadius}, nil
	case dto.ModeBBox:
		return []string{dto.ModeBBox}, nil
	case dto.ModeRadius:
		return []string{dto.ModeRadius}, nil
	case dto.ModeNone:
		return nil, nil
	default:
		return nil, errors.ErrInvalidMode.WithDetails(map[string]interface{}{"mode": mode})
	}
}

// ResolveDatasets разбирает список слоёв; все неизвестные имена сообщаются вместе
func (uc *EnrichmentUseCase) ResolveDatasets(raw string) ([]string, error) {
	names := config.ParseList(raw)
	if len(names) == 0 {
		names = uc.cfg.DefaultDatasets
	}

	if unknown := domain.UnknownEnrichDatasets(names); len(unknown) > 0 {
		return nil, errors.ErrUnknownDataset.WithDetails(map[string]interface{}{
			"unknown":   unknown,
			"available": domain.EnrichDatasetNames(),
		})
	}

	seen := make(map[string]bool, len(names))
	result := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			result = append(result, n)
		}
	}
	return result, nil
}

// ParseDateRange - обе даты обязательны, начало не позже конца
func ParseDateRange(start, end string) (domain.DateRange, error) {
	if start == "" || end == "" {
		return domain.DateRange{}, errors.ErrMissingDateRange
	}
	s, err := domain.ParseDate(start)
	if err != nil {
		return domain.DateRange{}, errors.ErrInvalidDateRange.WithMessage("start must be YYYY-MM-DD")
	}
	e, err := domain.ParseDate(end)
	if err != nil {
		return domain.DateRange{}, errors.ErrInvalidDateRange.WithMessage("end must be YYYY-MM-DD")
	}
	r := domain.DateRange{Start: s, End: e}
	if !r.Valid() {
		return domain.DateRange{}, errors.ErrInvalidDateRange
	}
	return r, nil
}

const osmIncompleteMessage = "OSM metrics incomplete, missing parts reported as zero"

// OSMBufferM переводит радиус в целые метры буфера с округлением вверх,
// чтобы любой допустимый радиус давал положительный буфер
func OSMBufferM(radiusM float64) int {
	return int(math.Ceil(radiusM))
}

// sectionMessage - наружу уходит только сообщение AppError
func sectionMessage(err error) string {
	if appErr, ok := errors.As(err); ok {
		return appErr.Message
	}
	return errors.ErrInternalServer.Message
}
