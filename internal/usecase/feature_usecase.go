package usecase

import (
	"context"
	"math"
	"time"

	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/urban-context/internal/config"
	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/domain/repository"
	"github.com/urban-context/internal/pkg/errors"
	"github.com/urban-context/internal/pkg/geo"
	"github.com/urban-context/internal/pkg/metrics"
	"github.com/urban-context/internal/usecase/dto"
	"go.uber.org/zap"
)

// FeatureUseCase - выборка объектов статических слоёв в GeoJSON
type FeatureUseCase struct {
	featureRepo     repository.FeatureRepository
	logger          *zap.Logger
	defaultPageSize int
	maxPageSize     int
}

// NewFeatureUseCase создает FeatureUseCase
func NewFeatureUseCase(featureRepo repository.FeatureRepository, cfg *config.QueryConfig, logger *zap.Logger) *FeatureUseCase {
	return &FeatureUseCase{
		featureRepo:     featureRepo,
		logger:          logger,
		defaultPageSize: cfg.DefaultPageSize,
		maxPageSize:     cfg.MaxPageSize,
	}
}

// ListLayers - имена слоёв по алфавиту
func (uc *FeatureUseCase) ListLayers() []string {
	return domain.LayerNames()
}

// ResolveLayer возвращает слой или ErrLayerNotFound
func ResolveLayer(name string) (domain.Layer, error) {
	layer, ok := domain.LookupLayer(name)
	if !ok {
		return domain.Layer{}, errors.ErrLayerNotFound.WithDetails(map[string]interface{}{
			"dataset":   name,
			"available": domain.LayerNames(),
		})
	}
	return layer, nil
}

// EffectiveLimit: 0 - размер страницы по умолчанию, иначе min(requested, потолок слоя, глобальный максимум)
func (uc *FeatureUseCase) EffectiveLimit(layer domain.Layer, requested int) (int, error) {
	if requested < 0 {
		return 0, errors.ErrInvalidLimit
	}
	limit := requested
	if limit == 0 {
		limit = uc.defaultPageSize
	}
	if layer.MaxLimit > 0 && limit > layer.MaxLimit {
		limit = layer.MaxLimit
	}
	if limit > uc.maxPageSize {
		limit = uc.maxPageSize
	}
	return limit, nil
}

// QueryByEnvelope - объекты, пересекающие прямоугольник
func (uc *FeatureUseCase) QueryByEnvelope(ctx context.Context, q domain.FeatureQuery) (*dto.FeatureCollection, error) {
	if q.Envelope == nil {
		return nil, errors.ErrInvalidBBox
	}
	q.Center = nil
	return uc.Query(ctx, q)
}

// QueryByRadius - объекты в радиусе от точки
func (uc *FeatureUseCase) QueryByRadius(ctx context.Context, q domain.FeatureQuery) (*dto.FeatureCollection, error) {
	if q.Center == nil {
		return nil, errors.ErrInvalidCoordinates
	}
	q.Envelope = nil
	return uc.Query(ctx, q)
}

// Query выполняет запрос в режиме, определяемом заполненными полями
func (uc *FeatureUseCase) Query(ctx context.Context, q domain.FeatureQuery) (*dto.FeatureCollection, error) {
	layer, err := ResolveLayer(q.Layer)
	if err != nil {
		return nil, err
	}

	mode, ok := q.Mode()
	if !ok {
		return nil, errors.ErrSpatialFilterRequired
	}
	if q.Offset < 0 {
		return nil, errors.ErrInvalidLimit
	}
	limit, err := uc.EffectiveLimit(layer, q.Limit)
	if err != nil {
		return nil, err
	}

	page := domain.PageOptions{
		Limit:           limit,
		Offset:          q.Offset,
		IncludeSourceID: !q.ExcludeSourceID,
	}
	if q.SimplifyM != nil && *q.SimplifyM > 0 && !math.IsInf(*q.SimplifyM, 0) {
		page.SimplifyM = *q.SimplifyM
	}

	started := time.Now()
	var features []domain.Feature
	switch mode {
	case domain.SpatialModeBBox:
		if !q.Envelope.Valid() {
			return nil, errors.ErrInvalidBBox
		}
		features, err = uc.featureRepo.FindByEnvelope(ctx, layer, *q.Envelope, page)
	case domain.SpatialModeRadius:
		if !q.Center.Valid() {
			return nil, errors.ErrInvalidCoordinates
		}
		if !(q.RadiusM > 0) || math.IsInf(q.RadiusM, 0) {
			return nil, errors.ErrInvalidRadius
		}
		features, err = uc.featureRepo.FindByRadius(ctx, layer, *q.Center, q.RadiusM, page)
	}
	if err != nil {
		return nil, err
	}

	metrics.FeatureQueryDuration.WithLabelValues(layer.Name, string(mode)).Observe(time.Since(started).Seconds())
	metrics.FeaturesReturned.WithLabelValues(layer.Name).Add(float64(len(features)))

	return uc.toFeatureCollection(layer, features), nil
}

// QueryDataset - логика каталога: bbox приоритетнее точки; тяжёлые слои только по bbox
func (uc *FeatureUseCase) QueryDataset(ctx context.Context, req dto.FeatureRequest) (*dto.FeatureCollection, error) {
	layer, err := ResolveLayer(req.Dataset)
	if err != nil {
		return nil, err
	}

	q := domain.FeatureQuery{
		Layer:  layer.Name,
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	if req.SimplifyM > 0 {
		s := req.SimplifyM
		q.SimplifyM = &s
	}

	if layer.BBoxRequired && req.BBox == "" {
		return nil, errors.ErrBBoxRequired.WithDetails(map[string]interface{}{"dataset": layer.Name})
	}

	switch {
	case req.BBox != "":
		env, err := geo.ParseEnvelope(req.BBox)
		if err != nil {
			return nil, errors.ErrInvalidBBox.WithMessage(err.Error())
		}
		q.Envelope = &env
	case req.Lat != nil && req.Lon != nil:
		q.Center = &domain.Point{Lat: *req.Lat, Lon: *req.Lon}
		q.RadiusM = req.RadiusM
	default:
		return nil, errors.ErrSpatialFilterRequired
	}

	return uc.Query(ctx, q)
}

func (uc *FeatureUseCase) toFeatureCollection(layer domain.Layer, features []domain.Feature) *dto.FeatureCollection {
	fc := &dto.FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]dto.Feature, 0, len(features)),
		CRS:      dto.CRS4326(),
	}

	for _, f := range features {
		props := make(map[string]interface{}, len(f.Properties)+1)
		for k, v := range f.Properties {
			props[k] = v
		}
		if f.SourceID != nil {
			props["source_id"] = *f.SourceID
		}

		out := dto.Feature{Type: "Feature", ID: f.ID, Properties: props}
		if f.Geometry != nil {
			g, err := geojson.Encode(f.Geometry)
			if err != nil {
				uc.logger.Warn("Skipping feature with unencodable geometry",
					zap.String("layer", layer.Name),
					zap.Int64("id", f.ID),
					zap.Error(err))
				continue
			}
			out.Geometry = g
		}
		fc.Features = append(fc.Features, out)
	}

	return fc
}
