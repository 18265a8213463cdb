package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/domain/repository"
	"github.com/urban-context/internal/pkg/errors"
	"go.uber.org/zap"
)

type statsRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewStatsRepository создает новый экземпляр stats repository
func NewStatsRepository(db *DB) repository.StatsRepository {
	return &statsRepository{
		db:     db,
		logger: db.logger,
	}
}

type extentRow struct {
	MinX sql.NullFloat64 `db:"minx"`
	MinY sql.NullFloat64 `db:"miny"`
	MaxX sql.NullFloat64 `db:"maxx"`
	MaxY sql.NullFloat64 `db:"maxy"`
}

// LayerMetadata возвращает сводку по таблице слоя
func (r *statsRepository) LayerMetadata(ctx context.Context, layer domain.Layer) (*domain.LayerMetadata, error) {
	meta := &domain.LayerMetadata{
		Dataset:       layer.Name,
		Table:         layer.Table,
		GeometryTypes: []domain.GeometryTypeCount{},
	}
	conn := r.db.conn(ctx)

	if err := conn.QueryRowxContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s`, layer.Table),
	).Scan(&meta.Count); err != nil {
		r.logger.Error("Failed to count layer", zap.String("layer", layer.Name), zap.Error(err))
		return nil, errors.ErrServiceUnavailable
	}

	var srid sql.NullInt64
	err := conn.QueryRowxContext(ctx,
		fmt.Sprintf(`SELECT ST_SRID(geom) FROM %s WHERE geom IS NOT NULL LIMIT 1`, layer.Table),
	).Scan(&srid)
	if err != nil && !stderrors.Is(err, sql.ErrNoRows) {
		r.logger.Error("Failed to read layer SRID", zap.String("layer", layer.Name), zap.Error(err))
		return nil, errors.ErrServiceUnavailable
	}
	if srid.Valid {
		v := int(srid.Int64)
		meta.SRID = &v
	}

	var ext extentRow
	if err := conn.QueryRowxContext(ctx, fmt.Sprintf(`
		SELECT ST_XMin(e) AS minx, ST_YMin(e) AS miny, ST_XMax(e) AS maxx, ST_YMax(e) AS maxy
		FROM (SELECT ST_Extent(geom)::box2d AS e FROM %s) AS x
	`, layer.Table)).StructScan(&ext); err != nil {
		r.logger.Error("Failed to read layer extent", zap.String("layer", layer.Name), zap.Error(err))
		return nil, errors.ErrServiceUnavailable
	}
	if ext.MinX.Valid && ext.MinY.Valid && ext.MaxX.Valid && ext.MaxY.Valid {
		meta.Extent = &domain.Envelope{
			MinX: ext.MinX.Float64,
			MinY: ext.MinY.Float64,
			MaxX: ext.MaxX.Float64,
			MaxY: ext.MaxY.Float64,
		}
	}

	rows, err := conn.QueryxContext(ctx, fmt.Sprintf(`
		SELECT ST_GeometryType(geom) AS type, COUNT(*) AS count
		FROM %s
		WHERE geom IS NOT NULL
		GROUP BY ST_GeometryType(geom)
		ORDER BY count DESC, type
	`, layer.Table))
	if err != nil {
		r.logger.Error("Failed to read geometry types", zap.String("layer", layer.Name), zap.Error(err))
		return nil, errors.ErrServiceUnavailable
	}
	defer rows.Close()

	for rows.Next() {
		var gt domain.GeometryTypeCount
		if err := rows.StructScan(&gt); err != nil {
			r.logger.Error("Failed to scan geometry type", zap.Error(err))
			return nil, errors.ErrServiceUnavailable
		}
		meta.GeometryTypes = append(meta.GeometryTypes, gt)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ErrServiceUnavailable
	}

	return meta, nil
}

type contextMetricsRow struct {
	BuildingsCount int64   `db:"buildings_count"`
	TreesCount     int64   `db:"trees_count"`
	GreenAreaM2    float64 `db:"green_area_m2"`
	StreetLengthM  float64 `db:"street_length_m"`
}

// ContextMetrics считает агрегаты статических слоёв в радиусе от точки
func (r *statsRepository) ContextMetrics(ctx context.Context, center domain.Point, radiusM float64) (*domain.ContextMetrics, error) {
	var row contextMetricsRow
	err := r.db.conn(ctx).QueryRowxContext(ctx, buildContextMetricsQuery(), center.Lon, center.Lat, radiusM).StructScan(&row)
	if err != nil {
		r.logger.Error("Failed to compute context metrics",
			zap.Float64("lat", center.Lat),
			zap.Float64("lon", center.Lon),
			zap.Float64("radius_m", radiusM),
			zap.Error(err))
		return nil, errors.ErrServiceUnavailable
	}

	return &domain.ContextMetrics{
		Point:          center,
		RadiusM:        radiusM,
		BuildingsCount: row.BuildingsCount,
		TreesCount:     row.TreesCount,
		GreenAreaM2:    row.GreenAreaM2,
		StreetLengthM:  row.StreetLengthM,
	}, nil
}

// buildContextMetricsQuery - $1 lon, $2 lat, $3 радиус в метрах
func buildContextMetricsQuery() string {
	return fmt.Sprintf(`
		WITH pt AS (
			SELECT ST_SetSRID(ST_MakePoint($1, $2), %[1]d) AS g
		),
		buf AS (
			SELECT ST_Transform(ST_Buffer(g::geography, $3)::geometry, %[2]d) AS g FROM pt
		)
		SELECT
			(SELECT COUNT(*) FROM %[3]s b, pt
				WHERE ST_DWithin(b.geom::geography, pt.g::geography, $3)) AS buildings_count,
			(SELECT COUNT(*) FROM %[4]s t, pt
				WHERE ST_DWithin(t.geom::geography, pt.g::geography, $3)) AS trees_count,
			(SELECT COALESCE(SUM(ST_Area(ST_Intersection(ST_Transform(a.geom, %[2]d), buf.g))), 0)
				FROM %[5]s a, pt, buf
				WHERE ST_DWithin(a.geom::geography, pt.g::geography, $3)) AS green_area_m2,
			(SELECT COALESCE(SUM(ST_Length(ST_Intersection(ST_Transform(s.geom, %[2]d), buf.g))), 0)
				FROM %[6]s s, pt, buf
				WHERE ST_DWithin(s.geom::geography, pt.g::geography, $3)) AS street_length_m
	`, SRID4326, SRID32635,
		domain.LayerBuildings, domain.LayerTrees, domain.LayerGreenAreas, domain.LayerStreets)
}
