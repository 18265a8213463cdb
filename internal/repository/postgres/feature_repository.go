package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/domain/repository"
	"github.com/urban-context/internal/pkg/errors"
	"go.uber.org/zap"
)

type featureRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewFeatureRepository создает репозиторий объектов статических слоёв
func NewFeatureRepository(db *DB) repository.FeatureRepository {
	return &featureRepository{
		db:     db,
		logger: db.logger,
	}
}

// featureRow - единая форма строки любого слоя
type featureRow struct {
	ID       int64          `db:"id"`
	SourceID sql.NullString `db:"source_id"`
	Props    []byte         `db:"props"`
	GeomWKB  []byte         `db:"geom_wkb"`
}

func (r *featureRepository) FindByEnvelope(
	ctx context.Context,
	layer domain.Layer,
	env domain.Envelope,
	page domain.PageOptions,
) ([]domain.Feature, error) {
	query, args := buildEnvelopeQuery(layer, env, page)
	return r.find(ctx, layer, domain.SpatialModeBBox, query, args)
}

func (r *featureRepository) FindByRadius(
	ctx context.Context,
	layer domain.Layer,
	center domain.Point,
	radiusM float64,
	page domain.PageOptions,
) ([]domain.Feature, error) {
	query, args := buildRadiusQuery(layer, center, radiusM, page)
	return r.find(ctx, layer, domain.SpatialModeRadius, query, args)
}

func (r *featureRepository) find(
	ctx context.Context,
	layer domain.Layer,
	mode domain.SpatialMode,
	query string,
	args []interface{},
) ([]domain.Feature, error) {
	rows, err := r.db.conn(ctx).QueryxContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query features",
			zap.String("layer", layer.Name),
			zap.String("mode", string(mode)),
			zap.Error(err))
		return nil, errors.ErrServiceUnavailable
	}
	defer rows.Close()

	features := make([]domain.Feature, 0)
	for rows.Next() {
		var row featureRow
		if err := rows.StructScan(&row); err != nil {
			r.logger.Error("Failed to scan feature row", zap.String("layer", layer.Name), zap.Error(err))
			return nil, errors.ErrServiceUnavailable
		}

		f, err := row.toDomain()
		if err != nil {
			// битая строка не должна ломать всю выдачу
			r.logger.Warn("Skipping undecodable feature",
				zap.String("layer", layer.Name),
				zap.Int64("id", row.ID),
				zap.Error(err))
			continue
		}
		features = append(features, f)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Feature rows iteration failed", zap.String("layer", layer.Name), zap.Error(err))
		return nil, errors.ErrServiceUnavailable
	}

	r.logger.Debug("Features fetched",
		zap.String("layer", layer.Name),
		zap.String("mode", string(mode)),
		zap.Int("count", len(features)))

	return features, nil
}

func (row featureRow) toDomain() (domain.Feature, error) {
	f := domain.Feature{
		ID:         row.ID,
		Properties: map[string]interface{}{},
	}

	if len(row.Props) > 0 {
		dec := json.NewDecoder(bytes.NewReader(row.Props))
		dec.UseNumber()
		if err := dec.Decode(&f.Properties); err != nil {
			return domain.Feature{}, fmt.Errorf("decode props: %w", err)
		}
		if f.Properties == nil {
			f.Properties = map[string]interface{}{}
		}
	}

	if len(row.GeomWKB) > 0 {
		g, err := wkb.Unmarshal(row.GeomWKB)
		if err != nil {
			return domain.Feature{}, fmt.Errorf("decode geometry: %w", err)
		}
		f.Geometry = g
	}

	if row.SourceID.Valid {
		s := row.SourceID.String
		f.SourceID = &s
	}

	return f, nil
}

// buildEnvelopeQuery - выборка объектов, пересекающих прямоугольник
func buildEnvelopeQuery(layer domain.Layer, env domain.Envelope, page domain.PageOptions) (string, []interface{}) {
	args := []interface{}{env.MinX, env.MinY, env.MaxX, env.MaxY}
	where := fmt.Sprintf("ST_Intersects(geom, ST_MakeEnvelope($1, $2, $3, $4, %d))", SRID4326)
	return buildFeatureQuery(layer, where, args, page)
}

// buildRadiusQuery - выборка в радиусе по geography (метры по поверхности)
func buildRadiusQuery(layer domain.Layer, center domain.Point, radiusM float64, page domain.PageOptions) (string, []interface{}) {
	args := []interface{}{center.Lon, center.Lat, radiusM}
	where := fmt.Sprintf(
		"ST_DWithin(geom::geography, ST_SetSRID(ST_MakePoint($1, $2), %d)::geography, $3)",
		SRID4326,
	)
	return buildFeatureQuery(layer, where, args, page)
}

func buildFeatureQuery(layer domain.Layer, where string, args []interface{}, page domain.PageOptions) (string, []interface{}) {
	sourceCol := "NULL::text"
	if page.IncludeSourceID {
		sourceCol = "source_id"
	}

	geomExpr := "geom"
	if page.SimplifyM > 0 && layer.Simplifiable() {
		args = append(args, page.SimplifyM)
		geomExpr = fmt.Sprintf(
			"ST_Transform(ST_SimplifyPreserveTopology(ST_Transform(geom, %d), $%d), %d)",
			SRID3857, len(args), SRID4326,
		)
	}

	args = append(args, page.Limit, page.Offset)
	limitIdx, offsetIdx := len(args)-1, len(args)

	query := fmt.Sprintf(`
		SELECT
			id,
			%s AS source_id,
			COALESCE(props, '{}'::jsonb)::text AS props,
			ST_AsBinary(%s) AS geom_wkb
		FROM %s
		WHERE %s
		ORDER BY id
		LIMIT $%d OFFSET $%d
	`, sourceCol, geomExpr, layer.Table, where, limitIdx, offsetIdx)

	return query, args
}

