package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/domain/repository"
	"github.com/urban-context/internal/pkg/errors"
	"go.uber.org/zap"
)

type osmMetricsRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewOSMMetricsRepository создает репозиторий снимков OSM метрик
func NewOSMMetricsRepository(db *DB) repository.OSMMetricsRepository {
	return &osmMetricsRepository{
		db:     db,
		logger: db.logger,
	}
}

type osmSnapshotRow struct {
	ID          int64     `db:"id"`
	LatRound    float64   `db:"lat_round"`
	LonRound    float64   `db:"lon_round"`
	BufferM     int       `db:"buffer_m"`
	ExtractedAt time.Time `db:"extracted_at"`
	Metrics     []byte    `db:"metrics"`
}

func (r *osmMetricsRepository) FindLatest(
	ctx context.Context,
	key domain.BucketKey,
	bufferM int,
	notBefore time.Time,
) (*domain.OSMSnapshot, error) {
	query := fmt.Sprintf(`
		SELECT id, lat_round, lon_round, buffer_m, extracted_at, metrics::text AS metrics
		FROM %s
		WHERE lat_round = $1
			AND lon_round = $2
			AND buffer_m = $3
			AND extracted_at >= $4
		ORDER BY extracted_at DESC, id DESC
		LIMIT 1
	`, tableOSMMetricsPoint)

	var row osmSnapshotRow
	err := r.db.conn(ctx).QueryRowxContext(ctx, query, key.LatRound, key.LonRound, bufferM, notBefore).StructScan(&row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to lookup OSM snapshot",
			zap.Float64("lat_round", key.LatRound),
			zap.Float64("lon_round", key.LonRound),
			zap.Int("buffer_m", bufferM),
			zap.Error(err))
		return nil, errors.ErrServiceUnavailable
	}

	var metrics domain.OSMMetrics
	if err := json.Unmarshal(row.Metrics, &metrics); err != nil {
		// нечитаемый снимок считается промахом, его заменит новый расчёт
		r.logger.Warn("Ignoring undecodable OSM snapshot", zap.Int64("id", row.ID), zap.Error(err))
		return nil, nil
	}

	return &domain.OSMSnapshot{
		ID:          row.ID,
		Key:         domain.BucketKey{LatRound: row.LatRound, LonRound: row.LonRound},
		BufferM:     row.BufferM,
		ExtractedAt: row.ExtractedAt,
		Metrics:     metrics,
	}, nil
}

func (r *osmMetricsRepository) Insert(ctx context.Context, snapshot *domain.OSMSnapshot) error {
	payload, err := json.Marshal(snapshot.Metrics)
	if err != nil {
		return fmt.Errorf("marshal osm metrics: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (lat_round, lon_round, buffer_m, extracted_at, metrics)
		VALUES ($1, $2, $3, $4, $5::jsonb)
		RETURNING id
	`, tableOSMMetricsPoint)

	err = r.db.conn(ctx).QueryRowxContext(ctx, query,
		snapshot.Key.LatRound,
		snapshot.Key.LonRound,
		snapshot.BufferM,
		snapshot.ExtractedAt,
		string(payload),
	).Scan(&snapshot.ID)
	if err != nil {
		r.logger.Error("Failed to insert OSM snapshot",
			zap.Float64("lat_round", snapshot.Key.LatRound),
			zap.Float64("lon_round", snapshot.Key.LonRound),
			zap.Error(err))
		return errors.ErrServiceUnavailable
	}

	r.logger.Debug("OSM snapshot stored", zap.Int64("id", snapshot.ID))
	return nil
}
