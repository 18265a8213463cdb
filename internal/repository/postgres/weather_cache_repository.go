package postgres

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/domain/repository"
	"github.com/urban-context/internal/pkg/errors"
	"go.uber.org/zap"
)

type weatherCacheRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewWeatherCacheRepository создает репозиторий дневных записей погоды
func NewWeatherCacheRepository(db *DB) repository.WeatherCacheRepository {
	return &weatherCacheRepository{
		db:     db,
		logger: db.logger,
	}
}

type weatherDayRow struct {
	LatRound float64   `db:"lat_round"`
	LonRound float64   `db:"lon_round"`
	Date     time.Time `db:"date"`
	Provider string    `db:"provider"`
	Payload  []byte    `db:"payload"`
}

func (r *weatherCacheRepository) ListDays(
	ctx context.Context,
	key domain.BucketKey,
	provider string,
	dr domain.DateRange,
) ([]domain.WeatherRecord, error) {
	query := fmt.Sprintf(`
		SELECT lat_round, lon_round, date, provider, payload::text AS payload
		FROM %s
		WHERE lat_round = $1
			AND lon_round = $2
			AND provider = $3
			AND date >= $4
			AND date <= $5
		ORDER BY date
	`, tableWeatherDailyPoint)

	rows, err := r.db.conn(ctx).QueryxContext(ctx, query,
		key.LatRound, key.LonRound, provider,
		domain.TruncateDay(dr.Start), domain.TruncateDay(dr.End),
	)
	if err != nil {
		r.logger.Error("Failed to list weather days", zap.Error(err))
		return nil, errors.ErrServiceUnavailable
	}
	defer rows.Close()

	records := make([]domain.WeatherRecord, 0)
	for rows.Next() {
		var row weatherDayRow
		if err := rows.StructScan(&row); err != nil {
			r.logger.Error("Failed to scan weather day", zap.Error(err))
			return nil, errors.ErrServiceUnavailable
		}

		values := map[string]interface{}{}
		if len(row.Payload) > 0 {
			if err := json.Unmarshal(row.Payload, &values); err != nil {
				r.logger.Warn("Undecodable weather payload",
					zap.String("date", row.Date.Format(domain.DateLayout)),
					zap.Error(err))
			}
		}

		records = append(records, domain.WeatherRecord{
			Key:      domain.BucketKey{LatRound: row.LatRound, LonRound: row.LonRound},
			Date:     domain.TruncateDay(row.Date),
			Provider: row.Provider,
			Values:   values,
		})
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Weather rows iteration failed", zap.Error(err))
		return nil, errors.ErrServiceUnavailable
	}

	return records, nil
}

func (r *weatherCacheRepository) InsertMissing(
	ctx context.Context,
	key domain.BucketKey,
	provider string,
	days []domain.WeatherDay,
) (int, error) {
	if len(days) == 0 {
		return 0, nil
	}

	dates := make([]string, 0, len(days))
	payloads := make([]string, 0, len(days))
	for _, d := range days {
		payload, err := json.Marshal(d.Values)
		if err != nil {
			return 0, fmt.Errorf("marshal weather values for %s: %w", d.Date.Format(domain.DateLayout), err)
		}
		dates = append(dates, d.Date.Format(domain.DateLayout))
		payloads = append(payloads, string(payload))
	}

	// существующие дни не перезаписываются; параллельная вставка того же дня - no-op
	query := fmt.Sprintf(`
		INSERT INTO %s (lat_round, lon_round, date, provider, payload)
		SELECT $1, $2, d.day, $3, d.payload
		FROM unnest($4::date[], $5::jsonb[]) AS d(day, payload)
		ON CONFLICT (lat_round, lon_round, date, provider) DO NOTHING
	`, tableWeatherDailyPoint)

	res, err := r.db.conn(ctx).ExecContext(ctx, query,
		key.LatRound, key.LonRound, provider,
		pq.Array(dates), pq.Array(payloads),
	)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Debug("Weather days already stored by concurrent request",
				zap.Float64("lat_round", key.LatRound),
				zap.Float64("lon_round", key.LonRound))
			return 0, nil
		}
		r.logger.Error("Failed to insert weather days", zap.Int("days", len(days)), zap.Error(err))
		return 0, errors.ErrServiceUnavailable
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}

	r.logger.Debug("Weather days stored",
		zap.Int("requested", len(days)),
		zap.Int64("inserted", inserted))

	return int(inserted), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
