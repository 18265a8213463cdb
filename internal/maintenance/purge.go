package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urban-context/internal/config"
	"github.com/urban-context/internal/domain"
	"go.uber.org/zap"
)

// Pool - подмножество pgxpool.Pool, которое нужно очистке
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ Pool = (*pgxpool.Pool)(nil)

const (
	countOSMSQL      = `SELECT count(*) FROM osm_metrics_point WHERE extracted_at < $1`
	deleteOSMSQL     = `DELETE FROM osm_metrics_point WHERE extracted_at < $1`
	countWeatherSQL  = `SELECT count(*) FROM weather_daily_point WHERE date < $1`
	deleteWeatherSQL = `DELETE FROM weather_daily_point WHERE date < $1`
)

// PurgeResult - число удалённых (или подлежащих удалению при dry-run) строк
type PurgeResult struct {
	OSMSnapshots  int64
	WeatherRows   int64
	OSMCutoff     time.Time
	WeatherCutoff time.Time
	DryRun        bool
}

// Purger удаляет устаревшие записи точечных кешей
type Purger struct {
	pool   Pool
	cfg    config.CacheConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewPurger(pool Pool, cfg config.CacheConfig, logger *zap.Logger) *Purger {
	return &Purger{
		pool:   pool,
		cfg:    cfg,
		logger: logger.With(zap.String("component", "purger")),
		now:    time.Now,
	}
}

// SetClock подменяет источник времени
func (p *Purger) SetClock(now func() time.Time) {
	p.now = now
}

// Cutoffs возвращает границы устаревания: момент для OSM-снимков и дату для погоды
func (p *Purger) Cutoffs() (osmCutoff, weatherCutoff time.Time) {
	now := p.now().UTC()
	osmCutoff = now.Add(-p.cfg.OSMTTL)
	weatherCutoff = domain.TruncateDay(now.Add(-p.cfg.WeatherTTL))
	return osmCutoff, weatherCutoff
}

// Purge удаляет OSM-снимки старше OSM TTL и дни погоды старше today - weather TTL.
// При dryRun только считает строки.
func (p *Purger) Purge(ctx context.Context, dryRun bool) (*PurgeResult, error) {
	osmCutoff, weatherCutoff := p.Cutoffs()
	res := &PurgeResult{OSMCutoff: osmCutoff, WeatherCutoff: weatherCutoff, DryRun: dryRun}

	var err error
	if dryRun {
		if res.OSMSnapshots, err = p.count(ctx, countOSMSQL, osmCutoff); err != nil {
			return nil, fmt.Errorf("count osm snapshots: %w", err)
		}
		if res.WeatherRows, err = p.count(ctx, countWeatherSQL, weatherCutoff); err != nil {
			return nil, fmt.Errorf("count weather rows: %w", err)
		}
	} else {
		if res.OSMSnapshots, err = p.delete(ctx, deleteOSMSQL, osmCutoff); err != nil {
			return nil, fmt.Errorf("delete osm snapshots: %w", err)
		}
		if res.WeatherRows, err = p.delete(ctx, deleteWeatherSQL, weatherCutoff); err != nil {
			return nil, fmt.Errorf("delete weather rows: %w", err)
		}
	}

	p.logger.Info("Cache purge finished",
		zap.Bool("dry_run", dryRun),
		zap.Time("osm_cutoff", osmCutoff),
		zap.String("weather_cutoff", weatherCutoff.Format(domain.DateLayout)),
		zap.Int64("osm_snapshots", res.OSMSnapshots),
		zap.Int64("weather_rows", res.WeatherRows))

	return res, nil
}

func (p *Purger) count(ctx context.Context, sql string, cutoff time.Time) (int64, error) {
	var n int64
	if err := p.pool.QueryRow(ctx, sql, cutoff).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *Purger) delete(ctx context.Context, sql string, cutoff time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, sql, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// NewPool открывает pgxpool по настройкам БД
func NewPool(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
