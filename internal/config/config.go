package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Query     QueryConfig
	Enrich    EnrichConfig
	Overpass  OverpassConfig
	OpenMeteo OpenMeteoConfig
	Log       LogConfig
	Worker    WorkerConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig - TTL и точность округления для точечных кешей
type CacheConfig struct {
	OSMTTL           time.Duration
	WeatherTTL       time.Duration
	OSMDecimals      int
	WeatherDecimals  int
	MetadataTTL      time.Duration
	OSMDedupeCompute bool
}

type QueryConfig struct {
	DefaultPageSize     int
	MaxPageSize         int
	GeometryConcurrency int
}

type EnrichConfig struct {
	MaxRadiusM      float64
	DefaultRadiusM  float64
	DefaultLimit    int
	DefaultDatasets []string
}

type OverpassConfig struct {
	URL               string
	Timeout           time.Duration
	MaxRetries        int
	Backoff           time.Duration
	RateLimitDelay    time.Duration
	RequestsPerSecond float64
}

type OpenMeteoConfig struct {
	ArchiveURL string
	Timeout    time.Duration
	Timezone   string
	MaxRetries int
	Backoff    time.Duration
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	StreamReadTimeout time.Duration
	BatchSize         int
	MaxRetries        int
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && !isMissingConfig(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("API_HOST"),
			Port: viper.GetInt("API_PORT"),
			Env:  viper.GetString("API_ENV"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			OSMTTL:           time.Duration(viper.GetInt("OSM_CACHE_TTL_DAYS")) * 24 * time.Hour,
			WeatherTTL:       time.Duration(viper.GetInt("WEATHER_CACHE_TTL_DAYS")) * 24 * time.Hour,
			OSMDecimals:      viper.GetInt("OSM_ROUND_DECIMALS"),
			WeatherDecimals:  viper.GetInt("WEATHER_ROUND_DECIMALS"),
			MetadataTTL:      time.Duration(viper.GetInt("METADATA_CACHE_TTL")) * time.Second,
			OSMDedupeCompute: viper.GetBool("OSM_DEDUPE_COMPUTE"),
		},
		Query: QueryConfig{
			DefaultPageSize:     viper.GetInt("QUERY_DEFAULT_PAGE_SIZE"),
			MaxPageSize:         viper.GetInt("QUERY_MAX_PAGE_SIZE"),
			GeometryConcurrency: viper.GetInt("GEOMETRY_CONCURRENCY"),
		},
		Enrich: EnrichConfig{
			MaxRadiusM:      viper.GetFloat64("ENRICH_MAX_RADIUS_M"),
			DefaultRadiusM:  viper.GetFloat64("ENRICH_DEFAULT_RADIUS_M"),
			DefaultLimit:    viper.GetInt("ENRICH_DEFAULT_LIMIT"),
			DefaultDatasets: ParseList(viper.GetString("ENRICH_DEFAULT_DATASETS")),
		},
		Overpass: OverpassConfig{
			URL:               viper.GetString("OVERPASS_URL"),
			Timeout:           time.Duration(viper.GetInt("OVERPASS_TIMEOUT")) * time.Second,
			MaxRetries:        viper.GetInt("OVERPASS_MAX_RETRIES"),
			Backoff:           time.Duration(viper.GetFloat64("OVERPASS_BACKOFF") * float64(time.Second)),
			RateLimitDelay:    time.Duration(viper.GetFloat64("OVERPASS_RATE_LIMIT_DELAY") * float64(time.Second)),
			RequestsPerSecond: viper.GetFloat64("OVERPASS_REQUESTS_PER_SECOND"),
		},
		OpenMeteo: OpenMeteoConfig{
			ArchiveURL: viper.GetString("OPENMETEO_ARCHIVE_URL"),
			Timeout:    time.Duration(viper.GetInt("OPENMETEO_TIMEOUT")) * time.Second,
			Timezone:   viper.GetString("OPENMETEO_TIMEZONE"),
			MaxRetries: viper.GetInt("OPENMETEO_MAX_RETRIES"),
			Backoff:    time.Duration(viper.GetFloat64("OPENMETEO_BACKOFF") * float64(time.Second)),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:           viper.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     viper.GetString("WORKER_CONSUMER_GROUP"),
			StreamReadTimeout: time.Duration(viper.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			BatchSize:         viper.GetInt("WORKER_BATCH_SIZE"),
			MaxRetries:        viper.GetInt("WORKER_MAX_RETRIES"),
		},
	}

	cfg.applyDefaults()

	return cfg, nil
}

// applyDefaults - значения по умолчанию для незаданных параметров
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Cache.OSMTTL == 0 {
		c.Cache.OSMTTL = 30 * 24 * time.Hour
	}
	if c.Cache.WeatherTTL == 0 {
		c.Cache.WeatherTTL = 90 * 24 * time.Hour
	}
	if c.Cache.OSMDecimals == 0 {
		c.Cache.OSMDecimals = 5
	}
	if c.Cache.WeatherDecimals == 0 {
		c.Cache.WeatherDecimals = 4
	}
	if c.Cache.MetadataTTL == 0 {
		c.Cache.MetadataTTL = time.Hour
	}

	if c.Query.DefaultPageSize == 0 {
		c.Query.DefaultPageSize = 5000
	}
	if c.Query.MaxPageSize == 0 {
		c.Query.MaxPageSize = 50000
	}
	if c.Query.GeometryConcurrency == 0 {
		c.Query.GeometryConcurrency = 4
	}

	if c.Enrich.MaxRadiusM == 0 {
		c.Enrich.MaxRadiusM = 1000
	}
	if c.Enrich.DefaultRadiusM == 0 {
		c.Enrich.DefaultRadiusM = 300
	}
	if c.Enrich.DefaultLimit == 0 {
		c.Enrich.DefaultLimit = 2000
	}
	if len(c.Enrich.DefaultDatasets) == 0 {
		c.Enrich.DefaultDatasets = []string{"streets", "green_areas", "pois"}
	}

	if c.Overpass.URL == "" {
		c.Overpass.URL = "https://overpass-api.de/api/interpreter"
	}
	if c.Overpass.Timeout == 0 {
		c.Overpass.Timeout = 60 * time.Second
	}
	if c.Overpass.MaxRetries == 0 {
		c.Overpass.MaxRetries = 3
	}
	if c.Overpass.Backoff == 0 {
		c.Overpass.Backoff = 2 * time.Second
	}
	if c.Overpass.RateLimitDelay == 0 {
		c.Overpass.RateLimitDelay = 2 * time.Second
	}
	if c.Overpass.RequestsPerSecond == 0 {
		c.Overpass.RequestsPerSecond = 1
	}

	if c.OpenMeteo.ArchiveURL == "" {
		c.OpenMeteo.ArchiveURL = "https://archive-api.open-meteo.com/v1/archive"
	}
	if c.OpenMeteo.Timeout == 0 {
		c.OpenMeteo.Timeout = 30 * time.Second
	}
	if c.OpenMeteo.Timezone == "" {
		c.OpenMeteo.Timezone = "Europe/Sofia"
	}
	if c.OpenMeteo.MaxRetries == 0 {
		c.OpenMeteo.MaxRetries = 3
	}
	if c.OpenMeteo.Backoff == 0 {
		c.OpenMeteo.Backoff = 2 * time.Second
	}

	if c.Worker.ConsumerGroup == "" {
		c.Worker.ConsumerGroup = "context-prefetch-workers"
	}
	if c.Worker.StreamReadTimeout == 0 {
		c.Worker.StreamReadTimeout = 5000 * time.Millisecond
	}
	if c.Worker.BatchSize == 0 {
		c.Worker.BatchSize = 10
	}
	if c.Worker.MaxRetries == 0 {
		c.Worker.MaxRetries = 3
	}
}

// isMissingConfig - отсутствие .env не считается ошибкой, значения берутся из окружения
func isMissingConfig(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// ParseList разбирает список через запятую, пропуская пустые элементы
func ParseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
