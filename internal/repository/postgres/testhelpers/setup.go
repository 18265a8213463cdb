package testhelpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// TestDB represents a test database connection
type TestDB struct {
	DB     *sqlx.DB
	Logger *zap.Logger
}

// Tables truncated between suites, cache tables first
var cleanupTables = []string{
	"weather_daily_point",
	"osm_metrics_point",
	"pois",
	"trees",
	"pedestrian_network",
	"streets",
	"neighbourhoods",
	"green_areas",
	"buildings",
}

// SetupTestDB connects to the PostGIS test database.
// The test is skipped when the database is not reachable, so unit runs stay green without docker.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5433"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "urban_context_test"),
		getEnv("TEST_DB_SSLMODE", "disable"),
	)

	var db *sqlx.DB
	var err error
	retryDelay := 200 * time.Millisecond
	for i := 0; i < 3; i++ {
		db, err = sqlx.Connect("pgx", connStr)
		if err == nil {
			break
		}
		time.Sleep(retryDelay)
		retryDelay *= 2
	}
	if err != nil {
		t.Skipf("test database not available: %v", err)
	}

	var version string
	if err := db.Get(&version, "SELECT PostGIS_Version()"); err != nil {
		db.Close()
		t.Skipf("PostGIS not available: %v", err)
	}
	t.Logf("PostGIS version: %s", version)

	return &TestDB{
		DB:     db,
		Logger: zap.NewNop(),
	}
}

// Close closes the database connection
func (tdb *TestDB) Close() {
	if tdb.DB != nil {
		tdb.DB.Close()
	}
}

// Cleanup truncates layer and cache tables
func (tdb *TestDB) Cleanup(ctx context.Context) error {
	for _, table := range cleanupTables {
		if _, err := tdb.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
