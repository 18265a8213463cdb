package testhelpers

import (
	"github.com/urban-context/internal/domain/repository"
	"github.com/urban-context/internal/repository/postgres"
)

// Repositories - набор репозиториев поверх тестовой БД
type Repositories struct {
	DB       *postgres.DB
	Features repository.FeatureRepository
	Stats    repository.StatsRepository
	OSM      repository.OSMMetricsRepository
	Weather  repository.WeatherCacheRepository
}

// NewRepositories wires every postgres repository to the test database
func (tdb *TestDB) NewRepositories() *Repositories {
	db := postgres.NewDBForTest(tdb.DB, tdb.Logger)
	return &Repositories{
		DB:       db,
		Features: postgres.NewFeatureRepository(db),
		Stats:    postgres.NewStatsRepository(db),
		OSM:      postgres.NewOSMMetricsRepository(db),
		Weather:  postgres.NewWeatherCacheRepository(db),
	}
}
