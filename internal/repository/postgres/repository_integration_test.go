package postgres_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/pkg/geo"
	"github.com/urban-context/internal/repository/postgres/testhelpers"
)

// RepositorySuite runs the postgres repositories against a real PostGIS database
type RepositorySuite struct {
	suite.Suite
	testDB *testhelpers.TestDB
	repos  *testhelpers.Repositories
	ctx    context.Context
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupSuite() {
	s.testDB = testhelpers.SetupTestDB(s.T())
	s.Require().NoError(testhelpers.ApplyMigrations(s.testDB.DB, "../../../migrations"))
	s.repos = s.testDB.NewRepositories()
}

func (s *RepositorySuite) TearDownSuite() {
	if s.testDB != nil {
		s.testDB.Close()
	}
}

func (s *RepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.testDB.Cleanup(s.ctx))
	s.Require().NoError(testhelpers.LoadFixtures(s.testDB.DB, "testdata", "layers.sql"))
}

func (s *RepositorySuite) layer(name string) domain.Layer {
	l, ok := domain.LookupLayer(name)
	s.Require().True(ok)
	return l
}

func (s *RepositorySuite) TestFindByEnvelope_OrderedAndPaged() {
	env := domain.Envelope{MinX: 23.32, MinY: 42.69, MaxX: 23.33, MaxY: 42.70}

	all, err := s.repos.Features.FindByEnvelope(s.ctx, s.layer(domain.LayerPOIs), env,
		domain.PageOptions{Limit: 10, IncludeSourceID: true})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Less(all[0].ID, all[1].ID)
	s.Require().NotNil(all[0].SourceID)
	s.Equal("node/1", *all[0].SourceID)
	s.Equal("Cafe Vitosha", all[0].Properties["name"])

	page, err := s.repos.Features.FindByEnvelope(s.ctx, s.layer(domain.LayerPOIs), env,
		domain.PageOptions{Limit: 1, Offset: 1})
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal(all[1].ID, page[0].ID)
	s.Nil(page[0].SourceID)
}

func (s *RepositorySuite) TestFindByRadius() {
	center := domain.Point{Lat: 42.6977, Lon: 23.3219}

	near, err := s.repos.Features.FindByRadius(s.ctx, s.layer(domain.LayerPOIs), center, 100, domain.PageOptions{Limit: 10})
	s.Require().NoError(err)
	s.Len(near, 2)

	none, err := s.repos.Features.FindByRadius(s.ctx, s.layer(domain.LayerPOIs), domain.Point{Lat: 0, Lon: 0}, 100,
		domain.PageOptions{Limit: 10})
	s.Require().NoError(err)
	s.NotNil(none)
	s.Empty(none)
}

func (s *RepositorySuite) insertPOI(sourceID string, lat, lon float64) {
	_, err := s.testDB.DB.ExecContext(s.ctx,
		`INSERT INTO pois (source_id, props, geom) VALUES ($1, '{}', ST_SetSRID(ST_MakePoint($2, $3), 4326))`,
		sourceID, lon, lat)
	s.Require().NoError(err)
}

func (s *RepositorySuite) sourceIDs(features []domain.Feature) []string {
	ids := make([]string, 0, len(features))
	for _, f := range features {
		s.Require().NotNil(f.SourceID)
		ids = append(ids, *f.SourceID)
	}
	return ids
}

// envelope corner lies inside the bbox but ~1.27 radius away on the ground
func (s *RepositorySuite) TestFindByRadius_ExcludesEnvelopeCorners() {
	const radiusM = 300.0
	center := domain.Point{Lat: 42.6977, Lon: 23.3219}
	env, err := geo.EnvelopeFromPointRadius(center.Lat, center.Lon, radiusM)
	s.Require().NoError(err)

	s.insertPOI("node/corner",
		center.Lat+0.9*(env.MaxY-center.Lat),
		center.Lon+0.9*(env.MaxX-center.Lon))

	opts := domain.PageOptions{Limit: 10, IncludeSourceID: true}

	inBox, err := s.repos.Features.FindByEnvelope(s.ctx, s.layer(domain.LayerPOIs), env, opts)
	s.Require().NoError(err)
	s.Contains(s.sourceIDs(inBox), "node/corner")

	inRadius, err := s.repos.Features.FindByRadius(s.ctx, s.layer(domain.LayerPOIs), center, radiusM, opts)
	s.Require().NoError(err)
	ids := s.sourceIDs(inRadius)
	s.NotContains(ids, "node/corner")
	s.ElementsMatch([]string{"node/1", "node/2"}, ids)
}

// at 60N a degree of longitude is half as long, radius must still be metres
func (s *RepositorySuite) TestFindByRadius_HighLatitude() {
	const radiusM = 300.0
	center := domain.Point{Lat: 60.0, Lon: 10.0}
	lonMetre := 1 / (geo.MetersPerDegree * math.Cos(center.Lat*math.Pi/180))

	s.insertPOI("node/east-inside", center.Lat, center.Lon+0.95*radiusM*lonMetre)
	s.insertPOI("node/east-outside", center.Lat, center.Lon+1.05*radiusM*lonMetre)
	s.insertPOI("node/north-inside", center.Lat+0.95*radiusM/geo.MetersPerDegree, center.Lon)

	got, err := s.repos.Features.FindByRadius(s.ctx, s.layer(domain.LayerPOIs), center, radiusM,
		domain.PageOptions{Limit: 10, IncludeSourceID: true})
	s.Require().NoError(err)
	s.ElementsMatch([]string{"node/east-inside", "node/north-inside"}, s.sourceIDs(got))
}

func (s *RepositorySuite) TestLayerMetadata() {
	meta, err := s.repos.Stats.LayerMetadata(s.ctx, s.layer(domain.LayerPOIs))
	s.Require().NoError(err)
	s.Equal(int64(3), meta.Count)
	s.Require().NotNil(meta.SRID)
	s.Equal(4326, *meta.SRID)
	s.Require().NotNil(meta.Extent)
	s.InDelta(23.3219, meta.Extent.MinX, 1e-6)
	s.Require().Len(meta.GeometryTypes, 1)
	s.Equal("ST_Point", meta.GeometryTypes[0].Type)

	empty, err := s.repos.Stats.LayerMetadata(s.ctx, s.layer(domain.LayerNeighbourhoods))
	s.Require().NoError(err)
	s.Zero(empty.Count)
	s.Nil(empty.SRID)
	s.Nil(empty.Extent)
	s.Empty(empty.GeometryTypes)
}

func (s *RepositorySuite) TestContextMetrics() {
	m, err := s.repos.Stats.ContextMetrics(s.ctx, domain.Point{Lat: 42.6977, Lon: 23.3219}, 200)
	s.Require().NoError(err)
	s.Equal(int64(1), m.BuildingsCount)
	s.Equal(int64(2), m.TreesCount)
	s.Greater(m.GreenAreaM2, 0.0)
	s.Greater(m.StreetLengthM, 0.0)
}

func (s *RepositorySuite) TestOSMSnapshots_LatestWins() {
	key := domain.BucketKey{LatRound: 42.6977, LonRound: 23.3219}
	now := time.Now().UTC().Truncate(time.Second)

	miss, err := s.repos.OSM.FindLatest(s.ctx, key, 300, now.Add(-time.Hour))
	s.Require().NoError(err)
	s.Nil(miss)

	old := &domain.OSMSnapshot{Key: key, BufferM: 300, ExtractedAt: now.Add(-10 * time.Minute),
		Metrics: domain.OSMMetrics{RoadTotalLengthM: 1, RoadLengthByClassM: map[string]float64{}}}
	fresh := &domain.OSMSnapshot{Key: key, BufferM: 300, ExtractedAt: now,
		Metrics: domain.OSMMetrics{RoadTotalLengthM: 2, RoadLengthByClassM: map[string]float64{"primary": 2}}}
	s.Require().NoError(s.repos.OSM.Insert(s.ctx, old))
	s.Require().NoError(s.repos.OSM.Insert(s.ctx, fresh))
	s.NotZero(fresh.ID)

	got, err := s.repos.OSM.FindLatest(s.ctx, key, 300, now.Add(-time.Hour))
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(fresh.ID, got.ID)
	s.Equal(2.0, got.Metrics.RoadLengthByClassM["primary"])

	other, err := s.repos.OSM.FindLatest(s.ctx, key, 500, now.Add(-time.Hour))
	s.Require().NoError(err)
	s.Nil(other)
}

func (s *RepositorySuite) TestWeatherDays_InsertMissingNeverOverwrites() {
	key := domain.BucketKey{LatRound: 42.6977, LonRound: 23.3219}
	d1 := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	n, err := s.repos.Weather.InsertMissing(s.ctx, key, domain.ProviderOpenMeteo, []domain.WeatherDay{
		{Date: d1, Values: map[string]interface{}{"temperature_2m_max": 31.2}},
	})
	s.Require().NoError(err)
	s.Equal(1, n)

	n, err = s.repos.Weather.InsertMissing(s.ctx, key, domain.ProviderOpenMeteo, []domain.WeatherDay{
		{Date: d1, Values: map[string]interface{}{"temperature_2m_max": 99.0}},
		{Date: d2, Values: map[string]interface{}{"temperature_2m_max": 29.0}},
	})
	s.Require().NoError(err)
	s.Equal(1, n)

	days, err := s.repos.Weather.ListDays(s.ctx, key, domain.ProviderOpenMeteo, domain.DateRange{Start: d1, End: d2})
	s.Require().NoError(err)
	s.Require().Len(days, 2)
	s.Equal(d1, days[0].Date)
	s.Equal(31.2, days[0].Values["temperature_2m_max"])
	s.Equal(d2, days[1].Date)
}

func (s *RepositorySuite) TestWithinTx_RollbackOnError() {
	key := domain.BucketKey{LatRound: 1, LonRound: 1}
	boom := errors.New("boom")

	err := s.repos.DB.WithinTx(s.ctx, func(ctx context.Context) error {
		s.Require().NoError(s.repos.OSM.Insert(ctx, &domain.OSMSnapshot{Key: key, BufferM: 100, ExtractedAt: time.Now()}))
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.repos.OSM.FindLatest(s.ctx, key, 100, time.Now().Add(-time.Hour))
	s.Require().NoError(err)
	s.Nil(got)
}
