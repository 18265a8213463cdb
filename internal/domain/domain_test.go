package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_Valid(t *testing.T) {
	assert.True(t, Envelope{MinX: 23.3, MinY: 42.6, MaxX: 23.4, MaxY: 42.7}.Valid())
	assert.False(t, Envelope{MinX: 23.4, MinY: 42.6, MaxX: 23.3, MaxY: 42.7}.Valid())
	assert.False(t, Envelope{MinX: 23.3, MinY: 42.6, MaxX: 23.3, MaxY: 42.7}.Valid())
	assert.False(t, Envelope{MinX: math.NaN(), MinY: 42.6, MaxX: 23.3, MaxY: 42.7}.Valid())
}

func TestDateRange_Days(t *testing.T) {
	start, err := ParseDate("2024-08-01")
	require.NoError(t, err)
	end, err := ParseDate("2024-08-03")
	require.NoError(t, err)

	days := DateRange{Start: start, End: end}.Days()
	require.Len(t, days, 3)
	assert.Equal(t, "2024-08-01", days[0].Format(DateLayout))
	assert.Equal(t, "2024-08-03", days[2].Format(DateLayout))

	assert.Nil(t, DateRange{Start: end, End: start}.Days())
	assert.Len(t, DateRange{Start: start, End: start}.Days(), 1)
}

func TestDateRange_CrossesMonth(t *testing.T) {
	start := time.Date(2024, 2, 28, 15, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)

	days := DateRange{Start: start, End: end}.Days()
	require.Len(t, days, 3)
	assert.Equal(t, "2024-02-29", days[1].Format(DateLayout))
}

func TestLayers(t *testing.T) {
	assert.Equal(t, []string{
		"buildings", "green_areas", "neighbourhoods", "pedestrian_network", "pois", "streets", "trees",
	}, LayerNames())

	assert.Equal(t, []string{"rivers", "roads"}, UnknownLayers([]string{"pois", "rivers", "trees", "roads"}))
	assert.Empty(t, UnknownLayers([]string{"pois"}))

	trees, ok := LookupLayer(LayerTrees)
	require.True(t, ok)
	assert.False(t, trees.Simplifiable())
	assert.True(t, trees.BBoxRequired)

	caps := LayerCaps()
	assert.Equal(t, 10000, caps[LayerTrees])
	assert.Equal(t, 20000, caps[LayerPOIs])
	_, hasNeighbourhoods := caps[LayerNeighbourhoods]
	assert.False(t, hasNeighbourhoods)

	assert.Equal(t, []string{
		"buildings", "green_areas", "pedestrian_network", "pois", "streets", "trees",
	}, EnrichDatasetNames())
	assert.Equal(t, []string{"neighbourhoods", "rivers"},
		UnknownEnrichDatasets([]string{"pois", "neighbourhoods", "rivers"}))
}

func TestWeatherRecord_Row(t *testing.T) {
	d, _ := ParseDate("2024-08-02")
	rec := WeatherRecord{
		Key:      BucketKey{LatRound: 42.69, LonRound: 23.32},
		Date:     d,
		Provider: ProviderOpenMeteo,
		Values:   map[string]interface{}{"temperature_2m_max": 31.2, "elevation_m": 550.0},
	}

	row := rec.Row()
	assert.Equal(t, "2024-08-02", row["date"])
	assert.Equal(t, 42.69, row["lat_round"])
	assert.Equal(t, "openmeteo", row["provider"])
	assert.Equal(t, 31.2, row["temperature_2m_max"])
}

func TestFeatureQuery_Mode(t *testing.T) {
	env := &Envelope{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}
	center := &Point{Lat: 1, Lon: 1}

	mode, ok := FeatureQuery{Envelope: env}.Mode()
	assert.True(t, ok)
	assert.Equal(t, SpatialModeBBox, mode)

	mode, ok = FeatureQuery{Center: center, RadiusM: 10}.Mode()
	assert.True(t, ok)
	assert.Equal(t, SpatialModeRadius, mode)

	_, ok = FeatureQuery{Envelope: env, Center: center}.Mode()
	assert.False(t, ok)
	_, ok = FeatureQuery{}.Mode()
	assert.False(t, ok)
}
