package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/urban-context/internal/domain"
)

func mustLayer(t *testing.T, name string) domain.Layer {
	t.Helper()
	l, ok := domain.LookupLayer(name)
	require.True(t, ok)
	return l
}

func TestBuildEnvelopeQuery(t *testing.T) {
	env := domain.Envelope{MinX: 23.3, MinY: 42.6, MaxX: 23.4, MaxY: 42.7}

	t.Run("plain geometry without source id", func(t *testing.T) {
		query, args := buildEnvelopeQuery(mustLayer(t, domain.LayerPOIs), env, domain.PageOptions{Limit: 100, Offset: 0})

		assert.Contains(t, query, "FROM pois")
		assert.Contains(t, query, "ST_MakeEnvelope($1, $2, $3, $4, 4326)")
		assert.Contains(t, query, "NULL::text AS source_id")
		assert.Contains(t, query, "ST_AsBinary(geom)")
		assert.Contains(t, query, "ORDER BY id")
		assert.Contains(t, query, "LIMIT $5 OFFSET $6")
		assert.Equal(t, []interface{}{23.3, 42.6, 23.4, 42.7, 100, 0}, args)
	})

	t.Run("simplify polygons in metres", func(t *testing.T) {
		query, args := buildEnvelopeQuery(mustLayer(t, domain.LayerGreenAreas), env,
			domain.PageOptions{Limit: 10, Offset: 20, SimplifyM: 2.5, IncludeSourceID: true})

		assert.Contains(t, query, "source_id AS source_id")
		assert.Contains(t, query, "ST_SimplifyPreserveTopology(ST_Transform(geom, 3857), $5)")
		assert.Contains(t, query, "LIMIT $6 OFFSET $7")
		assert.Equal(t, []interface{}{23.3, 42.6, 23.4, 42.7, 2.5, 10, 20}, args)
	})

	t.Run("points are never simplified", func(t *testing.T) {
		query, args := buildEnvelopeQuery(mustLayer(t, domain.LayerTrees), env,
			domain.PageOptions{Limit: 10, SimplifyM: 5})

		assert.NotContains(t, query, "ST_SimplifyPreserveTopology")
		assert.Len(t, args, 6)
	})
}

func TestBuildRadiusQuery(t *testing.T) {
	query, args := buildRadiusQuery(mustLayer(t, domain.LayerStreets),
		domain.Point{Lat: 42.69, Lon: 23.32}, 250, domain.PageOptions{Limit: 50, Offset: 5})

	assert.Contains(t, query, "FROM streets")
	assert.Contains(t, query, "ST_DWithin(geom::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)")
	assert.Contains(t, query, "LIMIT $4 OFFSET $5")
	assert.Equal(t, []interface{}{23.32, 42.69, 250.0, 50, 5}, args)
}

func TestBuildContextMetricsQuery(t *testing.T) {
	query := buildContextMetricsQuery()

	for _, table := range []string{"buildings", "trees", "green_areas", "streets"} {
		assert.Contains(t, query, "FROM "+table)
	}
	assert.Contains(t, query, "ST_Transform(ST_Buffer(g::geography, $3)::geometry, 32635)")
	assert.Contains(t, query, "AS street_length_m")
}

func TestFeatureRowToDomain(t *testing.T) {
	pt := geom.NewPointFlat(geom.XY, []float64{23.32, 42.69}).SetSRID(4326)
	raw, err := wkb.Marshal(pt, wkb.NDR)
	require.NoError(t, err)

	t.Run("decodes props, geometry and source id", func(t *testing.T) {
		row := featureRow{ID: 7, Props: []byte(`{"name":"park","height":12}`), GeomWKB: raw}
		row.SourceID.String, row.SourceID.Valid = "osm/123", true

		f, err := row.toDomain()
		require.NoError(t, err)

		assert.Equal(t, int64(7), f.ID)
		require.NotNil(t, f.SourceID)
		assert.Equal(t, "osm/123", *f.SourceID)
		assert.Equal(t, "park", f.Properties["name"])
		assert.Equal(t, "12", f.Properties["height"].(interface{ String() string }).String())
		assert.Equal(t, []float64{23.32, 42.69}, f.Geometry.FlatCoords())
	})

	t.Run("null props become empty object", func(t *testing.T) {
		f, err := featureRow{ID: 1, Props: []byte(`null`), GeomWKB: raw}.toDomain()
		require.NoError(t, err)
		assert.NotNil(t, f.Properties)
		assert.Empty(t, f.Properties)
		assert.Nil(t, f.SourceID)
	})

	t.Run("broken geometry is an error", func(t *testing.T) {
		_, err := featureRow{ID: 1, GeomWKB: []byte{0x01, 0x02}}.toDomain()
		assert.Error(t, err)
	})
}
