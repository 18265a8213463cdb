package geo

import (
	"math"

	"github.com/twpayne/go-geom"
	"github.com/urban-context/internal/domain"
)

const (
	earthRadiusM = 6378137.0
	// maxMercatorLat - предел широты EPSG:3857
	maxMercatorLat = 85.05112878
)

// ToWebMercator проецирует lon/lat (EPSG:4326) в метры EPSG:3857
func ToWebMercator(lon, lat float64) (x, y float64) {
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
	x = earthRadiusM * lon * math.Pi / 180
	y = earthRadiusM * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))
	return x, y
}

// MercatorLineString строит линию в EPSG:3857 из пути Overpass.
// Точки без координат пропускаются; для < 2 точек возвращается nil.
func MercatorLineString(path []*domain.LatLon) *geom.LineString {
	flat := make([]float64, 0, len(path)*2)
	for _, p := range path {
		if p == nil {
			continue
		}
		x, y := ToWebMercator(p.Lon, p.Lat)
		flat = append(flat, x, y)
	}
	if len(flat) < 4 {
		return nil
	}
	return geom.NewLineStringFlat(geom.XY, flat)
}

// Round округляет до decimals знаков (для метрик в метрах)
func Round(x float64, decimals int) float64 {
	return Quantize(x, decimals)
}
