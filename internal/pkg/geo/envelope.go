// Package geo содержит геодезические утилиты: конверт по точке и радиусу,
// округление координат для ключей кеша и проекцию в Web Mercator.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/urban-context/internal/domain"
)

// MetersPerDegree - длина одного градуса широты в метрах.
// Долгота масштабируется на cos(lat); приближение корректно до ~1 км.
const MetersPerDegree = 111320.0

// poleEpsilon - cos(lat) ниже этого порога считается нулём
const poleEpsilon = 1e-9

// EnvelopeFromPointRadius строит прямоугольник вокруг точки с полуразмером radiusM
func EnvelopeFromPointRadius(lat, lon, radiusM float64) (domain.Envelope, error) {
	if !(domain.Point{Lat: lat, Lon: lon}).Valid() {
		return domain.Envelope{}, fmt.Errorf("invalid coordinates: lat=%v lon=%v", lat, lon)
	}
	if math.IsNaN(radiusM) || math.IsInf(radiusM, 0) || radiusM <= 0 {
		return domain.Envelope{}, fmt.Errorf("radius must be positive, got %v", radiusM)
	}

	cosLat := math.Cos(lat * math.Pi / 180)
	if math.Abs(cosLat) < poleEpsilon {
		return domain.Envelope{}, fmt.Errorf("longitude delta is not finite at lat=%v", lat)
	}

	dLat := radiusM / MetersPerDegree
	dLon := radiusM / (MetersPerDegree * cosLat)
	if math.IsNaN(dLon) || math.IsInf(dLon, 0) || dLon <= 0 || dLon > 180 {
		return domain.Envelope{}, fmt.Errorf("longitude delta is not finite at lat=%v", lat)
	}

	return domain.Envelope{
		MinX: lon - dLon,
		MinY: lat - dLat,
		MaxX: lon + dLon,
		MaxY: lat + dLat,
	}, nil
}

// ParseEnvelope разбирает строку "minx,miny,maxx,maxy" (lon/lat, EPSG:4326)
func ParseEnvelope(value string) (domain.Envelope, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return domain.Envelope{}, fmt.Errorf("bbox must have 4 comma-separated values: minx,miny,maxx,maxy")
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.Envelope{}, fmt.Errorf("bbox value %q is not a number", strings.TrimSpace(p))
		}
		v[i] = f
	}

	env := domain.Envelope{MinX: v[0], MinY: v[1], MaxX: v[2], MaxY: v[3]}
	if !env.Valid() {
		return domain.Envelope{}, fmt.Errorf("bbox invalid: ensure minx<maxx and miny<maxy")
	}
	return env, nil
}
