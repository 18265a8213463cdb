package dto

import (
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/urban-context/internal/domain"
)

// CRS - именованная система координат GeoJSON
type CRS struct {
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties"`
}

// CRS4326 - блок crs для EPSG:4326
func CRS4326() CRS {
	return CRS{Type: "name", Properties: map[string]string{"name": "EPSG:4326"}}
}

// Feature - объект GeoJSON
type Feature struct {
	Type       string                 `json:"type"`
	ID         int64                  `json:"id"`
	Geometry   *geojson.Geometry      `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// FeatureCollection - выдача слоя
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
	CRS      CRS       `json:"crs"`
}

// DatasetList - GET /datasets
type DatasetList struct {
	Datasets []string `json:"datasets"`
}

// BBoxInfo - прямоугольник enrich и его происхождение
type BBoxInfo struct {
	domain.Envelope
	Source string `json:"source"`
}

// BBox sources
const (
	BBoxSourceUser     = "user"
	BBoxSourceComputed = "computed_from_radius"
)

// Limits - эхо ограничений запроса
type Limits struct {
	LimitRequested int            `json:"limit_requested"`
	DatasetCaps    map[string]int `json:"dataset_caps"`
	MaxRadiusM     float64        `json:"max_radius_m"`
}

// WeatherDaily - секция погоды
type WeatherDaily struct {
	Provider string                   `json:"provider"`
	Rows     []map[string]interface{} `json:"rows"`
}

// OSMMetricsResponse - OSM метрики с признаком кеша
type OSMMetricsResponse = domain.OSMMetricsResult

// Geometries: режим -> слой -> коллекция
type Geometries map[string]map[string]*FeatureCollection

// EnrichPointResponse - ответ GET /enrich/point.
// Отсутствующие секции не сериализуются; ошибки секций собраны в Errors.
type EnrichPointResponse struct {
	Point        domain.Point             `json:"point"`
	RadiusM      float64                  `json:"radius_m"`
	BBox         BBoxInfo                 `json:"bbox"`
	Limits       Limits                   `json:"limits"`
	OSM          *domain.OSMMetricsResult `json:"osm,omitempty"`
	WeatherDaily *WeatherDaily            `json:"weather_daily,omitempty"`
	ElevationM   interface{}              `json:"elevation_m,omitempty"`
	Geometries   Geometries               `json:"geometries,omitempty"`
	Errors       map[string]string        `json:"errors,omitempty"`
}

// HealthResponse - состояние зависимостей
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}
