package domain

import "github.com/twpayne/go-geom"

// Feature - объект статического слоя в EPSG:4326
type Feature struct {
	ID         int64
	SourceID   *string
	Properties map[string]interface{}
	Geometry   geom.T
}

// PageOptions - пагинация и упрощение для запроса объектов слоя
type PageOptions struct {
	Limit           int
	Offset          int
	SimplifyM       float64
	IncludeSourceID bool
}

// SpatialMode - режим пространственного фильтра
type SpatialMode string

const (
	SpatialModeBBox   SpatialMode = "bbox"
	SpatialModeRadius SpatialMode = "radius"
)

// FeatureQuery - запрос к слою: либо Envelope, либо Center+RadiusM
type FeatureQuery struct {
	Layer     string
	Envelope  *Envelope
	Center    *Point
	RadiusM   float64
	Limit     int
	Offset    int
	SimplifyM *float64
	// ExcludeSourceID отключает добавление source_id в свойства
	ExcludeSourceID bool
}

// Mode определяет режим запроса по заполненным полям
func (q FeatureQuery) Mode() (SpatialMode, bool) {
	switch {
	case q.Envelope != nil && q.Center == nil:
		return SpatialModeBBox, true
	case q.Center != nil && q.Envelope == nil:
		return SpatialModeRadius, true
	default:
		return "", false
	}
}

// GeometryTypeCount - количество объектов по типу геометрии
type GeometryTypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// LayerMetadata - сводка по таблице слоя
type LayerMetadata struct {
	Dataset       string              `json:"dataset"`
	Table         string              `json:"table"`
	Count         int64               `json:"count"`
	SRID          *int                `json:"srid"`
	Extent        *Envelope           `json:"extent"`
	GeometryTypes []GeometryTypeCount `json:"geometry_types"`
}

// ContextMetrics - агрегаты статических слоёв вокруг точки
type ContextMetrics struct {
	Point          Point   `json:"point"`
	RadiusM        float64 `json:"radius_m"`
	BuildingsCount int64   `json:"buildings_count"`
	TreesCount     int64   `json:"trees_count"`
	GreenAreaM2    float64 `json:"green_area_m2"`
	StreetLengthM  float64 `json:"street_length_m"`
}
