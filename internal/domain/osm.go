package domain

import "time"

// LatLon - координата в ответе Overpass
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// OverpassElement - элемент ответа Overpass (node/way/relation)
type OverpassElement struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Lat      *float64          `json:"lat,omitempty"`
	Lon      *float64          `json:"lon,omitempty"`
	Center   *LatLon           `json:"center,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
	Geometry []*LatLon         `json:"geometry,omitempty"`
}

// OverpassResult - разобранный ответ Overpass
type OverpassResult struct {
	Elements []OverpassElement `json:"elements"`
}

// Road classes
const (
	RoadClassMotorway    = "motorway"
	RoadClassPrimary     = "primary"
	RoadClassSecondary   = "secondary"
	RoadClassTertiary    = "tertiary"
	RoadClassResidential = "residential"
	RoadClassService     = "service"
	RoadClassOther       = "other"
)

// MetricsSourceOverpass - источник OSM метрик
const MetricsSourceOverpass = "overpass"

// FacilityCounts - счётчики объектов инфраструктуры
type FacilityCounts struct {
	Amenity         int `json:"amenity"`
	Shop            int `json:"shop"`
	Leisure         int `json:"leisure"`
	Tourism         int `json:"tourism"`
	PublicTransport int `json:"public_transport"`
	BusStop         int `json:"bus_stop"`
	RailStop        int `json:"rail_stop"`
}

// OSMMetrics - сводка дорог и инфраструктуры вокруг точки
type OSMMetrics struct {
	RoadTotalLengthM   float64            `json:"road_total_length_m"`
	RoadLengthByClassM map[string]float64 `json:"road_length_by_class_m"`
	FacilityCounts     FacilityCounts     `json:"facility_counts"`
	BufferM            int                `json:"buffer_m"`
	Point              Point              `json:"point"`
	Source             string             `json:"source"`
}

// OSMSnapshot - сохранённый расчёт метрик для (bucket, buffer)
type OSMSnapshot struct {
	ID          int64
	Key         BucketKey
	BufferM     int
	ExtractedAt time.Time
	Metrics     OSMMetrics
}

// OSMMetricsResult - ответ OSM конвейера: метрики + признак попадания в кеш
type OSMMetricsResult struct {
	Cached      bool      `json:"cached"`
	ExtractedAt time.Time `json:"extracted_at"`
	// Degraded - часть запросов не удалась, метрики неполные и не сохранены в кеш
	Degraded bool `json:"degraded,omitempty"`
	OSMMetrics
}

// AggregationStatus - итог агрегации
type AggregationStatus string

const (
	AggregationComputed    AggregationStatus = "computed"
	AggregationPartial     AggregationStatus = "partial"
	AggregationUnavailable AggregationStatus = "unavailable"
)

// OSMAggregation - результат агрегации: Computed(metrics), Partial(metrics, reason)
// или Unavailable(reason). В Partial часть метрик от упавшего запроса нулевая.
type OSMAggregation struct {
	Status  AggregationStatus
	Metrics OSMMetrics
	Reason  string
}

// ComputedAggregation оборачивает рассчитанные метрики
func ComputedAggregation(m OSMMetrics) OSMAggregation {
	return OSMAggregation{Status: AggregationComputed, Metrics: m}
}

// PartialAggregation - один из запросов не удался
func PartialAggregation(m OSMMetrics, reason string) OSMAggregation {
	return OSMAggregation{Status: AggregationPartial, Metrics: m, Reason: reason}
}

// UnavailableAggregation - метрики не удалось получить
func UnavailableAggregation(reason string) OSMAggregation {
	return OSMAggregation{Status: AggregationUnavailable, Reason: reason}
}

// Available - есть хотя бы часть метрик
func (a OSMAggregation) Available() bool {
	return a.Status == AggregationComputed || a.Status == AggregationPartial
}

// Complete - оба запроса выполнены, результат можно кешировать
func (a OSMAggregation) Complete() bool {
	return a.Status == AggregationComputed
}

// ZeroOSMMetrics - корректный объект метрик с нулевыми агрегатами
func ZeroOSMMetrics(p Point, bufferM int) OSMMetrics {
	return OSMMetrics{
		RoadLengthByClassM: map[string]float64{},
		BufferM:            bufferM,
		Point:              p,
		Source:             MetricsSourceOverpass,
	}
}
