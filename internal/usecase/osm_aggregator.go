package usecase

import (
	"context"
	"fmt"

	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/domain/repository"
	"github.com/urban-context/internal/infrastructure/overpass"
	"github.com/urban-context/internal/pkg/geo"
	"go.uber.org/zap"
)

// roadClasses - тег highway -> класс дороги, остальное относится к other
var roadClasses = map[string]string{
	"motorway":       domain.RoadClassMotorway,
	"motorway_link":  domain.RoadClassMotorway,
	"trunk":          domain.RoadClassMotorway,
	"trunk_link":     domain.RoadClassMotorway,
	"primary":        domain.RoadClassPrimary,
	"primary_link":   domain.RoadClassPrimary,
	"secondary":      domain.RoadClassSecondary,
	"secondary_link": domain.RoadClassSecondary,
	"tertiary":       domain.RoadClassTertiary,
	"tertiary_link":  domain.RoadClassTertiary,
	"residential":    domain.RoadClassResidential,
	"living_street":  domain.RoadClassResidential,
	"unclassified":   domain.RoadClassResidential,
	"service":        domain.RoadClassService,
}

var railStops = map[string]bool{
	"station":   true,
	"stop":      true,
	"halt":      true,
	"tram_stop": true,
}

// RoadClass возвращает класс дороги по тегу highway
func RoadClass(highway string) string {
	if c, ok := roadClasses[highway]; ok {
		return c
	}
	return domain.RoadClassOther
}

// OSMAggregator считает метрики дорог и инфраструктуры по двум запросам Overpass
type OSMAggregator struct {
	client repository.MapQueryClient
	logger *zap.Logger
}

// NewOSMAggregator создает OSMAggregator
func NewOSMAggregator(client repository.MapQueryClient, logger *zap.Logger) *OSMAggregator {
	return &OSMAggregator{client: client, logger: logger}
}

// Aggregate выполняет оба запроса. Если упал один - Partial с нулевой частью
// упавшего запроса, если оба - Unavailable. Что делать с Partial, решает вызывающий.
func (a *OSMAggregator) Aggregate(ctx context.Context, p domain.Point, bufferM int) domain.OSMAggregation {
	roads, roadsErr := a.client.Query(ctx, overpass.RoadsQuery(p.Lat, p.Lon, bufferM))
	if roadsErr != nil {
		a.logger.Warn("Overpass roads query failed", zap.Error(roadsErr))
	}

	facilities, facErr := a.client.Query(ctx, overpass.FacilitiesQuery(p.Lat, p.Lon, bufferM))
	if facErr != nil {
		a.logger.Warn("Overpass facilities query failed", zap.Error(facErr))
	}

	if roadsErr != nil && facErr != nil {
		return domain.UnavailableAggregation(fmt.Sprintf("roads: %v; facilities: %v", roadsErr, facErr))
	}

	m := domain.ZeroOSMMetrics(p, bufferM)
	if roadsErr != nil {
		m.FacilityCounts = CountFacilities(facilities.Elements)
		return domain.PartialAggregation(m, fmt.Sprintf("roads: %v", roadsErr))
	}

	m.RoadTotalLengthM, m.RoadLengthByClassM = SummarizeRoads(roads.Elements)
	if facErr != nil {
		return domain.PartialAggregation(m, fmt.Sprintf("facilities: %v", facErr))
	}

	m.FacilityCounts = CountFacilities(facilities.Elements)
	return domain.ComputedAggregation(m)
}

// SummarizeRoads суммирует длины ways с тегом highway в EPSG:3857
func SummarizeRoads(elements []domain.OverpassElement) (float64, map[string]float64) {
	var total float64
	byClass := make(map[string]float64)

	for _, el := range elements {
		if el.Type != "way" {
			continue
		}
		highway, ok := el.Tags["highway"]
		if !ok {
			continue
		}
		line := geo.MercatorLineString(el.Geometry)
		if line == nil {
			continue
		}
		length := line.Length()
		total += length
		byClass[RoadClass(highway)] += length
	}

	rounded := make(map[string]float64, len(byClass))
	for class, length := range byClass {
		if r := geo.Round(length, 2); r > 0 {
			rounded[class] = r
		}
	}

	return geo.Round(total, 2), rounded
}

// CountFacilities - один элемент может попасть в несколько счётчиков
func CountFacilities(elements []domain.OverpassElement) domain.FacilityCounts {
	var c domain.FacilityCounts
	for _, el := range elements {
		tags := el.Tags
		if tags == nil {
			continue
		}
		if _, ok := tags["amenity"]; ok {
			c.Amenity++
		}
		if _, ok := tags["shop"]; ok {
			c.Shop++
		}
		if _, ok := tags["leisure"]; ok {
			c.Leisure++
		}
		if _, ok := tags["tourism"]; ok {
			c.Tourism++
		}
		if tags["public_transport"] != "" {
			c.PublicTransport++
		}
		if tags["highway"] == "bus_stop" {
			c.BusStop++
		}
		if railStops[tags["railway"]] {
			c.RailStop++
		}
	}
	return c
}
