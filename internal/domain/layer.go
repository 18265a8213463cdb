package domain

import "sort"

// GeometryKind - семейство геометрий слоя
type GeometryKind string

const (
	GeometryPoint   GeometryKind = "point"
	GeometryLine    GeometryKind = "line"
	GeometryPolygon GeometryKind = "polygon"
)

// Layer - статический слой и его таблица.
// Все таблицы слоёв имеют одинаковую форму: id, source_id, props, geom.
type Layer struct {
	Name  string       `json:"name"`
	Table string       `json:"table"`
	Kind  GeometryKind `json:"geometry_kind"`
	// MaxLimit - потолок числа объектов на запрос, 0 означает глобальный максимум
	MaxLimit int `json:"max_limit,omitempty"`
	// BBoxRequired - радиусные запросы к каталогу слоёв запрещены
	BBoxRequired bool `json:"bbox_required,omitempty"`
}

// Simplifiable - упрощаются только линии и полигоны
func (l Layer) Simplifiable() bool {
	return l.Kind != GeometryPoint
}

// Layer names
const (
	LayerBuildings         = "buildings"
	LayerGreenAreas        = "green_areas"
	LayerNeighbourhoods    = "neighbourhoods"
	LayerStreets           = "streets"
	LayerPedestrianNetwork = "pedestrian_network"
	LayerTrees             = "trees"
	LayerPOIs              = "pois"
)

var layers = map[string]Layer{
	LayerBuildings:         {Name: LayerBuildings, Table: "buildings", Kind: GeometryPolygon, MaxLimit: 10000, BBoxRequired: true},
	LayerGreenAreas:        {Name: LayerGreenAreas, Table: "green_areas", Kind: GeometryPolygon, MaxLimit: 20000},
	LayerNeighbourhoods:    {Name: LayerNeighbourhoods, Table: "neighbourhoods", Kind: GeometryPolygon},
	LayerStreets:           {Name: LayerStreets, Table: "streets", Kind: GeometryLine, MaxLimit: 20000},
	LayerPedestrianNetwork: {Name: LayerPedestrianNetwork, Table: "pedestrian_network", Kind: GeometryLine, MaxLimit: 20000},
	LayerTrees:             {Name: LayerTrees, Table: "trees", Kind: GeometryPoint, MaxLimit: 10000, BBoxRequired: true},
	LayerPOIs:              {Name: LayerPOIs, Table: "pois", Kind: GeometryPoint, MaxLimit: 20000},
}

// LookupLayer возвращает слой по имени
func LookupLayer(name string) (Layer, bool) {
	l, ok := layers[name]
	return l, ok
}

// LayerNames - отсортированный список имён слоёв
func LayerNames() []string {
	names := make([]string, 0, len(layers))
	for name := range layers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownLayers возвращает все неизвестные имена из списка, сохраняя порядок
func UnknownLayers(names []string) []string {
	var unknown []string
	for _, n := range names {
		if _, ok := layers[n]; !ok {
			unknown = append(unknown, n)
		}
	}
	return unknown
}

// LayerCaps - потолки по слоям (только слои с собственным потолком)
func LayerCaps() map[string]int {
	caps := make(map[string]int, len(layers))
	for name, l := range layers {
		if l.MaxLimit > 0 {
			caps[name] = l.MaxLimit
		}
	}
	return caps
}

// EnrichDatasetNames - слои, доступные в enrich: только слои с собственным потолком
func EnrichDatasetNames() []string {
	names := make([]string, 0, len(layers))
	for _, name := range LayerNames() {
		if layers[name].MaxLimit > 0 {
			names = append(names, name)
		}
	}
	return names
}

// UnknownEnrichDatasets - имена, которые нельзя запросить в enrich
func UnknownEnrichDatasets(names []string) []string {
	var unknown []string
	for _, n := range names {
		if l, ok := layers[n]; !ok || l.MaxLimit == 0 {
			unknown = append(unknown, n)
		}
	}
	return unknown
}
