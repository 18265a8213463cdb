package overpass

import (
	"fmt"
	"strconv"
)

// Теги, по которым считаются объекты инфраструктуры
var facilityFilters = []struct {
	kinds  []string
	filter string
}{
	{[]string{"node", "way"}, `["amenity"]`},
	{[]string{"node", "way"}, `["shop"]`},
	{[]string{"node", "way"}, `["leisure"]`},
	{[]string{"node", "way"}, `["tourism"]`},
	{[]string{"node"}, `["public_transport"]`},
	{[]string{"node"}, `["highway"="bus_stop"]`},
	{[]string{"node"}, `["railway"~"station|stop|halt|tram_stop"]`},
}

func around(lat, lon float64, bufferM int) string {
	return fmt.Sprintf("(around:%d,%s,%s)", bufferM,
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64))
}

// RoadsQuery - все way с тегом highway в радиусе, с геометрией
func RoadsQuery(lat, lon float64, bufferM int) string {
	return fmt.Sprintf("[out:json][timeout:30];\n(\n  way[\"highway\"]%s;\n);\nout geom;\n",
		around(lat, lon, bufferM))
}

// FacilitiesQuery - объекты инфраструктуры в радиусе, только теги и центр
func FacilitiesQuery(lat, lon float64, bufferM int) string {
	a := around(lat, lon, bufferM)
	q := "[out:json][timeout:30];\n(\n"
	for _, f := range facilityFilters {
		for _, kind := range f.kinds {
			q += fmt.Sprintf("  %s%s%s;\n", kind, f.filter, a)
		}
	}
	return q + ");\nout tags center;\n"
}
