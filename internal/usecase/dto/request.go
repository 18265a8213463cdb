package dto

// Режимы геометрий в enrich
const (
	ModeBBox   = "bbox"
	ModeRadius = "radius"
	ModeBoth   = "both"
	ModeNone   = "none"
)

// FeatureRequest - запрос объектов одного слоя: bbox или lat+lon(+radius_m)
type FeatureRequest struct {
	Dataset   string   `params:"name" validate:"required"`
	BBox      string   `query:"bbox"`
	Lat       *float64 `query:"lat" validate:"omitempty,min=-90,max=90"`
	Lon       *float64 `query:"lon" validate:"omitempty,min=-180,max=180"`
	RadiusM   float64  `query:"radius_m" validate:"gt=0"`
	Limit     int      `query:"limit" validate:"min=0"`
	Offset    int      `query:"offset" validate:"min=0"`
	SimplifyM float64  `query:"simplify_m" validate:"min=0"`
}

// EnrichPointRequest - параметры GET /enrich/point
type EnrichPointRequest struct {
	Lat               *float64 `query:"lat" validate:"required,min=-90,max=90"`
	Lon               *float64 `query:"lon" validate:"required,min=-180,max=180"`
	RadiusM           float64  `query:"radius_m" validate:"gt=0"`
	Start             string   `query:"start" validate:"omitempty,datetime=2006-01-02"`
	End               string   `query:"end" validate:"omitempty,datetime=2006-01-02"`
	IncludeWeather    bool     `query:"include_weather"`
	IncludeOSM        bool     `query:"include_osm"`
	OSMRefresh        bool     `query:"osm_refresh"`
	IncludeGeometries bool     `query:"include_geometries"`
	Mode              string   `query:"mode" validate:"enrich_mode"`
	Datasets          string   `query:"datasets" validate:"dataset_list"`
	BBox              string   `query:"bbox"`
	Limit             int      `query:"limit" validate:"gt=0"`
	SimplifyM         float64  `query:"simplify_m" validate:"min=0"`
}

// NewEnrichPointRequest - запрос с умолчаниями, поверх которых разбирается query
func NewEnrichPointRequest(defaultRadiusM float64, defaultLimit int) EnrichPointRequest {
	return EnrichPointRequest{
		RadiusM:           defaultRadiusM,
		IncludeWeather:    true,
		IncludeOSM:        true,
		IncludeGeometries: true,
		Mode:              ModeBoth,
		Limit:             defaultLimit,
	}
}

// WeatherDailyRequest - GET /weather/daily
type WeatherDailyRequest struct {
	Lat   *float64 `query:"lat" validate:"required,min=-90,max=90"`
	Lon   *float64 `query:"lon" validate:"required,min=-180,max=180"`
	Start string   `query:"start" validate:"required,datetime=2006-01-02"`
	End   string   `query:"end" validate:"required,datetime=2006-01-02"`
}

// OSMMetricsRequest - GET /osm/metrics
type OSMMetricsRequest struct {
	Lat     *float64 `query:"lat" validate:"required,min=-90,max=90"`
	Lon     *float64 `query:"lon" validate:"required,min=-180,max=180"`
	BufferM int      `query:"radius_m" validate:"gt=0"`
	Refresh bool     `query:"refresh"`
}

// ContextRequest - GET /context
type ContextRequest struct {
	Lat     *float64 `query:"lat" validate:"required,min=-90,max=90"`
	Lon     *float64 `query:"lon" validate:"required,min=-180,max=180"`
	RadiusM float64  `query:"radius_m" validate:"gt=0"`
}
