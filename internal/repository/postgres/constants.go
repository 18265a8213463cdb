package postgres

// Константы для геометрии
const (
	// SRID4326 - WGS84 coordinate system
	SRID4326 = 4326
	// SRID3857 - Web Mercator projection, упрощение геометрий в метрах
	SRID3857 = 3857
	// SRID32635 - UTM zone 35N, площади и длины для контекстных метрик
	SRID32635 = 32635
)

// Имена таблиц точечных кешей
const (
	tableOSMMetricsPoint   = "osm_metrics_point"
	tableWeatherDailyPoint = "weather_daily_point"
)

// pgUniqueViolation - SQLSTATE нарушения уникальности
const pgUniqueViolation = "23505"
