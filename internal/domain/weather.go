package domain

import "time"

// ProviderOpenMeteo - единственный реализованный поставщик погоды
const ProviderOpenMeteo = "openmeteo"

// WeatherDay - дневная запись от внешнего архива: переменные + высота
type WeatherDay struct {
	Date   time.Time
	Values map[string]interface{}
}

// WeatherRecord - закешированный день для округлённой точки
type WeatherRecord struct {
	Key      BucketKey
	Date     time.Time
	Provider string
	Values   map[string]interface{}
}

// Row разворачивает запись в плоскую строку ответа
func (r WeatherRecord) Row() map[string]interface{} {
	row := make(map[string]interface{}, len(r.Values)+4)
	for k, v := range r.Values {
		row[k] = v
	}
	row["date"] = r.Date.Format(DateLayout)
	row["lat_round"] = r.Key.LatRound
	row["lon_round"] = r.Key.LonRound
	row["provider"] = r.Provider
	return row
}
