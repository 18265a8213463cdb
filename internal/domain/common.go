package domain

import (
	"math"
	"time"
)

// DateLayout - формат календарной даты в API и кешах
const DateLayout = "2006-01-02"

type Point struct {
	Lat float64 `json:"lat" db:"lat"`
	Lon float64 `json:"lon" db:"lon"`
}

// Valid проверяет диапазон координат WGS84
func (p Point) Valid() bool {
	return isFinite(p.Lat) && isFinite(p.Lon) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Envelope - прямоугольный фильтр в географических координатах (lon/lat, EPSG:4326)
type Envelope struct {
	MinX float64 `json:"minx"`
	MinY float64 `json:"miny"`
	MaxX float64 `json:"maxx"`
	MaxY float64 `json:"maxy"`
}

// Valid - min < max по обеим осям, все значения конечны
func (e Envelope) Valid() bool {
	for _, v := range []float64{e.MinX, e.MinY, e.MaxX, e.MaxY} {
		if !isFinite(v) {
			return false
		}
	}
	return e.MinX < e.MaxX && e.MinY < e.MaxY
}

// BucketKey - округлённые координаты, ключ партиции точечного кеша
type BucketKey struct {
	LatRound float64 `json:"lat_round" db:"lat_round"`
	LonRound float64 `json:"lon_round" db:"lon_round"`
}

// DateRange - включительный диапазон календарных дней
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Valid - начало не позже конца
func (r DateRange) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && !TruncateDay(r.Start).After(TruncateDay(r.End))
}

// Days перечисляет все дни диапазона включительно
func (r DateRange) Days() []time.Time {
	if !r.Valid() {
		return nil
	}
	start, end := TruncateDay(r.Start), TruncateDay(r.End)
	days := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// TruncateDay приводит время к полуночи UTC того же календарного дня
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate разбирает дату в формате YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
