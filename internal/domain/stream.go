package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Stream names
const (
	StreamContextPrefetch   = "stream:context:prefetch"
	StreamContextPrefetched = "stream:context:prefetched"
)

// PrefetchEvent - входящее событие на прогрев точечных кешей
type PrefetchEvent struct {
	EventID uuid.UUID `json:"event_id"`
	Lat     float64   `json:"lat"`
	Lon     float64   `json:"lon"`
	RadiusM int       `json:"radius_m"`
	Start   string    `json:"start,omitempty"`
	End     string    `json:"end,omitempty"`
	Refresh bool      `json:"refresh,omitempty"`
}

// Validate проверяет координаты, радиус и даты события
func (e *PrefetchEvent) Validate(maxRadiusM float64) error {
	if !(Point{Lat: e.Lat, Lon: e.Lon}).Valid() {
		return fmt.Errorf("invalid coordinates %f,%f", e.Lat, e.Lon)
	}
	if e.RadiusM <= 0 || float64(e.RadiusM) > maxRadiusM {
		return fmt.Errorf("radius_m must be in (0, %.0f]", maxRadiusM)
	}
	if (e.Start == "") != (e.End == "") {
		return fmt.Errorf("start and end must be given together")
	}
	return nil
}

// WantsWeather - в событии задан диапазон дат
func (e *PrefetchEvent) WantsWeather() bool {
	return e.Start != "" && e.End != ""
}

// PrefetchDoneEvent - результат прогрева
type PrefetchDoneEvent struct {
	EventID     uuid.UUID `json:"event_id"`
	OSMCached   *bool     `json:"osm_cached,omitempty"`
	WeatherDays int       `json:"weather_days"`
	Errors      []string  `json:"errors,omitempty"`
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
