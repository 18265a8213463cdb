package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const namespace = "urban_context"

// Cache pipelines
const (
	PipelineOSM      = "osm"
	PipelineWeather  = "weather"
	PipelineMetadata = "layer_metadata"
)

// Upstream names
const (
	UpstreamOverpass  = "overpass"
	UpstreamOpenMeteo = "openmeteo"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "path"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total point cache hits",
	}, []string{"pipeline"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total point cache misses",
	}, []string{"pipeline"})

	WeatherDaysFetched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "weather_days_inserted_total",
		Help:      "Weather days inserted into the point cache",
	})

	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Upstream HTTP attempts by outcome",
	}, []string{"upstream", "outcome"})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Upstream HTTP attempt latency",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"upstream"})

	FeatureQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "features",
		Name:      "query_duration_seconds",
		Help:      "Feature query latency by layer and mode",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"layer", "mode"})

	FeaturesReturned = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "features",
		Name:      "returned_total",
		Help:      "Features returned by layer",
	}, []string{"layer"})

	PrefetchEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "prefetch_events_total",
		Help:      "Prefetch events processed by outcome",
	}, []string{"outcome"})

	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Connections open in the database pool",
	})

	DBPoolConnsInUse = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "pool_conns_in_use",
		Help:      "Connections currently in use",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// ObserveCache учитывает попадание или промах кеша
func ObserveCache(pipeline string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(pipeline).Inc()
		return
	}
	CacheMisses.WithLabelValues(pipeline).Inc()
}

// ObserveUpstream учитывает одну попытку запроса к внешнему API
func ObserveUpstream(upstream, outcome string, started time.Time) {
	UpstreamRequests.WithLabelValues(upstream, outcome).Inc()
	UpstreamDuration.WithLabelValues(upstream).Observe(time.Since(started).Seconds())
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// маршрут, а не сырой путь: без взрыва кардинальности на /datasets/:name
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()
		status := strconv.Itoa(c.Response().StatusCode())

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics копирует статистику пула database/sql в gauges
func UpdateDBPoolMetrics(stats sql.DBStats) {
	DBPoolConnsOpen.Set(float64(stats.OpenConnections))
	DBPoolConnsInUse.Set(float64(stats.InUse))
	DBPoolConnsIdle.Set(float64(stats.Idle))
}
