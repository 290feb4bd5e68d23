package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wanderly",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wanderly",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wanderly",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Place-card metrics
	HoursEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wanderly",
		Subsystem: "hours",
		Name:      "evaluations_total",
		Help:      "Opening-hours evaluations by outcome (open, closed, no_schedule)",
	}, []string{"result"})

	DistanceFormats = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wanderly",
		Subsystem: "distance",
		Name:      "formats_total",
		Help:      "Distance labels rendered by unit system",
	}, []string{"unit"})

	ImportRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wanderly",
		Subsystem: "import",
		Name:      "records_total",
		Help:      "Upstream place records processed by outcome (accepted, rejected)",
	}, []string{"outcome"})

	ImportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wanderly",
		Subsystem: "import",
		Name:      "batch_duration_seconds",
		Help:      "Duration of import batches",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
	}, []string{"source"})

	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wanderly",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Requests to the upstream places API by outcome",
	}, []string{"outcome"})

	UpstreamCircuitState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "wanderly",
		Subsystem: "upstream",
		Name:      "circuit_state",
		Help:      "Upstream circuit breaker state (0 closed, 1 half-open, 2 open)",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wanderly",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wanderly",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "wanderly",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "wanderly",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "wanderly",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics. Paths are labelled by route pattern
// so /v1/places/:id does not explode cardinality.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics updates database pool gauges from a pgxpool.Stat.
// The argument is an interface so this package does not import pgx.
func UpdateDBPoolMetrics(stat interface{}) {
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
