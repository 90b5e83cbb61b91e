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
		Namespace: "absensi",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "absensi",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Location metrics
	LocationSamples = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "absensi",
		Subsystem: "location",
		Name:      "samples_total",
		Help:      "Total location samples applied by the geofence monitor",
	})

	LocationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "absensi",
		Subsystem: "location",
		Name:      "errors_total",
		Help:      "Total location provider errors by code",
	}, []string{"code"})

	Admissible = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "absensi",
		Subsystem: "location",
		Name:      "admissible",
		Help:      "1 when the latest sample is within the clinic radius",
	})

	DistanceMeters = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "absensi",
		Subsystem: "location",
		Name:      "distance_meters",
		Help:      "Distance of the latest sample from the clinic reference point",
	})

	// Attendance metrics
	CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "absensi",
		Subsystem: "attendance",
		Name:      "check_ins_total",
		Help:      "Check-in submissions by outcome",
	}, []string{"outcome"})

	StatusFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "absensi",
		Subsystem: "attendance",
		Name:      "status_fetches_total",
		Help:      "Attendance status fetches by outcome",
	}, []string{"outcome"})

	// Remote API metrics
	RemoteRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "absensi",
		Subsystem: "remote",
		Name:      "request_duration_seconds",
		Help:      "Latency of calls to the attendance API",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "endpoint", "status"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "absensi",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "absensi",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "absensi",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
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

// SetAdmissible records the admissibility flag and distance of the latest sample.
func SetAdmissible(admissible bool, distance float64) {
	if admissible {
		Admissible.Set(1)
	} else {
		Admissible.Set(0)
	}
	DistanceMeters.Set(distance)
}
