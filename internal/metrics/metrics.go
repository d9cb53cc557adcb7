// Package metrics exposes the Prometheus collectors of the service and the
// Gin middleware that feeds the HTTP ones.
//
//	r.Use(metrics.Middleware())
//	r.GET("/metrics", metrics.Handler())
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ventarapida"

// ── HTTP ────────────────────────────────────────────────────────────────────

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})
)

// ── Domain ──────────────────────────────────────────────────────────────────

var (
	// Checkouts counts quick-sale completions by outcome:
	// "completada" or the rejection reason.
	Checkouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "venta",
			Name:      "checkouts_total",
			Help:      "Quick-sale checkout attempts by outcome.",
		},
		[]string{"resultado"},
	)

	// Movimientos counts ledger entries appended, by kind.
	Movimientos = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stock",
			Name:      "movimientos_total",
			Help:      "Stock movements appended to the ledger.",
		},
		[]string{"tipo"},
	)

	// Jobs counts processed background jobs by type and status.
	Jobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "jobs_processed_total",
			Help:      "Background jobs processed.",
		},
		[]string{"type", "status"}, // status: "ok" | "retry" | "dlq"
	)

	// EventosPublicados counts outbox events relayed to the broker.
	EventosPublicados = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "eventos_total",
			Help:      "Outbox events processed by the publisher.",
		},
		[]string{"status"}, // "publicado" | "error"
	)

	CacheConsultas = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "precio_total",
			Help:      "Price-check cache lookups by result.",
		},
		[]string{"resultado"}, // "hit" | "miss"
	)
)

// Registry holds every collector of the service.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	Registry.MustRegister(
		RequestDuration,
		RequestInFlight,
		Checkouts,
		Movimientos,
		Jobs,
		EventosPublicados,
		CacheConsultas,
	)
}

// Middleware records latency per route template, so /v1/productos/:id is one
// series regardless of the id.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		RequestInFlight.Inc()
		defer RequestInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		RequestDuration.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
