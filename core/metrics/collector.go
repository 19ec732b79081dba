package metrics

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "jsoncache"

// Collector exports cache activity as Prometheus metrics. It implements cache.Recorder.
// Each Collector owns its registry so several can coexist in one process.
type Collector struct {
	registry *prometheus.Registry

	lookupsTotal  *prometheus.CounterVec
	loadsTotal    *prometheus.CounterVec
	loadDuration  *prometheus.HistogramVec
	sourceKeys    *prometheus.GaugeVec
	sourceBytes   *prometheus.GaugeVec
	lastLoad      *prometheus.GaugeVec
	streamClients prometheus.Gauge

	logger *zap.Logger
}

// NewCollector creates a collector whose metric names start with namespace.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	c := &Collector{
		registry: reg,
		logger:   logger.With(zap.String("component", "metrics")),
	}

	c.lookupsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Total number of key lookups",
		},
		[]string{"source", "result"},
	)

	c.loadsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Total number of source loads and reloads",
		},
		[]string{"source", "status"},
	)

	c.loadDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Source load duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"source"},
	)

	c.sourceKeys = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_keys",
			Help:      "Number of indexed keys in the loaded document",
		},
		[]string{"source"},
	)

	c.sourceBytes = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_size_bytes",
			Help:      "Size in bytes of the loaded document",
		},
		[]string{"source"},
	)

	c.lastLoad = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_last_load_timestamp_seconds",
			Help:      "Unix time of the last successful load",
		},
		[]string{"source"},
	)

	c.streamClients = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Number of connected dashboard WebSocket clients",
		},
	)

	return c
}

// Lookup records one key lookup.
func (c *Collector) Lookup(source string, found bool) {
	result := "miss"
	if found {
		result = "found"
	}
	c.lookupsTotal.WithLabelValues(source, result).Inc()
}

// Load records one load attempt. Gauges only move on success, since a failed load
// keeps the previous document.
func (c *Collector) Load(source string, duration time.Duration, keys int, size int64, err error) {
	c.loadDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		c.loadsTotal.WithLabelValues(source, "error").Inc()
		return
	}
	c.loadsTotal.WithLabelValues(source, "success").Inc()
	c.sourceKeys.WithLabelValues(source).Set(float64(keys))
	c.sourceBytes.WithLabelValues(source).Set(float64(size))
	c.lastLoad.WithLabelValues(source).Set(float64(time.Now().Unix()))
}

// SetStreamClients records the number of connected WebSocket clients.
func (c *Collector) SetStreamClients(n int) {
	c.streamClients.Set(float64(n))
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// HTTPHandler serves the registry in the Prometheus exposition format.
func (c *Collector) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(c.logger),
	})
}

// Handler serves the registry from a Fiber route.
func (c *Collector) Handler() fiber.Handler {
	return adaptor.HTTPHandler(c.HTTPHandler())
}
