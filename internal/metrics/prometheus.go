// Package metrics provides Prometheus metrics for the docs server and the CDA
// client.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
)

// RouteKey is the gin context key a NoRoute handler sets to label its
// requests.
const RouteKey = "metrics.route"

// Manager owns the metrics of one process.
type Manager struct {
	namespace         string
	subsystem         string
	histogramBuckets  []float64
	registry          *prometheus.Registry
	runtimeCollectors bool

	// CDA client
	apiCalls   *prometheus.CounterVec
	apiErrors  *prometheus.CounterVec
	apiLatency *prometheus.HistogramVec

	// docs server
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	webhooks            *prometheus.CounterVec
	unknownComponents   *prometheus.CounterVec
	previewClients      prometheus.Gauge
	cacheVersion        prometheus.Gauge
}

// NewManager creates a manager on a fresh registry unless WithRegistry is
// given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "sbdocs",
		histogramBuckets: prometheus.DefBuckets,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	if m.runtimeCollectors {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.apiCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cda_requests_total",
		Help:      "Total number of Content Delivery API requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.apiErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cda_errors_total",
		Help:      "Total number of failed Content Delivery API requests by endpoint",
	}, []string{"endpoint"})

	m.apiLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cda_request_duration_seconds",
		Help:      "Content Delivery API request duration in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method"})

	m.webhooks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "webhooks_total",
		Help:      "Total number of webhooks by action and result",
	}, []string{"action", "result"})

	m.unknownComponents = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "unknown_components_total",
		Help:      "Total number of bloks rendered without a registered component",
	}, []string{"component"})

	m.previewClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "preview_clients",
		Help:      "Number of connected preview event streams",
	})

	m.cacheVersion = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_version",
		Help:      "Last cache version (cv) seen from the Content Delivery API",
	})
}

// RecordAPICall implements storyblok.MetricsRecorder.
func (m *Manager) RecordAPICall(method, path string, statusCode int, latency time.Duration, failed bool) {
	endpoint := EndpointLabel(path)
	status := strconv.Itoa(statusCode)

	if statusCode == 0 {
		status = "error"
	}

	m.apiCalls.WithLabelValues(endpoint, method, status).Inc()
	m.apiLatency.WithLabelValues(endpoint).Observe(latency.Seconds())

	if failed {
		m.apiErrors.WithLabelValues(endpoint).Inc()
	}
}

// EndpointLabel reduces a CDA path to a bounded label: story slugs and ids
// collapse to ":id".
func EndpointLabel(path string) string {
	path = "/" + strings.Trim(path, "/")
	path = strings.TrimPrefix(path, constants.APIPathPrefix)

	storiesPrefix := constants.APIPathStories + "/"
	if strings.HasPrefix(path, storiesPrefix) {
		return storiesPrefix + ":id"
	}

	if path == "" {
		return "/"
	}

	return path
}

// RecordWebhook counts a webhook delivery.
func (m *Manager) RecordWebhook(action, result string) {
	m.webhooks.WithLabelValues(action, result).Inc()
}

// RecordUnknownComponent counts a blok without a registered renderer.
func (m *Manager) RecordUnknownComponent(component string) {
	m.unknownComponents.WithLabelValues(component).Inc()
}

// PreviewClientConnected tracks an open preview stream. The returned function
// must be called when the stream closes.
func (m *Manager) PreviewClientConnected() func() {
	m.previewClients.Inc()

	return m.previewClients.Dec
}

// SetCacheVersion records the current cache version.
func (m *Manager) SetCacheVersion(cv int64) {
	m.cacheVersion.Set(float64(cv))
}

// GinMiddleware records request counts and durations by route template.
func (m *Manager) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.GetString(RouteKey)
		}

		if route == "" {
			route = "unmatched"
		}

		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry the metrics are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}
