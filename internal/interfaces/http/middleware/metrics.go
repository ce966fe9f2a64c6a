package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metric names.
const (
	MetricHTTPRequestsTotal   = "http_server_requests_total"
	MetricHTTPRequestDuration = "http_server_request_duration_seconds"
	MetricHTTPRequestSize     = "http_server_request_size_bytes"
	MetricHTTPResponseSize    = "http_server_response_size_bytes"
	MetricHTTPActiveRequests  = "http_server_active_requests"
)

// HTTPMetricsConfig holds configuration for HTTP metrics middleware.
type HTTPMetricsConfig struct {
	// Namespace prefixes every metric name (e.g. "vendorbill").
	Namespace string
	// Registry receives the collectors. A new registry is created when nil.
	Registry *prometheus.Registry
	// DurationBuckets are the histogram buckets for request latency.
	DurationBuckets []float64
}

// DefaultHTTPMetricsConfig returns default HTTP metrics configuration.
func DefaultHTTPMetricsConfig() HTTPMetricsConfig {
	return HTTPMetricsConfig{
		Namespace:       "vendorbill",
		DurationBuckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}
}

// HTTPMetrics collects request metrics for the Prometheus scrape endpoint.
// Labels use the gin route pattern, never the raw path.
type HTTPMetrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestSize     *prometheus.HistogramVec
	responseSize    *prometheus.HistogramVec
	activeRequests  prometheus.Gauge
}

// NewHTTPMetrics creates and registers the HTTP collectors
func NewHTTPMetrics(cfg HTTPMetricsConfig) (*HTTPMetrics, error) {
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = prometheus.DefBuckets
	}
	sizeBuckets := prometheus.ExponentialBuckets(100, 4, 8)

	m := &HTTPMetrics{
		registry: cfg.Registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      MetricHTTPRequestsTotal,
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status_code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      MetricHTTPRequestDuration,
			Help:      "HTTP request latency in seconds.",
			Buckets:   cfg.DurationBuckets,
		}, []string{"method", "route"}),
		requestSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      MetricHTTPRequestSize,
			Help:      "HTTP request body size in bytes.",
			Buckets:   sizeBuckets,
		}, []string{"method", "route"}),
		responseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      MetricHTTPResponseSize,
			Help:      "HTTP response body size in bytes.",
			Buckets:   sizeBuckets,
		}, []string{"method", "route"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      MetricHTTPActiveRequests,
			Help:      "Number of HTTP requests currently being served.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.requestsTotal, m.requestDuration, m.requestSize, m.responseSize, m.activeRequests,
	} {
		if err := cfg.Registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Middleware records metrics for every request
func (m *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.activeRequests.Inc()

		c.Next()

		m.activeRequests.Dec()
		route := getRoutePattern(c)
		method := c.Request.Method

		m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		if size := c.Request.ContentLength; size > 0 {
			m.requestSize.WithLabelValues(method, route).Observe(float64(size))
		}
		if size := c.Writer.Size(); size > 0 {
			m.responseSize.WithLabelValues(method, route).Observe(float64(size))
		}
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *HTTPMetrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return gin.WrapH(h)
}

// Registry returns the registry the collectors are registered in
func (m *HTTPMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// getRoutePattern returns the route pattern (e.g., "/api/v1/receivables/:id")
// so label cardinality stays bounded.
func getRoutePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}

// HTTPMetricsStatusGroup groups status codes into classes (2xx, 4xx, 5xx).
func HTTPMetricsStatusGroup(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500:
		return "5xx"
	default:
		return "other"
	}
}
