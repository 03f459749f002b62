package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Build metrics
	BuildsTotal        *prometheus.CounterVec
	BuildDuration      prometheus.Histogram
	PagesRenderedTotal *prometheus.CounterVec
	PageRenderDuration prometheus.Histogram
	AssetsCopiedTotal  prometheus.Counter

	// Directive metrics
	DirectivesTotal *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Schema metrics
	SchemaLoadDuration prometheus.Histogram
	SchemaNodes        prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moosedocs_http_requests_total",
				Help: "Total number of HTTP requests served by the preview server",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "moosedocs_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		BuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moosedocs_builds_total",
				Help: "Total number of site builds",
			},
			[]string{"status"},
		),
		BuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "moosedocs_build_duration_seconds",
				Help:    "Site build duration in seconds",
				Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120},
			},
		),
		PagesRenderedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moosedocs_pages_rendered_total",
				Help: "Total number of rendered pages",
			},
			[]string{"status"},
		),
		PageRenderDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "moosedocs_page_render_duration_seconds",
				Help:    "Page render duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		AssetsCopiedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "moosedocs_assets_copied_total",
				Help: "Total number of copied asset files",
			},
		),

		DirectivesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moosedocs_directives_total",
				Help: "Total number of expanded directives",
			},
			[]string{"directive", "outcome"},
		),

		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moosedocs_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moosedocs_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),

		SchemaLoadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "moosedocs_schema_load_duration_seconds",
				Help:    "Time spent obtaining and decoding the application schema",
				Buckets: []float64{.01, .1, .5, 1, 5, 10, 30},
			},
		),
		SchemaNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "moosedocs_schema_nodes",
				Help: "Number of nodes in the loaded application schema",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BuildsTotal,
		m.BuildDuration,
		m.PagesRenderedTotal,
		m.PageRenderDuration,
		m.AssetsCopiedTotal,
		m.DirectivesTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.SchemaLoadDuration,
		m.SchemaNodes,
	)

	return m
}

// RecordDirective counts one expanded directive.
func (m *Metrics) RecordDirective(name, outcome string) {
	m.DirectivesTotal.WithLabelValues(name, outcome).Inc()
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// pathLabel maps a request to a bounded label value.
func HTTPMetricsMiddleware(metrics *Metrics, pathLabel func(*http.Request) string) func(http.Handler) http.Handler {
	if pathLabel == nil {
		pathLabel = func(r *http.Request) string { return r.URL.Path }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			path := pathLabel(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// MetricsHandler serves the registry in the Prometheus exposition format.
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
