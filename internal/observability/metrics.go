package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	resultsLoadsTotal     *prometheus.CounterVec
	resultsLoadSeconds    prometheus.Histogram
	drawingRendersTotal   *prometheus.CounterVec
	drawingRenderSeconds  prometheus.Histogram
	drawingPublishedTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the dashboard API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_requests_total",
			Help: "Total number of dashboard API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_latency_seconds",
			Help:    "Latency distribution for dashboard API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_errors_total",
			Help: "Total number of error responses returned by dashboard endpoints.",
		}, []string{"method", "route", "status"})

		resultsLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "results_loads_total",
			Help: "Results table loads by source and outcome.",
		}, []string{"source", "outcome"})

		resultsLoadSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "results_load_seconds",
			Help:    "Time spent fetching and parsing results tables.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		})

		drawingRendersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drawing_renders_total",
			Help: "Stroke drawings rasterized, by outcome.",
		}, []string{"outcome"})

		drawingRenderSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "drawing_render_seconds",
			Help:    "Time spent decoding and rasterizing stroke drawings.",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		})

		drawingPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drawing_published_total",
			Help: "Rendered drawings uploaded to asset storage, by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			resultsLoadsTotal,
			resultsLoadSeconds,
			drawingRendersTotal,
			drawingRenderSeconds,
			drawingPublishedTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// ResultsLoads exposes the results load counter.
func ResultsLoads() *prometheus.CounterVec {
	RegisterMetrics()
	return resultsLoadsTotal
}

// ResultsLoadLatency exposes the results load histogram.
func ResultsLoadLatency() prometheus.Histogram {
	RegisterMetrics()
	return resultsLoadSeconds
}

// DrawingRenders exposes the render counter.
func DrawingRenders() *prometheus.CounterVec {
	RegisterMetrics()
	return drawingRendersTotal
}

// DrawingRenderLatency exposes the render histogram.
func DrawingRenderLatency() prometheus.Histogram {
	RegisterMetrics()
	return drawingRenderSeconds
}

// DrawingPublished exposes the publish counter.
func DrawingPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return drawingPublishedTotal
}
