// Package metrics exposes Prometheus instruments for the analysis service.
// All methods are safe to call on a nil *Metrics, which disables collection.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/incilens/backend/internal/domain"
)

// Analysis outcome labels
const (
	StatusOK            = "ok"
	StatusInvalidInput  = "invalid_input"
	StatusInternalError = "internal_error"
	StatusCanceled      = "canceled"
)

// Cache result labels
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Default buckets
var (
	AnalysisDurationBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5}
	MatchCountBuckets       = []float64{0, 1, 2, 3, 5, 8, 13, 21}
)

// Metrics holds all application metrics on a dedicated registry
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	BrandedMatches   prometheus.Histogram
	ConflictsTotal   prometheus.Counter
	UnmatchedTotal   prometheus.Counter
	CacheResults     *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	RateLimited      prometheus.Counter
	CatalogComplexes prometheus.Gauge
}

// New registers all metrics under the namespace and returns them
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "INCI analyses by outcome",
		}, []string{"status"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent in the matching pipeline",
			Buckets:   AnalysisDurationBuckets,
		}),
		BrandedMatches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "branded_matches",
			Help:      "Accepted branded complexes per analysis",
			Buckets:   MatchCountBuckets,
		}),
		ConflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflicts_total",
			Help:      "Tokens reported as conflicts",
		}),
		UnmatchedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unmatched_total",
			Help:      "Tokens classified as generic ingredients",
		}),
		CacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_results_total",
			Help:      "Result cache lookups by outcome",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "path", "status_code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-IP limiter",
		}),
		CatalogComplexes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_complexes",
			Help:      "Branded complexes in the loaded catalog",
		}),
	}

	reg.MustRegister(
		m.AnalysesTotal, m.AnalysisDuration, m.BrandedMatches, m.ConflictsTotal,
		m.UnmatchedTotal, m.CacheResults, m.HTTPRequests, m.HTTPDuration,
		m.RateLimited, m.CatalogComplexes,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveAnalysis records the outcome of one analysis; result may be nil on failure
func (m *Metrics) ObserveAnalysis(status string, result *domain.AnalysisResult, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(status).Inc()
	if result == nil {
		return
	}
	m.AnalysisDuration.Observe(elapsed.Seconds())
	m.BrandedMatches.Observe(float64(len(result.BrandedIngredients)))
	m.ConflictsTotal.Add(float64(len(result.Conflicts)))
	m.UnmatchedTotal.Add(float64(len(result.UnmatchedINCI)))
}

// ObserveCache records a cache lookup outcome
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.CacheResults.WithLabelValues(result).Inc()
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveRateLimited counts a rejected request
func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

// SetCatalogSize publishes the number of loaded complexes
func (m *Metrics) SetCatalogSize(n int) {
	if m == nil {
		return
	}
	m.CatalogComplexes.Set(float64(n))
}
