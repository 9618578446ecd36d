// Package metrics provides Prometheus metrics for the decktube service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the upstream call counters.
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	errorBuckets   []float64
	enabled        bool
	constLabels    map[string]string
	metricPrefix   string
	registry       prometheus.Registerer

	// Ranking pipeline
	rankingRequests   prometheus.Counter
	rankingNoMatch    prometheus.Counter
	rankingLatency    prometheus.Histogram
	rankingCandidates prometheus.Histogram
	rankingResults    prometheus.Histogram
	strategiesBuilt   prometheus.Histogram

	// Upstream calls
	searchCalls       *prometheus.CounterVec
	searchLatency     prometheus.Histogram
	transcriptFetches *prometheus.CounterVec
	transcriptBatches prometheus.Counter
	catalogRefreshes  *prometheus.CounterVec
	catalogSize       prometheus.Gauge

	// Saved items
	savedItemsWrites *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "decktube",
		subsystem:      "ranking",
		latencyBuckets: defaultLatencyBuckets,
		errorBuckets:   prometheus.DefBuckets,
		enabled:        true,
		constLabels:    make(map[string]string),
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	auto := promauto.With(m.registry)

	m.rankingRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("requests_total"),
		Help:        "Total number of deck ranking requests",
		ConstLabels: m.constLabels,
	})

	m.rankingNoMatch = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("no_match_total"),
		Help:        "Ranking requests where no video cleared the card-match threshold",
		ConstLabels: m.constLabels,
	})

	m.rankingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("latency_milliseconds"),
		Help:        "End-to-end ranking latency in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	})

	m.rankingCandidates = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("candidates"),
		Help:        "Unique candidate videos per ranking request after deduplication",
		Buckets:     []float64{0, 10, 25, 50, 100, 200, 400},
		ConstLabels: m.constLabels,
	})

	m.rankingResults = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("results"),
		Help:        "Ranked videos returned per request",
		Buckets:     []float64{0, 1, 3, 6, 12, 18, 24},
		ConstLabels: m.constLabels,
	})

	m.strategiesBuilt = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("strategies"),
		Help:        "Search strategies built per ranking request",
		Buckets:     []float64{1, 5, 10, 15, 20},
		ConstLabels: m.constLabels,
	})

	m.searchCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("search_calls_total"),
		Help:        "Video search calls by priority tier and outcome",
		ConstLabels: m.constLabels,
	}, []string{"tier", "outcome"})

	m.searchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("search_latency_milliseconds"),
		Help:        "Latency of individual video search calls in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	})

	m.transcriptFetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("transcript_fetches_total"),
		Help:        "Transcript lookups by outcome",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.transcriptBatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("transcript_batches_total"),
		Help:        "Transcript batches processed",
		ConstLabels: m.constLabels,
	})

	m.catalogRefreshes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("catalog_refreshes_total"),
		Help:        "Card catalog refreshes by source and outcome",
		ConstLabels: m.constLabels,
	}, []string{"source", "outcome"})

	m.catalogSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("catalog_cards"),
		Help:        "Cards in the catalog including evolution variants",
		ConstLabels: m.constLabels,
	})

	m.savedItemsWrites = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("saved_items_writes_total"),
		Help:        "Writes to the saved items store by kind and operation",
		ConstLabels: m.constLabels,
	}, []string{"kind", "op"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_requests_total"),
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_component_total"),
		Help:        "Errors by component and type",
		ConstLabels: m.constLabels,
	}, []string{"component", "error_type"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_type_total"),
		Help:        "Errors by type and severity",
		ConstLabels: m.constLabels,
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_endpoint_total"),
		Help:        "Errors by HTTP endpoint",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "error_type"})

	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("error_latency_milliseconds"),
		Help:        "Latency of requests that ended in an error",
		Buckets:     m.errorBuckets,
		ConstLabels: m.constLabels,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "System memory usage in bytes",
		ConstLabels: m.constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Number of goroutines",
		ConstLabels: m.constLabels,
	})
}

// RecordRankingRequest increments the ranking request counter.
func RecordRankingRequest() {
	if !globalManager.enabled {
		return
	}
	globalManager.rankingRequests.Inc()
}

// RecordRankingNoMatch increments the no-match counter.
func RecordRankingNoMatch() {
	if !globalManager.enabled {
		return
	}
	globalManager.rankingNoMatch.Inc()
}

// RecordRankingLatency records end-to-end ranking latency.
func RecordRankingLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.rankingLatency.Observe(latencyMs)
}

// RecordRankingShape records strategy, candidate and result counts of one ranking.
func RecordRankingShape(strategies, candidates, results int) {
	if !globalManager.enabled {
		return
	}
	globalManager.strategiesBuilt.Observe(float64(strategies))
	globalManager.rankingCandidates.Observe(float64(candidates))
	globalManager.rankingResults.Observe(float64(results))
}

// RecordSearchCall counts a single search call and its latency.
func RecordSearchCall(tier, outcome string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.searchCalls.WithLabelValues(tier, outcome).Inc()
	globalManager.searchLatency.Observe(latencyMs)
}

// RecordTranscriptFetch counts a transcript lookup outcome.
func RecordTranscriptFetch(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.transcriptFetches.WithLabelValues(outcome).Inc()
}

// RecordTranscriptBatch counts a processed transcript batch.
func RecordTranscriptBatch() {
	if !globalManager.enabled {
		return
	}
	globalManager.transcriptBatches.Inc()
}

// RecordCatalogRefresh counts a catalog refresh attempt.
func RecordCatalogRefresh(source, outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.catalogRefreshes.WithLabelValues(source, outcome).Inc()
}

// UpdateCatalogSize sets the number of cards in the catalog.
func UpdateCatalogSize(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.catalogSize.Set(float64(count))
}

// RecordSavedItemWrite counts a saved item write.
func RecordSavedItemWrite(kind, op string) {
	if !globalManager.enabled {
		return
	}
	globalManager.savedItemsWrites.WithLabelValues(kind, op).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an errored operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
