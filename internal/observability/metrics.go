// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Gateway metrics
	UpstreamCalls   *prometheus.CounterVec
	UpstreamErrors  *prometheus.CounterVec
	UpstreamLatency *prometheus.HistogramVec
	CacheHits       *prometheus.CounterVec
	CacheMisses     *prometheus.CounterVec

	// Pipeline metrics
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	PhaseErrors      *prometheus.CounterVec

	// Monitoring metrics
	CyclesTotal      prometheus.Counter
	CycleDuration    prometheus.Histogram
	CandidatesSeen   *prometheus.CounterVec
	AlertsDispatched prometheus.Counter
	KnownTokens      prometheus.Gauge
	LastCycleUnix    prometheus.Gauge

	// Storage metrics
	StoreErrors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tokenwatch"
	}

	return &Metrics{
		UpstreamCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "upstream_calls_total",
			Help:      "Total upstream API calls by endpoint",
		}, []string{"endpoint"}),
		UpstreamErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "upstream_errors_total",
			Help:      "Total failed upstream API calls by endpoint",
		}, []string{"endpoint"}),
		UpstreamLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "upstream_latency_seconds",
			Help:      "Upstream call latency by endpoint",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "cache_hits_total",
			Help:      "Cache hits by resource type",
		}, []string{"resource"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "cache_misses_total",
			Help:      "Cache misses by resource type",
		}, []string{"resource"}),

		AnalysesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "analyses_total",
			Help:      "Completed analyses by mode",
		}, []string{"mode"}),
		AnalysisDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end analysis duration",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		PhaseErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "phase_errors_total",
			Help:      "Degraded pipeline phases by phase name",
		}, []string{"phase"}),

		CyclesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "cycles_total",
			Help:      "Completed monitoring cycles",
		}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "cycle_duration_seconds",
			Help:      "Monitoring cycle duration",
			Buckets:   []float64{10, 30, 60, 300, 900, 1800, 3600},
		}),
		CandidatesSeen: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "candidates_total",
			Help:      "Candidate tokens seen by source",
		}, []string{"source"}),
		AlertsDispatched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "alerts_dispatched_total",
			Help:      "Alerts handed to the dispatcher",
		}),
		KnownTokens: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "known_tokens",
			Help:      "Size of the known-token dedup set",
		}),
		LastCycleUnix: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix timestamp of the last completed cycle",
		}),

		StoreErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "errors_total",
			Help:      "Storage errors by operation",
		}, []string{"operation"}),
	}
}

// Handler returns the Prometheus scrape handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}
