// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation pipeline metrics
	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "Duration of recommendation operations in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"}, // "generate", "cluster_analytics"
	)

	RecommendSignals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_signals_total",
			Help: "Signal fetch outcomes by signal name and status",
		},
		[]string{"signal", "status"}, // status: ok, empty, failed, skipped
	)

	RecommendWorkerTimeouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_worker_timeouts_total",
			Help: "Pooled tasks that exceeded their deadline",
		},
		[]string{"task"},
	)

	RecommendRetrievalPaths = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_retrieval_paths_total",
			Help: "Candidate retrieval path taken per centroid",
		},
		[]string{"path"}, // "index", "scan", "scan_after_failure"
	)

	RecommendClusteringFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_clustering_fallbacks_total",
			Help: "Clustering runs that degraded to the mean centroid",
		},
		[]string{"policy", "reason"},
	)

	RecommendQuarantined = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_quarantined_vectors_total",
			Help: "Vectors dropped for wrong dimension or non-finite values",
		},
		[]string{"kind"}, // "features", "lyrics"
	)

	RecommendFeedback = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_feedback_total",
			Help: "Explicit feedback received",
		},
		[]string{"liked", "source"},
	)

	ClusterCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cluster_cache_requests_total",
			Help: "Cluster cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "expired", "forced", "error"
	)

	// Storage metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_errors_total",
			Help: "Store operations that returned an error",
		},
		[]string{"backend", "operation"},
	)

	StoreGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_value_log_gc_runs_total",
			Help: "Badger value log GC passes by outcome",
		},
		[]string{"result"}, // "rewritten", "nothing", "error"
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Application info
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version information",
		},
		[]string{"version", "go_version"},
	)
)

// ObserveRecommendDuration records how long a pipeline operation took.
func ObserveRecommendDuration(operation string, d time.Duration) {
	RecommendDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordSignal records the outcome of one signal fetch.
func RecordSignal(signal, status string) {
	RecommendSignals.WithLabelValues(signal, status).Inc()
}

// RecordWorkerTimeout records a pooled task that ran out of time.
func RecordWorkerTimeout(task string) {
	RecommendWorkerTimeouts.WithLabelValues(task).Inc()
}

// RecordRetrievalPath records the retrieval path used for a centroid.
func RecordRetrievalPath(path string) {
	RecommendRetrievalPaths.WithLabelValues(path).Inc()
}

// RecordClusteringFallback records a clustering run that degraded.
func RecordClusteringFallback(policy, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	RecommendClusteringFallbacks.WithLabelValues(policy, reason).Inc()
}

// RecordQuarantined records n dropped vectors of the given kind.
func RecordQuarantined(kind string, n int) {
	if n <= 0 {
		return
	}
	RecommendQuarantined.WithLabelValues(kind).Add(float64(n))
}

// RecordFeedback records a like or dislike with its attributed source.
func RecordFeedback(liked bool, source string) {
	if source == "" {
		source = "none"
	}
	RecommendFeedback.WithLabelValues(strconv.FormatBool(liked), source).Inc()
}

// RecordClusterCache records a cluster cache lookup result.
func RecordClusterCache(result string) {
	ClusterCacheRequests.WithLabelValues(result).Inc()
}

// RecordStoreOperation records a store call's latency and failure.
func RecordStoreOperation(backend, operation string, d time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(d.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(backend, operation).Inc()
	}
}

// RecordStoreGC records one value log GC pass.
func RecordStoreGC(result string) {
	StoreGCRuns.WithLabelValues(result).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit records a request rejected by the rate limiter.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}
