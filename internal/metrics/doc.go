// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

/*
Package metrics provides Prometheus metrics collection and export for observability.

Metrics are registered on the default registry through promauto and exposed at
/metrics by the API router.

# Available Metrics

Recommendation Metrics:
  - recommend_duration_seconds: Pipeline latency (histogram)
    Labels: operation (generate, cluster_analytics)
  - recommend_signals_total: Signal fetch outcomes (counter)
    Labels: signal, status (ok, empty, failed, skipped)
  - recommend_worker_timeouts_total: Pooled tasks past their deadline (counter)
    Labels: task
  - recommend_retrieval_paths_total: Retrieval path per centroid (counter)
    Labels: path (index, scan, scan_after_failure)
  - recommend_clustering_fallbacks_total: Degraded clustering runs (counter)
    Labels: policy, reason
  - recommend_quarantined_vectors_total: Dropped vectors (counter)
    Labels: kind (features, lyrics)
  - recommend_feedback_total: Feedback received (counter)
    Labels: liked, source
  - cluster_cache_requests_total: Cluster cache lookups (counter)
    Labels: result (hit, miss, expired, forced, error)

Storage Metrics:
  - store_operation_duration_seconds: Store call latency (histogram)
    Labels: backend, operation
  - store_operation_errors_total: Failed store calls (counter)
  - store_value_log_gc_runs_total: Badger value log GC passes (counter)

HTTP Metrics:
  - api_requests_total, api_request_duration_seconds, api_active_requests
  - api_rate_limit_hits_total

Circuit Breaker Metrics:
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
  - circuit_breaker_requests_total: Labels: name, result
  - circuit_breaker_state_transitions_total: Labels: name, from, to

Example PromQL queries:

	# p95 recommendation latency
	histogram_quantile(0.95, rate(recommend_duration_seconds_bucket{operation="generate"}[5m]))

	# Share of requests served by the neighbor index
	sum(rate(recommend_retrieval_paths_total{path="index"}[5m])) / sum(rate(recommend_retrieval_paths_total[5m]))

# Thread Safety

All recording functions are safe for concurrent use.
*/
package metrics
