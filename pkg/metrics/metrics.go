// Package metrics provides the centralized Prometheus metrics reference for
// the market price client. Metrics are defined in their respective packages
// (client, cache, coordinator) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the market client.
// All metrics are automatically registered via promauto in their respective
// packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - market_requests_total{scope, status} (Counter): Upstream requests by scope and HTTP status
//   - market_request_duration_seconds{scope} (Histogram): Request duration by scope
//   - market_errors_total{class} (Counter): Fetch errors by class (network, http, malformed)
//   - market_inflight_coalesced_total (Counter): Lookups served by joining an in-flight request
//   - market_batch_size (Histogram): Item IDs per batched request
//
// Retry Metrics (pkg/client):
//   - market_retries_total{error_class} (Counter): Retry attempts by error class
//   - market_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - market_cache_hits_total (Counter): Validated cache hits
//   - market_cache_misses_total (Counter): Cache misses, including eager evictions
//   - market_cache_evictions_total{reason} (Counter): Evictions by reason
//     (expired, schema_mismatch, checksum_mismatch)
//   - market_cache_size_bytes (Gauge): Bytes written to the cache backend
//   - market_cache_errors_total{operation} (Counter): Cache operation errors
//
// Coordinator Metrics (pkg/coordinator):
//   - market_stale_results_discarded_total (Counter): Results discarded after a scope change
//   - market_events_emitted_total{event} (Counter): Events emitted by name
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(market_cache_hits_total[5m])) /
//   (sum(rate(market_cache_hits_total[5m])) + sum(rate(market_cache_misses_total[5m])))
//
//   # Request Error Rate
//   rate(market_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(market_request_duration_seconds_bucket[5m]))
//
//   # Bandwidth Saved by Request Collapsing
//   rate(market_inflight_coalesced_total[5m])
