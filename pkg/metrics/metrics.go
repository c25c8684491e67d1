// Package metrics exposes the Prometheus registry used by the course explorer.
// Metrics are defined next to the code that updates them (client, cache,
// ratelimit, aggregator) and registered via promauto.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer all promauto metrics are added to.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer served by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Aggregation (pkg/aggregator):
//   - catalog_pages_total (Gauge): pages requested by the current run
//   - catalog_pages_completed (Gauge): pages fetched successfully so far
//   - catalog_courses (Gauge): courses aggregated so far
//   - catalog_loading (Gauge): 1 while a run is in progress
//   - catalog_page_failures_total (Counter): pages that could not be fetched
//   - catalog_run_duration_seconds (Histogram): duration of complete runs
//
// Requests (pkg/client):
//   - catalog_requests_total{status} (Counter): requests by HTTP status, "cache" or "network_error"
//   - catalog_request_duration_seconds (Histogram): round trip duration
//   - catalog_errors_total{class} (Counter): failed pages by error class
//   - catalog_retries_total{error_class} (Counter): retry attempts
//   - catalog_retry_backoff_seconds{error_class} (Histogram): backoff before a retry
//   - catalog_retry_exhausted_total{error_class} (Counter): pages that exhausted retries
//
// Back-off (pkg/ratelimit):
//   - catalog_rate_limit_blocks_total (Counter): Retry-After blocks recorded
//   - catalog_rate_limit_wait_seconds (Histogram): time spent waiting for a block to pass
//
// Cache (pkg/cache):
//   - catalog_cache_hits_total, catalog_cache_misses_total (Counter)
//   - catalog_cache_stored_bytes_total (Counter): bytes written to Redis
//   - catalog_cache_not_modified_total (Counter): entries refreshed after 304
//   - catalog_cache_errors_total{operation} (Counter)
//
// Example Prometheus Queries:
//
//   # Run progress
//   catalog_pages_completed / catalog_pages_total
//
//   # Failure ratio of the current run
//   catalog_page_failures_total / catalog_pages_total
//
//   # Cache Hit Rate
//   sum(rate(catalog_cache_hits_total[5m])) /
//   (sum(rate(catalog_cache_hits_total[5m])) + sum(rate(catalog_cache_misses_total[5m])))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(catalog_request_duration_seconds_bucket[5m]))
