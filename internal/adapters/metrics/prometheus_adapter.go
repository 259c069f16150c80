package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for the upstream request counter.
const (
	OutcomeSuccess        = "success"
	OutcomeStatusError    = "status_error"
	OutcomeTransportError = "transport_error"
)

var (
	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ddmcp_upstream_requests_total",
			Help: "Number of upstream API requests by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ddmcp_cache_lookups_total",
			Help: "Number of cache lookups by cache name and result (hit/miss).",
		},
		[]string{"cache", "result"},
	)
)

// IncrementUpstreamRequests records one upstream call with its outcome.
func IncrementUpstreamRequests(endpoint, outcome string) {
	upstreamRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
}

// IncrementCacheHit records a cache hit for the named cache.
func IncrementCacheHit(cache string) {
	cacheLookupsTotal.WithLabelValues(cache, "hit").Inc()
}

// IncrementCacheMiss records a cache miss for the named cache.
func IncrementCacheMiss(cache string) {
	cacheLookupsTotal.WithLabelValues(cache, "miss").Inc()
}
