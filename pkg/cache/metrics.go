package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks validated cache hits.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "market_cache_hits_total",
			Help: "Total number of price cache hits",
		},
	)

	// CacheMisses tracks cache misses, including eager evictions.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "market_cache_misses_total",
			Help: "Total number of price cache misses",
		},
	)

	// CacheEvictions tracks entries evicted on read by reason.
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_cache_evictions_total",
			Help: "Total number of cache entries evicted on read",
		},
		[]string{"reason"}, // "expired", "schema_mismatch", "checksum_mismatch"
	)

	// CacheSize tracks bytes written to the cache backend.
	CacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "market_cache_size_bytes",
			Help: "Bytes written to the price cache backend",
		},
	)

	// CacheErrors tracks cache operation errors.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set"
	)
)
