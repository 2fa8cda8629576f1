package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits counts lookups served from a live entry.
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "penguinserve_cache_hits_total",
			Help: "Total number of cache lookups served from a live entry",
		},
		[]string{"key"},
	)

	// cacheMisses counts producer invocations.
	cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "penguinserve_cache_misses_total",
			Help: "Total number of cache misses that invoked the producer",
		},
		[]string{"key"},
	)

	// cacheErrors counts producer failures (never cached).
	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "penguinserve_cache_producer_errors_total",
			Help: "Total number of producer failures",
		},
		[]string{"key"},
	)

	mirrorErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "penguinserve_cache_mirror_errors_total",
			Help: "Total number of Redis mirror failures by operation",
		},
		[]string{"op"},
	)
)
