package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HitsTotal counts market cache hits.
	HitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "privymarket_market_cache_hits_total",
		Help: "Total number of market cache hits",
	})

	// MissesTotal counts market cache misses.
	MissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "privymarket_market_cache_misses_total",
		Help: "Total number of market cache misses",
	})

	// SetsTotal counts market cache inserts.
	SetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "privymarket_market_cache_sets_total",
		Help: "Total number of market cache inserts",
	})

	// InvalidationsTotal counts market cache invalidations.
	InvalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "privymarket_market_cache_invalidations_total",
		Help: "Total number of market cache invalidations",
	})
)
