package market

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup results.
const (
	resultHit    = "hit"
	resultStore  = "store"
	resultSource = "source"
	resultStale  = "stale"
	resultEmpty  = "empty"
)

var (
	lookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_market_cache_lookups_total",
			Help: "Market config lookups by where the answer came from",
		},
		[]string{"result"},
	)

	invalidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_market_cache_invalidations_total",
			Help: "Market cache invalidations",
		},
	)
)
