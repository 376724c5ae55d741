package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and inner hit Prometheus metrics.
var (
	InnerHitPairsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "innerhits",
			Name:      "pairs_total",
			Help:      "Total number of (hit, definition) pairs by outcome",
		},
		[]string{"outcome"}, // "attached" / "failed" / "cancelled"
	)

	InnerHitPairDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "innerhits",
			Name:      "pair_duration_seconds",
			Help:      "Time spent resolving and executing one (hit, definition) pair",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "innerhits",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"index", "status"}, // "ok" / "partial" / "error"
	)

	ResolutionCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "innerhits",
			Name:      "resolution_cache_total",
			Help:      "Resolution cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers the search and inner hit metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(InnerHitPairsTotal)
	prometheus.MustRegister(InnerHitPairDuration)
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(ResolutionCacheTotal)
	searchMetricsRegistered = true
}
