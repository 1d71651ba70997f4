package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search and index Prometheus metrics.
var (
	searchQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "search_queries_total",
			Help:      "Total number of executed search queries",
		},
		[]string{"scope"}, // "all" / "book" / "chapter"
	)

	reindexDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "folio",
			Name:      "search_reindex_duration_seconds",
			Help:      "Full index rebuild duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
	)

	reindexEntitiesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "search_reindex_entities_total",
			Help:      "Total entities processed by full index rebuilds",
		},
	)
)

var registered bool

// Register registers all folio metrics. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(searchQueriesTotal)
	prometheus.MustRegister(reindexDuration)
	prometheus.MustRegister(reindexEntitiesTotal)
	registered = true
}

// CountSearch counts one executed search in the given scope.
func CountSearch(scope string) {
	searchQueriesTotal.WithLabelValues(scope).Inc()
}

// ObserveReindex records one completed full rebuild.
func ObserveReindex(took time.Duration, entities int) {
	reindexDuration.Observe(took.Seconds())
	reindexEntitiesTotal.Add(float64(entities))
}
