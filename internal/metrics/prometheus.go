package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "printkb_search_duration_seconds",
			Help:    "Search pipeline duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"mode"},
	)

	SearchResultsCount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "printkb_search_results_count",
			Help:    "Number of results returned per search",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	CurationDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printkb_curation_decisions_total",
			Help: "Curation decisions by outcome",
		},
		[]string{"outcome"},
	)

	CurationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "printkb_curation_duration_seconds",
			Help:    "Full curation pipeline duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	RerankRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printkb_rerank_requests_total",
			Help: "Reranking stage outcomes",
		},
		[]string{"status"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printkb_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printkb_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	DocumentsIndexed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "printkb_documents_indexed_total",
			Help: "Total approved documents indexed into the vector store",
		},
	)
)

func Init() {
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchResultsCount)
	prometheus.MustRegister(CurationDecisions)
	prometheus.MustRegister(CurationDuration)
	prometheus.MustRegister(RerankRequests)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(DocumentsIndexed)
}

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
