package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "svtr_rag_query_duration_seconds",
			Help:    "Query processing duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"intent"},
	)

	QueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "svtr_rag_query_total",
			Help: "Total number of queries processed",
		},
		[]string{"status"},
	)

	ConfidenceScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "svtr_rag_confidence_score",
			Help:    "Bundle confidence scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	RetrievalMatches = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "svtr_rag_retrieval_matches",
			Help:    "Number of knowledge-base matches per query",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	WebSearchTriggered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "svtr_rag_web_search_triggered_total",
			Help: "Total number of web searches triggered",
		},
		[]string{"reason"},
	)

	WebSearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "svtr_rag_web_search_results",
			Help:    "Number of web results merged per fallback",
			Buckets: []float64{0, 1, 2, 5, 10},
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "svtr_rag_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"tier"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "svtr_rag_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"tier"},
	)

	CacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "svtr_rag_cache_size",
			Help: "Current number of entries in the result cache",
		},
	)

	ExpansionConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "svtr_rag_expansion_confidence",
			Help:    "Query expansion confidence scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)
)

func Init() {
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryTotal)
	prometheus.MustRegister(ConfidenceScore)
	prometheus.MustRegister(RetrievalMatches)
	prometheus.MustRegister(WebSearchTriggered)
	prometheus.MustRegister(WebSearchResults)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(CacheSize)
	prometheus.MustRegister(ExpansionConfidence)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
