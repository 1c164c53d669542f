package news

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdesk_search_requests_total",
		Help: "Article search API requests by outcome",
	}, []string{"outcome"})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "newsdesk_search_duration_seconds",
		Help:    "Article search API request latency",
		Buckets: prometheus.DefBuckets,
	})

	articlesUpsertedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdesk_articles_upserted_total",
		Help: "Ingested articles by result: created, updated or unchanged",
	}, []string{"result"})

	documentsSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsdesk_documents_skipped_total",
		Help: "Search documents dropped because they could not be normalized",
	})
)
