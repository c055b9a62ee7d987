package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSearches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_catalog_searches_total",
		Help: "Total catalog search requests",
	})

	metricSearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pos_catalog_search_duration_ms",
		Help:    "Catalog search duration",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
)
