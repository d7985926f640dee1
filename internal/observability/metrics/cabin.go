package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CabinsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cabins_created_total",
			Help: "Total number of cabins created",
		},
	)

	CabinsDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cabins_deleted_total",
			Help: "Total number of cabins deleted",
		},
	)

	SlugConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slug_conflicts_total",
			Help: "Total number of slug unique-index conflicts that triggered a re-resolve",
		},
	)

	SlugProbeDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "slug_probe_depth",
			Help:    "Number of candidate slugs probed before a free one was found",
			Buckets: []float64{1, 2, 3, 5, 10, 25},
		},
	)
)
