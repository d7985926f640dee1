package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "event_subscribers",
			Help: "Number of connected event feed subscribers",
		},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of cabin events published to the feed",
		},
		[]string{"action"},
	)

	EventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_dropped_total",
			Help: "Total number of events dropped because a subscriber buffer was full",
		},
	)
)
