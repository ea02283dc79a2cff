package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PublishedTotal counts events delivered to subscribers, by type.
	PublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "privymarket_events_published_total",
			Help: "Total number of settlement events delivered to subscribers",
		},
		[]string{"type"},
	)

	// DroppedTotal counts events dropped because a subscriber was slow.
	DroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "privymarket_events_dropped_total",
		Help: "Total number of settlement events dropped for slow subscribers",
	})
)
