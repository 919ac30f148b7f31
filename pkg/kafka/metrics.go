package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_events_published_total",
			Help: "Events published, by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	publishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_events_publish_duration_seconds",
			Help:    "Time spent writing events to the broker",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic"},
	)

	messagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_events_consumed_total",
			Help: "Events consumed, by topic, group and outcome (processed, failed, malformed)",
		},
		[]string{"topic", "group", "outcome"},
	)

	handleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_events_handle_duration_seconds",
			Help:    "Time spent in event handlers",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic", "group"},
	)
)
