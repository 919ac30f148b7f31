package shopify

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_shopify_request_duration_seconds",
			Help:    "Shopify GraphQL call latency by API, operation and outcome",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"api", "operation", "outcome"},
	)

	userErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_shopify_user_errors_total",
			Help: "Mutations rejected with userErrors",
		},
		[]string{"operation"},
	)
)

func outcome(err error) string {
	var ae *APIError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &ae):
		return "api_error"
	default:
		return "error"
	}
}

func observe(api, operation string, start time.Time, err error) {
	requestDuration.WithLabelValues(api, operation, outcome(err)).Observe(time.Since(start).Seconds())
}
