package middleware

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testCounter(t *testing.T, method, route, status string) float64 {
	t.Helper()
	return testutil.ToFloat64(httpRequests.WithLabelValues(method, route, status))
}
