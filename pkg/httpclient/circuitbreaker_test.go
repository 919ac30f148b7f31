package httpclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      100 * time.Millisecond,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
}

func get(ctx context.Context, cb *BreakerClient, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	return cb.Do(ctx, req)
}

func TestBreaker_ClosedState_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	cb := NewBreakerClient(New(fastRetryConfig(0)), testBreakerConfig("test-closed"), testLogger())

	resp, err := get(context.Background(), cb, server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, cb.breaker.State())
}

func TestBreaker_5xxSurfacesResponseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"maintenance"}`))
	}))
	defer server.Close()

	cb := NewBreakerClient(New(fastRetryConfig(0)), testBreakerConfig("test-5xx"), testLogger())

	_, err := get(context.Background(), cb, server.URL)
	require.Error(t, err)

	var re *ResponseError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusServiceUnavailable, re.StatusCode)
	assert.Equal(t, "maintenance", re.Message)
	assert.Equal(t, "test-5xx", re.Service)
}

func TestBreaker_TripsOnFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cb := NewBreakerClient(New(fastRetryConfig(0)), testBreakerConfig("test-trip"), testLogger())

	for i := 0; i < 3; i++ {
		_, err := get(context.Background(), cb, server.URL)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.breaker.State())

	_, err := get(context.Background(), cb, server.URL)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreaker_HalfOpenRecovers(t *testing.T) {
	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cb := NewBreakerClient(New(fastRetryConfig(0)), testBreakerConfig("test-recover"), testLogger())
	for i := 0; i < 3; i++ {
		_, _ = get(context.Background(), cb, server.URL)
	}
	require.Equal(t, gobreaker.StateOpen, cb.breaker.State())

	healthy.Store(true)
	time.Sleep(150 * time.Millisecond)

	resp, err := get(context.Background(), cb, server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, gobreaker.StateClosed, cb.breaker.State())
}

func TestBreaker_4xxNotCountedAsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cb := NewBreakerClient(New(fastRetryConfig(0)), testBreakerConfig("test-4xx"), testLogger())
	for i := 0; i < 5; i++ {
		resp, err := get(context.Background(), cb, server.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, gobreaker.StateClosed, cb.breaker.State())
}

// ====================================================================
// Fallback
// ====================================================================

func TestBreaker_WithFallback_InvokedWhenOpen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	var invoked atomic.Bool
	cb := NewBreakerClient(New(fastRetryConfig(0)), testBreakerConfig("test-fallback"), testLogger()).
		WithFallback(func(ctx context.Context, err error) (*http.Response, error) {
			invoked.Store(true)
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("cached"))}, nil
		})

	for i := 0; i < 3; i++ {
		_, _ = get(context.Background(), cb, server.URL)
	}
	assert.False(t, invoked.Load())

	resp, err := get(context.Background(), cb, server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.True(t, invoked.Load())
}

func TestBreaker_UnavailableFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cb := NewBreakerClient(New(fastRetryConfig(0)), testBreakerConfig("test-unavailable"), testLogger()).
		WithFallback(UnavailableFallback("Service temporarily unavailable"))

	for i := 0; i < 3; i++ {
		_, _ = get(context.Background(), cb, server.URL)
	}

	resp, err := get(context.Background(), cb, server.URL)
	require.NoError(t, err)

	re := ParseResponseError(resp, "test-unavailable")
	assert.Equal(t, http.StatusServiceUnavailable, re.StatusCode)
	assert.Equal(t, "Service temporarily unavailable", re.Message)
}

func TestBreaker_Check(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cb := NewBreakerClient(New(fastRetryConfig(0)), testBreakerConfig("test-check"), testLogger())
	require.NoError(t, cb.Check(context.Background()))

	for i := 0; i < 3; i++ {
		_, _ = get(context.Background(), cb, server.URL)
	}
	err := cb.Check(context.Background())
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Contains(t, err.Error(), "test-check")

	// A fallback keeps answering, but the breaker still reports open.
	assert.ErrorIs(t, cb.WithFallback(UnavailableFallback("down")).Check(context.Background()), ErrCircuitOpen)
}

func TestBreaker_CanceledRequestsDoNotTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cb := NewBreakerClient(New(fastRetryConfig(0)), testBreakerConfig("test-cancel"), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		_, err := get(ctx, cb, server.URL)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.breaker.State())
}

func TestDefaultBreakerConfig(t *testing.T) {
	cfg := DefaultBreakerConfig("shopify-storefront")
	assert.Equal(t, "shopify-storefront", cfg.Name)
	assert.Equal(t, uint32(5), cfg.MinRequests)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}
