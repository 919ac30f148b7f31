// Package cartclient is a Go client for the storefront cart API: a thin
// transport over /api/cart and an optimistic in-memory store on top of it.
package cartclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/mattparisien/becoming-front/internal/domain"
	"github.com/mattparisien/becoming-front/pkg/httpclient"
)

// CartPath is the cart resource served by the storefront.
const CartPath = "/api/cart"

// DefaultErrorMessage is used when a failed response carries no error text.
const DefaultErrorMessage = "Cart request failed"

// RequestError is a non-2xx answer from the cart API.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Transport issues cart requests. Every call returns the full cart as the
// server now sees it. The cart cookie lives in the transport's jar and is
// never touched by callers.
type Transport struct {
	client   *httpclient.Client
	endpoint string
}

// NewTransport creates a transport for the storefront at baseURL. Requests
// are not retried.
func NewTransport(baseURL string, timeout time.Duration) (*Transport, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	cfg := httpclient.UpstreamConfig(timeout)
	cfg.Jar = jar

	return &Transport{
		client:   httpclient.New(cfg),
		endpoint: strings.TrimRight(baseURL, "/") + CartPath,
	}, nil
}

// Jar exposes the cookie jar holding the cart cookie.
func (t *Transport) Jar() http.CookieJar {
	return t.client.Jar()
}

// Get reads the current cart. Without a cart cookie the empty cart is
// returned.
func (t *Transport) Get(ctx context.Context) (*domain.Cart, error) {
	var cart domain.Cart
	if err := t.do(ctx, http.MethodGet, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddLines adds lines, creating the cart when needed.
func (t *Transport) AddLines(ctx context.Context, lines []domain.LineInput) (*domain.Cart, error) {
	var cart domain.Cart
	if err := t.do(ctx, http.MethodPost, map[string]any{"lines": lines}, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// UpdateLines sets line quantities.
func (t *Transport) UpdateLines(ctx context.Context, lines []domain.LineUpdate) (*domain.Cart, error) {
	var cart domain.Cart
	if err := t.do(ctx, http.MethodPatch, map[string]any{"lines": lines}, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// RemoveLines removes lines by id.
func (t *Transport) RemoveLines(ctx context.Context, lineIDs []string) (*domain.Cart, error) {
	var cart domain.Cart
	if err := t.do(ctx, http.MethodDelete, map[string]any{"lineIds": lineIDs}, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// Clear drops the cart reference held by the server.
func (t *Transport) Clear(ctx context.Context) error {
	var ack struct {
		Success bool `json:"success"`
	}
	return t.do(ctx, http.MethodDelete, struct{}{}, &ack)
}

func (t *Transport) do(ctx context.Context, method string, payload, out any) error {
	var body io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal cart request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.endpoint, body)
	if err != nil {
		return fmt.Errorf("create cart request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("cart request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respErr := httpclient.ParseResponseError(resp, "cart")
		msg := respErr.Message
		if msg == "" {
			msg = DefaultErrorMessage
		}
		return &RequestError{Status: resp.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode cart response: %w", err)
	}
	return nil
}
