// Package shopify talks to the Shopify Storefront and Admin GraphQL APIs.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mattparisien/becoming-front/pkg/httpclient"
	"github.com/mattparisien/becoming-front/pkg/tracing"
)

const (
	apiStorefront = "storefront"
	apiAdmin      = "admin"

	storefrontTokenHeader = "X-Shopify-Storefront-Access-Token"
	adminTokenHeader      = "X-Shopify-Access-Token"
)

// ErrNotConfigured is returned when the access token or store domain is missing.
var ErrNotConfigured = errors.New("shopify credentials not configured")

// Config locates a shop's GraphQL endpoints.
type Config struct {
	// StoreDomain is the shop host, e.g. "becoming.myshopify.com". A value with
	// a scheme is used as the base URL verbatim.
	StoreDomain     string
	APIVersion      string
	StorefrontToken string
	AdminToken      string
	Timeout         time.Duration
}

func (c Config) baseURL() string {
	if strings.Contains(c.StoreDomain, "://") {
		return strings.TrimRight(c.StoreDomain, "/")
	}
	return "https://" + c.StoreDomain
}

// StorefrontEndpoint returns the Storefront API GraphQL URL.
func (c Config) StorefrontEndpoint() string {
	return fmt.Sprintf("%s/api/%s/graphql.json", c.baseURL(), c.APIVersion)
}

// AdminEndpoint returns the Admin API GraphQL URL.
func (c Config) AdminEndpoint() string {
	return fmt.Sprintf("%s/admin/api/%s/graphql.json", c.baseURL(), c.APIVersion)
}

// Client posts GraphQL documents to one Shopify endpoint. Requests go through a
// circuit breaker and are never retried.
type Client struct {
	http        *httpclient.BreakerClient
	api         string
	endpoint    string
	tokenHeader string
	token       string
	logger      *slog.Logger
}

// NewStorefrontClient returns a client for the Storefront API.
func NewStorefrontClient(cfg Config, logger *slog.Logger) *Client {
	return newClient(apiStorefront, cfg.StorefrontEndpoint(), storefrontTokenHeader, cfg.StorefrontToken, cfg, logger)
}

// NewAdminClient returns a client for the Admin API.
func NewAdminClient(cfg Config, logger *slog.Logger) *Client {
	return newClient(apiAdmin, cfg.AdminEndpoint(), adminTokenHeader, cfg.AdminToken, cfg, logger)
}

func newClient(api, endpoint, header, token string, cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cfg.StoreDomain == "" {
		token = ""
	}

	hc := httpclient.New(httpclient.UpstreamConfig(timeout))
	return &Client{
		http:        httpclient.NewBreakerClient(hc, httpclient.DefaultBreakerConfig("shopify-"+api), logger),
		api:         api,
		endpoint:    endpoint,
		tokenHeader: header,
		token:       token,
		logger:      logger,
	}
}

// Configured reports whether the client has credentials.
func (c *Client) Configured() bool {
	return c.token != ""
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// Do runs one GraphQL operation and decodes its data into out. Transport
// failures, non-2xx statuses and top-level GraphQL errors all return *APIError.
func (c *Client) Do(ctx context.Context, operation, query string, variables map[string]any, out any) (err error) {
	if !c.Configured() {
		return ErrNotConfigured
	}

	ctx, span := tracing.Start(ctx, "shopify."+operation,
		attribute.String("shopify.api", c.api),
		attribute.String("graphql.operation.name", operation),
	)
	start := time.Now()
	defer func() {
		observe(c.api, operation, start, err)
		tracing.End(span, err)
	}()

	if variables == nil {
		variables = map[string]any{}
	}
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(c.tokenHeader, c.token)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		var respErr *httpclient.ResponseError
		if errors.As(err, &respErr) {
			return statusError(operation, respErr.StatusCode)
		}
		return &APIError{Operation: operation, Message: "Shopify API request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(operation, resp.StatusCode)
	}

	var gr graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return &APIError{Operation: operation, Status: resp.StatusCode, Message: "invalid Shopify response", Err: err}
	}
	if len(gr.Errors) > 0 {
		msg := gr.Errors[0].Message
		if msg == "" {
			msg = "GraphQL error"
		}
		c.logger.ErrorContext(ctx, "shopify graphql errors",
			slog.String("api", c.api),
			slog.String("operation", operation),
			slog.Int("count", len(gr.Errors)),
			slog.String("error", msg),
		)
		return &APIError{Operation: operation, Status: resp.StatusCode, Message: msg}
	}

	if out == nil || len(gr.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return &APIError{Operation: operation, Status: resp.StatusCode, Message: "invalid Shopify response", Err: err}
	}
	return nil
}

func statusError(operation string, status int) *APIError {
	return &APIError{
		Operation: operation,
		Status:    status,
		Message:   fmt.Sprintf("Shopify API error: %d %s", status, http.StatusText(status)),
	}
}
