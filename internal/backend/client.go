// Package backend forwards order and domain requests to the Becoming API,
// which owns pending orders and plugin domain licences.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/mattparisien/becoming-front/pkg/errors"
	"github.com/mattparisien/becoming-front/pkg/httpclient"
)

const serviceName = "becoming-api"

// DomainNotes is attached to every domain registered from checkout.
const DomainNotes = "Registered via checkout flow"

// HTTPDoer executes requests. *httpclient.BreakerClient satisfies it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// PendingOrderInput is recorded before the visitor leaves for Shopify
// checkout. Metadata is passed through untouched apart from the
// internalUrl check.
type PendingOrderInput struct {
	ShopifyProductIDs []string       `json:"shopifyProductIds"`
	Metadata          map[string]any `json:"metadata"`
}

// Validate checks the fields the backend needs to fulfil the order later.
func (in PendingOrderInput) Validate() error {
	if len(in.ShopifyProductIDs) == 0 {
		return apperrors.InvalidInput("shopifyProductIds array is required")
	}
	if u, _ := in.Metadata["internalUrl"].(string); u == "" {
		return apperrors.InvalidInput("metadata.internalUrl is required")
	}
	return nil
}

// DomainRegistration licenses plugins for a website.
type DomainRegistration struct {
	WebsiteURL        string   `json:"websiteUrl"`
	ShopifyProductIDs []string `json:"shopifyProductIds"`
	CustomerEmail     string   `json:"customerEmail,omitempty"`
}

// Validate checks the registration before it is forwarded.
func (in DomainRegistration) Validate() error {
	if in.WebsiteURL == "" {
		return apperrors.InvalidInput("Website URL is required")
	}
	if len(in.ShopifyProductIDs) == 0 {
		return apperrors.InvalidInput("At least one plugin is required")
	}
	return nil
}

type domainRequest struct {
	DomainRegistration
	Notes string `json:"notes"`
}

// Client calls the Becoming API. Response bodies are returned raw so the
// storefront does not need to track the backend's schema.
type Client struct {
	http    HTTPDoer
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewClient creates a backend client.
func NewClient(client HTTPDoer, baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger,
	}
}

// CreatePendingOrder records a pending order and returns the backend's body,
// which carries the customId to attach to the Shopify checkout.
func (c *Client) CreatePendingOrder(ctx context.Context, in PendingOrderInput) (json.RawMessage, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	body, err := c.call(ctx, http.MethodPost, "/api/orders/pending", in)
	if err != nil {
		return nil, c.forwardError(ctx, "create pending order", err, "Failed to create pending order")
	}

	c.logger.InfoContext(ctx, "pending order created",
		slog.Int("product_count", len(in.ShopifyProductIDs)),
	)
	return body, nil
}

// PendingOrder fetches a pending order by its customId.
func (c *Client) PendingOrder(ctx context.Context, customID string) (json.RawMessage, error) {
	if customID == "" {
		return nil, apperrors.InvalidInput("customId query parameter is required")
	}

	body, err := c.call(ctx, http.MethodGet, "/api/orders/pending-order/"+url.PathEscape(customID), nil)
	if err != nil {
		var respErr *httpclient.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil, apperrors.NotFoundMessage("Pending order not found")
		}
		return nil, c.forwardError(ctx, "fetch pending order", err, "Failed to fetch pending order")
	}
	return body, nil
}

// RegisterDomain licenses the registration's plugins for its website.
func (c *Client) RegisterDomain(ctx context.Context, in DomainRegistration) (json.RawMessage, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	body, err := c.call(ctx, http.MethodPost, "/admin/domains", domainRequest{DomainRegistration: in, Notes: DomainNotes})
	if err != nil {
		return nil, c.forwardError(ctx, "register domain", err, "Failed to register domain")
	}

	c.logger.InfoContext(ctx, "domain registered",
		slog.String("website_url", in.WebsiteURL),
	)
	return body, nil
}

// call sends payload (when non-nil) as JSON and returns the 2xx body. Non-2xx
// answers come back as *httpclient.ResponseError.
func (c *Client) call(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	var reader io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", serviceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httpclient.ParseResponseError(resp, serviceName)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", serviceName, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%s returned a non-JSON body", serviceName)
	}
	return body, nil
}

// forwardError keeps the backend's status and message for non-2xx answers
// and hides transport failures behind a 500.
func (c *Client) forwardError(ctx context.Context, op string, err error, fallback string) error {
	var respErr *httpclient.ResponseError
	if errors.As(err, &respErr) {
		c.logger.WarnContext(ctx, "backend API error",
			slog.String("operation", op),
			slog.Int("status", respErr.StatusCode),
			slog.String("error", respErr.Error()),
		)
		return respErr.AppError(fallback)
	}

	c.logger.ErrorContext(ctx, "backend API request failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	return apperrors.Internal(fmt.Errorf("%s: %w", op, err))
}
