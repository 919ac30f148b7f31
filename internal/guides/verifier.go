// Package guides gates installation guides behind per-guide passwords checked
// by the plugin API.
package guides

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/mattparisien/becoming-front/pkg/errors"
	"github.com/mattparisien/becoming-front/pkg/httpclient"
)

const serviceName = "plugin-api"

// HTTPDoer executes requests. *httpclient.BreakerClient satisfies it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Verifier checks guide passwords against the plugin API.
type Verifier struct {
	http    HTTPDoer
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewVerifier creates a Verifier calling {baseURL}/{slug}/auth.
func NewVerifier(client HTTPDoer, baseURL, apiKey string, logger *slog.Logger) *Verifier {
	return &Verifier{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger,
	}
}

type authRequest struct {
	Password string `json:"password"`
}

type authResponse struct {
	IsAuthenticated bool `json:"isAuthenticated"`
}

// Verify reports whether password opens the guide named slug. A wrong
// password is (false, nil); failures to ask are AppErrors carrying the status
// to answer with.
func (v *Verifier) Verify(ctx context.Context, slug, password string) (bool, error) {
	if v.baseURL == "" || v.apiKey == "" {
		v.logger.ErrorContext(ctx, "plugin API url or key not configured")
		return false, apperrors.Upstream(http.StatusInternalServerError, "Server configuration error")
	}

	body, err := json.Marshal(authRequest{Password: password})
	if err != nil {
		return false, fmt.Errorf("marshal auth request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/auth", v.baseURL, url.PathEscape(slug))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", v.apiKey)

	resp, err := v.http.Do(ctx, req)
	if err != nil {
		var respErr *httpclient.ResponseError
		if errors.As(err, &respErr) {
			return false, v.statusError(ctx, slug, respErr.StatusCode)
		}
		v.logger.ErrorContext(ctx, "plugin API request failed",
			slog.String("slug", slug),
			slog.String("error", err.Error()),
		)
		return false, apperrors.Upstream(http.StatusInternalServerError, "Authentication failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, v.statusError(ctx, slug, httpclient.ParseResponseError(resp, serviceName).StatusCode)
	}

	var out authResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		v.logger.ErrorContext(ctx, "decode plugin API response",
			slog.String("slug", slug),
			slog.String("error", err.Error()),
		)
		return false, apperrors.Upstream(http.StatusInternalServerError, "Authentication failed")
	}
	return out.IsAuthenticated, nil
}

// statusError maps a plugin API status. 403 means our API key was refused,
// which the visitor cannot fix.
func (v *Verifier) statusError(ctx context.Context, slug string, status int) error {
	if status == http.StatusForbidden {
		v.logger.ErrorContext(ctx, "plugin API rejected the API key",
			slog.String("slug", slug),
		)
		return apperrors.Upstream(http.StatusInternalServerError, "Server authentication failed")
	}
	v.logger.WarnContext(ctx, "plugin API refused guide auth",
		slog.String("slug", slug),
		slog.Int("status", status),
	)
	return apperrors.Upstream(status, "Authentication failed")
}
