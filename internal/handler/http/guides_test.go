package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattparisien/becoming-front/internal/guides"
	"github.com/mattparisien/becoming-front/pkg/httpclient"
)

// pluginAPI fakes the plugin API's guide auth endpoint.
func pluginAPI(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testGuideHandler(baseURL string) *GuideHandler {
	client := httpclient.New(httpclient.UpstreamConfig(2 * time.Second))
	verifier := guides.NewVerifier(client, baseURL, "plugin-key", testLogger())
	return NewGuideHandler(verifier, guides.NewSessions(testSigner(), false), testLogger())
}

func setupGuideRouter(h *GuideHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/api/installation-guides/auth", h.Authenticate)
	r.Get("/api/installation-guides/{slug}/session", h.Session)
	return r
}

func TestGuideAuth_Success(t *testing.T) {
	srv, calls := pluginAPI(t, http.StatusOK, `{"isAuthenticated":true}`)
	router := setupGuideRouter(testGuideHandler(srv.URL))

	rec := doRequest(router, http.MethodPost, "/api/installation-guides/auth", `{"slug":"webflow-setup","password":"open"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Equal(t, int32(1), calls.Load())

	c := findCookie(rec, guides.CookieName("webflow-setup"))
	require.NotNil(t, c)
	assert.NotEqual(t, "open", c.Value)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, int(guides.SessionTTL.Seconds()), c.MaxAge)

	// The issued cookie unlocks the session endpoint for that guide only.
	rec = doRequest(router, http.MethodGet, "/api/installation-guides/webflow-setup/session", "", c)
	assert.JSONEq(t, `{"authenticated":true}`, rec.Body.String())

	other := &http.Cookie{Name: guides.CookieName("framer-setup"), Value: c.Value}
	rec = doRequest(router, http.MethodGet, "/api/installation-guides/framer-setup/session", "", other)
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())
}

func TestGuideAuth_MissingFields(t *testing.T) {
	srv, calls := pluginAPI(t, http.StatusOK, `{"isAuthenticated":true}`)
	router := setupGuideRouter(testGuideHandler(srv.URL))

	for _, body := range []string{`{"slug":"webflow-setup"}`, `{"password":"x"}`, `{}`} {
		rec := doRequest(router, http.MethodPost, "/api/installation-guides/auth", body)

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "Password and slug are required", decodeError(t, rec).Error, body)
	}
	assert.Zero(t, calls.Load())
}

func TestGuideAuth_InvalidSlug(t *testing.T) {
	srv, calls := pluginAPI(t, http.StatusOK, `{"isAuthenticated":true}`)
	router := setupGuideRouter(testGuideHandler(srv.URL))

	rec := doRequest(router, http.MethodPost, "/api/installation-guides/auth", `{"slug":"../admin","password":"x"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, calls.Load())
}

func TestGuideAuth_WrongPassword(t *testing.T) {
	srv, _ := pluginAPI(t, http.StatusOK, `{"isAuthenticated":false}`)
	router := setupGuideRouter(testGuideHandler(srv.URL))

	rec := doRequest(router, http.MethodPost, "/api/installation-guides/auth", `{"slug":"webflow-setup","password":"nope"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Incorrect password", decodeError(t, rec).Error)
	assert.Nil(t, findCookie(rec, guides.CookieName("webflow-setup")))
}

func TestGuideAuth_UpstreamStatuses(t *testing.T) {
	tests := []struct {
		name     string
		upstream int
		status   int
		message  string
	}{
		{"api key refused", http.StatusForbidden, http.StatusInternalServerError, "Server authentication failed"},
		{"guide missing", http.StatusNotFound, http.StatusNotFound, "Authentication failed"},
		{"bad request", http.StatusBadRequest, http.StatusBadRequest, "Authentication failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := pluginAPI(t, tt.upstream, `{"error":"nope"}`)
			router := setupGuideRouter(testGuideHandler(srv.URL))

			rec := doRequest(router, http.MethodPost, "/api/installation-guides/auth", `{"slug":"webflow-setup","password":"x"}`)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decodeError(t, rec).Error)
		})
	}
}

func TestGuideAuth_NotConfigured(t *testing.T) {
	router := setupGuideRouter(testGuideHandler(""))

	rec := doRequest(router, http.MethodPost, "/api/installation-guides/auth", `{"slug":"webflow-setup","password":"x"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server configuration error", decodeError(t, rec).Error)
}

func TestGuideSession_NoCookie(t *testing.T) {
	router := setupGuideRouter(testGuideHandler("http://unused"))

	rec := doRequest(router, http.MethodGet, "/api/installation-guides/webflow-setup/session", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp sessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Authenticated)
}

func TestGuideSession_PlainPasswordCookieRejected(t *testing.T) {
	router := setupGuideRouter(testGuideHandler("http://unused"))
	legacy := &http.Cookie{Name: guides.CookieName("webflow-setup"), Value: "open"}

	rec := doRequest(router, http.MethodGet, "/api/installation-guides/webflow-setup/session", "", legacy)

	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())
}
