package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mattparisien/becoming-front/internal/domain"
	"github.com/mattparisien/becoming-front/internal/locale"
	"github.com/mattparisien/becoming-front/pkg/middleware"
)

// ============================================================================
// Mock MarketCache
// ============================================================================

type mockMarketCache struct {
	mock.Mock
}

func (m *mockMarketCache) Markets(ctx context.Context) ([]domain.Market, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Market), args.Error(1)
}

func (m *mockMarketCache) Config(ctx context.Context) (*domain.LocaleConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LocaleConfig), args.Error(1)
}

func (m *mockMarketCache) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func sampleMarkets() []domain.Market {
	return []domain.Market{
		{Country: domain.Country{Name: "United States", Code: "US"}, CurrencyCode: "USD", Locales: []string{"en"}},
		{Country: domain.Country{Name: "Canada", Code: "CA"}, CurrencyCode: "CAD", Locales: []string{"en", "fr"}},
	}
}

func sampleLocaleConfig() *domain.LocaleConfig {
	return domain.NewLocaleConfig(sampleMarkets(), "us", "en", "/shop", nil)
}

func setupMarketRouter(cache *mockMarketCache) *chi.Mux {
	h := NewMarketHandler(cache, testPrefs(), testLogger())
	r := chi.NewRouter()
	r.With(middleware.CacheControl(300)).Get("/api/markets", h.ListMarkets)
	r.Put("/api/preferences", h.SetPreferences)
	r.With(middleware.AdminToken("admin-secret")).Post("/api/admin/markets/invalidate", h.Invalidate)
	return r
}

// --- GET /api/markets ---

func TestListMarkets(t *testing.T) {
	cache := new(mockMarketCache)
	cache.On("Markets", mock.Anything).Return(sampleMarkets(), nil)
	cache.On("Config", mock.Anything).Return(sampleLocaleConfig(), nil)

	rec := doRequest(setupMarketRouter(cache), http.MethodGet, "/api/markets", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))

	var resp struct {
		Countries      []string        `json:"countries"`
		Locales        []string        `json:"locales"`
		DefaultCountry string          `json:"defaultCountry"`
		BasePath       string          `json:"basePath"`
		Markets        []domain.Market `json:"markets"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.ElementsMatch(t, []string{"us", "ca"}, resp.Countries)
	assert.ElementsMatch(t, []string{"en", "fr"}, resp.Locales)
	assert.Equal(t, "us", resp.DefaultCountry)
	assert.Equal(t, "/shop", resp.BasePath)
	assert.Len(t, resp.Markets, 2)
}

func TestListMarkets_NoMarkets(t *testing.T) {
	cache := new(mockMarketCache)
	cache.On("Markets", mock.Anything).Return(nil, nil)
	cache.On("Config", mock.Anything).Return(domain.NewLocaleConfig(nil, "us", "en", "/shop", nil), nil)

	rec := doRequest(setupMarketRouter(cache), http.MethodGet, "/api/markets", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"markets":[]`)
}

// --- PUT /api/preferences ---

func TestSetPreferences(t *testing.T) {
	cache := new(mockMarketCache)
	cache.On("Config", mock.Anything).Return(sampleLocaleConfig(), nil)

	rec := doRequest(setupMarketRouter(cache), http.MethodPut, "/api/preferences", `{"country":"CA","locale":"fr"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"country":"ca","locale":"fr"}`, rec.Body.String())

	c := findCookie(rec, locale.PreferencesCookie)
	require.NotNil(t, c)
	assert.Equal(t, int(locale.PreferencesTTL.Seconds()), c.MaxAge)

	// The cookie reads back through the same codec.
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	p, ok := testPrefs().Read(req)
	require.True(t, ok)
	assert.Equal(t, locale.Preferences{Country: "ca", Locale: "fr"}, p)
}

func TestSetPreferences_Unsupported(t *testing.T) {
	cache := new(mockMarketCache)
	cache.On("Config", mock.Anything).Return(sampleLocaleConfig(), nil)

	rec := doRequest(setupMarketRouter(cache), http.MethodPut, "/api/preferences", `{"country":"us","locale":"fr"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unsupported country or locale", decodeError(t, rec).Error)
	assert.Nil(t, findCookie(rec, locale.PreferencesCookie))
}

func TestSetPreferences_Missing(t *testing.T) {
	cache := new(mockMarketCache)

	rec := doRequest(setupMarketRouter(cache), http.MethodPut, "/api/preferences", `{"country":"ca"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Fields, "locale")
	cache.AssertNotCalled(t, "Config", mock.Anything)
}

// --- POST /api/admin/markets/invalidate ---

func TestInvalidateMarkets(t *testing.T) {
	cache := new(mockMarketCache)
	cache.On("Invalidate", mock.Anything).Return(nil)
	router := setupMarketRouter(cache)

	req := adminRequest(http.MethodPost, "/api/admin/markets/invalidate", "admin-secret")
	rec := serve(router, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	cache.AssertExpectations(t)
}

func TestInvalidateMarkets_RequiresToken(t *testing.T) {
	cache := new(mockMarketCache)
	router := setupMarketRouter(cache)

	rec := serve(router, adminRequest(http.MethodPost, "/api/admin/markets/invalidate", ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(router, adminRequest(http.MethodPost, "/api/admin/markets/invalidate", "wrong"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cache.AssertNotCalled(t, "Invalidate", mock.Anything)
}

func TestInvalidateMarkets_StoreFailure(t *testing.T) {
	cache := new(mockMarketCache)
	cache.On("Invalidate", mock.Anything).Return(errors.New("redis down"))

	rec := serve(setupMarketRouter(cache), adminRequest(http.MethodPost, "/api/admin/markets/invalidate", "admin-secret"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
