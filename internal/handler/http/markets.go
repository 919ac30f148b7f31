package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mattparisien/becoming-front/internal/domain"
	"github.com/mattparisien/becoming-front/internal/locale"
	"github.com/mattparisien/becoming-front/pkg/httputil"
	"github.com/mattparisien/becoming-front/pkg/validator"
)

// MarketCache is the market configuration cache. *market.Cache implements it.
type MarketCache interface {
	Markets(ctx context.Context) ([]domain.Market, error)
	Config(ctx context.Context) (*domain.LocaleConfig, error)
	Invalidate(ctx context.Context) error
}

// MarketHandler exposes markets, location preferences and cache
// invalidation.
type MarketHandler struct {
	cache  MarketCache
	prefs  *locale.PreferencesCodec
	logger *slog.Logger
}

// NewMarketHandler creates a new market HTTP handler.
func NewMarketHandler(cache MarketCache, prefs *locale.PreferencesCodec, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		cache:  cache,
		prefs:  prefs,
		logger: logger,
	}
}

type marketsResponse struct {
	*domain.LocaleConfig
	Markets []domain.Market `json:"markets"`
}

// PreferencesRequest is the body of PUT /api/preferences.
type PreferencesRequest struct {
	Country string `json:"country" validate:"required,len=2"`
	Locale  string `json:"locale" validate:"required,max=10"`
}

// ListMarkets handles GET /api/markets.
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := h.cache.Markets(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	cfg, err := h.cache.Config(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if markets == nil {
		markets = []domain.Market{}
	}
	httputil.WriteJSON(w, http.StatusOK, marketsResponse{LocaleConfig: cfg, Markets: markets})
}

// SetPreferences handles PUT /api/preferences.
func (h *MarketHandler) SetPreferences(w http.ResponseWriter, r *http.Request) {
	var req PreferencesRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err, "Country and locale are required")
		return
	}

	cfg, err := h.cache.Config(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if !cfg.Supports(req.Country, req.Locale) {
		httputil.WriteMessage(w, http.StatusBadRequest, "Unsupported country or locale")
		return
	}

	p := locale.Preferences{Country: req.Country, Locale: req.Locale}
	cookie, err := h.prefs.Cookie(p)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	http.SetCookie(w, cookie)
	httputil.WriteJSON(w, http.StatusOK, locale.Preferences{
		Country: strings.ToLower(req.Country),
		Locale:  strings.ToLower(req.Locale),
	})
}

// Invalidate handles POST /api/admin/markets/invalidate.
func (h *MarketHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Invalidate(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "market cache invalidated by operator")
	httputil.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}
