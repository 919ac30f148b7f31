package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mattparisien/becoming-front/internal/locale"
	"github.com/mattparisien/becoming-front/pkg/health"
	"github.com/mattparisien/becoming-front/pkg/httputil"
	"github.com/mattparisien/becoming-front/pkg/middleware"
)

// Handlers groups the API handlers mounted by NewRouter.
type Handlers struct {
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Guides   *GuideHandler
	Orders   *OrderHandler
	Contact  *ContactHandler
	Markets  *MarketHandler
	// Pages serves localized page requests.
	Pages http.Handler
}

// RouterConfig carries the router's operational settings.
type RouterConfig struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	AdminToken     string
	PprofCIDRs     []string
}

// NewRouter creates a chi router with the storefront API, the locale-routed
// page fallback and the operational endpoints. ctx bounds the rate limiter's
// background sweep.
func NewRouter(
	ctx context.Context,
	h Handlers,
	locales *locale.Router,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogger(logger, CartCookie))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowedOrigins)))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.MountPprof(r, cfg.PprofCIDRs, logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
		r.Use(ContentTypeJSON)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			httputil.WriteMessage(w, http.StatusNotFound, "Not found")
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Get("/", h.Cart.GetCart)
			r.Post("/", h.Cart.AddLines)
			r.Patch("/", h.Cart.UpdateLines)
			r.Delete("/", h.Cart.RemoveLines)
		})

		r.Post("/shopify/checkout", h.Checkout.CreateCheckout)

		r.Route("/installation-guides", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Post("/auth", h.Guides.Authenticate)
			r.Get("/{slug}/session", h.Guides.Session)
		})

		r.Route("/orders/pending", func(r chi.Router) {
			r.Get("/", h.Orders.GetPendingOrder)
			r.Post("/", h.Orders.CreatePendingOrder)
		})
		r.Post("/domains/register", h.Orders.RegisterDomain)

		r.Post("/contact", h.Contact.Submit)

		r.With(middleware.CacheControl(300)).Get("/markets", h.Markets.ListMarkets)
		r.Put("/preferences", h.Markets.SetPreferences)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminToken(cfg.AdminToken))
			r.Use(middleware.NoStore)
			r.Post("/markets/invalidate", h.Markets.Invalidate)
			r.Get("/contact-submissions", h.Contact.List)
		})
	})

	// Everything else is a storefront page behind locale routing.
	pages := h.Pages
	if pages == nil {
		pages = http.NotFoundHandler()
	}
	r.NotFound(locales.Middleware(pages).ServeHTTP)

	return r
}
