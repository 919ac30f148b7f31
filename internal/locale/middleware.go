package locale

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PathnameHeader carries the resolved path to downstream handlers.
const PathnameHeader = "X-Pathname"

// skipPrefixes are never localized: API routes, assets and operational endpoints.
var skipPrefixes = []string{
	"/api/",
	"/_next",
	"/assets",
	"/images",
	"/fonts",
	"/favicon.ico",
	"/robots.txt",
	"/sitemap.xml",
	"/health",
	"/metrics",
	"/debug/",
}

var decisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_locale_decisions_total",
		Help: "Locale routing decisions by kind",
	},
	[]string{"decision"},
)

// Skipped reports whether path bypasses locale routing.
func Skipped(path string) bool {
	if path == "/api" {
		return true
	}
	for _, p := range skipPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Middleware applies Resolve to every page request.
func (rt *Router) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Skipped(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		d := rt.Resolve(r)
		decisionsTotal.WithLabelValues(d.Kind.String()).Inc()

		switch d.Kind {
		case NotFound:
			http.NotFound(w, r)
		case Redirect:
			http.Redirect(w, r, d.Location, http.StatusTemporaryRedirect)
		default:
			r.Header.Set(PathnameHeader, r.URL.Path)
			w.Header().Set(PathnameHeader, r.URL.Path)
			next.ServeHTTP(w, r)
		}
	})
}
