package http

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/mattparisien/becoming-front/internal/locale"
)

// NewPageProxy forwards localized page requests to the page renderer at
// target. A nil target answers every page with 404.
func NewPageProxy(target *url.URL, logger *slog.Logger) http.Handler {
	if target == nil {
		return http.NotFoundHandler()
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	base := proxy.Director
	proxy.Director = func(r *http.Request) {
		base(r)
		r.Host = target.Host
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.ErrorContext(r.Context(), "page proxy error",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("pathname", r.Header.Get(locale.PathnameHeader)),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
	}

	logger.Info("registered page proxy", slog.String("target", target.String()))
	return proxy
}
