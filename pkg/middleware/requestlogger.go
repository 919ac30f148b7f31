package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mattparisien/becoming-front/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, enriched with
// the correlation ID, trace IDs and, when the request carries cartCookie,
// the cart ID. Mount it after RequestLogging and Tracing.
func RequestLogger(base *slog.Logger, cartCookie string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if c, err := r.Cookie(cartCookie); err == nil && c.Value != "" {
				ctx = logger.WithCartID(ctx, c.Value)
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
