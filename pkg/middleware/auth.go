package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/mattparisien/becoming-front/pkg/httputil"
)

// bearerToken returns the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return token, true
}

// AdminToken guards operator endpoints with a static bearer token. An empty
// token disables the endpoints entirely.
func AdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				httputil.WriteMessage(w, http.StatusForbidden, "Admin endpoints are disabled")
				return
			}
			got, ok := bearerToken(r)
			if !ok {
				httputil.WriteMessage(w, http.StatusUnauthorized, "Missing bearer token")
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				httputil.WriteMessage(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
