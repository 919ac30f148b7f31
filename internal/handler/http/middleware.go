package http

import (
	"net/http"
	"strings"

	"github.com/mattparisien/becoming-front/internal/domain"
	"github.com/mattparisien/becoming-front/internal/locale"
	"github.com/mattparisien/becoming-front/pkg/httputil"
)

// ContentTypeJSON rejects request bodies that are not declared as JSON.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteMessage(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// BuyerResolver derives the pricing context of a request from the saved
// location preferences, falling back to the storefront default.
type BuyerResolver struct {
	prefs    *locale.PreferencesCodec
	fallback domain.BuyerContext
}

// NewBuyerResolver creates a resolver. prefs may be nil.
func NewBuyerResolver(prefs *locale.PreferencesCodec, country, language string) *BuyerResolver {
	return &BuyerResolver{
		prefs: prefs,
		fallback: domain.BuyerContext{
			Country:  strings.ToUpper(country),
			Language: strings.ToUpper(language),
		},
	}
}

// Resolve returns the upper-cased buyer context for r.
func (b *BuyerResolver) Resolve(r *http.Request) domain.BuyerContext {
	if p, ok := b.prefs.Read(r); ok && p.Country != "" && p.Locale != "" {
		return domain.BuyerContext{
			Country:  strings.ToUpper(p.Country),
			Language: strings.ToUpper(strings.ReplaceAll(p.Locale, "-", "_")),
		}
	}
	return b.fallback
}
