// Package locale resolves the /{country}/{locale} prefix of page requests.
package locale

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/mattparisien/becoming-front/internal/domain"
)

// Kind is the outcome of resolving a path.
type Kind int

const (
	// Pass serves the request unchanged.
	Pass Kind = iota
	// NotFound rejects a known locale used under a country that lacks it.
	NotFound
	// Redirect sends the client to a normalized path.
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Pass:
		return "pass"
	case NotFound:
		return "not_found"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is what Router.Resolve decided for a request.
type Decision struct {
	Kind Kind
	// Location is the redirect target including the original query string.
	Location string
}

// ConfigSource supplies the current locale configuration.
type ConfigSource interface {
	Config(ctx context.Context) (*domain.LocaleConfig, error)
}

// Router resolves country/locale prefixes against the market configuration.
type Router struct {
	configs ConfigSource
	prefs   *PreferencesCodec
	logger  *slog.Logger
}

// NewRouter creates a Router. prefs may be nil to ignore saved preferences.
func NewRouter(configs ConfigSource, prefs *PreferencesCodec, logger *slog.Logger) *Router {
	return &Router{configs: configs, prefs: prefs, logger: logger}
}

// Resolve decides how to handle r. Rules are checked in order:
//
//  1. /{known country}/{locale not enabled there}/... is NotFound.
//     A valid pair in any other case redirects to its lower-case form.
//  2. /{known country}/{unknown locale}/rest redirects to the detected locale.
//  3. /{unknown country}/{known locale}/rest redirects to the detected country.
//  4. /{unknown country}/{unknown locale}/rest redirects to both detected.
//  5. / and /{country}/{locale} redirect to the pair's base path.
//  6. Any other path under a valid pair passes.
//  7. Everything else is prefixed with the detected pair.
//
// Rules 1-4 apply only when the first segment is two characters long, and
// compare country and locale case-insensitively.
func (rt *Router) Resolve(r *http.Request) Decision {
	cfg, err := rt.configs.Config(r.Context())
	if err != nil {
		rt.logger.WarnContext(r.Context(), "locale config unavailable, passing request",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		return Decision{Kind: Pass}
	}

	path := r.URL.Path
	parts := segments(path)

	if len(parts) >= 2 && len(parts[0]) == 2 {
		country, loc, rest := strings.ToLower(parts[0]), strings.ToLower(parts[1]), parts[2:]
		knownCountry, knownLocale := cfg.HasCountry(country), cfg.HasLocale(loc)

		switch {
		case knownCountry && knownLocale && !cfg.Supports(country, loc):
			return Decision{Kind: NotFound}
		case knownCountry && knownLocale && (country != parts[0] || loc != parts[1]):
			return rt.redirect(r, join(country, loc, rest))
		case knownCountry && !knownLocale:
			return rt.redirect(r, join(country, rt.detectLocale(r, cfg, country), rest))
		case !knownCountry && knownLocale:
			return rt.redirect(r, join(rt.detectCountry(r, cfg), loc, rest))
		case !knownCountry && !knownLocale:
			dc := rt.detectCountry(r, cfg)
			return rt.redirect(r, join(dc, rt.detectLocale(r, cfg, dc), rest))
		}
	}

	if len(parts) == 0 {
		dc := rt.detectCountry(r, cfg)
		dl := rt.detectLocale(r, cfg, dc)
		return rt.redirect(r, "/"+dc+"/"+dl+cfg.BasePathFor(dc, dl))
	}

	if len(parts) >= 2 && cfg.Supports(parts[0], parts[1]) {
		root := "/" + parts[0] + "/" + parts[1]
		if path == root || path == root+"/" {
			return rt.redirect(r, root+cfg.BasePathFor(parts[0], parts[1]))
		}
		return Decision{Kind: Pass}
	}

	dc := rt.detectCountry(r, cfg)
	dl := rt.detectLocale(r, cfg, dc)
	return rt.redirect(r, "/"+dc+"/"+dl+path)
}

func (rt *Router) redirect(r *http.Request, path string) Decision {
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}
	return Decision{Kind: Redirect, Location: path}
}

// detectCountry prefers a saved country the markets know, then the default.
func (rt *Router) detectCountry(r *http.Request, cfg *domain.LocaleConfig) string {
	if p, ok := rt.prefs.Read(r); ok && cfg.HasCountry(p.Country) {
		return p.Country
	}
	return cfg.DefaultCountry
}

// detectLocale picks a locale for country: a saved locale the country
// supports, then Accept-Language over the country's locales, then the default.
// Unknown countries negotiate over every market locale.
func (rt *Router) detectLocale(r *http.Request, cfg *domain.LocaleConfig, country string) string {
	candidates := cfg.LocalesFor(country)
	if len(candidates) == 0 {
		candidates = cfg.Locales
	}

	if p, ok := rt.prefs.Read(r); ok && slices.Contains(candidates, p.Locale) {
		return p.Locale
	}
	return Negotiate(r.Header.Get("Accept-Language"), candidates, cfg.DefaultLocale)
}

func segments(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func join(country, loc string, rest []string) string {
	p := "/" + country + "/" + loc
	if len(rest) > 0 {
		p += "/" + strings.Join(rest, "/")
	}
	return p
}
