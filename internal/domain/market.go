package domain

import (
	"slices"
	"strings"
)

// Country identifies a market's country by display name and code.
type Country struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Market is one commerce market: a country, its currency and enabled locales.
type Market struct {
	Country      Country  `json:"country"`
	CurrencyCode string   `json:"currencyCode"`
	Locales      []string `json:"locales"`
}

// LocaleConfig is the routing view of the market list. Country codes and
// locales are lower-case.
type LocaleConfig struct {
	Countries      []string `json:"countries"`
	Locales        []string `json:"locales"`
	DefaultCountry string   `json:"defaultCountry"`
	DefaultLocale  string   `json:"defaultLocale"`
	BasePath       string   `json:"basePath"`

	countryLocales map[string][]string
	basePaths      map[string]string
}

// NewLocaleConfig derives routing configuration from markets. overrides maps
// "country-locale" pairs to base paths that replace basePath for that pair.
// With no markets the default pair is the only valid one.
func NewLocaleConfig(markets []Market, defaultCountry, defaultLocale, basePath string, overrides map[string]string) *LocaleConfig {
	cfg := &LocaleConfig{
		Countries:      []string{},
		Locales:        []string{},
		DefaultCountry: strings.ToLower(defaultCountry),
		DefaultLocale:  strings.ToLower(defaultLocale),
		BasePath:       basePath,
		countryLocales: make(map[string][]string, len(markets)),
		basePaths:      make(map[string]string, len(overrides)),
	}

	for _, m := range markets {
		code := strings.ToLower(m.Country.Code)
		if code == "" {
			continue
		}
		if _, seen := cfg.countryLocales[code]; !seen {
			cfg.Countries = append(cfg.Countries, code)
		}
		for _, l := range m.Locales {
			l = strings.ToLower(l)
			if !slices.Contains(cfg.countryLocales[code], l) {
				cfg.countryLocales[code] = append(cfg.countryLocales[code], l)
			}
			if !slices.Contains(cfg.Locales, l) {
				cfg.Locales = append(cfg.Locales, l)
			}
		}
		if cfg.countryLocales[code] == nil {
			cfg.countryLocales[code] = []string{}
		}
	}

	if len(markets) == 0 && cfg.DefaultCountry != "" && cfg.DefaultLocale != "" {
		cfg.Countries = append(cfg.Countries, cfg.DefaultCountry)
		cfg.Locales = append(cfg.Locales, cfg.DefaultLocale)
		cfg.countryLocales[cfg.DefaultCountry] = []string{cfg.DefaultLocale}
	}

	for pair, path := range overrides {
		cfg.basePaths[strings.ToLower(pair)] = path
	}
	return cfg
}

// HasCountry reports whether code is a market country.
func (c *LocaleConfig) HasCountry(code string) bool {
	_, ok := c.countryLocales[strings.ToLower(code)]
	return ok
}

// HasLocale reports whether locale is enabled in any market.
func (c *LocaleConfig) HasLocale(locale string) bool {
	return slices.Contains(c.Locales, strings.ToLower(locale))
}

// LocalesFor returns the locales enabled for country, or nil when the country
// is unknown.
func (c *LocaleConfig) LocalesFor(country string) []string {
	return c.countryLocales[strings.ToLower(country)]
}

// Supports reports whether locale is enabled for country.
func (c *LocaleConfig) Supports(country, locale string) bool {
	return slices.Contains(c.LocalesFor(country), strings.ToLower(locale))
}

// BasePathFor returns the landing path for a country/locale pair.
func (c *LocaleConfig) BasePathFor(country, locale string) string {
	key := strings.ToLower(country) + "-" + strings.ToLower(locale)
	if p, ok := c.basePaths[key]; ok {
		return p
	}
	return c.BasePath
}
