package locale

import (
	"net/http"
	"strings"
	"time"

	"github.com/mattparisien/becoming-front/internal/auth"
)

// PreferencesCookie holds the visitor's chosen country and locale.
const PreferencesCookie = "location_preferences"

// PreferencesTTL is how long a saved preference lasts.
const PreferencesTTL = 365 * 24 * time.Hour

// Preferences is a visitor's saved location.
type Preferences struct {
	Country string `json:"country"`
	Locale  string `json:"locale"`
}

// PreferencesCodec reads and writes the signed preferences cookie.
type PreferencesCodec struct {
	signer *auth.CookieSigner
	secure bool
}

// NewPreferencesCodec creates a codec; secure marks cookies Secure.
func NewPreferencesCodec(signer *auth.CookieSigner, secure bool) *PreferencesCodec {
	return &PreferencesCodec{signer: signer, secure: secure}
}

// Read returns the preferences carried by r. A missing, tampered or expired
// cookie yields ok == false.
func (c *PreferencesCodec) Read(r *http.Request) (Preferences, bool) {
	if c == nil {
		return Preferences{}, false
	}
	cookie, err := r.Cookie(PreferencesCookie)
	if err != nil || cookie.Value == "" {
		return Preferences{}, false
	}
	claims, err := c.signer.Verify(auth.AudiencePreferences, cookie.Value)
	if err != nil {
		return Preferences{}, false
	}
	return Preferences{
		Country: strings.ToLower(claims.Country),
		Locale:  strings.ToLower(claims.Locale),
	}, true
}

// Cookie builds the cookie storing p.
func (c *PreferencesCodec) Cookie(p Preferences) (*http.Cookie, error) {
	token, err := c.signer.Sign(auth.AudiencePreferences, auth.Claims{
		Country: strings.ToLower(p.Country),
		Locale:  strings.ToLower(p.Locale),
	}, PreferencesTTL)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     PreferencesCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(PreferencesTTL.Seconds()),
		SameSite: http.SameSiteLaxMode,
		Secure:   c.secure,
	}, nil
}
