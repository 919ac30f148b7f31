package guides

import (
	"net/http"
	"time"

	"github.com/mattparisien/becoming-front/internal/auth"
)

// CookiePrefix is followed by the guide slug to name a guide's session cookie.
const CookiePrefix = "installation-guide-auth-"

// SessionTTL is how long an unlocked guide stays unlocked.
const SessionTTL = 7 * 24 * time.Hour

// CookieName returns the session cookie name for slug.
func CookieName(slug string) string {
	return CookiePrefix + slug
}

// Sessions issues and checks guide session cookies. The cookie holds a
// signed token naming the guide, never the password.
type Sessions struct {
	signer *auth.CookieSigner
	secure bool
}

// NewSessions creates a session codec; secure marks cookies Secure.
func NewSessions(signer *auth.CookieSigner, secure bool) *Sessions {
	return &Sessions{signer: signer, secure: secure}
}

// Cookie builds the session cookie unlocking slug.
func (s *Sessions) Cookie(slug string) (*http.Cookie, error) {
	claims := auth.Claims{}
	claims.Subject = slug
	token, err := s.signer.Sign(auth.AudienceGuide, claims, SessionTTL)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     CookieName(slug),
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secure,
	}, nil
}

// Authenticated reports whether r carries a valid session for slug.
func (s *Sessions) Authenticated(r *http.Request, slug string) bool {
	cookie, err := r.Cookie(CookieName(slug))
	if err != nil || cookie.Value == "" {
		return false
	}
	claims, err := s.signer.Verify(auth.AudienceGuide, cookie.Value)
	if err != nil {
		return false
	}
	return claims.Subject == slug
}
