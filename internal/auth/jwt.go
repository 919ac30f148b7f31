// Package auth signs and verifies the storefront's JWT cookies.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token audiences. A token is only accepted for the audience it was signed for.
const (
	AudiencePreferences = "location-preferences"
	AudienceGuide       = "installation-guide"
)

const issuer = "storefront"

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// audience checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the claims carried by storefront cookies. Country and Locale are
// set on preference tokens; guide tokens carry the guide slug as Subject.
type Claims struct {
	Country string `json:"country,omitempty"`
	Locale  string `json:"locale,omitempty"`
	jwt.RegisteredClaims
}

// CookieSigner issues and validates HS256 cookie tokens.
type CookieSigner struct {
	secret []byte
	now    func() time.Time
}

// NewCookieSigner creates a signer with the given secret.
func NewCookieSigner(secret string) *CookieSigner {
	return &CookieSigner{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Sign returns a token for claims valid for ttl under audience.
func (s *CookieSigner) Sign(audience string, claims Claims, ttl time.Duration) (string, error) {
	now := s.now().UTC()
	claims.RegisteredClaims.Issuer = issuer
	claims.RegisteredClaims.Audience = jwt.ClaimStrings{audience}
	claims.RegisteredClaims.IssuedAt = jwt.NewNumericDate(now)
	claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", audience, err)
	}
	return signed, nil
}

// Verify parses tokenString and checks it was signed by s for audience.
func (s *CookieSigner) Verify(audience, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithAudience(audience),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
