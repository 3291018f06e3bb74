package services

import (
	"fmt"
	"log"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AssertionVerifier validates externally issued JWT assertions for the
// jwt-bearer grant against a trusted JWKS endpoint.
type AssertionVerifier interface {
	// Verify checks signature, issuer, audience and expiry, returning
	// the asserted subject. Failures map to ErrInvalidGrant.
	Verify(assertion string) (string, error)
}

type jwksAssertionVerifier struct {
	jwks     *keyfunc.JWKS
	issuer   string
	audience string
}

// NewJWKSAssertionVerifier fetches and caches the trusted JWKS. The
// key set refreshes in the background for the process lifetime.
func NewJWKSAssertionVerifier(jwksURL, issuer, audience string) (AssertionVerifier, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:  time.Hour,
		RefreshRateLimit: time.Minute,
		RefreshErrorHandler: func(err error) {
			log.Printf("WARN: JWKS refresh failed: %v", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", jwksURL, err)
	}
	return &jwksAssertionVerifier{jwks: jwks, issuer: issuer, audience: audience}, nil
}

func (v *jwksAssertionVerifier) Verify(assertion string) (string, error) {
	parsed, err := jwt.Parse(assertion, v.jwks.Keyfunc,
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256", "ES384"}),
	)
	if err != nil {
		return "", ErrInvalidGrant
	}
	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", ErrInvalidGrant
	}
	return subject, nil
}
