package client

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the claims of the session token returned by Authenticate.
type Claims struct {
	ProviderToken string `json:"provider_token,omitempty"`
	jwt.RegisteredClaims
}

// ParseToken decodes a session token without verifying its signature; the
// signing key stays with the server. Use it to inspect expiry only.
func ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parsing session token: %w", err)
	}
	return claims, nil
}

// Expired reports whether the token has expired at now. Tokens without an
// expiry never expire.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time)
}
