package models

import "github.com/golang-jwt/jwt/v5"

// Claims are the bearer-token claims the API relies on.
// Any OIDC provider publishing a JWKS works; only "sub" is required.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// OwnerID returns the settings owner for the token (the subject claim)
func (c *Claims) OwnerID() string {
	return c.Subject
}
