package auth

import "polyglot/internal/domain/models"

// TokenVerifier validates bearer tokens for the HTTP API.
type TokenVerifier interface {
	// VerifyToken returns the token's claims, or domain.ErrUnauthorized
	VerifyToken(tokenString string) (*models.Claims, error)

	// Close releases resources held by the verifier
	Close() error
}
