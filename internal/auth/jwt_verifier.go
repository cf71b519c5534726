package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"polyglot/internal/domain"
	"polyglot/internal/domain/models"
)

// allowedAlgorithms prevents algorithm confusion (e.g. "none" or HS256 with a public key)
var allowedAlgorithms = []string{"RS256", "ES256"}

// VerifierOptions are the optional claim checks applied to every token
type VerifierOptions struct {
	Issuer   string
	Audience string
}

// JWTVerifier implements TokenVerifier against keys published at a JWKS URL.
type JWTVerifier struct {
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
	cancel  context.CancelFunc
	logger  *slog.Logger
}

var _ TokenVerifier = (*JWTVerifier)(nil)

// NewJWTVerifier creates a verifier that fetches public keys from jwksURL.
// keyfunc caches the keys and refreshes them in the background until Close.
func NewJWTVerifier(jwksURL string, opts VerifierOptions, logger *slog.Logger) (*JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	ctx, cancel := context.WithCancel(context.Background())
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)

	v := newVerifier(jwks.Keyfunc, opts, logger)
	v.cancel = cancel
	return v, nil
}

func newVerifier(kf jwt.Keyfunc, opts VerifierOptions, logger *slog.Logger) *JWTVerifier {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods(allowedAlgorithms),
		jwt.WithExpirationRequired(),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	if opts.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(opts.Audience))
	}

	return &JWTVerifier{
		keyfunc: kf,
		parser:  jwt.NewParser(parserOpts...),
		logger:  logger,
	}
}

// VerifyToken validates the signature, expiry and configured claims of a token
func (v *JWTVerifier) VerifyToken(tokenString string) (*models.Claims, error) {
	token, err := v.parser.ParseWithClaims(tokenString, &models.Claims{}, v.keyfunc)
	if err != nil {
		v.logger.Debug("token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok {
		v.logger.Error("failed to extract claims from token")
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	}

	// Supabase-style anonymous tokens carry role "anon"
	if claims.Role == "anon" {
		v.logger.Debug("anonymous token rejected", "subject", claims.Subject)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close stops the background JWKS refresh
func (v *JWTVerifier) Close() error {
	if v.cancel != nil {
		v.cancel()
	}
	v.logger.Info("JWT verifier closed")
	return nil
}
