package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyglot/internal/domain"
	"polyglot/internal/domain/models"
)

func testVerifier(t *testing.T, opts VerifierOptions) (*JWTVerifier, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	kf := func(token *jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	}
	return newVerifier(kf, opts, slog.New(slog.NewTextHandler(io.Discard, nil))), key
}

func sign(t *testing.T, key *ecdsa.PrivateKey, claims models.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims() models.Claims {
	return models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Issuer:    "https://auth.example.com",
			Audience:  jwt.ClaimStrings{"polyglot"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "authenticated",
	}
}

func TestVerifyToken(t *testing.T) {
	v, key := testVerifier(t, VerifierOptions{Issuer: "https://auth.example.com", Audience: "polyglot"})
	_, otherKey := testVerifier(t, VerifierOptions{})

	tests := []struct {
		name    string
		token   func() string
		wantErr bool
	}{
		{
			name:  "valid",
			token: func() string { return sign(t, key, validClaims()) },
		},
		{
			name: "expired",
			token: func() string {
				c := validClaims()
				c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
				return sign(t, key, c)
			},
			wantErr: true,
		},
		{
			name: "missing expiry",
			token: func() string {
				c := validClaims()
				c.ExpiresAt = nil
				return sign(t, key, c)
			},
			wantErr: true,
		},
		{
			name: "wrong issuer",
			token: func() string {
				c := validClaims()
				c.Issuer = "https://evil.example.com"
				return sign(t, key, c)
			},
			wantErr: true,
		},
		{
			name: "wrong audience",
			token: func() string {
				c := validClaims()
				c.Audience = jwt.ClaimStrings{"other"}
				return sign(t, key, c)
			},
			wantErr: true,
		},
		{
			name: "missing subject",
			token: func() string {
				c := validClaims()
				c.Subject = ""
				return sign(t, key, c)
			},
			wantErr: true,
		},
		{
			name: "anonymous role",
			token: func() string {
				c := validClaims()
				c.Role = "anon"
				return sign(t, key, c)
			},
			wantErr: true,
		},
		{
			name:    "signed by another key",
			token:   func() string { return sign(t, otherKey, validClaims()) },
			wantErr: true,
		},
		{
			name: "hmac algorithm",
			token: func() string {
				s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("secret"))
				require.NoError(t, err)
				return s
			},
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   func() string { return "not.a.jwt" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := v.VerifyToken(tt.token())
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrUnauthorized))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-123", claims.OwnerID())
		})
	}
}

func TestNewJWTVerifier_EmptyURL(t *testing.T) {
	_, err := NewJWTVerifier("", VerifierOptions{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
