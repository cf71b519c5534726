package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"polyglot/internal/auth"
	"polyglot/internal/httputil"
)

// AuthMiddleware requires a valid bearer token on every route except those in
// public (and paths beneath them), and stores the token subject as the settings owner.
// A nil verifier disables auth: every request belongs to httputil.LocalOwnerID.
func AuthMiddleware(verifier auth.TokenVerifier, logger *slog.Logger, public ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if verifier == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Preflight and public routes pass through
			if r.Method == http.MethodOptions || matchesAny(r.URL.Path, public) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(strings.TrimSpace(token))
			if err != nil {
				logger.Debug("unauthorized request", "path", r.URL.Path, "request_id", httputil.GetRequestID(r.Context()))
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithOwnerID(r, claims.OwnerID()))
		})
	}
}
