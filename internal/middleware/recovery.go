package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"polyglot/internal/domain"
	"polyglot/internal/domain/models"
	"polyglot/internal/httputil"
)

// Recovery turns a handler panic into a 500. Routes under outcomePaths answer
// with a failed ConversionOutcome, the body their callers already decode;
// every other route gets a problem response.
func Recovery(logger *slog.Logger, outcomePaths ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// The server's own signal for aborting a response
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				logger.Error("panic recovered",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", httputil.GetRequestID(r.Context()),
					"conversion_id", w.Header().Get(httputil.ConversionIDHeader),
					"stack", string(debug.Stack()),
				)

				if matchesAny(r.URL.Path, outcomePaths) {
					httputil.RespondJSON(w, http.StatusInternalServerError, models.Failed(domain.MsgConversionFailed))
					return
				}
				httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func matchesAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
