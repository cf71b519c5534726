package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"polyglot/internal/domain"
	"polyglot/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var providerErr *domain.ProviderError

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &providerErr):
		httputil.RespondErrorWithExtras(w, http.StatusBadGateway, providerErr.Message, upstreamExtras(providerErr))
	default:
		logger.Error("unhandled error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// statusForError returns the HTTP status a conversion error maps to
func statusForError(err error) int {
	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode()
	}
	if errors.Is(err, domain.ErrValidation) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func upstreamExtras(err *domain.ProviderError) map[string]interface{} {
	if err.Status == 0 {
		return nil
	}
	return map[string]interface{}{"upstream_status": err.Status}
}
