package httputil

import (
	"context"
	"net/http"
)

// LocalOwnerID owns the settings of an unauthenticated single-user install
const LocalOwnerID = "local"

// ConversionIDHeader carries the per-conversion id for log correlation
const ConversionIDHeader = "X-Conversion-ID"

type contextKey string

const (
	ownerIDKey   contextKey = "ownerID"
	requestIDKey contextKey = "requestID"
)

// WithOwnerID adds the settings owner to the request context
func WithOwnerID(r *http.Request, ownerID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ownerIDKey, ownerID))
}

// GetOwnerID returns the settings owner, LocalOwnerID when auth is disabled
func GetOwnerID(r *http.Request) string {
	if id, _ := r.Context().Value(ownerIDKey).(string); id != "" {
		return id
	}
	return LocalOwnerID
}

// WithRequestID adds the request id to ctx
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID returns the request id, or "" outside a request
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
