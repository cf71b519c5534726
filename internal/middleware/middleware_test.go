package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyglot/internal/domain"
	"polyglot/internal/domain/models"
	"polyglot/internal/httputil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeVerifier accepts exactly one token
type fakeVerifier struct {
	token   string
	subject string
}

func (f *fakeVerifier) VerifyToken(s string) (*models.Claims, error) {
	if s != f.token {
		return nil, domain.ErrUnauthorized
	}
	c := &models.Claims{}
	c.Subject = f.subject
	return c, nil
}

func (f *fakeVerifier) Close() error { return nil }

func ownerEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, httputil.GetOwnerID(r))
	})
}

func TestRecovery(t *testing.T) {
	h := Recovery(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestRecovery_ConvertRoutesAnswerWithOutcome(t *testing.T) {
	h := Recovery(testLogger(), "/api/convert")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(httputil.ConversionIDHeader, "conv-1")
		panic("boom")
	}))

	for _, path := range []string{"/api/convert", "/api/convert/file"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			var outcome models.ConversionOutcome
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
			assert.False(t, outcome.Success)
			assert.Equal(t, domain.MsgConversionFailed, outcome.Error)
		})
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/converter", nil))
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestRecovery_ReraisesAbortHandler(t *testing.T) {
	h := Recovery(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRequestLogger_AssignsID(t *testing.T) {
	var seen string
	h := RequestLogger(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httputil.GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestRequestLogger_ReusesValidIncomingID(t *testing.T) {
	h := RequestLogger(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	incoming := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, incoming, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "<script>", rec.Header().Get(RequestIDHeader))
}

func TestAuthMiddleware(t *testing.T) {
	v := &fakeVerifier{token: "good", subject: "user-9"}
	h := AuthMiddleware(v, testLogger(), "/health", "/api/formats")(ownerEcho())

	tests := []struct {
		name       string
		method     string
		path       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "valid token", method: http.MethodGet, path: "/api/settings", header: "Bearer good", wantStatus: http.StatusOK, wantBody: "user-9"},
		{name: "missing token", method: http.MethodGet, path: "/api/settings", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", method: http.MethodGet, path: "/api/settings", header: "Basic good", wantStatus: http.StatusUnauthorized},
		{name: "bad token", method: http.MethodGet, path: "/api/settings", header: "Bearer bad", wantStatus: http.StatusUnauthorized},
		{name: "public path", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK, wantBody: httputil.LocalOwnerID},
		{name: "beneath public path", method: http.MethodGet, path: "/api/formats/csv/sample", wantStatus: http.StatusOK},
		{name: "prefix is not a public path", method: http.MethodGet, path: "/api/formatsx", wantStatus: http.StatusUnauthorized},
		{name: "preflight", method: http.MethodOptions, path: "/api/convert", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	h := AuthMiddleware(nil, testLogger())(ownerEcho())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, httputil.LocalOwnerID, rec.Body.String())
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(2, testLogger())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "owners have separate buckets")

	now = now.Add(30 * time.Second)
	assert.True(t, l.Allow("a"), "one token refills every 30s")
	assert.False(t, l.Allow("a"))
}

func TestRateLimiter_Wrap(t *testing.T) {
	l := NewRateLimiter(1, testLogger())
	h := l.Wrap(func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/api/convert", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/api/convert", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	l := NewRateLimiter(0, testLogger())
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("a"))
	}
}
