package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyglot/internal/domain"
	"polyglot/internal/domain/models"
	"polyglot/internal/formats"
	"polyglot/internal/httputil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeConverter records the last request and returns a canned result
type fakeConverter struct {
	last   *models.ConversionRequest
	result string
	err    error
}

func (f *fakeConverter) Convert(ctx context.Context, req *models.ConversionRequest) (*models.ConversionResult, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.ConversionResult{ID: "conv-1", Content: f.result}, nil
}

// fakeSettings keeps one config per owner in memory
type fakeSettings struct {
	stored map[string]models.ProviderConfig
	err    error
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{stored: map[string]models.ProviderConfig{
		httputil.LocalOwnerID: {Provider: models.ProviderManaged, APIKey: "stored-key-1234"},
	}}
}

func (f *fakeSettings) GetSettings(ctx context.Context, ownerID string) (*models.ProviderSettings, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.ProviderSettings{OwnerID: ownerID, Config: f.stored[ownerID]}, nil
}

func (f *fakeSettings) UpdateSettings(ctx context.Context, ownerID string, cfg models.ProviderConfig) (*models.ProviderSettings, error) {
	if cfg.Provider == "" {
		return nil, domain.NewValidationError("provider: cannot be blank")
	}
	f.stored[ownerID] = cfg
	return &models.ProviderSettings{OwnerID: ownerID, Config: cfg}, nil
}

func (f *fakeSettings) ResolveConfig(ctx context.Context, ownerID string, override *models.ProviderConfig) (models.ProviderConfig, error) {
	if f.err != nil {
		return models.ProviderConfig{}, f.err
	}
	if override != nil {
		return *override, nil
	}
	return f.stored[ownerID], nil
}

func decodeOutcome(t *testing.T, rec *httptest.ResponseRecorder) models.ConversionOutcome {
	t.Helper()
	var out models.ConversionOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		convErr     error
		settingsErr error
		wantStatus  int
		wantOutcome models.ConversionOutcome
	}{
		{
			name:        "success",
			body:        `{"content":"a,b\n1,2","from_format":"csv","to_format":"json"}`,
			wantStatus:  http.StatusOK,
			wantOutcome: models.Succeeded(`[{"a":1}]`),
		},
		{
			name:        "formats by extension",
			body:        `{"content":"a: 1","from_format":"yml","to_format":".JSON"}`,
			wantStatus:  http.StatusOK,
			wantOutcome: models.Succeeded(`[{"a":1}]`),
		},
		{
			name:        "invalid json",
			body:        `{"content":`,
			wantStatus:  http.StatusBadRequest,
			wantOutcome: models.Failed("Invalid request body."),
		},
		{
			name:       "unknown target format",
			body:       `{"content":"x","from_format":"json","to_format":"docx"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing source format",
			body:       `{"content":"x","to_format":"json"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "validation error from service",
			body:        `{"content":"x","from_format":"json","to_format":"csv"}`,
			convErr:     domain.NewValidationError("Input exceeds maximum length of 100000 characters (got 100001)."),
			wantStatus:  http.StatusBadRequest,
			wantOutcome: models.Failed("Input exceeds maximum length of 100000 characters (got 100001)."),
		},
		{
			name:        "provider error",
			body:        `{"content":"x","from_format":"json","to_format":"csv"}`,
			convErr:     &domain.ProviderError{Message: "ERROR: not convertible", Status: 0},
			wantStatus:  http.StatusBadGateway,
			wantOutcome: models.Failed("ERROR: not convertible"),
		},
		{
			name:        "internal error stays generic",
			body:        `{"content":"x","from_format":"json","to_format":"csv"}`,
			settingsErr: errors.New("disk full"),
			wantStatus:  http.StatusInternalServerError,
			wantOutcome: models.Failed(domain.MsgConversionFailed),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &fakeConverter{result: `[{"a":1}]`, err: tt.convErr}
			settings := newFakeSettings()
			settings.err = tt.settingsErr
			h := NewConvertHandler(conv, settings, formats.MustNewRegistry(), testLogger())

			rec := httptest.NewRecorder()
			h.Convert(rec, httptest.NewRequest(http.MethodPost, "/api/convert", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, rec.Code)
			out := decodeOutcome(t, rec)
			if tt.wantOutcome != (models.ConversionOutcome{}) {
				assert.Equal(t, tt.wantOutcome, out)
			} else {
				assert.False(t, out.Success)
				assert.NotEmpty(t, out.Error)
			}
		})
	}
}

func TestConvert_BlankContentSucceeds(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "valid formats", body: `{"content":"  \n\t","from_format":"csv","to_format":"json"}`},
		{name: "unknown formats", body: `{"content":"","from_format":"docx","to_format":"pdf"}`},
		{name: "missing formats", body: `{"content":" "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &fakeConverter{}
			settings := newFakeSettings()
			settings.err = errors.New("settings store unavailable")
			h := NewConvertHandler(conv, settings, formats.MustNewRegistry(), testLogger())

			rec := httptest.NewRecorder()
			h.Convert(rec, httptest.NewRequest(http.MethodPost, "/api/convert", strings.NewReader(tt.body)))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, models.Succeeded(""), decodeOutcome(t, rec))
			require.NotNil(t, conv.last)
			assert.Equal(t, models.ProviderConfig{}, conv.last.Config)
		})
	}
}

func TestConvert_UsesStoredSettingsUnlessOverridden(t *testing.T) {
	conv := &fakeConverter{result: "ok"}
	h := NewConvertHandler(conv, newFakeSettings(), formats.MustNewRegistry(), testLogger())

	rec := httptest.NewRecorder()
	h.Convert(rec, httptest.NewRequest(http.MethodPost, "/api/convert",
		strings.NewReader(`{"content":"x","from_format":"json","to_format":"yaml"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stored-key-1234", conv.last.Config.APIKey)
	assert.Equal(t, models.FormatID("yaml"), conv.last.ToFormat)
	assert.Equal(t, "conv-1", rec.Header().Get(ConversionIDHeader))

	rec = httptest.NewRecorder()
	h.Convert(rec, httptest.NewRequest(http.MethodPost, "/api/convert",
		strings.NewReader(`{"content":"x","from_format":"json","to_format":"yaml","config":{"provider":"openai_compatible","base_url":"http://localhost:1234"}}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ProviderOpenAICompatible, conv.last.Config.Provider)
	assert.Equal(t, "http://localhost:1234", conv.last.Config.BaseURL)
}

func multipartBody(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestConvertFile(t *testing.T) {
	conv := &fakeConverter{result: `[{"id":1,"name":"Alice"}]`}
	h := NewConvertHandler(conv, newFakeSettings(), formats.MustNewRegistry(), testLogger())

	body, ctype := multipartBody(t, "people.csv", "id,name\n1,Alice", map[string]string{"to_format": "json"})
	req := httptest.NewRequest(http.MethodPost, "/api/convert/file", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ConvertFile(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `[{"id":1,"name":"Alice"}]`, rec.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=people.json", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, models.FormatID("csv"), conv.last.FromFormat, "source inferred from extension")
	assert.Equal(t, "id,name\n1,Alice", conv.last.Content)
}

func TestConvertFile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		fields   map[string]string
	}{
		{name: "missing file", fields: map[string]string{"to_format": "json"}},
		{name: "unknown extension", filename: "data.bin", content: "x", fields: map[string]string{"to_format": "json"}},
		{name: "missing target", filename: "data.csv", content: "x"},
		{name: "not utf8", filename: "data.csv", content: "\xff\xfe", fields: map[string]string{"to_format": "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &fakeConverter{result: "x"}
			h := NewConvertHandler(conv, newFakeSettings(), formats.MustNewRegistry(), testLogger())

			body, ctype := multipartBody(t, tt.filename, tt.content, tt.fields)
			req := httptest.NewRequest(http.MethodPost, "/api/convert/file", body)
			req.Header.Set("Content-Type", ctype)
			rec := httptest.NewRecorder()
			h.ConvertFile(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, decodeOutcome(t, rec).Success)
			assert.Nil(t, conv.last)
		})
	}
}

func TestConvertFile_ExplicitSourceFormat(t *testing.T) {
	conv := &fakeConverter{result: "# Title"}
	h := NewConvertHandler(conv, newFakeSettings(), formats.MustNewRegistry(), testLogger())

	body, ctype := multipartBody(t, "notes", "<h1>Title</h1>", map[string]string{"from_format": "html", "to_format": "markdown"})
	req := httptest.NewRequest(http.MethodPost, "/api/convert/file", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ConvertFile(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=notes.md", rec.Header().Get("Content-Disposition"))
}

func TestFormatsHandler(t *testing.T) {
	h := NewFormatsHandler(formats.MustNewRegistry(), testLogger())

	rec := httptest.NewRecorder()
	h.ListFormats(rec, httptest.NewRequest(http.MethodGet, "/api/formats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FormatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Formats, 12)
	assert.Equal(t, models.FormatID("json"), resp.Formats[0].Value)
	assert.Len(t, resp.Groups, 3)
}

func TestFormatsHandler_GetSample(t *testing.T) {
	h := NewFormatsHandler(formats.MustNewRegistry(), testLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/formats/{id}/sample", h.GetSample)

	tests := []struct {
		path       string
		wantStatus int
	}{
		{path: "/api/formats/csv/sample", wantStatus: http.StatusOK},
		{path: "/api/formats/md/sample", wantStatus: http.StatusOK},
		{path: "/api/formats/sql/sample", wantStatus: http.StatusNotFound},
		{path: "/api/formats/docx/sample", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestSettingsHandler(t *testing.T) {
	settings := newFakeSettings()
	h := NewSettingsHandler(settings, testLogger())

	rec := httptest.NewRecorder()
	h.GetSettings(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.SettingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "****1234", resp.APIKey)
	assert.True(t, resp.HasAPIKey)
	assert.NotContains(t, rec.Body.String(), "stored-key")

	rec = httptest.NewRecorder()
	h.UpdateSettings(rec, httptest.NewRequest(http.MethodPut, "/api/settings",
		strings.NewReader(`{"provider":"openai_compatible","base_url":"http://localhost:1234","api_key":"sk-abcdefgh9999"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.ProviderOpenAICompatible, resp.Provider)
	assert.Equal(t, "****9999", resp.APIKey)

	rec = httptest.NewRecorder()
	h.UpdateSettings(rec, httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.UpdateSettings(rec, httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(`nope`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettingsHandler_UsesOwnerFromContext(t *testing.T) {
	settings := newFakeSettings()
	h := NewSettingsHandler(settings, testLogger())

	req := httputil.WithOwnerID(httptest.NewRequest(http.MethodPut, "/api/settings",
		strings.NewReader(`{"provider":"managed","api_key":"k"}`)), "user-7")
	rec := httptest.NewRecorder()
	h.UpdateSettings(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "k", settings.stored["user-7"].APIKey)
	assert.Equal(t, "stored-key-1234", settings.stored[httputil.LocalOwnerID].APIKey)
}

func TestHealthCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler("test").HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
