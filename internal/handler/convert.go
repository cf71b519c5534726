package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"polyglot/internal/config"
	"polyglot/internal/domain"
	"polyglot/internal/domain/models"
	"polyglot/internal/domain/services"
	"polyglot/internal/httputil"
)

// ConversionIDHeader carries the per-conversion id for log correlation
const ConversionIDHeader = httputil.ConversionIDHeader

// ConvertHandler runs conversions
type ConvertHandler struct {
	conversions services.ConversionService
	settings    services.SettingsService
	formats     services.FormatCatalog
	logger      *slog.Logger
}

// NewConvertHandler creates a new convert handler
func NewConvertHandler(
	conversions services.ConversionService,
	settings services.SettingsService,
	formats services.FormatCatalog,
	logger *slog.Logger,
) *ConvertHandler {
	return &ConvertHandler{
		conversions: conversions,
		settings:    settings,
		formats:     formats,
		logger:      logger,
	}
}

// ConvertRequest is the body of POST /api/convert.
// Formats may be given by id or file extension; Config overrides the stored settings.
type ConvertRequest struct {
	Content    string                 `json:"content"`
	FromFormat string                 `json:"from_format"`
	ToFormat   string                 `json:"to_format"`
	Config     *models.ProviderConfig `json:"config,omitempty"`
}

// Convert converts pasted content
// POST /api/convert
func (h *ConvertHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := httputil.ParseJSON(w, r, &req, config.MaxUploadBytes); err != nil {
		if errors.Is(err, httputil.ErrBodyTooLarge) {
			respondOutcome(w, http.StatusRequestEntityTooLarge, models.Failed("Request body too large."))
			return
		}
		respondOutcome(w, http.StatusBadRequest, models.Failed("Invalid request body."))
		return
	}

	// Blank content succeeds with "" whatever the formats say
	if !isBlank(req.Content) {
		if err := h.validateFormats(req.FromFormat, req.ToFormat); err != nil {
			respondOutcome(w, http.StatusBadRequest, models.Failed(err.Error()))
			return
		}
	}

	result, err := h.run(r, req)
	if err != nil {
		respondOutcome(w, statusForError(err), models.Failed(h.reason(err)))
		return
	}

	w.Header().Set(ConversionIDHeader, result.ID)
	respondOutcome(w, http.StatusOK, models.Succeeded(result.Content))
}

// ConvertFile converts an uploaded file and returns the result as a download
// named after the upload with the target extension.
// POST /api/convert/file (multipart: file, to_format, optional from_format)
func (h *ConvertHandler) ConvertFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadBytes)
	if err := r.ParseMultipartForm(config.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondOutcome(w, http.StatusRequestEntityTooLarge, models.Failed("Uploaded file is too large."))
			return
		}
		respondOutcome(w, http.StatusBadRequest, models.Failed("Invalid multipart form."))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondOutcome(w, http.StatusBadRequest, models.Failed("Missing file."))
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		respondOutcome(w, http.StatusBadRequest, models.Failed("Could not read uploaded file."))
		return
	}
	if !utf8.Valid(data) {
		respondOutcome(w, http.StatusBadRequest, models.Failed("Uploaded file is not UTF-8 text."))
		return
	}

	// The source format defaults to the one implied by the file extension
	from := strings.TrimSpace(r.FormValue("from_format"))
	ext := filepath.Ext(header.Filename)
	if from == "" {
		desc, ok := h.formats.FindByExtension(ext)
		if !ok {
			respondOutcome(w, http.StatusBadRequest, models.Failed(
				fmt.Sprintf("Cannot infer the source format of %q; set from_format.", header.Filename)))
			return
		}
		from = string(desc.Value)
	}

	req := ConvertRequest{
		Content:    string(data),
		FromFormat: from,
		ToFormat:   r.FormValue("to_format"),
	}
	if err := h.validateFormats(req.FromFormat, req.ToFormat); err != nil {
		respondOutcome(w, http.StatusBadRequest, models.Failed(err.Error()))
		return
	}

	result, err := h.run(r, req)
	if err != nil {
		respondOutcome(w, statusForError(err), models.Failed(h.reason(err)))
		return
	}

	target, _ := h.formats.Resolve(req.ToFormat)
	stem := strings.TrimSuffix(filepath.Base(header.Filename), ext)
	if stem == "" || stem == "." {
		stem = "converted"
	}

	w.Header().Set(ConversionIDHeader, result.ID)
	httputil.RespondAttachment(w, stem+"."+target.FileExtension, target.MimeType, []byte(result.Content))
}

// run resolves the provider config for the caller and converts
func (h *ConvertHandler) run(r *http.Request, req ConvertRequest) (*models.ConversionResult, error) {
	ctx := r.Context()

	// Blank content never reaches a provider, so it needs no settings
	var cfg models.ProviderConfig
	if !isBlank(req.Content) {
		var err error
		cfg, err = h.settings.ResolveConfig(ctx, httputil.GetOwnerID(r), req.Config)
		if err != nil {
			return nil, err
		}
	}

	from, _ := h.formats.Resolve(req.FromFormat)
	to, _ := h.formats.Resolve(req.ToFormat)

	return h.conversions.Convert(ctx, &models.ConversionRequest{
		Content:    req.Content,
		FromFormat: from.Value,
		ToFormat:   to.Value,
		Config:     cfg,
	})
}

// validateFormats checks both format fields resolve to registered formats
func (h *ConvertHandler) validateFormats(from, to string) error {
	known := validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if _, ok := h.formats.Resolve(s); !ok {
			return fmt.Errorf("unsupported format %q", s)
		}
		return nil
	})

	return validation.Errors{
		"from_format": validation.Validate(from, validation.Required, known),
		"to_format":   validation.Validate(to, validation.Required, known),
	}.Filter()
}

// reason picks the user-facing failure text; internal errors stay generic
func (h *ConvertHandler) reason(err error) string {
	var providerErr *domain.ProviderError
	switch {
	case errors.As(err, &providerErr):
		return providerErr.Message
	case errors.Is(err, domain.ErrValidation):
		return err.Error()
	default:
		h.logger.Error("conversion failed", "error", err)
		return domain.MsgConversionFailed
	}
}

func isBlank(content string) bool {
	return strings.TrimSpace(content) == ""
}

func respondOutcome(w http.ResponseWriter, status int, outcome models.ConversionOutcome) {
	httputil.RespondJSON(w, status, outcome)
}
