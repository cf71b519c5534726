package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"polyglot/internal/domain"
	"polyglot/internal/domain/models"
	"polyglot/internal/domain/services"
	"polyglot/internal/httputil"
)

// FormatsHandler serves the format catalog
type FormatsHandler struct {
	formats services.FormatCatalog
	logger  *slog.Logger
}

// NewFormatsHandler creates a new formats handler
func NewFormatsHandler(formats services.FormatCatalog, logger *slog.Logger) *FormatsHandler {
	return &FormatsHandler{
		formats: formats,
		logger:  logger,
	}
}

// FormatsResponse lists formats in declared order plus the category grouping
type FormatsResponse struct {
	Formats []models.FormatDescriptor `json:"formats"`
	Groups  []models.FormatGroup      `json:"groups"`
}

// SampleResponse is a sample document for one format
type SampleResponse struct {
	Format  models.FormatID `json:"format"`
	Content string          `json:"content"`
}

// ListFormats returns every supported format
// GET /api/formats
func (h *FormatsHandler) ListFormats(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, FormatsResponse{
		Formats: h.formats.List(),
		Groups:  h.formats.Grouped(),
	})
}

// GetSample returns the sample document for a format
// GET /api/formats/{id}/sample
func (h *FormatsHandler) GetSample(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	desc, ok := h.formats.Resolve(id)
	if !ok {
		handleError(w, h.logger, &domain.NotFoundError{Message: fmt.Sprintf("unknown format %q", id)})
		return
	}

	sample, ok := h.formats.Sample(desc.Value)
	if !ok {
		handleError(w, h.logger, &domain.NotFoundError{Message: fmt.Sprintf("no sample for %s", desc.Label)})
		return
	}

	httputil.RespondJSON(w, http.StatusOK, SampleResponse{Format: desc.Value, Content: sample})
}
