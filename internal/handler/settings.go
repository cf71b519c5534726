package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"polyglot/internal/domain/models"
	"polyglot/internal/domain/services"
	"polyglot/internal/httputil"
)

// maxSettingsBody bounds PUT /api/settings bodies
const maxSettingsBody = 64 << 10

// SettingsHandler handles provider settings HTTP requests
type SettingsHandler struct {
	service services.SettingsService
	logger  *slog.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(service services.SettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		service: service,
		logger:  logger,
	}
}

// GetSettings returns the caller's provider settings with the API key masked
// GET /api/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.GetSettings(r.Context(), httputil.GetOwnerID(r))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, settings.Response())
}

// UpdateSettings replaces the caller's provider settings.
// Sending back the masked key keeps the stored key.
// PUT /api/settings
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req models.ProviderConfig
	if err := httputil.ParseJSON(w, r, &req, maxSettingsBody); err != nil {
		if errors.Is(err, httputil.ErrBodyTooLarge) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	settings, err := h.service.UpdateSettings(r.Context(), httputil.GetOwnerID(r), req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, settings.Response())
}
