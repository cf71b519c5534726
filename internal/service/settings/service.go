package settings

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"polyglot/internal/domain"
	"polyglot/internal/domain/models"
	"polyglot/internal/domain/repositories"
	"polyglot/internal/domain/services"
	"polyglot/internal/service/llm/providers/openaicompat"
)

const (
	maxAPIKeyLength  = 1024
	maxBaseURLLength = 2048
	maxModelLength   = 200
)

// Service implements services.SettingsService
type Service struct {
	repo     repositories.SettingsRepository
	defaults models.ProviderConfig
	logger   *slog.Logger
}

var _ services.SettingsService = (*Service)(nil)

// NewService creates a settings service. defaults are returned until an owner saves settings.
func NewService(
	repo repositories.SettingsRepository,
	defaults models.ProviderConfig,
	logger *slog.Logger,
) *Service {
	if defaults.Provider == "" {
		defaults.Provider = models.ProviderManaged
	}
	return &Service{
		repo:     repo,
		defaults: defaults,
		logger:   logger,
	}
}

// GetSettings retrieves the settings for an owner
func (s *Service) GetSettings(ctx context.Context, ownerID string) (*models.ProviderSettings, error) {
	stored, err := s.repo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	if stored == nil {
		s.logger.Debug("no settings stored, returning defaults", "owner_id", ownerID)
		return &models.ProviderSettings{OwnerID: ownerID, Config: s.defaults}, nil
	}

	return stored, nil
}

// UpdateSettings validates and saves cfg for an owner
func (s *Service) UpdateSettings(ctx context.Context, ownerID string, cfg models.ProviderConfig) (*models.ProviderSettings, error) {
	cfg = normalize(cfg)

	if err := validateConfig(ownerID, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	current, err := s.GetSettings(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if sameEndpoint(cfg, current.Config) {
		cfg.APIKey = restoreMaskedKey(cfg.APIKey, current.Config.APIKey)
	}

	settings := &models.ProviderSettings{
		OwnerID:   ownerID,
		Config:    cfg,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	s.logger.Info("provider settings updated",
		"owner_id", ownerID,
		"provider", cfg.Provider,
		"model", cfg.Model,
		"has_api_key", cfg.APIKey != "",
	)

	return settings, nil
}

// ResolveConfig returns the effective config for a conversion
func (s *Service) ResolveConfig(ctx context.Context, ownerID string, override *models.ProviderConfig) (models.ProviderConfig, error) {
	current, err := s.GetSettings(ctx, ownerID)
	if err != nil {
		return models.ProviderConfig{}, err
	}
	if override == nil {
		return current.Config, nil
	}

	cfg := normalize(*override)
	if cfg.Provider == "" {
		cfg.Provider = current.Config.Provider
	}
	if sameEndpoint(cfg, current.Config) {
		cfg.APIKey = restoreMaskedKey(cfg.APIKey, current.Config.APIKey)
	}
	return cfg, nil
}

// normalize trims whitespace the settings form tends to carry along
func normalize(cfg models.ProviderConfig) models.ProviderConfig {
	cfg.Provider = models.ProviderKind(strings.TrimSpace(string(cfg.Provider)))
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	return cfg
}

// sameEndpoint reports whether a and b send their key to the same place.
// The managed provider ignores BaseURL; OpenAI-compatible URLs are compared normalized.
func sameEndpoint(a, b models.ProviderConfig) bool {
	if a.Provider != b.Provider {
		return false
	}
	if a.Provider == models.ProviderManaged {
		return true
	}
	return openaicompat.NormalizeBaseURL(a.BaseURL) == openaicompat.NormalizeBaseURL(b.BaseURL)
}

// restoreMaskedKey returns stored when submitted is exactly the mask of stored
func restoreMaskedKey(submitted, stored string) string {
	if submitted != "" && stored != "" && submitted == models.MaskAPIKey(stored) {
		return stored
	}
	return submitted
}

func validateConfig(ownerID string, cfg models.ProviderConfig) error {
	if strings.TrimSpace(ownerID) == "" {
		return fmt.Errorf("owner id is required")
	}
	return validation.ValidateStruct(&cfg,
		validation.Field(&cfg.Provider,
			validation.Required,
			validation.In(models.ProviderManaged, models.ProviderOpenAICompatible),
		),
		validation.Field(&cfg.APIKey, validation.Length(0, maxAPIKeyLength)),
		validation.Field(&cfg.BaseURL,
			validation.Length(0, maxBaseURLLength),
			validation.By(validateBaseURL),
		),
		validation.Field(&cfg.Model, validation.Length(0, maxModelLength)),
	)
}

// validateBaseURL accepts an empty value or an absolute http(s) URL
func validateBaseURL(value interface{}) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must start with http:// or https://")
	}
	if u.Host == "" {
		return fmt.Errorf("must include a host")
	}
	return nil
}
