package services

import (
	"context"

	"polyglot/internal/domain/models"
)

// SettingsService defines the business logic for provider settings
type SettingsService interface {
	// GetSettings returns the stored settings for owner, or defaults if none exist yet
	GetSettings(ctx context.Context, ownerID string) (*models.ProviderSettings, error)

	// UpdateSettings validates and persists cfg for owner.
	// A masked API key equal to the stored key's mask keeps the stored key.
	UpdateSettings(ctx context.Context, ownerID string, cfg models.ProviderConfig) (*models.ProviderSettings, error)

	// ResolveConfig returns the config a conversion should run with: the stored
	// settings when override is nil, otherwise override with a masked key restored.
	ResolveConfig(ctx context.Context, ownerID string, override *models.ProviderConfig) (models.ProviderConfig, error)
}
