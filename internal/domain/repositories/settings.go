package repositories

import (
	"context"

	"polyglot/internal/domain/models"
)

// SettingsRepository defines the interface for provider settings persistence
type SettingsRepository interface {
	// GetByOwner retrieves settings for an owner.
	// Returns nil if nothing has been stored yet (not an error).
	GetByOwner(ctx context.Context, ownerID string) (*models.ProviderSettings, error)

	// Upsert creates or replaces the settings for settings.OwnerID
	Upsert(ctx context.Context, settings *models.ProviderSettings) error
}
