package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"polyglot/internal/domain/models"
	"polyglot/internal/domain/repositories"
)

// SettingsRepository stores provider settings in Postgres, one row per owner
type SettingsRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

var _ repositories.SettingsRepository = (*SettingsRepository)(nil)

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(config *RepositoryConfig) *SettingsRepository {
	return &SettingsRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetByOwner retrieves settings for an owner
func (r *SettingsRepository) GetByOwner(ctx context.Context, ownerID string) (*models.ProviderSettings, error) {
	query := fmt.Sprintf(`
		SELECT owner_id, provider, api_key, base_url, model, updated_at
		FROM %s
		WHERE owner_id = $1
	`, r.tables.ProviderSettings)

	var s models.ProviderSettings
	var provider string
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, ownerID).Scan(
		&s.OwnerID,
		&provider,
		&s.Config.APIKey,
		&s.Config.BaseURL,
		&s.Config.Model,
		&s.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			// Nothing saved yet - return nil (not an error)
			return nil, nil
		}
		return nil, fmt.Errorf("get provider settings: %w", err)
	}
	s.Config.Provider = models.ProviderKind(provider)

	return &s, nil
}

// Upsert creates or replaces the settings row for settings.OwnerID
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.ProviderSettings) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, provider, api_key, base_url, model, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id) DO UPDATE SET
			provider = EXCLUDED.provider,
			api_key = EXCLUDED.api_key,
			base_url = EXCLUDED.base_url,
			model = EXCLUDED.model,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`, r.tables.ProviderSettings)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		settings.OwnerID,
		string(settings.Config.Provider),
		settings.Config.APIKey,
		settings.Config.BaseURL,
		settings.Config.Model,
		settings.UpdatedAt,
	).Scan(&settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert provider settings: %w", err)
	}

	r.logger.Debug("provider settings saved", "owner_id", settings.OwnerID, "provider", settings.Config.Provider)
	return nil
}
