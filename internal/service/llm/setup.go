package llm

import (
	"fmt"
	"log/slog"
	"net/http"

	"polyglot/internal/service/llm/providers/managed"
	"polyglot/internal/service/llm/providers/openaicompat"
)

// SetupProviders registers both provider variants against a shared HTTP client.
// Returns a configured ProviderRegistry or an error if setup fails.
func SetupProviders(httpClient *http.Client, logger *slog.Logger) (*ProviderRegistry, error) {
	registry := NewProviderRegistry()

	registry.Register(managed.NewClient(managed.Options{HTTPClient: httpClient}, logger))
	registry.Register(openaicompat.NewClient(httpClient, logger))

	if err := registry.Validate(); err != nil {
		return nil, fmt.Errorf("provider registry validation failed: %w", err)
	}

	logger.Info("provider registry initialized", "providers", registry.Kinds())
	return registry, nil
}
