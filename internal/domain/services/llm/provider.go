package llm

import (
	"context"

	"polyglot/internal/domain/models"
)

// ProviderClient defines the interface that every LLM backend variant must implement.
// Adding a backend means adding one implementation and registering it; the
// conversion orchestrator never switches on the provider kind itself.
type ProviderClient interface {
	// Generate sends the system instruction and user prompt to the backend and
	// returns the raw model text. An empty model response is "", not an error.
	// Every failure is returned as a *domain.ProviderError.
	Generate(ctx context.Context, systemInstruction, userPrompt string, cfg models.ProviderConfig) (string, error)

	// Kind returns the provider kind this client serves
	Kind() models.ProviderKind

	// ResolveModel returns the model the client will request for cfg
	ResolveModel(cfg models.ProviderConfig) string
}

// ProviderResolver looks up the client for a provider kind
type ProviderResolver interface {
	GetProvider(kind models.ProviderKind) (ProviderClient, error)
}
