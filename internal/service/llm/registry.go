package llm

import (
	"fmt"
	"sort"
	"sync"

	"polyglot/internal/domain"
	"polyglot/internal/domain/models"
	llmSvc "polyglot/internal/domain/services/llm"
)

// ProviderRegistry maps provider kinds to their clients.
// Adding a backend is one Register call; callers never switch on the kind.
type ProviderRegistry struct {
	clients map[models.ProviderKind]llmSvc.ProviderClient
	mu      sync.RWMutex
}

var _ llmSvc.ProviderResolver = (*ProviderRegistry)(nil)

// NewProviderRegistry creates an empty registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		clients: make(map[models.ProviderKind]llmSvc.ProviderClient),
	}
}

// Register adds a client under its own Kind, replacing any previous one
func (r *ProviderRegistry) Register(client llmSvc.ProviderClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.Kind()] = client
}

// GetProvider returns the client for kind, or a ValidationError when none is registered
func (r *ProviderRegistry) GetProvider(kind models.ProviderKind) (llmSvc.ProviderClient, error) {
	if kind == "" {
		return nil, domain.NewValidationError("provider cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[kind]
	if !ok {
		return nil, domain.NewValidationError(fmt.Sprintf("unsupported provider %q", string(kind)))
	}
	return client, nil
}

// Kinds returns the registered kinds, sorted
func (r *ProviderRegistry) Kinds() []models.ProviderKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]models.ProviderKind, 0, len(r.clients))
	for k := range r.clients {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Validate checks that at least one provider is registered.
// Should be called at startup to fail fast if misconfigured.
func (r *ProviderRegistry) Validate() error {
	if len(r.Kinds()) == 0 {
		return fmt.Errorf("no providers registered")
	}
	return nil
}
