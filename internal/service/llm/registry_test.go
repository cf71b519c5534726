package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyglot/internal/domain"
	"polyglot/internal/domain/models"
)

type stubClient struct {
	kind models.ProviderKind
}

func (s *stubClient) Generate(ctx context.Context, sys, user string, cfg models.ProviderConfig) (string, error) {
	return string(s.kind), nil
}
func (s *stubClient) Kind() models.ProviderKind                      { return s.kind }
func (s *stubClient) ResolveModel(cfg models.ProviderConfig) string { return cfg.Model }

func TestProviderRegistry_GetProvider(t *testing.T) {
	r := NewProviderRegistry()
	r.Register(&stubClient{kind: models.ProviderManaged})

	tests := []struct {
		name    string
		kind    models.ProviderKind
		wantErr bool
	}{
		{name: "registered", kind: models.ProviderManaged},
		{name: "not registered", kind: models.ProviderOpenAICompatible, wantErr: true},
		{name: "unknown", kind: "carrier_pigeon", wantErr: true},
		{name: "empty", kind: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := r.GetProvider(tt.kind)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, client.Kind())
		})
	}
}

func TestProviderRegistry_RegisterReplaces(t *testing.T) {
	r := NewProviderRegistry()
	first := &stubClient{kind: models.ProviderManaged}
	second := &stubClient{kind: models.ProviderManaged}
	r.Register(first)
	r.Register(second)

	got, err := r.GetProvider(models.ProviderManaged)
	require.NoError(t, err)
	assert.Same(t, second, got)
	assert.Len(t, r.Kinds(), 1)
}

func TestProviderRegistry_Validate(t *testing.T) {
	assert.Error(t, NewProviderRegistry().Validate())
}

func TestProviderRegistry_ConcurrentReads(t *testing.T) {
	r := NewProviderRegistry()
	r.Register(&stubClient{kind: models.ProviderManaged})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.GetProvider(models.ProviderManaged)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestSetupProviders(t *testing.T) {
	r, err := SetupProviders(http.DefaultClient, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Equal(t, []models.ProviderKind{models.ProviderManaged, models.ProviderOpenAICompatible}, r.Kinds())
}
