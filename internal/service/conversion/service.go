package conversion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"polyglot/internal/config"
	"polyglot/internal/domain"
	"polyglot/internal/domain/models"
	"polyglot/internal/domain/services"
	llmSvc "polyglot/internal/domain/services/llm"
	"polyglot/internal/service/llm"
)

// Service implements services.ConversionService.
// It holds no per-call state, so one instance serves concurrent conversions.
type Service struct {
	formats       services.FormatCatalog
	providers     llmSvc.ProviderResolver
	maxInputChars int
	logger        *slog.Logger
}

var _ services.ConversionService = (*Service)(nil)

// NewService creates a conversion service. maxInputChars <= 0 uses config.MaxInputChars.
func NewService(
	formats services.FormatCatalog,
	providers llmSvc.ProviderResolver,
	maxInputChars int,
	logger *slog.Logger,
) *Service {
	if maxInputChars <= 0 {
		maxInputChars = config.MaxInputChars
	}
	return &Service{
		formats:       formats,
		providers:     providers,
		maxInputChars: maxInputChars,
		logger:        logger,
	}
}

// MaxInputChars returns the input ceiling enforced by Convert
func (s *Service) MaxInputChars() int {
	return s.maxInputChars
}

// Convert runs one conversion.
//
// Checks run in a fixed order and all of them happen before any network call:
// blank content succeeds with "", oversize content and a managed config without
// an API key are rejected, then format ids and the provider kind are resolved.
// Provider failures and the model's "ERROR:" sentinel come back as *domain.ProviderError.
// Nothing is retried.
func (s *Service) Convert(ctx context.Context, req *models.ConversionRequest) (*models.ConversionResult, error) {
	id := uuid.NewString()
	log := s.logger.With("conversion_id", id)
	log.Debug("conversion state", "state", "validating")

	if strings.TrimSpace(req.Content) == "" {
		log.Debug("conversion state", "state", "done", "reason", "blank input")
		return &models.ConversionResult{ID: id, Content: ""}, nil
	}

	if n := utf8.RuneCountInString(req.Content); n > s.maxInputChars {
		log.Debug("conversion state", "state", "failed", "reason", "input too large", "chars", n)
		return nil, domain.NewValidationError(fmt.Sprintf(
			"Input exceeds maximum length of %d characters (got %d).", s.maxInputChars, n))
	}

	cfg := req.Config
	if cfg.Provider == models.ProviderManaged && strings.TrimSpace(cfg.APIKey) == "" {
		log.Debug("conversion state", "state", "failed", "reason", "missing api key")
		return nil, domain.NewValidationError("API Key is missing. Please check Settings.")
	}

	from, ok := s.formats.Find(req.FromFormat)
	if !ok {
		return nil, domain.NewValidationError(fmt.Sprintf("unknown source format %q", string(req.FromFormat)))
	}
	to, ok := s.formats.Find(req.ToFormat)
	if !ok {
		return nil, domain.NewValidationError(fmt.Sprintf("unknown target format %q", string(req.ToFormat)))
	}

	client, err := s.providers.GetProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}

	prompt := llm.BuildPrompt(req.Content, from.Label, to.Label)
	model := client.ResolveModel(cfg)

	log.Debug("conversion state", "state", "dispatching",
		"provider", cfg.Provider,
		"model", model,
		"from", from.Value,
		"to", to.Value,
	)

	start := time.Now()
	raw, err := client.Generate(ctx, prompt.SystemInstruction, prompt.UserPrompt, cfg)
	elapsed := time.Since(start)
	if err != nil {
		log.Warn("conversion failed", "provider", cfg.Provider, "model", model, "duration", elapsed, "error", err)
		return nil, asProviderError(err)
	}

	log.Debug("conversion state", "state", "sanitizing", "raw_len", len(raw))
	text := llm.SanitizeResponse(raw)

	// Content that legitimately begins with "ERROR:" is indistinguishable from a refusal
	if llm.IsErrorSentinel(text) {
		log.Info("model declined conversion", "provider", cfg.Provider, "model", model, "reason", text)
		return nil, domain.NewProviderError(text, nil)
	}

	log.Info("conversion completed",
		"provider", cfg.Provider,
		"model", model,
		"from", from.Value,
		"to", to.Value,
		"input_chars", utf8.RuneCountInString(req.Content),
		"output_chars", utf8.RuneCountInString(text),
		"duration", elapsed,
	)

	return &models.ConversionResult{
		ID:       id,
		Content:  text,
		Provider: cfg.Provider,
		Model:    model,
		Duration: elapsed,
	}, nil
}

// asProviderError keeps ProviderErrors as-is and wraps anything else with the generic message
func asProviderError(err error) error {
	var perr *domain.ProviderError
	if errors.As(err, &perr) {
		return err
	}
	return domain.NewProviderError(domain.MsgConversionFailed, err)
}
