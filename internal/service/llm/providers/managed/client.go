package managed

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"polyglot/internal/config"
	"polyglot/internal/domain"
	"polyglot/internal/domain/models"
	llmSvc "polyglot/internal/domain/services/llm"
)

// DefaultModel is used when the config leaves the model blank
const DefaultModel = "gemini-2.5-flash"

// contentGenerator is the slice of the genai Models API this client uses
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// generatorFactory builds a generator bound to one API key
type generatorFactory func(ctx context.Context, apiKey string) (contentGenerator, error)

// Options configures the managed client
type Options struct {
	// HTTPClient is used for all API calls; nil uses the SDK default
	HTTPClient *http.Client
	// BaseURL overrides the API endpoint (proxies, tests); empty uses the SDK default
	BaseURL string
}

// Client implements ProviderClient for the managed Gemini API.
// A fresh SDK client is created per call because the API key travels with the config.
type Client struct {
	newGenerator generatorFactory
	logger       *slog.Logger
}

var _ llmSvc.ProviderClient = (*Client)(nil)

// NewClient creates a managed-API client
func NewClient(opts Options, logger *slog.Logger) *Client {
	return &Client{
		newGenerator: func(ctx context.Context, apiKey string) (contentGenerator, error) {
			client, err := genai.NewClient(ctx, &genai.ClientConfig{
				APIKey:      apiKey,
				Backend:     genai.BackendGeminiAPI,
				HTTPClient:  opts.HTTPClient,
				HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
			})
			if err != nil {
				return nil, err
			}
			return client.Models, nil
		},
		logger: logger,
	}
}

// Kind returns the provider kind
func (c *Client) Kind() models.ProviderKind {
	return models.ProviderManaged
}

// ResolveModel returns cfg.Model, or DefaultModel when unset
func (c *Client) ResolveModel(cfg models.ProviderConfig) string {
	if m := strings.TrimSpace(cfg.Model); m != "" {
		return m
	}
	return DefaultModel
}

// Generate calls the managed generation API and returns the response text
func (c *Client) Generate(ctx context.Context, systemInstruction, userPrompt string, cfg models.ProviderConfig) (string, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return "", domain.NewProviderError("API Key is missing. Please check Settings.", nil)
	}

	gen, err := c.newGenerator(ctx, cfg.APIKey)
	if err != nil {
		c.logger.Error("failed to create managed client", "error", err)
		return "", domain.NewProviderError(domain.MsgTransportFailure, err)
	}

	model := c.ResolveModel(cfg)
	resp, err := gen.GenerateContent(ctx, model, genai.Text(userPrompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](config.Temperature),
		MaxOutputTokens:   config.MaxOutputTokens,
	})
	if err != nil {
		c.logger.Debug("managed generation failed", "model", model, "error", err)
		return "", toProviderError(err)
	}
	if resp == nil {
		return "", nil
	}

	return resp.Text(), nil
}

// toProviderError maps SDK errors to a ProviderError, preferring the API's own message
func toProviderError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = domain.MsgConversionFailed
		}
		return &domain.ProviderError{Message: msg, Status: apiErr.Code, Cause: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewProviderError(domain.MsgRequestCancelled, err)
	}
	return domain.NewProviderError(domain.MsgTransportFailure, err)
}
