package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"polyglot/internal/config"
	"polyglot/internal/domain"
	"polyglot/internal/domain/models"
	llmSvc "polyglot/internal/domain/services/llm"
)

// DefaultTimeout is used only when no HTTP client is supplied
const DefaultTimeout = 5 * time.Minute

// maxResponseBytes bounds how much of a response body is read
const maxResponseBytes = 8 << 20

// chatMessage is one entry of the chat/completions messages array
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionRequest is the chat/completions request body
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// Client implements ProviderClient for any OpenAI chat/completions compatible
// endpoint, including local servers such as LM Studio and Ollama.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

var _ llmSvc.ProviderClient = (*Client)(nil)

// NewClient creates an OpenAI-compatible client. A nil httpClient gets a client
// with DefaultTimeout.
func NewClient(httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
	}
}

// Kind returns the provider kind
func (c *Client) Kind() models.ProviderKind {
	return models.ProviderOpenAICompatible
}

// ResolveModel returns cfg.Model as-is; the endpoint decides what an empty model means
func (c *Client) ResolveModel(cfg models.ProviderConfig) string {
	return cfg.Model
}

// Generate posts a chat completion and returns the first choice's message content.
// A missing or empty content field yields "" rather than an error.
func (c *Client) Generate(ctx context.Context, systemInstruction, userPrompt string, cfg models.ProviderConfig) (string, error) {
	url := ChatCompletionsURL(cfg.BaseURL)

	payload := chatCompletionRequest{
		Model: cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: userPrompt},
		},
		Temperature: config.Temperature,
		MaxTokens:   config.MaxOutputTokens,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", domain.NewProviderError(domain.MsgConversionFailed, fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payloadBytes))
	if err != nil {
		// Typically an unparseable base URL
		return "", domain.NewProviderError(fmt.Sprintf("Invalid provider URL: %s", url), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	c.logger.Debug("posting chat completion", "url", url, "model", cfg.Model)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", domain.NewProviderError(domain.MsgRequestCancelled, err)
		}
		return "", domain.NewProviderError(domain.MsgTransportFailure, err)
	}
	defer func() { _ = resp.Body.Close() }() // Error ignored: response consumed

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", domain.NewProviderError(domain.MsgTransportFailure, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("chat completion rejected", "url", url, "status", resp.StatusCode)
		return "", statusError(resp.StatusCode, resp.Status, body)
	}

	if !gjson.ValidBytes(body) {
		return "", &domain.ProviderError{
			Message: domain.MsgInvalidResponse,
			Status:  resp.StatusCode,
			Cause:   fmt.Errorf("response is not valid JSON (%d bytes)", len(body)),
		}
	}

	return gjson.GetBytes(body, "choices.0.message.content").String(), nil
}

// statusError builds the error for a non-2xx response. The backend's own
// error.message is preferred; otherwise "API Error: {status} {statusText}" using
// the server's own reason phrase from statusLine (e.g. "529 Site Overloaded").
func statusError(status int, statusLine string, body []byte) error {
	msg := ""
	if gjson.ValidBytes(body) {
		if m := gjson.GetBytes(body, "error.message"); m.Type == gjson.String {
			msg = m.String()
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(fmt.Sprintf("API Error: %d %s", status, reasonPhrase(status, statusLine)))
	}
	return &domain.ProviderError{
		Message: msg,
		Status:  status,
		Cause:   fmt.Errorf("upstream status %d", status),
	}
}

// reasonPhrase strips the code from an http.Response.Status, falling back to
// the standard text when the server sent none
func reasonPhrase(status int, statusLine string) string {
	reason := strings.TrimSpace(strings.TrimPrefix(statusLine, strconv.Itoa(status)))
	if reason == "" {
		reason = http.StatusText(status)
	}
	return reason
}
