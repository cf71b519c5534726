package models

import "time"

// ProviderKind selects the LLM backend variant
type ProviderKind string

const (
	// ProviderManaged is the vendor-hosted generation API (Gemini)
	ProviderManaged ProviderKind = "managed"
	// ProviderOpenAICompatible is any chat/completions endpoint, including local servers
	ProviderOpenAICompatible ProviderKind = "openai_compatible"
)

// String returns the wire name of the provider kind
func (k ProviderKind) String() string {
	return string(k)
}

// ProviderConfig is the run-time configuration for one conversion call.
// It is passed by value; BaseURL is ignored for ProviderManaged.
type ProviderConfig struct {
	Provider ProviderKind `json:"provider" yaml:"provider"`
	APIKey   string       `json:"api_key" yaml:"api_key"`
	BaseURL  string       `json:"base_url" yaml:"base_url"`
	Model    string       `json:"model" yaml:"model"`
}

// Masked returns a copy of the config safe to send back to a client
func (c ProviderConfig) Masked() ProviderConfig {
	c.APIKey = MaskAPIKey(c.APIKey)
	return c
}

// MaskAPIKey keeps the last four characters of a key and hides the rest
func MaskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

// ProviderSettings is a persisted ProviderConfig owned by one user (or "local")
type ProviderSettings struct {
	OwnerID   string         `json:"owner_id" yaml:"owner_id"`
	Config    ProviderConfig `json:"config" yaml:"config"`
	UpdatedAt time.Time      `json:"updated_at" yaml:"updated_at"`
}

// SettingsResponse is the read model of provider settings (API key masked)
type SettingsResponse struct {
	Provider  ProviderKind `json:"provider"`
	APIKey    string       `json:"api_key"`
	HasAPIKey bool         `json:"has_api_key"`
	BaseURL   string       `json:"base_url"`
	Model     string       `json:"model"`
	UpdatedAt *time.Time   `json:"updated_at,omitempty"`
}

// Response builds the masked read model
func (s *ProviderSettings) Response() SettingsResponse {
	resp := SettingsResponse{
		Provider:  s.Config.Provider,
		APIKey:    MaskAPIKey(s.Config.APIKey),
		HasAPIKey: s.Config.APIKey != "",
		BaseURL:   s.Config.BaseURL,
		Model:     s.Config.Model,
	}
	if !s.UpdatedAt.IsZero() {
		updated := s.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}
