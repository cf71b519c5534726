package models

import "time"

// ConversionRequest is a single, transient conversion job
type ConversionRequest struct {
	Content    string
	FromFormat FormatID
	ToFormat   FormatID
	Config     ProviderConfig
}

// ConversionResult is the successful result of an orchestration call
type ConversionResult struct {
	ID       string        // Per-call identifier for log correlation
	Content  string        // Sanitized model output
	Provider ProviderKind  // Empty when no provider was called (blank input)
	Model    string        // Model actually requested, empty when no provider was called
	Duration time.Duration // Time spent in the provider call
}

// ConversionOutcome is the serialized Success(content) | Failure(reason) handed to callers
type ConversionOutcome struct {
	Success bool   `json:"success"`
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// Succeeded builds a successful outcome
func Succeeded(content string) ConversionOutcome {
	return ConversionOutcome{Success: true, Content: content}
}

// Failed builds a failed outcome
func Failed(reason string) ConversionOutcome {
	return ConversionOutcome{Success: false, Error: reason}
}
