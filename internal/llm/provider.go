//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package llm provides interfaces and implementations for LLM providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// EmbeddingProvider generates vector embeddings from text.
type EmbeddingProvider interface {
	// Embed generates an embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// Returns embeddings in the same order as input texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of embeddings produced.
	Dimensions() int

	// ModelName returns the name of the model being used.
	ModelName() string
}

// CompletionProvider generates text completions using an LLM.
type CompletionProvider interface {
	// Complete generates a completion for the given prompt.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// ModelName returns the name of the model being used.
	ModelName() string
}

// CompletionRequest represents a request to an LLM for completion.
type CompletionRequest struct {
	// SystemPrompt is the system-level instruction for the model.
	SystemPrompt string

	// Messages is the conversation history.
	Messages []Message

	// MaxTokens is the maximum number of tokens to generate.
	// If 0, uses the provider's default.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0+ = creative).
	// If negative, uses the provider's default. Zero is sent explicitly.
	Temperature float64
}

// Message represents a message in the conversation. Role is "user",
// "assistant", or "system". The JSON form matches the chat formats of
// OpenAI and Ollama.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Sampling resolves the request's overrides against provider defaults.
// A zero MaxTokens or negative Temperature selects the default.
func (r CompletionRequest) Sampling(defaultMaxTokens int, defaultTemperature float64) (int, float64) {
	maxTokens := defaultMaxTokens
	if r.MaxTokens > 0 {
		maxTokens = r.MaxTokens
	}
	temperature := defaultTemperature
	if r.Temperature >= 0 {
		temperature = r.Temperature
	}
	return maxTokens, temperature
}

// ChatMessages returns the conversation with SystemPrompt, if any, as a
// leading system message.
func (r CompletionRequest) ChatMessages() []Message {
	if r.SystemPrompt == "" {
		return r.Messages
	}
	messages := make([]Message, 0, len(r.Messages)+1)
	messages = append(messages, Message{Role: "system", Content: r.SystemPrompt})
	return append(messages, r.Messages...)
}

// CompletionResponse represents a non-streaming completion response.
type CompletionResponse struct {
	Content      string
	FinishReason string
	Usage        TokenUsage
}

// TokenUsage represents token consumption for a request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// InferenceError is returned by providers when a model call fails.
type InferenceError struct {
	Code       string
	Message    string
	StatusCode int
	Retryable  bool
}

func (e *InferenceError) Error() string {
	return e.Message
}

// Common error codes
const (
	ErrCodeRateLimit    = "rate_limit"
	ErrCodeInvalidKey   = "invalid_api_key"
	ErrCodeQuotaExceed  = "quota_exceeded"
	ErrCodeModelError   = "model_error"
	ErrCodeTimeout      = "timeout"
	ErrCodeNetworkError = "network_error"
	ErrCodeEmptyOutput  = "empty_output"
)

// NewStatusError classifies an HTTP status from a provider API into an
// InferenceError. Rate limits and server-side failures are retryable.
func NewStatusError(provider string, statusCode int, message string) *InferenceError {
	code := ErrCodeModelError
	retryable := false

	switch {
	case statusCode == 401 || statusCode == 403:
		code = ErrCodeInvalidKey
	case statusCode == 429:
		code = ErrCodeRateLimit
		retryable = true
	case statusCode == 408 || statusCode == 504:
		code = ErrCodeTimeout
		retryable = true
	case statusCode >= 500:
		retryable = true
	}

	return &InferenceError{
		Code:       code,
		Message:    fmt.Sprintf("%s API error (%d): %s", provider, statusCode, message),
		StatusCode: statusCode,
		Retryable:  retryable,
	}
}

// NewNetworkError wraps a transport failure talking to a provider.
func NewNetworkError(provider string, err error) *InferenceError {
	return &InferenceError{
		Code:      ErrCodeNetworkError,
		Message:   fmt.Sprintf("%s request failed: %v", provider, err),
		Retryable: true,
	}
}

// IsRetryable returns true if the error can be retried. Provider errors
// carry their own classification; network timeouts are always transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var ie *InferenceError
	if errors.As(err, &ie) {
		return ie.Retryable
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	return false
}
