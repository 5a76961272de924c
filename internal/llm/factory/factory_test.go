//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package factory

import (
	"testing"

	"github.com/pgEdge/pgedge-nl2sql-server/internal/config"
)

func TestNewEmbeddingProvider_OpenAI(t *testing.T) {
	keys := &config.LoadedKeys{OpenAI: "test-key"}

	provider, err := NewEmbeddingProvider(config.LLMConfig{Provider: "openai"}, 0, keys)
	if err != nil {
		t.Fatalf("NewEmbeddingProvider failed: %v", err)
	}
	if provider == nil {
		t.Fatal("expected non-nil provider")
	}
}

func TestNewEmbeddingProvider_OpenAI_NoKey(t *testing.T) {
	keys := &config.LoadedKeys{}

	_, err := NewEmbeddingProvider(config.LLMConfig{Provider: "openai"}, 0, keys)
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestNewEmbeddingProvider_Ollama(t *testing.T) {
	keys := &config.LoadedKeys{}

	provider, err := NewEmbeddingProvider(config.LLMConfig{
		Provider: "ollama",
		Model:    "nomic-embed-text",
		BaseURL:  "http://ollama:11434",
	}, 0, keys)
	if err != nil {
		t.Fatalf("NewEmbeddingProvider failed: %v", err)
	}
	if provider.ModelName() != "nomic-embed-text" {
		t.Errorf("expected model nomic-embed-text, got %s", provider.ModelName())
	}
	if provider.Dimensions() != 768 {
		t.Errorf("expected 768 dimensions, got %d", provider.Dimensions())
	}
}

func TestNewEmbeddingProvider_DimensionsOverride(t *testing.T) {
	keys := &config.LoadedKeys{}

	provider, err := NewEmbeddingProvider(config.LLMConfig{Provider: "ollama"}, 1024, keys)
	if err != nil {
		t.Fatalf("NewEmbeddingProvider failed: %v", err)
	}
	if provider.Dimensions() != 1024 {
		t.Errorf("expected 1024 dimensions, got %d", provider.Dimensions())
	}
}

func TestNewEmbeddingProvider_Anthropic(t *testing.T) {
	keys := &config.LoadedKeys{Anthropic: "test-key"}

	_, err := NewEmbeddingProvider(config.LLMConfig{Provider: "anthropic"}, 0, keys)
	if err == nil {
		t.Fatal("expected error for Anthropic (no embedding API)")
	}
}

func TestNewEmbeddingProvider_Unknown(t *testing.T) {
	keys := &config.LoadedKeys{}

	_, err := NewEmbeddingProvider(config.LLMConfig{Provider: "unknown"}, 0, keys)
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewEmbeddingProvider_CaseInsensitive(t *testing.T) {
	keys := &config.LoadedKeys{OpenAI: "test-key"}

	provider, err := NewEmbeddingProvider(config.LLMConfig{Provider: "OpenAI"}, 0, keys)
	if err != nil {
		t.Fatalf("NewEmbeddingProvider failed: %v", err)
	}
	if provider == nil {
		t.Fatal("expected non-nil provider")
	}
}

func TestNewCompletionProvider_OpenAI(t *testing.T) {
	keys := &config.LoadedKeys{OpenAI: "test-key"}

	provider, err := NewCompletionProvider(config.LLMConfig{Provider: "openai"}, keys)
	if err != nil {
		t.Fatalf("NewCompletionProvider failed: %v", err)
	}
	if provider == nil {
		t.Fatal("expected non-nil provider")
	}
}

func TestNewCompletionProvider_Anthropic(t *testing.T) {
	keys := &config.LoadedKeys{Anthropic: "test-key"}

	provider, err := NewCompletionProvider(config.LLMConfig{Provider: "anthropic"}, keys)
	if err != nil {
		t.Fatalf("NewCompletionProvider failed: %v", err)
	}
	if provider == nil {
		t.Fatal("expected non-nil provider")
	}
}

func TestNewCompletionProvider_Anthropic_NoKey(t *testing.T) {
	_, err := NewCompletionProvider(config.LLMConfig{Provider: "anthropic"}, &config.LoadedKeys{})
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestNewCompletionProvider_Ollama(t *testing.T) {
	keys := &config.LoadedKeys{}

	provider, err := NewCompletionProvider(config.LLMConfig{Provider: "ollama"}, keys)
	if err != nil {
		t.Fatalf("NewCompletionProvider failed: %v", err)
	}
	if provider.ModelName() != "llama3.2" {
		t.Errorf("expected default model llama3.2, got %s", provider.ModelName())
	}
}

func TestNewCompletionProvider_Unknown(t *testing.T) {
	keys := &config.LoadedKeys{}

	_, err := NewCompletionProvider(config.LLMConfig{Provider: "unknown"}, keys)
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewCompletionProvider_WithModel(t *testing.T) {
	keys := &config.LoadedKeys{OpenAI: "test-key"}

	provider, err := NewCompletionProvider(config.LLMConfig{Provider: "openai", Model: "gpt-4"}, keys)
	if err != nil {
		t.Fatalf("NewCompletionProvider failed: %v", err)
	}
	if provider.ModelName() != "gpt-4" {
		t.Errorf("expected model gpt-4, got %s", provider.ModelName())
	}
}
