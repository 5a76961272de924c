//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package llm

import (
	"context"
	"strings"
)

// TextGenerator turns a single prompt into generated text. It is the only
// model capability the NL2SQL stages depend on.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GeneratorOption configures a CompletionGenerator.
type GeneratorOption func(*CompletionGenerator)

// WithGeneratorTemperature sets the sampling temperature. The default of
// zero keeps generation deterministic.
func WithGeneratorTemperature(t float64) GeneratorOption {
	return func(g *CompletionGenerator) {
		g.temperature = t
	}
}

// WithGeneratorMaxTokens caps the length of generated text.
func WithGeneratorMaxTokens(n int) GeneratorOption {
	return func(g *CompletionGenerator) {
		g.maxTokens = n
	}
}

// WithUsageObserver registers fn to receive the token usage of every
// successful call.
func WithUsageObserver(fn func(model string, usage TokenUsage)) GeneratorOption {
	return func(g *CompletionGenerator) {
		g.observe = fn
	}
}

// CompletionGenerator adapts a CompletionProvider to TextGenerator by
// sending the prompt as a single user message.
type CompletionGenerator struct {
	provider    CompletionProvider
	temperature float64
	maxTokens   int
	observe     func(model string, usage TokenUsage)
}

var _ TextGenerator = (*CompletionGenerator)(nil)

// NewCompletionGenerator wraps provider as a TextGenerator.
func NewCompletionGenerator(provider CompletionProvider, opts ...GeneratorOption) *CompletionGenerator {
	g := &CompletionGenerator{provider: provider}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateText implements TextGenerator.
func (g *CompletionGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.provider.Complete(ctx, CompletionRequest{
		Messages:    []Message{{Role: "user", Content: prompt}},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", err
	}
	if g.observe != nil {
		g.observe(g.provider.ModelName(), resp.Usage)
	}

	return strings.TrimSpace(resp.Content), nil
}

// ModelName returns the wrapped provider's model.
func (g *CompletionGenerator) ModelName() string {
	return g.provider.ModelName()
}
