//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package answer turns query results into a natural-language answer.
package answer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/pgEdge/pgedge-nl2sql-server/internal/executor"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/llm"
)

const (
	// DefaultMaxResultChars bounds the serialized rows placed in the prompt.
	DefaultMaxResultChars = 8000

	// MaxContextChars bounds the retrieved context placed in the prompt.
	MaxContextChars = 1000
)

// ErrEmptyAnswer is reported when the model returns no text.
var ErrEmptyAnswer = errors.New("model returned an empty response")

// FailurePrefix starts the answer returned when the model call fails.
const FailurePrefix = "Generated results but failed to create natural language response: "

// Config contains the configuration for creating a Synthesizer.
type Config struct {
	Model          llm.TextGenerator
	MaxResultChars int
	Logger         *slog.Logger
}

// Synthesizer produces answers from query results.
type Synthesizer struct {
	model          llm.TextGenerator
	maxResultChars int
	logger         *slog.Logger
}

// New creates a Synthesizer.
func New(cfg Config) *Synthesizer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxChars := cfg.MaxResultChars
	if maxChars <= 0 {
		maxChars = DefaultMaxResultChars
	}

	return &Synthesizer{
		model:          cfg.Model,
		maxResultChars: maxChars,
		logger:         logger,
	}
}

// Synthesize asks the model to answer question from rows. The context
// block is only part of the prompt when withContext is set. It never fails:
// a model error is reported in the returned text.
func (s *Synthesizer) Synthesize(
	ctx context.Context,
	question, sql string,
	rows []executor.Row,
	ragContext string,
	withContext bool,
) string {
	results := s.serializeRows(rows)
	prompt := buildPrompt(question, sql, results, truncate(ragContext, MaxContextChars), withContext)

	answer, err := s.model.GenerateText(ctx, prompt)
	if err != nil {
		s.logger.Warn("answer generation failed", "error", err)
		return FailurePrefix + err.Error()
	}
	if strings.TrimSpace(answer) == "" {
		s.logger.Warn("answer generation returned no text")
		return FailurePrefix + ErrEmptyAnswer.Error()
	}
	return answer
}

func (s *Synthesizer) serializeRows(rows []executor.Row) string {
	if rows == nil {
		rows = []executor.Row{}
	}

	data, err := json.Marshal(rows)
	if err != nil {
		// Rows hold driver scalars; fall back to Go formatting if one is
		// not JSON-encodable.
		return truncate(fmt.Sprintf("%v", rows), s.maxResultChars)
	}

	out := string(data)
	if utf8.RuneCountInString(out) > s.maxResultChars {
		return fmt.Sprintf("%s... (truncated, %d rows total)",
			truncate(out, s.maxResultChars), len(rows))
	}
	return out
}

// truncate returns at most n characters of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
