//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package sqlgen turns natural-language questions into SQL statements using
// a text generation model.
package sqlgen

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pgEdge/pgedge-nl2sql-server/internal/llm"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/schema"
)

// ErrEmptyStatement is returned when the model output contains no text to
// execute.
var ErrEmptyStatement = errors.New("model returned an empty SQL statement")

// Generator formats generation prompts and extracts the resulting SQL.
type Generator struct {
	model  llm.TextGenerator
	schema string
	logger *slog.Logger
}

// GeneratorConfig contains the configuration for creating a Generator.
type GeneratorConfig struct {
	Model  llm.TextGenerator
	Schema string // Defaults to schema.Descriptor
	Logger *slog.Logger
}

// NewGenerator creates a query generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	schemaText := cfg.Schema
	if schemaText == "" {
		schemaText = schema.Descriptor
	}

	return &Generator{
		model:  cfg.Model,
		schema: schemaText,
		logger: logger,
	}
}

// Generate produces a SQL statement for question. The context block is only
// part of the prompt when withContext is set. Model failures are returned
// unchanged.
func (g *Generator) Generate(
	ctx context.Context,
	question, ragContext string,
	withContext bool,
) (string, error) {
	prompt := buildPrompt(g.schema, question, ragContext, withContext)

	raw, err := g.model.GenerateText(ctx, prompt)
	if err != nil {
		return "", err
	}

	sql := Extract(raw)
	g.logger.Debug("generated SQL",
		"question", question,
		"sql", sql,
		"raw_length", len(raw),
	)

	if sql == "" {
		return "", ErrEmptyStatement
	}

	return sql, nil
}

// Schema returns the schema text injected into prompts.
func (g *Generator) Schema() string {
	return g.schema
}
