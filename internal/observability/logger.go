//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package observability provides the structured logger and Prometheus
// metrics shared by the server and the console.
package observability

import (
	"io"
	"log/slog"
	"strings"

	"github.com/pgEdge/pgedge-nl2sql-server/internal/config"
)

// ServiceName is attached to every log record.
const ServiceName = "pgedge-nl2sql-server"

// NewLogger builds a slog.Logger from the logging configuration. A nil
// writer discards output.
func NewLogger(cfg config.LoggingConfig, writer io.Writer) *slog.Logger {
	if writer == nil {
		writer = io.Discard
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	return slog.New(handler).With(slog.String("service", ServiceName))
}

// ParseLevel maps a configured level name to a slog.Level, defaulting to
// info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
