//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package executor runs generated SQL statements against PostgreSQL.
//
// Statements are executed verbatim. No validation or sanitization is
// performed, so the database role configured for a pipeline is the only
// boundary on what a generated statement can do.
package executor

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"strings"
	"time"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/pgEdge/pgedge-nl2sql-server/internal/config"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/database"
)

// AffectedRowsColumn is the single column returned for statements that do
// not produce a result set.
const AffectedRowsColumn = "affected_rows"

// Row is one result row keyed by column name.
type Row map[string]any

// Opener returns a fresh database handle. The executor closes it after each
// statement.
type Opener func(ctx context.Context) (*sql.DB, error)

// Config configures an Executor.
type Config struct {
	Database         config.DatabaseConfig
	StatementTimeout time.Duration
	Logger           *slog.Logger
	Opener           Opener
}

// Executor executes statements on a fresh connection per call.
type Executor struct {
	open             Opener
	statementTimeout time.Duration
	logger           *slog.Logger
}

// New creates an Executor. Without an Opener, connections are made with
// the pgx driver using the configured database parameters.
func New(cfg Config) *Executor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	open := cfg.Opener
	if open == nil {
		dbCfg := cfg.Database
		open = func(ctx context.Context) (*sql.DB, error) {
			return database.Open(dbCfg)
		}
	}

	return &Executor{
		open:             open,
		statementTimeout: cfg.StatementTimeout,
		logger:           logger,
	}
}

// IsQuery reports whether statement is a SELECT and therefore returns rows.
func IsQuery(statement string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(statement)), "SELECT")
}

// Execute runs statement. SELECT statements return every row; an empty
// result is an empty slice. Any other statement is committed and reported
// as a single row holding the affected row count. Driver errors are
// returned unwrapped.
func (e *Executor) Execute(ctx context.Context, statement string) (rows []Row, err error) {
	if e.statementTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.statementTimeout)
		defer cancel()
	}

	db, err := e.open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			e.logger.Debug("failed to close database handle", "error", closeErr)
		}
	}()

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	start := time.Now()
	if IsQuery(statement) {
		rows, err = query(ctx, conn, statement)
	} else {
		rows, err = exec(ctx, conn, statement)
	}
	if err != nil {
		return nil, err
	}

	e.logger.Debug("statement executed",
		"rows", len(rows),
		"duration", time.Since(start),
	)
	return rows, nil
}

func query(ctx context.Context, conn *sql.Conn, statement string) ([]Row, error) {
	rs, err := conn.QueryContext(ctx, statement)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rs.Close() }()

	columns, err := rs.Columns()
	if err != nil {
		return nil, err
	}

	result := make([]Row, 0)
	for rs.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rs.Scan(scanTargets...); err != nil {
			return nil, err
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		result = append(result, row)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func exec(ctx context.Context, conn *sql.Conn, statement string) ([]Row, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, statement)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return []Row{{AffectedRowsColumn: affected}}, nil
}

func normalizeValue(value any) any {
	switch typed := value.(type) {
	case []byte:
		return string(typed)
	default:
		return typed
	}
}

// Columns returns the sorted column names of the first row.
func Columns(rows []Row) []string {
	if len(rows) == 0 {
		return nil
	}
	cols := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
