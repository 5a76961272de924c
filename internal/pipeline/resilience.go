//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pgEdge/pgedge-nl2sql-server/internal/llm"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/observability"
)

// ErrModelTimeout is returned when a single model call exceeds its deadline.
var ErrModelTimeout = errors.New("model call timed out")

const defaultRetryDelay = 500 * time.Millisecond

// resilientGenerator bounds every model call with a deadline and retries
// transient failures a fixed number of times.
type resilientGenerator struct {
	next    llm.TextGenerator
	timeout time.Duration
	retries int
	delay   time.Duration
	logger  *slog.Logger
}

var _ llm.TextGenerator = (*resilientGenerator)(nil)

func newResilientGenerator(
	next llm.TextGenerator,
	timeout time.Duration,
	retries int,
	logger *slog.Logger,
) *resilientGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	if retries < 0 {
		retries = 0
	}
	return &resilientGenerator{
		next:    next,
		timeout: timeout,
		retries: retries,
		delay:   defaultRetryDelay,
		logger:  logger,
	}
}

// GenerateText implements llm.TextGenerator.
func (g *resilientGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= g.retries; attempt++ {
		if attempt > 0 {
			observability.IncrementModelRetry()
			g.logger.Warn("retrying model call",
				"attempt", attempt,
				"error", lastErr,
			)
			if err := g.wait(ctx); err != nil {
				return "", lastErr
			}
		}

		text, err := g.call(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}

	return "", lastErr
}

func (g *resilientGenerator) call(ctx context.Context, prompt string) (string, error) {
	if g.timeout <= 0 {
		return g.next.GenerateText(ctx, prompt)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.next.GenerateText(callCtx, prompt)
	if err != nil && ctx.Err() == nil &&
		errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w after %s", ErrModelTimeout, g.timeout)
	}
	return text, err
}

func (g *resilientGenerator) wait(ctx context.Context) error {
	if g.delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(g.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func retryable(err error) bool {
	return errors.Is(err, ErrModelTimeout) || llm.IsRetryable(err)
}
