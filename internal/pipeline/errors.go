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
	"errors"
	"fmt"
)

var (
	// ErrPipelineNotFound is returned when a requested pipeline does not exist.
	ErrPipelineNotFound = errors.New("pipeline not found")

	// ErrEmptyQuestion is returned when a question is blank.
	ErrEmptyQuestion = errors.New("question must not be empty")

	// ErrKnowledgeDisabled is returned by AddKnowledge when no pipeline
	// uses retrieval.
	ErrKnowledgeDisabled = errors.New("no pipeline uses the knowledge store")
)

// Error kinds reported in Result.ErrorKind.
const (
	ErrorKindGeneration = "generation"
	ErrorKindExecution  = "execution"
	ErrorKindRetrieval  = "retrieval"
)

// GenerationError reports a failed generate_sql stage.
type GenerationError struct {
	Stage   Stage
	Message string
	Err     error
}

func newGenerationError(err error) *GenerationError {
	return &GenerationError{
		Stage:   StageGenerateSQL,
		Message: fmt.Sprintf("Failed to generate SQL query: %v", err),
		Err:     err,
	}
}

func (e *GenerationError) Error() string { return e.Message }

func (e *GenerationError) Unwrap() error { return e.Err }

// ExecutionError reports a failed execute_query stage. Message carries the
// driver text verbatim.
type ExecutionError struct {
	Stage   Stage
	Message string
	Err     error
}

func newExecutionError(err error) *ExecutionError {
	return &ExecutionError{
		Stage:   StageExecuteQuery,
		Message: fmt.Sprintf("SQL execution error: %v", err),
		Err:     err,
	}
}

func (e *ExecutionError) Error() string { return e.Message }

func (e *ExecutionError) Unwrap() error { return e.Err }

// RetrievalError reports a failed context lookup. It never reaches the
// caller; the run continues with empty context.
type RetrievalError struct {
	Stage   Stage
	Message string
	Err     error
}

func newRetrievalError(err error) *RetrievalError {
	return &RetrievalError{
		Stage:   StageRetrieveContext,
		Message: fmt.Sprintf("Failed to retrieve context: %v", err),
		Err:     err,
	}
}

func (e *RetrievalError) Error() string { return e.Message }

func (e *RetrievalError) Unwrap() error { return e.Err }

func errorKind(err error) string {
	var genErr *GenerationError
	var execErr *ExecutionError
	var retErr *RetrievalError
	switch {
	case errors.As(err, &genErr):
		return ErrorKindGeneration
	case errors.As(err, &execErr):
		return ErrorKindExecution
	case errors.As(err, &retErr):
		return ErrorKindRetrieval
	default:
		return ""
	}
}
