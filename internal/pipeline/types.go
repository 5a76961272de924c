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
	"encoding/json"

	"github.com/pgEdge/pgedge-nl2sql-server/internal/executor"
)

// Variant names used in logs and metrics.
const (
	VariantPlain = "plain"
	VariantRAG   = "rag"
)

// Info contains basic pipeline information for listing.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Retrieval   bool   `json:"retrieval"`
}

// Result is the outcome of one pipeline invocation. Answer is never empty.
// ContextDocs is nil for the plain variant and non-nil, possibly empty, for
// the retrieval variant.
type Result struct {
	Question    string         `json:"question"`
	SQLQuery    string         `json:"sql_query"`
	Results     []executor.Row `json:"results"`
	Answer      string         `json:"answer"`
	Error       string         `json:"error,omitempty"`
	ErrorKind   string         `json:"error_kind,omitempty"`
	ContextDocs []string       `json:"context_docs,omitempty"`
	RAGContext  string         `json:"rag_context,omitempty"`
}

// MarshalJSON encodes a retrieval result with context_docs and rag_context
// present even when no context was found.
func (r Result) MarshalJSON() ([]byte, error) {
	type result Result
	if r.ContextDocs == nil {
		return json.Marshal(result(r))
	}
	return json.Marshal(struct {
		result
		ContextDocs []string `json:"context_docs"`
		RAGContext  string   `json:"rag_context"`
	}{result(r), r.ContextDocs, r.RAGContext})
}

// State is the value threaded through the stages of a single run. It is
// owned by that run and never shared.
type State struct {
	Question      string
	SQLQuery      string
	QueryResult   []executor.Row
	FinalAnswer   string
	Err           error // *GenerationError or *ExecutionError
	ContextChunks []string
	RAGContext    string
}

func (s *State) result() *Result {
	rows := s.QueryResult
	if rows == nil {
		rows = make([]executor.Row, 0)
	}

	res := &Result{
		Question:    s.Question,
		SQLQuery:    s.SQLQuery,
		Results:     rows,
		Answer:      s.FinalAnswer,
		ContextDocs: s.ContextChunks,
		RAGContext:  s.RAGContext,
	}
	if s.Err != nil {
		res.Error = s.Err.Error()
		res.ErrorKind = errorKind(s.Err)
	}
	return res
}
