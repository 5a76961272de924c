//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

import "fmt"

// Stage identifies a step of the pipeline.
type Stage int

// Pipeline stages. StageDone is terminal.
const (
	StageStart Stage = iota
	StageRetrieveContext
	StageGenerateSQL
	StageExecuteQuery
	StageHandleError
	StageGenerateAnswer
	StageDone
)

var stageNames = map[Stage]string{
	StageStart:           "start",
	StageRetrieveContext: "retrieve_context",
	StageGenerateSQL:     "generate_sql",
	StageExecuteQuery:    "execute_query",
	StageHandleError:     "handle_error",
	StageGenerateAnswer:  "generate_answer",
	StageDone:            "done",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// transition is one edge of the stage graph. A nil guard always matches;
// edges leaving the same stage are tried in order.
type transition struct {
	from  Stage
	guard func(*State) bool
	to    Stage
}

func hasError(s *State) bool { return s.Err != nil }

func noError(s *State) bool { return s.Err == nil }

// transitionTable returns the stage graph for a variant. The graph is
// acyclic; every path ends in StageDone.
func transitionTable(retrieval bool) []transition {
	first := StageGenerateSQL
	if retrieval {
		first = StageRetrieveContext
	}

	table := []transition{
		{from: StageStart, to: first},
	}
	if retrieval {
		table = append(table, transition{from: StageRetrieveContext, to: StageGenerateSQL})
	}

	return append(table,
		transition{from: StageGenerateSQL, guard: hasError, to: StageHandleError},
		transition{from: StageGenerateSQL, guard: noError, to: StageExecuteQuery},
		transition{from: StageExecuteQuery, guard: hasError, to: StageHandleError},
		transition{from: StageExecuteQuery, guard: noError, to: StageGenerateAnswer},
		transition{from: StageHandleError, to: StageDone},
		transition{from: StageGenerateAnswer, to: StageDone},
	)
}

// nextStage picks the first matching edge out of from.
func nextStage(table []transition, from Stage, s *State) (Stage, error) {
	for _, t := range table {
		if t.from != from {
			continue
		}
		if t.guard == nil || t.guard(s) {
			return t.to, nil
		}
	}
	return StageDone, fmt.Errorf("no transition out of stage %s", from)
}
