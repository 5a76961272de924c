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
	"fmt"
	"log/slog"
	"time"

	"github.com/pgEdge/pgedge-nl2sql-server/internal/executor"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/knowledge"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/observability"
)

// maxSteps bounds the control loop. The longest path has six stages.
const maxSteps = 16

// Retriever looks up documentation relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) (*knowledge.Retrieval, error)
}

// QueryGenerator turns a question into a SQL statement.
type QueryGenerator interface {
	Generate(ctx context.Context, question, ragContext string, withContext bool) (string, error)
}

// QueryExecutor runs a statement against the target database.
type QueryExecutor interface {
	Execute(ctx context.Context, statement string) ([]executor.Row, error)
}

// AnswerSynthesizer summarizes query results. It never fails.
type AnswerSynthesizer interface {
	Synthesize(
		ctx context.Context,
		question, sql string,
		rows []executor.Row,
		ragContext string,
		withContext bool,
	) string
}

// Orchestrator drives one question through the stage graph.
type Orchestrator struct {
	name        string
	retriever   Retriever
	generator   QueryGenerator
	executor    QueryExecutor
	synthesizer AnswerSynthesizer
	topK        int
	table       []transition
	logger      *slog.Logger
}

// OrchestratorConfig contains the configuration for creating an orchestrator.
// A nil Retriever selects the plain variant.
type OrchestratorConfig struct {
	Name        string
	Retriever   Retriever
	Generator   QueryGenerator
	Executor    QueryExecutor
	Synthesizer AnswerSynthesizer
	TopK        int
	Logger      *slog.Logger
}

// NewOrchestrator creates a new pipeline orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = knowledge.DefaultTopK
	}

	return &Orchestrator{
		name:        cfg.Name,
		retriever:   cfg.Retriever,
		generator:   cfg.Generator,
		executor:    cfg.Executor,
		synthesizer: cfg.Synthesizer,
		topK:        topK,
		table:       transitionTable(cfg.Retriever != nil),
		logger:      logger,
	}
}

// Retrieval reports whether this is the retrieval-augmented variant.
func (o *Orchestrator) Retrieval() bool {
	return o.retriever != nil
}

func (o *Orchestrator) variant() string {
	if o.Retrieval() {
		return VariantRAG
	}
	return VariantPlain
}

// Run executes the pipeline for question. It always returns a result with a
// non-empty answer; stage failures are reported in the result.
func (o *Orchestrator) Run(ctx context.Context, question string) *Result {
	o.logger.Debug("running pipeline",
		"question", question,
		"variant", o.variant(),
	)

	state := &State{Question: question}
	if o.Retrieval() {
		state.ContextChunks = []string{}
	}

	stage := StageStart
	for steps := 0; stage != StageDone; steps++ {
		if steps >= maxSteps {
			o.fail(state, fmt.Errorf("pipeline did not finish after %d steps", maxSteps))
			break
		}

		start := time.Now()
		o.runStage(ctx, stage, state)
		observability.ObserveStage(stage.String(), time.Since(start))

		next, err := nextStage(o.table, stage, state)
		if err != nil {
			o.fail(state, err)
			break
		}
		stage = next
	}

	outcome := observability.OutcomeAnswered
	if state.Err != nil {
		outcome = observability.OutcomeError
	}
	observability.ObservePipelineRun(o.name, o.variant(), outcome)

	return state.result()
}

func (o *Orchestrator) runStage(ctx context.Context, stage Stage, state *State) {
	o.logger.Debug("entering stage", "stage", stage.String())

	switch stage {
	case StageStart, StageDone:
	case StageRetrieveContext:
		o.retrieveContext(ctx, state)
	case StageGenerateSQL:
		o.generateSQL(ctx, state)
	case StageExecuteQuery:
		o.executeQuery(ctx, state)
	case StageHandleError:
		o.handleError(state)
	case StageGenerateAnswer:
		o.generateAnswer(ctx, state)
	}
}

// retrieveContext fills the context fields. A lookup failure degrades to
// empty context.
func (o *Orchestrator) retrieveContext(ctx context.Context, state *State) {
	retrieval, err := o.retriever.Retrieve(ctx, state.Question, o.topK)
	if err != nil {
		rerr := newRetrievalError(err)
		o.logger.Warn("context retrieval failed, continuing without context",
			"error", rerr,
		)
		observability.IncrementRetrievalFailure(o.name)
		state.ContextChunks = []string{}
		state.RAGContext = ""
		return
	}

	chunks := retrieval.Chunks
	if chunks == nil {
		chunks = []string{}
	}
	state.ContextChunks = chunks
	state.RAGContext = retrieval.Context

	o.logger.Debug("retrieved context", "chunks", len(chunks))
}

func (o *Orchestrator) generateSQL(ctx context.Context, state *State) {
	sql, err := o.generator.Generate(ctx, state.Question, state.RAGContext, o.Retrieval())
	if err != nil {
		state.Err = newGenerationError(err)
		o.logger.Info("SQL generation failed", "error", err)
		return
	}
	state.SQLQuery = sql
}

func (o *Orchestrator) executeQuery(ctx context.Context, state *State) {
	rows, err := o.executor.Execute(ctx, state.SQLQuery)
	if err != nil {
		state.Err = newExecutionError(err)
		o.logger.Info("SQL execution failed",
			"sql", state.SQLQuery,
			"error", err,
		)
		return
	}
	state.QueryResult = rows
}

func (o *Orchestrator) handleError(state *State) {
	state.FinalAnswer = explainError(state.Err.Error(), state.RAGContext)
}

func (o *Orchestrator) generateAnswer(ctx context.Context, state *State) {
	state.FinalAnswer = o.synthesizer.Synthesize(
		ctx,
		state.Question,
		state.SQLQuery,
		state.QueryResult,
		state.RAGContext,
		o.Retrieval(),
	)
}

// fail records an internal control-flow error and renders it like any
// other failure.
func (o *Orchestrator) fail(state *State, err error) {
	o.logger.Error("pipeline aborted", "error", err)
	if state.Err == nil {
		state.Err = err
	}
	state.FinalAnswer = explainError(state.Err.Error(), state.RAGContext)
}
