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
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-nl2sql-server/internal/answer"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/executor"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/knowledge"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/sqlgen"
)

// MockRetriever implements Retriever for testing.
type MockRetriever struct {
	Chunks []string
	Err    error
	Calls  int
}

func (m *MockRetriever) Retrieve(_ context.Context, _ string, _ int) (*knowledge.Retrieval, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return &knowledge.Retrieval{
		Chunks:  m.Chunks,
		Context: strings.Join(m.Chunks, knowledge.ContextSeparator),
	}, nil
}

// MockQueryGenerator implements QueryGenerator for testing.
type MockQueryGenerator struct {
	SQL            string
	Err            error
	Calls          int
	GotContext     string
	GotWithContext bool
}

func (m *MockQueryGenerator) Generate(
	_ context.Context,
	_, ragContext string,
	withContext bool,
) (string, error) {
	m.Calls++
	m.GotContext = ragContext
	m.GotWithContext = withContext
	return m.SQL, m.Err
}

// MockQueryExecutor implements QueryExecutor for testing.
type MockQueryExecutor struct {
	Rows      []executor.Row
	Err       error
	Calls     int
	Statement string
}

func (m *MockQueryExecutor) Execute(_ context.Context, statement string) ([]executor.Row, error) {
	m.Calls++
	m.Statement = statement
	return m.Rows, m.Err
}

// MockSynthesizer implements AnswerSynthesizer for testing.
type MockSynthesizer struct {
	Answer         string
	Calls          int
	GotRows        []executor.Row
	GotContext     string
	GotWithContext bool
}

func (m *MockSynthesizer) Synthesize(
	_ context.Context,
	_, _ string,
	rows []executor.Row,
	ragContext string,
	withContext bool,
) string {
	m.Calls++
	m.GotRows = rows
	m.GotContext = ragContext
	m.GotWithContext = withContext
	return m.Answer
}

type testStages struct {
	retriever   *MockRetriever
	generator   *MockQueryGenerator
	executor    *MockQueryExecutor
	synthesizer *MockSynthesizer
}

func newTestStages() *testStages {
	return &testStages{
		generator: &MockQueryGenerator{
			SQL: `SELECT COUNT(*) AS count FROM "StudentRecord";`,
		},
		executor: &MockQueryExecutor{
			Rows: []executor.Row{{"count": int64(120)}},
		},
		synthesizer: &MockSynthesizer{Answer: "There are 120 students."},
	}
}

func (s *testStages) orchestrator() *Orchestrator {
	cfg := OrchestratorConfig{
		Name:        "test",
		Generator:   s.generator,
		Executor:    s.executor,
		Synthesizer: s.synthesizer,
	}
	if s.retriever != nil {
		cfg.Retriever = s.retriever
	}
	return NewOrchestrator(cfg)
}

func TestOrchestrator_PlainSuccess(t *testing.T) {
	stages := newTestStages()

	result := stages.orchestrator().Run(context.Background(), "How many students are there?")

	assert.Equal(t, "How many students are there?", result.Question)
	assert.Equal(t, `SELECT COUNT(*) AS count FROM "StudentRecord";`, result.SQLQuery)
	assert.Equal(t, []executor.Row{{"count": int64(120)}}, result.Results)
	assert.Equal(t, "There are 120 students.", result.Answer)
	assert.Empty(t, result.Error)
	assert.Nil(t, result.ContextDocs)
	assert.Empty(t, result.RAGContext)

	assert.False(t, stages.generator.GotWithContext)
	assert.Equal(t, stages.generator.SQL, stages.executor.Statement)
	assert.False(t, stages.synthesizer.GotWithContext)
}

func TestOrchestrator_RAGPassesContextThrough(t *testing.T) {
	stages := newTestStages()
	stages.retriever = &MockRetriever{Chunks: []string{"chunk one", "chunk two"}}

	result := stages.orchestrator().Run(context.Background(), "How many students are there?")

	assert.Equal(t, []string{"chunk one", "chunk two"}, result.ContextDocs)
	assert.Equal(t, "chunk one\n\nchunk two", result.RAGContext)
	assert.Empty(t, result.Error)

	assert.True(t, stages.generator.GotWithContext)
	assert.Equal(t, "chunk one\n\nchunk two", stages.generator.GotContext)
	assert.True(t, stages.synthesizer.GotWithContext)
	assert.Equal(t, "chunk one\n\nchunk two", stages.synthesizer.GotContext)
}

func TestOrchestrator_RetrievalFailureDegradesToEmptyContext(t *testing.T) {
	stages := newTestStages()
	stages.retriever = &MockRetriever{Err: errors.New("index unavailable")}

	result := stages.orchestrator().Run(context.Background(), "How many students are there?")

	assert.Empty(t, result.Error)
	assert.Equal(t, "There are 120 students.", result.Answer)
	require.NotNil(t, result.ContextDocs)
	assert.Empty(t, result.ContextDocs)
	assert.Empty(t, result.RAGContext)

	assert.Equal(t, 1, stages.generator.Calls)
	assert.True(t, stages.generator.GotWithContext)
	assert.Empty(t, stages.generator.GotContext)
}

func TestResult_JSONContextFields(t *testing.T) {
	decode := func(t *testing.T, result *Result) map[string]any {
		t.Helper()
		data, err := json.Marshal(result)
		require.NoError(t, err)
		var fields map[string]any
		require.NoError(t, json.Unmarshal(data, &fields))
		return fields
	}

	t.Run("plain variant omits context", func(t *testing.T) {
		stages := newTestStages()
		fields := decode(t, stages.orchestrator().Run(context.Background(), "How many students are there?"))

		assert.NotContains(t, fields, "context_docs")
		assert.NotContains(t, fields, "rag_context")
		assert.Equal(t, "There are 120 students.", fields["answer"])
	})

	t.Run("failed retrieval keeps empty context", func(t *testing.T) {
		stages := newTestStages()
		stages.retriever = &MockRetriever{Err: errors.New("index unavailable")}
		fields := decode(t, stages.orchestrator().Run(context.Background(), "How many students are there?"))

		require.Contains(t, fields, "context_docs")
		assert.Equal(t, []any{}, fields["context_docs"])
		assert.Equal(t, "", fields["rag_context"])
		assert.Equal(t, "There are 120 students.", fields["answer"])
	})

	t.Run("retrieved context is encoded once", func(t *testing.T) {
		stages := newTestStages()
		stages.retriever = &MockRetriever{Chunks: []string{"chunk one"}}
		result := stages.orchestrator().Run(context.Background(), "How many students are there?")

		data, err := json.Marshal(result)
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(string(data), `"context_docs"`))
		assert.Equal(t, []any{"chunk one"}, decode(t, result)["context_docs"])
	})
}

func TestOrchestrator_GenerationErrorSkipsExecution(t *testing.T) {
	stages := newTestStages()
	stages.generator.SQL = ""
	stages.generator.Err = errors.New("connection refused")

	result := stages.orchestrator().Run(context.Background(), "How many students are there?")

	assert.Equal(t, 0, stages.executor.Calls)
	assert.Equal(t, 0, stages.synthesizer.Calls)

	assert.Equal(t, "Failed to generate SQL query: connection refused", result.Error)
	assert.Equal(t, ErrorKindGeneration, result.ErrorKind)
	assert.Empty(t, result.SQLQuery)
	require.NotNil(t, result.Results)
	assert.Empty(t, result.Results)
	assert.True(t, strings.HasPrefix(result.Answer,
		"I encountered an error while processing your question: Failed to generate SQL query: connection refused"))
}

func TestOrchestrator_ExecutionErrorKeepsStatement(t *testing.T) {
	stages := newTestStages()
	stages.executor.Rows = nil
	stages.executor.Err = errors.New(`column "foo" does not exist`)

	result := stages.orchestrator().Run(context.Background(), "Show foo")

	assert.Equal(t, 0, stages.synthesizer.Calls)
	assert.Equal(t, stages.generator.SQL, result.SQLQuery)
	assert.Equal(t, `SQL execution error: column "foo" does not exist`, result.Error)
	assert.Equal(t, ErrorKindExecution, result.ErrorKind)
	assert.Empty(t, result.Results)
	assert.Contains(t, result.Answer, `SQL execution error: column "foo" does not exist`)
	assert.NotContains(t, result.Answer, "Based on the documentation")
}

func TestOrchestrator_ExecutionErrorHintsWithContext(t *testing.T) {
	stages := newTestStages()
	stages.retriever = &MockRetriever{Chunks: []string{"Use double quotes for column names."}}
	stages.executor.Err = errors.New(`column "studentid" does not exist`)

	result := stages.orchestrator().Run(context.Background(), "Show student ids")

	assert.Contains(t, result.Answer, "Based on the documentation, here are some suggestions:")
	assert.Contains(t, result.Answer, "- Check column names and use double quotes")
}

func TestOrchestrator_EmptySelectIsNotAnError(t *testing.T) {
	stages := newTestStages()
	stages.executor.Rows = []executor.Row{}
	stages.synthesizer.Answer = "No students match."

	result := stages.orchestrator().Run(context.Background(), "Who has a rating above 9000?")

	assert.Empty(t, result.Error)
	assert.Equal(t, 1, stages.synthesizer.Calls)
	require.NotNil(t, stages.synthesizer.GotRows)
	assert.Empty(t, stages.synthesizer.GotRows)
	assert.Equal(t, "No students match.", result.Answer)
}

func TestOrchestrator_AlwaysAnswers(t *testing.T) {
	tests := []struct {
		name     string
		genErr   error
		execErr  error
		retErr   error
		rag      bool
		wantKind string
	}{
		{name: "plain success"},
		{name: "rag success", rag: true},
		{name: "generation failure", genErr: errors.New("timeout"), wantKind: ErrorKindGeneration},
		{name: "execution failure", execErr: errors.New("syntax error"), wantKind: ErrorKindExecution},
		{name: "retrieval failure", rag: true, retErr: errors.New("down")},
		{
			name:     "retrieval and execution failure",
			rag:      true,
			retErr:   errors.New("down"),
			execErr:  errors.New(`invalid input value for enum "Platform"`),
			wantKind: ErrorKindExecution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stages := newTestStages()
			stages.generator.Err = tt.genErr
			stages.executor.Err = tt.execErr
			if tt.rag {
				stages.retriever = &MockRetriever{Chunks: []string{"doc"}, Err: tt.retErr}
			}

			result := stages.orchestrator().Run(context.Background(), "question")

			assert.NotEmpty(t, result.Answer)
			assert.Equal(t, tt.wantKind, result.ErrorKind)
			assert.Equal(t, tt.wantKind != "", result.Error != "")
			assert.NotNil(t, result.Results)
		})
	}
}

func TestOrchestrator_ConcurrentRunsAreIndependent(t *testing.T) {
	o := NewOrchestrator(OrchestratorConfig{
		Name:        "concurrent",
		Generator:   echoGenerator{},
		Executor:    echoExecutor{},
		Synthesizer: echoSynthesizer{},
	})

	var wg sync.WaitGroup
	results := make([]*Result, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = o.Run(context.Background(), strings.Repeat("q", i+1))
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		q := strings.Repeat("q", i+1)
		assert.Equal(t, q, r.Question)
		assert.Equal(t, "SELECT '"+q+"';", r.SQLQuery)
		assert.Equal(t, "answer for "+q, r.Answer)
	}
}

type echoGenerator struct{}

func (echoGenerator) Generate(_ context.Context, question, _ string, _ bool) (string, error) {
	return "SELECT '" + question + "';", nil
}

type echoExecutor struct{}

func (echoExecutor) Execute(_ context.Context, statement string) ([]executor.Row, error) {
	return []executor.Row{{"statement": statement}}, nil
}

type echoSynthesizer struct{}

func (echoSynthesizer) Synthesize(
	_ context.Context,
	question, _ string,
	_ []executor.Row,
	_ string,
	_ bool,
) string {
	return "answer for " + question
}

// ScriptedModel answers generation prompts with sql and answer prompts
// with text.
type ScriptedModel struct {
	mu      sync.Mutex
	SQL     string
	Answer  string
	Prompts []string
}

func (m *ScriptedModel) GenerateText(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if strings.Contains(prompt, "Original Question:") {
		return m.Answer, nil
	}
	return m.SQL, nil
}

func TestOrchestrator_DepartmentCounts(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	statement := `SELECT "department", COUNT(*) AS "count" FROM "StudentRecord" GROUP BY "department";`
	mock.ExpectQuery(regexp.QuoteMeta(statement)).
		WillReturnRows(sqlmock.NewRows([]string{"department", "count"}).
			AddRow("CSE", int64(42)).
			AddRow("ECE", int64(17)))
	mock.ExpectClose()

	model := &ScriptedModel{
		SQL:    "```sql\n" + statement + "\n```",
		Answer: "CSE has 42 students and ECE has 17.",
	}

	o := NewOrchestrator(OrchestratorConfig{
		Name:      "students",
		Generator: sqlgen.NewGenerator(sqlgen.GeneratorConfig{Model: model}),
		Executor: executor.New(executor.Config{
			Opener: func(context.Context) (*sql.DB, error) { return db, nil },
		}),
		Synthesizer: answer.New(answer.Config{Model: model}),
	})

	result := o.Run(context.Background(), "How many students are there in each department?")

	require.Empty(t, result.Error)
	assert.Equal(t, statement, result.SQLQuery)
	assert.Equal(t, []executor.Row{
		{"department": "CSE", "count": int64(42)},
		{"department": "ECE", "count": int64(17)},
	}, result.Results)
	assert.Equal(t, "CSE has 42 students and ECE has 17.", result.Answer)

	require.Len(t, model.Prompts, 2)
	assert.Contains(t, model.Prompts[0], "Question: How many students are there in each department?")
	assert.Contains(t, model.Prompts[1], `"department":"CSE"`)
	require.NoError(t, mock.ExpectationsWereMet())
}
