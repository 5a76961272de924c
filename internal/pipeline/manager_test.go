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
	"strings"
	"testing"

	"github.com/pgEdge/pgedge-nl2sql-server/internal/config"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/knowledge"
)

// MockEmbeddingProvider implements llm.EmbeddingProvider for testing.
type MockEmbeddingProvider struct {
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)
}

func (m *MockEmbeddingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *MockEmbeddingProvider) EmbedBatch(
	ctx context.Context,
	texts []string,
) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		results[i] = v
	}
	return results, nil
}

func (m *MockEmbeddingProvider) Dimensions() int {
	return 3
}

func (m *MockEmbeddingProvider) ModelName() string {
	return "mock-embedding-model"
}

// newTestManager creates a Manager with mock stages for testing. This
// bypasses database and LLM provider initialization.
func newTestManager(cfg *config.Config, kb *knowledge.KnowledgeBase) *Manager {
	m := &Manager{
		pipelines: make(map[string]*Pipeline),
		knowledge: kb,
		config:    cfg,
	}

	for _, pCfg := range cfg.Pipelines {
		m.pipelines[pCfg.Name] = newTestPipeline(pCfg, kb)
	}

	return m
}

func newTestPipeline(pCfg config.Pipeline, kb *knowledge.KnowledgeBase) *Pipeline {
	stages := newTestStages()
	ocfg := OrchestratorConfig{
		Name:        pCfg.Name,
		Generator:   stages.generator,
		Executor:    stages.executor,
		Synthesizer: stages.synthesizer,
		TopK:        pCfg.TopK,
	}
	if pCfg.Retrieval && kb != nil {
		ocfg.Retriever = kb
	}

	return &Pipeline{
		name:         pCfg.Name,
		description:  pCfg.Description,
		config:       pCfg,
		orchestrator: NewOrchestrator(ocfg),
	}
}

func newTestKnowledge(t *testing.T) *knowledge.KnowledgeBase {
	t.Helper()

	kb := knowledge.New(knowledge.Config{
		Store:    knowledge.NewMemoryStore(),
		Embedder: &MockEmbeddingProvider{},
	})
	t.Cleanup(func() { _ = kb.Close() })
	return kb
}

func testConfig() *config.Config {
	return &config.Config{
		Pipelines: []config.Pipeline{
			{Name: "students", Description: "Plain text to SQL"},
			{Name: "students-rag", Description: "Documentation assisted", Retrieval: true, TopK: 2},
		},
	}
}

func TestManager_List(t *testing.T) {
	m := newTestManager(testConfig(), newTestKnowledge(t))

	infos := m.List()
	if len(infos) != 2 {
		t.Fatalf("expected 2 pipelines, got %d", len(infos))
	}

	if infos[0].Name != "students" || infos[0].Retrieval {
		t.Errorf("unexpected first pipeline: %+v", infos[0])
	}
	if infos[1].Name != "students-rag" || !infos[1].Retrieval {
		t.Errorf("unexpected second pipeline: %+v", infos[1])
	}
	if infos[1].Description != "Documentation assisted" {
		t.Errorf("unexpected description %q", infos[1].Description)
	}
}

func TestManager_Get(t *testing.T) {
	m := newTestManager(testConfig(), nil)

	p, err := m.Get("students")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "students" {
		t.Errorf("expected name 'students', got %q", p.Name())
	}
	if p.Description() != "Plain text to SQL" {
		t.Errorf("unexpected description %q", p.Description())
	}

	_, err = m.Get("nonexistent")
	if !errors.Is(err, ErrPipelineNotFound) {
		t.Errorf("expected ErrPipelineNotFound, got %v", err)
	}
}

func TestManager_Run(t *testing.T) {
	m := newTestManager(testConfig(), newTestKnowledge(t))

	result, err := m.Run(context.Background(), "students", "  How many students are there?  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Question != "How many students are there?" {
		t.Errorf("expected trimmed question, got %q", result.Question)
	}
	if result.Answer != "There are 120 students." {
		t.Errorf("unexpected answer %q", result.Answer)
	}
}

func TestManager_RunErrors(t *testing.T) {
	m := newTestManager(testConfig(), nil)

	if _, err := m.Run(context.Background(), "students", "   "); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("expected ErrEmptyQuestion, got %v", err)
	}
	if _, err := m.Run(context.Background(), "missing", "q"); !errors.Is(err, ErrPipelineNotFound) {
		t.Errorf("expected ErrPipelineNotFound, got %v", err)
	}
}

func TestManager_AddKnowledgeThenRetrieve(t *testing.T) {
	kb := newTestKnowledge(t)
	m := newTestManager(testConfig(), kb)

	status, err := m.AddKnowledge(context.Background(),
		"Use ILIKE for case-insensitive department matching.", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != "Added 1 knowledge chunks to RAG system" {
		t.Errorf("unexpected status %q", status)
	}

	result, err := m.Run(context.Background(), "students-rag", "Students in cse?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.RAGContext, "ILIKE") {
		t.Errorf("expected added knowledge in context, got %q", result.RAGContext)
	}
	if len(result.ContextDocs) != 1 {
		t.Errorf("expected 1 context doc, got %d", len(result.ContextDocs))
	}
}

func TestManager_AddKnowledgeDisabled(t *testing.T) {
	m := newTestManager(&config.Config{
		Pipelines: []config.Pipeline{{Name: "students"}},
	}, nil)

	if _, err := m.AddKnowledge(context.Background(), "doc", nil); !errors.Is(err, ErrKnowledgeDisabled) {
		t.Errorf("expected ErrKnowledgeDisabled, got %v", err)
	}
}

func TestManager_Close(t *testing.T) {
	m := newTestManager(testConfig(), newTestKnowledge(t))

	if err := m.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(m.List()) != 0 {
		t.Error("expected no pipelines after close")
	}
	if _, err := m.AddKnowledge(context.Background(), "doc", nil); !errors.Is(err, ErrKnowledgeDisabled) {
		t.Errorf("expected ErrKnowledgeDisabled after close, got %v", err)
	}
}

func TestNewManager_InvalidProvider(t *testing.T) {
	cfg := &config.Config{
		Pipelines: []config.Pipeline{
			{
				Name:          "students",
				GenerationLLM: config.LLMConfig{Provider: "unknown", Model: "m"},
			},
		},
	}

	_, err := NewManager(cfg)
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "students") {
		t.Errorf("expected pipeline name in error, got %v", err)
	}
}
