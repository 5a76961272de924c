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
	"sort"
	"strings"
	"sync"

	"github.com/pgEdge/pgedge-nl2sql-server/internal/answer"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/config"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/executor"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/knowledge"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/llm"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/llm/factory"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/observability"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/sqlgen"
)

// Manager manages the lifecycle of NL2SQL pipelines and the knowledge store
// they share.
type Manager struct {
	mu        sync.RWMutex
	pipelines map[string]*Pipeline
	knowledge *knowledge.KnowledgeBase
	config    *config.Config
	logger    *slog.Logger
}

// Pipeline represents a configured pipeline with all providers initialized.
type Pipeline struct {
	name         string
	description  string
	config       config.Pipeline
	orchestrator *Orchestrator
	logger       *slog.Logger
}

// ManagerConfig contains configuration for creating a Manager.
type ManagerConfig struct {
	Config *config.Config
	Logger *slog.Logger
}

// NewManager creates a new pipeline manager from configuration.
func NewManager(cfg *config.Config) (*Manager, error) {
	return NewManagerWithLogger(ManagerConfig{
		Config: cfg,
		Logger: slog.Default(),
	})
}

// NewManagerWithLogger creates a new pipeline manager with a custom logger.
func NewManagerWithLogger(cfg ManagerConfig) (*Manager, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		pipelines: make(map[string]*Pipeline),
		config:    cfg.Config,
		logger:    logger,
	}

	ctx := context.Background()

	if cfg.Config.RetrievalEnabled() {
		kb, err := m.openKnowledge(ctx)
		if err != nil {
			return nil, err
		}
		m.knowledge = kb
	}

	for _, pCfg := range cfg.Config.Pipelines {
		p, err := m.createPipeline(pCfg)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("failed to create pipeline %s: %w", pCfg.Name, err)
		}
		m.pipelines[pCfg.Name] = p
		logger.Info("pipeline created",
			"name", pCfg.Name,
			"generation_provider", pCfg.GenerationLLM.Provider,
			"generation_model", pCfg.GenerationLLM.Model,
			"retrieval", pCfg.Retrieval,
		)
	}

	return m, nil
}

// openKnowledge opens and seeds the shared knowledge store. A seeding
// failure leaves an empty but usable store.
func (m *Manager) openKnowledge(ctx context.Context) (*knowledge.KnowledgeBase, error) {
	kCfg := m.config.Knowledge

	keys, err := config.NewAPIKeyLoader(m.config.KnowledgeAPIKeys()).
		LoadKeysForProviders(kCfg.EmbeddingLLM.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to load API keys: %w", err)
	}

	embedder, err := factory.NewEmbeddingProvider(kCfg.EmbeddingLLM, kCfg.Dimensions, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}

	store, err := knowledge.OpenStore(ctx, kCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge store: %w", err)
	}

	kb := knowledge.New(knowledge.Config{
		Store:        store,
		Embedder:     embedder,
		ChunkSize:    kCfg.ChunkSize,
		ChunkOverlap: kCfg.ChunkOverlap,
		Hybrid:       kCfg.Hybrid,
		Logger:       m.logger.With("component", "knowledge"),
	})

	seeded, err := kb.Initialize(ctx)
	if err != nil {
		m.logger.Warn("failed to seed knowledge store",
			"backend", kCfg.Backend,
			"error", err,
		)
	}
	m.logger.Info("knowledge store ready",
		"backend", kCfg.Backend,
		"collection", kCfg.Collection,
		"seeded_chunks", seeded,
		"hybrid", kCfg.Hybrid,
	)

	return kb, nil
}

// recordUsage exports a model call's token counts.
func recordUsage(model string, usage llm.TokenUsage) {
	observability.AddModelTokens(model, usage.PromptTokens, usage.CompletionTokens)
}

// createPipeline creates a single pipeline with all providers initialized.
func (m *Manager) createPipeline(pCfg config.Pipeline) (*Pipeline, error) {
	pipelineLogger := m.logger.With("pipeline", pCfg.Name)

	keys, err := config.NewAPIKeyLoader(pCfg.APIKeys).LoadKeysForPipeline(pCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load API keys: %w", err)
	}

	completionProv, err := factory.NewCompletionProvider(pCfg.GenerationLLM, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion provider: %w", err)
	}

	retries := m.config.Defaults.ModelRetries
	if pCfg.ModelRetries != nil {
		retries = *pCfg.ModelRetries
	}
	model := newResilientGenerator(
		llm.NewCompletionGenerator(completionProv, llm.WithUsageObserver(recordUsage)),
		pCfg.ModelTimeout,
		retries,
		pipelineLogger,
	)

	var retriever Retriever
	if pCfg.Retrieval {
		if m.knowledge == nil {
			return nil, fmt.Errorf("retrieval enabled but no knowledge store is open")
		}
		retriever = m.knowledge
	}

	orchestrator := NewOrchestrator(OrchestratorConfig{
		Name:      pCfg.Name,
		Retriever: retriever,
		Generator: sqlgen.NewGenerator(sqlgen.GeneratorConfig{
			Model:  model,
			Logger: pipelineLogger,
		}),
		Executor: executor.New(executor.Config{
			Database:         pCfg.Database,
			StatementTimeout: pCfg.StatementTimeout,
			Logger:           pipelineLogger,
		}),
		Synthesizer: answer.New(answer.Config{
			Model:          model,
			MaxResultChars: pCfg.MaxResultChars,
			Logger:         pipelineLogger,
		}),
		TopK:   pCfg.TopK,
		Logger: pipelineLogger,
	})

	return &Pipeline{
		name:         pCfg.Name,
		description:  pCfg.Description,
		config:       pCfg,
		orchestrator: orchestrator,
		logger:       pipelineLogger,
	}, nil
}

// List returns information about all available pipelines, sorted by name.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, len(m.pipelines))
	for _, p := range m.pipelines {
		infos = append(infos, p.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})

	return infos
}

// Get retrieves a pipeline by name.
func (m *Manager) Get(name string) (*Pipeline, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.pipelines[name]
	if !ok {
		return nil, ErrPipelineNotFound
	}

	return p, nil
}

// Run answers question on the named pipeline. Stage failures are reported
// inside the result; only an unknown pipeline or a blank question returns
// an error.
func (m *Manager) Run(ctx context.Context, name, question string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	p, err := m.Get(name)
	if err != nil {
		return nil, err
	}

	return p.Run(ctx, question), nil
}

// AddKnowledge adds content to the shared knowledge store and returns the
// status message.
func (m *Manager) AddKnowledge(
	ctx context.Context,
	content string,
	metadata map[string]string,
) (string, error) {
	m.mu.RLock()
	kb := m.knowledge
	m.mu.RUnlock()

	if kb == nil {
		return "", ErrKnowledgeDisabled
	}

	return kb.AddKnowledge(ctx, content, metadata), nil
}

// Run executes the pipeline for question.
func (p *Pipeline) Run(ctx context.Context, question string) *Result {
	return p.orchestrator.Run(ctx, question)
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string {
	return p.name
}

// Description returns the pipeline description.
func (p *Pipeline) Description() string {
	return p.description
}

// Info returns the listing information for the pipeline.
func (p *Pipeline) Info() Info {
	return Info{
		Name:        p.name,
		Description: p.description,
		Retrieval:   p.orchestrator.Retrieval(),
	}
}

// Close shuts down the manager and releases resources.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pipelines = nil

	if m.knowledge != nil {
		err := m.knowledge.Close()
		m.knowledge = nil
		return err
	}

	return nil
}
