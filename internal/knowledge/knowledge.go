//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/pgEdge/pgedge-nl2sql-server/internal/bm25"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/llm"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/observability"
)

// DefaultTopK is the number of chunks retrieved when no k is given.
const DefaultTopK = 3

// ContextSeparator joins retrieved chunks into a context blob.
const ContextSeparator = "\n\n"

// Question embeddings are cached for repeated questions.
const (
	defaultCacheTTL     = 10 * time.Minute
	cacheCleanupPeriod  = 20 * time.Minute
	hybridCandidateMult = 4
	hybridMinCandidates = 10
)

// ErrNoContent is returned when a document splits into no chunks.
var ErrNoContent = errors.New("no content to add")

// Retrieval is the result of a context lookup.
type Retrieval struct {
	Chunks  []string
	Context string
}

// Config contains the configuration for creating a KnowledgeBase.
type Config struct {
	Store        Store
	Embedder     llm.EmbeddingProvider
	ChunkSize    int
	ChunkOverlap int
	Hybrid       bool          // Fuse BM25 keyword ranking with vector similarity
	CacheTTL     time.Duration // Question embedding cache lifetime
	Logger       *slog.Logger
}

// KnowledgeBase splits, embeds, stores and retrieves knowledge chunks. It
// is safe for concurrent use; a retrieval never observes a partially
// applied insert.
type KnowledgeBase struct {
	mu       sync.RWMutex
	initMu   sync.Mutex
	store    Store
	embedder llm.EmbeddingProvider
	splitter *Splitter
	index    *bm25.Index       // nil unless hybrid
	contents map[string]string // chunk ID -> content, hybrid only
	cache    *cache.Cache
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a KnowledgeBase over cfg.Store.
func New(cfg Config) *KnowledgeBase {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	kb := &KnowledgeBase{
		store:    cfg.Store,
		embedder: cfg.Embedder,
		splitter: NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		cache:    cache.New(ttl, cacheCleanupPeriod),
		logger:   logger,
		now:      time.Now,
	}
	if cfg.Hybrid {
		kb.index = bm25.NewIndex()
		kb.contents = make(map[string]string)
	}
	return kb
}

// Initialize seeds an empty collection with the built-in documentation and
// returns the number of chunks added. A non-empty collection is left
// untouched.
func (kb *KnowledgeBase) Initialize(ctx context.Context) (int, error) {
	kb.initMu.Lock()
	defer kb.initMu.Unlock()

	count, err := kb.store.Count(ctx)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		kb.logger.Info("knowledge base already populated", "chunks", count)
		if kb.index != nil {
			if err := kb.loadIndex(ctx); err != nil {
				return 0, err
			}
		}
		return 0, nil
	}

	added, err := kb.addDocuments(ctx, SeedDocuments())
	if err != nil {
		return 0, fmt.Errorf("failed to seed knowledge base: %w", err)
	}
	kb.logger.Info("knowledge base seeded", "chunks", added)
	return added, nil
}

func (kb *KnowledgeBase) loadIndex(ctx context.Context) error {
	chunks, err := kb.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load keyword index: %w", err)
	}

	kb.mu.Lock()
	defer kb.mu.Unlock()

	kb.index.Reset()
	kb.contents = make(map[string]string, len(chunks))
	for _, c := range chunks {
		kb.index.Add(c.ID, c.Content)
		kb.contents[c.ID] = c.Content
	}
	return nil
}

// Add splits and embeds doc and stores the resulting chunks, returning how
// many were added.
func (kb *KnowledgeBase) Add(ctx context.Context, doc Document) (int, error) {
	return kb.addDocuments(ctx, []Document{doc})
}

// AddKnowledge adds content and reports the outcome as a status message.
// Without metadata the chunks are marked as user-added custom knowledge.
// A timestamp is recorded unless one is supplied.
func (kb *KnowledgeBase) AddKnowledge(ctx context.Context, content string, metadata map[string]string) string {
	md := copyMetadata(metadata)
	if len(md) == 0 {
		md = map[string]string{
			MetadataSource: SourceUserAdded,
			MetadataType:   TypeCustom,
		}
	}
	if md[MetadataTimestamp] == "" {
		md[MetadataTimestamp] = kb.now().UTC().Format(time.RFC3339)
	}

	n, err := kb.Add(ctx, Document{Content: content, Metadata: md})
	if err != nil {
		kb.logger.Warn("failed to add knowledge", "error", err)
		return fmt.Sprintf("Failed to add knowledge: %v", err)
	}
	return fmt.Sprintf("Added %d knowledge chunks to RAG system", n)
}

func (kb *KnowledgeBase) addDocuments(ctx context.Context, docs []Document) (int, error) {
	var chunks []Chunk
	var texts []string
	for _, doc := range docs {
		parts, err := kb.splitter.Split(doc.Content)
		if err != nil {
			return 0, err
		}
		for _, p := range parts {
			chunks = append(chunks, Chunk{
				ID:       uuid.NewString(),
				Content:  p,
				Metadata: copyMetadata(doc.Metadata),
			})
			texts = append(texts, p)
		}
	}
	if len(chunks) == 0 {
		return 0, ErrNoContent
	}

	// Embedding happens outside the lock so retrievals are not blocked on
	// the model.
	embeddings, err := kb.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("expected %d embeddings, got %d", len(chunks), len(embeddings))
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	kb.mu.Lock()
	defer kb.mu.Unlock()

	if err := kb.store.Insert(ctx, chunks); err != nil {
		return 0, err
	}
	if kb.index != nil {
		for _, c := range chunks {
			kb.index.Add(c.ID, c.Content)
			kb.contents[c.ID] = c.Content
		}
	}

	observability.AddKnowledgeChunks(len(chunks))
	return len(chunks), nil
}

// Retrieve returns the k chunks most relevant to question, most similar
// first, and their contents joined by a blank line. k <= 0 uses
// DefaultTopK.
func (kb *KnowledgeBase) Retrieve(ctx context.Context, question string, k int) (*Retrieval, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	embedding, err := kb.embedQuestion(ctx, question)
	if err != nil {
		return nil, err
	}

	kb.mu.RLock()
	defer kb.mu.RUnlock()

	var chunks []string
	if kb.index == nil {
		results, err := kb.store.Search(ctx, embedding, k)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			chunks = append(chunks, r.Content)
		}
	} else {
		chunks, err = kb.hybridSearchLocked(ctx, question, embedding, k)
		if err != nil {
			return nil, err
		}
	}

	return &Retrieval{
		Chunks:  chunks,
		Context: strings.Join(chunks, ContextSeparator),
	}, nil
}

func (kb *KnowledgeBase) hybridSearchLocked(
	ctx context.Context,
	question string,
	embedding []float32,
	k int,
) ([]string, error) {
	candidates := max(k*hybridCandidateMult, hybridMinCandidates)

	vecResults, err := kb.store.Search(ctx, embedding, candidates)
	if err != nil {
		return nil, err
	}
	vecIDs := make([]string, len(vecResults))
	vecContents := make(map[string]string, len(vecResults))
	for i, r := range vecResults {
		vecIDs[i] = r.ID
		vecContents[r.ID] = r.Content
	}

	keywordResults := kb.index.Search(question, candidates)
	keywordIDs := make([]string, len(keywordResults))
	for i, r := range keywordResults {
		keywordIDs[i] = r.ID
	}

	fused := reciprocalRankFusion(vecIDs, keywordIDs, DefaultRRFConstant)

	chunks := make([]string, 0, min(k, len(fused)))
	for _, r := range fused {
		if len(chunks) == k {
			break
		}
		content, ok := vecContents[r.ID]
		if !ok {
			content, ok = kb.contents[r.ID]
		}
		if ok {
			chunks = append(chunks, content)
		}
	}
	return chunks, nil
}

func (kb *KnowledgeBase) embedQuestion(ctx context.Context, question string) ([]float32, error) {
	key := kb.embedder.ModelName() + "\x00" + question
	if cached, ok := kb.cache.Get(key); ok {
		return cached.([]float32), nil
	}

	embedding, err := kb.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	kb.cache.Set(key, embedding, cache.DefaultExpiration)
	return embedding, nil
}

// Count returns the number of stored chunks.
func (kb *KnowledgeBase) Count(ctx context.Context) (int, error) {
	return kb.store.Count(ctx)
}

// Close releases the underlying store.
func (kb *KnowledgeBase) Close() error {
	return kb.store.Close()
}
