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
	"sync"
)

// MemoryStore keeps chunks in process memory. Contents are lost on exit.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks []Chunk
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Count implements Store.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Insert implements Store.
func (s *MemoryStore) Insert(ctx context.Context, chunks []Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	added := make([]Chunk, len(chunks))
	for i, c := range chunks {
		c.Metadata = copyMetadata(c.Metadata)
		c.Embedding = append([]float32(nil), c.Embedding...)
		added[i] = c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, added...)
	return nil
}

// Search implements Store.
func (s *MemoryStore) Search(ctx context.Context, embedding []float32, k int) ([]ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return rankBySimilarity(s.chunks, embedding, k), nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context) ([]Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Chunk(nil), s.chunks...), nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
