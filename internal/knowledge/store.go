//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package knowledge implements the knowledge store that supplies grounding
// context to retrieval-augmented pipelines.
package knowledge

import (
	"context"
	"math"
	"sort"
)

// Chunk is an immutable piece of knowledge with its embedding.
type Chunk struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]string
}

// ScoredChunk is a chunk with its similarity to a query.
type ScoredChunk struct {
	Chunk
	Score float64
}

// Store persists chunks for a single collection.
//
// Search returns at most k chunks by descending similarity; equal scores
// keep insertion order. Insert is atomic: concurrent readers observe either
// none or all of the inserted chunks.
type Store interface {
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, chunks []Chunk) error
	Search(ctx context.Context, embedding []float32, k int) ([]ScoredChunk, error)

	// List returns all chunks in insertion order. Embeddings may be
	// omitted.
	List(ctx context.Context) ([]Chunk, error)

	Close() error
}

// rankBySimilarity scores chunks, which must be in insertion order, against
// query and returns the top k.
func rankBySimilarity(chunks []Chunk, query []float32, k int) []ScoredChunk {
	if k <= 0 || len(chunks) == 0 {
		return nil
	}

	scored := make([]ScoredChunk, len(chunks))
	for i, c := range chunks {
		scored[i] = ScoredChunk{Chunk: c, Score: cosineSimilarity(c.Embedding, query)}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// cosineSimilarity returns 0 when either vector is empty, has zero length,
// or the dimensions differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func copyMetadata(md map[string]string) map[string]string {
	if md == nil {
		return nil
	}
	out := make(map[string]string, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}
