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
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// PGVectorTable holds chunks for every collection.
const PGVectorTable = "nl2sql_knowledge"

// PGVectorStore persists chunks in PostgreSQL and ranks them with the
// pgvector cosine distance operator.
type PGVectorStore struct {
	db         *sql.DB
	collection string
	dimensions int
	onClose    func()
}

var _ Store = (*PGVectorStore)(nil)

// NewPGVectorStore wraps db. Call Migrate before first use.
func NewPGVectorStore(db *sql.DB, collection string, dimensions int) *PGVectorStore {
	return &PGVectorStore{
		db:         db,
		collection: collection,
		dimensions: dimensions,
	}
}

// Migrate creates the vector extension and chunk table if they are missing.
func (s *PGVectorStore) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			collection TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, PGVectorTable, s.dimensions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_collection_idx ON %s (collection, seq)`,
			PGVectorTable, PGVectorTable),
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to migrate knowledge table: %w", err)
		}
	}
	return nil
}

// Count implements Store.
func (s *PGVectorStore) Count(ctx context.Context) (int, error) {
	var n int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE collection = $1`, PGVectorTable)
	if err := s.db.QueryRowContext(ctx, query, s.collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

// Insert implements Store.
func (s *PGVectorStore) Insert(ctx context.Context, chunks []Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`INSERT INTO %s (id, collection, content, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5)`, PGVectorTable)

	for _, c := range chunks {
		metadataJSON, err := marshalMetadata(c.Metadata)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, query,
			c.ID, s.collection, c.Content, pgvector.NewVector(c.Embedding), metadataJSON)
		if err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// Search implements Store. Cosine similarity is reported as 1 - distance.
func (s *PGVectorStore) Search(ctx context.Context, embedding []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT id, content, metadata, 1 - (embedding <=> $2) AS score
		FROM %s
		WHERE collection = $1
		ORDER BY embedding <=> $2, seq
		LIMIT $3`, PGVectorTable)

	rows, err := s.db.QueryContext(ctx, query, s.collection, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []ScoredChunk
	for rows.Next() {
		var r ScoredChunk
		var metadataJSON []byte
		if err := rows.Scan(&r.ID, &r.Content, &metadataJSON, &r.Score); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if r.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata for chunk %s: %w", r.ID, err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return results, nil
}

// List implements Store. Embeddings are not loaded.
func (s *PGVectorStore) List(ctx context.Context) ([]Chunk, error) {
	query := fmt.Sprintf(`SELECT id, content, metadata FROM %s
		WHERE collection = $1 ORDER BY seq`, PGVectorTable)

	rows, err := s.db.QueryContext(ctx, query, s.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var metadataJSON []byte
		if err := rows.Scan(&c.ID, &c.Content, &metadataJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if c.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata for chunk %s: %w", c.ID, err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return chunks, nil
}

// Close implements Store. It also releases the pool the handle came from,
// when one was attached by OpenStore.
func (s *PGVectorStore) Close() error {
	err := s.db.Close()
	if s.onClose != nil {
		s.onClose()
	}
	return err
}
