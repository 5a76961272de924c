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
	"fmt"

	"github.com/pgEdge/pgedge-nl2sql-server/internal/config"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/database"
)

// OpenStore opens the store selected by cfg.Backend.
func OpenStore(ctx context.Context, cfg config.KnowledgeConfig) (Store, error) {
	switch cfg.Backend {
	case config.KnowledgeBackendMemory:
		return NewMemoryStore(), nil

	case config.KnowledgeBackendSQLite:
		return NewSQLiteStore(ctx, cfg.Path, cfg.Collection)

	case config.KnowledgeBackendPGVector:
		pool, err := database.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to knowledge database: %w", err)
		}
		store := NewPGVectorStore(pool.DB(), cfg.Collection, cfg.Dimensions)
		store.onClose = pool.Close
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown knowledge backend: %s", cfg.Backend)
	}
}
