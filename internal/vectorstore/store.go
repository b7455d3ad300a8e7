package vectorstore

import (
	"context"
	"fmt"

	"github.com/mindcask/docrag/internal/config"
	"github.com/mindcask/docrag/internal/model"
	"github.com/mindcask/docrag/internal/vectorstore/memory"
	"github.com/mindcask/docrag/internal/vectorstore/pgvector"
	"github.com/mindcask/docrag/internal/vectorstore/qdrant"
)

// Store is a named collection of points with a fixed dimension and cosine
// metric. Upsert and Search materialize the collection on first use; the
// ready state is memoized and safe for concurrent first use.
type Store interface {
	// Upsert writes each point, fully replacing any existing point with the
	// same ID.
	Upsert(ctx context.Context, points []model.Point) error
	// Search returns up to topK contexts ordered by descending cosine
	// similarity, plus the distinct contributing sources. An empty collection
	// yields an empty result, not an error.
	Search(ctx context.Context, vector []float32, topK int) (model.SearchResult, error)
	// Count reports the number of stored points for one source.
	Count(ctx context.Context, sourceID string) (int, error)
}

// New builds the configured backend. Construction fails fast on missing
// connection settings; reaching the backend is deferred to first use.
func New(cfg config.VectorStoreConfig) (Store, error) {
	switch cfg.Type {
	case "qdrant":
		return qdrant.NewStorage(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Collection,
			Dimension:  cfg.Dimension,
			TimeoutSec: cfg.Qdrant.TimeoutSec,
		})
	case "pgvector":
		return pgvector.NewStorage(pgvector.Config{
			DSN:       cfg.Postgres.DSN,
			Table:     cfg.Collection,
			Dimension: cfg.Dimension,
		})
	case "memory":
		return memory.NewStorage(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported vector store type: %s", cfg.Type)
	}
}
