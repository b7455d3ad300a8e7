package ai

import (
	"context"
	"fmt"

	apperrors "github.com/mindcask/docrag/internal/pkg/errors"
)

// Embedder binds a provider to an embedding model and enforces the configured
// vector dimension at the boundary. Dimension drift from the provider is
// rejected here, never stored.
type Embedder struct {
	provider  IProvider
	model     string
	dimension int
}

func NewEmbedder(p IProvider, model string, dimension int) *Embedder {
	return &Embedder{provider: p, model: model, dimension: dimension}
}

func (e *Embedder) ModelName() string {
	return e.model
}

func (e *Embedder) Dimension() int {
	return e.dimension
}

// EmbedBatch maps texts to vectors, one per input in input order. Any
// provider failure or dimension mismatch is reported as a provider error;
// retry policy is left to the caller.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := e.provider.Embed(ctx, e.model, texts, taskType)
	if err != nil {
		return nil, fmt.Errorf("%w: embed with %s/%s: %w", apperrors.ErrProvider, e.provider.Name(), e.model, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d vectors, got %d", apperrors.ErrProvider, len(texts), len(vectors))
	}
	for i, vec := range vectors {
		if len(vec) != e.dimension {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", apperrors.ErrProvider, i, len(vec), e.dimension)
		}
	}
	return vectors, nil
}
