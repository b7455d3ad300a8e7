package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mindcask/docrag/internal/ai"
	"github.com/mindcask/docrag/internal/chunker"
	apperrors "github.com/mindcask/docrag/internal/pkg/errors"
	"github.com/mindcask/docrag/internal/vectorstore/memory"
)

func newIngestFixture(pages []string) (*IngestService, *fakeProvider, *memory.Storage) {
	provider := &fakeProvider{vector: []float32{1, 0, 0}}
	store := memory.NewStorage(3)
	svc := NewIngestService(
		&fakeExtractor{pages: pages},
		chunker.New(30),
		ai.NewEmbedder(provider, "embed-model", 3),
		store,
	)
	return svc, provider, store
}

func TestIngestFileStoresAllChunks(t *testing.T) {
	svc, provider, store := newIngestFixture([]string{
		"alpha beta gamma delta epsilon zeta eta theta",
		"iota kappa lambda mu nu xi omicron pi rho sigma",
	})
	ctx := context.Background()

	count, err := svc.IngestFile(ctx, "ignored.pdf", "doc1")
	require.NoError(t, err)
	require.Greater(t, count, 1)
	require.Equal(t, 1, provider.embedCalls, "embedding must be one batch call")

	stored, err := store.Count(ctx, "doc1")
	require.NoError(t, err)
	require.Equal(t, count, stored)
}

func TestIngestFileIsIdempotent(t *testing.T) {
	svc, _, store := newIngestFixture([]string{
		"alpha beta gamma delta epsilon zeta eta theta iota kappa",
	})
	ctx := context.Background()

	first, err := svc.IngestFile(ctx, "f.pdf", "doc1")
	require.NoError(t, err)
	second, err := svc.IngestFile(ctx, "f.pdf", "doc1")
	require.NoError(t, err)
	require.Equal(t, first, second)

	stored, err := store.Count(ctx, "doc1")
	require.NoError(t, err)
	require.Equal(t, first, stored, "re-ingest must overwrite, not duplicate")
}

func TestIngestFileRequiresSourceID(t *testing.T) {
	svc, provider, _ := newIngestFixture([]string{"some text"})
	_, err := svc.IngestFile(context.Background(), "f.pdf", "  ")
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	require.Zero(t, provider.embedCalls)
}

func TestIngestFileEmptyDocument(t *testing.T) {
	svc, provider, store := newIngestFixture([]string{"", "   \n"})
	ctx := context.Background()

	count, err := svc.IngestFile(ctx, "f.pdf", "doc1")
	require.NoError(t, err)
	require.Zero(t, count)
	require.Zero(t, provider.embedCalls)

	stored, err := store.Count(ctx, "doc1")
	require.NoError(t, err)
	require.Zero(t, stored)
}

func TestIngestFileWrapsExtractFailure(t *testing.T) {
	provider := &fakeProvider{vector: []float32{1, 0, 0}}
	cause := errors.New("corrupt pdf")
	svc := NewIngestService(
		&fakeExtractor{err: cause},
		chunker.New(30),
		ai.NewEmbedder(provider, "embed-model", 3),
		memory.NewStorage(3),
	)
	_, err := svc.IngestFile(context.Background(), "f.pdf", "doc1")
	require.ErrorIs(t, err, apperrors.ErrIngestionFailed)
	require.ErrorIs(t, err, cause)
	require.ErrorContains(t, err, "doc1")
}

func TestIngestFileWrapsEmbedFailure(t *testing.T) {
	provider := &fakeProvider{vector: []float32{1, 0, 0}, embedErr: errors.New("provider down")}
	svc := NewIngestService(
		&fakeExtractor{pages: []string{"some words to chunk"}},
		chunker.New(30),
		ai.NewEmbedder(provider, "embed-model", 3),
		memory.NewStorage(3),
	)
	_, err := svc.IngestFile(context.Background(), "f.pdf", "doc1")
	require.ErrorIs(t, err, apperrors.ErrIngestionFailed)
	require.ErrorIs(t, err, apperrors.ErrProvider)
}

func TestIngestFileChunkTextSurvivesRoundTrip(t *testing.T) {
	page := "one two three four five six seven eight nine ten"
	svc, _, store := newIngestFixture([]string{page})
	ctx := context.Background()

	_, err := svc.IngestFile(ctx, "f.pdf", "doc1")
	require.NoError(t, err)

	result, err := store.Search(ctx, []float32{1, 0, 0}, 100)
	require.NoError(t, err)
	var words []string
	for _, text := range result.Contexts {
		words = append(words, strings.Fields(text)...)
	}
	require.ElementsMatch(t, strings.Fields(page), words)
	require.Equal(t, []string{"doc1"}, result.Sources)
}
