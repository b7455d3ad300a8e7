package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mindcask/docrag/internal/ai"
	"github.com/mindcask/docrag/internal/chunker"
	"github.com/mindcask/docrag/internal/extract"
	"github.com/mindcask/docrag/internal/model"
	apperrors "github.com/mindcask/docrag/internal/pkg/errors"
	"github.com/mindcask/docrag/internal/vectorstore"
)

// IngestService runs the ingestion pipeline: extract page texts, chunk,
// embed in one batch, derive stable chunk IDs and upsert. Re-ingesting the
// same source overwrites its points instead of duplicating them.
type IngestService struct {
	extractor extract.Extractor
	chunker   *chunker.Chunker
	embedder  *ai.Embedder
	store     vectorstore.Store
}

func NewIngestService(extractor extract.Extractor, ck *chunker.Chunker, embedder *ai.Embedder, store vectorstore.Store) *IngestService {
	return &IngestService{
		extractor: extractor,
		chunker:   ck,
		embedder:  embedder,
		store:     store,
	}
}

// IngestFile processes the document at path under sourceID and returns the
// number of chunks ingested. Removal of the file is the caller's concern.
func (s *IngestService) IngestFile(ctx context.Context, path, sourceID string) (int, error) {
	if strings.TrimSpace(sourceID) == "" {
		return 0, fmt.Errorf("%w: source_id is required", apperrors.ErrInvalidRequest)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("source_id", sourceID))
	start := time.Now()

	pages, err := s.extractor.Extract(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("%w: source %s: %w", apperrors.ErrIngestionFailed, sourceID, err)
	}
	chunks := s.chunker.SplitPages(sourceID, pages)
	if len(chunks) == 0 {
		logger.Info("document produced no chunks", zap.Int("pages", len(pages)))
		return 0, nil
	}

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts, ai.TaskRetrievalDocument)
	if err != nil {
		return 0, fmt.Errorf("%w: source %s: %w", apperrors.ErrIngestionFailed, sourceID, err)
	}

	points := make([]model.Point, 0, len(chunks))
	for i, c := range chunks {
		points = append(points, model.Point{
			ID:     model.ChunkID(sourceID, c.Index),
			Vector: vectors[i],
			Payload: model.Payload{
				Source: sourceID,
				Text:   c.Text,
			},
		})
	}
	if err := s.store.Upsert(ctx, points); err != nil {
		return 0, fmt.Errorf("%w: source %s: %w", apperrors.ErrIngestionFailed, sourceID, err)
	}
	if total, err := s.store.Count(ctx, sourceID); err == nil {
		logger = logger.With(zap.Int("stored_total", total))
	}

	logger.Info("document ingested",
		zap.Int("pages", len(pages)),
		zap.Int("chunks", len(chunks)),
		zap.Duration("duration", time.Since(start)),
	)
	return len(chunks), nil
}
