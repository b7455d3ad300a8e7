package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/mindcask/docrag/internal/model"
	apperrors "github.com/mindcask/docrag/internal/pkg/errors"
)

// Storage is a brute-force cosine similarity store keyed by point ID. It
// backs tests and single-process development runs.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	points    map[string]model.Point
	order     []string
}

func NewStorage(dimension int) *Storage {
	return &Storage{
		dimension: dimension,
		points:    make(map[string]model.Point),
	}
}

func (s *Storage) Upsert(ctx context.Context, points []model.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		if len(p.Vector) != s.dimension {
			return fmt.Errorf("%w: vector dimension %d, want %d", apperrors.ErrStoreUnavailable, len(p.Vector), s.dimension)
		}
	}
	for _, p := range points {
		if _, ok := s.points[p.ID]; !ok {
			s.order = append(s.order, p.ID)
		}
		s.points[p.ID] = p
	}
	return nil
}

func (s *Storage) Search(ctx context.Context, vector []float32, topK int) (model.SearchResult, error) {
	if len(vector) != s.dimension {
		return model.SearchResult{}, fmt.Errorf("%w: query dimension %d, want %d", apperrors.ErrStoreUnavailable, len(vector), s.dimension)
	}
	if topK <= 0 {
		topK = 5
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		point model.Point
		score float64
	}
	hits := make([]scored, 0, len(s.order))
	for _, id := range s.order {
		p := s.points[id]
		hits = append(hits, scored{point: p, score: cosineSimilarity(vector, p.Vector)})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if topK > len(hits) {
		topK = len(hits)
	}

	result := model.SearchResult{Contexts: []string{}, Sources: []string{}}
	seen := map[string]struct{}{}
	for _, hit := range hits[:topK] {
		if hit.point.Payload.Text == "" {
			continue
		}
		result.Contexts = append(result.Contexts, hit.point.Payload.Text)
		if _, ok := seen[hit.point.Payload.Source]; !ok {
			seen[hit.point.Payload.Source] = struct{}{}
			result.Sources = append(result.Sources, hit.point.Payload.Source)
		}
	}
	return result, nil
}

func (s *Storage) Count(ctx context.Context, sourceID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, p := range s.points {
		if p.Payload.Source == sourceID {
			count++
		}
	}
	return count, nil
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
