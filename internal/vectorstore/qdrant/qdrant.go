package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mindcask/docrag/internal/model"
	apperrors "github.com/mindcask/docrag/internal/pkg/errors"
)

// Storage is a REST client to one Qdrant collection using cosine distance.
// The collection is created on first use if missing; an existing collection
// must carry the configured dimension.
type Storage struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client

	mu    sync.Mutex
	ready bool
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimension  int
	TimeoutSec int
}

func NewStorage(cfg Config) (*Storage, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("%w: qdrant url is not configured", apperrors.ErrStoreUnavailable)
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: invalid dimension %d", apperrors.ErrStoreUnavailable, cfg.Dimension)
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

type collectionInfo struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// ensureReady materializes the collection once. First successful completion
// wins; a concurrent create that loses the race sees the backend answer
// "already exists" and treats it as success.
func (s *Storage) ensureReady(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	var info collectionInfo
	status, err := s.doJSON(ctx, http.MethodGet, "/collections/"+s.collection, nil, &info)
	switch {
	case err != nil:
		return fmt.Errorf("%w: check collection %s: %w", apperrors.ErrStoreUnavailable, s.collection, err)
	case status == http.StatusOK:
		if size := info.Result.Config.Params.Vectors.Size; size != s.dimension {
			return fmt.Errorf("%w: collection %s has dimension %d, configured %d", apperrors.ErrStoreUnavailable, s.collection, size, s.dimension)
		}
		s.ready = true
		return nil
	case status != http.StatusNotFound:
		return fmt.Errorf("%w: check collection %s: status %d", apperrors.ErrStoreUnavailable, s.collection, status)
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	status, err = s.doJSON(ctx, http.MethodPut, "/collections/"+s.collection, body, nil)
	if err != nil {
		return fmt.Errorf("%w: create collection %s: %w", apperrors.ErrStoreUnavailable, s.collection, err)
	}
	// 409 means another writer created it first.
	if status >= 300 && status != http.StatusConflict {
		return fmt.Errorf("%w: create collection %s: status %d", apperrors.ErrStoreUnavailable, s.collection, status)
	}
	s.ready = true
	return nil
}

func (s *Storage) Upsert(ctx context.Context, points []model.Point) error {
	for _, p := range points {
		if len(p.Vector) != s.dimension {
			return fmt.Errorf("%w: point %s has dimension %d, want %d", apperrors.ErrStoreUnavailable, p.ID, len(p.Vector), s.dimension)
		}
	}
	if err := s.ensureReady(ctx); err != nil {
		return err
	}
	items := make([]map[string]any, 0, len(points))
	for _, p := range points {
		items = append(items, map[string]any{
			"id":     p.ID,
			"vector": p.Vector,
			"payload": map[string]any{
				"source": p.Payload.Source,
				"text":   p.Payload.Text,
			},
		})
	}
	body := map[string]any{"points": items}
	status, err := s.doJSON(ctx, http.MethodPut, "/collections/"+s.collection+"/points?wait=true", body, nil)
	if err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	if status >= 300 {
		return fmt.Errorf("upsert %d points: status %d", len(points), status)
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
	if err := s.ensureReady(ctx); err != nil {
		return model.SearchResult{}, err
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64       `json:"score"`
			Payload model.Payload `json:"payload"`
		} `json:"result"`
	}
	status, err := s.doJSON(ctx, http.MethodPost, "/collections/"+s.collection+"/points/search", req, &resp)
	if err != nil {
		return model.SearchResult{}, fmt.Errorf("search top %d: %w", topK, err)
	}
	if status >= 300 {
		return model.SearchResult{}, fmt.Errorf("search top %d: status %d", topK, status)
	}

	result := model.SearchResult{Contexts: []string{}, Sources: []string{}}
	seen := map[string]struct{}{}
	for _, hit := range resp.Result {
		// Points without a text payload are skipped rather than surfaced.
		if hit.Payload.Text == "" {
			continue
		}
		result.Contexts = append(result.Contexts, hit.Payload.Text)
		if _, ok := seen[hit.Payload.Source]; !ok {
			seen[hit.Payload.Source] = struct{}{}
			result.Sources = append(result.Sources, hit.Payload.Source)
		}
	}
	return result, nil
}

func (s *Storage) Count(ctx context.Context, sourceID string) (int, error) {
	if err := s.ensureReady(ctx); err != nil {
		return 0, err
	}
	req := map[string]any{
		"exact": true,
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "source", "match": map[string]any{"value": sourceID}},
			},
		},
	}
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	status, err := s.doJSON(ctx, http.MethodPost, "/collections/"+s.collection+"/points/count", req, &resp)
	if err != nil {
		return 0, fmt.Errorf("count source %s: %w", sourceID, err)
	}
	if status >= 300 {
		return 0, fmt.Errorf("count source %s: status %d", sourceID, status)
	}
	return resp.Result.Count, nil
}

func (s *Storage) doJSON(ctx context.Context, method, path string, body any, out any) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.url+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}
