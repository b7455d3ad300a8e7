package service

import (
	"context"
	"sync"

	"github.com/mindcask/docrag/internal/model"
	"github.com/mindcask/docrag/internal/vectorstore"
)

// fakeProvider embeds every text to the same fixed vector and answers
// generation with a canned string, recording calls.
type fakeProvider struct {
	mu         sync.Mutex
	vector     []float32
	answer     string
	embedErr   error
	genErr     error
	embedCalls int
	genCalls   int
	lastPrompt string
	lastTexts  []string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genCalls++
	f.lastPrompt = prompt
	if f.genErr != nil {
		return "", f.genErr
	}
	return f.answer, nil
}

func (f *fakeProvider) Embed(ctx context.Context, model string, texts []string, taskType string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedCalls++
	f.lastTexts = texts
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, len(f.vector))
		copy(vec, f.vector)
		out[i] = vec
	}
	return out, nil
}

// fakeExtractor returns fixed page texts regardless of path.
type fakeExtractor struct {
	pages []string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(ctx context.Context, path string) ([]string, error) {
	f.calls++
	return f.pages, f.err
}

// countingStore wraps a store and records operation counts.
type countingStore struct {
	vectorstore.Store
	upserts  int
	searches int
}

func (c *countingStore) Upsert(ctx context.Context, points []model.Point) error {
	c.upserts++
	return c.Store.Upsert(ctx, points)
}

func (c *countingStore) Search(ctx context.Context, vector []float32, topK int) (model.SearchResult, error) {
	c.searches++
	return c.Store.Search(ctx, vector, topK)
}
