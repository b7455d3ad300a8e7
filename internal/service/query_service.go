package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mindcask/docrag/internal/ai"
	"github.com/mindcask/docrag/internal/config"
	apperrors "github.com/mindcask/docrag/internal/pkg/errors"
	"github.com/mindcask/docrag/internal/vectorstore"
)

// NoContextAnswer is returned without consulting the model when retrieval
// yields nothing and short-circuiting is enabled.
const NoContextAnswer = "No relevant context was found to answer this question."

type QueryResult struct {
	Answer      string   `json:"answer"`
	Sources     []string `json:"sources"`
	NumContexts int      `json:"num_contexts"`
}

// QueryService runs the query pipeline: embed the question, retrieve the
// nearest chunks, assemble the grounded prompt and delegate to the language
// model. Answers are memoized in an expiring LRU.
type QueryService struct {
	embedder     *ai.Embedder
	generator    ai.IGenerator
	store        vectorstore.Store
	defaultTopK  int
	shortCircuit bool
	cache        *expirable.LRU[string, QueryResult]
}

func NewQueryService(embedder *ai.Embedder, generator ai.IGenerator, store vectorstore.Store, cfg config.QueryConfig) *QueryService {
	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	topK := cfg.DefaultTopK
	if topK <= 0 {
		topK = 5
	}
	return &QueryService{
		embedder:     embedder,
		generator:    generator,
		store:        store,
		defaultTopK:  topK,
		shortCircuit: cfg.ShortCircuitEmptyContext,
		cache:        expirable.NewLRU[string, QueryResult](10000, nil, ttl),
	}
}

// Query answers the question from the topK most similar chunks. topK <= 0
// selects the configured default. NumContexts reports the retrieved count,
// which may be below topK.
func (s *QueryService) Query(ctx context.Context, question string, topK int) (QueryResult, error) {
	if strings.TrimSpace(question) == "" {
		return QueryResult{}, fmt.Errorf("%w: question is required", apperrors.ErrInvalidRequest)
	}
	if topK <= 0 {
		topK = s.defaultTopK
	}
	logger := logutil.GetLogger(ctx).With(zap.String("question", question), zap.Int("top_k", topK))

	cacheKey := s.cacheKey(question, topK)
	if cached, ok := s.cache.Get(cacheKey); ok {
		logger.Debug("answer served from cache")
		return cached, nil
	}

	vectors, err := s.embedder.EmbedBatch(ctx, []string{question}, ai.TaskRetrievalQuery)
	if err != nil {
		return QueryResult{}, fmt.Errorf("%w: %q: %w", apperrors.ErrQueryFailed, question, err)
	}
	found, err := s.store.Search(ctx, vectors[0], topK)
	if err != nil {
		return QueryResult{}, fmt.Errorf("%w: %q: %w", apperrors.ErrQueryFailed, question, err)
	}
	logger.Debug("retrieval done", zap.Int("contexts", len(found.Contexts)), zap.Strings("sources", found.Sources))

	if len(found.Contexts) == 0 && s.shortCircuit {
		return QueryResult{
			Answer:      NoContextAnswer,
			Sources:     []string{},
			NumContexts: 0,
		}, nil
	}

	answer, err := s.generator.Generate(ctx, BuildPrompt(found.Contexts, question))
	if err != nil {
		return QueryResult{}, fmt.Errorf("%w: %q: %w", apperrors.ErrQueryFailed, question, err)
	}
	result := QueryResult{
		Answer:      answer,
		Sources:     found.Sources,
		NumContexts: len(found.Contexts),
	}
	s.cache.Add(cacheKey, result)
	return result, nil
}

// BuildPrompt lists each retrieved context as a bullet, then the question,
// then the instruction to answer concisely from the context alone.
func BuildPrompt(contexts []string, question string) string {
	bullets := make([]string, 0, len(contexts))
	for _, c := range contexts {
		bullets = append(bullets, "- "+c)
	}
	contextBlock := strings.Join(bullets, "\n\n")
	return "Use the following context to answer the question.\n\n" +
		"Context:\n" + contextBlock + "\n\n" +
		"Question: " + question + "\n" +
		"Answer concisely using the context above."
}

func (s *QueryService) cacheKey(question string, topK int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", question, topK)))
	return hex.EncodeToString(sum[:])
}
