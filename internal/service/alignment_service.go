package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mindcask/docrag/internal/ai"
	apperrors "github.com/mindcask/docrag/internal/pkg/errors"
)

// demoMatchScore is the canned score of the demo endpoint; no real scoring
// algorithm exists behind it.
const demoMatchScore = 85

type AlignmentResult struct {
	Analysis   string `json:"analysis"`
	MatchScore int    `json:"match_score"`
	Processed  bool   `json:"processed"`
}

// AlignmentScorer scores how well a job description aligns with the ingested
// candidate material. Implementations are interchangeable strategies.
type AlignmentScorer interface {
	Analyze(ctx context.Context, jobDescription, question string) (AlignmentResult, error)
}

type llmAlignmentScorer struct {
	generator ai.IGenerator
}

// NewAlignmentScorer returns the strategy that delegates the written
// analysis to the language model and reports the fixed demo score.
func NewAlignmentScorer(generator ai.IGenerator) AlignmentScorer {
	return &llmAlignmentScorer{generator: generator}
}

func (s *llmAlignmentScorer) Analyze(ctx context.Context, jobDescription, question string) (AlignmentResult, error) {
	if strings.TrimSpace(jobDescription) == "" || strings.TrimSpace(question) == "" {
		return AlignmentResult{}, fmt.Errorf("%w: job_description and question are required", apperrors.ErrInvalidRequest)
	}
	prompt := fmt.Sprintf(`Job Description: %s

Question: %s

Based on the candidate's ingested resume, please provide:
1. A match score (0-100%%) indicating how well they fit
2. Key strengths that align with the job
3. Any gaps or areas to address
4. Interview positioning advice
5. Overall recommendation

Respond in a structured format with clear sections.`, jobDescription, question)

	analysis, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return AlignmentResult{}, fmt.Errorf("%w: alignment analysis: %w", apperrors.ErrQueryFailed, err)
	}
	return AlignmentResult{
		Analysis:   analysis,
		MatchScore: demoMatchScore,
		Processed:  true,
	}, nil
}
