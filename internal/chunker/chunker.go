package chunker

import (
	"strings"

	"github.com/mindcask/docrag/internal/model"
)

const DefaultMaxChars = 1000

// Chunker splits extracted text into word-boundary chunks bounded by a
// character budget. Tokens are never split: a single token longer than the
// budget is emitted as its own oversized chunk.
type Chunker struct {
	maxChars int
}

func New(maxChars int) *Chunker {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Chunker{maxChars: maxChars}
}

// Split chunks one text. Tokens are accumulated until appending the next one
// (plus a separator) would exceed the budget; chunks are joined with single
// spaces. Whitespace-only input yields no chunks.
func (c *Chunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var chunks []string
	var current []string
	length := 0
	for _, word := range words {
		if length+len(word)+1 > c.maxChars && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = []string{word}
			length = len(word)
			continue
		}
		current = append(current, word)
		length += len(word) + 1
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// SplitPages chunks a document's page texts in page order, drops blank pages,
// and re-indexes the resulting chunks 0..N-1 across the whole document.
func (c *Chunker) SplitPages(sourceID string, pages []string) []model.Chunk {
	var chunks []model.Chunk
	for _, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		for _, text := range c.Split(page) {
			chunks = append(chunks, model.Chunk{
				SourceID: sourceID,
				Index:    len(chunks),
				Text:     text,
			})
		}
	}
	return chunks
}
