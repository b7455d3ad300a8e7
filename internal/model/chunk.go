package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Chunk is a bounded-length segment of a document's extracted text, the unit
// of embedding and retrieval.
type Chunk struct {
	SourceID string `json:"source_id"`
	Index    int    `json:"index"`
	Text     string `json:"text"`
}

// Payload is the metadata stored alongside a point and returned with search
// hits.
type Payload struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Point is one stored (id, vector, payload) triple. Upserting a point with an
// existing ID fully replaces it.
type Point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload Payload   `json:"payload"`
}

// SearchResult is a top-k retrieval reduced to the ordered context texts
// (most similar first) and the distinct contributing source IDs.
type SearchResult struct {
	Contexts []string `json:"contexts"`
	Sources  []string `json:"sources"`
}

// ChunkID derives the stable point ID for (sourceID, index): a name-based
// UUID over "{source_id}:{index}" in the URL namespace. Re-ingesting the same
// source with identical chunking yields identical IDs, so upserts overwrite
// instead of duplicating.
func ChunkID(sourceID string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s:%d", sourceID, index))).String()
}
