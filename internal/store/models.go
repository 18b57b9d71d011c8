package store

import "time"

type Document struct {
	ID         string    `json:"id"` // UUID
	Name       string    `json:"name"`
	Pages      int       `json:"pages"` // 0 when extraction failed
	Text       string    `json:"text,omitempty"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type Chunk struct {
	ID         string    `json:"id"`          // UUID
	DocumentID string    `json:"document_id"` // reference, not ownership
	Position   int       `json:"position"`    // slice order within the document
	Text       string    `json:"text"`
	Embedding  []float32 `json:"-"` // nil when the embedding service was unavailable
}

// HasEmbedding reports whether the chunk was vectorized at ingestion.
func (c Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

const (
	MethodVector  = "vector"
	MethodLexical = "lexical"
)

// ScoredChunk only lives for the duration of one ask.
type ScoredChunk struct {
	Chunk  Chunk   `json:"chunk"`
	Score  float64 `json:"score"`  // cosine in [-1,1] or a token-overlap count
	Method string  `json:"method"` // MethodVector or MethodLexical
}

type Answer struct {
	Text     string        `json:"answer"`
	Sources  []ScoredChunk `json:"sources"`
	Degraded bool          `json:"degraded"` // Text is the fallback sentence
	AskedAt  time.Time     `json:"asked_at"`
}
