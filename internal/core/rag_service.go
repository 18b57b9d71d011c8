package core

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"gwi.com/docqa/internal/logger"
	"gwi.com/docqa/internal/store"
	"gwi.com/docqa/internal/utils"
)

const (
	DefaultTopK = 5 // Number of chunks sent as context

	// ContextSeparator sits between chunk texts in the assembled context.
	ContextSeparator = "\n\n--- CHUNK BREAK ---\n\n"
)

// Rank scores every chunk against the query, highest first. With a query
// vector the score is cosine similarity and chunks without an embedding
// score 0; without one it is the token overlap with the raw query. Equal
// scores keep insertion order.
func Rank(chunks []store.Chunk, query string, queryEmbedding Embedding) []store.ScoredChunk {
	scored := make([]store.ScoredChunk, len(chunks))

	if queryVec, ok := queryEmbedding.Vector(); ok {
		for i, chunk := range chunks {
			scored[i] = store.ScoredChunk{
				Chunk:  chunk,
				Score:  float64(utils.CosineSimilarity(queryVec, chunk.Embedding)),
				Method: store.MethodVector,
			}
		}
	} else {
		queryTokens := utils.Tokenize(query)
		for i, chunk := range chunks {
			scored[i] = store.ScoredChunk{
				Chunk:  chunk,
				Score:  float64(utils.TokenOverlap(queryTokens, chunk.Text)),
				Method: store.MethodLexical,
			}
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// TopK returns the first min(len(ranked), k) entries.
func TopK(ranked []store.ScoredChunk, k int) []store.ScoredChunk {
	if k < 0 {
		k = 0
	}
	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k:k]
}

// AssembleContext joins the chunk texts in rank order.
func AssembleContext(top []store.ScoredChunk) string {
	var contextBuilder strings.Builder
	for i, sc := range top {
		if i > 0 {
			contextBuilder.WriteString(ContextSeparator)
		}
		contextBuilder.WriteString(sc.Chunk.Text)
	}
	return contextBuilder.String()
}

type RAGService struct {
	embedder Embedder
	answerer Answerer
	topK     int
}

func NewRAGService(embedder Embedder, answerer Answerer, topK int) *RAGService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &RAGService{
		embedder: embedder,
		answerer: answerer,
		topK:     topK,
	}
}

// GetRelevantChunks embeds the query once and returns the top-k chunks.
func (s *RAGService) GetRelevantChunks(ctx context.Context, chunks []store.Chunk, query string) []store.ScoredChunk {
	queryEmbedding := s.embedder.Embed(ctx, query)
	top := TopK(Rank(chunks, query, queryEmbedding), s.topK)

	_, vectorPath := queryEmbedding.Vector()
	logger.Debug("Retrieved relevant chunks",
		zap.Int("indexed", len(chunks)),
		zap.Int("selected", len(top)),
		zap.Bool("vector", vectorPath))
	return top
}

// GenerateResponse retrieves context for the question and asks the
// generation provider once. It always returns a displayable Answer.
func (s *RAGService) GenerateResponse(ctx context.Context, chunks []store.Chunk, question string) store.Answer {
	top := s.GetRelevantChunks(ctx, chunks, question)
	text, ok := s.answerer.Answer(ctx, AssembleContext(top), question)
	if top == nil {
		top = []store.ScoredChunk{}
	}
	return store.Answer{
		Text:     text,
		Sources:  top,
		Degraded: !ok,
		AskedAt:  time.Now().UTC(),
	}
}
