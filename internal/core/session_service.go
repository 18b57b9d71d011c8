package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gwi.com/docqa/internal/extract"
	"gwi.com/docqa/internal/logger"
	"gwi.com/docqa/internal/store"
	"gwi.com/docqa/internal/utils"
)

const UnknownDocumentName = "Unknown document"

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrSessionReset     = errors.New("session was reset during ingestion")
)

// Repository is the optional persistence boundary the session writes
// through to.
type Repository interface {
	// SaveDocument stores a document with its chunks atomically.
	SaveDocument(ctx context.Context, doc *store.Document, chunks []store.Chunk) error
	LoadDocuments(ctx context.Context) ([]store.Document, error)
	LoadChunks(ctx context.Context) ([]store.Chunk, error)
	Clear(ctx context.Context) error
}

// SessionService owns the document set, the index and the answer slot.
type SessionService struct {
	rag  *RAGService
	pool *EmbedPool

	repo         Repository
	extractorFor func(name string) extract.Extractor
	newID        func() string
	chunkSize    int

	mu        sync.RWMutex
	documents []store.Document
	byID      map[string]int
	index     *store.IndexStore
	epoch     uint64 // bumped by Reset

	askSeq    atomic.Uint64
	answer    *store.Answer
	answerSeq uint64
}

type SessionOption func(*SessionService)

// WithRepository writes documents and chunks through to repo.
func WithRepository(repo Repository) SessionOption {
	return func(s *SessionService) { s.repo = repo }
}

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) SessionOption {
	return func(s *SessionService) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithExtractorSelector overrides how an upload's extractor is chosen.
func WithExtractorSelector(fn func(name string) extract.Extractor) SessionOption {
	return func(s *SessionService) { s.extractorFor = fn }
}

// WithIDGenerator overrides the document and chunk id source.
func WithIDGenerator(fn func() string) SessionOption {
	return func(s *SessionService) { s.newID = fn }
}

func NewSessionService(rag *RAGService, pool *EmbedPool, opts ...SessionOption) *SessionService {
	s := &SessionService{
		rag:          rag,
		pool:         pool,
		extractorFor: extract.ForName,
		newID:        uuid.NewString,
		chunkSize:    utils.DefaultChunkSize,
		byID:         make(map[string]int),
		index:        store.NewIndexStore(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestDocument extracts, chunks and embeds one upload and appends its
// chunks to the index in slice order. Extraction failures produce an empty
// document, not an error.
func (s *SessionService) IngestDocument(ctx context.Context, name string, payload []byte) (*store.Document, error) {
	s.mu.RLock()
	epoch := s.epoch
	s.mu.RUnlock()

	res := s.extractorFor(name).Extract(ctx, payload)
	doc := store.Document{
		ID:        s.newID(),
		Name:      name,
		Pages:     res.Pages,
		Text:      res.Text,
		CreatedAt: time.Now().UTC(),
	}

	texts := utils.ChunkText(res.Text, s.chunkSize)
	embeddings := s.pool.EmbedAll(ctx, texts)

	chunks := make([]store.Chunk, len(texts))
	embedded := 0
	for i, text := range texts {
		vec, ok := embeddings[i].Vector()
		if ok {
			embedded++
		}
		chunks[i] = store.Chunk{
			ID:         s.newID(),
			DocumentID: doc.ID,
			Position:   i,
			Text:       text,
			Embedding:  vec,
		}
	}
	doc.ChunkCount = len(chunks)

	// Chunks embedded after cancellation are Unavailable, so the upload is dropped.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ingestion of %s cancelled: %w", name, err)
	}
	if err := s.commit(ctx, epoch, doc, chunks); err != nil {
		return nil, err
	}

	logger.Info("Ingested document",
		zap.String("document_id", doc.ID),
		zap.String("name", doc.Name),
		zap.Int("pages", doc.Pages),
		zap.Int("chunks", len(chunks)),
		zap.Int("embedded", embedded))
	return &doc, nil
}

func (s *SessionService) commit(ctx context.Context, epoch uint64, doc store.Document, chunks []store.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return ErrSessionReset
	}
	if s.repo != nil {
		if err := s.repo.SaveDocument(ctx, &doc, chunks); err != nil {
			return fmt.Errorf("failed to persist document %s: %w", doc.Name, err)
		}
	}
	if err := s.index.Append(chunks...); err != nil {
		return fmt.Errorf("failed to index chunks of %s: %w", doc.Name, err)
	}
	s.byID[doc.ID] = len(s.documents)
	s.documents = append(s.documents, doc)
	return nil
}

// Ask answers a question against the whole index. A blank question is a
// no-op: nil is returned, nothing is called and the answer slot is left
// alone. Otherwise the answer replaces the current one unless a newer ask
// already did.
func (s *SessionService) Ask(ctx context.Context, question string) *store.Answer {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil
	}

	seq := s.askSeq.Add(1)
	answer := s.rag.GenerateResponse(ctx, s.index.Snapshot(), question)

	s.mu.Lock()
	if seq > s.answerSeq {
		s.answer = &answer
		s.answerSeq = seq
	}
	s.mu.Unlock()

	return &answer
}

// CurrentAnswer returns the answer on display, or nil.
func (s *SessionService) CurrentAnswer() *store.Answer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.answer
}

// Documents returns the documents in upload order.
func (s *SessionService) Documents() []store.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Document, len(s.documents))
	copy(out, s.documents)
	return out
}

func (s *SessionService) Document(id string) (store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return store.Document{}, ErrDocumentNotFound
	}
	return s.documents[i], nil
}

// DocumentName resolves a chunk's document reference for display.
func (s *SessionService) DocumentName(id string) string {
	doc, err := s.Document(id)
	if err != nil {
		return UnknownDocumentName
	}
	return doc.Name
}

// ChunkCount is the number of indexed chunks.
func (s *SessionService) ChunkCount() int {
	return s.index.Len()
}

// Reset drops every document, chunk and the current answer, here and in the
// repository. Ingestions and asks still in flight are discarded. If the
// repository cannot be cleared the session is left as it was.
func (s *SessionService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear repository: %w", err)
		}
	}

	s.epoch++
	s.documents = nil
	s.byID = make(map[string]int)
	s.index.Reset()
	s.answer = nil
	s.answerSeq = s.askSeq.Load()

	logger.Info("Session reset")
	return nil
}

// Restore rebuilds the session from the repository. It is a no-op without
// one.
func (s *SessionService) Restore(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	docs, err := s.repo.LoadDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	chunks, err := s.repo.LoadChunks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chunks: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.documents = nil
	s.byID = make(map[string]int, len(docs))
	s.index.Reset()
	for _, doc := range docs {
		s.byID[doc.ID] = len(s.documents)
		s.documents = append(s.documents, doc)
	}
	if err := s.index.Append(chunks...); err != nil {
		return fmt.Errorf("failed to index restored chunks: %w", err)
	}

	if len(chunks) == 0 {
		logger.Warn("Session restored with no chunks. Upload or ingest documents first.")
	} else {
		logger.Info("Session restored", zap.Int("documents", len(docs)), zap.Int("chunks", len(chunks)))
	}
	return nil
}
