package store

import (
	"errors"
	"fmt"
	"sync"
)

var ErrDuplicateChunk = errors.New("duplicate chunk id")

// IndexStore is the append-only, insertion-ordered set of chunks that every
// ask ranks in full.
type IndexStore struct {
	mu     sync.RWMutex
	chunks []Chunk
	ids    map[string]struct{}
}

func NewIndexStore() *IndexStore {
	return &IndexStore{ids: make(map[string]struct{})}
}

// Append adds a batch atomically. If any id is already indexed, or repeats
// within the batch, nothing is appended.
func (s *IndexStore) Append(chunks ...Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		if _, ok := s.ids[c.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateChunk, c.ID)
		}
		if _, ok := seen[c.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateChunk, c.ID)
		}
		seen[c.ID] = struct{}{}
	}

	for _, c := range chunks {
		s.ids[c.ID] = struct{}{}
	}
	s.chunks = append(s.chunks, chunks...)
	return nil
}

// Snapshot returns the chunks indexed so far. The returned slice is capped at
// its length, so later appends never show through it.
func (s *IndexStore) Snapshot() []Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunks[:len(s.chunks):len(s.chunks)]
}

func (s *IndexStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Reset drops every chunk. Only a full session reset calls this.
func (s *IndexStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	s.ids = make(map[string]struct{})
}
