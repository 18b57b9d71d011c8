package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunk(id string, pos int) Chunk {
	return Chunk{ID: id, DocumentID: "doc-1", Position: pos, Text: "text " + id}
}

func TestIndexStore_AppendPreservesOrder(t *testing.T) {
	s := NewIndexStore()
	require.NoError(t, s.Append(chunk("a", 0), chunk("b", 1)))
	require.NoError(t, s.Append(chunk("c", 0)))

	snap := s.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{snap[0].ID, snap[1].ID, snap[2].ID})
	assert.Equal(t, 3, s.Len())
}

func TestIndexStore_RejectsDuplicates(t *testing.T) {
	s := NewIndexStore()
	require.NoError(t, s.Append(chunk("a", 0)))

	err := s.Append(chunk("b", 0), chunk("a", 1))
	assert.ErrorIs(t, err, ErrDuplicateChunk)
	assert.Equal(t, 1, s.Len(), "a rejected batch appends nothing")

	err = s.Append(chunk("c", 0), chunk("c", 1))
	assert.ErrorIs(t, err, ErrDuplicateChunk)
	assert.Equal(t, 1, s.Len())
}

func TestIndexStore_SnapshotIsStable(t *testing.T) {
	s := NewIndexStore()
	require.NoError(t, s.Append(chunk("a", 0)))

	snap := s.Snapshot()
	require.NoError(t, s.Append(chunk("b", 0)))

	assert.Len(t, snap, 1)
	assert.Len(t, s.Snapshot(), 2)
}

func TestIndexStore_ConcurrentAppendAndRead(t *testing.T) {
	s := NewIndexStore()
	const writers, perBatch = 8, 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			batch := make([]Chunk, perBatch)
			for i := range batch {
				batch[i] = Chunk{ID: fmt.Sprintf("%d-%d", w, i), DocumentID: fmt.Sprint(w), Position: i}
			}
			assert.NoError(t, s.Append(batch...))
		}(w)
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap := s.Snapshot()
			// batches land whole, so a reader only ever sees complete batches
			assert.Zero(t, len(snap)%perBatch)
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	require.Len(t, snap, writers*perBatch)
	for i := 0; i < len(snap); i += perBatch {
		for j := 0; j < perBatch; j++ {
			assert.Equal(t, snap[i].DocumentID, snap[i+j].DocumentID)
			assert.Equal(t, j, snap[i+j].Position)
		}
	}
}

func TestIndexStore_Reset(t *testing.T) {
	s := NewIndexStore()
	require.NoError(t, s.Append(chunk("a", 0)))
	s.Reset()
	assert.Zero(t, s.Len())
	assert.NoError(t, s.Append(chunk("a", 0)), "ids are free again after reset")
}

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := NewSQLiteStore(filepath.Join(t.TempDir(), "docqa.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestSQLite(t)

	doc := &Document{ID: "doc-1", Name: "manual.pdf", Pages: 3, Text: "hello world", ChunkCount: 2, CreatedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, db.SaveDocument(ctx, doc, []Chunk{
		{ID: "c-1", DocumentID: "doc-1", Position: 0, Text: "hello ", Embedding: []float32{0.5, -0.25}},
		{ID: "c-2", DocumentID: "doc-1", Position: 1, Text: "world"},
	}))

	docs, err := db.LoadDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "manual.pdf", docs[0].Name)
	assert.Equal(t, 3, docs[0].Pages)
	assert.Equal(t, "hello world", docs[0].Text)

	chunks, err := db.LoadChunks(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "c-1", chunks[0].ID)
	assert.Equal(t, []float32{0.5, -0.25}, chunks[0].Embedding)
	assert.Equal(t, "c-2", chunks[1].ID)
	assert.Nil(t, chunks[1].Embedding)
	assert.False(t, chunks[1].HasEmbedding())
}

func TestSQLiteStore_Clear(t *testing.T) {
	ctx := context.Background()
	db := newTestSQLite(t)

	require.NoError(t, db.SaveDocument(ctx, &Document{ID: "doc-1", Name: "a.pdf", CreatedAt: time.Now()},
		[]Chunk{{ID: "c-1", DocumentID: "doc-1", Text: "x"}}))
	require.NoError(t, db.Clear(ctx))

	// Ingestion still works once the tables are empty.
	require.NoError(t, db.SaveDocument(ctx, &Document{ID: "doc-2", Name: "b.pdf", CreatedAt: time.Now()}, nil))

	docs, err := db.LoadDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-2", docs[0].ID)
	chunks, err := db.LoadChunks(ctx)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSQLiteStore_DuplicateDocument(t *testing.T) {
	ctx := context.Background()
	db := newTestSQLite(t)

	doc := &Document{ID: "doc-1", Name: "a.pdf", CreatedAt: time.Now()}
	require.NoError(t, db.SaveDocument(ctx, doc, nil))
	assert.Error(t, db.SaveDocument(ctx, doc, nil))
}

func TestSQLiteStore_FailedChunkInsertRollsBackDocument(t *testing.T) {
	ctx := context.Background()
	db := newTestSQLite(t)

	require.NoError(t, db.SaveDocument(ctx, &Document{ID: "doc-1", Name: "a.txt", ChunkCount: 1, CreatedAt: time.Now()},
		[]Chunk{{ID: "c-1", DocumentID: "doc-1", Text: "alpha"}}))

	err := db.SaveDocument(ctx, &Document{ID: "doc-2", Name: "b.txt", ChunkCount: 2, CreatedAt: time.Now()},
		[]Chunk{
			{ID: "c-2", DocumentID: "doc-2", Position: 0, Text: "beta"},
			{ID: "c-1", DocumentID: "doc-2", Position: 1, Text: "gamma"},
		})
	require.Error(t, err)

	docs, err := db.LoadDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-1", docs[0].ID)

	chunks, err := db.LoadChunks(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "c-1", chunks[0].ID)
}
