package core

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// delayedEmbedder finishes later inputs first.
type delayedEmbedder struct {
	n        int
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (d *delayedEmbedder) Embed(_ context.Context, text string) Embedding {
	cur := d.inFlight.Add(1)
	defer d.inFlight.Add(-1)
	for {
		p := d.peak.Load()
		if cur <= p || d.peak.CompareAndSwap(p, cur) {
			break
		}
	}

	i, _ := strconv.Atoi(text)
	time.Sleep(time.Duration(d.n-i) * 2 * time.Millisecond)
	if i%3 == 2 {
		return Unavailable()
	}
	return Available([]float32{float32(i)})
}

func TestEmbedPool_PreservesInputOrder(t *testing.T) {
	const n = 12
	embedder := &delayedEmbedder{n: n}
	pool := NewEmbedPool(embedder, 4, 0)

	texts := make([]string, n)
	for i := range texts {
		texts[i] = strconv.Itoa(i)
	}

	out := pool.EmbedAll(context.Background(), texts)

	require.Len(t, out, n)
	for i, e := range out {
		vec, ok := e.Vector()
		if i%3 == 2 {
			assert.False(t, ok, "entry %d", i)
			continue
		}
		require.True(t, ok, "entry %d", i)
		assert.Equal(t, []float32{float32(i)}, vec, fmt.Sprintf("entry %d", i))
	}
	assert.LessOrEqual(t, embedder.peak.Load(), int32(4))
}

func TestEmbedPool_Empty(t *testing.T) {
	pool := NewEmbedPool(&fakeEmbedder{}, 2, 10)
	assert.Empty(t, pool.EmbedAll(context.Background(), nil))
}

func TestEmbedPool_CancelledContextLeavesUnavailable(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{"a": {1}, "b": {2}, "c": {3}}}
	pool := NewEmbedPool(embedder, 1, 0.001)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := pool.EmbedAll(ctx, []string{"a", "b", "c"})
	require.Len(t, out, 3)
	for _, e := range out {
		_, ok := e.Vector()
		assert.False(t, ok)
	}
	assert.Equal(t, 0, embedder.callCount())
}
