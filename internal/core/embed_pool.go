package core

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// EmbedPool embeds many texts with a fixed number of workers. Results are
// written by input position, so completion order never leaks into the
// output.
type EmbedPool struct {
	embedder Embedder
	workers  int
	limiter  *rate.Limiter // nil when unpaced
}

// NewEmbedPool builds a pool. rps <= 0 disables pacing.
func NewEmbedPool(embedder Embedder, workers int, rps float64) *EmbedPool {
	if workers <= 0 {
		workers = 1
	}
	p := &EmbedPool{embedder: embedder, workers: workers}
	if rps > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return p
}

// EmbedAll returns one Embedding per text, out[i] belonging to texts[i].
// A cancelled context leaves the remaining entries Unavailable.
func (p *EmbedPool) EmbedAll(ctx context.Context, texts []string) []Embedding {
	out := make([]Embedding, len(texts))
	if len(texts) == 0 {
		return out
	}

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, text := range texts {
		g.Go(func() error {
			if p.limiter != nil {
				if err := p.limiter.Wait(ctx); err != nil {
					return nil
				}
			}
			out[i] = p.embedder.Embed(ctx, text)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
