package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"gwi.com/docqa/internal/logger"
)

// Embedding is the outcome of one embedding attempt: either a vector or the
// explicit "unavailable" marker. The zero value is unavailable.
type Embedding struct {
	values []float32
	ok     bool
}

func Available(values []float32) Embedding {
	return Embedding{values: values, ok: len(values) > 0}
}

func Unavailable() Embedding {
	return Embedding{}
}

// Vector returns the embedding values and whether they are available.
func (e Embedding) Vector() ([]float32, bool) {
	return e.values, e.ok
}

// Embedder produces embeddings. Implementations never fail; they degrade to
// Unavailable.
type Embedder interface {
	Embed(ctx context.Context, text string) Embedding
}

type embedRequest struct {
	Input string `json:"input"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// EmbeddingClient calls an embedding provider speaking
// POST {"input": ...} -> {"embedding": [...]}.
type EmbeddingClient struct {
	url    string
	client *http.Client
}

func NewEmbeddingClient(url string, timeout time.Duration) *EmbeddingClient {
	return &EmbeddingClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Embed makes exactly one attempt and returns Unavailable on any failure.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) Embedding {
	vec, err := c.fetch(ctx, text)
	if err != nil {
		logger.Warn("Embedding unavailable", zap.String("url", c.url), zap.Error(err))
		return Unavailable()
	}
	return Available(vec)
}

func (c *EmbeddingClient) fetch(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding provider returned %s", resp.Status)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, errors.New("no embedding in response")
	}
	return out.Embedding, nil
}
