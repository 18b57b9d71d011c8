package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"gwi.com/docqa/internal/logger"
)

const (
	// FallbackAnswer replaces the answer whenever generation fails.
	FallbackAnswer = "Sorry, I was unable to generate an answer at this time."

	// AnswerSystemDirective is applied by every generation backend.
	AnswerSystemDirective = "You are a helpful assistant answering questions about documents the user uploaded. " +
		"Answer only from the provided context. " +
		"If the context does not contain the answer, say clearly that you do not know based on the provided documents. " +
		"Do not make up information."
)

// Answerer produces a grounded answer. ok is false when text is
// FallbackAnswer.
type Answerer interface {
	Answer(ctx context.Context, contextText, question string) (text string, ok bool)
}

type generateRequest struct {
	Context  string `json:"context"`
	Question string `json:"question"`
}

type generateResponse struct {
	Answer *string `json:"answer"`
}

// AnswerClient calls a generation provider speaking
// POST {"context": ..., "question": ...} -> {"answer": ...}.
type AnswerClient struct {
	url    string
	client *http.Client
}

func NewAnswerClient(url string, timeout time.Duration) *AnswerClient {
	return &AnswerClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Answer makes exactly one attempt and returns FallbackAnswer on any failure.
func (c *AnswerClient) Answer(ctx context.Context, contextText, question string) (string, bool) {
	answer, err := c.fetch(ctx, contextText, question)
	if err != nil {
		logger.Warn("Answer generation failed, using fallback", zap.String("url", c.url), zap.Error(err))
		return FallbackAnswer, false
	}
	return answer, true
}

func (c *AnswerClient) fetch(ctx context.Context, contextText, question string) (string, error) {
	body, err := json.Marshal(generateRequest{Context: contextText, Question: question})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("generation provider returned %s", resp.Status)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Answer == nil || strings.TrimSpace(*out.Answer) == "" {
		return "", errors.New("no answer in response")
	}
	return *out.Answer, nil
}
