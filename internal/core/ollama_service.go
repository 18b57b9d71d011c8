package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ollama/ollama/api"
)

const (
	DefaultOllamaEmbeddingModel = "nomic-embed-text"
	DefaultOllamaChatModel      = "llama3.2"
)

// OllamaService is the Ollama backend.
type OllamaService struct {
	client         *api.Client
	embeddingModel string
	chatModel      string
}

// NewOllamaServiceFromEnvironment uses OLLAMA_HOST like the ollama CLI does.
func NewOllamaServiceFromEnvironment(embeddingModel, chatModel string) (*OllamaService, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return NewOllamaService(client, embeddingModel, chatModel), nil
}

func NewOllamaService(client *api.Client, embeddingModel, chatModel string) *OllamaService {
	if embeddingModel == "" {
		embeddingModel = DefaultOllamaEmbeddingModel
	}
	if chatModel == "" {
		chatModel = DefaultOllamaChatModel
	}
	return &OllamaService{client: client, embeddingModel: embeddingModel, chatModel: chatModel}
}

func (s *OllamaService) Embed(ctx context.Context, text string) ([]float32, error) {
	req := &api.EmbeddingRequest{
		Model:     s.embeddingModel,
		Prompt:    text,
		KeepAlive: &api.Duration{Duration: 60 * time.Minute},
	}
	resp, err := s.client.Embeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("ollama embedding request failed: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, errors.New("no embedding data received from ollama")
	}

	emb32 := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		emb32[i] = float32(v)
	}
	return emb32, nil
}

func (s *OllamaService) Generate(ctx context.Context, contextText, question string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  s.chatModel,
		System: AnswerSystemDirective,
		Prompt: BuildAnswerPrompt(contextText, question),
		Stream: &stream,
	}

	var answer string
	err := s.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		answer += resp.Response
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generation request failed: %w", err)
	}
	if answer == "" {
		return "", errors.New("ollama returned an empty response")
	}
	return answer, nil
}

func (s *OllamaService) Close() error { return nil }
