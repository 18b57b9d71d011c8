package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"gwi.com/docqa/internal/logger"
)

const (
	DefaultGeminiEmbeddingModel = "text-embedding-004"
	DefaultGeminiChatModel      = "gemini-1.5-flash-latest"
)

// Backend is a model provider behind the embed and generate endpoints.
type Backend interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Generate(ctx context.Context, contextText, question string) (string, error)
	Close() error
}

// BuildAnswerPrompt wraps the retrieved context and the question into the
// single user turn sent to a chat model.
func BuildAnswerPrompt(contextText, question string) string {
	var promptBuilder strings.Builder
	if strings.TrimSpace(contextText) != "" {
		promptBuilder.WriteString("Based on the following information from the uploaded documents:\n")
		promptBuilder.WriteString("--- CONTEXT START ---\n")
		promptBuilder.WriteString(contextText)
		promptBuilder.WriteString("\n--- CONTEXT END ---\n\n")
	} else {
		promptBuilder.WriteString("No document context is available.\n\n")
	}
	promptBuilder.WriteString("User question: ")
	promptBuilder.WriteString(question)
	return promptBuilder.String()
}

// LLMService is the Gemini backend.
type LLMService struct {
	client         *genai.Client
	embeddingModel string
	chatModel      string
}

func NewLLMService(ctx context.Context, apiKey, embeddingModel, chatModel string) (*LLMService, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required for the gemini backend")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if embeddingModel == "" {
		embeddingModel = DefaultGeminiEmbeddingModel
	}
	if chatModel == "" {
		chatModel = DefaultGeminiChatModel
	}
	return &LLMService{
		client:         client,
		embeddingModel: embeddingModel,
		chatModel:      chatModel,
	}, nil
}

func (s *LLMService) Close() error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("closing GenAI client: %w", err)
	}
	logger.Info("GenAI client closed")
	return nil
}

func (s *LLMService) Embed(ctx context.Context, text string) ([]float32, error) {
	em := s.client.EmbeddingModel(s.embeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}

	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, errors.New("no embedding data received from gemini")
	}
	return res.Embedding.Values, nil
}

func (s *LLMService) Generate(ctx context.Context, contextText, question string) (string, error) {
	model := s.client.GenerativeModel(s.chatModel)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(AnswerSystemDirective)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(BuildAnswerPrompt(contextText, question)))
	if err != nil {
		return "", fmt.Errorf("gemini generation request failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini response was empty or had no valid candidates")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			logger.Debug("Skipping non-text gemini response part", zap.String("type", fmt.Sprintf("%T", part)))
		}
	}

	if strings.TrimSpace(responseText.String()) == "" {
		return "", errors.New("gemini response had no text")
	}
	return responseText.String(), nil
}

// BackendEmbedder calls a Backend in process, degrading like EmbeddingClient.
type BackendEmbedder struct {
	Backend Backend
}

func (e BackendEmbedder) Embed(ctx context.Context, text string) Embedding {
	vec, err := e.Backend.Embed(ctx, text)
	if err != nil {
		logger.Warn("Embedding unavailable", zap.Error(err))
		return Unavailable()
	}
	return Available(vec)
}

// BackendAnswerer calls a Backend in process, degrading like AnswerClient.
type BackendAnswerer struct {
	Backend Backend
}

func (a BackendAnswerer) Answer(ctx context.Context, contextText, question string) (string, bool) {
	text, err := a.Backend.Generate(ctx, contextText, question)
	if err != nil || strings.TrimSpace(text) == "" {
		logger.Warn("Answer generation failed, using fallback", zap.Error(err))
		return FallbackAnswer, false
	}
	return text, true
}
