package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gwi.com/docqa/internal/config"
	"gwi.com/docqa/internal/core"
	"gwi.com/docqa/internal/logger"
	"gwi.com/docqa/internal/store"
)

// app holds everything a command needs; close releases it.
type app struct {
	session *core.SessionService
	backend core.Backend // nil when PROVIDER_BACKEND=none
	db      *store.SQLiteStore
}

func (a *app) close() {
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			logger.Error("Error closing provider backend", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logger.Error("Error closing database", zap.Error(err))
		}
	}
}

func newBackend(ctx context.Context, cfg config.Config) (core.Backend, error) {
	switch cfg.ProviderBackend {
	case config.BackendGemini:
		return core.NewLLMService(ctx, cfg.GeminiAPIKey, cfg.GeminiEmbeddingModel, cfg.GeminiChatModel)
	case config.BackendOllama:
		return core.NewOllamaServiceFromEnvironment(cfg.OllamaEmbeddingModel, cfg.OllamaChatModel)
	default:
		return nil, nil
	}
}

// newApp wires the session. With inProcess set, a configured backend is
// called directly instead of through the embed and generate URLs.
func newApp(ctx context.Context, cfg config.Config, inProcess bool) (*app, error) {
	a := &app{}

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.backend = backend

	var (
		embedder core.Embedder = core.NewEmbeddingClient(cfg.EmbeddingURL, cfg.EmbedTimeout())
		answerer core.Answerer = core.NewAnswerClient(cfg.GenerationURL, cfg.AnswerTimeout())
	)
	if inProcess && backend != nil {
		embedder = core.BackendEmbedder{Backend: backend}
		answerer = core.BackendAnswerer{Backend: backend}
	}

	opts := []core.SessionOption{core.WithChunkSize(cfg.ChunkSize)}
	if cfg.DatabaseURL != "" {
		db, err := store.NewSQLiteStore(cfg.DatabaseURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.db = db
		opts = append(opts, core.WithRepository(db))
	}

	a.session = core.NewSessionService(
		core.NewRAGService(embedder, answerer, cfg.TopK),
		core.NewEmbedPool(embedder, cfg.EmbedConcurrency, cfg.EmbedRPS),
		opts...,
	)

	if err := a.session.Restore(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func requireDatabase(cfg config.Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL must be set; without it nothing outlives this command")
	}
	return nil
}
