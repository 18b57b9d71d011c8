package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendGemini = "gemini"
	BackendOllama = "ollama"
	BackendNone   = "none"
)

type Config struct {
	HTTPPort    string `yaml:"http_port"`
	LogLevel    string `yaml:"log_level"`
	DatabaseURL string `yaml:"database_url"` // empty keeps the session in memory only

	EmbeddingURL      string `yaml:"embedding_url"`
	GenerationURL     string `yaml:"generation_url"`
	EmbedTimeoutSecs  int    `yaml:"embed_timeout_secs"`
	AnswerTimeoutSecs int    `yaml:"answer_timeout_secs"`

	ChunkSize        int     `yaml:"chunk_size"`
	TopK             int     `yaml:"top_k"`
	EmbedConcurrency int     `yaml:"embed_concurrency"`
	EmbedRPS         float64 `yaml:"embed_rps"` // 0 disables pacing
	MaxUploadMB      int     `yaml:"max_upload_mb"`

	ProviderBackend      string `yaml:"provider_backend"`
	GeminiAPIKey         string `yaml:"gemini_api_key"`
	GeminiEmbeddingModel string `yaml:"gemini_embedding_model"`
	GeminiChatModel      string `yaml:"gemini_chat_model"`
	OllamaEmbeddingModel string `yaml:"ollama_embedding_model"`
	OllamaChatModel      string `yaml:"ollama_chat_model"`
}

// EmbedTimeout is the per-request timeout of the embedding client.
func (c Config) EmbedTimeout() time.Duration {
	return time.Duration(c.EmbedTimeoutSecs) * time.Second
}

// AnswerTimeout is the per-request timeout of the answer client.
func (c Config) AnswerTimeout() time.Duration {
	return time.Duration(c.AnswerTimeoutSecs) * time.Second
}

// MaxUploadBytes bounds the multipart body of a document upload.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func Defaults() Config {
	return Config{
		HTTPPort:             "8080",
		LogLevel:             "INFO",
		EmbedTimeoutSecs:     30,
		AnswerTimeoutSecs:    60,
		ChunkSize:            500,
		TopK:                 5,
		EmbedConcurrency:     4,
		EmbedRPS:             25, // 40ms between embedding calls
		MaxUploadMB:          32,
		ProviderBackend:      BackendGemini,
		GeminiEmbeddingModel: "text-embedding-004",
		GeminiChatModel:      "gemini-1.5-flash-latest",
		OllamaEmbeddingModel: "nomic-embed-text",
		OllamaChatModel:      "llama3.2",
	}
}

// Load builds the configuration from defaults, an optional YAML file
// (CONFIG_FILE, default config.yaml) and the environment, in that order.
// A .env file is loaded into the environment first when present.
func Load() (Config, error) {
	_ = godotenv.Load() // Load .env file if it exists

	cfg := Defaults()
	path := getEnv("CONFIG_FILE", "config.yaml")
	if err := loadFile(path, &cfg); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)

	if cfg.EmbeddingURL == "" {
		cfg.EmbeddingURL = fmt.Sprintf("http://localhost:%s/api/embed", cfg.HTTPPort)
	}
	if cfg.GenerationURL == "" {
		cfg.GenerationURL = fmt.Sprintf("http://localhost:%s/api/generate", cfg.HTTPPort)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)

	cfg.EmbeddingURL = getEnv("EMBEDDING_URL", cfg.EmbeddingURL)
	cfg.GenerationURL = getEnv("GENERATION_URL", cfg.GenerationURL)
	cfg.EmbedTimeoutSecs = getEnvAsInt("EMBED_TIMEOUT_SECS", cfg.EmbedTimeoutSecs)
	cfg.AnswerTimeoutSecs = getEnvAsInt("ANSWER_TIMEOUT_SECS", cfg.AnswerTimeoutSecs)

	cfg.ChunkSize = getEnvAsInt("CHUNK_SIZE", cfg.ChunkSize)
	cfg.TopK = getEnvAsInt("TOP_K", cfg.TopK)
	cfg.EmbedConcurrency = getEnvAsInt("EMBED_CONCURRENCY", cfg.EmbedConcurrency)
	cfg.EmbedRPS = getEnvAsFloat("EMBED_RPS", cfg.EmbedRPS)
	cfg.MaxUploadMB = getEnvAsInt("MAX_UPLOAD_MB", cfg.MaxUploadMB)

	cfg.ProviderBackend = getEnv("PROVIDER_BACKEND", cfg.ProviderBackend)
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiEmbeddingModel = getEnv("GEMINI_EMBEDDING_MODEL", cfg.GeminiEmbeddingModel)
	cfg.GeminiChatModel = getEnv("GEMINI_CHAT_MODEL", cfg.GeminiChatModel)
	cfg.OllamaEmbeddingModel = getEnv("OLLAMA_EMBEDDING_MODEL", cfg.OllamaEmbeddingModel)
	cfg.OllamaChatModel = getEnv("OLLAMA_CHAT_MODEL", cfg.OllamaChatModel)
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	switch {
	case c.ChunkSize <= 0:
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	case c.TopK <= 0:
		return fmt.Errorf("TOP_K must be positive, got %d", c.TopK)
	case c.EmbedConcurrency <= 0:
		return fmt.Errorf("EMBED_CONCURRENCY must be positive, got %d", c.EmbedConcurrency)
	case c.EmbedRPS < 0:
		return fmt.Errorf("EMBED_RPS cannot be negative, got %g", c.EmbedRPS)
	case c.MaxUploadMB <= 0:
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}

	switch c.ProviderBackend {
	case BackendGemini, BackendOllama, BackendNone:
	default:
		return fmt.Errorf("unknown PROVIDER_BACKEND %q", c.ProviderBackend)
	}
	return nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}
