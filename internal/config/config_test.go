package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points CONFIG_FILE at a temp location and runs the test from a
// directory without a .env file.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "config.yaml"))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, "http://localhost:8080/api/embed", cfg.EmbeddingURL)
	assert.Equal(t, "http://localhost:8080/api/generate", cfg.GenerationURL)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := isolate(t)
	yamlDoc := "http_port: \"9090\"\nchunk_size: 250\ntop_k: 3\nprovider_backend: ollama\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yamlDoc), 0o644))
	t.Setenv("TOP_K", "7")
	t.Setenv("EMBED_RPS", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 250, cfg.ChunkSize)
	assert.Equal(t, 7, cfg.TopK, "environment wins over the file")
	assert.Equal(t, BackendOllama, cfg.ProviderBackend)
	assert.Equal(t, float64(0), cfg.EmbedRPS)
	assert.Equal(t, "http://localhost:9090/api/embed", cfg.EmbeddingURL)
}

func TestLoad_InvalidEnvIntKeepsDefault(t *testing.T) {
	isolate(t)
	t.Setenv("CHUNK_SIZE", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.ChunkSize)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("chunk_size: [1, 2"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero chunk size", mutate: func(c *Config) { c.ChunkSize = 0 }},
		{name: "zero top k", mutate: func(c *Config) { c.TopK = 0 }},
		{name: "zero concurrency", mutate: func(c *Config) { c.EmbedConcurrency = 0 }},
		{name: "negative rps", mutate: func(c *Config) { c.EmbedRPS = -1 }},
		{name: "zero upload", mutate: func(c *Config) { c.MaxUploadMB = 0 }},
		{name: "unknown backend", mutate: func(c *Config) { c.ProviderBackend = "openai" }},
	}

	require.NoError(t, Defaults().Validate())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
