package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"vector_store": {"type": "memory", "dimension": 768}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, "uploads", cfg.UploadDir)
	require.Equal(t, 1000, cfg.ChunkMaxChars)
	require.Equal(t, "docs", cfg.VectorStore.Collection)
	require.Equal(t, "gemini", cfg.AI.Provider)
	require.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
	require.Equal(t, "text-embedding-004", cfg.AI.EmbedModel)
	require.Equal(t, 5, cfg.Query.DefaultTopK)
	require.Equal(t, 120, cfg.Query.CacheTTLMinutes)
}

func TestLoadRequiresPort(t *testing.T) {
	path := writeConfig(t, `{"vector_store": {"type": "memory", "dimension": 768}}`)
	_, err := Load(path)
	require.ErrorContains(t, err, "port")
}

func TestLoadRequiresDimension(t *testing.T) {
	path := writeConfig(t, `{"port": 8080, "vector_store": {"type": "memory"}}`)
	_, err := Load(path)
	require.ErrorContains(t, err, "dimension")
}

func TestLoadRejectsUnknownStoreType(t *testing.T) {
	path := writeConfig(t, `{"port": 8080, "vector_store": {"type": "chroma", "dimension": 768}}`)
	_, err := Load(path)
	require.ErrorContains(t, err, "vector_store.type")
}

func TestLoadRequiresQdrantURL(t *testing.T) {
	t.Setenv("QDRANT_URL", "")
	path := writeConfig(t, `{"port": 8080, "vector_store": {"type": "qdrant", "dimension": 768}}`)
	_, err := Load(path)
	require.ErrorContains(t, err, "qdrant.url")
}

func TestLoadEnvFallbacks(t *testing.T) {
	t.Setenv("QDRANT_URL", "http://localhost:6333")
	t.Setenv("QDRANT_API_KEY", "qk")
	t.Setenv("GEMINI_API_KEY", "gk")
	path := writeConfig(t, `{"port": 8080, "vector_store": {"type": "qdrant", "dimension": 768}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:6333", cfg.VectorStore.Qdrant.URL)
	require.Equal(t, "qk", cfg.VectorStore.Qdrant.APIKey)
	require.Equal(t, "gk", cfg.AI.APIKey)
}
