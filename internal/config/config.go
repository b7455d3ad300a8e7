package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port             int               `json:"port"`
	LogConfig        logger.LogConfig  `json:"log_config"`
	UploadDir        string            `json:"upload_dir"`
	ChunkMaxChars    int               `json:"chunk_max_chars"`
	RateLimitMS      int               `json:"rate_limit_ms"`
	CORSAllowOrigins []string          `json:"cors_allow_origins"`
	VectorStore      VectorStoreConfig `json:"vector_store"`
	AI               AIConfig          `json:"ai"`
	Query            QueryConfig       `json:"query"`
}

type VectorStoreConfig struct {
	Type       string         `json:"type"`
	Collection string         `json:"collection"`
	Dimension  int            `json:"dimension"`
	Qdrant     QdrantConfig   `json:"qdrant"`
	Postgres   PostgresConfig `json:"postgres"`
}

type QdrantConfig struct {
	URL        string `json:"url"`
	APIKey     string `json:"api_key"`
	TimeoutSec int    `json:"timeout_sec"`
}

type PostgresConfig struct {
	DSN string `json:"dsn"`
}

type AIConfig struct {
	Provider   string `json:"provider"`
	APIKey     string `json:"api_key"`
	BaseURL    string `json:"base_url"`
	Model      string `json:"model"`
	EmbedModel string `json:"embed_model"`
}

type QueryConfig struct {
	DefaultTopK int `json:"default_top_k"`
	// ShortCircuitEmptyContext skips the language model when retrieval yields
	// no contexts and returns a fixed answer instead. Off by default: the
	// model may still answer from general knowledge.
	ShortCircuitEmptyContext bool `json:"short_circuit_empty_context"`
	CacheTTLMinutes          int  `json:"cache_ttl_minutes"`
}

// ProviderArgs shapes the ai block for the provider factory.
func (c AIConfig) ProviderArgs() map[string]interface{} {
	return map[string]interface{}{
		"api_key":  c.APIKey,
		"base_url": c.BaseURL,
	}
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.ChunkMaxChars == 0 {
		cfg.ChunkMaxChars = 1000
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "qdrant"
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "docs"
	}
	if cfg.VectorStore.Qdrant.URL == "" {
		cfg.VectorStore.Qdrant.URL = os.Getenv("QDRANT_URL")
	}
	if cfg.VectorStore.Qdrant.APIKey == "" {
		cfg.VectorStore.Qdrant.APIKey = os.Getenv("QDRANT_API_KEY")
	}
	if cfg.VectorStore.Postgres.DSN == "" {
		cfg.VectorStore.Postgres.DSN = os.Getenv("DATABASE_URL")
	}
	switch cfg.VectorStore.Type {
	case "qdrant":
		if cfg.VectorStore.Qdrant.URL == "" {
			return nil, fmt.Errorf("vector_store.qdrant.url is required for qdrant store")
		}
	case "pgvector":
		if cfg.VectorStore.Postgres.DSN == "" {
			return nil, fmt.Errorf("vector_store.postgres.dsn is required for pgvector store")
		}
	case "memory":
	default:
		return nil, fmt.Errorf("vector_store.type must be qdrant, pgvector or memory")
	}
	if cfg.VectorStore.Dimension <= 0 {
		return nil, fmt.Errorf("vector_store.dimension is required and must match the embedding model")
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "gemini"
	}
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gemini-2.5-flash"
	}
	if cfg.AI.EmbedModel == "" {
		cfg.AI.EmbedModel = "text-embedding-004"
	}
	if cfg.Query.DefaultTopK <= 0 {
		cfg.Query.DefaultTopK = 5
	}
	if cfg.Query.CacheTTLMinutes <= 0 {
		cfg.Query.CacheTTLMinutes = 120
	}
	return &cfg, nil
}
