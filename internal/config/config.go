// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (DATABASE_URL, LECTERN_*)
//  2. Config file (~/.lectern/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - Storage: PostgreSQL connection (see storage.go)
//   - Embedding: provider model, vector dimension, timeout, rate limit
//   - Chunking: per-file-type window sizes and overlap
//   - Ingestion: retry budget and embedding concurrency
//
// Validation is fail-fast with sentinel errors so callers can use errors.Is.
// The embedding dimension is configured, never assumed: the adapter verifies
// at startup that the provider emits exactly this many dimensions.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidDimension indicates the embedding dimension is out of range.
	ErrInvalidDimension = errors.New("invalid embedding dimension")

	// ErrInvalidEmbedderProvider indicates an unknown embedding provider.
	ErrInvalidEmbedderProvider = errors.New("invalid embedder provider")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidChunkSize indicates a chunk window size is out of range.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidChunkOverlap indicates a chunk overlap is out of range.
	ErrInvalidChunkOverlap = errors.New("invalid chunk overlap")

	// ErrInvalidRetryBudget indicates the embedding retry settings are invalid.
	ErrInvalidRetryBudget = errors.New("invalid retry budget")

	// ErrInvalidConcurrency indicates the embedding concurrency is out of range.
	ErrInvalidConcurrency = errors.New("invalid embedding concurrency")
)

const (
	// DefaultEmbeddingDimension matches the all-MiniLM family of sentence
	// embedding models used by the default provider. The schema's vector
	// width is derived from this value at migration time.
	DefaultEmbeddingDimension = 384

	// MaxEmbeddingDimension bounds the configured dimension. pgvector caps
	// indexable vectors at 2000 dimensions for ivfflat.
	MaxEmbeddingDimension = 2000

	// DefaultEmbedTimeout is the per-call timeout for the embedding provider.
	DefaultEmbedTimeout = 15 * time.Second

	// MaxChunkBytes is the absolute upper bound on a chunk's content length,
	// regardless of per-type configuration. Keeps embeddings meaningful and
	// bounded in cost.
	MaxChunkBytes = 8 * 1024
)

// Config stores application configuration.
type Config struct {
	// Storage configuration (see storage.go for DSN helpers)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// Embedding configuration
	EmbedderProvider   string        `mapstructure:"embedder_provider"`
	EmbedderModel      string        `mapstructure:"embedder_model"`
	OllamaHost         string        `mapstructure:"ollama_host"`
	EmbeddingDimension int           `mapstructure:"embedding_dimension"`
	EmbedTimeout       time.Duration `mapstructure:"embed_timeout"`
	EmbedRatePerSecond float64       `mapstructure:"embed_rate_per_second"`

	// Chunking configuration, per density class. Dense covers pdf/doc,
	// slide covers presentations, plain covers unstructured text.
	DenseChunkSize    int `mapstructure:"dense_chunk_size"`
	DenseChunkOverlap int `mapstructure:"dense_chunk_overlap"`
	SlideChunkSize    int `mapstructure:"slide_chunk_size"`
	SlideChunkOverlap int `mapstructure:"slide_chunk_overlap"`
	PlainChunkSize    int `mapstructure:"plain_chunk_size"`
	PlainChunkOverlap int `mapstructure:"plain_chunk_overlap"`

	// Ingestion configuration
	EmbedMaxRetries      int           `mapstructure:"embed_max_retries"`
	EmbedInitialInterval time.Duration `mapstructure:"embed_initial_interval"`
	EmbedMaxInterval     time.Duration `mapstructure:"embed_max_interval"`
	EmbedConcurrency     int           `mapstructure:"embed_concurrency"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".lectern")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	v.SetEnvPrefix("LECTERN")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL wins over individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// PostgreSQL defaults (matching docker-compose.yml)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "lectern")
	v.SetDefault("postgres_password", "lectern_dev_password")
	v.SetDefault("postgres_db_name", "lectern")
	v.SetDefault("postgres_ssl_mode", "disable")

	// Embedding defaults. The ollama provider serves local sentence
	// embedding models; gemini uses the Google AI API.
	v.SetDefault("embedder_provider", "ollama")
	v.SetDefault("embedder_model", "all-minilm")
	v.SetDefault("ollama_host", "http://localhost:11434")
	v.SetDefault("embedding_dimension", DefaultEmbeddingDimension)
	v.SetDefault("embed_timeout", DefaultEmbedTimeout)
	v.SetDefault("embed_rate_per_second", 10.0)

	// Chunking defaults. Dense content gets small windows, slides are
	// already short so windows are larger, plain text larger still.
	v.SetDefault("dense_chunk_size", 500)
	v.SetDefault("dense_chunk_overlap", 100)
	v.SetDefault("slide_chunk_size", 800)
	v.SetDefault("slide_chunk_overlap", 50)
	v.SetDefault("plain_chunk_size", 1000)
	v.SetDefault("plain_chunk_overlap", 150)

	// Ingestion defaults
	v.SetDefault("embed_max_retries", 3)
	v.SetDefault("embed_initial_interval", 500*time.Millisecond)
	v.SetDefault("embed_max_interval", 10*time.Second)
	v.SetDefault("embed_concurrency", 4)
}
