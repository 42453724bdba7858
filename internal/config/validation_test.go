package config

import (
	"errors"
	"testing"
	"time"
)

// validConfig returns a configuration that passes Validate.
func validConfig() *Config {
	return &Config{
		PostgresHost:         "localhost",
		PostgresPort:         5432,
		PostgresUser:         "lectern",
		PostgresPassword:     "secret",
		PostgresDBName:       "lectern",
		PostgresSSLMode:      "disable",
		EmbedderProvider:     "ollama",
		EmbedderModel:        "all-minilm",
		OllamaHost:           "http://localhost:11434",
		EmbeddingDimension:   384,
		EmbedTimeout:         DefaultEmbedTimeout,
		EmbedRatePerSecond:   10,
		DenseChunkSize:       500,
		DenseChunkOverlap:    100,
		SlideChunkSize:       800,
		SlideChunkOverlap:    50,
		PlainChunkSize:       1000,
		PlainChunkOverlap:    150,
		EmbedMaxRetries:      3,
		EmbedInitialInterval: 500 * time.Millisecond,
		EmbedMaxInterval:     10 * time.Second,
		EmbedConcurrency:     4,
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() on valid config failed: %v", err)
	}
}

func TestValidateNilConfig(t *testing.T) {
	var cfg *Config
	if err := cfg.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Errorf("expected ErrConfigNil, got %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "unknown embedder provider",
			mutate:  func(c *Config) { c.EmbedderProvider = "openai" },
			wantErr: ErrInvalidEmbedderProvider,
		},
		{
			name:    "zero dimension",
			mutate:  func(c *Config) { c.EmbeddingDimension = 0 },
			wantErr: ErrInvalidDimension,
		},
		{
			name:    "dimension above ivfflat cap",
			mutate:  func(c *Config) { c.EmbeddingDimension = MaxEmbeddingDimension + 1 },
			wantErr: ErrInvalidDimension,
		},
		{
			name:    "empty host",
			mutate:  func(c *Config) { c.PostgresHost = "" },
			wantErr: ErrInvalidPostgresHost,
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.PostgresPort = 70000 },
			wantErr: ErrInvalidPostgresPort,
		},
		{
			name:    "empty database name",
			mutate:  func(c *Config) { c.PostgresDBName = "" },
			wantErr: ErrInvalidPostgresDBName,
		},
		{
			name:    "deprecated ssl mode",
			mutate:  func(c *Config) { c.PostgresSSLMode = "prefer" },
			wantErr: ErrInvalidPostgresSSLMode,
		},
		{
			name:    "chunk size zero",
			mutate:  func(c *Config) { c.DenseChunkSize = 0 },
			wantErr: ErrInvalidChunkSize,
		},
		{
			name:    "chunk size above cap",
			mutate:  func(c *Config) { c.PlainChunkSize = MaxChunkBytes + 1 },
			wantErr: ErrInvalidChunkSize,
		},
		{
			name:    "overlap equals size",
			mutate:  func(c *Config) { c.SlideChunkOverlap = c.SlideChunkSize },
			wantErr: ErrInvalidChunkOverlap,
		},
		{
			name:    "negative overlap",
			mutate:  func(c *Config) { c.DenseChunkOverlap = -1 },
			wantErr: ErrInvalidChunkOverlap,
		},
		{
			name:    "too many retries",
			mutate:  func(c *Config) { c.EmbedMaxRetries = 11 },
			wantErr: ErrInvalidRetryBudget,
		},
		{
			name:    "max interval below initial",
			mutate:  func(c *Config) { c.EmbedMaxInterval = 100 * time.Millisecond },
			wantErr: ErrInvalidRetryBudget,
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.EmbedConcurrency = 0 },
			wantErr: ErrInvalidConcurrency,
		},
		{
			name:    "excessive concurrency",
			mutate:  func(c *Config) { c.EmbedConcurrency = 128 },
			wantErr: ErrInvalidConcurrency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
