package config

import (
	"fmt"
	"slices"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.EmbedderProvider != "ollama" && c.EmbedderProvider != "gemini" {
		return fmt.Errorf("%w: %q is not valid, must be ollama or gemini",
			ErrInvalidEmbedderProvider, c.EmbedderProvider)
	}

	// Embedding dimension. The value here only states the expectation; the
	// embedding adapter probes the provider at startup and refuses to run if
	// the provider emits a different width.
	if c.EmbeddingDimension < 1 || c.EmbeddingDimension > MaxEmbeddingDimension {
		return fmt.Errorf("%w: must be between 1 and %d, got %d",
			ErrInvalidDimension, MaxEmbeddingDimension, c.EmbeddingDimension)
	}

	// PostgreSQL configuration
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}

	// Modern SSL modes only - exclude deprecated allow/prefer.
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	// Chunking windows. Overlap must leave forward progress.
	for _, w := range []struct {
		name          string
		size, overlap int
	}{
		{"dense", c.DenseChunkSize, c.DenseChunkOverlap},
		{"slide", c.SlideChunkSize, c.SlideChunkOverlap},
		{"plain", c.PlainChunkSize, c.PlainChunkOverlap},
	} {
		if w.size < 1 || w.size > MaxChunkBytes {
			return fmt.Errorf("%w: %s_chunk_size must be between 1 and %d, got %d",
				ErrInvalidChunkSize, w.name, MaxChunkBytes, w.size)
		}
		if w.overlap < 0 || w.overlap >= w.size {
			return fmt.Errorf("%w: %s_chunk_overlap must be in [0, %s_chunk_size), got %d",
				ErrInvalidChunkOverlap, w.name, w.name, w.overlap)
		}
	}

	// Retry budget
	if c.EmbedMaxRetries < 0 || c.EmbedMaxRetries > 10 {
		return fmt.Errorf("%w: embed_max_retries must be between 0 and 10, got %d",
			ErrInvalidRetryBudget, c.EmbedMaxRetries)
	}
	if c.EmbedInitialInterval <= 0 || c.EmbedMaxInterval < c.EmbedInitialInterval {
		return fmt.Errorf("%w: intervals must satisfy 0 < initial <= max (initial=%s max=%s)",
			ErrInvalidRetryBudget, c.EmbedInitialInterval, c.EmbedMaxInterval)
	}

	if c.EmbedConcurrency < 1 || c.EmbedConcurrency > 64 {
		return fmt.Errorf("%w: must be between 1 and 64, got %d",
			ErrInvalidConcurrency, c.EmbedConcurrency)
	}

	return nil
}
