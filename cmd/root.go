// Package cmd wires the lectern CLI: schema migration, document
// ingestion, and similarity search over the chunk store.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"

	"github.com/lectern-dev/lectern/internal/chunkstore"
	"github.com/lectern-dev/lectern/internal/config"
	"github.com/lectern-dev/lectern/internal/embedding"
	logpkg "github.com/lectern-dev/lectern/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "lectern",
	Short: "Lectern - course document retrieval",
	Long: `Lectern stores course documents as embedded chunks in PostgreSQL
and answers similarity queries over them.

Run "lectern migrate" once to prepare the schema, "lectern ingest" to add
documents, and "lectern search" to query them.`,
	SilenceUsage: true,
}

var (
	flagVerbose bool
	flagJSONLog bool
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLog, "json-log", false, "emit logs as JSON")
}

// newLogger builds the process logger from the persistent flags.
func newLogger() logpkg.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return logpkg.New(logpkg.Config{Level: level, JSON: flagJSONLog})
}

// loadConfig loads and validates configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// openStore connects to PostgreSQL and verifies the deployed schema
// matches the configured embedding dimension before any data flows.
func openStore(ctx context.Context, cfg *config.Config, logger logpkg.Logger) (*chunkstore.Store, *pgxpool.Pool, error) {
	pool, err := chunkstore.NewPool(ctx, cfg.PostgresURL())
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := chunkstore.VerifySchemaDimension(ctx, pool, cfg.EmbeddingDimension); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return chunkstore.New(pool, cfg.EmbeddingDimension, logger), pool, nil
}

// newEmbedder builds the Genkit-backed embedder and probes its output
// dimension so a model/schema mismatch fails at startup, not mid-ingest.
func newEmbedder(ctx context.Context, cfg *config.Config, logger logpkg.Logger) (embedding.Embedder, error) {
	var model ai.Embedder
	switch cfg.EmbedderProvider {
	case "ollama":
		plugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g := genkit.Init(ctx, genkit.WithPlugins(plugin))
		if g == nil {
			return nil, fmt.Errorf("initializing genkit with ollama provider")
		}
		// Ollama requires explicit embedder registration (no auto-discovery).
		model = plugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
	case "gemini":
		g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, fmt.Errorf("initializing genkit with gemini provider")
		}
		model = googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", cfg.EmbedderProvider)
	}
	if model == nil {
		return nil, fmt.Errorf("embedder model %q not available", cfg.EmbedderModel)
	}

	adapter := embedding.New(embedding.NewGenkitProvider(model), embedding.Options{
		Dimension:     cfg.EmbeddingDimension,
		Timeout:       cfg.EmbedTimeout,
		RatePerSecond: cfg.EmbedRatePerSecond,
	}, logger)

	probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := adapter.VerifyDimension(probeCtx); err != nil {
		return nil, err
	}
	return adapter, nil
}
