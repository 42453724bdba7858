package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information (injected at build time via ldflags)
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Lectern %s\n", AppVersion)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

		cfg, err := loadConfig()
		if err != nil {
			// Version must work even with a broken config.
			fmt.Printf("\nConfiguration: %v\n", err)
			return nil
		}

		fmt.Println("\nConfiguration:")
		fmt.Printf("  Embedder: %s (%s)\n", cfg.EmbedderModel, cfg.EmbedderProvider)
		fmt.Printf("  Embedding dimension: %d\n", cfg.EmbeddingDimension)
		fmt.Printf("  Database: %s:%d/%s\n", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDBName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
