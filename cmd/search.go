package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lectern-dev/lectern/internal/chunker"
	"github.com/lectern-dev/lectern/internal/retrieval"
)

var (
	flagSearchTopK    int
	flagSearchSubject string
	flagSearchType    string
	flagSearchFileID  int64
	flagSearchGrouped bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search stored chunks by similarity",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		logger := newLogger()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		store, pool, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer pool.Close()

		embedder, err := newEmbedder(ctx, cfg, logger)
		if err != nil {
			return err
		}

		engine := retrieval.New(store, embedder, logger)

		opts := []retrieval.Option{retrieval.WithTopK(flagSearchTopK)}
		if flagSearchSubject != "" {
			opts = append(opts, retrieval.WithSubject(flagSearchSubject))
		}
		if flagSearchType != "" {
			ft, err := chunker.ParseFileType(flagSearchType)
			if err != nil {
				return err
			}
			opts = append(opts, retrieval.WithFileType(ft))
		}
		if flagSearchFileID > 0 {
			opts = append(opts, retrieval.WithFile(flagSearchFileID))
		}

		if flagSearchGrouped {
			groups, err := engine.RetrieveGrouped(ctx, query, opts...)
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				fmt.Println("No matches.")
				return nil
			}
			for _, g := range groups {
				fmt.Printf("file %d (best %.4f)\n", g.FileID, g.Results[0].Score)
				for _, r := range g.Results {
					printResult(r)
				}
			}
			return nil
		}

		results, err := engine.Retrieve(ctx, query, opts...)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for _, r := range results {
			printResult(r)
		}
		return nil
	},
}

func printResult(r retrieval.Result) {
	label := r.Chunk.SectionLabel
	if label == "" {
		label = fmt.Sprintf("chunk_%d", r.Chunk.ChunkIndex)
	}
	preview := r.Chunk.Content
	if len(preview) > 160 {
		preview = preview[:160] + "..."
	}
	fmt.Printf("  [%.4f] file=%d %s: %s\n", r.Score, r.Chunk.FileID, label, preview)
}

func init() {
	searchCmd.Flags().IntVar(&flagSearchTopK, "top-k", retrieval.DefaultTopK, "number of results")
	searchCmd.Flags().StringVar(&flagSearchSubject, "subject", "", "restrict to a subject code")
	searchCmd.Flags().StringVar(&flagSearchType, "type", "", "restrict to a source file type")
	searchCmd.Flags().Int64Var(&flagSearchFileID, "file-id", 0, "restrict to one document")
	searchCmd.Flags().BoolVar(&flagSearchGrouped, "grouped", false, "group results by document")
	rootCmd.AddCommand(searchCmd)
}
