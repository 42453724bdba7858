package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lectern-dev/lectern/internal/chunker"
	"github.com/lectern-dev/lectern/internal/config"
	"github.com/lectern-dev/lectern/internal/ingest"
	"github.com/lectern-dev/lectern/internal/role"
)

var (
	flagIngestRole    string
	flagIngestFileID  int64
	flagIngestSubject string
	flagIngestType    string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <text-file>...",
	Short: "Ingest documents into the chunk store",
	Long: `Chunk, embed, and store one or more documents. Input files must be
extracted plain text; the file type (taken from --type or the original
extension) picks the chunking strategy.

Re-ingesting a file id replaces its previous chunks atomically.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := role.Parse(flagIngestRole)
		if err != nil {
			return err
		}
		if !r.CanIngest() {
			return fmt.Errorf("role %q may not ingest documents", r)
		}
		if len(args) > 1 && flagIngestFileID != 0 {
			return fmt.Errorf("--file-id only applies to a single input file")
		}

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

		pipeline := ingest.New(store, embedder, newChunker(cfg), ingest.Options{
			Retry: ingest.RetryConfig{
				MaxRetries:      cfg.EmbedMaxRetries,
				InitialInterval: cfg.EmbedInitialInterval,
				MaxInterval:     cfg.EmbedMaxInterval,
			},
			Concurrency: cfg.EmbedConcurrency,
		}, logger)

		reqs := make([]ingest.Request, 0, len(args))
		for i, path := range args {
			req, err := buildRequest(path, int64(i))
			if err != nil {
				return err
			}
			reqs = append(reqs, req)
		}

		total, err := pipeline.IngestAll(ctx, reqs)
		if err != nil {
			return fmt.Errorf("ingestion finished with failures (%d chunks stored): %w", total, err)
		}
		fmt.Printf("Stored %d chunks from %d file(s)\n", total, len(reqs))
		return nil
	},
}

// buildRequest reads one input file and derives its ingestion request.
// When --file-id is unset, ids are assigned sequentially from the
// argument order.
func buildRequest(path string, ordinal int64) (ingest.Request, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator's argv
	if err != nil {
		return ingest.Request{}, fmt.Errorf("read %s: %w", path, err)
	}

	typeName := flagIngestType
	if typeName == "" {
		typeName = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	ft, err := chunker.ParseFileType(typeName)
	if err != nil {
		return ingest.Request{}, fmt.Errorf("%s: %w (override with --type)", path, err)
	}

	fileID := flagIngestFileID
	if fileID == 0 {
		fileID = ordinal + 1
	}

	return ingest.Request{
		FileID:      fileID,
		SubjectCode: flagIngestSubject,
		FileType:    ft,
		Text:        string(raw),
	}, nil
}

// newChunker builds the splitter from the configured per-type windows.
func newChunker(cfg *config.Config) *chunker.Chunker {
	return chunker.New(chunker.Config{
		Dense: chunker.Window{Size: cfg.DenseChunkSize, Overlap: cfg.DenseChunkOverlap},
		Slide: chunker.Window{Size: cfg.SlideChunkSize, Overlap: cfg.SlideChunkOverlap},
		Plain: chunker.Window{Size: cfg.PlainChunkSize, Overlap: cfg.PlainChunkOverlap},
	})
}

func init() {
	ingestCmd.Flags().StringVar(&flagIngestRole, "role", string(role.Student), "acting role (student|faculty|admin)")
	ingestCmd.Flags().Int64Var(&flagIngestFileID, "file-id", 0, "file id for a single input (0 = assign from argument order)")
	ingestCmd.Flags().StringVar(&flagIngestSubject, "subject", "", "subject code attached to every chunk")
	ingestCmd.Flags().StringVar(&flagIngestType, "type", "", "source file type (pdf|pptx|docx|txt|csv|image), default from extension")
	rootCmd.AddCommand(ingestCmd)
}
