// Package ingest orchestrates chunking, embedding, and persistence for one
// document at a time.
//
// A run moves through pending -> chunking -> embedding -> persisting ->
// done, with failed reachable from any stage. Persistence is a single
// atomic replace, so a failed run leaves zero new chunks visible and a
// query concurrent with ingestion sees either nothing or the full set for
// the file. Ingestion of different files may proceed in parallel; a second
// ingestion of the same file while one is in flight is rejected.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lectern-dev/lectern/internal/chunker"
	"github.com/lectern-dev/lectern/internal/chunkstore"
	"github.com/lectern-dev/lectern/internal/embedding"
	"github.com/lectern-dev/lectern/internal/faults"
)

// ChunkWriter is the slice of the chunk store the pipeline needs.
type ChunkWriter interface {
	ReplaceFileChunks(ctx context.Context, fileID int64, chunks []chunkstore.NewChunk) error
	BulkDeleteByFile(ctx context.Context, fileID int64) (int64, error)
}

// Request describes one document to ingest. Text is already-extracted
// plain text; parsing binary formats happens upstream.
type Request struct {
	FileID      int64
	SubjectCode string
	FileType    chunker.FileType
	Text        string
	Hints       chunker.Hints
}

// Pipeline ingests documents. Safe for concurrent use; same-file runs are
// serialized internally.
type Pipeline struct {
	store       ChunkWriter
	embedder    embedding.Embedder
	splitter    *chunker.Chunker
	retry       RetryConfig
	concurrency int
	logger      *slog.Logger

	mu       sync.Mutex
	inflight map[int64]struct{}
}

// Options configures a Pipeline.
type Options struct {
	// Retry is the embedding retry budget. Zero value means defaults.
	Retry RetryConfig

	// Concurrency bounds parallel embedding calls per run. Zero means 4.
	Concurrency int
}

// New creates a Pipeline. logger may be nil.
func New(store ChunkWriter, embedder embedding.Embedder, splitter *chunker.Chunker, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Retry == (RetryConfig{}) {
		opts.Retry = DefaultRetryConfig()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}

	return &Pipeline{
		store:       store,
		embedder:    embedder,
		splitter:    splitter,
		retry:       opts.Retry,
		concurrency: opts.Concurrency,
		logger:      logger,
		inflight:    make(map[int64]struct{}),
	}
}

// acquire reserves the file for this run. At most one ingestion per
// file_id may be in flight; concurrent re-ingestion is rejected, not
// queued, so two writers can never interleave chunk sets.
func (p *Pipeline) acquire(fileID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.inflight[fileID]; busy {
		return &faults.IngestionError{FileID: fileID, Stage: string(StagePending),
			Err: errors.New("ingestion already in flight for this file")}
	}
	p.inflight[fileID] = struct{}{}
	return nil
}

func (p *Pipeline) release(fileID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inflight, fileID)
}

// Ingest chunks, embeds, and persists one document, returning the number
// of chunks written. Re-ingesting a file replaces its chunk set wholesale.
// On failure at any stage nothing new is visible for the file and the
// returned IngestionError names the failing stage.
func (p *Pipeline) Ingest(ctx context.Context, req Request) (int, error) {
	if req.FileID <= 0 {
		return 0, faults.NewValidation("file_id", "must be positive, got %d", req.FileID)
	}
	if !req.FileType.Valid() {
		return 0, faults.NewValidation("file_type", "unsupported file type %q", req.FileType)
	}

	if err := p.acquire(req.FileID); err != nil {
		return 0, err
	}
	defer p.release(req.FileID)

	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID, "file_id", req.FileID, "file_type", req.FileType)
	logger.Debug("ingestion started", "stage", StagePending)

	// Chunking
	logger.Debug("stage transition", "stage", StageChunking)
	segments, err := p.splitter.Split(req.Text, req.FileType, req.Hints)
	if err != nil {
		return 0, p.fail(logger, req.FileID, StageChunking, err)
	}
	if len(segments) == 0 {
		// Nothing extractable. Re-ingestion of a now-empty document still
		// replaces the old set, so stale chunks do not linger.
		if _, err := p.store.BulkDeleteByFile(ctx, req.FileID); err != nil {
			return 0, p.fail(logger, req.FileID, StagePersisting, err)
		}
		logger.Info("ingestion complete, document yielded no segments", "stage", StageDone)
		return 0, nil
	}

	// Embedding
	logger.Debug("stage transition", "stage", StageEmbedding, "segments", len(segments))
	chunks, err := p.embedSegments(ctx, req, segments)
	if err != nil {
		return 0, p.fail(logger, req.FileID, StageEmbedding, err)
	}

	// Persisting: one atomic replace is the visibility boundary.
	logger.Debug("stage transition", "stage", StagePersisting)
	if err := p.store.ReplaceFileChunks(ctx, req.FileID, chunks); err != nil {
		return 0, p.fail(logger, req.FileID, StagePersisting, err)
	}

	logger.Info("ingestion complete", "stage", StageDone, "chunks", len(chunks))
	return len(chunks), nil
}

// embedSegments embeds all segments with bounded parallelism, preserving
// segment order as chunk_index order. Each call gets the bounded retry
// budget; the first exhausted budget cancels the rest.
func (p *Pipeline) embedSegments(ctx context.Context, req Request, segments []chunker.Segment) ([]chunkstore.NewChunk, error) {
	chunks := make([]chunkstore.NewChunk, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, seg := range segments {
		g.Go(func() error {
			var vec []float32
			err := withRetry(gctx, p.retry, func() error {
				var embedErr error
				vec, embedErr = p.embedder.Embed(gctx, seg.Content)
				return embedErr
			})
			if err != nil {
				return fmt.Errorf("segment %d: %w", i, err)
			}

			chunks[i] = chunkstore.NewChunk{
				FileID:       req.FileID,
				SubjectCode:  req.SubjectCode,
				Content:      seg.Content,
				Embedding:    vec,
				ChunkIndex:   int32(i),
				FileType:     req.FileType,
				SectionLabel: seg.SectionLabel,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// fail rolls back any partial writes for the file and wraps err with the
// failing stage. Persistence is atomic, so the rollback is a safety net
// for failures after a partially applied replace (e.g. commit timeout
// with unknown outcome).
func (p *Pipeline) fail(logger *slog.Logger, fileID int64, stage Stage, err error) error {
	logger.Error("ingestion failed", "stage", stage, "error", err)

	if stage == StagePersisting {
		// Outcome of the replace may be unknown; delete so the file never
		// exposes a partial set. Deletion failure is logged but the
		// original error is what the caller needs.
		rollbackCtx, cancel := context.WithTimeout(context.Background(), queryRollbackTimeout)
		defer cancel()
		if _, delErr := p.store.BulkDeleteByFile(rollbackCtx, fileID); delErr != nil {
			logger.Error("rollback delete failed", "error", delErr)
		}
	}

	return &faults.IngestionError{FileID: fileID, Stage: string(stage), Err: err}
}

// queryRollbackTimeout bounds the rollback delete after a failed persist.
const queryRollbackTimeout = 30 * time.Second

// IngestAll ingests many documents, independent files in parallel. It
// returns the total number of chunks written across successful files and
// the joined errors of failed ones; one bad document does not stop the
// batch.
func (p *Pipeline) IngestAll(ctx context.Context, reqs []Request) (int, error) {
	var (
		mu    sync.Mutex
		total int
		errs  []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for _, req := range reqs {
		g.Go(func() error {
			n, err := p.Ingest(gctx, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			total += n
			return nil
		})
	}

	_ = g.Wait()
	return total, errors.Join(errs...)
}
