// Package retrieval answers similarity queries over the chunk store.
package retrieval

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/lectern-dev/lectern/internal/chunker"
	"github.com/lectern-dev/lectern/internal/chunkstore"
	"github.com/lectern-dev/lectern/internal/embedding"
	"github.com/lectern-dev/lectern/internal/faults"
)

// DefaultTopK is the result count when no WithTopK option is given.
const DefaultTopK = 5

// Searcher is the slice of the chunk store the engine needs.
type Searcher interface {
	Query(ctx context.Context, vector []float32, f chunkstore.Filters, k int) ([]chunkstore.Match, error)
}

// Result is one ranked hit. Score is 1 minus cosine distance, so higher
// means more similar and identical direction scores 1.
type Result struct {
	Chunk chunkstore.Chunk
	Score float64
}

// Option narrows or sizes a retrieval.
type Option func(*params)

type params struct {
	topK    int
	subject *string
	ftype   *chunker.FileType
	fileID  *int64
}

// WithTopK sets the number of results to return.
func WithTopK(k int) Option {
	return func(p *params) { p.topK = k }
}

// WithSubject restricts results to chunks carrying the subject code.
func WithSubject(code string) Option {
	return func(p *params) { p.subject = &code }
}

// WithFileType restricts results to chunks of one source file type.
func WithFileType(ft chunker.FileType) Option {
	return func(p *params) { p.ftype = &ft }
}

// WithFile restricts results to chunks of one document.
func WithFile(fileID int64) Option {
	return func(p *params) { p.fileID = &fileID }
}

// Engine embeds a query and ranks stored chunks against it.
type Engine struct {
	store    Searcher
	embedder embedding.Embedder
	logger   *slog.Logger
}

// New creates an Engine. logger may be nil.
func New(store Searcher, embedder embedding.Embedder, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, embedder: embedder, logger: logger}
}

// Retrieve embeds query and returns up to k chunks ranked by similarity,
// best first. Filters never widen: a filtered retrieval returns only
// matching chunks even when fewer than k exist, and an empty store yields
// an empty slice, not an error.
func (e *Engine) Retrieve(ctx context.Context, query string, opts ...Option) ([]Result, error) {
	p := params{topK: DefaultTopK}
	for _, opt := range opts {
		opt(&p)
	}
	if p.topK <= 0 {
		return nil, faults.NewValidation("top_k", "must be positive, got %d", p.topK)
	}
	if p.ftype != nil && !p.ftype.Valid() {
		return nil, faults.NewValidation("file_type", "unsupported file type %q", *p.ftype)
	}

	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := e.store.Query(ctx, vec, chunkstore.Filters{
		SubjectCode: p.subject,
		FileType:    p.ftype,
		FileID:      p.fileID,
	}, p.topK)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{Chunk: m.Chunk, Score: 1 - m.Distance}
	}
	sortResults(results)

	e.logger.Debug("retrieval complete", "top_k", p.topK, "hits", len(results))
	return results, nil
}

// scoreEpsilon treats scores within this tolerance as tied, so float noise
// in the distance computation cannot flip the deterministic order.
const scoreEpsilon = 1e-9

// sortResults orders by score descending, breaking ties by (file_id,
// chunk_index) ascending. The store already returns this order; re-sorting
// keeps the contract independent of the backend.
func sortResults(rs []Result) {
	sort.SliceStable(rs, func(i, j int) bool {
		di := rs[i].Score - rs[j].Score
		if math.Abs(di) > scoreEpsilon {
			return di > 0
		}
		if rs[i].Chunk.FileID != rs[j].Chunk.FileID {
			return rs[i].Chunk.FileID < rs[j].Chunk.FileID
		}
		return rs[i].Chunk.ChunkIndex < rs[j].Chunk.ChunkIndex
	})
}

// DocumentHits groups a document's best-ranked chunks.
type DocumentHits struct {
	FileID  int64
	Results []Result // score descending, as ranked
}

// RetrieveGrouped runs Retrieve and groups the hits by document, documents
// ordered by their best hit. Useful for "which files discuss X" answers.
func (e *Engine) RetrieveGrouped(ctx context.Context, query string, opts ...Option) ([]DocumentHits, error) {
	results, err := e.Retrieve(ctx, query, opts...)
	if err != nil {
		return nil, err
	}

	var (
		order  []int64
		byFile = make(map[int64][]Result)
	)
	for _, r := range results {
		if _, seen := byFile[r.Chunk.FileID]; !seen {
			order = append(order, r.Chunk.FileID)
		}
		byFile[r.Chunk.FileID] = append(byFile[r.Chunk.FileID], r)
	}

	grouped := make([]DocumentHits, 0, len(order))
	for _, fid := range order {
		grouped = append(grouped, DocumentHits{FileID: fid, Results: byFile[fid]})
	}
	return grouped, nil
}
