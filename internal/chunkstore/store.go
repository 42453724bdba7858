// Package chunkstore persists document chunks with their embeddings in
// PostgreSQL + pgvector and answers filtered nearest-neighbor queries.
//
// The store owns the doc_chunks table and its invariants: every embedding
// has exactly the configured dimension, content is never empty, and
// (file_id, chunk_index) is unique. All writes for one file go through a
// single transaction so readers observe either zero chunks or the full set
// for that file, never a partial one.
//
// Store is safe for concurrent use by multiple goroutines.
package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/lectern-dev/lectern/internal/chunker"
	"github.com/lectern-dev/lectern/internal/faults"
)

// queryTimeout bounds vector search queries so a degraded index cannot
// block callers indefinitely.
const queryTimeout = 10 * time.Second

// Store manages doc_chunks rows. The pool is passed in and owned by the
// caller; every operation acquires and releases its own connection.
type Store struct {
	pool   *pgxpool.Pool
	dim    int
	logger *slog.Logger
}

// NewPool creates a pgx pool with pgvector types registered on every
// connection.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	return pool, nil
}

// New creates a Store. dim is the embedding dimension D every stored vector
// must have. logger may be nil.
func New(pool *pgxpool.Pool, dim int, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, dim: dim, logger: logger}
}

// Dimension returns the embedding dimension the store enforces.
func (s *Store) Dimension() int { return s.dim }

// validate checks a NewChunk against the write invariants. Nothing is
// persisted when validate fails.
func (s *Store) validate(c NewChunk) error {
	if strings.TrimSpace(c.Content) == "" {
		return faults.NewValidation("content", "must not be empty")
	}
	if len(c.Embedding) != s.dim {
		return faults.NewValidation("embedding", "dimension must be %d, got %d", s.dim, len(c.Embedding))
	}
	if c.ChunkIndex < 0 {
		return faults.NewValidation("chunk_index", "must not be negative, got %d", c.ChunkIndex)
	}
	if !c.FileType.Valid() {
		return faults.NewValidation("file_type", "unsupported file type %q", c.FileType)
	}
	return nil
}

const insertChunkSQL = `
INSERT INTO doc_chunks (file_id, subject_code, content, embedding, chunk_index, file_type, section_label)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

// CreateChunk inserts a single chunk and returns its assigned id.
// Fails with ValidationError if the embedding dimension is wrong, the
// content is empty, or chunk_index collides with an existing index for the
// same file (enforced by the UNIQUE constraint).
func (s *Store) CreateChunk(ctx context.Context, c NewChunk) (int64, error) {
	if err := s.validate(c); err != nil {
		return 0, err
	}

	var id int64
	err := s.pool.QueryRow(ctx, insertChunkSQL,
		c.FileID,
		nullText(c.SubjectCode),
		c.Content,
		pgvector.NewVector(c.Embedding),
		c.ChunkIndex,
		string(c.FileType),
		nullText(c.SectionLabel),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, faults.NewValidation("chunk_index",
				"index %d already exists for file %d", c.ChunkIndex, c.FileID)
		}
		return 0, fmt.Errorf("inserting chunk for file %d: %w", c.FileID, err)
	}

	return id, nil
}

// ReplaceFileChunks atomically replaces all chunks for a file: existing
// rows are deleted and the new set inserted in one transaction. This is the
// commit point of ingestion; a reader concurrent with ReplaceFileChunks
// sees either the old set or the new set, never a mix.
func (s *Store) ReplaceFileChunks(ctx context.Context, fileID int64, chunks []NewChunk) error {
	for _, c := range chunks {
		if c.FileID != fileID {
			return faults.NewValidation("file_id",
				"chunk file_id %d does not match %d", c.FileID, fileID)
		}
		if err := s.validate(c); err != nil {
			return err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM doc_chunks WHERE file_id = $1`, fileID); err != nil {
		return fmt.Errorf("deleting chunks for file %d: %w", fileID, err)
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(insertChunkSQL,
			c.FileID,
			nullText(c.SubjectCode),
			c.Content,
			pgvector.NewVector(c.Embedding),
			c.ChunkIndex,
			string(c.FileType),
			nullText(c.SectionLabel),
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range chunks {
		var id int64
		if err := results.QueryRow().Scan(&id); err != nil {
			_ = results.Close()
			if isUniqueViolation(err) {
				return faults.NewValidation("chunk_index",
					"duplicate index within file %d", fileID)
			}
			return fmt.Errorf("inserting chunks for file %d: %w", fileID, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("closing batch for file %d: %w", fileID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing chunks for file %d: %w", fileID, err)
	}

	s.logger.Debug("replaced file chunks", "file_id", fileID, "count", len(chunks))
	return nil
}

// BulkDeleteByFile removes all chunks for a file and reports how many rows
// were deleted. It is the only way chunks are destroyed.
func (s *Store) BulkDeleteByFile(ctx context.Context, fileID int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM doc_chunks WHERE file_id = $1`, fileID)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks for file %d: %w", fileID, err)
	}

	s.logger.Debug("deleted file chunks", "file_id", fileID, "count", tag.RowsAffected())
	return tag.RowsAffected(), nil
}

const listByFileSQL = `
SELECT id, file_id, subject_code, content, embedding, chunk_index, file_type, section_label, created_at
FROM doc_chunks
WHERE file_id = $1
ORDER BY chunk_index`

// ListByFile returns all chunks of a file in chunk_index order.
func (s *Store) ListByFile(ctx context.Context, fileID int64) ([]Chunk, error) {
	rows, err := s.pool.Query(ctx, listByFileSQL, fileID)
	if err != nil {
		return nil, storageErr(fmt.Errorf("listing chunks for file %d: %w", fileID, err))
	}
	defer rows.Close()

	chunks := make([]Chunk, 0)
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(fmt.Errorf("reading chunks for file %d: %w", fileID, err))
	}

	return chunks, nil
}

const querySQL = `
SELECT id, file_id, subject_code, content, embedding, chunk_index, file_type, section_label, created_at,
       embedding <=> $1 AS distance
FROM doc_chunks
WHERE ($2::text IS NULL OR subject_code = $2)
  AND ($3::text IS NULL OR file_type = $3)
  AND ($4::bigint IS NULL OR file_id = $4)
ORDER BY distance, file_id, chunk_index
LIMIT $5`

// Query returns the k nearest chunks to vector by cosine distance, after
// applying the optional equality filters. Results are ordered by ascending
// distance with ties broken by (file_id, chunk_index) for determinism.
// Fewer than k candidates is not an error; all of them are returned.
func (s *Store) Query(ctx context.Context, vector []float32, f Filters, k int) ([]Match, error) {
	if k <= 0 {
		return nil, faults.NewValidation("k", "must be positive, got %d", k)
	}
	if len(vector) != s.dim {
		return nil, faults.NewValidation("vector", "dimension must be %d, got %d", s.dim, len(vector))
	}

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var fileType *string
	if f.FileType != nil {
		ft := string(*f.FileType)
		fileType = &ft
	}

	rows, err := s.pool.Query(queryCtx, querySQL,
		pgvector.NewVector(vector),
		f.SubjectCode,
		fileType,
		f.FileID,
		k,
	)
	if err != nil {
		return nil, storageErr(fmt.Errorf("vector query: %w", err))
	}
	defer rows.Close()

	matches := make([]Match, 0, k)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(fmt.Errorf("reading query results: %w", err))
	}

	return matches, nil
}

// scanChunk reads one doc_chunks row.
func scanChunk(row pgx.Row) (Chunk, error) {
	var (
		c            Chunk
		subjectCode  pgtype.Text
		embedding    pgvector.Vector
		fileType     string
		sectionLabel pgtype.Text
		createdAt    pgtype.Timestamptz
	)
	if err := row.Scan(&c.ID, &c.FileID, &subjectCode, &c.Content, &embedding,
		&c.ChunkIndex, &fileType, &sectionLabel, &createdAt); err != nil {
		return Chunk{}, fmt.Errorf("scanning chunk row: %w", err)
	}

	c.SubjectCode = subjectCode.String
	c.Embedding = embedding.Slice()
	c.FileType = chunker.FileType(fileType)
	c.SectionLabel = sectionLabel.String
	if createdAt.Valid {
		c.CreatedAt = createdAt.Time
	}
	return c, nil
}

// scanMatch reads one query row (chunk columns plus distance).
func scanMatch(row pgx.Row) (Match, error) {
	var (
		m            Match
		subjectCode  pgtype.Text
		embedding    pgvector.Vector
		fileType     string
		sectionLabel pgtype.Text
		createdAt    pgtype.Timestamptz
	)
	if err := row.Scan(&m.Chunk.ID, &m.Chunk.FileID, &subjectCode, &m.Chunk.Content,
		&embedding, &m.Chunk.ChunkIndex, &fileType, &sectionLabel, &createdAt,
		&m.Distance); err != nil {
		return Match{}, fmt.Errorf("scanning match row: %w", err)
	}

	m.Chunk.SubjectCode = subjectCode.String
	m.Chunk.Embedding = embedding.Slice()
	m.Chunk.FileType = chunker.FileType(fileType)
	m.Chunk.SectionLabel = sectionLabel.String
	if createdAt.Valid {
		m.Chunk.CreatedAt = createdAt.Time
	}
	return m, nil
}

// nullText maps the empty string onto SQL NULL.
func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// storageErr classifies read-path failures. Context cancellation belongs to
// the caller; everything else is a retryable storage condition, distinct
// from an empty result.
func storageErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", faults.ErrStorageUnavailable, err)
}
