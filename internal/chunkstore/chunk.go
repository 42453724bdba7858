package chunkstore

import (
	"time"

	"github.com/lectern-dev/lectern/internal/chunker"
)

// Chunk is the atomic retrieval unit: a span of document text with its
// embedding and positional metadata. Chunks are immutable once created;
// corrections happen by re-ingesting the owning document, never by editing
// a row.
type Chunk struct {
	ID           int64
	FileID       int64
	SubjectCode  string // optional classification label; empty means none
	Content      string
	Embedding    []float32
	ChunkIndex   int32
	FileType     chunker.FileType
	SectionLabel string // advisory locator (page_1, slide_3, a heading)
	CreatedAt    time.Time
}

// NewChunk carries the fields of a chunk being created. ID and CreatedAt
// are assigned by the store.
type NewChunk struct {
	FileID       int64
	SubjectCode  string
	Content      string
	Embedding    []float32
	ChunkIndex   int32
	FileType     chunker.FileType
	SectionLabel string
}

// Filters narrows a vector query with optional equality filters. Nil fields
// are ignored.
type Filters struct {
	SubjectCode *string
	FileType    *chunker.FileType
	FileID      *int64
}

// Match is one ranked query result. Distance is the cosine distance of the
// chunk's embedding from the query vector; lower is more similar.
type Match struct {
	Chunk    Chunk
	Distance float64
}
