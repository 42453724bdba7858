// Package faults defines the error taxonomy shared across the retrieval core.
//
// Categories:
//   - ValidationError: malformed input, rejected before anything is persisted
//   - EmbeddingError: the embedding provider failed or returned a bad vector
//   - IngestionError: a pipeline stage failed; partial writes are rolled back
//   - MigrationError: schema creation or legacy copy failed
//   - ErrStorageUnavailable: transient storage failure, safe to retry
//
// Callers classify with errors.As / errors.Is:
//
//	var verr *faults.ValidationError
//	if errors.As(err, &verr) { ... }
package faults

import (
	"errors"
	"fmt"
)

// ErrStorageUnavailable marks a transient storage failure during retrieval.
// Distinct from an empty result set, which is a valid success.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ValidationError reports malformed input: empty content, wrong embedding
// dimension, a duplicate chunk index, or an invalid k. Nothing is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NewValidation builds a ValidationError for the given field.
func NewValidation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// EmbeddingError reports a failure of the external embedding provider:
// unreachable, timed out, or a vector of the wrong dimension. Dimension
// mismatches are never truncated or padded; they surface here.
type EmbeddingError struct {
	Reason string
	Err    error
}

func (e *EmbeddingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("embedding failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("embedding failed: %s", e.Reason)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// NewEmbedding wraps err as an EmbeddingError with a short reason.
func NewEmbedding(reason string, err error) *EmbeddingError {
	return &EmbeddingError{Reason: reason, Err: err}
}

// IngestionError reports a pipeline failure. Stage identifies where the
// pipeline stopped; by the time the caller sees this error any partially
// written chunks for the file have been rolled back.
type IngestionError struct {
	FileID int64
	Stage  string
	Err    error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion of file %d failed at stage %s: %v", e.FileID, e.Stage, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// MigrationError reports a failed migration run. The target table is either
// fully absent or in a state that is safe to retry.
type MigrationError struct {
	Step string
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration step %q failed: %v", e.Step, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }
