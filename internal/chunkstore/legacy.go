package chunkstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lectern-dev/lectern/internal/faults"
)

// DefaultLegacyTable is the single-purpose table the generalized layout
// replaced. It held only content and embedding, implicitly one PDF per
// deployment, with insertion order standing in for chunk order.
const DefaultLegacyTable = "pdf_chunks"

// LegacyOptions configures the legacy copy.
type LegacyOptions struct {
	// LegacyTable is the source table name. Empty means DefaultLegacyTable.
	LegacyTable string

	// DefaultFileID is assigned to every copied row. Legacy rows carried no
	// document identity, so the whole table becomes one document. Required.
	DefaultFileID int64

	// DefaultSubject is an optional subject_code for the copied rows.
	DefaultSubject string

	// DropLegacy drops the legacy table after a successful copy. Dropping
	// is never implicit; leaving the legacy table in place keeps the
	// migration reversible by inspection.
	DropLegacy bool
}

// MigrateLegacy copies rows from the legacy single-purpose table into
// doc_chunks, applying the defaulting rules: every row receives
// DefaultFileID, file_type "pdf", and a chunk_index synthesized from the
// original insertion order. The whole copy runs in one transaction.
//
// The procedure is idempotent: a missing legacy table, or a doc_chunks
// table that already holds rows for DefaultFileID, makes the run a no-op.
// It returns the number of rows copied.
func (s *Store) MigrateLegacy(ctx context.Context, opts LegacyOptions) (int64, error) {
	if opts.DefaultFileID <= 0 {
		return 0, &faults.MigrationError{Step: "legacy",
			Err: fmt.Errorf("DefaultFileID must be positive, got %d", opts.DefaultFileID)}
	}
	table := opts.LegacyTable
	if table == "" {
		table = DefaultLegacyTable
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, &faults.MigrationError{Step: "legacy", Err: err}
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Existence checks drive idempotence; nothing is ever overwritten.
	var legacyExists bool
	if err := tx.QueryRow(ctx,
		`SELECT to_regclass($1) IS NOT NULL`, table).Scan(&legacyExists); err != nil {
		return 0, &faults.MigrationError{Step: "legacy", Err: err}
	}
	if !legacyExists {
		s.logger.Debug("no legacy table, nothing to migrate", "table", table)
		return 0, nil
	}

	var alreadyMigrated bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM doc_chunks WHERE file_id = $1)`,
		opts.DefaultFileID).Scan(&alreadyMigrated); err != nil {
		return 0, &faults.MigrationError{Step: "legacy", Err: err}
	}
	if alreadyMigrated {
		s.logger.Debug("legacy rows already migrated", "file_id", opts.DefaultFileID)
		return 0, nil
	}

	src := pgx.Identifier{table}.Sanitize()

	// Refuse to copy anything that would violate the doc_chunks invariants.
	// A legacy row with an empty body or a malformed embedding means the
	// legacy data needs repair before migration, not silent dropping.
	var malformed int64
	checkSQL := fmt.Sprintf(`
		SELECT count(*) FROM %s
		WHERE content IS NULL OR btrim(content) = ''
		   OR embedding IS NULL OR vector_dims(embedding) <> $1`, src)
	if err := tx.QueryRow(ctx, checkSQL, s.dim).Scan(&malformed); err != nil {
		return 0, &faults.MigrationError{Step: "legacy", Err: err}
	}
	if malformed > 0 {
		return 0, &faults.MigrationError{Step: "legacy",
			Err: fmt.Errorf("%d legacy rows have empty content or wrong embedding dimension", malformed)}
	}

	copySQL := fmt.Sprintf(`
		INSERT INTO doc_chunks (file_id, subject_code, content, embedding, chunk_index, file_type)
		SELECT $1, $2, content, embedding, row_number() OVER (ORDER BY id) - 1, 'pdf'
		FROM %s`, src)
	tag, err := tx.Exec(ctx, copySQL, opts.DefaultFileID, nullText(opts.DefaultSubject))
	if err != nil {
		return 0, &faults.MigrationError{Step: "legacy", Err: err}
	}

	if opts.DropLegacy {
		if _, err := tx.Exec(ctx, fmt.Sprintf(`DROP TABLE %s`, src)); err != nil {
			return 0, &faults.MigrationError{Step: "legacy", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &faults.MigrationError{Step: "legacy", Err: err}
	}

	s.logger.Info("legacy chunks migrated",
		"table", table, "rows", tag.RowsAffected(), "file_id", opts.DefaultFileID)
	return tag.RowsAffected(), nil
}
