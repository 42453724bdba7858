package chunkstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // pgx v5 driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lectern-dev/lectern/internal/faults"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate runs all pending schema migrations using golang-migrate.
// Migrations are embedded at compile time and executed in order; the
// schema_migrations table tracks what has been applied, so re-running a
// completed migration is a no-op. The procedure is additive: it never
// touches the legacy table (see MigrateLegacy).
//
// connURL must be in postgres:// or postgresql:// URL format.
func Migrate(connURL string) error {
	slog.Debug("running schema migrations")

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return &faults.MigrationError{Step: "source", Err: err}
	}

	dbURL, err := convertToMigrateURL(connURL)
	if err != nil {
		return &faults.MigrationError{Step: "url", Err: err}
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dbURL)
	if err != nil {
		return &faults.MigrationError{Step: "connect", Err: err}
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			slog.Warn("failed to close migration source", "error", srcErr)
		}
		if dbErr != nil {
			slog.Warn("failed to close migration database connection", "error", dbErr)
		}
	}()

	// A dirty state means a previous run died mid-migration; refuse to
	// continue until someone inspects the schema.
	version, dirty, verErr := m.Version()
	if verErr != nil && !errors.Is(verErr, migrate.ErrNilVersion) {
		return &faults.MigrationError{Step: "version", Err: verErr}
	}
	if dirty {
		slog.Error("database is in dirty migration state, manual intervention required",
			"version", version,
			"hint", fmt.Sprintf("inspect schema and run: migrate force %d", version))
		return &faults.MigrationError{Step: "version",
			Err: fmt.Errorf("database in dirty state (version=%d)", version)}
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Debug("no new migrations to apply")
			return nil
		}
		return &faults.MigrationError{Step: "up", Err: err}
	}

	finalVersion, finalDirty, verErr := m.Version()
	if verErr != nil {
		slog.Warn("migrations completed but version check failed", "error", verErr)
	} else {
		slog.Info("migrations completed", "version", finalVersion, "dirty", finalDirty)
	}

	return nil
}

// convertToMigrateURL converts a postgres:// or postgresql:// URL to
// pgx5:// for golang-migrate's pgx v5 driver.
func convertToMigrateURL(connURL string) (string, error) {
	u, err := url.Parse(connURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		u.Scheme = "pgx5"
		return u.String(), nil
	default:
		return "", fmt.Errorf("unsupported database URL scheme: %s (expected postgres or postgresql)", u.Scheme)
	}
}

// VerifySchemaDimension checks that the vector width declared on
// doc_chunks.embedding equals dim. The configured dimension must match
// both the schema and the embedding provider; this catches the schema
// side at startup instead of at the first failing insert.
func VerifySchemaDimension(ctx context.Context, pool *pgxpool.Pool, dim int) error {
	var typmod int
	err := pool.QueryRow(ctx, `
		SELECT atttypmod FROM pg_attribute
		WHERE attrelid = 'doc_chunks'::regclass AND attname = 'embedding'`).Scan(&typmod)
	if err != nil {
		return &faults.MigrationError{Step: "verify", Err: err}
	}

	// pgvector stores the declared dimension directly in the typmod.
	if typmod != dim {
		return &faults.MigrationError{Step: "verify",
			Err: fmt.Errorf("doc_chunks.embedding is vector(%d), configuration expects %d", typmod, dim)}
	}
	return nil
}
