package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lectern-dev/lectern/internal/chunkstore"
	"github.com/lectern-dev/lectern/internal/role"
)

var (
	flagMigrateRole   string
	flagLegacy        bool
	flagLegacyTable   string
	flagLegacyFileID  int64
	flagLegacySubject string
	flagDropLegacy    bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations",
	Long: `Apply versioned schema migrations to the configured PostgreSQL
database. Running migrate on an already-migrated database is a no-op.

With --legacy, rows from a pre-existing single-document chunk table are
copied into the current schema. The copy is idempotent: a second run
detects the migrated rows and does nothing. The legacy table is kept
unless --drop-legacy is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := role.Parse(flagMigrateRole)
		if err != nil {
			return err
		}
		if !r.CanMigrate() {
			return fmt.Errorf("role %q may not run migrations", r)
		}

		logger := newLogger()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if err := chunkstore.Migrate(cfg.PostgresURL()); err != nil {
			return err
		}
		logger.Info("schema migrations applied")

		if !flagLegacy {
			return nil
		}

		ctx := cmd.Context()
		store, pool, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer pool.Close()

		copied, err := store.MigrateLegacy(ctx, chunkstore.LegacyOptions{
			LegacyTable:    flagLegacyTable,
			DefaultFileID:  flagLegacyFileID,
			DefaultSubject: flagLegacySubject,
			DropLegacy:     flagDropLegacy,
		})
		if err != nil {
			return err
		}
		logger.Info("legacy chunks migrated", "rows", copied)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&flagMigrateRole, "role", string(role.Admin), "acting role (student|faculty|admin)")
	migrateCmd.Flags().BoolVar(&flagLegacy, "legacy", false, "also migrate a legacy chunk table")
	migrateCmd.Flags().StringVar(&flagLegacyTable, "legacy-table", chunkstore.DefaultLegacyTable, "legacy table name")
	migrateCmd.Flags().Int64Var(&flagLegacyFileID, "legacy-file-id", 1, "file id assigned to migrated rows")
	migrateCmd.Flags().StringVar(&flagLegacySubject, "legacy-subject", "", "subject code assigned to migrated rows")
	migrateCmd.Flags().BoolVar(&flagDropLegacy, "drop-legacy", false, "drop the legacy table after a successful copy")
	rootCmd.AddCommand(migrateCmd)
}
