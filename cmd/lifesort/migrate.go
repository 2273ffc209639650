package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/lifesort/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the record store schema to the latest version.

Works against both the local SQLite store and a Postgres table store,
depending on database.driver.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetBool("status")

	driver, target := databaseTarget()
	store, err := storage.Open(ctx, driver, target)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	out := cmd.OutOrStdout()
	if status {
		fmt.Fprintf(out, "driver:  %s\ncurrent: %d\nlatest:  %d\n", store.Dialect(), current, storage.ExpectedSchemaVersion)
		return nil
	}

	slog.Info("running database migrations", "driver", store.Dialect(), "from", current, "to", storage.ExpectedSchemaVersion)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintf(out, "schema at version %d\n", storage.ExpectedSchemaVersion)
	return nil
}
