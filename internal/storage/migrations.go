package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration. Queries use the
// {{timestamp}} and {{real}} type markers, resolved per dialect.
type Migration struct {
	Description string
	Queries     []string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial record tables",
		Queries: []string{
			`CREATE TABLE IF NOT EXISTS expenses (
				id TEXT PRIMARY KEY,
				amount {{real}} NOT NULL DEFAULT 0,
				category TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				emotion TEXT NOT NULL DEFAULT '',
				is_essential BOOLEAN,
				record_date TEXT NOT NULL,
				summary TEXT NOT NULL DEFAULT '',
				confidence {{real}} NOT NULL DEFAULT 0,
				source TEXT NOT NULL DEFAULT 'text',
				created_at {{timestamp}} NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS todos (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				kind TEXT NOT NULL,
				priority INTEGER NOT NULL DEFAULT 2,
				due_date TEXT,
				due_time TEXT NOT NULL DEFAULT '',
				reminder_time {{timestamp}},
				repeat_frequency TEXT NOT NULL DEFAULT 'none',
				repeat_interval_days INTEGER NOT NULL DEFAULT 0,
				category TEXT NOT NULL,
				summary TEXT NOT NULL DEFAULT '',
				confidence {{real}} NOT NULL DEFAULT 0,
				source TEXT NOT NULL DEFAULT 'text',
				created_at {{timestamp}} NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS inventory_items (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				category TEXT NOT NULL,
				storage_zone TEXT NOT NULL,
				quantity {{real}} NOT NULL DEFAULT 1,
				unit TEXT NOT NULL,
				expiry_date TEXT,
				summary TEXT NOT NULL DEFAULT '',
				confidence {{real}} NOT NULL DEFAULT 0,
				source TEXT NOT NULL DEFAULT 'text',
				created_at {{timestamp}} NOT NULL
			)`,
		},
	},
	{
		Version:     2,
		Description: "Index records by creation time",
		Queries: []string{
			`CREATE INDEX IF NOT EXISTS idx_expenses_created_at ON expenses(created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_todos_created_at ON todos(created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_inventory_items_created_at ON inventory_items(created_at)`,
		},
	},
	{
		Version:     3,
		Description: "Index lookups used by exports and reminders",
		Queries: []string{
			`CREATE INDEX IF NOT EXISTS idx_expenses_record_date ON expenses(record_date)`,
			`CREATE INDEX IF NOT EXISTS idx_todos_reminder_time ON todos(reminder_time)`,
			`CREATE INDEX IF NOT EXISTS idx_inventory_items_expiry ON inventory_items(expiry_date)`,
		},
	},
}

func (d Dialect) typeReplacer() *strings.Replacer {
	if d == DialectPostgres {
		return strings.NewReplacer("{{timestamp}}", "TIMESTAMPTZ", "{{real}}", "DOUBLE PRECISION")
	}
	return strings.NewReplacer("{{timestamp}}", "DATETIME", "{{real}}", "REAL")
}

// Migrate applies all pending database migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.schemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	replacer := s.dialect.typeReplacer()
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		for _, query := range migration.Queries {
			if _, execErr := tx.ExecContext(ctx, replacer.Replace(query)); execErr != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d failed: %w", migration.Version, execErr)
			}
		}

		if verErr := s.setSchemaVersion(ctx, tx, migration.Version); verErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", verErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description,
			"dialect", s.dialect)
	}

	finalVersion, err := s.schemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}
	return nil
}

// SchemaVersion reports the applied schema version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	return s.schemaVersion(ctx)
}

func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	var version int
	if s.dialect == DialectSQLite {
		err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version)
		return version, err
	}

	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return 0, err
	}
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

func (s *Store) setSchemaVersion(ctx context.Context, tx *sql.Tx, version int) error {
	if s.dialect == DialectSQLite {
		_, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version))
		return err
	}
	_, err := tx.ExecContext(ctx, s.rebind("INSERT INTO schema_migrations (version) VALUES (?)"), version)
	return err
}
