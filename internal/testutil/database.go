// Package testutil provides shared helpers for tests that need a real record store.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/lifesort/internal/model"
	"github.com/Veraticus/lifesort/internal/storage"
)

// SetupTestStore creates a migrated in-memory SQLite store that is closed
// when the test ends.
func SetupTestStore(t *testing.T) *storage.Store {
	t.Helper()
	return setup(t, ":memory:")
}

// SetupFileStore is SetupTestStore backed by a file in the test's temp dir,
// for tests that reopen the database.
func SetupFileStore(t *testing.T) (*storage.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lifesort.db")
	return setup(t, path), path
}

func setup(t *testing.T, path string) *storage.Store {
	t.Helper()

	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// SeedRecords saves records into store or fails the test.
func SeedRecords(t *testing.T, store *storage.Store, records ...model.StoredRecord) {
	t.Helper()
	for _, rec := range records {
		if err := store.SaveRecord(context.Background(), rec); err != nil {
			t.Fatalf("failed to seed record %q: %v", rec.ID, err)
		}
	}
}
