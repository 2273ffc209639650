package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "lifesort.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Zero(t, version)

	require.NoError(t, store.Migrate(ctx))
	version, err = store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	require.NoError(t, reopened.Migrate(ctx), "migrating twice is a no-op")

	for _, table := range []string{"expenses", "todos", "inventory_items"} {
		var name string
		err := reopened.db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestMigrationsAreOrdered(t *testing.T) {
	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.Queries)
	}
	assert.Equal(t, len(migrations), ExpectedSchemaVersion)
}

func TestDialectTypes(t *testing.T) {
	q := "a {{timestamp}} b {{real}}"
	assert.Equal(t, "a DATETIME b REAL", DialectSQLite.typeReplacer().Replace(q))
	assert.Equal(t, "a TIMESTAMPTZ b DOUBLE PRECISION", DialectPostgres.typeReplacer().Replace(q))
}

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		in      string
		want    string
	}{
		{"sqlite untouched", DialectSQLite, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{"postgres numbered", DialectPostgres, "INSERT INTO t (a, b) VALUES (?, ?)", "INSERT INTO t (a, b) VALUES ($1, $2)"},
		{"quoted marks kept", DialectPostgres, "SELECT '?' FROM t WHERE a = ?", "SELECT '?' FROM t WHERE a = $1"},
		{"no placeholders", DialectPostgres, "SELECT 1", "SELECT 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rebind(tt.dialect, tt.in))
		})
	}
}

func TestOpen(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x")
	require.Error(t, err)

	store, err := Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	assert.Equal(t, DialectSQLite, store.Dialect())

	_, err = NewPostgresStore(context.Background(), " ")
	assert.ErrorIs(t, err, ErrEmptyString)
}
