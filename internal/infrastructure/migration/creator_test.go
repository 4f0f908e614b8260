package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/migrations"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add orders table", "add_orders_table"},
		{"Add-Orders-Table", "add_orders_table"},
		{"ADD_ORDERS_TABLE", "add_orders_table"},
		{"add__orders__table", "add_orders_table"},
		{"Add Index 123", "add_index_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	t.Run("first migration is version 1", func(t *testing.T) {
		dir := t.TempDir()

		mf, err := CreateMigration(dir, "create orders", "Orders and shipments")
		require.NoError(t, err)

		assert.Equal(t, uint(1), mf.Version)
		assert.Equal(t, filepath.Join(dir, "000001_create_orders.up.sql"), mf.UpPath)
		assert.Equal(t, filepath.Join(dir, "000001_create_orders.down.sql"), mf.DownPath)

		up, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(up), "-- create_orders")
		assert.Contains(t, string(up), "-- Orders and shipments")
		assert.FileExists(t, mf.DownPath)
	})

	t.Run("numbers after the highest existing version", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_old.up.sql"), nil, 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_old.down.sql"), nil, 0o644))

		mf, err := CreateMigration(dir, "add index", "")
		require.NoError(t, err)
		assert.Equal(t, uint(8), mf.Version)
	})

	t.Run("creates the directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "migrations")

		_, err := CreateMigration(dir, "x", "")
		require.NoError(t, err)
		assert.DirExists(t, dir)
	})

	t.Run("rejects a name without usable characters", func(t *testing.T) {
		_, err := CreateMigration(t.TempDir(), "!!!", "")
		assert.Error(t, err)
	})
}

func TestListMigrations(t *testing.T) {
	t.Run("orders by version and pairs directions", func(t *testing.T) {
		fsys := fstest.MapFS{
			"000002_second.up.sql":   {},
			"000001_first.up.sql":    {},
			"000001_first.down.sql":  {},
			"000010_tenth.up.sql":    {},
			"README.md":              {},
			"notaversion_x.up.sql":   {},
			"sub/000003_skip.up.sql": {},
		}

		got, err := ListMigrations(fsys)
		require.NoError(t, err)
		assert.Equal(t, []MigrationInfo{
			{Version: 1, Name: "first", HasDown: true},
			{Version: 2, Name: "second"},
			{Version: 10, Name: "tenth"},
		}, got)
	})

	t.Run("missing directory is empty", func(t *testing.T) {
		got, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "absent")))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("embedded schema is complete", func(t *testing.T) {
		got, err := ListMigrations(migrations.FS)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		for i, m := range got {
			assert.Equal(t, uint(i+1), m.Version, "versions are contiguous")
			assert.True(t, m.HasDown, "%06d_%s has a down migration", m.Version, m.Name)
		}
	})
}
