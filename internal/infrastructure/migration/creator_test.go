package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendorbill/backend/migrations"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add receivables table", "add_receivables_table"},
		{"Add-Payment-Index", "add_payment_index"},
		{"ADD_USED_NUMBERS", "add_used_numbers"},
		{"add__used__numbers", "add_used_numbers"},
		{"Add Column 123", "add_column_123"},
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
	dir := t.TempDir()
	now := time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)

	mf, err := createMigrationAt(dir, "add reminder index", "Index notifications by receivable", now)
	require.NoError(t, err)

	assert.Equal(t, "20260402103000", mf.Version)
	assert.Equal(t, filepath.Join(dir, "20260402103000_add_reminder_index.up.sql"), mf.UpPath)
	assert.True(t, strings.HasSuffix(mf.DownPath, "_add_reminder_index.down.sql"))

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add reminder index")
	assert.Contains(t, string(up), "Index notifications by receivable")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(Rollback)")
}

func TestCreateMigration_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)

	_, err := createMigrationAt(dir, "same", "", now)
	require.NoError(t, err)
	_, err = createMigrationAt(dir, "same", "", now)
	assert.Error(t, err)
}

func TestCreateMigration_EmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	source := fstest.MapFS{
		"20260301090000_init.up.sql":   {Data: []byte("")},
		"20260301090000_init.down.sql": {Data: []byte("")},
		"20260115080000_seed.up.sql":   {Data: []byte("")},
		"README.md":                    {Data: []byte("")},
		"notaversion_thing.up.sql":     {Data: []byte("")},
		"20260401000000_next.down.sql": {Data: []byte("")},
		"sub/20260501000000_x.up.sql":  {Data: []byte("")},
	}

	infos, err := ListMigrations(source)
	require.NoError(t, err)
	require.Len(t, infos, 3)

	assert.Equal(t, Info{Version: 20260115080000, Name: "20260115080000_seed"}, infos[0])
	assert.Equal(t, Info{Version: 20260301090000, Name: "20260301090000_init", HasDown: true}, infos[1])
	assert.Equal(t, uint64(20260401000000), infos[2].Version)

	assert.Equal(t, []string{"20260301090000_init", "20260401000000_next"}, pendingAfter(infos, 20260115080000))
	assert.Empty(t, pendingAfter(infos, 20260401000000))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	infos, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, infos)
	for _, info := range infos {
		assert.True(t, info.HasDown, "%s has no down migration", info.Name)
	}
}
