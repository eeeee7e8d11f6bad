package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, Validate())
}

func TestOffersMigrationContainsSchema(t *testing.T) {
	matches, err := fs.Glob(Migrations(), "*_create_offers_tables.sql")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := fs.ReadFile(Migrations(), matches[0])
	require.NoError(t, err)
	content := string(data)

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS offers",
		"CREATE TABLE IF NOT EXISTS offer_scopes",
		"REFERENCES offers(id) ON DELETE CASCADE",
		"PRIMARY KEY (offer_id, kind, value)",
		"CREATE INDEX IF NOT EXISTS idx_offer_scopes_kind_value",
		"offers_window_ck",
		"offers_payload_ck",
	} {
		require.Contains(t, content, sub)
	}
}

func TestValidateFSRejectsBadFiles(t *testing.T) {
	good := "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"
	cases := map[string]fstest.MapFS{
		"bad name": {
			"create_offers.sql": {Data: []byte(good)},
		},
		"duplicate version": {
			"20261001090000_a.sql": {Data: []byte(good)},
			"20261001090000_b.sql": {Data: []byte(good)},
		},
		"missing down": {
			"20261001090000_a.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")},
		},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			require.Error(t, ValidateFS(fsys))
		})
	}

	require.NoError(t, ValidateFS(fstest.MapFS{
		"20261001090000_a.sql": {Data: []byte(good)},
		"README.md":            {Data: []byte("ignored")},
	}))
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

	path, err := CreateSQLMigration(dir, " Add Offer Badges! ", now)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "20261015093000_add_offer_badges.sql"), path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(body), "-- +goose Up"))
	require.NoError(t, ValidateFS(os.DirFS(dir)))

	_, err = CreateSQLMigration(dir, "add offer badges", now)
	require.Error(t, err)

	_, err = CreateSQLMigration(dir, "!!!", now)
	require.Error(t, err)
}
