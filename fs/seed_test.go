package fs_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/bggcrawl"
	"github.com/fwojciec/bggcrawl/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadField(t *testing.T) {
	t.Parallel()

	t.Run("reads JSON lines", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, t.TempDir(), "games.jl", `{"bgg_id": 13, "name": "CATAN"}
{"bgg_id": "822"}

{"name": "no id"}
{"bgg_id": 30549}
`)
		values, err := fs.ReadField(path, "bgg_id", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"13", "822", "30549"}, values)
	})

	t.Run("skips unparseable lines with a warning", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		path := writeFile(t, t.TempDir(), "games.jsonl", `{"bgg_id": 13}
not json
{"bgg_id": 822}
`)
		values, err := fs.ReadField(path, "bgg_id", logger)
		require.NoError(t, err)
		assert.Equal(t, []string{"13", "822"}, values)
		assert.Contains(t, buf.String(), "skipping unparseable JSON line")
		assert.Contains(t, buf.String(), "line=2")
	})

	t.Run("reads CSV", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, t.TempDir(), "users.csv", "bgg_user_name,rating\nAlice,8\nbob,\n,7\n")
		values, err := fs.ReadField(path, "bgg_user_name", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice", "bob"}, values)
	})

	t.Run("returns nothing for missing column", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, t.TempDir(), "users.csv", "name\nAlice\n")
		values, err := fs.ReadField(path, "bgg_user_name", nil)
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("skips missing files", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		values, err := fs.ReadField(filepath.Join(t.TempDir(), "missing.jl"), "bgg_id", logger)
		require.NoError(t, err)
		assert.Empty(t, values)
		assert.Contains(t, buf.String(), "skipping non-existing file")
	})

	t.Run("skips unsupported files", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		path := writeFile(t, t.TempDir(), "games.txt", "13\n")
		values, err := fs.ReadField(path, "bgg_id", logger)
		require.NoError(t, err)
		assert.Empty(t, values)
		assert.Contains(t, buf.String(), "skipping unsupported file")
	})

	t.Run("returns error for malformed CSV", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, t.TempDir(), "users.csv", "bgg_user_name\nal\"ice\n")
		_, err := fs.ReadField(path, "bgg_user_name", nil)
		require.Error(t, err)
	})
}

func TestReadGameIDs(t *testing.T) {
	t.Parallel()

	t.Run("merges files and resolves URLs", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		jl := writeFile(t, dir, "games.jl", `{"bgg_id": 822}
{"bggId": 13}
{"url": "https://boardgamegeek.com/boardgame/30549/pandemic"}
{"url": "https://example.com/nothing"}
{"bgg_id": 0}
`)
		csv := writeFile(t, dir, "games.csv", "bgg_id,name\n13,CATAN\n174430,Gloomhaven\n")

		ids, err := fs.ReadGameIDs(nil, jl, csv, filepath.Join(dir, "missing.jl"))
		require.NoError(t, err)
		assert.Equal(t, []bggcrawl.EntityID{13, 822, 30549, 174430}, ids)
	})

	t.Run("returns nothing without files", func(t *testing.T) {
		t.Parallel()

		ids, err := fs.ReadGameIDs(nil)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestReadUserNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jl := writeFile(t, dir, "users.jl", `{"bgg_user_name": "Markus Shepherd"}
{"bggUserName": "alice"}
`)
	csv := writeFile(t, dir, "users.csv", "bgg_user_name\nALICE\n bob \n")

	names, err := fs.ReadUserNames(nil, jl, csv)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "markus shepherd"}, names)
}
