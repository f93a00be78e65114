package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratrace/internal/game"
)

func TestFileStoreEmpty(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "nested", "save.json"))
	require.NoError(t, err)

	_, err = f.Load(context.Background())
	assert.ErrorIs(t, err, game.ErrNoSnapshot)

	require.NoError(t, os.WriteFile(f.Path(), nil, 0o600))
	_, err = f.Load(context.Background())
	assert.ErrorIs(t, err, game.ErrNoSnapshot)
}

func TestFileStoreSaveReplaces(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f, err := NewFile(filepath.Join(dir, "save.json"))
	require.NoError(t, err)

	require.NoError(t, f.Save(ctx, []byte(`{"version":1}`)))
	require.NoError(t, f.Save(ctx, []byte(`{"version":2}`)))

	got, err := f.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":2}`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	info, err := entries[0].Info()
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreBacksEngine(t *testing.T) {
	ctx := context.Background()
	f, err := NewFile(filepath.Join(t.TempDir(), "save.json"))
	require.NoError(t, err)

	e := game.NewEngine(f, nil, game.Options{Seed: 3})
	e.Load(ctx)
	_, err = e.NewGame(ctx, game.NewGameInput{RoleID: "engineer", GoalID: "retire_early", Name: "Quinn"})
	require.NoError(t, err)
	e.Refresh(ctx)

	again := game.NewEngine(f, nil, game.Options{Seed: 4})
	again.Load(ctx)
	assert.Equal(t, e.Dashboard().Player, again.Dashboard().Player)
	assert.Equal(t, e.Dashboard().Accounts, again.Dashboard().Accounts)
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		err  bool
	}{
		{in: "", want: KindFile},
		{in: "file", want: KindFile},
		{in: " Redis ", want: KindRedis},
		{in: "postgres", want: KindPostgres},
		{in: "s3", err: true},
	}
	for _, tc := range tests {
		got, err := ParseKind(tc.in)
		if tc.err {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestOpenFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slot.json")
	s, closeFn, err := Open(context.Background(), Options{Kind: KindFile, SavePath: path}, nil)
	require.NoError(t, err)
	defer closeFn()

	f, ok := s.(*File)
	require.True(t, ok)
	assert.Equal(t, path, f.Path())

	_, _, err = Open(context.Background(), Options{Kind: "tape"}, nil)
	assert.Error(t, err)
}
