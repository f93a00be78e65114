package store

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratrace/internal/db"
	"ratrace/internal/game"
)

type fakeRow struct {
	data string
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.data
	return nil
}

// fakeSlots answers the two statements Postgres issues from a map.
type fakeSlots struct {
	rows    map[string]string
	execErr error
}

func (f *fakeSlots) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	data, ok := f.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{data: data}
}

func (f *fakeSlots) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	if !strings.Contains(sql, "INSERT INTO game_snapshots") {
		return pgconn.CommandTag{}, errors.New("unexpected statement")
	}
	f.rows[args[0].(string)] = args[2].(string)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestPostgresStoreSlots(t *testing.T) {
	ctx := context.Background()
	fake := &fakeSlots{rows: map[string]string{}}
	a := NewPostgres(fake, "")
	b := NewPostgres(fake, "second")

	_, err := a.Load(ctx)
	require.ErrorIs(t, err, game.ErrNoSnapshot)

	require.NoError(t, a.Save(ctx, []byte(`{"version":1}`)))
	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(got))
	_, err = b.Load(ctx)
	assert.ErrorIs(t, err, game.ErrNoSnapshot)

	require.NoError(t, a.Save(ctx, []byte(`{"version":1,"cycle":2}`)))
	got, err = a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"version":1,"cycle":2}`, string(got))

	fake.execErr = errors.New("connection reset")
	assert.ErrorContains(t, a.Save(ctx, []byte(`{}`)), "save slot default")
}

func TestPostgresStoreIntegration(t *testing.T) {
	url := os.Getenv("RATRACE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("RATRACE_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	require.NoError(t, db.Migrate(url))
	require.NoError(t, db.Migrate(url))

	pool, err := db.Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	p := NewPostgres(pool, "store-test")
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM game_snapshots WHERE slot = $1`, "store-test")
	})

	require.NoError(t, p.Save(ctx, []byte(`{"version":1,"player":{"id":"p"}}`)))
	got, err := p.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"player":{"id":"p"}}`, string(got))
}
