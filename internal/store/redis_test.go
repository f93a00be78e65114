package store

import (
	"context"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratrace/internal/game"
)

func TestRedisStoreLoad(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRedis(db, "ratrace:test")

	mock.ExpectGet("ratrace:test").SetVal(`{"version":1}`)
	got, err := r.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(got))

	mock.ExpectGet("ratrace:test").RedisNil()
	_, err = r.Load(context.Background())
	assert.ErrorIs(t, err, game.ErrNoSnapshot)

	mock.ExpectGet("ratrace:test").SetErr(redis.TxFailedErr)
	_, err = r.Load(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, game.ErrNoSnapshot)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreSave(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRedis(db, "")

	mock.ExpectSet("ratrace:save:default", `{"version":1}`, 0).SetVal("OK")
	require.NoError(t, r.Save(context.Background(), []byte(`{"version":1}`)))

	mock.ExpectSet("ratrace:save:default", `{}`, 0).SetErr(redis.TxFailedErr)
	assert.Error(t, r.Save(context.Background(), []byte(`{}`)))

	assert.NoError(t, mock.ExpectationsWereMet())
}
