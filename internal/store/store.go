// Package store holds the snapshot backends the engine saves through. Every
// backend keeps exactly one encoded game and reports an empty slot as
// game.ErrNoSnapshot.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ratrace/internal/db"
	"ratrace/internal/game"
)

type Kind string

const (
	KindFile     Kind = "file"
	KindPostgres Kind = "postgres"
	KindRedis    Kind = "redis"
)

func ParseKind(v string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(v))); k {
	case "":
		return KindFile, nil
	case KindFile, KindPostgres, KindRedis:
		return k, nil
	default:
		return "", fmt.Errorf("unknown store %q (want file, postgres or redis)", v)
	}
}

// Options selects and addresses the snapshot backend.
type Options struct {
	Kind          Kind
	SavePath      string
	DatabaseURL   string
	SaveSlot      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string
}

// Open builds the configured backend. The returned close func releases
// any pool or client it opened. Postgres schemas are migrated first.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (game.Store, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() {}
	switch opts.Kind {
	case KindPostgres:
		if err := db.Migrate(opts.DatabaseURL); err != nil {
			return nil, noop, err
		}
		pool, err := db.Connect(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("snapshot store ready", "store", opts.Kind, "slot", opts.SaveSlot)
		return NewPostgres(pool, opts.SaveSlot), pool.Close, nil
	case KindRedis:
		client, err := DialRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("snapshot store ready", "store", opts.Kind, "addr", opts.RedisAddr, "key", opts.RedisKey)
		return NewRedis(client, opts.RedisKey), func() { _ = client.Close() }, nil
	case KindFile, "":
		f, err := NewFile(opts.SavePath)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("snapshot store ready", "store", KindFile, "path", f.Path())
		return f, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown store %q", opts.Kind)
	}
}
