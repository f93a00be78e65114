package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"ratrace/internal/game"
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres keeps one row per save slot in game_snapshots. The schema comes
// from db.Migrate.
type Postgres struct {
	db   querier
	slot string
}

func NewPostgres(db querier, slot string) *Postgres {
	if slot == "" {
		slot = "default"
	}
	return &Postgres{db: db, slot: slot}
}

func (p *Postgres) Load(ctx context.Context) ([]byte, error) {
	var data string
	err := p.db.QueryRow(ctx, `SELECT data::text FROM game_snapshots WHERE slot = $1`, p.slot).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, game.ErrNoSnapshot
		}
		return nil, fmt.Errorf("load slot %s: %w", p.slot, err)
	}
	return []byte(data), nil
}

func (p *Postgres) Save(ctx context.Context, data []byte) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO game_snapshots (slot, version, data, saved_at)
		VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (slot) DO UPDATE
		SET version = EXCLUDED.version, data = EXCLUDED.data, saved_at = EXCLUDED.saved_at
	`, p.slot, game.SnapshotVersion, string(data))
	if err != nil {
		return fmt.Errorf("save slot %s: %w", p.slot, err)
	}
	return nil
}
