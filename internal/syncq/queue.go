// Package syncq keeps CLI writes that could not reach the API so a later
// `ratrace sync` can resend them in order.
package syncq

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

type Command struct {
	Method         string         `json:"method"`
	Path           string         `json:"path"`
	Body           map[string]any `json:"body,omitempty"`
	IdempotencyKey string         `json:"idempotency_key"`
	QueuedAt       time.Time      `json:"queued_at"`
}

type Queue struct {
	path string
}

func Open(dir string) (*Queue, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &Queue{path: filepath.Join(dir, "queue.json")}, nil
}

func (q *Queue) Load() ([]Command, error) {
	raw, err := os.ReadFile(q.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Command{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []Command{}, nil
	}
	var out []Command
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (q *Queue) Save(commands []Command) error {
	raw, err := json.MarshalIndent(commands, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(q.path, raw, 0o600)
}

// Push appends cmd, filling in an idempotency key so a replay the server
// already applied is answered from its cache.
func (q *Queue) Push(cmd Command) (Command, error) {
	commands, err := q.Load()
	if err != nil {
		return cmd, err
	}
	if cmd.IdempotencyKey == "" {
		cmd.IdempotencyKey = uuid.NewString()
	}
	if cmd.QueuedAt.IsZero() {
		cmd.QueuedAt = time.Now().UTC()
	}
	commands = append(commands, cmd)
	return cmd, q.Save(commands)
}

type Rejected struct {
	Command Command
	Err     error
}

type ReplayResult struct {
	Sent     int
	Rejected []Rejected
	Pending  int
}

// Replay sends queued commands in order. A command the server refuses
// (permanent reports true) is dropped; any other failure stops the run and
// leaves it and everything after it queued.
func (q *Queue) Replay(ctx context.Context, send func(context.Context, Command) error, permanent func(error) bool) (ReplayResult, error) {
	var res ReplayResult
	commands, err := q.Load()
	if err != nil {
		return res, err
	}
	i := 0
	var stopErr error
	for ; i < len(commands); i++ {
		err := send(ctx, commands[i])
		if err == nil {
			res.Sent++
			continue
		}
		if permanent(err) {
			res.Rejected = append(res.Rejected, Rejected{Command: commands[i], Err: err})
			continue
		}
		stopErr = err
		break
	}
	remaining := commands[i:]
	res.Pending = len(remaining)
	if err := q.Save(remaining); err != nil {
		return res, err
	}
	return res, stopErr
}
