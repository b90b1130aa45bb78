// Package database records finished and abandoned relay games for history.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrGameNotFound       = errors.New("no open game for room")
	ErrUnexpectedDatabase = errors.New("unexpected database error")
)

// Recorder is notified when a room starts a game and when that game ends.
type Recorder interface {
	RecordStart(ctx context.Context, roomID string, players []string) error
	RecordResult(ctx context.Context, roomID, winnerName string, turns int) error
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) RecordStart(context.Context, string, []string) error     { return nil }
func (NopRecorder) RecordResult(context.Context, string, string, int) error { return nil }

// GameRecord is one row of game history.
type GameRecord struct {
	ID         int64      `json:"id"`
	RoomID     string     `json:"roomId"`
	Players    []string   `json:"players"`
	Winner     string     `json:"winner,omitempty"`
	Turns      int        `json:"turns"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

type PostgresRecorder struct {
	pool *pgxpool.Pool
}

func NewPostgresRecorder(ctx context.Context, connString string) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRecorder{pool: pool}, nil
}

func (r *PostgresRecorder) Close() {
	r.pool.Close()
}

func (r *PostgresRecorder) RecordStart(ctx context.Context, roomID string, players []string) error {
	_, err := r.pool.Exec(ctx, "INSERT INTO games(room_code, players) VALUES($1, $2)", roomID, players)
	if err != nil {
		return wrap(err)
	}
	return nil
}

// RecordResult closes the most recent unfinished game of the room.
func (r *PostgresRecorder) RecordResult(ctx context.Context, roomID, winnerName string, turns int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE games SET winner = $2, turns = $3, finished_at = now()
		WHERE id = (
			SELECT id FROM games
			WHERE room_code = $1 AND finished_at IS NULL
			ORDER BY started_at DESC, id DESC
			LIMIT 1
		)`, roomID, winnerName, turns)
	if err != nil {
		return wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrGameNotFound, roomID)
	}
	return nil
}

// Recent returns up to limit games, newest first.
func (r *PostgresRecorder) Recent(ctx context.Context, limit int) ([]GameRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, room_code, players, COALESCE(winner, ''), COALESCE(turns, 0), started_at, finished_at
		FROM games ORDER BY started_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, wrap(err)
	}
	games, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (GameRecord, error) {
		var g GameRecord
		err := row.Scan(&g.ID, &g.RoomID, &g.Players, &g.Winner, &g.Turns, &g.StartedAt, &g.FinishedAt)
		return g, err
	})
	if err != nil {
		return nil, wrap(err)
	}
	return games, nil
}

func wrap(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnexpectedDatabase, err)
}
