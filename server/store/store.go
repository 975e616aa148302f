// Package store persists each game as a single JSONB document in Postgres.
// All access to one game runs under a row lock held for the whole
// read-modify-write, which gives serializability per game id; games are
// independent so no cross-game coordination exists.
package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reppoker/server/game"
)

//go:embed schema.sql
var schema embed.FS

var ErrNotFound = errors.New("game not found")

type DB struct{ *pgxpool.Pool }

func Open(dsn string) (*DB, error) {
	p, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close(ctx context.Context)      { db.Pool.Close() }
func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

// WithGame runs fn with the game row locked. fn receives nil when no such
// game exists and may return a new record to create it; returning a nil
// game commits without writing (no state change). Any error rolls back.
func (db *DB) WithGame(ctx context.Context, gameID string, fn func(*game.Game) (*game.Game, error)) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	g, err := loadGame(ctx, tx, gameID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	out, err := fn(g)
	if err != nil {
		return err
	}
	if out != nil {
		if err := saveGame(ctx, tx, gameID, out); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// LoadGame reads a game outside any transaction, without locking. For
// read-only introspection; mutations go through WithGame.
func (db *DB) LoadGame(ctx context.Context, gameID string) (*game.Game, error) {
	var doc []byte
	err := db.QueryRow(ctx, `SELECT state FROM game WHERE game_id = $1`, gameID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(doc)
}

// RecentCompleted returns up to n completed games, most recent first.
func (db *DB) RecentCompleted(ctx context.Context, n int) ([]game.Game, error) {
	rows, err := db.Query(ctx, `
		SELECT state
		  FROM game
		 WHERE state->>'status' = $1
		 ORDER BY updated_at DESC
		 LIMIT $2
	`, string(game.StatusComplete), n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.Game
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		g, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func loadGame(ctx context.Context, tx pgx.Tx, gameID string) (*game.Game, error) {
	var doc []byte
	err := tx.QueryRow(ctx, `SELECT state FROM game WHERE game_id = $1 FOR UPDATE`, gameID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(doc)
}

func saveGame(ctx context.Context, tx pgx.Tx, gameID string, g *game.Game) error {
	doc, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", gameID, err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO game (game_id, state)
		VALUES ($1, $2)
		ON CONFLICT (game_id) DO UPDATE
		   SET state = EXCLUDED.state,
		       updated_at = now()
	`, gameID, doc)
	return err
}

func decode(doc []byte) (*game.Game, error) {
	var g game.Game
	if err := json.Unmarshal(doc, &g); err != nil {
		return nil, fmt.Errorf("decode game: %w", err)
	}
	return &g, nil
}
