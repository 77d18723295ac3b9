package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/coder/quartz"
	_ "modernc.org/sqlite"

	"github.com/lox/trump304/internal/snapshot"
)

// SQLite holds the shared database behind the sqlite-backed stores
type SQLite struct {
	db    *sql.DB
	clock quartz.Clock
}

// OpenSQLite opens (creating if needed) the database at dbPath and ensures
// the schema. Use ":memory:" for a throwaway database.
func OpenSQLite(dbPath string, clock quartz.Clock) (*SQLite, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db, clock: clock}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS games (
    game_code  TEXT PRIMARY KEY,
    version    INTEGER NOT NULL,
    state      TEXT NOT NULL,
    updated_at INTEGER NOT NULL,
    expires_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS connections (
    connection_id TEXT PRIMARY KEY,
    game_code     TEXT NOT NULL,
    player_id     TEXT NOT NULL,
    seat          INTEGER NOT NULL,
    connected_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_connections_game ON connections (game_code);
`)
	return err
}

// Close closes the database
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Games returns the GameStore view of the database
func (s *SQLite) Games() *SQLiteGames {
	return &SQLiteGames{s: s}
}

// Conns returns the ConnStore view of the database
func (s *SQLite) Conns() *SQLiteConns {
	return &SQLiteConns{s: s}
}

// SQLiteGames implements GameStore on the shared database
type SQLiteGames struct {
	s *SQLite
}

// Get implements GameStore
func (g *SQLiteGames) Get(ctx context.Context, code string) (snapshot.Record, int64, error) {
	var (
		state     string
		version   int64
		expiresAt int64
	)
	err := g.s.db.QueryRowContext(ctx,
		`SELECT state, version, expires_at FROM games WHERE game_code = ?`, code,
	).Scan(&state, &version, &expiresAt)
	if err == sql.ErrNoRows {
		return snapshot.Record{}, 0, ErrNotFound
	}
	if err != nil {
		return snapshot.Record{}, 0, err
	}
	if g.s.clock.Now().Unix() > expiresAt {
		_, _ = g.s.db.ExecContext(ctx, `DELETE FROM games WHERE game_code = ?`, code)
		return snapshot.Record{}, 0, ErrNotFound
	}

	var rec snapshot.Record
	if err := json.Unmarshal([]byte(state), &rec); err != nil {
		return snapshot.Record{}, 0, fmt.Errorf("corrupt snapshot for %s: %w", code, err)
	}
	return rec, version, nil
}

// Put implements GameStore. The version predicate in the UPDATE is what
// enforces the single-writer-per-game discipline.
func (g *SQLiteGames) Put(ctx context.Context, rec snapshot.Record, expectedVersion int64) (int64, error) {
	state, err := json.Marshal(rec)
	if err != nil {
		return 0, err
	}
	now := g.s.clock.Now()
	expires := now.Add(TTL).Unix()

	if expectedVersion == 0 {
		res, err := g.s.db.ExecContext(ctx,
			`INSERT INTO games (game_code, version, state, updated_at, expires_at)
			 VALUES (?, 1, ?, ?, ?)
			 ON CONFLICT (game_code) DO NOTHING`,
			rec.GameCode, string(state), now.Unix(), expires)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, ErrVersionConflict
		}
		return 1, nil
	}

	res, err := g.s.db.ExecContext(ctx,
		`UPDATE games SET version = version + 1, state = ?, updated_at = ?, expires_at = ?
		 WHERE game_code = ? AND version = ?`,
		string(state), now.Unix(), expires, rec.GameCode, expectedVersion)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		var exists int
		if err := g.s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM games WHERE game_code = ?`, rec.GameCode).Scan(&exists); err != nil {
			return 0, err
		}
		if exists == 0 {
			return 0, ErrNotFound
		}
		return 0, ErrVersionConflict
	}
	return expectedVersion + 1, nil
}

// Delete implements GameStore
func (g *SQLiteGames) Delete(ctx context.Context, code string) error {
	_, err := g.s.db.ExecContext(ctx, `DELETE FROM games WHERE game_code = ?`, code)
	return err
}

// SQLiteConns implements ConnStore on the shared database
type SQLiteConns struct {
	s *SQLite
}

// Put implements ConnStore
func (c *SQLiteConns) Put(ctx context.Context, conn Connection) error {
	_, err := c.s.db.ExecContext(ctx,
		`INSERT INTO connections (connection_id, game_code, player_id, seat, connected_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (connection_id) DO UPDATE SET
		   game_code = excluded.game_code,
		   player_id = excluded.player_id,
		   seat = excluded.seat,
		   connected_at = excluded.connected_at`,
		conn.ConnectionID, conn.GameCode, conn.PlayerID, conn.Seat, conn.ConnectedAt.Unix())
	return err
}

// Get implements ConnStore
func (c *SQLiteConns) Get(ctx context.Context, connectionID string) (Connection, error) {
	var (
		conn        Connection
		connectedAt int64
	)
	err := c.s.db.QueryRowContext(ctx,
		`SELECT connection_id, game_code, player_id, seat, connected_at
		 FROM connections WHERE connection_id = ?`, connectionID,
	).Scan(&conn.ConnectionID, &conn.GameCode, &conn.PlayerID, &conn.Seat, &connectedAt)
	if err == sql.ErrNoRows {
		return Connection{}, ErrNotFound
	}
	if err != nil {
		return Connection{}, err
	}
	conn.ConnectedAt = time.Unix(connectedAt, 0).UTC()
	return conn, nil
}

// Delete implements ConnStore
func (c *SQLiteConns) Delete(ctx context.Context, connectionID string) error {
	_, err := c.s.db.ExecContext(ctx, `DELETE FROM connections WHERE connection_id = ?`, connectionID)
	return err
}

// ByGame implements ConnStore
func (c *SQLiteConns) ByGame(ctx context.Context, gameCode string) ([]Connection, error) {
	rows, err := c.s.db.QueryContext(ctx,
		`SELECT connection_id, game_code, player_id, seat, connected_at
		 FROM connections WHERE game_code = ? ORDER BY seat`, gameCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []Connection
	for rows.Next() {
		var (
			conn        Connection
			connectedAt int64
		)
		if err := rows.Scan(&conn.ConnectionID, &conn.GameCode, &conn.PlayerID, &conn.Seat, &connectedAt); err != nil {
			return nil, err
		}
		conn.ConnectedAt = time.Unix(connectedAt, 0).UTC()
		conns = append(conns, conn)
	}
	return conns, rows.Err()
}
