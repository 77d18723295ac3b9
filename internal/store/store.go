// Package store defines the two persistence surfaces the dispatcher
// consumes: the games store holding snapshot records under an optimistic
// version, and the connections store mapping live channel connections to
// seats. Implementations: an in-memory store for tests and single-process
// runs, and a sqlite store for anything durable.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/lox/trump304/internal/snapshot"
)

// TTL is how long a game survives after its last write
const TTL = 24 * time.Hour

var (
	// ErrNotFound is returned for unknown game codes or connection ids
	ErrNotFound = errors.New("store: not found")

	// ErrVersionConflict is returned when a conditional put loses the race.
	// The caller reloads and replays; the store never retries internally.
	ErrVersionConflict = errors.New("store: version conflict")
)

// GameStore persists one snapshot record per game code. Writers pass the
// version they read; a put only commits when that version is still current,
// which is what serializes concurrent writers on one game. expectedVersion
// 0 means the code must not exist yet, making creation collision-safe.
type GameStore interface {
	Get(ctx context.Context, code string) (snapshot.Record, int64, error)
	Put(ctx context.Context, rec snapshot.Record, expectedVersion int64) (int64, error)
	Delete(ctx context.Context, code string) error
}

// Connection is one row in the connections store
type Connection struct {
	ConnectionID string    `json:"connection_id"`
	GameCode     string    `json:"game_code"`
	PlayerID     string    `json:"player_id"`
	Seat         int       `json:"seat"`
	ConnectedAt  time.Time `json:"connected_at"`
}

// ConnStore tracks live connections, with a by-game lookup for fan-out
type ConnStore interface {
	Put(ctx context.Context, conn Connection) error
	Get(ctx context.Context, connectionID string) (Connection, error)
	Delete(ctx context.Context, connectionID string) error
	ByGame(ctx context.Context, gameCode string) ([]Connection, error)
}
