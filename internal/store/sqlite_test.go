package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) (*SQLite, *quartz.Mock) {
	t.Helper()
	clock := quartz.NewMock(t)
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "trump304.db"), clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, clock
}

func TestSQLiteGamesVersioning(t *testing.T) {
	ctx := context.Background()
	db, _ := openTestDB(t)
	games := db.Games()

	version, err := games.Put(ctx, testRecord("AAAAAA"), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Create collision
	_, err = games.Put(ctx, testRecord("AAAAAA"), 0)
	assert.ErrorIs(t, err, ErrVersionConflict)

	rec, version, err := games.Get(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.Equal(t, "WAITING", rec.Phase)

	rec.Phase = "BIDDING"
	version, err = games.Put(ctx, rec, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	// Stale writer loses
	_, err = games.Put(ctx, rec, 1)
	assert.ErrorIs(t, err, ErrVersionConflict)

	// Updates to missing games are distinguishable from conflicts
	_, err = games.Put(ctx, testRecord("ZZZZZZ"), 2)
	assert.ErrorIs(t, err, ErrNotFound)

	rec, _, err = games.Get(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, "BIDDING", rec.Phase)
}

func TestSQLiteGamesTTL(t *testing.T) {
	ctx := context.Background()
	db, clock := openTestDB(t)
	games := db.Games()

	_, err := games.Put(ctx, testRecord("AAAAAA"), 0)
	require.NoError(t, err)

	clock.Advance(TTL + time.Minute)
	_, _, err = games.Get(ctx, "AAAAAA")
	assert.ErrorIs(t, err, ErrNotFound)

	// Expiry removed the row, so the code is free again
	_, err = games.Put(ctx, testRecord("AAAAAA"), 0)
	require.NoError(t, err)
}

func TestSQLiteGamesDelete(t *testing.T) {
	ctx := context.Background()
	db, _ := openTestDB(t)
	games := db.Games()

	_, err := games.Put(ctx, testRecord("AAAAAA"), 0)
	require.NoError(t, err)
	require.NoError(t, games.Delete(ctx, "AAAAAA"))

	_, _, err = games.Get(ctx, "AAAAAA")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteConns(t *testing.T) {
	ctx := context.Background()
	db, _ := openTestDB(t)
	conns := db.Conns()

	require.NoError(t, conns.Put(ctx, Connection{
		ConnectionID: "conn-b",
		GameCode:     "AAAAAA",
		PlayerID:     "player-b",
		Seat:         1,
		ConnectedAt:  time.Unix(1756000000, 0).UTC(),
	}))
	require.NoError(t, conns.Put(ctx, Connection{
		ConnectionID: "conn-a",
		GameCode:     "AAAAAA",
		PlayerID:     "player-a",
		Seat:         0,
		ConnectedAt:  time.Unix(1756000100, 0).UTC(),
	}))

	conn, err := conns.Get(ctx, "conn-a")
	require.NoError(t, err)
	assert.Equal(t, "player-a", conn.PlayerID)
	assert.Equal(t, time.Unix(1756000100, 0).UTC(), conn.ConnectedAt)

	// Upsert on reconnect keeps one row per connection id
	conn.Seat = 0
	conn.GameCode = "AAAAAA"
	require.NoError(t, conns.Put(ctx, conn))

	byGame, err := conns.ByGame(ctx, "AAAAAA")
	require.NoError(t, err)
	require.Len(t, byGame, 2)
	assert.Equal(t, "conn-a", byGame[0].ConnectionID)
	assert.Equal(t, "conn-b", byGame[1].ConnectionID)

	require.NoError(t, conns.Delete(ctx, "conn-b"))
	_, err = conns.Get(ctx, "conn-b")
	assert.ErrorIs(t, err, ErrNotFound)
}
