package store

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/trump304/internal/snapshot"
)

func testRecord(code string) snapshot.Record {
	return snapshot.Record{
		GameCode: code,
		Mode:     4,
		Phase:    "WAITING",
		Scores:   map[string]int{"0": 0},
	}
}

func TestMemoryGamesCreateAndGet(t *testing.T) {
	ctx := context.Background()
	games := NewMemoryGames(quartz.NewMock(t))

	version, err := games.Put(ctx, testRecord("AAAAAA"), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	rec, version, err := games.Get(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", rec.GameCode)
	assert.Equal(t, int64(1), version)

	_, _, err = games.Get(ctx, "ZZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryGamesCreateCollision(t *testing.T) {
	ctx := context.Background()
	games := NewMemoryGames(quartz.NewMock(t))

	_, err := games.Put(ctx, testRecord("AAAAAA"), 0)
	require.NoError(t, err)

	_, err = games.Put(ctx, testRecord("AAAAAA"), 0)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestMemoryGamesVersionedUpdate(t *testing.T) {
	ctx := context.Background()
	games := NewMemoryGames(quartz.NewMock(t))

	_, err := games.Put(ctx, testRecord("AAAAAA"), 0)
	require.NoError(t, err)

	rec := testRecord("AAAAAA")
	rec.Phase = "BIDDING"
	version, err := games.Put(ctx, rec, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	// A writer holding the old version loses
	_, err = games.Put(ctx, rec, 1)
	assert.ErrorIs(t, err, ErrVersionConflict)

	// Updating a missing game is not a conflict
	_, err = games.Put(ctx, testRecord("ZZZZZZ"), 3)
	assert.ErrorIs(t, err, ErrNotFound)

	got, _, err := games.Get(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, "BIDDING", got.Phase)
}

func TestMemoryGamesTTL(t *testing.T) {
	ctx := context.Background()
	clock := quartz.NewMock(t)
	games := NewMemoryGames(clock)

	_, err := games.Put(ctx, testRecord("AAAAAA"), 0)
	require.NoError(t, err)

	clock.Advance(TTL - time.Minute)
	_, _, err = games.Get(ctx, "AAAAAA")
	require.NoError(t, err)

	// Reads refresh nothing; only writes extend the TTL
	clock.Advance(2 * time.Minute)
	_, _, err = games.Get(ctx, "AAAAAA")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryGamesDelete(t *testing.T) {
	ctx := context.Background()
	games := NewMemoryGames(quartz.NewMock(t))

	_, err := games.Put(ctx, testRecord("AAAAAA"), 0)
	require.NoError(t, err)
	require.NoError(t, games.Delete(ctx, "AAAAAA"))

	_, _, err = games.Get(ctx, "AAAAAA")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryConns(t *testing.T) {
	ctx := context.Background()
	conns := NewMemoryConns()

	for i, id := range []string{"conn-b", "conn-a"} {
		require.NoError(t, conns.Put(ctx, Connection{
			ConnectionID: id,
			GameCode:     "AAAAAA",
			PlayerID:     "player-" + id,
			Seat:         1 - i,
			ConnectedAt:  time.Now().UTC(),
		}))
	}
	require.NoError(t, conns.Put(ctx, Connection{
		ConnectionID: "conn-c",
		GameCode:     "BBBBBB",
		PlayerID:     "player-c",
		Seat:         0,
	}))

	conn, err := conns.Get(ctx, "conn-a")
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", conn.GameCode)

	byGame, err := conns.ByGame(ctx, "AAAAAA")
	require.NoError(t, err)
	require.Len(t, byGame, 2)
	// Sorted by seat
	assert.Equal(t, "conn-a", byGame[0].ConnectionID)
	assert.Equal(t, "conn-b", byGame[1].ConnectionID)

	require.NoError(t, conns.Delete(ctx, "conn-a"))
	_, err = conns.Get(ctx, "conn-a")
	assert.ErrorIs(t, err, ErrNotFound)
}
