package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/trump304/internal/deck"
	"github.com/lox/trump304/internal/randutil"
)

// testGame returns a full table in WAITING
func testGame(t *testing.T, mode int) *Game {
	t.Helper()
	g, _, err := New("TEST01", mode, "p0", time.Now())
	require.NoError(t, err)
	for i := 1; i < mode; i++ {
		_, err := g.Join(fmt.Sprintf("p%d", i))
		require.NoError(t, err)
	}
	return g
}

func card(t *testing.T, id string) deck.Card {
	t.Helper()
	c, err := deck.ParseCard(id)
	require.NoError(t, err)
	return c
}

func cards(t *testing.T, ids ...string) []deck.Card {
	t.Helper()
	out := make([]deck.Card, 0, len(ids))
	for _, id := range ids {
		out = append(out, card(t, id))
	}
	return out
}

func TestNewGameValidation(t *testing.T) {
	for _, mode := range []int{0, 1, 5} {
		_, _, err := New("TEST01", mode, "alice", time.Now())
		assert.Error(t, err, "mode %d", mode)
	}

	g, creator, err := New("TEST01", 4, "alice", time.Now())
	require.NoError(t, err)
	assert.Equal(t, PhaseWaiting, g.Phase)
	assert.Equal(t, 0, creator.Seat)
	assert.NotEmpty(t, creator.ID)
	assert.Equal(t, map[int]int{0: 0, 1: 0, 2: 0, 3: 0}, g.Scores)
}

func TestJoinFillsLowestFreeSeat(t *testing.T) {
	g, _, err := New("TEST01", 4, "alice", time.Now())
	require.NoError(t, err)

	for want := 1; want <= 3; want++ {
		p, err := g.Join(fmt.Sprintf("p%d", want))
		require.NoError(t, err)
		assert.Equal(t, want, p.Seat)
	}

	_, err = g.Join("late")
	require.Error(t, err)
	assert.Equal(t, KindRule, KindOf(err))
}

func TestJoinAfterStart(t *testing.T) {
	g := testGame(t, 2)
	require.NoError(t, g.Start(randutil.New(1)))

	_, err := g.Join("late")
	require.Error(t, err)
	assert.Equal(t, KindPhase, KindOf(err))
}

func TestStartRequiresFullTable(t *testing.T) {
	g, _, err := New("TEST01", 3, "alice", time.Now())
	require.NoError(t, err)
	assert.Error(t, g.Start(randutil.New(1)))
}

func TestStartDeals(t *testing.T) {
	tests := []struct {
		mode     int
		handSize int
		center   int
	}{
		{2, 10, 12},
		{3, 10, 2},
		{4, 8, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("mode%d", tt.mode), func(t *testing.T) {
			g := testGame(t, tt.mode)
			require.NoError(t, g.Start(randutil.New(7)))

			assert.Equal(t, PhaseBidding, g.Phase)
			assert.Equal(t, g.NextSeat(g.DealerSeat), g.BidTurnSeat)

			seen := make(map[deck.Card]bool)
			for _, p := range g.Players {
				assert.Len(t, p.Hand, tt.handSize, "seat %d", p.Seat)
				for _, c := range p.Hand {
					assert.False(t, seen[c], "duplicate card %s", c)
					seen[c] = true
				}
			}
			assert.Len(t, g.CenterPile, tt.center)
			for _, c := range g.CenterPile {
				assert.False(t, seen[c], "duplicate card %s", c)
				seen[c] = true
			}
			assert.Len(t, seen, deck.Size)
		})
	}
}

func TestNextGameRotatesDealerAndKeepsScores(t *testing.T) {
	g := testGame(t, 4)
	require.NoError(t, g.Start(randutil.New(3)))
	dealer := g.DealerSeat

	g.Phase = PhaseScoring
	g.Scores = map[int]int{0: 5, 1: 0, 2: 5, 3: 0}
	g.GamesPlayed = 1
	suit := deck.Hearts
	g.TrumpSuit = &suit
	g.TrumpRevealed = true
	g.TricksWon = map[int][]deck.Card{0: cards(t, "J_hearts")}

	require.NoError(t, g.NextGame(randutil.New(4)))

	assert.Equal(t, g.NextSeat(dealer), g.DealerSeat)
	assert.Equal(t, PhaseBidding, g.Phase)
	assert.Equal(t, map[int]int{0: 5, 1: 0, 2: 5, 3: 0}, g.Scores)
	assert.Equal(t, 1, g.GamesPlayed)
	assert.Nil(t, g.TrumpSuit)
	assert.False(t, g.TrumpRevealed)
	assert.Empty(t, g.TricksWon)
	assert.Equal(t, NoSeat, g.TrumperSeat)
}

func TestNextGameRequiresScoring(t *testing.T) {
	g := testGame(t, 4)
	require.NoError(t, g.Start(randutil.New(3)))
	assert.Error(t, g.NextGame(randutil.New(4)))
}

func TestTeams(t *testing.T) {
	g4 := testGame(t, 4)
	assert.ElementsMatch(t, []int{0, 2}, g4.Team(0))
	assert.ElementsMatch(t, []int{1, 3}, g4.Team(3))

	g3 := testGame(t, 3)
	g3.TrumperSeat = 1
	assert.Equal(t, []int{1}, g3.Team(1))
	assert.ElementsMatch(t, []int{0, 2}, g3.Team(0))
	assert.ElementsMatch(t, []int{0, 2}, g3.OpposingTeamSeats())

	g2 := testGame(t, 2)
	g2.TrumperSeat = 0
	assert.Equal(t, []int{0}, g2.Team(0))
	assert.Equal(t, []int{1}, g2.OpposingTeamSeats())
}
