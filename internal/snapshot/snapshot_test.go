package snapshot

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/trump304/internal/deck"
	"github.com/lox/trump304/internal/game"
)

func mustCards(t *testing.T, ids ...string) []deck.Card {
	t.Helper()
	cards, err := deck.ParseCards(ids)
	require.NoError(t, err)
	return cards
}

// midGame builds a game deep in a hand: bids recorded, trump concealed, a
// trick in flight, piles and scores populated
func midGame(t *testing.T) *game.Game {
	t.Helper()

	amount := 170
	suit := deck.Spades
	trumpCard := deck.NewCard(deck.Spades, deck.Seven)

	g := &game.Game{
		Code:       "AB12CD",
		Mode:       4,
		Phase:      game.PhasePlaying,
		DealerSeat: 3,
		Bids: []game.Bid{
			{Seat: 0, Amount: nil},
			{Seat: 1, Amount: &amount},
		},
		CurrentBid:   &game.Bid{Seat: 1, Amount: &amount},
		BidTurnSeat:  game.NoSeat,
		TrumperSeat:  1,
		TrumpSuit:    &suit,
		TrumpCard:    &trumpCard,
		CurrentTrick: []game.TrickCard{{Seat: 0, Card: deck.NewCard(deck.Hearts, deck.Ace)}},
		TricksWon: map[int][]deck.Card{
			1: mustCards(t, "J_diamonds", "9_diamonds", "7_diamonds", "8_diamonds"),
			2: {},
		},
		TurnSeat:     1,
		TurnDeadline: time.Date(2026, 8, 24, 12, 0, 30, 500_000_000, time.UTC),
		TrickNumber:  2,
		LeadSeat:     0,
		Scores:       map[int]int{0: 0, 1: 5, 2: 0, 3: 5},
		GamesPlayed:  1,
		CreatedAt:    time.Date(2026, 8, 24, 11, 0, 0, 0, time.UTC),
	}

	for seat := 0; seat < 4; seat++ {
		g.Players = append(g.Players, &game.Player{
			ID:           "player-" + string(rune('a'+seat)),
			Name:         "p" + string(rune('0'+seat)),
			Seat:         seat,
			ConnectionID: "",
			Hand:         mustCards(t, "7_clubs", "8_clubs"),
		})
	}
	g.Players[1].ConnectionID = "conn-1"
	return g
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	g := midGame(t)

	decoded, err := Decode(Encode(g))
	require.NoError(t, err)
	assert.Equal(t, g, decoded)
}

func TestRoundTripSurvivesJSON(t *testing.T) {
	g := midGame(t)

	raw, err := json.Marshal(Encode(g))
	require.NoError(t, err)

	var rec Record
	require.NoError(t, json.Unmarshal(raw, &rec))

	decoded, err := Decode(rec)
	require.NoError(t, err)
	assert.Equal(t, g, decoded)
}

func TestRoundTripFreshGame(t *testing.T) {
	g, _, err := game.New("XY34ZW", 2, "alice", time.Now())
	require.NoError(t, err)

	decoded, decErr := Decode(Encode(g))
	require.NoError(t, decErr)
	assert.Equal(t, g, decoded)
	assert.Equal(t, game.NoSeat, decoded.TurnSeat)
	assert.Equal(t, game.NoSeat, decoded.TrumperSeat)
}

func TestDecodeRejectsCorruptRecords(t *testing.T) {
	base := Encode(midGame(t))

	t.Run("bad phase", func(t *testing.T) {
		rec := base
		rec.Phase = "SHUFFLING"
		_, err := Decode(rec)
		assert.Error(t, err)
	})

	t.Run("bad card id", func(t *testing.T) {
		rec := base
		rec.CenterPile = []string{"2_hearts"}
		_, err := Decode(rec)
		assert.Error(t, err)
	})

	t.Run("bad trump suit", func(t *testing.T) {
		rec := base
		bad := "stars"
		rec.TrumpSuit = &bad
		_, err := Decode(rec)
		assert.Error(t, err)
	})

	t.Run("bad deadline", func(t *testing.T) {
		rec := base
		rec.TurnDeadline = "yesterday"
		_, err := Decode(rec)
		assert.Error(t, err)
	})
}
