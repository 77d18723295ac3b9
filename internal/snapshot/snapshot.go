// Package snapshot maps the live game object to and from the flat record
// the stores persist. The mapping is lossless: Decode(Encode(g)) rebuilds g
// structurally.
package snapshot

import (
	"fmt"
	"strconv"
	"time"

	"github.com/lox/trump304/internal/deck"
	"github.com/lox/trump304/internal/game"
)

// PlayerRecord is the persisted form of a seated player
type PlayerRecord struct {
	PlayerID     string   `json:"player_id"`
	Name         string   `json:"name"`
	Seat         int      `json:"seat"`
	ConnectionID string   `json:"connection_id,omitempty"`
	Hand         []string `json:"hand"`
}

// BidRecord is the persisted form of a bid; null amount is a pass
type BidRecord struct {
	Seat   int  `json:"seat"`
	Amount *int `json:"amount"`
}

// TrickCardRecord is the persisted form of a card in the current trick
type TrickCardRecord struct {
	Seat int    `json:"seat"`
	Card string `json:"card"`
}

// Record is the store-friendly shape of a game: scalars, card-id lists, and
// stringly-keyed seat maps
type Record struct {
	GameCode      string              `json:"game_code"`
	Mode          int                 `json:"mode"`
	Phase         string              `json:"phase"`
	Players       []PlayerRecord      `json:"players"`
	DealerSeat    int                 `json:"dealer_seat"`
	Deck          []string            `json:"deck"`
	CenterPile    []string            `json:"center_pile"`
	Bids          []BidRecord         `json:"bids"`
	CurrentBid    *BidRecord          `json:"current_bid"`
	BidTurnSeat   *int                `json:"bid_turn_seat"`
	TrumperSeat   *int                `json:"trumper_seat"`
	TrumpSuit     *string             `json:"trump_suit"`
	TrumpCard     *string             `json:"trump_card"`
	TrumpRevealed bool                `json:"trump_revealed"`
	ExchangeDone  bool                `json:"exchange_done"`
	CurrentTrick  []TrickCardRecord   `json:"current_trick"`
	TricksWon     map[string][]string `json:"tricks_won"`
	TurnSeat      *int                `json:"turn_seat"`
	TurnDeadline  string              `json:"turn_deadline,omitempty"`
	TrickNumber   int                 `json:"trick_number"`
	LeadSeat      *int                `json:"lead_seat"`
	Scores        map[string]int      `json:"scores"`
	GamesPlayed   int                 `json:"games_played"`
	CreatedAt     string              `json:"created_at,omitempty"`
}

// Encode flattens a game into its persisted record
func Encode(g *game.Game) Record {
	rec := Record{
		GameCode:      g.Code,
		Mode:          g.Mode,
		Phase:         string(g.Phase),
		DealerSeat:    g.DealerSeat,
		Deck:          cardIDs(g.Deck),
		CenterPile:    cardIDs(g.CenterPile),
		BidTurnSeat:   seatPtr(g.BidTurnSeat),
		TrumperSeat:   seatPtr(g.TrumperSeat),
		TrumpRevealed: g.TrumpRevealed,
		ExchangeDone:  g.ExchangeDone,
		TricksWon:     make(map[string][]string, len(g.TricksWon)),
		TurnSeat:      seatPtr(g.TurnSeat),
		TrickNumber:   g.TrickNumber,
		LeadSeat:      seatPtr(g.LeadSeat),
		Scores:        make(map[string]int, len(g.Scores)),
		GamesPlayed:   g.GamesPlayed,
	}

	for _, p := range g.Players {
		rec.Players = append(rec.Players, PlayerRecord{
			PlayerID:     p.ID,
			Name:         p.Name,
			Seat:         p.Seat,
			ConnectionID: p.ConnectionID,
			Hand:         cardIDs(p.Hand),
		})
	}

	for _, b := range g.Bids {
		rec.Bids = append(rec.Bids, BidRecord{Seat: b.Seat, Amount: b.Amount})
	}
	if g.CurrentBid != nil {
		rec.CurrentBid = &BidRecord{Seat: g.CurrentBid.Seat, Amount: g.CurrentBid.Amount}
	}

	if g.TrumpSuit != nil {
		s := g.TrumpSuit.String()
		rec.TrumpSuit = &s
	}
	if g.TrumpCard != nil {
		c := g.TrumpCard.ID()
		rec.TrumpCard = &c
	}

	for _, tc := range g.CurrentTrick {
		rec.CurrentTrick = append(rec.CurrentTrick, TrickCardRecord{Seat: tc.Seat, Card: tc.Card.ID()})
	}
	for seat, cards := range g.TricksWon {
		rec.TricksWon[strconv.Itoa(seat)] = cardIDsAlways(cards)
	}
	for seat, score := range g.Scores {
		rec.Scores[strconv.Itoa(seat)] = score
	}

	if !g.TurnDeadline.IsZero() {
		rec.TurnDeadline = g.TurnDeadline.UTC().Format(time.RFC3339Nano)
	}
	if !g.CreatedAt.IsZero() {
		rec.CreatedAt = g.CreatedAt.UTC().Format(time.RFC3339Nano)
	}

	return rec
}

// Decode rebuilds the live game from its persisted record
func Decode(rec Record) (*game.Game, error) {
	phase, err := game.ParsePhase(rec.Phase)
	if err != nil {
		return nil, err
	}

	g := &game.Game{
		Code:          rec.GameCode,
		Mode:          rec.Mode,
		Phase:         phase,
		DealerSeat:    rec.DealerSeat,
		BidTurnSeat:   seatVal(rec.BidTurnSeat),
		TrumperSeat:   seatVal(rec.TrumperSeat),
		TrumpRevealed: rec.TrumpRevealed,
		ExchangeDone:  rec.ExchangeDone,
		TricksWon:     make(map[int][]deck.Card, len(rec.TricksWon)),
		TurnSeat:      seatVal(rec.TurnSeat),
		TrickNumber:   rec.TrickNumber,
		LeadSeat:      seatVal(rec.LeadSeat),
		Scores:        make(map[int]int, len(rec.Scores)),
		GamesPlayed:   rec.GamesPlayed,
	}

	if g.Deck, err = parseCards(rec.Deck); err != nil {
		return nil, err
	}
	if g.CenterPile, err = parseCards(rec.CenterPile); err != nil {
		return nil, err
	}

	for _, pr := range rec.Players {
		hand, err := parseCards(pr.Hand)
		if err != nil {
			return nil, err
		}
		g.Players = append(g.Players, &game.Player{
			ID:           pr.PlayerID,
			Name:         pr.Name,
			Seat:         pr.Seat,
			ConnectionID: pr.ConnectionID,
			Hand:         hand,
		})
	}

	for _, br := range rec.Bids {
		g.Bids = append(g.Bids, game.Bid{Seat: br.Seat, Amount: br.Amount})
	}
	if rec.CurrentBid != nil {
		g.CurrentBid = &game.Bid{Seat: rec.CurrentBid.Seat, Amount: rec.CurrentBid.Amount}
	}

	if rec.TrumpSuit != nil {
		suit, err := deck.ParseSuit(*rec.TrumpSuit)
		if err != nil {
			return nil, err
		}
		g.TrumpSuit = &suit
	}
	if rec.TrumpCard != nil {
		card, err := deck.ParseCard(*rec.TrumpCard)
		if err != nil {
			return nil, err
		}
		g.TrumpCard = &card
	}

	for _, tcr := range rec.CurrentTrick {
		card, err := deck.ParseCard(tcr.Card)
		if err != nil {
			return nil, err
		}
		g.CurrentTrick = append(g.CurrentTrick, game.TrickCard{Seat: tcr.Seat, Card: card})
	}

	for seatStr, ids := range rec.TricksWon {
		seat, err := strconv.Atoi(seatStr)
		if err != nil {
			return nil, fmt.Errorf("invalid seat key %q: %w", seatStr, err)
		}
		cards, err := deck.ParseCards(ids)
		if err != nil {
			return nil, err
		}
		g.TricksWon[seat] = cards
	}

	for seatStr, score := range rec.Scores {
		seat, err := strconv.Atoi(seatStr)
		if err != nil {
			return nil, fmt.Errorf("invalid seat key %q: %w", seatStr, err)
		}
		g.Scores[seat] = score
	}

	if rec.TurnDeadline != "" {
		if g.TurnDeadline, err = time.Parse(time.RFC3339Nano, rec.TurnDeadline); err != nil {
			return nil, fmt.Errorf("invalid turn deadline: %w", err)
		}
	}
	if rec.CreatedAt != "" {
		if g.CreatedAt, err = time.Parse(time.RFC3339Nano, rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("invalid created at: %w", err)
		}
	}

	return g, nil
}

// cardIDs returns nil for an empty list so encode/decode stay symmetric
func cardIDs(cards []deck.Card) []string {
	if len(cards) == 0 {
		return nil
	}
	return deck.IDs(cards)
}

// cardIDsAlways keeps empty trick piles distinct from absent ones
func cardIDsAlways(cards []deck.Card) []string {
	return deck.IDs(cards)
}

func parseCards(ids []string) ([]deck.Card, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return deck.ParseCards(ids)
}

func seatPtr(seat int) *int {
	if seat == game.NoSeat {
		return nil
	}
	return &seat
}

func seatVal(seat *int) int {
	if seat == nil {
		return game.NoSeat
	}
	return *seat
}
