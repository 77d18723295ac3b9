// Package game implements the 304 rules engine: dealing, bidding, trump
// selection, trick play, and scoring. Everything here is synchronous and
// pure apart from the injected rng; persistence and transport live in
// internal/dispatch and internal/server.
package game

import (
	rand "math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lox/trump304/internal/deck"
)

// Phase is a stage in the game lifecycle. Phases only move forward within a
// game; next_game loops SCORING back to DEALING.
type Phase string

const (
	PhaseWaiting        Phase = "WAITING"
	PhaseDealing        Phase = "DEALING"
	PhaseBidding        Phase = "BIDDING"
	PhaseTrumpSelection Phase = "TRUMP_SELECTION"
	PhaseCardExchange   Phase = "CARD_EXCHANGE" // 3-seat only
	PhasePlaying        Phase = "PLAYING"
	PhaseScoring        Phase = "SCORING"
)

// ParsePhase validates a stored phase name
func ParsePhase(name string) (Phase, error) {
	switch p := Phase(name); p {
	case PhaseWaiting, PhaseDealing, PhaseBidding, PhaseTrumpSelection,
		PhaseCardExchange, PhasePlaying, PhaseScoring:
		return p, nil
	default:
		return "", errInvalidf("invalid phase %q", name)
	}
}

// NoSeat marks an unset seat pointer
const NoSeat = -1

// Player is one seat at the table
type Player struct {
	ID           string
	Name         string
	Seat         int
	ConnectionID string // empty while disconnected
	Hand         []deck.Card
}

// Bid is one entry in the auction; a nil Amount is a pass
type Bid struct {
	Seat   int  `json:"seat"`
	Amount *int `json:"amount"`
}

// TrickCard is a card played into the current trick
type TrickCard struct {
	Seat int       `json:"seat"`
	Card deck.Card `json:"card"`
}

// Game is the full authoritative state of one table
type Game struct {
	Code    string
	Mode    int // 2, 3, or 4 seats
	Phase   Phase
	Players []*Player

	DealerSeat int

	// Deck is only populated mid-deal; CenterPile holds the undealt cards
	// in modes 2 and 3, and the trumper's discards after a 3-seat exchange
	Deck       []deck.Card
	CenterPile []deck.Card

	Bids        []Bid
	CurrentBid  *Bid
	BidTurnSeat int

	TrumperSeat   int
	TrumpSuit     *deck.Suit
	TrumpCard     *deck.Card
	TrumpRevealed bool
	ExchangeDone  bool

	CurrentTrick []TrickCard
	TricksWon    map[int][]deck.Card
	TurnSeat     int
	TurnDeadline time.Time
	TrickNumber  int
	LeadSeat     int

	Scores      map[int]int
	GamesPlayed int

	CreatedAt time.Time
}

// New creates a game in WAITING with the creator seated at seat 0
func New(code string, mode int, creatorName string, now time.Time) (*Game, *Player, error) {
	if mode != 2 && mode != 3 && mode != 4 {
		return nil, nil, errInvalidf("mode must be 2, 3, or 4")
	}

	g := &Game{
		Code:        code,
		Mode:        mode,
		Phase:       PhaseWaiting,
		BidTurnSeat: NoSeat,
		TrumperSeat: NoSeat,
		TurnSeat:    NoSeat,
		LeadSeat:    NoSeat,
		TricksWon:   make(map[int][]deck.Card),
		Scores:      make(map[int]int),
		CreatedAt:   now.UTC(),
	}
	for seat := 0; seat < mode; seat++ {
		g.Scores[seat] = 0
	}

	creator := &Player{
		ID:   uuid.NewString(),
		Name: creatorName,
		Seat: 0,
	}
	g.Players = append(g.Players, creator)
	return g, creator, nil
}

// Join adds a player at the lowest free seat
func (g *Game) Join(name string) (*Player, error) {
	if g.Phase != PhaseWaiting {
		return nil, errPhasef("game has already started")
	}
	if len(g.Players) >= g.Mode {
		return nil, errRulef("game is full")
	}

	taken := make(map[int]bool, len(g.Players))
	for _, p := range g.Players {
		taken[p.Seat] = true
	}
	seat := 0
	for taken[seat] {
		seat++
	}

	p := &Player{
		ID:   uuid.NewString(),
		Name: name,
		Seat: seat,
	}
	g.Players = append(g.Players, p)
	return p, nil
}

// Start begins the first game: random dealer, deal, then bidding. Requires
// a full table.
func (g *Game) Start(rng *rand.Rand) error {
	if g.Phase != PhaseWaiting {
		return errPhasef("game already started")
	}
	if len(g.Players) != g.Mode {
		return errRulef("need %d players, have %d", g.Mode, len(g.Players))
	}

	seats := g.seats()
	g.DealerSeat = seats[rng.IntN(len(seats))]

	g.Phase = PhaseDealing
	g.dealAll(rng)
	g.startBidding()
	return nil
}

// NextGame resets for the next game of the rubber: dealer rotates clockwise,
// per-game state clears, and the table re-deals straight into bidding.
// Cumulative scores and the games-played counter carry over.
func (g *Game) NextGame(rng *rand.Rand) error {
	if g.Phase != PhaseScoring {
		return errPhasef("current game not finished")
	}

	g.DealerSeat = g.NextSeat(g.DealerSeat)

	g.Bids = nil
	g.CurrentBid = nil
	g.BidTurnSeat = NoSeat
	g.TrumperSeat = NoSeat
	g.TrumpSuit = nil
	g.TrumpCard = nil
	g.TrumpRevealed = false
	g.ExchangeDone = false
	g.CurrentTrick = nil
	g.TricksWon = make(map[int][]deck.Card)
	g.TurnSeat = NoSeat
	g.TurnDeadline = time.Time{}
	g.TrickNumber = 0
	g.LeadSeat = NoSeat
	g.CenterPile = nil

	g.Phase = PhaseDealing
	g.dealAll(rng)
	g.startBidding()
	return nil
}

// dealAll shuffles a fresh deck and deals per mode: mode 4 gets rounds of
// 4/4 (hands of 8, no center); modes 3 and 2 get rounds of 4/4/2 (hands of
// 10) leaving 2 and 12 cards in the center respectively. Dealing starts at
// the seat left of the dealer and proceeds clockwise.
func (g *Game) dealAll(rng *rand.Rand) {
	d := deck.New()
	d.Shuffle(rng)

	for _, p := range g.Players {
		p.Hand = nil
	}
	g.CenterPile = nil

	batches := []int{4, 4, 2}
	if g.Mode == 4 {
		batches = []int{4, 4}
	}

	order := g.dealOrder()
	for _, n := range batches {
		for _, seat := range order {
			p := g.PlayerBySeat(seat)
			p.Hand = append(p.Hand, d.Draw(n)...)
		}
	}
	g.CenterPile = d.Draw(d.Remaining())
	g.Deck = nil
}

// dealOrder returns the seats clockwise starting left of the dealer
func (g *Game) dealOrder() []int {
	order := make([]int, 0, len(g.Players))
	seat := g.NextSeat(g.DealerSeat)
	for i := 0; i < len(g.Players); i++ {
		order = append(order, seat)
		seat = g.NextSeat(seat)
	}
	return order
}

// PlayerBySeat returns the player at a seat, or nil
func (g *Game) PlayerBySeat(seat int) *Player {
	for _, p := range g.Players {
		if p.Seat == seat {
			return p
		}
	}
	return nil
}

// PlayerByID returns the player with the given id, or nil
func (g *Game) PlayerByID(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// NextSeat returns the next seated player's seat clockwise
func (g *Game) NextSeat(seat int) int {
	seats := g.seats()
	for i, s := range seats {
		if s == seat {
			return seats[(i+1)%len(seats)]
		}
	}
	return seats[0]
}

func (g *Game) seats() []int {
	seats := make([]int, 0, len(g.Players))
	for _, p := range g.Players {
		seats = append(seats, p.Seat)
	}
	sort.Ints(seats)
	return seats
}

// Team returns the seats on the same team as seat. Mode 4 pairs opposite
// seats; mode 3 sets the trumper alone against the other two; mode 2 is
// every seat for itself.
func (g *Game) Team(seat int) []int {
	if g.Mode == 4 {
		return []int{seat, (seat + 2) % 4}
	}
	if g.Mode == 3 && g.TrumperSeat != NoSeat {
		if seat == g.TrumperSeat {
			return []int{seat}
		}
		team := make([]int, 0, 2)
		for s := 0; s < 3; s++ {
			if s != g.TrumperSeat {
				team = append(team, s)
			}
		}
		return team
	}
	return []int{seat}
}

// TrumperTeamSeats returns the trumper's team, or nil before bidding concludes
func (g *Game) TrumperTeamSeats() []int {
	if g.TrumperSeat == NoSeat {
		return nil
	}
	return g.Team(g.TrumperSeat)
}

// OpposingTeamSeats returns the seats opposing the trumper
func (g *Game) OpposingTeamSeats() []int {
	if g.TrumperSeat == NoSeat {
		return nil
	}
	trumperTeam := make(map[int]bool)
	for _, s := range g.TrumperTeamSeats() {
		trumperTeam[s] = true
	}
	var seats []int
	for _, p := range g.Players {
		if !trumperTeam[p.Seat] {
			seats = append(seats, p.Seat)
		}
	}
	sort.Ints(seats)
	return seats
}

// handContains reports whether the hand holds the card
func handContains(hand []deck.Card, card deck.Card) bool {
	for _, c := range hand {
		if c == card {
			return true
		}
	}
	return false
}

// removeCard removes the first occurrence of card from hand
func removeCard(hand []deck.Card, card deck.Card) []deck.Card {
	for i, c := range hand {
		if c == card {
			return append(hand[:i], hand[i+1:]...)
		}
	}
	return hand
}
