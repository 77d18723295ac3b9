package game

import (
	"time"

	"github.com/lox/trump304/internal/deck"
)

// PublicPlayer is the part of a player every seat may see
type PublicPlayer struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Seat     int    `json:"seat"`
}

// Public returns the player's public listing
func (p *Player) Public() PublicPlayer {
	return PublicPlayer{PlayerID: p.ID, Name: p.Name, Seat: p.Seat}
}

// PlayerView is the game as one seat is allowed to see it. Opponent hands
// never appear; the trump suit and card appear only once revealed, or to
// the trumper.
type PlayerView struct {
	GameCode     string         `json:"game_code"`
	Mode         int            `json:"mode"`
	Phase        Phase          `json:"phase"`
	Players      []PublicPlayer `json:"players"`
	DealerSeat   int            `json:"dealer_seat"`
	YourSeat     int            `json:"your_seat"`
	YourHand     []string       `json:"your_hand"`
	Bids         []Bid          `json:"bids"`
	CurrentBid   *Bid           `json:"current_bid"`
	TrumperSeat  *int           `json:"trumper_seat"`
	TrumpReveal  bool           `json:"trump_revealed"`
	CurrentTrick []TrickCard    `json:"current_trick"`
	TurnSeat     *int           `json:"turn_seat"`
	TurnDeadline string         `json:"turn_deadline,omitempty"`
	TrickNumber  int            `json:"trick_number"`
	Scores       map[int]int    `json:"scores"`
	GamesPlayed  int            `json:"games_played"`

	TrumpSuit *string `json:"trump_suit,omitempty"`
	TrumpCard *string `json:"trump_card,omitempty"`

	ValidCards      []string       `json:"valid_cards,omitempty"`
	BidTurnSeat     *int           `json:"bid_turn_seat,omitempty"`
	TeamTrickPoints map[string]int `json:"team_tricks_points"`
	CenterPileCount *int           `json:"center_pile_count,omitempty"`
}

// PlayerView projects the state visible to a seat
func (g *Game) PlayerView(seat int) PlayerView {
	view := PlayerView{
		GameCode:     g.Code,
		Mode:         g.Mode,
		Phase:        g.Phase,
		Players:      make([]PublicPlayer, 0, len(g.Players)),
		DealerSeat:   g.DealerSeat,
		YourSeat:     seat,
		YourHand:     []string{},
		Bids:         append([]Bid(nil), g.Bids...),
		CurrentBid:   g.CurrentBid,
		TrumperSeat:  seatOrNil(g.TrumperSeat),
		TrumpReveal:  g.TrumpRevealed,
		CurrentTrick: append([]TrickCard(nil), g.CurrentTrick...),
		TurnSeat:     seatOrNil(g.TurnSeat),
		TrickNumber:  g.TrickNumber,
		Scores:       copyScores(g.Scores),
		GamesPlayed:  g.GamesPlayed,
	}

	for _, p := range g.Players {
		view.Players = append(view.Players, p.Public())
	}
	if p := g.PlayerBySeat(seat); p != nil {
		view.YourHand = deck.IDs(p.Hand)
	}
	if !g.TurnDeadline.IsZero() {
		view.TurnDeadline = g.TurnDeadline.UTC().Format(time.RFC3339)
	}

	// Trump info is secret until reveal, except from the trumper
	if g.TrumpRevealed || seat == g.TrumperSeat {
		if g.TrumpSuit != nil {
			s := g.TrumpSuit.String()
			view.TrumpSuit = &s
		}
		if g.TrumpCard != nil {
			c := g.TrumpCard.ID()
			view.TrumpCard = &c
		}
	}

	if g.TurnSeat == seat && g.Phase == PhasePlaying {
		view.ValidCards = deck.IDs(g.ValidCards(seat))
	}

	if g.Phase == PhaseBidding {
		view.BidTurnSeat = seatOrNil(g.BidTurnSeat)
	}

	view.TeamTrickPoints = g.teamTrickPoints()

	if g.Mode == 2 || g.Mode == 3 {
		n := len(g.CenterPile)
		view.CenterPileCount = &n
	}

	return view
}

// teamTrickPoints totals the card points captured so far by each side
func (g *Game) teamTrickPoints() map[string]int {
	totals := make(map[string]int)
	trumperTeam := make(map[int]bool)
	for _, s := range g.TrumperTeamSeats() {
		trumperTeam[s] = true
	}
	for seat, cards := range g.TricksWon {
		key := "opposing"
		if trumperTeam[seat] {
			key = "trumper"
		}
		for _, c := range cards {
			totals[key] += c.Points()
		}
	}
	return totals
}

func seatOrNil(seat int) *int {
	if seat == NoSeat {
		return nil
	}
	return &seat
}
