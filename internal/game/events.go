package game

import "github.com/lox/trump304/internal/deck"

// Draw is one card drawn from the center pile after a 2-seat trick
type Draw struct {
	Seat int       `json:"seat"`
	Card deck.Card `json:"card"`
}

// ScoreResult summarises the end-of-game scoring
type ScoreResult struct {
	Spoilt         bool        `json:"spoilt"`
	TrumperWon     bool        `json:"trumper_won"`
	TrumperPoints  int         `json:"trumper_points"`
	OpposingPoints int         `json:"opposing_points"`
	Bid            int         `json:"bid,omitempty"`
	PointsAwarded  int         `json:"points_awarded"`
	Scores         map[int]int `json:"scores"`
}

// Result describes what one accepted action did. The dispatcher broadcasts
// it verbatim to every seat, so it must never carry hidden information
// (hands, a concealed trump card).
type Result struct {
	Event string `json:"event"`
	Seat  *int   `json:"seat,omitempty"`

	// Bidding
	NextBidder      *int `json:"next_bidder,omitempty"`
	BiddingComplete bool `json:"bidding_complete,omitempty"`
	TrumperSeat     *int `json:"trumper_seat,omitempty"`
	Bid             *int `json:"bid,omitempty"`

	// Trump selection and reveal
	TrumpSelected   bool   `json:"trump_selected,omitempty"`
	ExchangeDone    bool   `json:"exchange_done,omitempty"`
	ExchangeSkipped bool   `json:"exchange_skipped,omitempty"`
	NextPhase       Phase  `json:"next_phase,omitempty"`
	TrumpRevealed   bool   `json:"trump_revealed,omitempty"`
	TrumpSuit       string `json:"suit,omitempty"`
	TrumpCard       string `json:"trump_card,omitempty"`

	// Trick play
	CardPlayed         string `json:"card_played,omitempty"`
	IsCut              bool   `json:"is_cut,omitempty"`
	NextTurn           *int   `json:"next_turn,omitempty"`
	TrickWon           bool   `json:"trick_won,omitempty"`
	WinnerSeat         *int   `json:"winner_seat,omitempty"`
	TrickPoints        int    `json:"trick_points,omitempty"`
	Draws              []Draw `json:"draws,omitempty"`
	GameOver           bool   `json:"game_over,omitempty"`
	TrumpRevealedFinal bool   `json:"trump_revealed_final,omitempty"`
	Timeout            bool   `json:"timeout,omitempty"`

	Scoring *ScoreResult `json:"scoring,omitempty"`
}

func intp(n int) *int {
	return &n
}
