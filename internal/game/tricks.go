package game

import (
	rand "math/rand/v2"
	"time"

	"github.com/lox/trump304/internal/deck"
)

// suitSize is how many cards of one suit the deck holds; a spoilt game needs
// all of them with the trumper's team
const suitSize = deck.Size / 4

// CallingSuit returns the suit led in the current trick
func (g *Game) CallingSuit() (deck.Suit, bool) {
	if len(g.CurrentTrick) == 0 {
		return 0, false
	}
	return g.CurrentTrick[0].Card.Suit, true
}

// ValidCards returns the cards a seat may legally play: the whole hand when
// leading, the calling-suit cards when holding any, otherwise the whole hand
func (g *Game) ValidCards(seat int) []deck.Card {
	p := g.PlayerBySeat(seat)
	if p == nil || len(p.Hand) == 0 {
		return nil
	}

	callingSuit, ok := g.CallingSuit()
	if !ok {
		return append([]deck.Card(nil), p.Hand...)
	}

	var sameSuit []deck.Card
	for _, c := range p.Hand {
		if c.Suit == callingSuit {
			sameSuit = append(sameSuit, c)
		}
	}
	if len(sameSuit) > 0 {
		return sameSuit
	}
	return append([]deck.Card(nil), p.Hand...)
}

func (g *Game) validatePlay(seat int, card deck.Card) error {
	if g.Phase != PhasePlaying {
		return errPhasef("not in playing phase")
	}
	if g.TurnSeat != seat {
		return errPermissionf("not your turn")
	}
	p := g.PlayerBySeat(seat)
	if !handContains(p.Hand, card) {
		return errRulef("you don't have that card")
	}
	if !handContains(g.ValidCards(seat), card) {
		return errRulef("you must follow suit")
	}
	// Cut rules need no rejection here: trump only wins once revealed, so a
	// concealed trump-suit card played while void is an ordinary discard.
	// The trumper reveals via reveal_trump, everyone else via ask_trump,
	// before the play that cuts.
	return nil
}

// PlayCard validates and plays a card into the current trick. When the
// trick fills it is resolved, and when the game ends the result carries the
// final scoring.
func (g *Game) PlayCard(seat int, card deck.Card) (Result, error) {
	if err := g.validatePlay(seat, card); err != nil {
		return Result{}, err
	}
	return g.playCard(seat, card), nil
}

func (g *Game) playCard(seat int, card deck.Card) Result {
	p := g.PlayerBySeat(seat)
	p.Hand = removeCard(p.Hand, card)

	isCut := false
	if callingSuit, ok := g.CallingSuit(); ok && card.Suit != callingSuit {
		isCut = g.TrumpRevealed && g.TrumpSuit != nil && card.Suit == *g.TrumpSuit
	}

	g.CurrentTrick = append(g.CurrentTrick, TrickCard{Seat: seat, Card: card})

	res := Result{
		Seat:       intp(seat),
		CardPlayed: card.ID(),
		IsCut:      isCut,
	}

	if len(g.CurrentTrick) == len(g.Players) {
		g.resolveTrick(&res)
		if res.GameOver {
			scoring := g.score()
			res.Scoring = &scoring
		}
	} else {
		g.TurnSeat = g.NextSeat(seat)
		res.NextTurn = intp(g.TurnSeat)
	}

	return res
}

// resolveTrick determines the winner with the Beats predicate, moves the
// trick into the winner's pile, and works out what happens next
func (g *Game) resolveTrick(res *Result) {
	callingSuit := g.CurrentTrick[0].Card.Suit
	winner := g.CurrentTrick[0]

	var trumpSuit deck.Suit
	if g.TrumpSuit != nil {
		trumpSuit = *g.TrumpSuit
	}

	trickPoints := winner.Card.Points()
	for _, tc := range g.CurrentTrick[1:] {
		trickPoints += tc.Card.Points()
		if tc.Card.Beats(winner.Card, trumpSuit, g.TrumpRevealed, callingSuit) {
			winner = tc
		}
	}

	cards := make([]deck.Card, 0, len(g.CurrentTrick))
	for _, tc := range g.CurrentTrick {
		cards = append(cards, tc.Card)
	}
	g.TricksWon[winner.Seat] = append(g.TricksWon[winner.Seat], cards...)

	g.CurrentTrick = nil
	g.TrickNumber++

	res.TrickWon = true
	res.WinnerSeat = intp(winner.Seat)
	res.TrickPoints = trickPoints

	// Two-seat play refills both hands from the center pile, winner first
	if g.Mode == 2 && len(g.CenterPile) > 0 {
		res.Draws = g.drawAfterTrick(winner.Seat)
	}

	// Empty hands are the authoritative end of the game. In 3- and 4-seat
	// play a single empty hand also ends it: that seat cannot fill the next
	// trick, which only happens when the trumper's hand ran out with the
	// trump still concealed.
	done := g.allHandsEmpty()
	if !done && g.Mode != 2 {
		for _, p := range g.Players {
			if len(p.Hand) == 0 {
				done = true
				break
			}
		}
	}
	if done {
		// Trump never came out: force the reveal so the card returns to
		// the trumper, too late to be played
		if !g.TrumpRevealed {
			if err := g.revealTrump(); err == nil {
				res.TrumpRevealedFinal = true
			}
		}
		res.GameOver = true
		return
	}

	g.TurnSeat = winner.Seat
	g.LeadSeat = winner.Seat
	res.NextTurn = intp(winner.Seat)
}

func (g *Game) drawAfterTrick(winnerSeat int) []Draw {
	var draws []Draw
	for _, seat := range []int{winnerSeat, g.NextSeat(winnerSeat)} {
		if len(g.CenterPile) == 0 {
			break
		}
		card := g.CenterPile[0]
		g.CenterPile = g.CenterPile[1:]
		p := g.PlayerBySeat(seat)
		p.Hand = append(p.Hand, card)
		draws = append(draws, Draw{Seat: seat, Card: card})
	}
	return draws
}

func (g *Game) allHandsEmpty() bool {
	for _, p := range g.Players {
		if len(p.Hand) > 0 {
			return false
		}
	}
	return true
}

// AutoPlay plays a uniformly random legal card for a timed-out seat. While
// trump is concealed it never dumps a trump-suit card if any other legal
// card exists, so a timeout cannot leak or waste the concealed trump.
func (g *Game) AutoPlay(seat int, rng *rand.Rand) (Result, error) {
	if g.Phase != PhasePlaying {
		return Result{}, errPhasef("not in playing phase")
	}
	if g.TurnSeat != seat {
		return Result{}, errPermissionf("not this player's turn")
	}

	valid := g.ValidCards(seat)
	if len(valid) == 0 {
		return Result{}, errRulef("no valid cards to play")
	}

	card := valid[rng.IntN(len(valid))]

	callingSuit, inTrick := g.CallingSuit()
	if inTrick && card.Suit != callingSuit && !g.TrumpRevealed && g.TrumpSuit != nil {
		var nonTrump []deck.Card
		for _, c := range valid {
			if c.Suit != *g.TrumpSuit {
				nonTrump = append(nonTrump, c)
			}
		}
		if len(nonTrump) > 0 {
			card = nonTrump[rng.IntN(len(nonTrump))]
		}
	}

	return g.playCard(seat, card), nil
}

// TeamPoints sums card points over each side's trick piles. In a 3-seat
// game with an exchange, the trumper's discards in the center count for the
// opposition; an unrevealed trump card counts for the trumper's side.
func (g *Game) TeamPoints() (trumperPoints, opposingPoints int) {
	trumperTeam := make(map[int]bool)
	for _, s := range g.TrumperTeamSeats() {
		trumperTeam[s] = true
	}

	for seat, cards := range g.TricksWon {
		points := 0
		for _, c := range cards {
			points += c.Points()
		}
		if trumperTeam[seat] {
			trumperPoints += points
		} else {
			opposingPoints += points
		}
	}

	if g.Mode == 3 && g.ExchangeDone {
		for _, c := range g.CenterPile {
			opposingPoints += c.Points()
		}
	}

	if g.TrumpCard != nil && !g.TrumpRevealed {
		trumperPoints += g.TrumpCard.Points()
	}

	return trumperPoints, opposingPoints
}

// CheckSpoilt reports whether all eight trump cards ended the game with the
// trumper's team: their trick piles, the unrevealed trump card, and any
// trump still in their hands. A spoilt game awards no score tokens.
func (g *Game) CheckSpoilt() bool {
	if g.TrumpSuit == nil {
		return false
	}
	trump := *g.TrumpSuit

	trumperTeam := make(map[int]bool)
	for _, s := range g.TrumperTeamSeats() {
		trumperTeam[s] = true
	}

	count := 0
	for seat, cards := range g.TricksWon {
		if !trumperTeam[seat] {
			continue
		}
		for _, c := range cards {
			if c.Suit == trump {
				count++
			}
		}
	}

	if g.TrumpCard != nil && !g.TrumpRevealed {
		count++
	}

	for seat := range trumperTeam {
		if p := g.PlayerBySeat(seat); p != nil {
			for _, c := range p.Hand {
				if c.Suit == trump {
					count++
				}
			}
		}
	}

	return count == suitSize
}

// score finishes the game: spoilt check, token award, cumulative scores
func (g *Game) score() ScoreResult {
	g.Phase = PhaseScoring
	g.TurnSeat = NoSeat
	g.TurnDeadline = time.Time{}

	if g.CheckSpoilt() {
		return ScoreResult{
			Spoilt: true,
			Scores: copyScores(g.Scores),
		}
	}

	trumperPoints, opposingPoints := g.TeamPoints()
	bidAmount := *g.CurrentBid.Amount
	win, loss := ScoringTokens(bidAmount)

	trumperWon := trumperPoints >= bidAmount
	if trumperWon {
		for _, seat := range g.TrumperTeamSeats() {
			g.Scores[seat] += win
		}
	} else {
		for _, seat := range g.OpposingTeamSeats() {
			g.Scores[seat] += loss
		}
	}
	g.GamesPlayed++

	awarded := loss
	if trumperWon {
		awarded = win
	}

	return ScoreResult{
		TrumperWon:     trumperWon,
		TrumperPoints:  trumperPoints,
		OpposingPoints: opposingPoints,
		Bid:            bidAmount,
		PointsAwarded:  awarded,
		Scores:         copyScores(g.Scores),
	}
}

func copyScores(scores map[int]int) map[int]int {
	out := make(map[int]int, len(scores))
	for k, v := range scores {
		out[k] = v
	}
	return out
}
