package game

import "github.com/lox/trump304/internal/deck"

// SelectTrump sets the trump suit and stashes the concealed trump card.
// The card leaves the trumper's hand and is held by the engine until reveal.
func (g *Game) SelectTrump(seat int, suit deck.Suit, card deck.Card) (Result, error) {
	if g.Phase != PhaseTrumpSelection {
		return Result{}, errPhasef("not in trump selection phase")
	}
	if g.TrumperSeat != seat {
		return Result{}, errPermissionf("only the trumper can select trump")
	}
	if card.Suit != suit {
		return Result{}, errRulef("trump card must be of the selected trump suit")
	}
	p := g.PlayerBySeat(seat)
	if !handContains(p.Hand, card) {
		return Result{}, errRulef("you don't have that card")
	}

	p.Hand = removeCard(p.Hand, card)
	g.TrumpSuit = &suit
	g.TrumpCard = &card
	g.TrumpRevealed = false

	res := Result{Seat: intp(seat), TrumpSelected: true}

	if g.Mode == 3 {
		g.Phase = PhaseCardExchange
		res.NextPhase = PhaseCardExchange
		return res, nil
	}

	g.Phase = PhasePlaying
	g.setFirstPlayer()
	res.NextPhase = PhasePlaying
	return res, nil
}

// ExchangeCards swaps exactly two hand cards for the two-card center pile
// (3-seat mode). The discards sit in the center pile and count toward the
// opposing team at final scoring.
func (g *Game) ExchangeCards(seat int, cards []deck.Card) (Result, error) {
	if g.Phase != PhaseCardExchange {
		return Result{}, errPhasef("not in card exchange phase")
	}
	if g.TrumperSeat != seat {
		return Result{}, errPermissionf("only the trumper can exchange cards")
	}
	if len(cards) != 2 {
		return Result{}, errRulef("must exchange exactly 2 cards")
	}
	p := g.PlayerBySeat(seat)
	for _, card := range cards {
		if !handContains(p.Hand, card) {
			return Result{}, errRulef("you don't have %s", card)
		}
	}

	for _, card := range cards {
		p.Hand = removeCard(p.Hand, card)
	}
	p.Hand = append(p.Hand, g.CenterPile...)

	g.CenterPile = append([]deck.Card(nil), cards...)
	g.ExchangeDone = true

	g.Phase = PhasePlaying
	g.setFirstPlayer()

	return Result{Seat: intp(seat), ExchangeDone: true, NextPhase: PhasePlaying}, nil
}

// SkipExchange declines the 3-seat exchange and moves straight to play
func (g *Game) SkipExchange(seat int) (Result, error) {
	if g.Phase != PhaseCardExchange {
		return Result{}, errPhasef("not in card exchange phase")
	}
	if g.TrumperSeat != seat {
		return Result{}, errPermissionf("only the trumper can skip exchange")
	}

	g.ExchangeDone = true
	g.Phase = PhasePlaying
	g.setFirstPlayer()

	return Result{Seat: intp(seat), ExchangeSkipped: true, NextPhase: PhasePlaying}, nil
}

// revealTrump makes trump public and returns the concealed card to the
// trumper's hand. The transfer happens exactly once.
func (g *Game) revealTrump() error {
	if g.TrumpRevealed {
		return errRulef("trump is already revealed")
	}
	if g.TrumpSuit == nil {
		return errRulef("trump has not been selected yet")
	}

	g.TrumpRevealed = true
	if g.TrumpCard != nil {
		trumper := g.PlayerBySeat(g.TrumperSeat)
		trumper.Hand = append(trumper.Hand, *g.TrumpCard)
	}
	return nil
}

// RevealTrump is the trumper voluntarily revealing trump during play
func (g *Game) RevealTrump(seat int) (Result, error) {
	if seat != g.TrumperSeat {
		return Result{}, errPermissionf("only the trumper can reveal trump")
	}
	if g.Phase != PhasePlaying {
		return Result{}, errPhasef("not in playing phase")
	}
	if err := g.revealTrump(); err != nil {
		return Result{}, err
	}
	return g.trumpRevealedResult(seat), nil
}

// AskTrump is a non-trumper forcing the reveal so they can cut. It is only
// allowed mid-trick, and only when the asker is void in the calling suit.
func (g *Game) AskTrump(seat int) (Result, error) {
	if g.TrumpRevealed {
		return Result{}, errRulef("trump is already revealed")
	}
	if seat == g.TrumperSeat {
		return Result{}, errPermissionf("you are the trumper, use reveal_trump instead")
	}
	if g.Phase != PhasePlaying {
		return Result{}, errPhasef("not in playing phase")
	}

	callingSuit, ok := g.CallingSuit()
	if !ok {
		return Result{}, errRulef("no trick in progress to cut")
	}
	p := g.PlayerBySeat(seat)
	for _, c := range p.Hand {
		if c.Suit == callingSuit {
			return Result{}, errRulef("you have cards in the calling suit, cannot ask for trump")
		}
	}

	if err := g.revealTrump(); err != nil {
		return Result{}, err
	}
	return g.trumpRevealedResult(seat), nil
}

func (g *Game) trumpRevealedResult(seat int) Result {
	res := Result{
		Seat:          intp(seat),
		TrumpRevealed: true,
		TrumpSuit:     g.TrumpSuit.String(),
	}
	if g.TrumpCard != nil {
		res.TrumpCard = g.TrumpCard.ID()
	}
	return res
}

// setFirstPlayer picks the leader of the first trick: the trumper on a 304
// bid, otherwise the seat left of the dealer
func (g *Game) setFirstPlayer() {
	if g.CurrentBid != nil && g.CurrentBid.Amount != nil && *g.CurrentBid.Amount == MaxBid {
		g.TurnSeat = g.TrumperSeat
	} else {
		g.TurnSeat = g.NextSeat(g.DealerSeat)
	}
	g.LeadSeat = g.TurnSeat
	g.TrickNumber = 1
}
