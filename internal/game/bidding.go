package game

// Bidding constants. Bids run 150..304 in steps of 10, with 304 itself the
// only non-multiple allowed. Bids of 200+ unlock the re-bid rule.
const (
	MinBid     = 150
	MaxBid     = 304
	BidStep    = 10
	SpecialBid = 200
)

// startBidding opens the auction. First bidder is left of the dealer.
func (g *Game) startBidding() {
	g.Phase = PhaseBidding
	g.Bids = nil
	g.CurrentBid = nil
	g.BidTurnSeat = g.NextSeat(g.DealerSeat)
}

// PartnerSeat returns the partner's seat in 4-seat mode, or NoSeat
func (g *Game) PartnerSeat(seat int) int {
	if g.Mode != 4 {
		return NoSeat
	}
	return (seat + 2) % 4
}

// PlaceBid validates and applies a bid; a nil amount is a pass. On success
// the auction advances, possibly concluding into TRUMP_SELECTION.
func (g *Game) PlaceBid(seat int, amount *int) (Result, error) {
	if err := g.validateBid(seat, amount); err != nil {
		return Result{}, err
	}

	bid := Bid{Seat: seat, Amount: amount}
	g.Bids = append(g.Bids, bid)
	if amount != nil {
		g.CurrentBid = &Bid{Seat: seat, Amount: amount}
	}

	res := g.advanceBidding()
	res.Seat = intp(seat)
	return res, nil
}

func (g *Game) validateBid(seat int, amount *int) error {
	if g.Phase != PhaseBidding {
		return errPhasef("not in bidding phase")
	}
	if g.BidTurnSeat != seat {
		return errPermissionf("not your turn to bid")
	}

	// A pass is always allowed
	if amount == nil {
		return nil
	}
	amt := *amount

	if amt < MinBid {
		return errRulef("minimum bid is %d", MinBid)
	}
	if amt > MaxBid {
		return errRulef("maximum bid is %d", MaxBid)
	}
	if amt != MaxBid && amt%BidStep != 0 {
		return errRulef("bid must be a multiple of %d", BidStep)
	}

	if highest := g.highestBid(); highest > 0 && amt <= highest {
		return errRulef("bid must exceed current highest bid of %d", highest)
	}

	hasBid := g.seatHasBid(seat)
	anySpecial := g.anySpecialBid()
	isSpecial := amt >= SpecialBid

	// A seat that already acted may only come back in with the first 200+ bid
	if hasBid && !(isSpecial && !anySpecial) {
		return errRulef("you have already bid or passed")
	}

	// A seat cannot raise over its own bid unless another seat has since
	if myHighest, ok := g.seatHighestBid(seat); ok {
		someoneOverbid := false
		for _, b := range g.Bids {
			if b.Amount != nil && *b.Amount > myHighest && b.Seat != seat {
				someoneOverbid = true
				break
			}
		}
		if !someoneOverbid {
			return errRulef("cannot overbid yourself unless someone has overbid you")
		}
	}

	// Partner rule, 4-seat only: no raising over the partner until an
	// opponent has, except for a first-ever 200+ bid
	partner := g.PartnerSeat(seat)
	if partnerAmt, ok := g.seatHighestBid(partner); ok && amt > partnerAmt {
		opponentOverbid := false
		for _, b := range g.Bids {
			if b.Amount != nil && *b.Amount > partnerAmt && b.Seat != seat && b.Seat != partner {
				opponentOverbid = true
				break
			}
		}
		if !opponentOverbid && !(isSpecial && !anySpecial) {
			return errRulef("cannot overbid your partner unless an opponent has overbid them")
		}
	}

	return nil
}

// advanceBidding moves the turn to the next seat that has not yet acted, or
// concludes the auction when every seat has. Seats that have acted are
// skipped even when a 200+ re-bid would still be legal for them; the re-bid
// only happens if their turn naturally comes around again.
func (g *Game) advanceBidding() Result {
	current := g.BidTurnSeat
	for i := 0; i < len(g.Players); i++ {
		current = g.NextSeat(current)
		if g.seatHasBid(current) {
			continue
		}
		g.BidTurnSeat = current
		return Result{NextBidder: intp(current)}
	}
	return g.concludeBidding()
}

// concludeBidding ends the auction. If nobody bid, the dealer is forced to
// the minimum and becomes trumper.
func (g *Game) concludeBidding() Result {
	if g.CurrentBid == nil {
		forced := MinBid
		g.Bids = append(g.Bids, Bid{Seat: g.DealerSeat, Amount: &forced})
		g.CurrentBid = &Bid{Seat: g.DealerSeat, Amount: &forced}
	}

	g.TrumperSeat = g.CurrentBid.Seat
	g.BidTurnSeat = NoSeat
	g.Phase = PhaseTrumpSelection

	return Result{
		BiddingComplete: true,
		TrumperSeat:     intp(g.TrumperSeat),
		Bid:             intp(*g.CurrentBid.Amount),
	}
}

func (g *Game) highestBid() int {
	highest := 0
	for _, b := range g.Bids {
		if b.Amount != nil && *b.Amount > highest {
			highest = *b.Amount
		}
	}
	return highest
}

func (g *Game) seatHasBid(seat int) bool {
	for _, b := range g.Bids {
		if b.Seat == seat {
			return true
		}
	}
	return false
}

// seatHighestBid returns the highest non-pass amount a seat has bid
func (g *Game) seatHighestBid(seat int) (int, bool) {
	highest, found := 0, false
	for _, b := range g.Bids {
		if b.Seat == seat && b.Amount != nil && *b.Amount > highest {
			highest, found = *b.Amount, true
		}
	}
	return highest, found
}

func (g *Game) anySpecialBid() bool {
	for _, b := range g.Bids {
		if b.Amount != nil && *b.Amount >= SpecialBid {
			return true
		}
	}
	return false
}

// ScoringTokens returns the (win, loss) score tokens for a winning bid
func ScoringTokens(bidAmount int) (win, loss int) {
	switch {
	case bidAmount == MaxBid:
		return 10, 7
	case bidAmount >= SpecialBid:
		return 6, 5
	default:
		return 5, 3
	}
}
