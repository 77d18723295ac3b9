package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// biddingGame returns a 4-seat game mid-auction with a known dealer
func biddingGame(t *testing.T, dealer int) *Game {
	t.Helper()
	g := testGame(t, 4)
	g.DealerSeat = dealer
	g.Phase = PhaseBidding
	g.BidTurnSeat = g.NextSeat(dealer)
	return g
}

func bid(n int) *int {
	return &n
}

func TestBidValidation(t *testing.T) {
	tests := []struct {
		name   string
		seat   int
		amount *int
		kind   Kind
	}{
		{"below minimum", 0, bid(140), KindRule},
		{"above maximum", 0, bid(310), KindRule},
		{"not a step", 0, bid(155), KindRule},
		{"out of turn", 2, bid(160), KindPermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := biddingGame(t, 3)
			_, err := g.PlaceBid(tt.seat, tt.amount)
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}
}

func TestBidWrongPhase(t *testing.T) {
	g := testGame(t, 4)
	_, err := g.PlaceBid(0, bid(160))
	require.Error(t, err)
	assert.Equal(t, KindPhase, KindOf(err))
}

func TestBid304IsLegal(t *testing.T) {
	g := biddingGame(t, 3)
	res, err := g.PlaceBid(0, bid(304))
	require.NoError(t, err)
	assert.Equal(t, 304, *g.CurrentBid.Amount)
	assert.Equal(t, 1, *res.NextBidder)
}

func TestBidMustExceedHighest(t *testing.T) {
	g := biddingGame(t, 3)
	_, err := g.PlaceBid(0, bid(160))
	require.NoError(t, err)

	_, err = g.PlaceBid(1, bid(160))
	require.Error(t, err)
	assert.Equal(t, KindRule, KindOf(err))

	_, err = g.PlaceBid(1, bid(170))
	require.NoError(t, err)
	assert.Equal(t, 170, *g.CurrentBid.Amount)
}

func TestAllPassForcesDealer(t *testing.T) {
	g := biddingGame(t, 2)

	var last Result
	for i := 0; i < 4; i++ {
		res, err := g.PlaceBid(g.BidTurnSeat, nil)
		require.NoError(t, err)
		last = res
	}

	assert.True(t, last.BiddingComplete)
	assert.Equal(t, 2, *last.TrumperSeat)
	assert.Equal(t, MinBid, *last.Bid)
	assert.Equal(t, 2, g.TrumperSeat)
	assert.Equal(t, MinBid, *g.CurrentBid.Amount)
	assert.Equal(t, PhaseTrumpSelection, g.Phase)
	assert.Equal(t, NoSeat, g.BidTurnSeat)
}

func TestAuctionConcludesAfterEverySeatActs(t *testing.T) {
	g := biddingGame(t, 3)

	_, err := g.PlaceBid(0, bid(160))
	require.NoError(t, err)
	_, err = g.PlaceBid(1, bid(170))
	require.NoError(t, err)
	_, err = g.PlaceBid(2, nil)
	require.NoError(t, err)
	res, err := g.PlaceBid(3, nil)
	require.NoError(t, err)

	assert.True(t, res.BiddingComplete)
	assert.Equal(t, 1, g.TrumperSeat)
	assert.Equal(t, PhaseTrumpSelection, g.Phase)
}

func TestCannotJumpOverOwnBid(t *testing.T) {
	g := biddingGame(t, 3)
	g.Bids = []Bid{{Seat: 0, Amount: bid(160)}}
	g.CurrentBid = &Bid{Seat: 0, Amount: bid(160)}
	g.BidTurnSeat = 0

	// First 200+ re-entry is allowed in principle, but not over your own
	// standing highest bid
	_, err := g.PlaceBid(0, bid(200))
	require.Error(t, err)
	assert.Equal(t, KindRule, KindOf(err))

	// Once another seat has overbid, the jump is legal
	g.Bids = append(g.Bids, Bid{Seat: 1, Amount: bid(170)})
	g.CurrentBid = &Bid{Seat: 1, Amount: bid(170)}
	res, err := g.PlaceBid(0, bid(200))
	require.NoError(t, err)
	assert.Equal(t, 200, *g.CurrentBid.Amount)
	assert.NotNil(t, res.NextBidder)
}

func TestNonSpecialReentryRejected(t *testing.T) {
	g := biddingGame(t, 3)
	g.Bids = []Bid{
		{Seat: 0, Amount: bid(160)},
		{Seat: 1, Amount: bid(170)},
	}
	g.CurrentBid = &Bid{Seat: 1, Amount: bid(170)}
	g.BidTurnSeat = 0

	_, err := g.PlaceBid(0, bid(180))
	require.Error(t, err)
	assert.Equal(t, KindRule, KindOf(err))
}

func TestPartnerRule(t *testing.T) {
	// Seats 1 and 3 are partners
	g := biddingGame(t, 3)
	g.Bids = []Bid{{Seat: 1, Amount: bid(160)}}
	g.CurrentBid = &Bid{Seat: 1, Amount: bid(160)}
	g.BidTurnSeat = 3

	_, err := g.PlaceBid(3, bid(170))
	require.Error(t, err)
	assert.Equal(t, KindRule, KindOf(err))

	// An opponent overbidding the partner frees the raise
	g.Bids = append(g.Bids, Bid{Seat: 2, Amount: bid(170)})
	g.CurrentBid = &Bid{Seat: 2, Amount: bid(170)}
	_, err = g.PlaceBid(3, bid(180))
	require.NoError(t, err)
}

func TestPartnerRuleSpecialBidBypass(t *testing.T) {
	g := biddingGame(t, 3)
	g.Bids = []Bid{{Seat: 1, Amount: bid(160)}}
	g.CurrentBid = &Bid{Seat: 1, Amount: bid(160)}
	g.BidTurnSeat = 3

	// The first 200+ bid may pass the partner without an opponent overbid
	_, err := g.PlaceBid(3, bid(200))
	require.NoError(t, err)
	assert.Equal(t, 200, *g.CurrentBid.Amount)
}

func TestPassAlwaysAllowed(t *testing.T) {
	g := biddingGame(t, 3)
	g.Bids = []Bid{{Seat: 0, Amount: bid(160)}}
	g.CurrentBid = &Bid{Seat: 0, Amount: bid(160)}
	g.BidTurnSeat = 1

	res, err := g.PlaceBid(1, nil)
	require.NoError(t, err)
	assert.NotNil(t, res.NextBidder)
	// The standing bid is untouched by a pass
	assert.Equal(t, 160, *g.CurrentBid.Amount)
}

func TestScoringTokens(t *testing.T) {
	tests := []struct {
		bid  int
		win  int
		loss int
	}{
		{150, 5, 3},
		{190, 5, 3},
		{200, 6, 5},
		{290, 6, 5},
		{304, 10, 7},
	}
	for _, tt := range tests {
		win, loss := ScoringTokens(tt.bid)
		assert.Equal(t, tt.win, win, "bid %d", tt.bid)
		assert.Equal(t, tt.loss, loss, "bid %d", tt.bid)
	}
}
