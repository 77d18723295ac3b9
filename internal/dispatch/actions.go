package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lox/trump304/internal/deck"
	"github.com/lox/trump304/internal/game"
	"github.com/lox/trump304/internal/protocol"
	"github.com/lox/trump304/internal/scheduler"
)

// errStaleTimer marks a fired timer whose turn has already moved on
var errStaleTimer = errors.New("stale turn timer")

// HandleAction applies one channel action from a connection. Rejections go
// back to the sender only; accepted actions fan out to every seat.
func (d *Dispatcher) HandleAction(ctx context.Context, connectionID string, msg protocol.ClientMessage) {
	conn, err := d.conns.Get(ctx, connectionID)
	if err != nil {
		d.logger.Warn("Action from unknown connection", "conn", connectionID, "action", msg.Action)
		d.sendTo(ctx, connectionID, protocol.NewError(fmt.Errorf("connection is not bound to a game")))
		return
	}

	var res game.Result
	g, err := d.update(ctx, conn.GameCode, func(g *game.Game) error {
		before := turnName(g)
		r, err := d.apply(g, conn.Seat, msg)
		if err != nil {
			return err
		}
		res = r
		d.stampTurnDeadline(g, before)
		return nil
	})
	if err != nil {
		d.logger.Debug("Action rejected", "code", conn.GameCode, "seat", conn.Seat,
			"action", msg.Action, "error", err)
		d.sendTo(ctx, connectionID, protocol.NewError(err))
		return
	}

	d.logger.Info("Action applied", "code", conn.GameCode, "seat", conn.Seat,
		"action", msg.Action, "event", res.Event, "phase", g.Phase)
	d.fanOut(ctx, g, res)
	d.scheduleTurnTimer(g)
}

// apply routes one action into the engine
func (d *Dispatcher) apply(g *game.Game, seat int, msg protocol.ClientMessage) (game.Result, error) {
	switch msg.Action {
	case protocol.ActionStartGame:
		return d.withRand(func() (game.Result, error) {
			if err := g.Start(d.rng); err != nil {
				return game.Result{}, err
			}
			return game.Result{Event: "game_started"}, nil
		})

	case protocol.ActionNextGame:
		return d.withRand(func() (game.Result, error) {
			if err := g.NextGame(d.rng); err != nil {
				return game.Result{}, err
			}
			return game.Result{Event: "game_started"}, nil
		})

	case protocol.ActionBid:
		if msg.Amount == nil {
			return game.Result{}, fmt.Errorf("bid requires an amount")
		}
		return withEvent(g.PlaceBid(seat, msg.Amount))("bid_placed")

	case protocol.ActionPass:
		return withEvent(g.PlaceBid(seat, nil))("bid_placed")

	case protocol.ActionSelectTrump:
		suit, err := deck.ParseSuit(msg.Suit)
		if err != nil {
			return game.Result{}, err
		}
		card, err := deck.ParseCard(msg.Card)
		if err != nil {
			return game.Result{}, err
		}
		return withEvent(g.SelectTrump(seat, suit, card))("trump_selected")

	case protocol.ActionExchangeCards:
		cards, err := deck.ParseCards(msg.Cards)
		if err != nil {
			return game.Result{}, err
		}
		return withEvent(g.ExchangeCards(seat, cards))("cards_exchanged")

	case protocol.ActionSkipExchange:
		return withEvent(g.SkipExchange(seat))("exchange_skipped")

	case protocol.ActionPlayCard:
		card, err := deck.ParseCard(msg.Card)
		if err != nil {
			return game.Result{}, err
		}
		return withEvent(g.PlayCard(seat, card))("card_played")

	case protocol.ActionAskTrump:
		return withEvent(g.AskTrump(seat))("trump_revealed")

	case protocol.ActionRevealTrump:
		return withEvent(g.RevealTrump(seat))("trump_revealed")

	default:
		return game.Result{}, fmt.Errorf("unknown action %q", msg.Action)
	}
}

// withEvent names the event on a successful engine result
func withEvent(res game.Result, err error) func(event string) (game.Result, error) {
	return func(event string) (game.Result, error) {
		if err != nil {
			return game.Result{}, err
		}
		res.Event = event
		return res, nil
	}
}

// withRand runs fn holding the shared rng lock
func (d *Dispatcher) withRand(fn func() (game.Result, error)) (game.Result, error) {
	d.rngMu.Lock()
	defer d.rngMu.Unlock()
	return fn()
}

// HandleTimeout is the scheduler callback: auto-play for a seat that ran out
// its turn. Fired timers for turns that already resolved are no-ops, which
// is what makes duplicate or late firings safe.
func (d *Dispatcher) HandleTimeout(ctx context.Context, p scheduler.Payload) {
	var res game.Result
	g, err := d.update(ctx, p.GameCode, func(g *game.Game) error {
		if g.Phase != game.PhasePlaying || g.TurnSeat != p.Seat || g.TrickNumber != p.TrickNumber {
			return errStaleTimer
		}
		before := turnName(g)
		r, err := d.withRand(func() (game.Result, error) {
			return g.AutoPlay(p.Seat, d.rng)
		})
		if err != nil {
			return err
		}
		r.Event = protocol.EventTurnTimeout
		r.Timeout = true
		res = r
		d.stampTurnDeadline(g, before)
		return nil
	})
	if errors.Is(err, errStaleTimer) {
		d.logger.Debug("Ignoring stale turn timer", "code", p.GameCode, "seat", p.Seat, "trick", p.TrickNumber)
		return
	}
	if err != nil {
		d.logger.Error("Turn timeout failed", "code", p.GameCode, "seat", p.Seat, "error", err)
		return
	}

	d.logger.Info("Turn timed out, auto-played", "code", p.GameCode, "seat", p.Seat,
		"trick", p.TrickNumber, "card", res.CardPlayed)
	d.fanOut(ctx, g, res)
	d.scheduleTurnTimer(g)
}

// turnName returns the timer name for the pending turn, or "" when no turn
// is pending
func turnName(g *game.Game) string {
	if g.Phase != game.PhasePlaying || g.TurnSeat == game.NoSeat {
		return ""
	}
	return scheduler.Name(g.Code, g.TrickNumber, g.TurnSeat)
}

// stampTurnDeadline refreshes the persisted deadline only when the pending
// turn actually changed, so re-asserting the same turn never extends it
func (d *Dispatcher) stampTurnDeadline(g *game.Game, before string) {
	after := turnName(g)
	switch {
	case after == "":
		g.TurnDeadline = time.Time{}
	case after != before:
		g.TurnDeadline = d.clock.Now().Add(d.turnTimeout)
	}
}

// scheduleTurnTimer arms the timer for the pending turn, if any. The
// scheduler ignores names that are already pending.
func (d *Dispatcher) scheduleTurnTimer(g *game.Game) {
	name := turnName(g)
	if name == "" || g.TurnDeadline.IsZero() {
		return
	}
	d.sched.Schedule(name, g.TurnDeadline, scheduler.Payload{
		GameCode:    g.Code,
		Seat:        g.TurnSeat,
		TrickNumber: g.TrickNumber,
	})
}
