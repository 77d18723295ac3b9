// Package dispatch is the single writer for game state. Every mutation runs
// as a read-modify-write against the games store under an optimistic
// version, then fans the outcome out to every connected seat.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/trump304/internal/game"
	"github.com/lox/trump304/internal/gamecode"
	"github.com/lox/trump304/internal/protocol"
	"github.com/lox/trump304/internal/randutil"
	"github.com/lox/trump304/internal/scheduler"
	"github.com/lox/trump304/internal/snapshot"
	"github.com/lox/trump304/internal/store"
)

const (
	// DefaultTurnTimeout is how long a seat may sit on its turn before the
	// engine plays for it
	DefaultTurnTimeout = 30 * time.Second

	// writeAttempts bounds the reload-and-replay loop on version conflicts
	writeAttempts = 5

	// createAttempts bounds game code generation retries on collision
	createAttempts = 10
)

// Broadcaster delivers one payload to one live connection. A non-nil error
// means the connection is gone and its row should be dropped.
type Broadcaster interface {
	Send(connectionID string, v any) error
}

// Config carries the dispatcher's collaborators
type Config struct {
	Games       store.GameStore
	Conns       store.ConnStore
	Broadcaster Broadcaster
	Scheduler   scheduler.Scheduler
	Clock       quartz.Clock
	Rand        *rand.Rand
	TurnTimeout time.Duration
	Logger      *log.Logger
}

// Dispatcher routes client actions into the engine and owns all persistence
// and fan-out around it
type Dispatcher struct {
	games       store.GameStore
	conns       store.ConnStore
	bcast       Broadcaster
	sched       scheduler.Scheduler
	clock       quartz.Clock
	turnTimeout time.Duration
	logger      *log.Logger

	// rng is shared across games, so every use holds rngMu
	rngMu sync.Mutex
	rng   *rand.Rand
	codes *gamecode.Generator
}

// New creates a dispatcher. Clock, Rand and TurnTimeout default when unset.
func New(cfg Config) *Dispatcher {
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Rand == nil {
		cfg.Rand = randutil.NewCrypto()
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = DefaultTurnTimeout
	}
	d := &Dispatcher{
		games:       cfg.Games,
		conns:       cfg.Conns,
		bcast:       cfg.Broadcaster,
		sched:       cfg.Scheduler,
		clock:       cfg.Clock,
		turnTimeout: cfg.TurnTimeout,
		logger:      cfg.Logger.WithPrefix("dispatch"),
		rng:         cfg.Rand,
	}
	d.codes = gamecode.NewGenerator(lockedRand{d})
	return d
}

// lockedRand adapts the shared rng to the game code generator
type lockedRand struct {
	d *Dispatcher
}

func (l lockedRand) IntN(n int) int {
	l.d.rngMu.Lock()
	defer l.d.rngMu.Unlock()
	return l.d.rng.IntN(n)
}

// CreateGame allocates a fresh game code, creates the game with its first
// player seated, and persists it. The conditional insert makes code
// collisions retry instead of clobbering an existing game.
func (d *Dispatcher) CreateGame(ctx context.Context, mode int, playerName string) (*game.Game, *game.Player, error) {
	for attempt := 0; attempt < createAttempts; attempt++ {
		code := d.codes.Generate()
		g, p, err := game.New(code, mode, playerName, d.clock.Now())
		if err != nil {
			return nil, nil, err
		}
		if _, err := d.games.Put(ctx, snapshot.Encode(g), 0); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				continue
			}
			return nil, nil, err
		}
		d.logger.Info("Created game", "code", code, "mode", mode)
		return g, p, nil
	}
	return nil, nil, fmt.Errorf("no free game code after %d attempts", createAttempts)
}

// JoinGame seats a new player and pushes the updated roster to seats
// already connected
func (d *Dispatcher) JoinGame(ctx context.Context, code, playerName string) (*game.Game, *game.Player, error) {
	code = gamecode.Normalize(code)

	var p *game.Player
	g, err := d.update(ctx, code, func(g *game.Game) error {
		var err error
		p, err = g.Join(playerName)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	d.logger.Info("Player joined", "code", code, "player", playerName, "seat", p.Seat)
	d.broadcastState(ctx, g)
	return g, p, nil
}

// GameInfo loads the current state of a game
func (d *Dispatcher) GameInfo(ctx context.Context, code string) (*game.Game, error) {
	rec, _, err := d.games.Get(ctx, gamecode.Normalize(code))
	if err != nil {
		return nil, err
	}
	return snapshot.Decode(rec)
}

// Connect binds a live channel connection to a seated player and sends that
// seat its current view
func (d *Dispatcher) Connect(ctx context.Context, connectionID, code, playerID string) error {
	code = gamecode.Normalize(code)

	var seat int
	g, err := d.update(ctx, code, func(g *game.Game) error {
		p := g.PlayerByID(playerID)
		if p == nil {
			return &game.Error{Kind: game.KindNotFound, Msg: fmt.Sprintf("player %s is not in game %s", playerID, code)}
		}
		p.ConnectionID = connectionID
		seat = p.Seat
		return nil
	})
	if err != nil {
		return err
	}

	err = d.conns.Put(ctx, store.Connection{
		ConnectionID: connectionID,
		GameCode:     code,
		PlayerID:     playerID,
		Seat:         seat,
		ConnectedAt:  d.clock.Now(),
	})
	if err != nil {
		return err
	}

	d.logger.Info("Connection bound", "code", code, "seat", seat, "conn", connectionID)
	d.sendTo(ctx, connectionID, protocol.NewGameState(g.PlayerView(seat)))
	return nil
}

// Disconnect drops a connection's row and clears the seat's binding. The
// game itself is untouched so the player can reconnect.
func (d *Dispatcher) Disconnect(ctx context.Context, connectionID string) {
	conn, err := d.conns.Get(ctx, connectionID)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		d.logger.Error("Disconnect lookup failed", "conn", connectionID, "error", err)
		return
	}

	if err := d.conns.Delete(ctx, connectionID); err != nil {
		d.logger.Error("Disconnect delete failed", "conn", connectionID, "error", err)
	}

	_, err = d.update(ctx, conn.GameCode, func(g *game.Game) error {
		if p := g.PlayerByID(conn.PlayerID); p != nil && p.ConnectionID == connectionID {
			p.ConnectionID = ""
		}
		return nil
	})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		d.logger.Error("Disconnect unbind failed", "code", conn.GameCode, "error", err)
	}
	d.logger.Info("Connection dropped", "code", conn.GameCode, "seat", conn.Seat, "conn", connectionID)
}

// update runs fn inside a read-modify-write on one game, reloading and
// replaying when the conditional put loses a version race
func (d *Dispatcher) update(ctx context.Context, code string, fn func(*game.Game) error) (*game.Game, error) {
	for attempt := 0; attempt < writeAttempts; attempt++ {
		rec, version, err := d.games.Get(ctx, code)
		if err != nil {
			return nil, err
		}
		g, err := snapshot.Decode(rec)
		if err != nil {
			return nil, err
		}
		if err := fn(g); err != nil {
			return nil, err
		}
		if _, err := d.games.Put(ctx, snapshot.Encode(g), version); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				d.logger.Debug("Version conflict, replaying", "code", code, "attempt", attempt+1)
				continue
			}
			return nil, err
		}
		return g, nil
	}
	return nil, fmt.Errorf("game %s: gave up after %d version conflicts", code, writeAttempts)
}

// fanOut sends the action result to every seat, then each seat its
// personalized view
func (d *Dispatcher) fanOut(ctx context.Context, g *game.Game, res game.Result) {
	conns, err := d.conns.ByGame(ctx, g.Code)
	if err != nil {
		d.logger.Error("Fan-out lookup failed", "code", g.Code, "error", err)
		return
	}
	for _, conn := range conns {
		if !d.sendTo(ctx, conn.ConnectionID, res) {
			continue
		}
		d.sendTo(ctx, conn.ConnectionID, protocol.NewGameState(g.PlayerView(conn.Seat)))
	}
}

// broadcastState pushes only personalized views, used when no event applies
func (d *Dispatcher) broadcastState(ctx context.Context, g *game.Game) {
	conns, err := d.conns.ByGame(ctx, g.Code)
	if err != nil {
		d.logger.Error("Fan-out lookup failed", "code", g.Code, "error", err)
		return
	}
	for _, conn := range conns {
		d.sendTo(ctx, conn.ConnectionID, protocol.NewGameState(g.PlayerView(conn.Seat)))
	}
}

// sendTo delivers one payload, reaping the connection row when the channel
// is gone
func (d *Dispatcher) sendTo(ctx context.Context, connectionID string, v any) bool {
	if err := d.bcast.Send(connectionID, v); err != nil {
		d.logger.Debug("Dropping dead connection", "conn", connectionID, "error", err)
		_ = d.conns.Delete(ctx, connectionID)
		return false
	}
	return true
}
