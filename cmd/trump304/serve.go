package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/trump304/internal/dispatch"
	"github.com/lox/trump304/internal/randutil"
	"github.com/lox/trump304/internal/scheduler"
	"github.com/lox/trump304/internal/server"
	"github.com/lox/trump304/internal/store"
)

// ServeCmd runs the game server
type ServeCmd struct {
	Config string `kong:"default='trump304.hcl',help='Path to HCL config file'"`
	Addr   string `kong:"help='Listen address, overrides config'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
	Seed   *int64 `kong:"help='Deterministic RNG seed (optional)'"`
}

func (c *ServeCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	addr := cfg.ListenAddr()
	if c.Addr != "" {
		addr = c.Addr
	}

	logger := setupLogger(cfg.Server.LogLevel, c.Debug)

	var rng *rand.Rand
	if c.Seed != nil {
		logger.Info("Using deterministic seed", "seed", *c.Seed)
		rng = randutil.New(*c.Seed)
	} else {
		rng = randutil.NewCrypto()
	}

	clock := quartz.NewReal()

	var (
		games store.GameStore
		conns store.ConnStore
	)
	switch cfg.Store.Backend {
	case "sqlite":
		db, err := store.OpenSQLite(cfg.Store.Path, clock)
		if err != nil {
			return fmt.Errorf("opening sqlite store: %w", err)
		}
		defer func() { _ = db.Close() }()
		games, conns = db.Games(), db.Conns()
		logger.Info("Using sqlite store", "path", cfg.Store.Path)
	default:
		games, conns = store.NewMemoryGames(clock), store.NewMemoryConns()
		logger.Info("Using in-memory store")
	}

	registry := server.NewRegistry()
	sched := scheduler.NewInProcess(clock, logger)

	dispatcher := dispatch.New(dispatch.Config{
		Games:       games,
		Conns:       conns,
		Broadcaster: registry,
		Scheduler:   sched,
		Clock:       clock,
		Rand:        rng,
		TurnTimeout: cfg.TurnTimeout(),
		Logger:      logger,
	})
	sched.SetHandler(func(p scheduler.Payload) {
		dispatcher.HandleTimeout(context.Background(), p)
	})

	srv := server.New(addr, registry, dispatcher, logger)

	logger.Info("Starting 304 server", "addr", addr, "turn_timeout", cfg.TurnTimeout())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	return g.Wait()
}

func setupLogger(level string, debug bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})

	if debug {
		logger.SetLevel(log.DebugLevel)
		return logger
	}
	if parsed, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(parsed)
	}
	return logger
}
