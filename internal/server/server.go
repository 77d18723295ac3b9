// Package server is the transport layer: a small REST surface for game
// lifecycle and a WebSocket channel for everything in-game. All game logic
// lives behind the dispatcher.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lox/trump304/internal/dispatch"
	"github.com/lox/trump304/internal/game"
	"github.com/lox/trump304/internal/gamecode"
	"github.com/lox/trump304/internal/protocol"
	"github.com/lox/trump304/internal/store"
)

// Server serves the REST surface and the WebSocket channel
type Server struct {
	addr       string
	upgrader   websocket.Upgrader
	registry   *Registry
	dispatcher *dispatch.Dispatcher
	logger     *log.Logger
	httpServer *http.Server
}

// New creates a server. The registry must be the same one the dispatcher
// broadcasts through.
func New(addr string, registry *Registry, dispatcher *dispatch.Dispatcher, logger *log.Logger) *Server {
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		registry:   registry,
		dispatcher: dispatcher,
		logger:     logger.WithPrefix("server"),
	}
}

// Start runs the HTTP server until Stop is called
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /games", s.handleCreateGame)
	mux.HandleFunc("GET /games/{code}", s.handleGameInfo)
	mux.HandleFunc("POST /games/{code}/join", s.handleJoinGame)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}

	s.logger.Info("Starting server", "addr", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the HTTP server down and closes every live connection
func (s *Server) Stop(ctx context.Context) error {
	s.registry.CloseAll()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req protocol.CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	g, p, err := s.dispatcher.CreateGame(r.Context(), req.Mode, req.PlayerName)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, protocol.CreateGameResponse{
		GameCode:   g.Code,
		PlayerID:   p.ID,
		Seat:       p.Seat,
		Mode:       g.Mode,
		ChannelURL: channelURL(g.Code, p.ID),
	})
}

func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if err := gamecode.Validate(gamecode.Normalize(code)); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req protocol.JoinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	g, p, err := s.dispatcher.JoinGame(r.Context(), code, req.PlayerName)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, protocol.JoinGameResponse{
		GameCode:   g.Code,
		PlayerID:   p.ID,
		Seat:       p.Seat,
		Mode:       g.Mode,
		ChannelURL: channelURL(g.Code, p.ID),
		Players:    publicPlayers(g),
	})
}

func (s *Server) handleGameInfo(w http.ResponseWriter, r *http.Request) {
	g, err := s.dispatcher.GameInfo(r.Context(), r.PathValue("code"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, protocol.GameInfoResponse{
		GameCode:    g.Code,
		Mode:        g.Mode,
		Phase:       g.Phase,
		PlayerCount: len(g.Players),
		Players:     publicPlayers(g),
	})
}

// handleWebSocket upgrades the channel and binds it to a seated player.
// Identity comes from the query string; there is no auth layer.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("game_code")
	playerID := r.URL.Query().Get("player_id")
	if code == "" || playerID == "" {
		s.writeError(w, http.StatusBadRequest, "game_code and player_id are required")
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	conn := NewConnection(uuid.NewString(), ws, s.dispatcher, s.logger)
	s.registry.Add(conn)
	conn.Start()

	if err := s.dispatcher.Connect(r.Context(), conn.ID(), code, playerID); err != nil {
		s.logger.Warn("Rejecting channel bind", "code", code, "player", playerID, "error", err)
		_ = conn.Send(protocol.NewError(err))
		_ = conn.Close()
	}

	go func() {
		<-conn.Done()
		s.registry.Remove(conn.ID())
		s.dispatcher.Disconnect(context.Background(), conn.ID())
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, protocol.HTTPError{Error: msg})
}

// writeFailure maps dispatcher errors onto REST statuses
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "game not found")
		return
	}
	s.writeError(w, protocol.HTTPStatus(err), err.Error())
}

func channelURL(code, playerID string) string {
	q := url.Values{}
	q.Set("game_code", code)
	q.Set("player_id", playerID)
	return "/ws?" + q.Encode()
}

func publicPlayers(g *game.Game) []game.PublicPlayer {
	players := make([]game.PublicPlayer, 0, len(g.Players))
	for _, p := range g.Players {
		players = append(players, p.Public())
	}
	return players
}
