// Package protocol defines the wire shapes shared by the HTTP surface, the
// WebSocket channel, and the dispatcher.
package protocol

import "github.com/lox/trump304/internal/game"

// Channel actions a client may send
const (
	ActionStartGame     = "start_game"
	ActionBid           = "bid"
	ActionPass          = "pass"
	ActionSelectTrump   = "select_trump"
	ActionExchangeCards = "exchange_cards"
	ActionSkipExchange  = "skip_exchange"
	ActionPlayCard      = "play_card"
	ActionAskTrump      = "ask_trump"
	ActionRevealTrump   = "reveal_trump"
	ActionNextGame      = "next_game"
)

// EventGameState labels the personalized state fan-out
const EventGameState = "game_state"

// EventTurnTimeout labels an auto-play caused by a turn timer
const EventTurnTimeout = "turn_timeout"

// ClientMessage is one inbound channel frame. Fields beyond Action are
// action-specific; unused ones stay empty.
type ClientMessage struct {
	Action string   `json:"action"`
	Amount *int     `json:"amount,omitempty"`
	Suit   string   `json:"suit,omitempty"`
	Card   string   `json:"card,omitempty"`
	Cards  []string `json:"cards,omitempty"`
}

// GameStateMessage is the personalized view pushed to one seat
type GameStateMessage struct {
	Event string `json:"event"`
	game.PlayerView
}

// NewGameState wraps a view for the channel
func NewGameState(view game.PlayerView) GameStateMessage {
	return GameStateMessage{Event: EventGameState, PlayerView: view}
}

// ErrorMessage is sent only to the offending client; other seats see no
// error traffic
type ErrorMessage struct {
	Event   string `json:"event"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewError builds the channel error frame for an engine rejection
func NewError(err error) ErrorMessage {
	return ErrorMessage{
		Event:   "error",
		Code:    ErrorCode(err),
		Message: err.Error(),
	}
}

// ErrorCode maps an engine error kind to its wire code
func ErrorCode(err error) string {
	switch game.KindOf(err) {
	case game.KindPhase:
		return "phase_violation"
	case game.KindPermission:
		return "permission_violation"
	case game.KindRule:
		return "rule_violation"
	case game.KindNotFound:
		return "not_found"
	default:
		return "invalid_input"
	}
}

// HTTPStatus maps an engine error kind to the request surface status.
// Phase and rule rejections are plain bad requests there; the channel error
// frame keeps the finer-grained code.
func HTTPStatus(err error) int {
	switch game.KindOf(err) {
	case game.KindNotFound:
		return 404
	case game.KindPermission:
		return 403
	default:
		return 400
	}
}

// CreateGameRequest is the POST /games body
type CreateGameRequest struct {
	Mode       int    `json:"mode"`
	PlayerName string `json:"player_name"`
}

// CreateGameResponse is the POST /games reply
type CreateGameResponse struct {
	GameCode   string `json:"game_code"`
	PlayerID   string `json:"player_id"`
	Seat       int    `json:"seat"`
	Mode       int    `json:"mode"`
	ChannelURL string `json:"channel_url"`
}

// JoinGameRequest is the POST /games/{code}/join body
type JoinGameRequest struct {
	PlayerName string `json:"player_name"`
}

// JoinGameResponse is the POST /games/{code}/join reply
type JoinGameResponse struct {
	GameCode   string              `json:"game_code"`
	PlayerID   string              `json:"player_id"`
	Seat       int                 `json:"seat"`
	Mode       int                 `json:"mode"`
	ChannelURL string              `json:"channel_url"`
	Players    []game.PublicPlayer `json:"players"`
}

// GameInfoResponse is the GET /games/{code} reply
type GameInfoResponse struct {
	GameCode    string              `json:"game_code"`
	Mode        int                 `json:"mode"`
	Phase       game.Phase          `json:"phase"`
	PlayerCount int                 `json:"player_count"`
	Players     []game.PublicPlayer `json:"players"`
}

// HTTPError is the JSON error body on the request surface
type HTTPError struct {
	Error string `json:"error"`
}
