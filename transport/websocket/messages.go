package websocket

import (
	"github.com/wricardo/casta-game/game/engine"
)

// Event names carried in the "event" field of every message
const (
	EventJoinGame     = "join_game"
	EventMakeMove     = "make_move"
	EventGameState    = "game_state"
	EventMoveRejected = "move_rejected"
	EventError        = "error"
)

// InboundMessage is a request sent by a browser client
type InboundMessage struct {
	Event     string             `json:"event"`
	SessionID string             `json:"session_id"`
	From      *engine.Coordinate `json:"from,omitempty"`
	To        *engine.Coordinate `json:"to,omitempty"`
}

// OutboundMessage is sent by the server. game_state carries a full snapshot;
// move_rejected and error carry a code and a human-readable message.
type OutboundMessage struct {
	Event     string            `json:"event"`
	SessionID string            `json:"session_id,omitempty"`
	GameState *engine.GameState `json:"game_state,omitempty"`
	Code      string            `json:"code,omitempty"`
	Error     string            `json:"error,omitempty"`
}

func gameStateMessage(sessionID string, state engine.GameState) *OutboundMessage {
	return &OutboundMessage{
		Event:     EventGameState,
		SessionID: sessionID,
		GameState: &state,
	}
}

func rejectionMessage(event, sessionID, code, msg string) *OutboundMessage {
	return &OutboundMessage{
		Event:     event,
		SessionID: sessionID,
		Code:      code,
		Error:     msg,
	}
}
