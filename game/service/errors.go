package service

import (
	"errors"

	"github.com/wricardo/casta-game/game/engine"
)

var (
	ErrUnknownSession   = errors.New("unknown session")
	ErrInvalidSessionID = errors.New("invalid session ID")
	ErrLayoutNotFound   = errors.New("layout not found")
)

// Error codes carried on the wire next to human-readable messages
const (
	CodeUnknownSession    = "unknown_session"
	CodeInvalidSessionID  = "invalid_session_id"
	CodeInvalidCoordinate = "invalid_coordinate"
	CodeNoPieceAtSource   = "no_piece_at_source"
	CodeLayoutNotFound    = "layout_not_found"
	CodeBadRequest        = "bad_request"
	CodeInternal          = "internal"
)

// ErrorCode maps an error returned by the service to its wire code
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownSession):
		return CodeUnknownSession
	case errors.Is(err, ErrInvalidSessionID):
		return CodeInvalidSessionID
	case errors.Is(err, engine.ErrOutOfRange):
		return CodeInvalidCoordinate
	case errors.Is(err, engine.ErrNoPieceAtSource):
		return CodeNoPieceAtSource
	case errors.Is(err, ErrLayoutNotFound):
		return CodeLayoutNotFound
	default:
		return CodeInternal
	}
}
