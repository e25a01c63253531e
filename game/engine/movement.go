package engine

import (
	"fmt"
	"strings"
	"time"
)

// MoveMode selects how a move from an empty cell is treated
type MoveMode string

const (
	// MoveStrict rejects a move whose source cell is empty.
	MoveStrict MoveMode = "strict"

	// MovePermissive moves the empty value onto the destination, clearing it.
	MovePermissive MoveMode = "permissive"
)

// ParseMoveMode converts a flag value into a MoveMode
func ParseMoveMode(s string) (MoveMode, error) {
	switch MoveMode(strings.ToLower(strings.TrimSpace(s))) {
	case MoveStrict, "":
		return MoveStrict, nil
	case MovePermissive:
		return MovePermissive, nil
	default:
		return "", fmt.Errorf("unknown move mode %q (want strict or permissive)", s)
	}
}

// ApplyMove applies one ply to state: the value at from is written to to,
// from is cleared and the turn passes to the other side. No legality rules
// are checked. On error state is left untouched.
func ApplyMove(state *GameState, from, to Coordinate, mode MoveMode) (Ply, error) {
	if err := from.Validate(); err != nil {
		return Ply{}, fmt.Errorf("%w: from %s", ErrInvalidCoordinate, from)
	}
	if err := to.Validate(); err != nil {
		return Ply{}, fmt.Errorf("%w: to %s", ErrInvalidCoordinate, to)
	}

	piece := state.Board[from.Y][from.X]
	if piece == nil && mode == MoveStrict {
		return Ply{}, fmt.Errorf("%w: %s", ErrNoPieceAtSource, from)
	}

	var captured *Piece
	if from != to {
		captured = state.Board[to.Y][to.X]
	}

	ply := Ply{
		Side:      state.Turn,
		From:      from,
		To:        to,
		Piece:     piece,
		Captured:  captured,
		Timestamp: time.Now().Unix(),
	}

	// Clear before write so a move onto itself keeps the piece
	state.Board[from.Y][from.X] = nil
	state.Board[to.Y][to.X] = piece
	state.Turn = state.Turn.Opponent()
	if state.Status == StatusWaiting {
		state.Status = StatusActive
	}

	return ply, nil
}
