package engine

import (
	"errors"
	"fmt"
)

// Side identifies one of the two players
type Side string

const (
	White Side = "white"
	Black Side = "black"
)

// Opponent returns the other side
func (s Side) Opponent() Side {
	if s == White {
		return Black
	}
	return White
}

// Valid reports whether s is one of the two known sides
func (s Side) Valid() bool {
	return s == White || s == Black
}

// PieceKind is the single-letter identifier of a piece type
type PieceKind string

const (
	Rook   PieceKind = "R"
	Casta  PieceKind = "C"
	Dragon PieceKind = "D"
)

// Status describes where a session is in its lifecycle
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished" // reserved
)

const (
	// BoardSize is the number of rows and columns on the board.
	BoardSize = 8

	// EmptyCell is the layout character for an empty cell.
	EmptyCell = '.'
)

var (
	ErrOutOfRange        = errors.New("coordinate out of range")
	ErrInvalidCoordinate = fmt.Errorf("invalid coordinate: %w", ErrOutOfRange)
	ErrNoPieceAtSource   = errors.New("no piece at source")
	ErrInvalidPiece      = errors.New("invalid piece")
)

// Piece is an immutable value describing a piece and its owner.
// The JSON field names match the browser client.
type Piece struct {
	Kind  PieceKind `json:"type"`
	Owner Side      `json:"color"`
}

// NewPiece returns a pointer to a new piece value
func NewPiece(kind PieceKind, owner Side) *Piece {
	return &Piece{Kind: kind, Owner: owner}
}

// Coordinate identifies a cell; X is the column and Y the row
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Validate returns ErrOutOfRange when either axis is outside the board
func (c Coordinate) Validate() error {
	if c.X < 0 || c.X >= BoardSize || c.Y < 0 || c.Y >= BoardSize {
		return fmt.Errorf("%w: (%d,%d)", ErrOutOfRange, c.X, c.Y)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// GameState is the full snapshot broadcast to every observer of a session
type GameState struct {
	Board  Board  `json:"board"`
	Turn   Side   `json:"turn"`
	Status Status `json:"status"`
}

// NewGameState returns a waiting game on the given board with white to move
func NewGameState(board Board) GameState {
	return GameState{
		Board:  board,
		Turn:   White,
		Status: StatusWaiting,
	}
}

// Ply is a single applied move as recorded in a session's history
type Ply struct {
	Number    int        `json:"number"`
	Side      Side       `json:"side"`
	From      Coordinate `json:"from"`
	To        Coordinate `json:"to"`
	Piece     *Piece     `json:"piece"`
	Captured  *Piece     `json:"captured,omitempty"`
	Timestamp int64      `json:"timestamp"`
}
