package engine

import (
	"fmt"
	"strings"
	"unicode"
)

// Layout is a named board arrangement loaded from a layout file
type Layout struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Rows        []string `json:"rows" yaml:"rows"`
}

// Board parses the layout rows into a board
func (l *Layout) Board() (Board, error) {
	return ParseLayout(l.Rows)
}

// Validate checks that the layout has a name and parseable rows
func (l *Layout) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("layout validation: name is required")
	}
	if _, err := ParseLayout(l.Rows); err != nil {
		return fmt.Errorf("layout validation: %w", err)
	}
	return nil
}

var knownKinds = map[PieceKind]bool{
	Rook:   true,
	Casta:  true,
	Dragon: true,
}

// ParseLayout builds a board from 8 rows of 8 characters. '.' is an empty
// cell, an uppercase letter is a white piece and a lowercase letter a black one.
func ParseLayout(rows []string) (Board, error) {
	var board Board

	if len(rows) != BoardSize {
		return board, fmt.Errorf("layout must have %d rows, got %d", BoardSize, len(rows))
	}

	for y, row := range rows {
		runes := []rune(row)
		if len(runes) != BoardSize {
			return board, fmt.Errorf("row %d must have %d characters, got %d", y+1, BoardSize, len(runes))
		}

		for x, char := range runes {
			if char == EmptyCell {
				continue
			}
			piece, err := pieceFromChar(char)
			if err != nil {
				return board, fmt.Errorf("row %d, col %d: %w", y+1, x+1, err)
			}
			board[y][x] = piece
		}
	}

	return board, nil
}

// Rows renders the board in the layout notation accepted by ParseLayout
func (b Board) Rows() []string {
	rows := make([]string, BoardSize)
	for y := 0; y < BoardSize; y++ {
		var sb strings.Builder
		for x := 0; x < BoardSize; x++ {
			sb.WriteRune(charFromPiece(b[y][x]))
		}
		rows[y] = sb.String()
	}
	return rows
}

// IsMirrored reports whether every white piece has a black piece of the same
// kind reflected across the horizontal midline, and vice versa.
func (b Board) IsMirrored() bool {
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			p := b[y][x]
			q := b[BoardSize-1-y][x]
			if p == nil && q == nil {
				continue
			}
			if p == nil || q == nil {
				return false
			}
			if p.Kind != q.Kind || p.Owner != q.Owner.Opponent() {
				return false
			}
		}
	}
	return true
}

func pieceFromChar(char rune) (*Piece, error) {
	kind := PieceKind(string(unicode.ToUpper(char)))
	if !knownKinds[kind] {
		return nil, fmt.Errorf("%w: unknown piece '%c'", ErrInvalidPiece, char)
	}
	if unicode.IsUpper(char) {
		return NewPiece(kind, White), nil
	}
	return NewPiece(kind, Black), nil
}

func charFromPiece(p *Piece) rune {
	if p == nil {
		return EmptyCell
	}
	if p.Kind == "" {
		return '?'
	}
	char := []rune(string(p.Kind))[0]
	if p.Owner == Black {
		return unicode.ToLower(char)
	}
	return char
}
