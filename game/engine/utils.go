package engine

import (
	"fmt"
	"strings"
)

// PieceCounts tallies pieces per side and kind
func PieceCounts(board Board) map[Side]map[PieceKind]int {
	counts := map[Side]map[PieceKind]int{
		White: {},
		Black: {},
	}
	for _, row := range board {
		for _, p := range row {
			if p == nil || !p.Owner.Valid() {
				continue
			}
			counts[p.Owner][p.Kind]++
		}
	}
	return counts
}

// Render draws the board as text with column and row indexes, white in
// uppercase and black in lowercase
func Render(board Board) string {
	var sb strings.Builder

	sb.WriteString("  ")
	for x := 0; x < BoardSize; x++ {
		fmt.Fprintf(&sb, "%d", x)
	}
	sb.WriteString("\n")

	for y, row := range board.Rows() {
		fmt.Fprintf(&sb, "%d %s\n", y, row)
	}

	return sb.String()
}
