package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLayout(t *testing.T) {
	rows := []string{
		"r......r",
		"........",
		"........",
		"...Cd...",
		"........",
		"........",
		"........",
		"R......R",
	}

	board, err := ParseLayout(rows)
	require.NoError(t, err)

	assert.Equal(t, &Piece{Kind: Rook, Owner: Black}, board[0][0])
	assert.Equal(t, &Piece{Kind: Rook, Owner: White}, board[7][7])
	assert.Equal(t, &Piece{Kind: Casta, Owner: White}, board[3][3])
	assert.Equal(t, &Piece{Kind: Dragon, Owner: Black}, board[3][4])
	assert.Equal(t, 3, board.Count(White))
	assert.Equal(t, 3, board.Count(Black))

	assert.Equal(t, rows, board.Rows())
	assert.False(t, board.IsMirrored())
}

func TestParseLayout_Errors(t *testing.T) {
	valid := strings.Repeat(".", BoardSize)

	tests := []struct {
		name    string
		rows    []string
		wantErr error
	}{
		{
			name: "too few rows",
			rows: []string{valid, valid},
		},
		{
			name: "short row",
			rows: []string{valid, valid, "...", valid, valid, valid, valid, valid},
		},
		{
			name:    "unknown piece",
			rows:    []string{valid, valid, "...X....", valid, valid, valid, valid, valid},
			wantErr: ErrInvalidPiece,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLayout(tt.rows)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRender(t *testing.T) {
	out := Render(NewStartingBoard())

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, BoardSize+1)
	assert.Equal(t, "  01234567", lines[0])
	assert.Equal(t, "0 rdc..cdr", lines[1])
	assert.Equal(t, "7 RDC..CDR", lines[8])
}

func TestPieceCounts(t *testing.T) {
	counts := PieceCounts(NewStartingBoard())

	assert.Equal(t, 2, counts[White][Rook])
	assert.Equal(t, 2, counts[White][Dragon])
	assert.Equal(t, 10, counts[White][Casta])
	assert.Equal(t, counts[White], counts[Black])
}

func TestLayoutValidate(t *testing.T) {
	layout := &Layout{Name: "opening", Rows: NewStartingBoard().Rows()}
	require.NoError(t, layout.Validate())

	board, err := layout.Board()
	require.NoError(t, err)
	assert.Equal(t, NewStartingBoard(), board)

	assert.Error(t, (&Layout{Rows: layout.Rows}).Validate(), "name is required")
	assert.Error(t, (&Layout{Name: "broken", Rows: []string{"R"}}).Validate())
}
