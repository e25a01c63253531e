package engine

// Board is the 8x8 grid indexed [y][x]. A nil cell is empty.
//
// Board is a value type: assigning or returning it copies all 64 cells.
// Pieces are never mutated in place, so sharing *Piece between copies is safe.
type Board [BoardSize][BoardSize]*Piece

// startingRows is the symmetric opening arrangement. Black occupies the top
// two rows and white mirrors it on the bottom two.
var startingRows = []string{
	"rdc..cdr",
	"cccccccc",
	"........",
	"........",
	"........",
	"........",
	"CCCCCCCC",
	"RDC..CDR",
}

// NewEmptyBoard returns a board with all cells empty
func NewEmptyBoard() Board {
	return Board{}
}

// NewStartingBoard returns the fixed opening arrangement
func NewStartingBoard() Board {
	board, err := ParseLayout(startingRows)
	if err != nil {
		panic("engine: invalid starting layout: " + err.Error())
	}
	return board
}

// Get returns the piece at c, or nil when the cell is empty
func (b *Board) Get(c Coordinate) (*Piece, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return b[c.Y][c.X], nil
}

// Set places p at c. A nil piece clears the cell.
func (b *Board) Set(c Coordinate, p *Piece) error {
	if err := c.Validate(); err != nil {
		return err
	}
	b[c.Y][c.X] = p
	return nil
}

// Clone returns an independent copy of the board
func (b Board) Clone() Board {
	return b
}

// Count returns the number of pieces owned by side
func (b Board) Count(side Side) int {
	count := 0
	for _, row := range b {
		for _, p := range row {
			if p != nil && p.Owner == side {
				count++
			}
		}
	}
	return count
}

// IsEmpty reports whether no cell holds a piece
func (b Board) IsEmpty() bool {
	return b.Count(White)+b.Count(Black) == 0
}
