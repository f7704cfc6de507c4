package puzzle

import (
	"fmt"
	"strings"
)

// Board is the flat cell mapping that drives rendering.
// Cells are indexed y*Width+x and hold a piece id or EmptyCell.
type Board struct {
	Width  int   `json:"width"`
	Height int   `json:"height"`
	Cells  []int `json:"cells"`
}

// EmptyGrid returns a width x height board with every cell empty.
func EmptyGrid(width, height int) (Board, error) {
	if width <= 0 || height <= 0 {
		return Board{}, fmt.Errorf("%w: %dx%d", ErrInvalidDimension, width, height)
	}

	cells := make([]int, width*height)
	for i := range cells {
		cells[i] = EmptyCell
	}
	return Board{Width: width, Height: height, Cells: cells}, nil
}

// ApplyPlacements builds a board from solver placements.
//
// Coordinates outside [0,width)x[0,height) are dropped, not clamped. Later
// placements overwrite earlier ones at the same cell; occupancy conflicts are
// the solving service's responsibility.
func ApplyPlacements(width, height int, placements []Placement) (Board, error) {
	b, err := EmptyGrid(width, height)
	if err != nil {
		return Board{}, err
	}

	for _, p := range placements {
		for _, c := range p.Cells {
			if !b.InBounds(c.X, c.Y) {
				continue
			}
			b.Cells[b.Index(c.X, c.Y)] = p.PieceID
		}
	}
	return b, nil
}

// Dimensions returns the board size.
func (b Board) Dimensions() Dimensions {
	return Dimensions{Width: b.Width, Height: b.Height}
}

// Matches reports whether the board has the given size.
func (b Board) Matches(d Dimensions) bool {
	return b.Width == d.Width && b.Height == d.Height && len(b.Cells) == d.Width*d.Height
}

// InBounds reports whether (x, y) lies on the board.
func (b Board) InBounds(x, y int) bool {
	return x >= 0 && x < b.Width && y >= 0 && y < b.Height
}

// Index returns the linear index of (x, y).
func (b Board) Index(x, y int) int {
	return y*b.Width + x
}

// At returns the occupant of (x, y), or EmptyCell when out of bounds.
func (b Board) At(x, y int) int {
	if !b.InBounds(x, y) {
		return EmptyCell
	}
	return b.Cells[b.Index(x, y)]
}

// Filled counts occupied cells.
func (b Board) Filled() int {
	n := 0
	for _, v := range b.Cells {
		if v != EmptyCell {
			n++
		}
	}
	return n
}

// IsEmpty reports whether no cell is occupied.
func (b Board) IsEmpty() bool {
	return b.Filled() == 0
}

// Clone returns a deep copy.
func (b Board) Clone() Board {
	cells := make([]int, len(b.Cells))
	copy(cells, b.Cells)
	return Board{Width: b.Width, Height: b.Height, Cells: cells}
}

// Repr renders the board one row per line, "." for empty cells and the
// piece id in base 36 otherwise.
func (b Board) Repr() string {
	lines := make([]string, b.Height)
	for y := 0; y < b.Height; y++ {
		var sb strings.Builder
		for x := 0; x < b.Width; x++ {
			sb.WriteString(CellGlyph(b.At(x, y)))
		}
		lines[y] = sb.String()
	}
	return strings.Join(lines, "\n")
}

// CellGlyph returns the single-character form of a cell value.
func CellGlyph(v int) string {
	if v == EmptyCell {
		return "."
	}
	if v < 0 {
		return "?"
	}
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	if v < len(digits) {
		return digits[v : v+1]
	}
	return "#"
}
