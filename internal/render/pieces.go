package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dyluth/pentaboard/pkg/puzzle"
)

// PieceTitle is the player-facing piece name. Piece ids are zero-based;
// players count from one.
func PieceTitle(pieceID int) string {
	return fmt.Sprintf("Piece %d", pieceID+1)
}

// PieceShape returns the piece's bounding box as rows, "#" for occupied
// cells and "." otherwise. Cells with negative coordinates are ignored.
func PieceShape(p puzzle.Piece) []string {
	w, h := p.Bounds()
	if w == 0 || h == 0 {
		return nil
	}

	grid := make([][]byte, h)
	for y := range grid {
		grid[y] = []byte(strings.Repeat(".", w))
	}
	for _, c := range p.Cells {
		if c.X >= 0 && c.Y >= 0 {
			grid[c.Y][c.X] = '#'
		}
	}

	rows := make([]string, h)
	for y := range grid {
		rows[y] = string(grid[y])
	}
	return rows
}

// Pieces writes a titled preview of every piece, in the given order.
func Pieces(w io.Writer, pieces []puzzle.Piece) {
	if len(pieces) == 0 {
		fmt.Fprintln(w, "No pieces")
		return
	}

	for i, p := range pieces {
		if i > 0 {
			fmt.Fprintln(w)
		}
		bw, bh := p.Bounds()
		c := PieceColor(p.ID)
		fmt.Fprintf(w, "%s (%dx%d)\n", c.Sprint(PieceTitle(p.ID)), bw, bh)
		for _, row := range PieceShape(p) {
			fmt.Fprintf(w, "  %s\n", c.Sprint(row))
		}
	}
}
