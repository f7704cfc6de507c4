package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dyluth/pentaboard/pkg/puzzle"
	"github.com/fatih/color"
)

// palette cycles by piece id.
var palette = []color.Attribute{
	color.FgRed,
	color.FgGreen,
	color.FgYellow,
	color.FgBlue,
	color.FgMagenta,
	color.FgCyan,
	color.FgHiRed,
	color.FgHiGreen,
	color.FgHiYellow,
	color.FgHiBlue,
	color.FgHiMagenta,
	color.FgHiCyan,
}

var emptyColor = color.New(color.FgHiBlack)

// PieceColor returns the display color of a piece id.
func PieceColor(pieceID int) *color.Color {
	if pieceID < 0 {
		return emptyColor
	}
	return color.New(palette[pieceID%len(palette)], color.Bold)
}

// Board writes the board one row per line, cells separated by a space.
// Empty cells print as "." and occupied cells as the piece glyph in the
// piece's color.
func Board(w io.Writer, b puzzle.Board) {
	for y := 0; y < b.Height; y++ {
		cells := make([]string, b.Width)
		for x := 0; x < b.Width; x++ {
			v := b.At(x, y)
			cells[x] = PieceColor(v).Sprint(puzzle.CellGlyph(v))
		}
		fmt.Fprintln(w, strings.Join(cells, " "))
	}
}

// Legend writes "glyph = Piece N" for every piece present on the board, in
// id order.
func Legend(w io.Writer, b puzzle.Board) {
	seen := make(map[int]bool)
	var ids []int
	for _, v := range b.Cells {
		if v != puzzle.EmptyCell && !seen[v] {
			seen[v] = true
			ids = append(ids, v)
		}
	}
	sort.Ints(ids)

	for _, id := range ids {
		fmt.Fprintf(w, "  %s = %s\n", PieceColor(id).Sprint(puzzle.CellGlyph(id)), PieceTitle(id))
	}
}

// LevelHeader describes the active level, or why there is none.
//
// catalogMsg is the catalog source message (loading or failure) and takes
// precedence. An empty catalog renders "No levels"; an unresolvable
// selection renders the invalid-selection error.
func LevelHeader(c puzzle.Catalog, level *puzzle.Level, selErr error, catalogMsg string) string {
	switch {
	case catalogMsg != "":
		return catalogMsg
	case c.Empty():
		return "No levels"
	case selErr != nil:
		return selErr.Error()
	case level == nil:
		return "No levels"
	}

	name := level.Name
	if level.GroupID != "" {
		if g, ok := c.Group(level.GroupID); ok {
			name = g.Name + " / " + level.Name
		}
	}
	return fmt.Sprintf("%s (%s, %d pieces)", name, level.Dimensions(), len(level.PieceIDs))
}
