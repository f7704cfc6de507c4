package tui

import (
	"github.com/dyluth/pentaboard/internal/render"
	"github.com/dyluth/pentaboard/internal/session"
	"github.com/dyluth/pentaboard/pkg/puzzle"
	"github.com/gdamore/tcell/v2"
)

const helpLine = "←/→ level  Tab/Shift-Tab group  s solve  c clear  q quit"

// Board cells are two columns wide so the grid looks square.
const cellWidth = 2

// pieceColumnWidth is the horizontal step when the pieces panel wraps.
const pieceColumnWidth = 14

var palette = []tcell.Color{
	tcell.ColorRed,
	tcell.ColorGreen,
	tcell.ColorYellow,
	tcell.ColorBlue,
	tcell.ColorFuchsia,
	tcell.ColorAqua,
	tcell.ColorOrange,
	tcell.ColorLime,
	tcell.ColorGold,
	tcell.ColorDodgerBlue,
	tcell.ColorViolet,
	tcell.ColorTeal,
}

var (
	headerStyle  = tcell.StyleDefault.Bold(true)
	emptyStyle   = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	messageStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	statusStyle  = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	helpStyle    = tcell.StyleDefault.Dim(true)
)

func pieceColor(pieceID int) tcell.Color {
	if pieceID < 0 {
		return tcell.ColorDarkGray
	}
	return palette[pieceID%len(palette)]
}

func pieceStyle(pieceID int) tcell.Style {
	if pieceID < 0 {
		return emptyStyle
	}
	return tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(pieceColor(pieceID))
}

func (a *App) draw() {
	a.screen.Clear()
	w, h := a.screen.Size()
	s := a.snap

	a.drawText(0, 0, w, headerStyle, render.LevelHeader(s.Catalog, s.Level, s.SelectionErr, catalogMessage(s)))

	boardRight := a.drawBoard(0, 2, s.Board)
	a.drawPieces(boardRight+4, 2, w, h-3, s)

	a.drawText(0, h-3, w, messageStyle, s.Message)
	a.drawText(0, h-2, w, statusStyle, a.status)
	a.drawText(0, h-1, w, helpStyle, helpLine)

	a.screen.Show()
}

// catalogMessage is the header override while the catalog is not ready.
func catalogMessage(s session.Snapshot) string {
	switch s.CatalogState.Phase {
	case session.PhaseReady:
		return ""
	case session.PhaseIdle:
		return "Loading levels..."
	}
	return s.CatalogState.Message
}

// drawBoard draws the grid at (x, y) and returns its right edge.
func (a *App) drawBoard(x, y int, b puzzle.Board) int {
	for row := 0; row < b.Height; row++ {
		for col := 0; col < b.Width; col++ {
			v := b.At(col, row)
			glyph := []rune(puzzle.CellGlyph(v))[0]
			st := pieceStyle(v)
			cx := x + col*cellWidth
			a.screen.SetContent(cx, y+row, glyph, nil, st)
			a.screen.SetContent(cx+1, y+row, ' ', nil, st)
		}
	}
	return x + b.Width*cellWidth
}

// drawPieces lists the level's pieces as titled shapes in columns that wrap
// at maxY.
func (a *App) drawPieces(x, y, maxX, maxY int, s session.Snapshot) {
	a.drawText(x, y, maxX, headerStyle, "Pieces")
	y++

	switch {
	case !s.PiecesState.IsReady():
		msg := s.PiecesState.Message
		if msg == "" {
			msg = "Loading pieces..."
		}
		a.drawText(x, y, maxX, messageStyle, msg)
		return
	case s.Level == nil:
		return
	case len(s.LevelPieces) == 0:
		a.drawText(x, y, maxX, emptyStyle, "No pieces")
		return
	}

	top := y
	for _, p := range s.LevelPieces {
		shape := render.PieceShape(p)
		if y+len(shape)+1 > maxY && y > top {
			x += pieceColumnWidth
			y = top
		}
		if x >= maxX {
			return
		}

		a.drawText(x, y, maxX, tcell.StyleDefault.Foreground(pieceColor(p.ID)), render.PieceTitle(p.ID))
		y++
		for _, line := range shape {
			for i, r := range line {
				if r == '#' {
					a.screen.SetContent(x+i, y, ' ', nil, pieceStyle(p.ID))
				}
			}
			y++
		}
		y++
	}
}

// drawText writes text starting at (x, y), clipped at maxX.
func (a *App) drawText(x, y, maxX int, style tcell.Style, text string) {
	for _, r := range text {
		if x >= maxX {
			return
		}
		a.screen.SetContent(x, y, r, nil, style)
		x++
	}
}
