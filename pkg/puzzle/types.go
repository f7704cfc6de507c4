package puzzle

import "fmt"

// EmptyCell marks an unoccupied board cell.
const EmptyCell = -1

// Cell is a board or piece coordinate.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Piece is a fixed multi-cell shape. Cells are relative to the piece origin.
type Piece struct {
	ID    int    `json:"pieceId"`
	Cells []Cell `json:"cells"`
}

// Bounds returns the width and height of the piece's bounding box.
func (p Piece) Bounds() (width, height int) {
	for _, c := range p.Cells {
		if c.X+1 > width {
			width = c.X + 1
		}
		if c.Y+1 > height {
			height = c.Y + 1
		}
	}
	return width, height
}

// Level is a board shape plus the pieces required to tile it.
type Level struct {
	ID       string `json:"id"`        // Identifier within the owning group
	Key      string `json:"key"`       // Globally unique "{group_id}/{level_id}" (bare id in flat catalogs)
	GroupID  string `json:"group_id"`  // Owning group, empty in flat catalogs
	Name     string `json:"name"`      // Display name
	Width    int    `json:"width"`     // Board width, >= 1 for valid level data
	Height   int    `json:"height"`    // Board height, >= 1 for valid level data
	PieceIDs []int  `json:"piece_ids"` // Pieces needed, in display order
}

// Dimensions returns the level's board size.
func (l Level) Dimensions() Dimensions {
	return Dimensions{Width: l.Width, Height: l.Height}
}

// Group is an ordered level-set.
type Group struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Levels []Level `json:"levels"`
}

// Placement is a piece assigned to absolute board cells by the solver.
type Placement struct {
	PieceID int    `json:"pieceId"`
	Cells   []Cell `json:"cells"`
}

// Dimensions is a width/height pair.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Selection is the active (group, level) addressing pair.
// The zero value is the unset selection.
type Selection struct {
	GroupID string `json:"group_id"`
	LevelID string `json:"level_id"`
}

// IsSet reports whether anything has been selected.
func (s Selection) IsSet() bool {
	return s.GroupID != "" || s.LevelID != ""
}

// Key returns the composite level key this selection points at.
func (s Selection) Key() string {
	return LevelKey(s.GroupID, s.LevelID)
}

func (s Selection) String() string {
	if !s.IsSet() {
		return "<unset>"
	}
	return s.Key()
}

// LevelKey builds the composite level identifier.
func LevelKey(groupID, levelID string) string {
	if groupID == "" {
		return levelID
	}
	return groupID + "/" + levelID
}

// SolveRequest is the body posted to the solving service.
type SolveRequest struct {
	Width    int   `json:"width"`
	Height   int   `json:"height"`
	PieceIDs []int `json:"pieceIds"`
}

// NewSolveRequest builds the request for a level.
func NewSolveRequest(l Level) SolveRequest {
	ids := make([]int, len(l.PieceIDs))
	copy(ids, l.PieceIDs)
	return SolveRequest{Width: l.Width, Height: l.Height, PieceIDs: ids}
}

// Dimensions returns the requested board size.
func (r SolveRequest) Dimensions() Dimensions {
	return Dimensions{Width: r.Width, Height: r.Height}
}

// SolveResult is the solving service's answer.
// Solved=false is a valid negative outcome, not a transport failure.
type SolveResult struct {
	Solved     bool        `json:"solved"`
	Placements []Placement `json:"placements,omitempty"`
	Error      string      `json:"error,omitempty"`
}
