package puzzle

// Event is an input to Project.
type Event interface {
	isEvent()
}

// LevelChanged resets the board for a newly selected level.
type LevelChanged struct {
	Width  int
	Height int
}

// SolveSucceeded carries the placements of a solved=true response together
// with the dimensions the request was made for.
type SolveSucceeded struct {
	Width      int
	Height     int
	Placements []Placement
}

// SolveFailed reports a transport, status or decode failure.
type SolveFailed struct {
	Err error
}

// NoSolution reports a valid solved=false response.
type NoSolution struct {
	Message string
}

func (LevelChanged) isEvent()   {}
func (SolveSucceeded) isEvent() {}
func (SolveFailed) isEvent()    {}
func (NoSolution) isEvent()     {}

// Project computes the next board from the previous one, the dimensions of
// the currently active level and an event.
//
// A SolveSucceeded whose dimensions differ from active belongs to a level
// that is no longer shown and is discarded. SolveFailed keeps the previous
// board when it still matches active. Every other fallback is an empty grid
// sized for active, never for the previous board.
func Project(prev Board, active Dimensions, ev Event) (Board, error) {
	switch e := ev.(type) {
	case LevelChanged:
		return EmptyGrid(e.Width, e.Height)

	case SolveSucceeded:
		if e.Width != active.Width || e.Height != active.Height {
			return keepOrReset(prev, active)
		}
		return ApplyPlacements(e.Width, e.Height, e.Placements)

	case SolveFailed:
		return keepOrReset(prev, active)

	case NoSolution:
		return EmptyGrid(active.Width, active.Height)

	default:
		return keepOrReset(prev, active)
	}
}

func keepOrReset(prev Board, active Dimensions) (Board, error) {
	if prev.Matches(active) {
		return prev.Clone(), nil
	}
	return EmptyGrid(active.Width, active.Height)
}
