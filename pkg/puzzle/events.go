package puzzle

import "fmt"

// Outcome classifies why a board changed.
type Outcome string

const (
	// OutcomeReset is a board reset after a level switch, catalog load or clear.
	OutcomeReset Outcome = "reset"

	// OutcomeSolved is a board filled from a solved=true response.
	OutcomeSolved Outcome = "solved"

	// OutcomeNoSolution is a board cleared by a solved=false response.
	OutcomeNoSolution Outcome = "no_solution"

	// OutcomeFailed is a solve that failed in transport; the board is unchanged.
	OutcomeFailed Outcome = "failed"
)

// BoardEvent is published every time a session's board changes.
type BoardEvent struct {
	SessionID   string    `json:"session_id"`
	Selection   Selection `json:"selection"`
	LevelKey    string    `json:"level_key"`
	Outcome     Outcome   `json:"outcome"`
	Message     string    `json:"message,omitempty"`
	Board       Board     `json:"board"`
	CreatedAtMs int64     `json:"created_at_ms"`
}

// Validate checks the structural invariants of an event.
func (e *BoardEvent) Validate() error {
	if e.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	switch e.Outcome {
	case OutcomeReset, OutcomeSolved, OutcomeNoSolution, OutcomeFailed:
	default:
		return fmt.Errorf("invalid outcome: %q", e.Outcome)
	}
	if len(e.Board.Cells) != e.Board.Width*e.Board.Height {
		return fmt.Errorf("board has %d cells, expected %d", len(e.Board.Cells), e.Board.Width*e.Board.Height)
	}
	return nil
}
