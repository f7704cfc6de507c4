package session

import "time"

// Phase is the lifecycle state of one data source.
type Phase string

const (
	// PhaseIdle means nothing has been requested yet (or a stale solve was discarded)
	PhaseIdle Phase = "idle"

	// PhaseLoading means a request is in flight
	PhaseLoading Phase = "loading"

	// PhaseReady means the last request succeeded and its model is current
	PhaseReady Phase = "ready"

	// PhaseFailed means the last request failed; Message says why
	PhaseFailed Phase = "failed"
)

// SourceState tracks one data source (catalog, pieces or solve).
// It is only mutated through its transition methods.
type SourceState struct {
	Phase     Phase     `json:"phase"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSourceState returns an idle source.
func NewSourceState() SourceState {
	return SourceState{Phase: PhaseIdle}
}

// IsLoading reports whether a request is in flight.
func (s SourceState) IsLoading() bool {
	return s.Phase == PhaseLoading
}

// IsReady reports whether the model is loaded.
func (s SourceState) IsReady() bool {
	return s.Phase == PhaseReady
}

// begin moves to Loading. It refuses when a request is already in flight.
func (s *SourceState) begin(message string) bool {
	if s.Phase == PhaseLoading {
		return false
	}
	s.Phase = PhaseLoading
	s.Message = message
	s.UpdatedAt = time.Now()
	return true
}

// succeed moves Loading to Ready and replaces any previous error.
func (s *SourceState) succeed(message string) {
	s.Phase = PhaseReady
	s.Message = message
	s.UpdatedAt = time.Now()
}

// fail moves Loading to Failed carrying a display message.
func (s *SourceState) fail(message string) {
	s.Phase = PhaseFailed
	s.Message = message
	s.UpdatedAt = time.Now()
}

// reset returns to Idle.
func (s *SourceState) reset() {
	s.Phase = PhaseIdle
	s.Message = ""
	s.UpdatedAt = time.Now()
}
