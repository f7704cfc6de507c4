package filter

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dyluth/pentaboard/pkg/puzzle"
)

// Criteria defines filtering criteria for board events.
// All filters are ANDed together - an event must match ALL criteria to pass.
type Criteria struct {
	SinceTimestampMs int64          // Unix timestamp in milliseconds, 0 = no filter
	SessionID        string         // Exact session id, empty = no filter
	LevelGlob        string         // Glob pattern for the level key, empty = no filter
	Outcome          puzzle.Outcome // Exact outcome, empty = no filter
}

// Matches returns true if the event matches all filter criteria.
// Empty/zero criteria values are treated as "match all" for that criterion.
func (c *Criteria) Matches(ev *puzzle.BoardEvent) bool {
	if c.SinceTimestampMs > 0 && ev.CreatedAtMs < c.SinceTimestampMs {
		return false
	}

	if c.SessionID != "" && ev.SessionID != c.SessionID {
		return false
	}

	if c.LevelGlob != "" {
		matched, err := filepath.Match(c.LevelGlob, ev.LevelKey)
		if err != nil || !matched {
			return false
		}
	}

	if c.Outcome != "" && ev.Outcome != c.Outcome {
		return false
	}

	return true
}

// Validate checks the glob and outcome values.
func (c *Criteria) Validate() error {
	if c.LevelGlob != "" {
		if _, err := filepath.Match(c.LevelGlob, ""); err != nil {
			return fmt.Errorf("invalid level pattern '%s': %w", c.LevelGlob, err)
		}
	}

	switch c.Outcome {
	case "", puzzle.OutcomeReset, puzzle.OutcomeSolved, puzzle.OutcomeNoSolution, puzzle.OutcomeFailed:
	default:
		return fmt.Errorf("invalid outcome '%s' (must be reset, solved, no_solution or failed)", c.Outcome)
	}
	return nil
}

// ParseSince parses a --since value into a Unix timestamp (milliseconds).
// Supports two formats:
//   - Go duration format, relative to now: "1h", "30m", "1h30m"
//   - RFC3339 timestamps: "2025-10-29T13:00:00Z"
//
// An empty value means no bound and returns 0.
func ParseSince(spec string, now time.Time) (int64, error) {
	if spec == "" {
		return 0, nil
	}

	if t, err := time.Parse(time.RFC3339, spec); err == nil {
		return t.UnixMilli(), nil
	}

	if d, err := time.ParseDuration(spec); err == nil && d >= 0 {
		return now.Add(-d).UnixMilli(), nil
	}

	return 0, fmt.Errorf("invalid --since: %s (use duration like '1h30m' or RFC3339 like '2025-10-29T13:00:00Z')", spec)
}
