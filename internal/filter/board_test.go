package filter

import (
	"testing"
	"time"

	"github.com/dyluth/pentaboard/pkg/puzzle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCriteria_Matches(t *testing.T) {
	ev := &puzzle.BoardEvent{
		SessionID:   "s-1",
		LevelKey:    "starter/3",
		Outcome:     puzzle.OutcomeSolved,
		CreatedAtMs: 2000,
	}

	tests := []struct {
		name     string
		criteria Criteria
		want     bool
	}{
		{name: "no filters", criteria: Criteria{}, want: true},
		{name: "since before event", criteria: Criteria{SinceTimestampMs: 1000}, want: true},
		{name: "since after event", criteria: Criteria{SinceTimestampMs: 3000}, want: false},
		{name: "session match", criteria: Criteria{SessionID: "s-1"}, want: true},
		{name: "session mismatch", criteria: Criteria{SessionID: "s-2"}, want: false},
		{name: "level glob match", criteria: Criteria{LevelGlob: "starter/*"}, want: true},
		{name: "level glob mismatch", criteria: Criteria{LevelGlob: "junior/*"}, want: false},
		{name: "outcome match", criteria: Criteria{Outcome: puzzle.OutcomeSolved}, want: true},
		{name: "outcome mismatch", criteria: Criteria{Outcome: puzzle.OutcomeFailed}, want: false},
		{name: "all criteria", criteria: Criteria{SinceTimestampMs: 1, SessionID: "s-1", LevelGlob: "*/3", Outcome: puzzle.OutcomeSolved}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.criteria.Matches(ev))
		})
	}
}

func TestCriteria_Validate(t *testing.T) {
	assert.NoError(t, (&Criteria{LevelGlob: "starter/*", Outcome: puzzle.OutcomeReset}).Validate())
	assert.Error(t, (&Criteria{LevelGlob: "[unterminated"}).Validate())
	assert.Error(t, (&Criteria{Outcome: "exploded"}).Validate())
}

func TestParseSince(t *testing.T) {
	now := time.Date(2025, 10, 29, 14, 0, 0, 0, time.UTC)

	t.Run("empty means no bound", func(t *testing.T) {
		ms, err := ParseSince("", now)
		require.NoError(t, err)
		assert.Zero(t, ms)
	})

	t.Run("duration is relative to now", func(t *testing.T) {
		ms, err := ParseSince("1h", now)
		require.NoError(t, err)
		assert.Equal(t, now.Add(-time.Hour).UnixMilli(), ms)
	})

	t.Run("RFC3339", func(t *testing.T) {
		ms, err := ParseSince("2025-10-29T13:00:00Z", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 10, 29, 13, 0, 0, 0, time.UTC).UnixMilli(), ms)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := ParseSince("yesterday", now)
		assert.Error(t, err)

		_, err = ParseSince("-5m", now)
		assert.Error(t, err)
	})
}
