package watch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dyluth/pentaboard/internal/render"
	"github.com/dyluth/pentaboard/pkg/puzzle"
)

// OutputFormat specifies the output format for watch.
type OutputFormat string

const (
	// OutputFormatDefault is human-readable lines with the board drawn below solved events
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSON is one JSON board event per line
	OutputFormatJSON OutputFormat = "json"
)

// formatter writes board events to an output stream.
type formatter interface {
	FormatBoard(ev *puzzle.BoardEvent) error
}

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputFormatDefault, OutputFormatJSON:
		return OutputFormat(s), nil
	}
	return "", fmt.Errorf("unknown output format: %s", s)
}

// WriteBoard writes a single event in the given format.
func WriteBoard(w io.Writer, format OutputFormat, ev *puzzle.BoardEvent) error {
	return newFormatter(format, w).FormatBoard(ev)
}

func newFormatter(format OutputFormat, w io.Writer) formatter {
	if format == OutputFormatJSON {
		return &jsonFormatter{writer: w}
	}
	return &defaultFormatter{writer: w}
}

// defaultFormatter formats events as human-readable text.
type defaultFormatter struct {
	writer io.Writer
}

var outcomeLabels = map[puzzle.Outcome]string{
	puzzle.OutcomeReset:      "🔄 Board reset",
	puzzle.OutcomeSolved:     "✅ Board solved",
	puzzle.OutcomeNoSolution: "🚫 No solution",
	puzzle.OutcomeFailed:     "❌ Solve failed",
}

func (f *defaultFormatter) FormatBoard(ev *puzzle.BoardEvent) error {
	label, ok := outcomeLabels[ev.Outcome]
	if !ok {
		label = "❔ Board changed"
	}

	line := fmt.Sprintf("[%s] %s: level=%s session=%s",
		formatTime(ev.CreatedAtMs), label, formatLevel(ev.LevelKey), shortSession(ev.SessionID))
	if ev.Message != "" {
		line += fmt.Sprintf(" message=%q", ev.Message)
	}
	if _, err := fmt.Fprintln(f.writer, line); err != nil {
		return err
	}

	if ev.Outcome != puzzle.OutcomeSolved {
		return nil
	}

	var board bytes.Buffer
	render.Board(&board, ev.Board)
	for _, row := range strings.Split(strings.TrimRight(board.String(), "\n"), "\n") {
		if _, err := fmt.Fprintf(f.writer, "    %s\n", row); err != nil {
			return err
		}
	}
	return nil
}

// jsonFormatter formats events as line-delimited JSON.
type jsonFormatter struct {
	writer io.Writer
}

func (f *jsonFormatter) FormatBoard(ev *puzzle.BoardEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal board event: %w", err)
	}
	_, err = fmt.Fprintf(f.writer, "%s\n", data)
	return err
}

func formatTime(ms int64) string {
	if ms == 0 {
		return "--:--:--"
	}
	return time.UnixMilli(ms).Format("15:04:05")
}

func formatLevel(key string) string {
	if key == "" {
		return "-"
	}
	return key
}

// shortSession truncates session ids to their first 8 characters.
func shortSession(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
