package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dyluth/pentaboard/pkg/puzzle"
)

// OutputFormat selects how catalog listings are written.
type OutputFormat string

const (
	// OutputFormatDefault is the human-readable table
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL is one JSON object per level
	OutputFormatJSONL OutputFormat = "jsonl"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputFormatDefault, OutputFormatJSONL:
		return OutputFormat(s), nil
	}
	return "", fmt.Errorf("unknown output format: %s", s)
}

// FormatTable writes the catalog as a table in canonical order, marking the
// selected level with "*". Returns the number of levels written.
func FormatTable(w io.Writer, c puzzle.Catalog, selected puzzle.Selection) int {
	levels := c.Levels()
	if len(levels) == 0 {
		fmt.Fprintln(w, "No levels")
		return 0
	}

	fmt.Fprintf(w, "%-1s %-16s %-20s %-20s %-7s %s\n",
		"", "GROUP", "KEY", "NAME", "SIZE", "PIECES")
	fmt.Fprintf(w, "%-1s %-16s %-20s %-20s %-7s %s\n",
		"", "----------------", "--------------------", "--------------------", "-------", "------------------------------")

	for _, l := range levels {
		marker := ""
		if l.Key == selected.Key() && l.GroupID == selected.GroupID {
			marker = "*"
		}
		fmt.Fprintf(w, "%-1s %-16s %-20s %-20s %-7s %s\n",
			marker,
			formatGroup(c, l.GroupID),
			formatField(l.Key, 20),
			formatField(l.Name, 20),
			l.Dimensions(),
			formatPieceIDs(l.PieceIDs),
		)
	}

	countMsg := "level"
	if len(levels) != 1 {
		countMsg = "levels"
	}
	if c.Flat {
		fmt.Fprintf(w, "\n%d %s\n", len(levels), countMsg)
	} else {
		fmt.Fprintf(w, "\n%d %s in %d groups\n", len(levels), countMsg, len(c.Groups))
	}

	return len(levels)
}

// FormatJSONL writes each level as line-delimited JSON in canonical order.
func FormatJSONL(w io.Writer, c puzzle.Catalog) error {
	for _, l := range c.Levels() {
		data, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("failed to marshal level to JSON: %w", err)
		}

		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// formatGroup shows the group name, or "-" in flat catalogs.
func formatGroup(c puzzle.Catalog, groupID string) string {
	if c.Flat || groupID == "" {
		return "-"
	}
	g, ok := c.Group(groupID)
	if !ok {
		return formatField(groupID, 16)
	}
	return formatField(g.Name, 16)
}

// formatField truncates a value for a fixed-width column. Empty values return "-".
func formatField(s string, width int) string {
	if s == "" {
		return "-"
	}
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	return puzzle.Truncate(s, width-3)
}

// formatPieceIDs lists piece numbers as shown to players (id+1).
func formatPieceIDs(ids []int) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id+1)
	}
	return puzzle.Truncate(strings.Join(parts, ","), 40)
}
