package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dyluth/pentaboard/pkg/puzzle"
)

// MinPrefixLength is the minimum length of a level key prefix.
const MinPrefixLength = 2

// ResolveLevelRef resolves a user-supplied level reference to a selection.
//
// The reference is tried, in order, as:
//  1. A full composite key ("group/level", or the bare id in flat catalogs)
//  2. A level id within groupID, when groupID is given
//  3. A bare level id, which must be unique across groups
//  4. A key prefix of at least MinPrefixLength characters, which must match
//     exactly one level
func ResolveLevelRef(c puzzle.Catalog, groupID, ref string) (puzzle.Selection, error) {
	if ref == "" {
		return puzzle.Selection{}, fmt.Errorf("level reference cannot be empty")
	}

	if sel, ok := puzzle.SelectKey(c, ref); ok && (groupID == "" || sel.GroupID == groupID) {
		return sel, nil
	}

	if groupID != "" {
		g, ok := c.Group(groupID)
		if !ok {
			return puzzle.Selection{}, &NotFoundError{Ref: groupID, What: "group"}
		}
		if l, ok := g.Level(ref); ok {
			return puzzle.Selection{GroupID: g.ID, LevelID: l.ID}, nil
		}
	}

	candidates := c.Levels()
	if groupID != "" {
		candidates = filterGroup(candidates, groupID)
	}

	var byID []puzzle.Level
	for _, l := range candidates {
		if l.ID == ref {
			byID = append(byID, l)
		}
	}
	if sel, err := unique(ref, byID); err == nil || !IsNotFoundError(err) {
		return sel, err
	}

	if len(ref) < MinPrefixLength {
		return puzzle.Selection{}, fmt.Errorf("level prefix must be at least %d characters (got %d)", MinPrefixLength, len(ref))
	}

	var byPrefix []puzzle.Level
	for _, l := range candidates {
		if strings.HasPrefix(l.Key, ref) || strings.HasPrefix(l.ID, ref) {
			byPrefix = append(byPrefix, l)
		}
	}
	return unique(ref, byPrefix)
}

func filterGroup(levels []puzzle.Level, groupID string) []puzzle.Level {
	out := levels[:0:0]
	for _, l := range levels {
		if l.GroupID == groupID {
			out = append(out, l)
		}
	}
	return out
}

func unique(ref string, matches []puzzle.Level) (puzzle.Selection, error) {
	switch len(matches) {
	case 0:
		return puzzle.Selection{}, &NotFoundError{Ref: ref, What: "level"}
	case 1:
		return puzzle.Selection{GroupID: matches[0].GroupID, LevelID: matches[0].ID}, nil
	default:
		keys := make([]string, len(matches))
		for i, l := range matches {
			keys[i] = l.Key
		}
		return puzzle.Selection{}, &AmbiguousError{Ref: ref, Matches: keys}
	}
}

// NotFoundError indicates nothing in the catalog matched the reference.
type NotFoundError struct {
	Ref  string
	What string // "level" or "group"
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found matching '%s'", e.What, e.Ref)
}

// AmbiguousError indicates several levels matched the reference.
type AmbiguousError struct {
	Ref     string
	Matches []string // Composite keys, canonical order
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous level reference '%s' matches %d levels", e.Ref, len(e.Matches))
}

// FormatAmbiguousError lists the matching keys (up to 10, then "...and N more").
func FormatAmbiguousError(err *AmbiguousError) string {
	msg := fmt.Sprintf("Level reference '%s' matches %d levels:\n", err.Ref, len(err.Matches))

	displayCount := len(err.Matches)
	if displayCount > 10 {
		displayCount = 10
	}

	for i := 0; i < displayCount; i++ {
		msg += fmt.Sprintf("  %s\n", err.Matches[i])
	}

	if len(err.Matches) > 10 {
		msg += fmt.Sprintf("  ...and %d more\n", len(err.Matches)-10)
	}

	msg += "\nUse the full group/level key to pick one."
	return msg
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	var target *AmbiguousError
	return errors.As(err, &target)
}
