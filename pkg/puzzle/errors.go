package puzzle

import (
	"errors"
	"fmt"
)

// BodyExcerptLimit caps how much of a response body is quoted in errors.
const BodyExcerptLimit = 120

var (
	// ErrInvalidDimension is returned when a board would have width or height <= 0.
	ErrInvalidDimension = errors.New("invalid board dimension")

	// ErrNoSolution is the informational outcome of a solve that returned solved=false.
	ErrNoSolution = errors.New("no solution")
)

// NetworkError indicates the request could not complete.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("Request failed: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError indicates a non-success response status.
type HTTPError struct {
	Op         string
	StatusCode int
	Body       string // Truncated to BodyExcerptLimit
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("Backend error (status %d) on %s", e.StatusCode, e.Op)
	}
	return fmt.Sprintf("Backend error (status %d) on %s: %s", e.StatusCode, e.Op, e.Body)
}

// DecodeError indicates the body was not parseable as the expected shape.
type DecodeError struct {
	Op         string
	StatusCode int
	Body       string // Truncated to BodyExcerptLimit
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("Backend not JSON (status %d) on %s: %s", e.StatusCode, e.Op, e.Body)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// InvalidSelectionError indicates a selection that references a group or
// level missing from the catalog. It is a renderable state, not a crash.
type InvalidSelectionError struct {
	Selection Selection
	Reason    string
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("Invalid levelId: %s (%s)", e.Selection, e.Reason)
}

// IsNetworkError reports whether err wraps a *NetworkError.
func IsNetworkError(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsHTTPError reports whether err wraps a *HTTPError.
func IsHTTPError(err error) bool {
	var target *HTTPError
	return errors.As(err, &target)
}

// IsDecodeError reports whether err wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}

// IsInvalidSelection reports whether err wraps an *InvalidSelectionError.
func IsInvalidSelection(err error) bool {
	var target *InvalidSelectionError
	return errors.As(err, &target)
}

// Truncate shortens s to at most limit runes, marking the cut with "...".
// A limit <= 0 disables truncation.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 3 {
		return string(r[:limit])
	}
	return string(r[:limit-3]) + "..."
}

// Excerpt returns the first BodyExcerptLimit runes of a response body.
func Excerpt(body []byte) string {
	r := []rune(string(body))
	if len(r) > BodyExcerptLimit {
		r = r[:BodyExcerptLimit]
	}
	return string(r)
}
