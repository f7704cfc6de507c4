package printer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dyluth/pentaboard/pkg/puzzle"
	"github.com/fatih/color"
)

func init() {
	// Force color output even when not connected to TTY
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)

	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr
)

// SetOutput redirects normal and error output, returning a function that
// restores the previous writers. Intended for command tests.
func SetOutput(stdout, stderr io.Writer) (restore func()) {
	prevOut, prevErr := out, errOut
	out, errOut = stdout, stderr
	return func() {
		out, errOut = prevOut, prevErr
	}
}

// Success prints a success message in green with a checkmark prefix
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		green.Fprintf(out, "✓ %s", msg)
	} else {
		green.Fprint(out, msg)
	}
}

// Info prints an informational message in the default color
func Info(format string, a ...any) {
	fmt.Fprintf(out, format, a...)
}

// Warning prints a warning message in yellow with a warning emoji prefix
func Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		yellow.Fprintf(out, "⚠️  %s", msg)
	} else {
		yellow.Fprint(out, msg)
	}
}

// Step prints a step message with emphasis (used in multi-step operations)
func Step(format string, a ...any) {
	cyan.Fprintf(out, "→ %s", fmt.Sprintf(format, a...))
}

// Println prints a plain message (for output that doesn't need coloring)
func Println(a ...any) {
	fmt.Fprintln(out, a...)
}

// Printf prints a plain formatted message (for output that doesn't need coloring)
func Printf(format string, a ...any) {
	fmt.Fprintf(out, format, a...)
}

// Error creates a formatted error message with title, explanation, and suggestions
// Prints the formatted error to stderr with colors and returns a simple error for Cobra
func Error(title string, explanation string, suggestions []string) error {
	return ErrorWithContext(title, explanation, nil, suggestions)
}

// ErrorWithContext creates a formatted error with context details, printed
// in key order. Returns a simple error carrying only the title for Cobra.
func ErrorWithContext(title string, explanation string, context map[string]string, suggestions []string) error {
	red.Fprintf(errOut, "%s\n\n", title)

	if explanation != "" {
		fmt.Fprintf(errOut, "%s\n", explanation)
	}

	if len(context) > 0 {
		keys := make([]string, 0, len(context))
		for key := range context {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintf(errOut, "\n")
		for _, key := range keys {
			fmt.Fprintf(errOut, "  %s: %s\n", key, context[key])
		}
	}

	if len(suggestions) > 0 {
		fmt.Fprintf(errOut, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(errOut, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(errOut, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(errOut, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	// Won't be printed again due to SilenceErrors
	return fmt.Errorf("%s", title)
}

// APIError reports a failed call to the solving service, choosing the title
// and suggestions from the error class.
func APIError(action string, err error, baseURL string) error {
	context := map[string]string{"Service": baseURL}

	var (
		netErr    *puzzle.NetworkError
		httpErr   *puzzle.HTTPError
		decodeErr *puzzle.DecodeError
	)
	switch {
	case errors.As(err, &netErr):
		return ErrorWithContext(
			"solving service unreachable",
			fmt.Sprintf("%s: %v", action, err),
			context,
			[]string{
				"Check that the solving service is running:\n  pentaboard health",
				"Point at another service:\n  pentaboard --api <url> " + strings.ToLower(action),
			},
		)

	case errors.As(err, &httpErr):
		context["Status"] = fmt.Sprintf("%d", httpErr.StatusCode)
		return ErrorWithContext(
			fmt.Sprintf("solving service returned status %d", httpErr.StatusCode),
			fmt.Sprintf("%s: %v", action, err),
			context,
			nil,
		)

	case errors.As(err, &decodeErr):
		return ErrorWithContext(
			"unexpected response from solving service",
			fmt.Sprintf("%s: %v", action, err),
			context,
			[]string{"Check that --api points at the solving service, not a web page"},
		)
	}

	return ErrorWithContext(fmt.Sprintf("%s failed", strings.ToLower(action)), err.Error(), context, nil)
}
