package cache

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dyluth/pentaboard/pkg/puzzle"
)

// Redis key pattern helpers
//
// All keys and Pub/Sub channels are namespaced by instance name so several
// pentaboard deployments can share one Redis server.
//
// Key pattern: pentaboard:{instance_name}:{entity}:{id}
// Channel pattern: pentaboard:{instance_name}:{event_type}_events

const (
	// MaxNameLength is the maximum length for an instance name (DNS-compatible)
	MaxNameLength = 63
)

// NamePattern matches valid instance names: lowercase alphanumeric, hyphens
// allowed but not at the start or end.
var NamePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// ValidateName checks if an instance name is valid according to DNS naming rules.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("instance name cannot be empty")
	}

	if len(name) > MaxNameLength {
		return fmt.Errorf("instance name too long: %d characters (max: %d)", len(name), MaxNameLength)
	}

	if !NamePattern.MatchString(name) {
		return fmt.Errorf("invalid instance name '%s': must be lowercase alphanumeric with hyphens (not at start/end)", name)
	}

	return nil
}

// SolutionKey returns the Redis key for a cached solve result.
// Piece ids keep request order.
// Pattern: pentaboard:{instance_name}:solution:{w}x{h}:{id,id,...}
func SolutionKey(instanceName string, req puzzle.SolveRequest) string {
	ids := make([]string, len(req.PieceIDs))
	for i, id := range req.PieceIDs {
		ids[i] = strconv.Itoa(id)
	}
	return fmt.Sprintf("pentaboard:%s:solution:%s:%s", instanceName, req.Dimensions(), strings.Join(ids, ","))
}

// LatestBoardKey returns the Redis key holding a session's most recent board event.
// Pattern: pentaboard:{instance_name}:board:{session_id}
func LatestBoardKey(instanceName, sessionID string) string {
	return fmt.Sprintf("pentaboard:%s:board:%s", instanceName, sessionID)
}

// SessionsKey returns the Redis key for the set of sessions that published boards.
// Pattern: pentaboard:{instance_name}:sessions
func SessionsKey(instanceName string) string {
	return fmt.Sprintf("pentaboard:%s:sessions", instanceName)
}

// BoardEventsChannel returns the Pub/Sub channel name for board events.
// Pattern: pentaboard:{instance_name}:board_events
func BoardEventsChannel(instanceName string) string {
	return fmt.Sprintf("pentaboard:%s:board_events", instanceName)
}
