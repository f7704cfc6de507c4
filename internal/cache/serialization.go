package cache

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dyluth/pentaboard/pkg/puzzle"
)

// Serialization helpers for converting solve results to and from Redis hashes.
// Scalar fields are stored individually; placements are JSON-encoded into a
// single field.

// SolutionToHash converts a solve result to a Redis hash.
func SolutionToHash(req puzzle.SolveRequest, res puzzle.SolveResult, createdAtMs int64) (map[string]interface{}, error) {
	placementsJSON, err := json.Marshal(res.Placements)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal placements: %w", err)
	}

	return map[string]interface{}{
		"width":         req.Width,
		"height":        req.Height,
		"solved":        strconv.FormatBool(res.Solved),
		"placements":    string(placementsJSON),
		"error":         res.Error,
		"created_at_ms": createdAtMs,
	}, nil
}

// HashToSolution converts a Redis hash back to a solve result.
func HashToSolution(hash map[string]string) (*puzzle.SolveResult, error) {
	solved, err := strconv.ParseBool(hash["solved"])
	if err != nil {
		return nil, fmt.Errorf("invalid solved field: %w", err)
	}

	var placements []puzzle.Placement
	if raw := hash["placements"]; raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &placements); err != nil {
			return nil, fmt.Errorf("failed to unmarshal placements: %w", err)
		}
	}

	return &puzzle.SolveResult{
		Solved:     solved,
		Placements: placements,
		Error:      hash["error"],
	}, nil
}
