// Package puzzle provides the type-safe board model and the pure
// reconciliation functions of the pentaboard client.
//
// # Overview
//
// The solving itself happens in a remote service. This package only covers
// how its inputs and outputs are shaped on the client:
//
//   - Grid codec: EmptyGrid and ApplyPlacements convert between board
//     dimensions, solver placements and the flat cell slice that is rendered.
//   - Catalog model: Normalize and NormalizeFlat turn loosely shaped
//     group/level payloads into an ordered, addressable Catalog.
//   - Selection resolver: ResolveDefault, ResolveLevel, SwitchGroup and
//     SelectLevel derive the active level from a Selection.
//   - Board projection: Project folds solve outcomes and level switches into
//     the next Board, discarding results that no longer match the active level.
//
// # Addressing
//
// Every level has a composite key of the form "{group_id}/{level_id}" which
// is unique across the whole catalog. A flat catalog (the legacy /levels
// payload) holds a single implicit group with an empty id; its levels are
// keyed by their bare id and a Selection addresses them with an unset
// GroupID.
//
// # Usage Example
//
//	import "github.com/dyluth/pentaboard/pkg/puzzle"
//
//	groups, err := puzzle.ParseGroups(body)
//	if err != nil {
//		return err
//	}
//	catalog := puzzle.Normalize(groups, puzzle.DefaultGroupPriority)
//
//	sel := puzzle.ResolveDefault(catalog)
//	level, err := puzzle.ResolveLevel(catalog, sel)
//	if err != nil {
//		// render "Invalid levelId"
//	}
//
//	board, err := puzzle.ApplyPlacements(level.Width, level.Height, result.Placements)
//
// Functions in this package are pure: identical input always yields
// identical output. SortGroups and SortLevels are the exception: they sort
// their argument in place; every other function leaves its inputs untouched.
package puzzle
