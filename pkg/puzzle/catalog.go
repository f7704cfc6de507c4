package puzzle

import (
	"regexp"
	"sort"
	"strconv"
)

// DefaultGroupPriority is the canonical order of the level-sets shipped by
// the solving service. Groups not listed here sort after all of these.
var DefaultGroupPriority = []string{"starter", "junior", "expert", "master", "wizard"}

// RawGroup is a group record as received from the wire, before normalization.
// Exactly one of GroupID, ID or Name is expected to identify the group.
type RawGroup struct {
	GroupID string
	ID      string
	Name    string
	Levels  []RawLevel
}

// RawLevel is a level record as received from the wire.
type RawLevel struct {
	ID       string
	Name     string
	Width    int
	Height   int
	PieceIDs []int
}

// Catalog is the normalized, canonically ordered level hierarchy.
// A Catalog is read-only once built.
type Catalog struct {
	Groups []Group `json:"groups"`
	Flat   bool    `json:"flat"` // Single implicit group with an empty id

	// Dropped lists the keys of duplicate levels discarded during
	// normalization, sorted.
	Dropped []string `json:"-"`
}

// Normalize builds a grouped catalog.
//
// Group ids fall back from GroupID to ID to Name; groups with none of them
// are skipped. Records resolving to the same group id are merged; the
// group name is the smallest explicit name among them. Level ids fall back
// from ID to Name. Levels without an id or with non-positive dimensions are
// skipped so that they can never reach EmptyGrid. When a level id repeats
// within a group one copy is kept (see normalizeLevels) and the key is
// recorded in Dropped. The result does not depend on the order of raw.
func Normalize(raw []RawGroup, priority []string) Catalog {
	type draft struct {
		name   string
		levels []RawLevel
	}
	drafts := make(map[string]*draft)
	var ids []string
	for _, rg := range raw {
		id := firstNonEmpty(rg.GroupID, rg.ID, rg.Name)
		if id == "" {
			continue
		}
		d, ok := drafts[id]
		if !ok {
			d = &draft{}
			drafts[id] = d
			ids = append(ids, id)
		}
		if rg.Name != "" && (d.name == "" || rg.Name < d.name) {
			d.name = rg.Name
		}
		d.levels = append(d.levels, rg.Levels...)
	}

	var dropped []string
	groups := make([]Group, 0, len(ids))
	for _, id := range ids {
		d := drafts[id]
		levels, dups := normalizeLevels(id, d.levels)
		dropped = append(dropped, dups...)
		groups = append(groups, Group{
			ID:     id,
			Name:   firstNonEmpty(d.name, id),
			Levels: levels,
		})
	}

	SortGroups(groups, priority)
	sort.Strings(dropped)
	return Catalog{Groups: groups, Dropped: dropped}
}

// NormalizeFlat builds a flat catalog from the legacy /levels payload.
func NormalizeFlat(raw []RawLevel) Catalog {
	levels, dropped := normalizeLevels("", raw)
	if len(levels) == 0 {
		return Catalog{Flat: true, Dropped: dropped}
	}
	return Catalog{
		Flat:    true,
		Groups:  []Group{{ID: "", Name: "", Levels: levels}},
		Dropped: dropped,
	}
}

// normalizeLevels converts and orders one group's levels. Of several levels
// sharing an id, the one that sorts first by name, width, height and piece
// ids is kept; the keys of the others are returned.
func normalizeLevels(groupID string, raw []RawLevel) ([]Level, []string) {
	levels := make([]Level, 0, len(raw))
	for _, rl := range raw {
		id := firstNonEmpty(rl.ID, rl.Name)
		if id == "" || rl.Width <= 0 || rl.Height <= 0 {
			continue
		}
		pieceIDs := make([]int, len(rl.PieceIDs))
		copy(pieceIDs, rl.PieceIDs)
		levels = append(levels, Level{
			ID:       id,
			Key:      LevelKey(groupID, id),
			GroupID:  groupID,
			Name:     firstNonEmpty(rl.Name, id),
			Width:    rl.Width,
			Height:   rl.Height,
			PieceIDs: pieceIDs,
		})
	}

	sort.SliceStable(levels, func(i, j int) bool {
		if levelLess(levels[i], levels[j]) {
			return true
		}
		if levelLess(levels[j], levels[i]) {
			return false
		}
		return variantLess(levels[i], levels[j])
	})

	var dropped []string
	kept := levels[:0]
	for _, l := range levels {
		if len(kept) > 0 && kept[len(kept)-1].ID == l.ID {
			dropped = append(dropped, l.Key)
			continue
		}
		kept = append(kept, l)
	}
	return kept, dropped
}

// SortGroups orders groups in place by their position in priority (exact
// match), unknown groups last, ties broken by case-sensitive name then id.
func SortGroups(groups []Group, priority []string) {
	rank := make(map[string]int, len(priority))
	for i, id := range priority {
		if _, seen := rank[id]; !seen {
			rank[id] = i
		}
	}
	rankOf := func(id string) int {
		if r, ok := rank[id]; ok {
			return r
		}
		return len(priority)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		ri, rj := rankOf(groups[i].ID), rankOf(groups[j].ID)
		if ri != rj {
			return ri < rj
		}
		if groups[i].Name != groups[j].Name {
			return groups[i].Name < groups[j].Name
		}
		return groups[i].ID < groups[j].ID
	})
}

// SortLevels orders levels in place by the first integer embedded in their
// id, ascending. Ids without an integer sort after those with one. Ties are
// broken by id.
func SortLevels(levels []Level) {
	sort.SliceStable(levels, func(i, j int) bool {
		return levelLess(levels[i], levels[j])
	})
}

func levelLess(a, b Level) bool {
	na, oka := FirstInt(a.ID)
	nb, okb := FirstInt(b.ID)
	if oka != okb {
		return oka
	}
	if oka && na != nb {
		return na < nb
	}
	return a.ID < b.ID
}

// variantLess orders levels that share an id.
func variantLess(a, b Level) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	if a.Width != b.Width {
		return a.Width < b.Width
	}
	if a.Height != b.Height {
		return a.Height < b.Height
	}
	for i := 0; i < len(a.PieceIDs) && i < len(b.PieceIDs); i++ {
		if a.PieceIDs[i] != b.PieceIDs[i] {
			return a.PieceIDs[i] < b.PieceIDs[i]
		}
	}
	return len(a.PieceIDs) < len(b.PieceIDs)
}

var digitsRe = regexp.MustCompile(`[0-9]+`)

// FirstInt returns the first run of decimal digits in s.
func FirstInt(s string) (int, bool) {
	m := digitsRe.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Empty reports whether the catalog has no groups.
func (c Catalog) Empty() bool {
	return len(c.Groups) == 0
}

// Group looks up a group by id. In a flat catalog the implicit group is
// addressed by the empty id.
func (c Catalog) Group(id string) (*Group, bool) {
	for i := range c.Groups {
		if c.Groups[i].ID == id {
			return &c.Groups[i], true
		}
	}
	return nil, false
}

// LevelByKey looks up a level by its composite key.
func (c Catalog) LevelByKey(key string) (*Level, bool) {
	for gi := range c.Groups {
		for li := range c.Groups[gi].Levels {
			if c.Groups[gi].Levels[li].Key == key {
				return &c.Groups[gi].Levels[li], true
			}
		}
	}
	return nil, false
}

// Levels returns every level, flattened in canonical order.
func (c Catalog) Levels() []Level {
	var out []Level
	for _, g := range c.Groups {
		out = append(out, g.Levels...)
	}
	return out
}

// Level looks up a level by id within the group.
func (g Group) Level(id string) (*Level, bool) {
	for i := range g.Levels {
		if g.Levels[i].ID == id {
			return &g.Levels[i], true
		}
	}
	return nil, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
