package puzzle

// ResolveDefault returns the first group and its first level in canonical
// order, or the unset selection when the catalog has no groups.
func ResolveDefault(c Catalog) Selection {
	if c.Empty() {
		return Selection{}
	}
	g := c.Groups[0]
	sel := Selection{GroupID: g.ID}
	if len(g.Levels) > 0 {
		sel.LevelID = g.Levels[0].ID
	}
	return sel
}

// ResolveLevel looks up the level a selection points at.
//
// A missing group or level yields an *InvalidSelectionError. Callers render
// that as an explicit invalid state and must not substitute a default.
func ResolveLevel(c Catalog, s Selection) (*Level, error) {
	if c.Flat && s.GroupID != "" {
		return nil, &InvalidSelectionError{Selection: s, Reason: "catalog has no groups"}
	}
	g, ok := c.Group(s.GroupID)
	if !ok {
		return nil, &InvalidSelectionError{Selection: s, Reason: "unknown group"}
	}
	if s.LevelID == "" {
		return nil, &InvalidSelectionError{Selection: s, Reason: "no level selected"}
	}
	l, ok := g.Level(s.LevelID)
	if !ok {
		return nil, &InvalidSelectionError{Selection: s, Reason: "unknown level"}
	}
	return l, nil
}

// SwitchGroup selects the first level of groupID. The level is unset when the
// group is empty or unknown; an unknown group id is still recorded so the
// invalid state can report what was requested.
func SwitchGroup(c Catalog, groupID string) Selection {
	sel := Selection{GroupID: groupID}
	if g, ok := c.Group(groupID); ok && len(g.Levels) > 0 {
		sel.LevelID = g.Levels[0].ID
	}
	return sel
}

// SelectLevel keeps the current group and selects levelID, recorded as-is.
func SelectLevel(s Selection, levelID string) Selection {
	return Selection{GroupID: s.GroupID, LevelID: levelID}
}

// SelectKey returns the selection addressing the level with the given
// composite key, or false when the catalog has no such level.
func SelectKey(c Catalog, key string) (Selection, bool) {
	l, ok := c.LevelByKey(key)
	if !ok {
		return Selection{}, false
	}
	return Selection{GroupID: l.GroupID, LevelID: l.ID}, true
}

// NextLevel moves delta steps through the flattened canonical level order,
// wrapping at both ends. An invalid selection restarts from the default.
func NextLevel(c Catalog, s Selection, delta int) Selection {
	levels := c.Levels()
	if len(levels) == 0 {
		return s
	}

	current := -1
	key := s.Key()
	for i, l := range levels {
		if l.Key == key {
			current = i
			break
		}
	}
	if current < 0 {
		return ResolveDefault(c)
	}

	n := len(levels)
	next := ((current+delta)%n + n) % n
	return Selection{GroupID: levels[next].GroupID, LevelID: levels[next].ID}
}

// NextGroup moves delta steps through the group order, selecting the first
// level of the target group.
func NextGroup(c Catalog, s Selection, delta int) Selection {
	if c.Flat || c.Empty() {
		return s
	}

	current := -1
	for i, g := range c.Groups {
		if g.ID == s.GroupID {
			current = i
			break
		}
	}
	if current < 0 {
		return ResolveDefault(c)
	}

	n := len(c.Groups)
	next := ((current+delta)%n + n) % n
	return SwitchGroup(c, c.Groups[next].ID)
}
