package puzzle

import (
	"errors"
	"fmt"
	"math"

	"github.com/tidwall/gjson"
)

// ErrMalformedPayload is returned when a response body does not have the
// expected JSON shape.
var ErrMalformedPayload = errors.New("malformed payload")

// ParseGroups decodes a /groups body. A missing "groups" field is an empty list.
func ParseGroups(body []byte) ([]RawGroup, error) {
	root, err := parseObject(body)
	if err != nil {
		return nil, err
	}

	list, err := optionalArray(root, "groups")
	if err != nil {
		return nil, err
	}

	groups := make([]RawGroup, 0, len(list))
	for i, g := range list {
		if !g.IsObject() {
			return nil, fmt.Errorf("%w: groups[%d] is not an object", ErrMalformedPayload, i)
		}
		levels, err := optionalArray(g, "levels")
		if err != nil {
			return nil, fmt.Errorf("groups[%d]: %w", i, err)
		}
		rawLevels, err := parseLevelList(levels, fmt.Sprintf("groups[%d].levels", i))
		if err != nil {
			return nil, err
		}
		groups = append(groups, RawGroup{
			GroupID: g.Get("groupId").String(),
			ID:      g.Get("id").String(),
			Name:    g.Get("name").String(),
			Levels:  rawLevels,
		})
	}
	return groups, nil
}

// ParseLevels decodes a legacy /levels body.
func ParseLevels(body []byte) ([]RawLevel, error) {
	root, err := parseObject(body)
	if err != nil {
		return nil, err
	}
	list, err := optionalArray(root, "levels")
	if err != nil {
		return nil, err
	}
	return parseLevelList(list, "levels")
}

// ParsePieces decodes a /pieces body. A missing "pieces" field is an empty list.
func ParsePieces(body []byte) ([]Piece, error) {
	root, err := parseObject(body)
	if err != nil {
		return nil, err
	}
	list, err := optionalArray(root, "pieces")
	if err != nil {
		return nil, err
	}

	pieces := make([]Piece, 0, len(list))
	for i, p := range list {
		if !p.IsObject() {
			return nil, fmt.Errorf("%w: pieces[%d] is not an object", ErrMalformedPayload, i)
		}
		where := fmt.Sprintf("pieces[%d]", i)
		id, err := pieceID(p.Get("pieceId"), where+".pieceId")
		if err != nil {
			return nil, err
		}
		cells, err := parseCells(p, where)
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, Piece{ID: id, Cells: cells})
	}
	return pieces, nil
}

// ParseSolveResult decodes a /solve body. A missing "solved" field counts as
// solved=false.
func ParseSolveResult(body []byte) (SolveResult, error) {
	root, err := parseObject(body)
	if err != nil {
		return SolveResult{}, err
	}

	out := SolveResult{
		Solved: root.Get("solved").Bool(),
		Error:  root.Get("error").String(),
	}

	list, err := optionalArray(root, "placements")
	if err != nil {
		return SolveResult{}, err
	}
	for i, p := range list {
		if !p.IsObject() {
			return SolveResult{}, fmt.Errorf("%w: placements[%d] is not an object", ErrMalformedPayload, i)
		}
		where := fmt.Sprintf("placements[%d]", i)
		id, err := pieceID(p.Get("pieceId"), where+".pieceId")
		if err != nil {
			return SolveResult{}, err
		}
		cells, err := parseCells(p, where)
		if err != nil {
			return SolveResult{}, err
		}
		out.Placements = append(out.Placements, Placement{PieceID: id, Cells: cells})
	}
	return out, nil
}

func parseObject(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: invalid JSON", ErrMalformedPayload)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: expected a JSON object", ErrMalformedPayload)
	}
	return root, nil
}

// optionalArray returns the array at path, nil when absent or null.
func optionalArray(r gjson.Result, path string) ([]gjson.Result, error) {
	v := r.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}
	if !v.IsArray() {
		return nil, fmt.Errorf("%w: %q is not an array", ErrMalformedPayload, path)
	}
	return v.Array(), nil
}

func parseLevelList(list []gjson.Result, where string) ([]RawLevel, error) {
	levels := make([]RawLevel, 0, len(list))
	for i, l := range list {
		if !l.IsObject() {
			return nil, fmt.Errorf("%w: %s[%d] is not an object", ErrMalformedPayload, where, i)
		}
		ids, err := optionalArray(l, "pieceIds")
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", where, i, err)
		}
		pieceIDs := make([]int, 0, len(ids))
		for j, v := range ids {
			id, err := pieceID(v, fmt.Sprintf("%s[%d].pieceIds[%d]", where, i, j))
			if err != nil {
				return nil, err
			}
			pieceIDs = append(pieceIDs, id)
		}
		width, err := optionalInt(l.Get("width"), fmt.Sprintf("%s[%d].width", where, i))
		if err != nil {
			return nil, err
		}
		height, err := optionalInt(l.Get("height"), fmt.Sprintf("%s[%d].height", where, i))
		if err != nil {
			return nil, err
		}
		levels = append(levels, RawLevel{
			ID:       l.Get("id").String(),
			Name:     l.Get("name").String(),
			Width:    width,
			Height:   height,
			PieceIDs: pieceIDs,
		})
	}
	return levels, nil
}

func parseCells(r gjson.Result, where string) ([]Cell, error) {
	list, err := optionalArray(r, "cells")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", where, err)
	}
	cells := make([]Cell, 0, len(list))
	for i, c := range list {
		at := fmt.Sprintf("%s.cells[%d]", where, i)
		x, err := integer(c.Get("x"), at+".x")
		if err != nil {
			return nil, err
		}
		y, err := integer(c.Get("y"), at+".y")
		if err != nil {
			return nil, err
		}
		cells = append(cells, Cell{X: x, Y: y})
	}
	return cells, nil
}

// integer reads a required whole JSON number.
func integer(v gjson.Result, where string) (int, error) {
	if v.Type != gjson.Number || v.Num != math.Trunc(v.Num) {
		return 0, fmt.Errorf("%w: %s is not an integer", ErrMalformedPayload, where)
	}
	return int(v.Num), nil
}

// optionalInt is integer with absent or null read as 0.
func optionalInt(v gjson.Result, where string) (int, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return 0, nil
	}
	return integer(v, where)
}

// pieceID reads a piece id; negative ids would collide with EmptyCell.
func pieceID(v gjson.Result, where string) (int, error) {
	id, err := integer(v, where)
	if err != nil {
		return 0, err
	}
	if id < 0 {
		return 0, fmt.Errorf("%w: %s is negative", ErrMalformedPayload, where)
	}
	return id, nil
}
