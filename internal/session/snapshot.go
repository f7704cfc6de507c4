package session

import (
	"sync"

	"github.com/dyluth/pentaboard/pkg/puzzle"
)

// Snapshot is an immutable view of the controller state, suitable for
// rendering. Catalog and piece slices are shared with the controller and
// must be treated as read-only; the board is a private copy.
type Snapshot struct {
	SessionID string

	CatalogState SourceState
	PiecesState  SourceState
	SolveState   SourceState

	Catalog   puzzle.Catalog
	Pieces    []puzzle.Piece
	Selection puzzle.Selection

	// Level is the resolved active level, nil when the catalog is not ready
	// or the selection is invalid.
	Level *puzzle.Level

	// SelectionErr is an *puzzle.InvalidSelectionError once the catalog is
	// ready and non-empty but the selection does not resolve.
	SelectionErr error

	// LevelPieces is the inventory filtered to Level.PieceIDs, in level
	// order; ids missing from the inventory are skipped.
	LevelPieces []puzzle.Piece

	Board    puzzle.Board
	Message  string
	CanSolve bool
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		SessionID:    c.sessionID,
		CatalogState: c.catalogSt,
		PiecesState:  c.piecesSt,
		SolveState:   c.solveSt,
		Catalog:      c.catalog,
		Pieces:       c.pieces,
		Selection:    c.selection,
		Board:        c.board.Clone(),
		Message:      c.message,
	}

	if !c.catalogSt.IsReady() || c.catalog.Empty() {
		return s
	}

	level, err := puzzle.ResolveLevel(c.catalog, c.selection)
	if err != nil {
		s.SelectionErr = err
		return s
	}
	lv := *level
	s.Level = &lv
	s.LevelPieces = levelPieces(c.pieces, lv.PieceIDs)
	s.CanSolve = !c.solveSt.IsLoading()
	return s
}

func levelPieces(inventory []puzzle.Piece, ids []int) []puzzle.Piece {
	byID := make(map[int]puzzle.Piece, len(inventory))
	for _, p := range inventory {
		byID[p.ID] = p
	}
	out := make([]puzzle.Piece, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Subscription delivers a snapshot after every state transition.
// The channel holds only the newest snapshot: a slow reader skips
// intermediate states but never misses the latest one.
type Subscription struct {
	updates chan Snapshot
	owner   *Controller
	once    sync.Once
}

// Updates returns the snapshot channel. It is closed by Close.
func (s *Subscription) Updates() <-chan Snapshot {
	return s.updates
}

// Close stops delivery. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		s.owner.mu.Lock()
		defer s.owner.mu.Unlock()
		for i, sub := range s.owner.subs {
			if sub == s {
				s.owner.subs = append(s.owner.subs[:i], s.owner.subs[i+1:]...)
				break
			}
		}
		close(s.updates)
	})
	return nil
}

// Subscribe registers for snapshots. The current state is delivered
// immediately.
func (c *Controller) Subscribe() *Subscription {
	sub := &Subscription{updates: make(chan Snapshot, 1), owner: c}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, sub)
	sub.updates <- c.snapshotLocked()
	return sub
}

func (c *Controller) notifyLocked() {
	if len(c.subs) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for _, sub := range c.subs {
		select {
		case sub.updates <- snap:
		default:
			select {
			case <-sub.updates:
			default:
			}
			select {
			case sub.updates <- snap:
			default:
			}
		}
	}
}
