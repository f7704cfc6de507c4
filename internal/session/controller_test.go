package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/dyluth/pentaboard/pkg/puzzle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is an in-memory solving service. When gate is non-nil, Solve
// blocks until the gate is closed.
type fakeAPI struct {
	mu sync.Mutex

	groups    []puzzle.RawGroup
	groupsErr error
	levels    []puzzle.RawLevel
	pieces    []puzzle.Piece
	piecesErr error

	gate    chan struct{}
	results []solveOutcome

	groupCalls int
	pieceCalls int
	solveCalls []puzzle.SolveRequest
}

type solveOutcome struct {
	res puzzle.SolveResult
	err error
}

func (f *fakeAPI) FetchGroups(ctx context.Context) ([]puzzle.RawGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groupCalls++
	return f.groups, f.groupsErr
}

func (f *fakeAPI) FetchLevels(ctx context.Context) ([]puzzle.RawLevel, error) {
	return f.levels, nil
}

func (f *fakeAPI) FetchPieces(ctx context.Context) ([]puzzle.Piece, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pieceCalls++
	return f.pieces, f.piecesErr
}

func (f *fakeAPI) Solve(ctx context.Context, req puzzle.SolveRequest) (puzzle.SolveResult, error) {
	f.mu.Lock()
	gate := f.gate
	f.solveCalls = append(f.solveCalls, req)
	var out solveOutcome
	if len(f.results) > 0 {
		out = f.results[0]
		f.results = f.results[1:]
	}
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return out.res, out.err
}

func (f *fakeAPI) solveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.solveCalls)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		groups: []puzzle.RawGroup{
			{GroupID: "B", Name: "B", Levels: []puzzle.RawLevel{
				{ID: "L2", Width: 4, Height: 5, PieceIDs: []int{0, 1, 2, 3}},
			}},
			{GroupID: "A", Name: "A", Levels: []puzzle.RawLevel{
				{ID: "L1", Width: 3, Height: 5, PieceIDs: []int{0, 1, 2, 42}},
				{ID: "L3", Width: 5, Height: 3, PieceIDs: []int{0, 1, 2}},
			}},
		},
		pieces: []puzzle.Piece{
			{ID: 0, Cells: []puzzle.Cell{{X: 0, Y: 0}}},
			{ID: 1, Cells: []puzzle.Cell{{X: 0, Y: 0}, {X: 1, Y: 0}}},
			{ID: 2, Cells: []puzzle.Cell{{X: 0, Y: 0}, {X: 0, Y: 1}}},
			{ID: 3, Cells: []puzzle.Cell{{X: 0, Y: 0}}},
		},
	}
}

func newTestController(t *testing.T, api API, opts Options) *Controller {
	t.Helper()
	if opts.GroupPriority == nil {
		opts.GroupPriority = []string{"A", "B"}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	c := NewController(api, opts)
	t.Cleanup(c.Wait)
	return c
}

func startAndWait(t *testing.T, c *Controller) Snapshot {
	t.Helper()
	c.OnAppStart(context.Background())
	c.Wait()
	return c.Snapshot()
}

func TestOnAppStart(t *testing.T) {
	t.Run("loads catalog and pieces and selects the default", func(t *testing.T) {
		api := newFakeAPI()
		c := newTestController(t, api, Options{})

		snap := startAndWait(t, c)
		assert.Equal(t, PhaseReady, snap.CatalogState.Phase)
		assert.Equal(t, PhaseReady, snap.PiecesState.Phase)
		assert.Equal(t, puzzle.Selection{GroupID: "A", LevelID: "L1"}, snap.Selection)
		require.NotNil(t, snap.Level)
		assert.Equal(t, "A/L1", snap.Level.Key)
		assert.True(t, snap.Board.Matches(puzzle.Dimensions{Width: 3, Height: 5}))
		assert.True(t, snap.Board.IsEmpty())
		assert.True(t, snap.CanSolve)
	})

	t.Run("only the first call loads", func(t *testing.T) {
		api := newFakeAPI()
		c := newTestController(t, api, Options{})

		c.OnAppStart(context.Background())
		c.OnAppStart(context.Background())
		c.Wait()
		c.OnAppStart(context.Background())
		c.Wait()

		assert.Equal(t, 1, api.groupCalls)
		assert.Equal(t, 1, api.pieceCalls)
	})

	t.Run("catalog failure is terminal and leaves pieces alone", func(t *testing.T) {
		api := newFakeAPI()
		api.groupsErr = &puzzle.HTTPError{Op: "GET /groups", StatusCode: 503, Body: "maintenance"}
		c := newTestController(t, api, Options{})

		snap := startAndWait(t, c)
		assert.Equal(t, PhaseFailed, snap.CatalogState.Phase)
		assert.Contains(t, snap.CatalogState.Message, "Load groups failed")
		assert.Contains(t, snap.CatalogState.Message, "503")
		assert.Equal(t, PhaseReady, snap.PiecesState.Phase)
		assert.Nil(t, snap.Level)
		assert.False(t, snap.CanSolve)
		assert.Equal(t, 0, len(snap.Board.Cells))

		assert.ErrorIs(t, c.Solve(context.Background()), ErrCatalogNotReady)
	})

	t.Run("pieces failure does not block the board", func(t *testing.T) {
		api := newFakeAPI()
		api.piecesErr = &puzzle.NetworkError{Op: "GET /pieces", Err: errors.New("connection refused")}
		c := newTestController(t, api, Options{})

		snap := startAndWait(t, c)
		assert.Equal(t, PhaseFailed, snap.PiecesState.Phase)
		assert.Contains(t, snap.PiecesState.Message, "Load pieces failed")
		assert.True(t, snap.CanSolve)
		assert.Empty(t, snap.LevelPieces)
	})

	t.Run("flat catalog", func(t *testing.T) {
		api := newFakeAPI()
		api.levels = []puzzle.RawLevel{
			{ID: "L2", Width: 4, Height: 5, PieceIDs: []int{0, 1, 2, 3}},
			{ID: "L1", Width: 3, Height: 5, PieceIDs: []int{0, 1, 2}},
		}
		c := newTestController(t, api, Options{Flat: true})

		snap := startAndWait(t, c)
		assert.Equal(t, puzzle.Selection{LevelID: "L1"}, snap.Selection)
		require.NotNil(t, snap.Level)
		assert.Equal(t, 0, api.groupCalls)
	})
}

func TestOnAppStart_DuplicateLevels(t *testing.T) {
	api := newFakeAPI()
	api.groups = append(api.groups, puzzle.RawGroup{Name: "A", Levels: []puzzle.RawLevel{
		{ID: "L1", Width: 6, Height: 10, PieceIDs: []int{0, 1, 2}},
	}})
	var logs bytes.Buffer
	c := newTestController(t, api, Options{Logger: log.New(&logs, "", 0)})

	snap := startAndWait(t, c)
	require.NotNil(t, snap.Level)
	assert.Equal(t, "A/L1", snap.Level.Key)
	assert.True(t, snap.Board.Matches(puzzle.Dimensions{Width: 3, Height: 5}))
	assert.Contains(t, logs.String(), "[WARN] Dropped duplicate level A/L1")
}

func TestLevelPieces(t *testing.T) {
	c := newTestController(t, newFakeAPI(), Options{})
	snap := startAndWait(t, c)

	var ids []int
	for _, p := range snap.LevelPieces {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int{0, 1, 2}, ids, "unresolved id 42 is skipped")
}

func TestSolve(t *testing.T) {
	t.Run("solved result is projected", func(t *testing.T) {
		api := newFakeAPI()
		api.results = []solveOutcome{{res: puzzle.SolveResult{
			Solved:     true,
			Placements: []puzzle.Placement{{PieceID: 1, Cells: []puzzle.Cell{{X: 0, Y: 0}}}},
		}}}
		c := newTestController(t, api, Options{})
		startAndWait(t, c)

		require.NoError(t, c.Solve(context.Background()))
		c.Wait()

		snap := c.Snapshot()
		assert.Equal(t, puzzle.SolveRequest{Width: 3, Height: 5, PieceIDs: []int{0, 1, 2, 42}}, api.solveCalls[0])
		assert.Equal(t, 1, snap.Board.At(0, 0))
		assert.Equal(t, 1, snap.Board.Filled())
		assert.Equal(t, "Solved!", snap.Message)
		assert.Equal(t, PhaseReady, snap.SolveState.Phase)
	})

	t.Run("no solution clears the board", func(t *testing.T) {
		api := newFakeAPI()
		api.results = []solveOutcome{
			{res: puzzle.SolveResult{Solved: true, Placements: []puzzle.Placement{{PieceID: 2, Cells: []puzzle.Cell{{X: 1, Y: 1}}}}}},
			{res: puzzle.SolveResult{Solved: false, Error: "no solution"}},
		}
		c := newTestController(t, api, Options{})
		startAndWait(t, c)

		require.NoError(t, c.Solve(context.Background()))
		c.Wait()
		require.NoError(t, c.Solve(context.Background()))
		c.Wait()

		snap := c.Snapshot()
		assert.True(t, snap.Board.IsEmpty())
		assert.True(t, snap.Board.Matches(puzzle.Dimensions{Width: 3, Height: 5}))
		assert.Equal(t, "no solution", snap.Message)
		assert.Equal(t, PhaseReady, snap.SolveState.Phase, "negative outcome is a valid response")
	})

	t.Run("missing error text falls back to No solution", func(t *testing.T) {
		api := newFakeAPI()
		api.results = []solveOutcome{{res: puzzle.SolveResult{Solved: false}}}
		c := newTestController(t, api, Options{})
		startAndWait(t, c)

		require.NoError(t, c.Solve(context.Background()))
		c.Wait()
		assert.Equal(t, "No solution", c.Snapshot().Message)
	})

	t.Run("transport failure leaves the board untouched", func(t *testing.T) {
		api := newFakeAPI()
		api.results = []solveOutcome{
			{res: puzzle.SolveResult{Solved: true, Placements: []puzzle.Placement{{PieceID: 2, Cells: []puzzle.Cell{{X: 1, Y: 1}}}}}},
			{err: &puzzle.HTTPError{Op: "POST /solve", StatusCode: 500, Body: "Internal Server Error"}},
		}
		c := newTestController(t, api, Options{})
		startAndWait(t, c)

		require.NoError(t, c.Solve(context.Background()))
		c.Wait()
		before := c.Snapshot().Board

		require.NoError(t, c.Solve(context.Background()))
		c.Wait()

		snap := c.Snapshot()
		assert.Equal(t, before, snap.Board)
		assert.Equal(t, PhaseFailed, snap.SolveState.Phase)
		assert.Contains(t, snap.Message, "500")
		assert.Contains(t, snap.Message, "Internal Server Error")
		assert.True(t, snap.CanSolve, "in-progress indicator is cleared")
	})

	t.Run("at most one solve in flight", func(t *testing.T) {
		api := newFakeAPI()
		api.gate = make(chan struct{})
		api.results = []solveOutcome{{res: puzzle.SolveResult{Solved: true}}}
		c := newTestController(t, api, Options{})
		startAndWait(t, c)

		require.NoError(t, c.Solve(context.Background()))
		snap := c.Snapshot()
		assert.False(t, snap.CanSolve)
		assert.Equal(t, "Solving...", snap.Message)

		assert.ErrorIs(t, c.Solve(context.Background()), ErrSolveInFlight)
		assert.ErrorIs(t, c.Clear(), ErrSolveInFlight)

		close(api.gate)
		c.Wait()
		assert.Equal(t, 1, api.solveCount())
		assert.True(t, c.Snapshot().CanSolve)
	})

	t.Run("invalid selection cannot be solved", func(t *testing.T) {
		c := newTestController(t, newFakeAPI(), Options{})
		startAndWait(t, c)

		c.OnGroupSelected("missing")
		err := c.Solve(context.Background())
		assert.True(t, puzzle.IsInvalidSelection(err))
	})
}

func TestLevelSwitch(t *testing.T) {
	t.Run("resets the board synchronously", func(t *testing.T) {
		api := newFakeAPI()
		api.results = []solveOutcome{{res: puzzle.SolveResult{Solved: true, Placements: []puzzle.Placement{{PieceID: 0, Cells: []puzzle.Cell{{X: 0, Y: 0}}}}}}}
		c := newTestController(t, api, Options{})
		startAndWait(t, c)
		require.NoError(t, c.Solve(context.Background()))
		c.Wait()

		c.OnGroupSelected("B")

		snap := c.Snapshot()
		assert.Equal(t, puzzle.Selection{GroupID: "B", LevelID: "L2"}, snap.Selection)
		assert.True(t, snap.Board.Matches(puzzle.Dimensions{Width: 4, Height: 5}))
		assert.True(t, snap.Board.IsEmpty())
		assert.Empty(t, snap.Message)
		assert.Equal(t, PhaseIdle, snap.SolveState.Phase)
	})

	t.Run("stale solve response is discarded", func(t *testing.T) {
		api := newFakeAPI()
		api.gate = make(chan struct{})
		api.results = []solveOutcome{{res: puzzle.SolveResult{
			Solved:     true,
			Placements: []puzzle.Placement{{PieceID: 1, Cells: []puzzle.Cell{{X: 0, Y: 0}}}},
		}}}
		c := newTestController(t, api, Options{})
		startAndWait(t, c)

		require.NoError(t, c.Solve(context.Background()))
		c.OnLevelSelected("L3")

		mid := c.Snapshot()
		assert.True(t, mid.Board.Matches(puzzle.Dimensions{Width: 5, Height: 3}))
		assert.False(t, mid.CanSolve, "the first solve is still outstanding")

		close(api.gate)
		c.Wait()

		snap := c.Snapshot()
		assert.True(t, snap.Board.Matches(puzzle.Dimensions{Width: 5, Height: 3}))
		assert.True(t, snap.Board.IsEmpty())
		assert.Empty(t, snap.Message)
		assert.Equal(t, PhaseIdle, snap.SolveState.Phase)
		assert.True(t, snap.CanSolve)
	})

	t.Run("unknown group renders as invalid selection", func(t *testing.T) {
		c := newTestController(t, newFakeAPI(), Options{})
		startAndWait(t, c)

		c.OnGroupSelected("nope")

		snap := c.Snapshot()
		assert.Equal(t, puzzle.Selection{GroupID: "nope"}, snap.Selection)
		assert.Nil(t, snap.Level)
		require.Error(t, snap.SelectionErr)
		assert.Contains(t, snap.SelectionErr.Error(), "Invalid levelId")
		assert.Empty(t, snap.Board.Cells)
		assert.False(t, snap.CanSolve)
	})

	t.Run("navigate wraps through levels", func(t *testing.T) {
		c := newTestController(t, newFakeAPI(), Options{})
		startAndWait(t, c)

		c.OnNavigate(1, 0)
		assert.Equal(t, "A/L3", c.Snapshot().Selection.Key())
		c.OnNavigate(1, 0)
		assert.Equal(t, "B/L2", c.Snapshot().Selection.Key())
		c.OnNavigate(0, 1)
		assert.Equal(t, "A/L1", c.Snapshot().Selection.Key())
	})

	t.Run("selection before catalog load is kept", func(t *testing.T) {
		c := newTestController(t, newFakeAPI(), Options{})
		c.OnSelection(puzzle.Selection{GroupID: "B", LevelID: "L2"})

		snap := startAndWait(t, c)
		assert.Equal(t, "B/L2", snap.Level.Key)
		assert.True(t, snap.Board.Matches(puzzle.Dimensions{Width: 4, Height: 5}))
	})
}

func TestClear(t *testing.T) {
	api := newFakeAPI()
	api.results = []solveOutcome{{res: puzzle.SolveResult{Solved: true, Placements: []puzzle.Placement{{PieceID: 0, Cells: []puzzle.Cell{{X: 2, Y: 4}}}}}}}
	c := newTestController(t, api, Options{})
	startAndWait(t, c)
	require.NoError(t, c.Solve(context.Background()))
	c.Wait()
	require.Equal(t, 1, c.Snapshot().Board.Filled())

	require.NoError(t, c.Clear())

	snap := c.Snapshot()
	assert.True(t, snap.Board.IsEmpty())
	assert.Empty(t, snap.Message)
}

type fakeCache struct {
	mu   sync.Mutex
	hit  *puzzle.SolveResult
	puts []puzzle.SolveRequest
}

func (f *fakeCache) GetSolution(ctx context.Context, req puzzle.SolveRequest) (*puzzle.SolveResult, error) {
	return f.hit, nil
}

func (f *fakeCache) PutSolution(ctx context.Context, req puzzle.SolveRequest, res puzzle.SolveResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, req)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*puzzle.BoardEvent
}

func (f *fakePublisher) PublishBoard(ctx context.Context, ev *puzzle.BoardEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func TestSolutionCache(t *testing.T) {
	t.Run("hit skips the service", func(t *testing.T) {
		api := newFakeAPI()
		cache := &fakeCache{hit: &puzzle.SolveResult{Solved: true, Placements: []puzzle.Placement{{PieceID: 2, Cells: []puzzle.Cell{{X: 2, Y: 2}}}}}}
		c := newTestController(t, api, Options{Cache: cache})
		startAndWait(t, c)

		require.NoError(t, c.Solve(context.Background()))
		c.Wait()

		assert.Equal(t, 0, api.solveCount())
		assert.Equal(t, 2, c.Snapshot().Board.At(2, 2))
	})

	t.Run("miss stores solved results only", func(t *testing.T) {
		api := newFakeAPI()
		api.results = []solveOutcome{
			{res: puzzle.SolveResult{Solved: true}},
			{res: puzzle.SolveResult{Solved: false}},
		}
		cache := &fakeCache{}
		c := newTestController(t, api, Options{Cache: cache})
		startAndWait(t, c)

		require.NoError(t, c.Solve(context.Background()))
		c.Wait()
		require.NoError(t, c.Solve(context.Background()))
		c.Wait()

		assert.Len(t, cache.puts, 1)
	})
}

func TestBoardPublisher(t *testing.T) {
	api := newFakeAPI()
	api.results = []solveOutcome{{res: puzzle.SolveResult{Solved: true, Placements: []puzzle.Placement{{PieceID: 1, Cells: []puzzle.Cell{{X: 0, Y: 0}}}}}}}
	pub := &fakePublisher{}
	c := newTestController(t, api, Options{Publisher: pub})
	startAndWait(t, c)

	require.NoError(t, c.Solve(context.Background()))
	c.Wait()
	c.OnGroupSelected("B")

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.events, 3)
	assert.Equal(t, puzzle.OutcomeReset, pub.events[0].Outcome)
	assert.Equal(t, puzzle.OutcomeSolved, pub.events[1].Outcome)
	assert.Equal(t, "A/L1", pub.events[1].LevelKey)
	assert.Equal(t, 1, pub.events[1].Board.At(0, 0))
	assert.Equal(t, puzzle.OutcomeReset, pub.events[2].Outcome)
	assert.Equal(t, "B/L2", pub.events[2].LevelKey)
	for _, ev := range pub.events {
		assert.Equal(t, c.SessionID(), ev.SessionID)
		assert.NoError(t, ev.Validate())
	}
}

func TestSubscribe(t *testing.T) {
	c := newTestController(t, newFakeAPI(), Options{})
	sub := c.Subscribe()
	defer sub.Close()

	first := <-sub.Updates()
	assert.Equal(t, PhaseIdle, first.CatalogState.Phase)

	c.OnAppStart(context.Background())
	c.Wait()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-sub.Updates():
			if snap.CatalogState.IsReady() && snap.PiecesState.IsReady() {
				assert.NotNil(t, snap.Level)
				require.NoError(t, sub.Close())
				require.NoError(t, sub.Close())
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for the loaded snapshot")
		}
	}
}
