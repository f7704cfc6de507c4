package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dyluth/pentaboard/pkg/puzzle"
	"github.com/google/uuid"
)

var (
	// ErrSolveInFlight is returned when a solve or clear is triggered while a
	// solve is outstanding. The trigger is rejected, not queued.
	ErrSolveInFlight = errors.New("a solve is already in progress")

	// ErrCatalogNotReady is returned when a solve is triggered before the
	// catalog has loaded.
	ErrCatalogNotReady = errors.New("catalog is not loaded")
)

// DefaultMessageLimit caps display messages when Options leaves it unset.
const DefaultMessageLimit = 200

// SolvedMessage is the display message after a solved=true response.
const SolvedMessage = "Solved!"

const publishTimeout = 2 * time.Second

// API is the remote solving service as seen by the controller.
type API interface {
	FetchGroups(ctx context.Context) ([]puzzle.RawGroup, error)
	FetchLevels(ctx context.Context) ([]puzzle.RawLevel, error)
	FetchPieces(ctx context.Context) ([]puzzle.Piece, error)
	Solve(ctx context.Context, req puzzle.SolveRequest) (puzzle.SolveResult, error)
}

// SolutionCache stores solve results by request shape.
// GetSolution returns (nil, nil) on a miss.
type SolutionCache interface {
	GetSolution(ctx context.Context, req puzzle.SolveRequest) (*puzzle.SolveResult, error)
	PutSolution(ctx context.Context, req puzzle.SolveRequest, res puzzle.SolveResult) error
}

// BoardPublisher receives every board change.
type BoardPublisher interface {
	PublishBoard(ctx context.Context, ev *puzzle.BoardEvent) error
}

// Options configures a Controller.
type Options struct {
	Flat          bool           // Load the legacy /levels catalog instead of /groups
	GroupPriority []string       // Canonical group order, defaults to puzzle.DefaultGroupPriority
	MessageLimit  int            // Display message truncation, defaults to DefaultMessageLimit
	Cache         SolutionCache  // Optional
	Publisher     BoardPublisher // Optional
	Logger        *log.Logger    // Defaults to log.Default()
}

// pendingSolve identifies the outstanding solve request.
type pendingSolve struct {
	token string
	key   string
	dims  puzzle.Dimensions
}

// Controller owns the catalog, the piece inventory, the selection and the
// board, and serialises every transition on them.
//
// Network calls run on their own goroutines and only touch state through
// the controller's transition functions, so callers observe the same
// ordering as a single cooperative event loop.
type Controller struct {
	api       API
	opts      Options
	log       *log.Logger
	sessionID string

	mu        sync.Mutex
	started   bool
	catalogSt SourceState
	piecesSt  SourceState
	solveSt   SourceState
	catalog   puzzle.Catalog
	pieces    []puzzle.Piece
	selection puzzle.Selection
	board     puzzle.Board
	message   string
	pending   *pendingSolve
	subs      []*Subscription

	wg sync.WaitGroup
}

// NewController creates a controller. Nothing is loaded until OnAppStart.
func NewController(api API, opts Options) *Controller {
	if opts.GroupPriority == nil {
		opts.GroupPriority = puzzle.DefaultGroupPriority
	}
	if opts.MessageLimit <= 0 {
		opts.MessageLimit = DefaultMessageLimit
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Controller{
		api:       api,
		opts:      opts,
		log:       logger,
		sessionID: uuid.New().String(),
		catalogSt: NewSourceState(),
		piecesSt:  NewSourceState(),
		solveSt:   NewSourceState(),
	}
}

// SessionID identifies this controller in published board events.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// OnAppStart starts the catalog and piece inventory loads. Only the first
// call has an effect. The two loads are independent and may complete in any
// order.
func (c *Controller) OnAppStart(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.catalogSt.begin("Loading levels...")
	c.piecesSt.begin("Loading pieces...")
	c.notifyLocked()
	c.mu.Unlock()

	c.wg.Add(2)
	go c.loadCatalog(ctx)
	go c.loadPieces(ctx)
}

// Wait blocks until every load and solve started so far has been applied.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) loadCatalog(ctx context.Context) {
	defer c.wg.Done()

	var (
		catalog puzzle.Catalog
		err     error
		what    = "groups"
	)
	if c.opts.Flat {
		what = "levels"
		var raw []puzzle.RawLevel
		if raw, err = c.api.FetchLevels(ctx); err == nil {
			catalog = puzzle.NormalizeFlat(raw)
		}
	} else {
		var raw []puzzle.RawGroup
		if raw, err = c.api.FetchGroups(ctx); err == nil {
			catalog = puzzle.Normalize(raw, c.opts.GroupPriority)
		}
	}

	c.mu.Lock()
	if err != nil {
		msg := puzzle.Truncate(fmt.Sprintf("Load %s failed: %v", what, err), c.opts.MessageLimit)
		c.catalogSt.fail(msg)
		c.log.Printf("[WARN] %s", msg)
		c.notifyLocked()
		c.mu.Unlock()
		return
	}

	c.catalog = catalog
	c.catalogSt.succeed("")
	if !c.selection.IsSet() {
		c.selection = puzzle.ResolveDefault(catalog)
	}
	for _, key := range catalog.Dropped {
		c.log.Printf("[WARN] Dropped duplicate level %s", key)
	}
	c.log.Printf("[INFO] Catalog loaded: %d groups, %d levels, selection %s", len(catalog.Groups), len(catalog.Levels()), c.selection)
	ev := c.resetBoardLocked()
	c.notifyLocked()
	c.mu.Unlock()

	c.publish(ev)
}

func (c *Controller) loadPieces(ctx context.Context) {
	defer c.wg.Done()

	pieces, err := c.api.FetchPieces(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		msg := puzzle.Truncate(fmt.Sprintf("Load pieces failed: %v", err), c.opts.MessageLimit)
		c.piecesSt.fail(msg)
		c.log.Printf("[WARN] %s", msg)
		c.notifyLocked()
		return
	}

	c.pieces = pieces
	c.piecesSt.succeed("")
	c.log.Printf("[INFO] Piece inventory loaded: %d pieces", len(pieces))
	c.notifyLocked()
}

// OnSelection replaces the selection. The board is reset to an empty grid
// for the new level before this returns, so a solved overlay is never shown
// against a different level.
func (c *Controller) OnSelection(sel puzzle.Selection) {
	c.changeSelection(func(puzzle.Selection) puzzle.Selection { return sel }, false)
}

// OnLevelSelected selects a level within the current group.
func (c *Controller) OnLevelSelected(levelID string) {
	c.changeSelection(func(cur puzzle.Selection) puzzle.Selection {
		return puzzle.SelectLevel(cur, levelID)
	}, false)
}

// OnGroupSelected switches group and level together.
func (c *Controller) OnGroupSelected(groupID string) {
	c.changeSelection(func(puzzle.Selection) puzzle.Selection {
		return puzzle.SwitchGroup(c.catalog, groupID)
	}, false)
}

// OnNavigate moves through levels (delta on the flattened order) or groups.
// Navigating to the current selection is a no-op.
func (c *Controller) OnNavigate(levelDelta, groupDelta int) {
	c.changeSelection(func(cur puzzle.Selection) puzzle.Selection {
		next := cur
		if groupDelta != 0 {
			next = puzzle.NextGroup(c.catalog, next, groupDelta)
		}
		if levelDelta != 0 {
			next = puzzle.NextLevel(c.catalog, next, levelDelta)
		}
		return next
	}, true)
}

// changeSelection computes and applies the next selection atomically.
func (c *Controller) changeSelection(next func(cur puzzle.Selection) puzzle.Selection, skipIfSame bool) {
	c.mu.Lock()
	sel := next(c.selection)
	if skipIfSame && sel == c.selection {
		c.mu.Unlock()
		return
	}
	c.selection = sel
	ev := c.resetBoardLocked()
	c.notifyLocked()
	c.mu.Unlock()

	c.publish(ev)
}

// Clear resets the board of the active level. It is rejected while a solve
// is in flight.
func (c *Controller) Clear() error {
	c.mu.Lock()
	if c.solveSt.IsLoading() {
		c.mu.Unlock()
		return ErrSolveInFlight
	}
	ev := c.resetBoardLocked()
	c.notifyLocked()
	c.mu.Unlock()

	c.publish(ev)
	return nil
}

// Solve requests a solution for the active level. It returns immediately;
// the outcome is applied to the board when the response arrives.
//
// At most one solve is outstanding: a second call while one is in flight
// returns ErrSolveInFlight. An invalid selection returns its
// *puzzle.InvalidSelectionError.
func (c *Controller) Solve(ctx context.Context) error {
	c.mu.Lock()
	if !c.catalogSt.IsReady() {
		c.mu.Unlock()
		return ErrCatalogNotReady
	}
	if c.solveSt.IsLoading() {
		c.mu.Unlock()
		return ErrSolveInFlight
	}
	level, err := puzzle.ResolveLevel(c.catalog, c.selection)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	req := puzzle.NewSolveRequest(*level)
	p := &pendingSolve{
		token: uuid.New().String(),
		key:   level.Key,
		dims:  level.Dimensions(),
	}
	c.pending = p
	c.solveSt.begin("Solving...")
	c.message = "Solving..."
	c.notifyLocked()
	c.mu.Unlock()

	c.wg.Add(1)
	go c.runSolve(ctx, p, req)
	return nil
}

func (c *Controller) runSolve(ctx context.Context, p *pendingSolve, req puzzle.SolveRequest) {
	defer c.wg.Done()

	res, err := c.fetchSolution(ctx, req)

	c.mu.Lock()
	ev := c.applySolveLocked(p, req, res, err)
	c.notifyLocked()
	c.mu.Unlock()

	c.publish(ev)
}

func (c *Controller) fetchSolution(ctx context.Context, req puzzle.SolveRequest) (puzzle.SolveResult, error) {
	if c.opts.Cache != nil {
		cached, err := c.opts.Cache.GetSolution(ctx, req)
		if err != nil {
			c.log.Printf("[WARN] Solution cache lookup failed: %v", err)
		} else if cached != nil {
			c.log.Printf("[DEBUG] Solution cache hit for %s", req.Dimensions())
			return *cached, nil
		}
	}

	res, err := c.api.Solve(ctx, req)
	if err != nil {
		return puzzle.SolveResult{}, err
	}

	if c.opts.Cache != nil && res.Solved {
		if err := c.opts.Cache.PutSolution(ctx, req, res); err != nil {
			c.log.Printf("[WARN] Failed to cache solution: %v", err)
		}
	}
	return res, nil
}

// applySolveLocked folds a solve response into the board, unless the
// selection moved on since the request was made.
func (c *Controller) applySolveLocked(p *pendingSolve, req puzzle.SolveRequest, res puzzle.SolveResult, err error) *puzzle.BoardEvent {
	if c.pending != p {
		c.log.Printf("[DEBUG] Dropping response for superseded solve %s", p.token)
		return nil
	}
	c.pending = nil

	level, lerr := puzzle.ResolveLevel(c.catalog, c.selection)
	if lerr != nil || level.Key != p.key || level.Dimensions() != p.dims {
		c.log.Printf("[DEBUG] Discarding stale solve for %s (%s)", p.key, p.dims)
		c.solveSt.reset()
		return nil
	}
	active := level.Dimensions()

	var (
		outcome puzzle.Outcome
		next    puzzle.Board
		perr    error
	)
	switch {
	case err != nil:
		msg := puzzle.Truncate(err.Error(), c.opts.MessageLimit)
		next, perr = puzzle.Project(c.board, active, puzzle.SolveFailed{Err: err})
		c.solveSt.fail(msg)
		c.message = msg
		outcome = puzzle.OutcomeFailed
		c.log.Printf("[WARN] Solve failed for %s: %v", p.key, err)

	case !res.Solved:
		msg := res.Error
		if msg == "" {
			msg = "No solution"
		}
		msg = puzzle.Truncate(msg, c.opts.MessageLimit)
		next, perr = puzzle.Project(c.board, active, puzzle.NoSolution{Message: msg})
		c.solveSt.succeed(msg)
		c.message = msg
		outcome = puzzle.OutcomeNoSolution

	default:
		next, perr = puzzle.Project(c.board, active, puzzle.SolveSucceeded{
			Width:      req.Width,
			Height:     req.Height,
			Placements: res.Placements,
		})
		c.solveSt.succeed(SolvedMessage)
		c.message = SolvedMessage
		outcome = puzzle.OutcomeSolved
	}

	if perr != nil {
		// Catalog levels always have positive dimensions.
		c.log.Printf("[WARN] Failed to project solve result: %v", perr)
		return nil
	}
	c.board = next
	return c.boardEventLocked(outcome)
}

// resetBoardLocked replaces the board with the empty grid of the selected
// level and clears the inline message. An unresolvable selection leaves a
// 0x0 board.
func (c *Controller) resetBoardLocked() *puzzle.BoardEvent {
	c.message = ""
	if !c.solveSt.IsLoading() {
		c.solveSt.reset()
	}

	level, err := puzzle.ResolveLevel(c.catalog, c.selection)
	if err != nil {
		c.board = puzzle.Board{}
		return c.boardEventLocked(puzzle.OutcomeReset)
	}

	next, err := puzzle.Project(c.board, level.Dimensions(), puzzle.LevelChanged{Width: level.Width, Height: level.Height})
	if err != nil {
		c.board = puzzle.Board{}
	} else {
		c.board = next
	}
	return c.boardEventLocked(puzzle.OutcomeReset)
}

func (c *Controller) boardEventLocked(outcome puzzle.Outcome) *puzzle.BoardEvent {
	if c.opts.Publisher == nil {
		return nil
	}
	return &puzzle.BoardEvent{
		SessionID:   c.sessionID,
		Selection:   c.selection,
		LevelKey:    c.selection.Key(),
		Outcome:     outcome,
		Message:     c.message,
		Board:       c.board.Clone(),
		CreatedAtMs: time.Now().UnixMilli(),
	}
}

func (c *Controller) publish(ev *puzzle.BoardEvent) {
	if ev == nil || c.opts.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := c.opts.Publisher.PublishBoard(ctx, ev); err != nil {
		c.log.Printf("[WARN] Failed to publish board event: %v", err)
	}
}
