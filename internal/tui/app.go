package tui

import (
	"context"
	"errors"

	"github.com/dyluth/pentaboard/internal/session"
	"github.com/dyluth/pentaboard/pkg/puzzle"
	"github.com/gdamore/tcell/v2"
)

// Controller is the part of session.Controller the terminal UI drives.
type Controller interface {
	Subscribe() *session.Subscription
	OnNavigate(levelDelta, groupDelta int)
	Solve(ctx context.Context) error
	Clear() error
}

// App draws controller snapshots and turns key presses into controller
// transitions. All drawing happens on the Run goroutine.
type App struct {
	screen tcell.Screen
	ctrl   Controller

	snap   session.Snapshot
	status string
}

// New creates an App on an initialised screen. The caller owns the screen
// and must call Fini after Run returns.
func New(screen tcell.Screen, ctrl Controller) *App {
	return &App{screen: screen, ctrl: ctrl}
}

// Run processes terminal events and controller updates until the player
// quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	sub := a.ctrl.Subscribe()
	defer sub.Close()

	done := make(chan struct{})
	defer close(done)

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventChan <- ev:
			case <-done:
				return
			}
		}
	}()

	updates := sub.Updates()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-eventChan:
			if quit := a.handleInput(ctx, ev); quit {
				return nil
			}
			a.draw()

		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			a.snap = snap
			a.draw()
		}
	}
}

// handleInput applies one terminal event. Returns true when the player
// asked to quit.
func (a *App) handleInput(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyLeft:
			a.status = ""
			a.ctrl.OnNavigate(-1, 0)
		case tcell.KeyRight:
			a.status = ""
			a.ctrl.OnNavigate(1, 0)
		case tcell.KeyTab:
			a.status = ""
			a.ctrl.OnNavigate(0, 1)
		case tcell.KeyBacktab:
			a.status = ""
			a.ctrl.OnNavigate(0, -1)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return true
			case 's':
				a.status = statusFor(a.ctrl.Solve(ctx))
			case 'c':
				a.status = statusFor(a.ctrl.Clear())
			}
		}

	case *tcell.EventResize:
		a.screen.Sync()
	}
	return false
}

// statusFor describes a rejected trigger. Accepted triggers clear the status.
func statusFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, session.ErrSolveInFlight):
		return "Busy: a solve is already in progress"
	case errors.Is(err, session.ErrCatalogNotReady):
		return "Levels are still loading"
	case puzzle.IsInvalidSelection(err):
		return "Select a valid level first"
	default:
		return err.Error()
	}
}
