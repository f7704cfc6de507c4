package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/dyluth/pentaboard/internal/printer"
	"github.com/dyluth/pentaboard/internal/render"
	"github.com/dyluth/pentaboard/internal/session"
	"github.com/dyluth/pentaboard/pkg/puzzle"
	"github.com/spf13/cobra"
)

var (
	solveLevel string
	solveGroup string
	solveQuiet bool
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve one level and draw the board",
	Long: `Ask the solving service to tile a level and draw the resulting board.

Without --level the first level in canonical order is solved. A level the
service cannot tile is reported as a warning and is not an error; transport
failures exit non-zero.

When Redis is configured, solved boards are served from the solution cache
and the board is published for "pentaboard watch".

Examples:
  # Solve the default level
  pentaboard solve

  # Solve a specific level
  pentaboard solve --level expert/7

  # Solve the first level of a group
  pentaboard solve --group master`,
	Args: cobra.NoArgs,
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().StringVarP(&solveLevel, "level", "l", "", "Level to solve (key, id or key prefix)")
	solveCmd.Flags().StringVarP(&solveGroup, "group", "g", "", "Group to pick the level from")
	solveCmd.Flags().BoolVarP(&solveQuiet, "quiet", "q", false, "Only print the board")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	api, err := newAPIClient(cfg)
	if err != nil {
		return err
	}
	cacheClient, err := newCacheClient(ctx, cfg)
	if err != nil {
		return err
	}
	if cacheClient != nil {
		defer cacheClient.Close()
	}

	ctrl := newController(cfg, api, cacheClient, log.New(io.Discard, "", 0))
	ctrl.OnAppStart(ctx)
	ctrl.Wait()

	snap := ctrl.Snapshot()
	if snap.CatalogState.Phase == session.PhaseFailed {
		return printer.ErrorWithContext(
			"failed to load levels",
			snap.CatalogState.Message,
			map[string]string{"Service": serviceURL(api)},
			[]string{"Check that the solving service is running:\n  pentaboard health"},
		)
	}
	if snap.Catalog.Empty() {
		return printer.Error("no levels", "The solving service returned an empty catalog.", nil)
	}

	sel, err := selectLevel(snap.Catalog, solveGroup, solveLevel)
	if err != nil {
		return err
	}
	ctrl.OnSelection(sel)

	if err := ctrl.Solve(ctx); err != nil {
		return solveRejected(err)
	}
	ctrl.Wait()

	snap = ctrl.Snapshot()
	if snap.SolveState.Phase == session.PhaseFailed {
		return printer.ErrorWithContext(
			"solve failed",
			snap.Message,
			map[string]string{"Service": serviceURL(api), "Level": sel.Key()},
			[]string{"Check that the solving service is running:\n  pentaboard health"},
		)
	}

	w := cmd.OutOrStdout()
	if !solveQuiet {
		fmt.Fprintln(w, render.LevelHeader(snap.Catalog, snap.Level, snap.SelectionErr, ""))
		fmt.Fprintln(w)
	}
	render.Board(w, snap.Board)

	if solveQuiet {
		return nil
	}
	if snap.Message != session.SolvedMessage {
		printer.Warning("%s\n", snap.Message)
		return nil
	}

	fmt.Fprintln(w)
	render.Legend(w, snap.Board)
	if cacheClient != nil {
		printer.Info("Board published to instance '%s' (session %s)\n", cacheClient.InstanceName(), ctrl.SessionID())
	}
	printer.Success("Solved %s\n", sel.Key())
	return nil
}

// solveRejected explains why the controller refused to start a solve.
func solveRejected(err error) error {
	switch {
	case puzzle.IsInvalidSelection(err):
		return printer.Error(
			"invalid level selection",
			err.Error(),
			[]string{"List available levels:\n  pentaboard levels"},
		)
	case errors.Is(err, session.ErrSolveInFlight):
		return printer.Error("solve already in progress", "Wait for the current solve to finish.", nil)
	case errors.Is(err, session.ErrCatalogNotReady):
		return printer.Error("levels not loaded", "The level catalog has not finished loading.", nil)
	default:
		return fmt.Errorf("failed to start solve: %w", err)
	}
}
