package commands

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dyluth/pentaboard/internal/printer"
	"github.com/dyluth/pentaboard/internal/tui"
	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
)

var playLogFile string

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Interactive board in the terminal",
	Long: `Open the interactive board.

Keys:
  ←/→            previous / next level
  Tab/Shift-Tab  next / previous group
  s              solve the current level
  c              clear the board
  q, Esc         quit

Log output would corrupt the screen, so it is discarded unless --log-file
is given.`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playLogFile, "log-file", "", "Append controller logs to this file")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	var logOut io.Writer = io.Discard
	if playLogFile != "" {
		f, err := os.OpenFile(playLogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return printer.Error("cannot open log file", err.Error(), nil)
		}
		defer f.Close()
		logOut = f
	}
	logger := log.New(logOut, "", log.LstdFlags)

	screen, err := tcell.NewScreen()
	if err != nil {
		return printer.Error("terminal not supported", fmt.Sprintf("Failed to create screen: %v", err), nil)
	}
	if err := screen.Init(); err != nil {
		return printer.Error("terminal not supported", fmt.Sprintf("Failed to initialise screen: %v", err), nil)
	}
	defer screen.Fini()

	ctrl := newController(cfg, api, cacheClient, logger)
	logger.Printf("[INFO] Session %s started against %s", ctrl.SessionID(), serviceURL(api))
	ctrl.OnAppStart(ctx)

	runErr := tui.New(screen, ctrl).Run(ctx)

	// Abort outstanding requests before waiting for their goroutines.
	cancel()
	ctrl.Wait()
	return runErr
}
