package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/pentaboard/internal/filter"
	"github.com/dyluth/pentaboard/internal/printer"
	"github.com/dyluth/pentaboard/internal/watch"
	"github.com/dyluth/pentaboard/pkg/puzzle"
	"github.com/spf13/cobra"
)

var (
	watchOutputFormat string
	watchSession      string
	watchLevel        string
	watchOutcome      string
	watchSince        string
	watchReplay       bool
	watchFollow       bool
	watchWait         time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow board changes published to Redis",
	Long: `Follow board changes published by "pentaboard play" and "pentaboard solve"
sessions on the configured Redis instance.

Output Formats:
  default - Human-readable lines, solved boards drawn below
  json    - Line-delimited JSON for programmatic processing

Filters (all combined):
  --session  exact session id
  --level    glob on the level key ("expert/*", "*/1")
  --outcome  reset, solved, no_solution or failed
  --since    duration ("1h") or RFC3339 timestamp

Examples:
  # Follow every session
  pentaboard --redis localhost:6379 watch

  # Latest board of every session in the last hour, then exit
  pentaboard watch --replay --follow=false --since 1h

  # Wait up to a minute for one session's next board
  pentaboard watch --session 2f6c... --wait 1m`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	watchCmd.Flags().StringVar(&watchSession, "session", "", "Only show this session")
	watchCmd.Flags().StringVar(&watchLevel, "level", "", "Only show level keys matching this glob")
	watchCmd.Flags().StringVar(&watchOutcome, "outcome", "", "Only show this outcome")
	watchCmd.Flags().StringVar(&watchSince, "since", "", "Only show boards after this time (duration or RFC3339)")
	watchCmd.Flags().BoolVar(&watchReplay, "replay", false, "Print the latest recorded board of every session first")
	watchCmd.Flags().BoolVar(&watchFollow, "follow", true, "Keep streaming new boards")
	watchCmd.Flags().DurationVar(&watchWait, "wait", 0, "With --session, wait this long for the next board and exit")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outputFormat, err := watch.ParseOutputFormat(watchOutputFormat)
	if err != nil {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	sinceMs, err := filter.ParseSince(watchSince, time.Now())
	if err != nil {
		return printer.Error("invalid --since value", err.Error(), []string{"Use a duration (1h, 30m) or an RFC3339 timestamp"})
	}
	criteria := &filter.Criteria{
		SinceTimestampMs: sinceMs,
		SessionID:        watchSession,
		LevelGlob:        watchLevel,
		Outcome:          puzzle.Outcome(watchOutcome),
	}
	if err := criteria.Validate(); err != nil {
		return printer.Error("invalid filter", err.Error(), nil)
	}
	if watchWait > 0 && watchSession == "" {
		return printer.Error(
			"--wait requires --session",
			"Waiting is only supported for a single session.",
			[]string{"Find session ids with:\n  pentaboard watch --replay --follow=false"},
		)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Redis.Enabled() {
		return printer.Error(
			"Redis is not configured",
			"Board events are only published when Redis is configured.",
			[]string{
				"Pass an address:\n  pentaboard --redis localhost:6379 watch",
				"Set redis.addr in pentaboard.yml",
			},
		)
	}
	client, err := newCacheClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	w := cmd.OutOrStdout()

	if watchWait > 0 {
		ev, err := watch.PollForBoard(ctx, client, watchSession, time.Now().UnixMilli(), watchWait)
		if err != nil {
			return printer.Error("no board received", err.Error(), nil)
		}
		return watch.WriteBoard(w, outputFormat, ev)
	}

	if watchReplay {
		n, err := watch.Replay(ctx, client, criteria, outputFormat, w)
		if err != nil {
			return fmt.Errorf("failed to replay boards: %w", err)
		}
		if n == 0 && outputFormat == watch.OutputFormatDefault {
			printer.Info("No recorded boards\n")
		}
	}

	if !watchFollow {
		return nil
	}
	return watch.StreamBoards(ctx, client, criteria, outputFormat, w)
}
