package watch

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"github.com/dyluth/pentaboard/internal/cache"
	"github.com/dyluth/pentaboard/internal/filter"
	"github.com/dyluth/pentaboard/pkg/puzzle"
)

// pollInterval is how often PollForBoard checks Redis.
const pollInterval = 200 * time.Millisecond

// PollForBoard waits until the session has published a board event newer
// than afterMs. Returns an error if the timeout expires first.
func PollForBoard(ctx context.Context, client *cache.Client, sessionID string, afterMs int64, timeout time.Duration) (*puzzle.BoardEvent, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timeoutCh:
			return nil, fmt.Errorf("timeout waiting for board from session %s after %v", sessionID, timeout)

		case <-ticker.C:
			ev, err := client.GetLatestBoard(ctx, sessionID)
			if err != nil {
				if cache.IsNotFound(err) {
					continue
				}
				return nil, fmt.Errorf("failed to query board: %w", err)
			}
			if ev.CreatedAtMs <= afterMs {
				continue
			}
			return ev, nil
		}
	}
}

// Replay writes the latest recorded board of every session that matches
// criteria, oldest first. Returns the number of events written.
func Replay(ctx context.Context, client *cache.Client, criteria *filter.Criteria, format OutputFormat, w io.Writer) (int, error) {
	sessions, err := client.ListSessions(ctx)
	if err != nil {
		return 0, err
	}

	var events []*puzzle.BoardEvent
	for _, id := range sessions {
		if criteria.SessionID != "" && id != criteria.SessionID {
			continue
		}
		ev, err := client.GetLatestBoard(ctx, id)
		if err != nil {
			if cache.IsNotFound(err) {
				// Expired
				continue
			}
			return 0, err
		}
		if criteria.Matches(ev) {
			events = append(events, ev)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAtMs < events[j].CreatedAtMs
	})

	f := newFormatter(format, w)
	for _, ev := range events {
		if err := f.FormatBoard(ev); err != nil {
			return 0, fmt.Errorf("failed to write board event: %w", err)
		}
	}
	return len(events), nil
}

// StreamBoards writes board events matching criteria as they are published,
// until ctx is cancelled. Malformed messages are logged and skipped.
func StreamBoards(ctx context.Context, client *cache.Client, criteria *filter.Criteria, format OutputFormat, w io.Writer) error {
	sub, err := client.SubscribeBoardEvents(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	f := newFormatter(format, w)
	events, errs := sub.Events(), sub.Errors()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !criteria.Matches(ev) {
				continue
			}
			if err := f.FormatBoard(ev); err != nil {
				return fmt.Errorf("failed to write board event: %w", err)
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Printf("[WARN] %v", err)
		}
	}
}
