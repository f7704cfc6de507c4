package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dyluth/pentaboard/pkg/puzzle"
	"github.com/redis/go-redis/v9"
)

// DefaultSolutionTTL is used when the client is created with a zero TTL.
const DefaultSolutionTTL = 24 * time.Hour

// latestBoardTTL bounds how long an idle session's last board is kept.
const latestBoardTTL = 24 * time.Hour

// Client provides instance-scoped Redis operations for cached solutions and
// board events. All keys and channels are namespaced with the instance name.
// The client is safe for concurrent use.
type Client struct {
	rdb          *redis.Client
	instanceName string
	solutionTTL  time.Duration
}

// NewClient creates a client for the specified instance.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - instanceName: DNS-style instance identifier
//   - solutionTTL: expiry for cached solutions, DefaultSolutionTTL when zero
//
// Returns an error if instanceName is invalid.
func NewClient(redisOpts *redis.Options, instanceName string, solutionTTL time.Duration) (*Client, error) {
	if err := ValidateName(instanceName); err != nil {
		return nil, err
	}
	if solutionTTL <= 0 {
		solutionTTL = DefaultSolutionTTL
	}

	return &Client{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
		solutionTTL:  solutionTTL,
	}, nil
}

// InstanceName returns the namespace this client writes to.
func (c *Client) InstanceName() string {
	return c.instanceName
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// GetSolution returns the cached result for a request shape.
// Returns (nil, nil) on a miss so it can serve as the controller's cache.
func (c *Client) GetSolution(ctx context.Context, req puzzle.SolveRequest) (*puzzle.SolveResult, error) {
	key := SolutionKey(c.instanceName, req)

	hashData, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read solution from Redis: %w", err)
	}
	if len(hashData) == 0 {
		return nil, nil
	}

	res, err := HashToSolution(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize solution: %w", err)
	}
	return res, nil
}

// PutSolution stores a result under its request shape with the client's TTL.
// Overwriting an existing entry is safe.
func (c *Client) PutSolution(ctx context.Context, req puzzle.SolveRequest, res puzzle.SolveResult) error {
	hash, err := SolutionToHash(req, res, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to serialize solution: %w", err)
	}

	key := SolutionKey(c.instanceName, req)
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, hash)
		pipe.Expire(ctx, key, c.solutionTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write solution to Redis: %w", err)
	}
	return nil
}

// PublishBoard records a board event as the session's latest board and
// publishes it to pentaboard:{instance}:board_events.
func (c *Client) PublishBoard(ctx context.Context, ev *puzzle.BoardEvent) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("invalid board event: %w", err)
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal board event: %w", err)
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, LatestBoardKey(c.instanceName, ev.SessionID), data, latestBoardTTL)
		pipe.SAdd(ctx, SessionsKey(c.instanceName), ev.SessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write board event to Redis: %w", err)
	}

	if err := c.rdb.Publish(ctx, BoardEventsChannel(c.instanceName), data).Err(); err != nil {
		return fmt.Errorf("failed to publish board event: %w", err)
	}
	return nil
}

// GetLatestBoard retrieves the last board event a session published.
// Returns (nil, redis.Nil) if none is recorded. Use IsNotFound() to check.
func (c *Client) GetLatestBoard(ctx context.Context, sessionID string) (*puzzle.BoardEvent, error) {
	data, err := c.rdb.Get(ctx, LatestBoardKey(c.instanceName, sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, redis.Nil
		}
		return nil, fmt.Errorf("failed to read board event from Redis: %w", err)
	}

	var ev puzzle.BoardEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board event: %w", err)
	}
	return &ev, nil
}

// ListSessions returns the ids of sessions that published a board, sorted.
// Sessions whose latest board expired are still listed.
func (c *Client) ListSessions(ctx context.Context) ([]string, error) {
	ids, err := c.rdb.SMembers(ctx, SessionsKey(c.instanceName)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Subscription represents an active Pub/Sub subscription to board events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *puzzle.BoardEvent
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of board events.
// The channel is closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan *puzzle.BoardEvent {
	return s.events
}

// Errors returns the channel of subscription errors.
// Malformed messages are reported here and skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeBoardEvents subscribes to board events for this instance.
// Context cancellation also stops the subscription.
//
// Events are delivered on a buffered channel (size 10). Redis Pub/Sub is
// at-most-once: a slow subscriber may miss events.
func (c *Client) SubscribeBoardEvents(ctx context.Context) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, BoardEventsChannel(c.instanceName))

	// Wait for the subscription to be confirmed so no event published after
	// this returns is lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to board events: %w", err)
	}

	eventsChan := make(chan *puzzle.BoardEvent, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var ev puzzle.BoardEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal board event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &ev:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
