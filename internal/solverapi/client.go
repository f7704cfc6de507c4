package solverapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dyluth/pentaboard/pkg/puzzle"
)

// DevOrigin is the same-origin development target used when no base URL is
// configured. It matches the local solving service's default listen address.
const DevOrigin = "http://127.0.0.1:8080"

// DefaultTimeout bounds every request when the caller gives no timeout.
const DefaultTimeout = 30 * time.Second

// maxBodyBytes caps how much of a response is read into memory.
const maxBodyBytes = 8 << 20

// Client talks to the remote solving service.
// The client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given API base URL.
//
// An empty baseURL selects the development target (DevOrigin) with
// relative paths. Any other value must be an absolute http(s) URL; request
// paths are joined onto it.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid API base URL %q: %w", baseURL, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("invalid API base URL %q: scheme must be http or https", baseURL)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("invalid API base URL %q: missing host", baseURL)
		}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// BaseURL returns the configured base URL ("" in development mode).
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Endpoint returns the absolute URL for an API path such as "solve".
func (c *Client) Endpoint(path string) string {
	base := c.baseURL
	if base == "" {
		base = DevOrigin
	}
	joined, err := url.JoinPath(base, strings.TrimPrefix(path, "/"))
	if err != nil {
		// NewClient validated the base, so JoinPath cannot fail on it.
		return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
	}
	return joined
}

// FetchGroups loads the grouped catalog from GET /groups.
func (c *Client) FetchGroups(ctx context.Context) ([]puzzle.RawGroup, error) {
	status, body, err := c.do(ctx, http.MethodGet, "groups", nil)
	if err != nil {
		return nil, err
	}
	groups, err := puzzle.ParseGroups(body)
	if err != nil {
		return nil, decodeError("GET /groups", status, body, err)
	}
	return groups, nil
}

// FetchLevels loads the legacy flat catalog from GET /levels.
func (c *Client) FetchLevels(ctx context.Context) ([]puzzle.RawLevel, error) {
	status, body, err := c.do(ctx, http.MethodGet, "levels", nil)
	if err != nil {
		return nil, err
	}
	levels, err := puzzle.ParseLevels(body)
	if err != nil {
		return nil, decodeError("GET /levels", status, body, err)
	}
	return levels, nil
}

// FetchPieces loads the piece inventory from GET /pieces.
func (c *Client) FetchPieces(ctx context.Context) ([]puzzle.Piece, error) {
	status, body, err := c.do(ctx, http.MethodGet, "pieces", nil)
	if err != nil {
		return nil, err
	}
	pieces, err := puzzle.ParsePieces(body)
	if err != nil {
		return nil, decodeError("GET /pieces", status, body, err)
	}
	return pieces, nil
}

// Solve posts a level shape to POST /solve.
// A solved=false answer is returned as a result, not an error.
func (c *Client) Solve(ctx context.Context, req puzzle.SolveRequest) (puzzle.SolveResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return puzzle.SolveResult{}, fmt.Errorf("failed to marshal solve request: %w", err)
	}

	status, body, err := c.do(ctx, http.MethodPost, "solve", payload)
	if err != nil {
		return puzzle.SolveResult{}, err
	}
	res, err := puzzle.ParseSolveResult(body)
	if err != nil {
		return puzzle.SolveResult{}, decodeError("POST /solve", status, body, err)
	}
	return res, nil
}

// Health calls GET /health and returns the trimmed body.
func (c *Client) Health(ctx context.Context) (string, error) {
	_, body, err := c.do(ctx, http.MethodGet, "health", nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// do performs a request and classifies failures into the puzzle error
// taxonomy: *puzzle.NetworkError or *puzzle.HTTPError.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	op := method + " /" + path

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Endpoint(path), reqBody)
	if err != nil {
		return 0, nil, &puzzle.NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &puzzle.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, &puzzle.NetworkError{Op: op, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, body, &puzzle.HTTPError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       puzzle.Excerpt(bytes.TrimSpace(body)),
		}
	}
	return resp.StatusCode, body, nil
}

func decodeError(op string, status int, body []byte, err error) error {
	return &puzzle.DecodeError{
		Op:         op,
		StatusCode: status,
		Body:       puzzle.Excerpt(bytes.TrimSpace(body)),
		Err:        err,
	}
}
