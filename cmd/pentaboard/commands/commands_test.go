package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/pentaboard/internal/printer"
	"github.com/dyluth/pentaboard/internal/session"
	"github.com/dyluth/pentaboard/pkg/puzzle"
	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

const (
	groupsBody = `{"groups":[
		{"groupId":"junior","name":"Junior","levels":[{"id":"1","width":1,"height":1,"pieceIds":[1]}]},
		{"groupId":"starter","name":"Starter","levels":[
			{"id":"2","name":"Second","width":2,"height":2,"pieceIds":[0,1]},
			{"id":"1","name":"First","width":2,"height":1,"pieceIds":[0]}
		]}
	]}`
	piecesBody = `{"pieces":[
		{"pieceId":0,"cells":[{"x":0,"y":0},{"x":1,"y":0}]},
		{"pieceId":1,"cells":[{"x":0,"y":0}]}
	]}`
)

// newSolver starts a fake solving service. Only 2x1 boards have a solution.
func newSolver(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/groups", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(groupsBody))
	})
	mux.HandleFunc("/pieces", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(piecesBody))
	})
	mux.HandleFunc("/solve", func(w http.ResponseWriter, r *http.Request) {
		var req puzzle.SolveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Width == 2 && req.Height == 1 {
			w.Write([]byte(`{"solved":true,"placements":[{"pieceId":0,"cells":[{"x":0,"y":0},{"x":1,"y":0}]}]}`))
			return
		}
		w.Write([]byte(`{"solved":false,"error":"No tiling exists"}`))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// resetFlags restores every flag to its default so package-level flag
// variables do not leak between executions.
func resetFlags() {
	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	reset(rootCmd.PersistentFlags())
	for _, c := range rootCmd.Commands() {
		reset(c.Flags())
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	var stdout, stderr bytes.Buffer
	restore := printer.SetOutput(&stdout, &stderr)
	defer restore()
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	rootCmd.SetArgs(args)

	err := Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand_ShowsHelpWhenNoSubcommand(t *testing.T) {
	stdout, _, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "pentaboard")
}

func TestRootCommand_RejectsUnknownFlags(t *testing.T) {
	_, _, err := execute(t, "--unknown-flag", "value")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestLevelsCommand(t *testing.T) {
	srv := newSolver(t)

	t.Run("table in canonical order", func(t *testing.T) {
		stdout, _, err := execute(t, "--api", srv.URL, "levels")
		require.NoError(t, err)

		lines := strings.Split(stdout, "\n")
		require.GreaterOrEqual(t, len(lines), 5)
		assert.True(t, strings.HasPrefix(lines[2], "* Starter"), lines[2])
		assert.Contains(t, lines[2], "starter/1")
		assert.Contains(t, lines[3], "starter/2")
		assert.Contains(t, lines[4], "junior/1")
		assert.Contains(t, stdout, "3 levels in 2 groups")
	})

	t.Run("jsonl", func(t *testing.T) {
		stdout, _, err := execute(t, "--api", srv.URL, "levels", "-o", "jsonl")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(stdout), "\n")
		require.Len(t, lines, 3)
		var first puzzle.Level
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
		assert.Equal(t, "starter/1", first.Key)
	})

	t.Run("invalid output format", func(t *testing.T) {
		_, stderr, err := execute(t, "--api", srv.URL, "levels", "-o", "yaml")
		require.Error(t, err)
		assert.Equal(t, "invalid output format", err.Error())
		assert.Contains(t, stderr, "Valid formats: default, jsonl")
	})

	t.Run("unreachable service", func(t *testing.T) {
		_, stderr, err := execute(t, "--api", "http://127.0.0.1:1", "levels")
		require.Error(t, err)
		assert.Equal(t, "solving service unreachable", err.Error())
		assert.Contains(t, stderr, "pentaboard health")
	})

	t.Run("invalid api flag", func(t *testing.T) {
		_, _, err := execute(t, "--api", "localhost:8080", "levels")
		require.Error(t, err)
		assert.Equal(t, "invalid --api value", err.Error())
	})
}

func TestPiecesCommand(t *testing.T) {
	srv := newSolver(t)

	t.Run("whole inventory", func(t *testing.T) {
		stdout, _, err := execute(t, "--api", srv.URL, "pieces")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Piece 1 (2x1)\n  ##\n")
		assert.Contains(t, stdout, "Piece 2 (1x1)\n  #\n")
	})

	t.Run("pieces of one level", func(t *testing.T) {
		stdout, _, err := execute(t, "--api", srv.URL, "pieces", "--level", "starter/2")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(stdout, "Starter / Second (2x2, 2 pieces)\n"), stdout)
		assert.Contains(t, stdout, "Piece 2")
	})

	t.Run("group-local level id", func(t *testing.T) {
		stdout, _, err := execute(t, "--api", srv.URL, "pieces", "--group", "junior", "--level", "1")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Junior / 1 (1x1, 1 pieces)")
		assert.NotContains(t, stdout, "Piece 1 ")
	})

	t.Run("ambiguous level id", func(t *testing.T) {
		_, stderr, err := execute(t, "--api", srv.URL, "pieces", "--level", "1")
		require.Error(t, err)
		assert.Equal(t, "ambiguous level reference", err.Error())
		assert.Contains(t, stderr, "starter/1")
		assert.Contains(t, stderr, "junior/1")
	})

	t.Run("unknown level", func(t *testing.T) {
		_, _, err := execute(t, "--api", srv.URL, "pieces", "--level", "wizard/9")
		require.Error(t, err)
		assert.Equal(t, "level not found", err.Error())
	})
}

func TestSolveCommand(t *testing.T) {
	srv := newSolver(t)

	t.Run("solves the default level", func(t *testing.T) {
		stdout, _, err := execute(t, "--api", srv.URL, "solve")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Starter / First (2x1, 1 pieces)\n\n0 0\n")
		assert.Contains(t, stdout, "0 = Piece 1")
		assert.Contains(t, stdout, "Solved starter/1")
	})

	t.Run("no solution is not an error", func(t *testing.T) {
		stdout, _, err := execute(t, "--api", srv.URL, "solve", "--level", "starter/2")
		require.NoError(t, err)
		assert.Contains(t, stdout, ". .\n. .\n")
		assert.Contains(t, stdout, "No tiling exists")
		assert.NotContains(t, stdout, "Solved")
	})

	t.Run("quiet prints only the board", func(t *testing.T) {
		stdout, _, err := execute(t, "--api", srv.URL, "solve", "-q")
		require.NoError(t, err)
		assert.Equal(t, "0 0\n", stdout)
	})

	t.Run("unknown group", func(t *testing.T) {
		_, stderr, err := execute(t, "--api", srv.URL, "solve", "--group", "wizard")
		require.Error(t, err)
		assert.Equal(t, "invalid level selection", err.Error())
		assert.Contains(t, stderr, "Invalid levelId: wizard/ (unknown group)")
	})

	t.Run("backend failure exits non-zero", func(t *testing.T) {
		broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/solve" {
				http.Error(w, "solver crashed", http.StatusInternalServerError)
				return
			}
			srv.Config.Handler.ServeHTTP(w, r)
		}))
		defer broken.Close()

		_, stderr, err := execute(t, "--api", broken.URL, "solve")
		require.Error(t, err)
		assert.Equal(t, "solve failed", err.Error())
		assert.Contains(t, stderr, "500")
	})

	t.Run("caches and publishes through Redis", func(t *testing.T) {
		mr := miniredis.RunT(t)

		stdout, _, err := execute(t, "--api", srv.URL, "--redis", mr.Addr(), "solve")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Board published to instance 'default'")
		assert.True(t, mr.Exists("pentaboard:default:solution:2x1:0"))

		members, err := mr.Members("pentaboard:default:sessions")
		require.NoError(t, err)
		assert.Len(t, members, 1)
	})
}

func TestSolveRejected(t *testing.T) {
	restore := printer.SetOutput(&bytes.Buffer{}, &bytes.Buffer{})
	defer restore()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"invalid selection", &puzzle.InvalidSelectionError{Reason: "unknown group"}, "invalid level selection"},
		{"solve in flight", session.ErrSolveInFlight, "solve already in progress"},
		{"catalog not ready", fmt.Errorf("solve: %w", session.ErrCatalogNotReady), "levels not loaded"},
		{"other", errors.New("boom"), "failed to start solve: boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := solveRejected(tc.err)
			require.Error(t, err)
			assert.Equal(t, tc.want, err.Error())
		})
	}
}

func TestHealthCommand(t *testing.T) {
	srv := newSolver(t)

	stdout, _, err := execute(t, "--api", srv.URL, "health")
	require.NoError(t, err)
	assert.Contains(t, stdout, "is healthy (ok)")

	t.Run("with redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		stdout, _, err := execute(t, "--api", srv.URL, "--redis", mr.Addr(), "health")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Redis at "+mr.Addr()+" is reachable")
	})

	t.Run("redis down", func(t *testing.T) {
		_, _, err := execute(t, "--api", srv.URL, "--redis", "127.0.0.1:1", "health")
		require.Error(t, err)
		assert.Equal(t, "Redis connection failed", err.Error())
	})
}

func TestWatchCommand(t *testing.T) {
	srv := newSolver(t)

	t.Run("requires redis", func(t *testing.T) {
		_, _, err := execute(t, "watch")
		require.Error(t, err)
		assert.Equal(t, "Redis is not configured", err.Error())
	})

	t.Run("wait requires session", func(t *testing.T) {
		_, _, err := execute(t, "watch", "--wait", "1s")
		require.Error(t, err)
		assert.Equal(t, "--wait requires --session", err.Error())
	})

	t.Run("invalid outcome", func(t *testing.T) {
		_, _, err := execute(t, "watch", "--outcome", "maybe")
		require.Error(t, err)
		assert.Equal(t, "invalid filter", err.Error())
	})

	t.Run("replay without follow", func(t *testing.T) {
		mr := miniredis.RunT(t)

		_, _, err := execute(t, "--api", srv.URL, "--redis", mr.Addr(), "solve")
		require.NoError(t, err)

		stdout, _, err := execute(t, "--redis", mr.Addr(), "watch", "--replay", "--follow=false", "-o", "json")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(stdout), "\n")
		require.Len(t, lines, 1)
		var ev puzzle.BoardEvent
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &ev))
		assert.Equal(t, puzzle.OutcomeSolved, ev.Outcome)
		assert.Equal(t, "starter/1", ev.LevelKey)
	})

	t.Run("replay with nothing recorded", func(t *testing.T) {
		mr := miniredis.RunT(t)
		stdout, _, err := execute(t, "--redis", mr.Addr(), "watch", "--replay", "--follow=false")
		require.NoError(t, err)
		assert.Contains(t, stdout, "No recorded boards")
	})
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()

	stdout, _, err := execute(t, "init", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created "+filepath.Join(dir, "pentaboard.yml"))

	_, _, err = execute(t, "init", "--dir", dir)
	require.Error(t, err)
	assert.Equal(t, "already initialized", err.Error())

	_, _, err = execute(t, "init", "--dir", dir, "--force")
	require.NoError(t, err)

	// The written file is accepted by --config.
	srv := newSolver(t)
	_, _, err = execute(t, "--config", filepath.Join(dir, "pentaboard.yml"), "--api", srv.URL, "health")
	require.NoError(t, err)
}

func TestConfigErrors(t *testing.T) {
	t.Run("explicit missing file", func(t *testing.T) {
		_, stderr, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.yml"), "levels")
		require.Error(t, err)
		assert.Equal(t, "invalid configuration", err.Error())
		assert.Contains(t, stderr, "nope.yml")
	})

	t.Run("flat catalog from config", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/levels", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"levels":[{"id":"L1","width":3,"height":5,"pieceIds":[0]}]}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		path := filepath.Join(t.TempDir(), "pentaboard.yml")
		require.NoError(t, os.WriteFile(path, []byte("version: \"1.0\"\ncatalog:\n  mode: flat\n"), 0644))

		stdout, _, err := execute(t, "--config", path, "--api", srv.URL, "levels")
		require.NoError(t, err)
		assert.Contains(t, stdout, "L1")
		assert.Contains(t, stdout, "1 level\n")
	})
}
