package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/dyluth/pentaboard/internal/cache"
	"github.com/dyluth/pentaboard/internal/config"
	"github.com/dyluth/pentaboard/internal/printer"
	"github.com/dyluth/pentaboard/internal/resolver"
	"github.com/dyluth/pentaboard/internal/session"
	"github.com/dyluth/pentaboard/internal/solverapi"
	"github.com/dyluth/pentaboard/pkg/puzzle"
	"github.com/redis/go-redis/v9"
)

// loadConfig reads the config file and applies the global flag overrides.
// A missing default config file is not an error.
func loadConfig() (*config.PentaboardConfig, error) {
	path, explicit := configPath, configPath != ""
	if !explicit {
		path = config.DefaultPath
	}

	cfg, err := config.LoadOrDefault(path, explicit)
	if err != nil {
		return nil, printer.ErrorWithContext(
			"invalid configuration",
			err.Error(),
			map[string]string{"Config": path},
			[]string{"Check the file against the documented fields (version: \"1.0\", api, catalog, redis, display)"},
		)
	}

	if apiURL != "" {
		cfg.API.BaseURL = apiURL
		if err := cfg.API.Validate(); err != nil {
			return nil, printer.Error(
				"invalid --api value",
				err.Error(),
				[]string{"Use an absolute URL:\n  pentaboard --api http://localhost:8080 ..."},
			)
		}
	}
	if redisAddr != "" {
		cfg.Redis.Addr = redisAddr
	}

	return cfg, nil
}

// newAPIClient builds the solving service client.
func newAPIClient(cfg *config.PentaboardConfig) (*solverapi.Client, error) {
	api, err := solverapi.NewClient(cfg.API.BaseURL, cfg.API.Timeout)
	if err != nil {
		return nil, printer.Error("invalid API configuration", err.Error(), nil)
	}
	return api, nil
}

// serviceURL is the base URL shown in error context.
func serviceURL(api *solverapi.Client) string {
	if api.BaseURL() == "" {
		return solverapi.DevOrigin
	}
	return api.BaseURL()
}

// newCacheClient connects to Redis. Returns nil when Redis is not configured.
func newCacheClient(ctx context.Context, cfg *config.PentaboardConfig) (*cache.Client, error) {
	if !cfg.Redis.Enabled() {
		return nil, nil
	}

	redisOpts, err := redisOptions(cfg.Redis.Addr)
	if err != nil {
		return nil, printer.Error("invalid Redis address", err.Error(), nil)
	}

	client, err := cache.NewClient(redisOpts, cfg.Redis.Instance, cfg.Redis.SolutionTTL)
	if err != nil {
		return nil, printer.Error("invalid Redis configuration", err.Error(), nil)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", cfg.Redis.Addr),
			map[string]string{"Error": err.Error()},
			[]string{
				"Check that Redis is running:\n  redis-cli -h <host> ping",
				"Run without Redis by removing redis.addr from pentaboard.yml",
			},
		)
	}
	return client, nil
}

// redisOptions accepts either host:port or a redis:// URL.
func redisOptions(addr string) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: addr}, nil
}

// newController wires the session controller to the configured service and
// the optional cache. A nil cacheClient disables caching and publishing.
func newController(cfg *config.PentaboardConfig, api session.API, cacheClient *cache.Client, logger *log.Logger) *session.Controller {
	opts := session.Options{
		Flat:          cfg.Flat(),
		GroupPriority: cfg.Catalog.GroupPriority,
		MessageLimit:  *cfg.Display.MessageLimit,
		Logger:        logger,
	}
	if cacheClient != nil {
		opts.Cache = cacheClient
		opts.Publisher = cacheClient
	}
	return session.NewController(api, opts)
}

// fetchCatalog loads and normalises the configured catalog.
func fetchCatalog(ctx context.Context, cfg *config.PentaboardConfig, api *solverapi.Client) (puzzle.Catalog, error) {
	if cfg.Flat() {
		raw, err := api.FetchLevels(ctx)
		if err != nil {
			return puzzle.Catalog{}, err
		}
		return puzzle.NormalizeFlat(raw), nil
	}

	raw, err := api.FetchGroups(ctx)
	if err != nil {
		return puzzle.Catalog{}, err
	}
	return puzzle.Normalize(raw, cfg.Catalog.GroupPriority), nil
}

// selectLevel turns --group/--level flags into a selection. With neither
// flag the canonical default is used; --group alone selects the group's
// first level.
func selectLevel(c puzzle.Catalog, groupID, ref string) (puzzle.Selection, error) {
	switch {
	case ref != "":
		sel, err := resolver.ResolveLevelRef(c, groupID, ref)
		if err == nil {
			return sel, nil
		}
		var ambiguous *resolver.AmbiguousError
		if errors.As(err, &ambiguous) {
			return puzzle.Selection{}, printer.Error(
				"ambiguous level reference",
				resolver.FormatAmbiguousError(ambiguous),
				nil,
			)
		}
		return puzzle.Selection{}, printer.Error(
			"level not found",
			err.Error(),
			[]string{"List available levels:\n  pentaboard levels"},
		)

	case groupID != "":
		return puzzle.SwitchGroup(c, groupID), nil
	}
	return puzzle.ResolveDefault(c), nil
}
