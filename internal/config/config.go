package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/dyluth/pentaboard/internal/cache"
	"github.com/dyluth/pentaboard/pkg/puzzle"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "pentaboard.yml"

const (
	// CatalogModeGrouped loads the /groups catalog (canonical)
	CatalogModeGrouped = "grouped"

	// CatalogModeFlat loads the legacy /levels catalog
	CatalogModeFlat = "flat"
)

// Defaults applied by Validate.
const (
	DefaultAPITimeout   = 30 * time.Second
	DefaultInstance     = "default"
	DefaultSolutionTTL  = 24 * time.Hour
	DefaultMessageLimit = 200
	DefaultCatalogMode  = CatalogModeGrouped
)

const supportedVersion = "1.0"

// PentaboardConfig represents the top-level pentaboard.yml configuration
type PentaboardConfig struct {
	Version string         `yaml:"version"`
	API     *APIConfig     `yaml:"api,omitempty"`
	Catalog *CatalogConfig `yaml:"catalog,omitempty"`
	Redis   *RedisConfig   `yaml:"redis,omitempty"`
	Display *DisplayConfig `yaml:"display,omitempty"`
}

// APIConfig locates the solving service
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`          // Empty selects the local development origin
	Timeout time.Duration `yaml:"timeout,omitempty"` // Per-request timeout, e.g. "30s"
}

// CatalogConfig controls how levels are loaded and ordered
type CatalogConfig struct {
	Mode          string   `yaml:"mode,omitempty"`           // "grouped" or "flat"
	GroupPriority []string `yaml:"group_priority,omitempty"` // Canonical group order, unknown groups sort last
}

// RedisConfig enables the solution cache and board events
type RedisConfig struct {
	Addr        string        `yaml:"addr,omitempty"`         // host:port or redis:// URL, empty disables Redis
	Instance    string        `yaml:"instance,omitempty"`     // Key namespace, DNS-style
	SolutionTTL time.Duration `yaml:"solution_ttl,omitempty"` // Expiry of cached solutions
}

// DisplayConfig controls inline message rendering
type DisplayConfig struct {
	MessageLimit *int `yaml:"message_limit,omitempty"` // Truncation limit for status messages
}

// Default returns a validated configuration with every default applied.
func Default() *PentaboardConfig {
	c := &PentaboardConfig{Version: supportedVersion}
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return c
}

// Validate performs strict validation on the configuration and fills in
// defaults for omitted sections.
func (c *PentaboardConfig) Validate() error {
	// Required: version
	if c.Version != supportedVersion {
		return fmt.Errorf("unsupported version: %s (expected: %s)", c.Version, supportedVersion)
	}

	if c.API == nil {
		c.API = &APIConfig{}
	}
	if err := c.API.Validate(); err != nil {
		return err
	}

	if c.Catalog == nil {
		c.Catalog = &CatalogConfig{}
	}
	if err := c.Catalog.Validate(); err != nil {
		return err
	}

	if c.Redis == nil {
		c.Redis = &RedisConfig{}
	}
	if err := c.Redis.Validate(); err != nil {
		return err
	}

	if c.Display == nil {
		c.Display = &DisplayConfig{}
	}
	if c.Display.MessageLimit == nil {
		limit := DefaultMessageLimit
		c.Display.MessageLimit = &limit
	}
	if *c.Display.MessageLimit < 1 {
		return fmt.Errorf("display.message_limit must be >= 1, got %d", *c.Display.MessageLimit)
	}

	return nil
}

// Validate checks the API section and applies the default timeout.
func (a *APIConfig) Validate() error {
	if a.BaseURL != "" {
		u, err := url.Parse(a.BaseURL)
		if err != nil {
			return fmt.Errorf("api.base_url: %w", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("api.base_url must be an absolute http(s) URL, got '%s'", a.BaseURL)
		}
	}

	if a.Timeout < 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", a.Timeout)
	}
	if a.Timeout == 0 {
		a.Timeout = DefaultAPITimeout
	}
	return nil
}

// Validate checks the catalog section and applies the default mode and
// group priority.
func (cc *CatalogConfig) Validate() error {
	if cc.Mode == "" {
		cc.Mode = DefaultCatalogMode
	}
	if cc.Mode != CatalogModeGrouped && cc.Mode != CatalogModeFlat {
		return fmt.Errorf("invalid catalog.mode: %s (must be '%s' or '%s')", cc.Mode, CatalogModeGrouped, CatalogModeFlat)
	}

	if len(cc.GroupPriority) == 0 {
		cc.GroupPriority = append([]string(nil), puzzle.DefaultGroupPriority...)
	}
	seen := make(map[string]bool, len(cc.GroupPriority))
	for _, id := range cc.GroupPriority {
		if id == "" {
			return fmt.Errorf("catalog.group_priority contains an empty group id")
		}
		if seen[id] {
			return fmt.Errorf("catalog.group_priority lists '%s' more than once", id)
		}
		seen[id] = true
	}
	return nil
}

// Validate checks the Redis section. Instance and TTL defaults apply even
// when Redis is disabled so --redis can enable it later.
func (r *RedisConfig) Validate() error {
	if r.Instance == "" {
		r.Instance = DefaultInstance
	}
	if err := cache.ValidateName(r.Instance); err != nil {
		return fmt.Errorf("redis.instance: %w", err)
	}

	if r.SolutionTTL < 0 {
		return fmt.Errorf("redis.solution_ttl must be positive, got %s", r.SolutionTTL)
	}
	if r.SolutionTTL == 0 {
		r.SolutionTTL = DefaultSolutionTTL
	}
	return nil
}

// Enabled reports whether a Redis address is configured.
func (r *RedisConfig) Enabled() bool {
	return r != nil && r.Addr != ""
}

// Flat reports whether the legacy flat catalog is selected.
func (c *PentaboardConfig) Flat() bool {
	return c.Catalog != nil && c.Catalog.Mode == CatalogModeFlat
}

// Load reads and validates pentaboard.yml from the specified path
func Load(path string) (*PentaboardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config PentaboardConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault loads path, falling back to defaults when the file does not
// exist and was not explicitly requested.
func LoadOrDefault(path string, explicit bool) (*PentaboardConfig, error) {
	config, err := Load(path)
	if err == nil {
		return config, nil
	}
	if !explicit && errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return nil, err
}
