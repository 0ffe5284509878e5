package segmenter

import (
	"fmt"
	"time"

	"github.com/JaimeStill/segmenter/pkg/envvar"
)

// Bounds on caller-controlled pagination parameters.
const (
	MinPageSize = 3
	MaxPageSize = 15
	MinMaxPages = 1
	MaxMaxPages = 50
)

// Cache backends.
const (
	CacheMemory   = "memory"
	CachePostgres = "postgres"
)

// Config holds pipeline defaults and the retry policy.
type Config struct {
	PageSize   int    `toml:"page_size"`
	MaxPages   int    `toml:"max_pages"`
	MaxRetries int    `toml:"max_retries"`
	BaseDelay  string `toml:"base_delay"`
	MaxBackoff string `toml:"max_backoff"`
	Cache      string `toml:"cache"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	PageSize   string
	MaxPages   string
	MaxRetries string
	BaseDelay  string
	MaxBackoff string
	Cache      string
}

// BaseDelayDuration returns BaseDelay as a time.Duration.
func (c *Config) BaseDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.BaseDelay)
	return d
}

// MaxBackoffDuration returns MaxBackoff as a time.Duration.
func (c *Config) MaxBackoffDuration() time.Duration {
	d, _ := time.ParseDuration(c.MaxBackoff)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.PageSize != 0 {
		c.PageSize = overlay.PageSize
	}
	if overlay.MaxPages != 0 {
		c.MaxPages = overlay.MaxPages
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
	if overlay.BaseDelay != "" {
		c.BaseDelay = overlay.BaseDelay
	}
	if overlay.MaxBackoff != "" {
		c.MaxBackoff = overlay.MaxBackoff
	}
	if overlay.Cache != "" {
		c.Cache = overlay.Cache
	}
}

func (c *Config) loadDefaults() {
	if c.PageSize == 0 {
		c.PageSize = 5
	}
	if c.MaxPages == 0 {
		c.MaxPages = 10
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BaseDelay == "" {
		c.BaseDelay = "1s"
	}
	if c.MaxBackoff == "" {
		c.MaxBackoff = "30s"
	}
	if c.Cache == "" {
		c.Cache = CacheMemory
	}
}

func (c *Config) loadEnv(env *Env) {
	envvar.Int(&c.PageSize, env.PageSize)
	envvar.Int(&c.MaxPages, env.MaxPages)
	envvar.Int(&c.MaxRetries, env.MaxRetries)
	envvar.String(&c.BaseDelay, env.BaseDelay)
	envvar.String(&c.MaxBackoff, env.MaxBackoff)
	envvar.String(&c.Cache, env.Cache)
}

func (c *Config) validate() error {
	if c.PageSize < MinPageSize || c.PageSize > MaxPageSize {
		return fmt.Errorf("page_size must be between %d and %d: %d", MinPageSize, MaxPageSize, c.PageSize)
	}
	if c.MaxPages < MinMaxPages || c.MaxPages > MaxMaxPages {
		return fmt.Errorf("max_pages must be between %d and %d: %d", MinMaxPages, MaxMaxPages, c.MaxPages)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be positive")
	}
	if _, err := time.ParseDuration(c.BaseDelay); err != nil {
		return fmt.Errorf("invalid base_delay: %w", err)
	}
	if _, err := time.ParseDuration(c.MaxBackoff); err != nil {
		return fmt.Errorf("invalid max_backoff: %w", err)
	}
	switch c.Cache {
	case CacheMemory, CachePostgres:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache)
	}
	return nil
}
