package model

import (
	"fmt"
	"time"

	"github.com/JaimeStill/segmenter/pkg/envvar"
)

// DefaultModels is the fallback order used when no models are configured.
var DefaultModels = []string{"gemini-2.0-flash", "gemini-1.5-flash"}

// Config holds Gemini connection and generation parameters.
// Models is ordered: the first entry is primary, the rest are fallbacks.
type Config struct {
	APIKey          string   `toml:"api_key"`
	Models          []string `toml:"models"`
	Temperature     float64  `toml:"temperature"`
	MaxOutputTokens int      `toml:"max_output_tokens"`
	Timeout         string   `toml:"timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	APIKey          string
	Models          string
	Temperature     string
	MaxOutputTokens string
	Timeout         string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
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
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if len(overlay.Models) > 0 {
		c.Models = overlay.Models
	}
	if overlay.Temperature != 0 {
		c.Temperature = overlay.Temperature
	}
	if overlay.MaxOutputTokens != 0 {
		c.MaxOutputTokens = overlay.MaxOutputTokens
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *Config) loadDefaults() {
	if len(c.Models) == 0 {
		c.Models = append([]string(nil), DefaultModels...)
	}
	if c.Temperature == 0 {
		c.Temperature = 0.1
	}
	if c.MaxOutputTokens == 0 {
		c.MaxOutputTokens = 2048
	}
	if c.Timeout == "" {
		c.Timeout = "2m"
	}
}

func (c *Config) loadEnv(env *Env) {
	envvar.String(&c.APIKey, env.APIKey)
	envvar.List(&c.Models, env.Models)
	envvar.Float(&c.Temperature, env.Temperature)
	envvar.Int(&c.MaxOutputTokens, env.MaxOutputTokens)
	envvar.String(&c.Timeout, env.Timeout)
}

func (c *Config) validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("at least one model required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2: %v", c.Temperature)
	}
	if c.MaxOutputTokens < 1 {
		return fmt.Errorf("max_output_tokens must be positive")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
