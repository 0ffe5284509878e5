// Package config assembles the service configuration from config.toml, an
// optional config.<env>.toml overlay, and SEGMENTER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/segmenter/internal/model"
	"github.com/JaimeStill/segmenter/internal/segmenter"
	"github.com/JaimeStill/segmenter/pkg/database"
	"github.com/JaimeStill/segmenter/pkg/envvar"
	"github.com/JaimeStill/segmenter/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"
)

type Config struct {
	Server          ServerConfig     `toml:"server"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	API             APIConfig        `toml:"api"`
	Model           model.Config     `toml:"model"`
	Segmenter       segmenter.Config `toml:"segmenter"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
}

// Env reports the active environment name, "local" when unset.
func (c *Config) Env() string {
	if name := os.Getenv(EnvSegmenterEnv); name != "" {
		return name
	}
	return "local"
}

func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return duration(c.ShutdownTimeout)
}

// Load finalizes every section. A missing config.toml is not an error:
// defaults and environment variables then carry the whole configuration.
func Load() (*Config, error) {
	return load((*Config).finalize)
}

// LoadPipeline finalizes only the model and segmenter sections, for tools
// that run the pipeline without the database or blob storage.
func LoadPipeline() (*Config, error) {
	return load((*Config).finalizePipeline)
}

// LoadDatabase finalizes only the database section.
func LoadDatabase() (*database.Config, error) {
	cfg, err := load(func(c *Config) error {
		return section("database", c.Database.Finalize(env.Database))
	})
	if err != nil {
		return nil, err
	}
	return &cfg.Database, nil
}

func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Model.Merge(&overlay.Model)
	c.Segmenter.Merge(&overlay.Segmenter)
}

func load(finalize func(*Config) error) (*Config, error) {
	cfg := &Config{}

	if err := decode(BaseConfigFile, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if name := os.Getenv(EnvSegmenterEnv); name != "" {
		var overlay Config
		path := fmt.Sprintf(OverlayConfigPattern, name)
		switch err := decode(path, &overlay); {
		case err == nil:
			cfg.Merge(&overlay)
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
	}

	if err := finalize(cfg); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

func decode(path string, into *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := toml.Unmarshal(data, into); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) finalize() error {
	if err := c.finalizePipeline(); err != nil {
		return err
	}
	if err := section("server", c.Server.Finalize(env.Server)); err != nil {
		return err
	}
	if err := section("database", c.Database.Finalize(env.Database)); err != nil {
		return err
	}
	if err := section("storage", c.Storage.Finalize(env.Storage)); err != nil {
		return err
	}
	return section("api", c.API.Finalize(env.API))
}

func (c *Config) finalizePipeline() error {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	envvar.Duration(&c.ShutdownTimeout, env.ShutdownTimeout)
	envvar.String(&c.Version, env.Version)

	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	if err := section("model", c.Model.Finalize(env.Model)); err != nil {
		return err
	}
	return section("segmenter", c.Segmenter.Finalize(env.Segmenter))
}

func section(name string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// duration parses a value already checked by Finalize.
func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
