package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/JaimeStill/segmenter/pkg/envvar"
)

// ServerConfig holds the HTTP listener settings. The write timeout has to
// cover a full segmentation request.
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

type ServerEnv struct {
	Host            string
	Port            string
	ReadTimeout     string
	WriteTimeout    string
	ShutdownTimeout string
}

var serverDefaults = ServerConfig{
	Host:            "0.0.0.0",
	Port:            8080,
	ReadTimeout:     "1m",
	WriteTimeout:    "15m",
	ShutdownTimeout: "30s",
}

func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration  { return duration(c.ReadTimeout) }
func (c *ServerConfig) WriteTimeoutDuration() time.Duration { return duration(c.WriteTimeout) }

func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return duration(c.ShutdownTimeout)
}

func (c *ServerConfig) Finalize(env *ServerEnv) error {
	overlay := *c
	*c = serverDefaults
	c.Merge(&overlay)

	if env != nil {
		envvar.String(&c.Host, env.Host)
		envvar.Int(&c.Port, env.Port)
		envvar.Duration(&c.ReadTimeout, env.ReadTimeout)
		envvar.Duration(&c.WriteTimeout, env.WriteTimeout)
		envvar.Duration(&c.ShutdownTimeout, env.ShutdownTimeout)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for _, d := range []struct{ field, value string }{
		{"read_timeout", c.ReadTimeout},
		{"write_timeout", c.WriteTimeout},
		{"shutdown_timeout", c.ShutdownTimeout},
	} {
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("invalid %s: %w", d.field, err)
		}
	}
	return nil
}

func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	if overlay.ReadTimeout != "" {
		c.ReadTimeout = overlay.ReadTimeout
	}
	if overlay.WriteTimeout != "" {
		c.WriteTimeout = overlay.WriteTimeout
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
}
