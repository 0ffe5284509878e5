package database

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/JaimeStill/segmenter/pkg/envvar"
)

// Config describes the PostgreSQL pool. Durations stay in their TOML
// string form and are validated by Finalize.
type Config struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	Name            string `toml:"name"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	SSLMode         string `toml:"ssl_mode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
	ConnTimeout     string `toml:"conn_timeout"`
}

// Env holds the variable name overriding each Config field.
type Env struct {
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    string
	MaxIdleConns    string
	ConnMaxLifetime string
	ConnTimeout     string
}

var defaults = Config{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	MaxOpenConns:    25,
	MaxIdleConns:    5,
	ConnMaxLifetime: "15m",
	ConnTimeout:     "5s",
}

func (c *Config) Finalize(env *Env) error {
	overlay := *c
	*c = defaults
	c.Merge(&overlay)

	if env != nil {
		envvar.String(&c.Host, env.Host)
		envvar.Int(&c.Port, env.Port)
		envvar.String(&c.Name, env.Name)
		envvar.String(&c.User, env.User)
		envvar.String(&c.Password, env.Password)
		envvar.String(&c.SSLMode, env.SSLMode)
		envvar.Int(&c.MaxOpenConns, env.MaxOpenConns)
		envvar.Int(&c.MaxIdleConns, env.MaxIdleConns)
		envvar.Duration(&c.ConnMaxLifetime, env.ConnMaxLifetime)
		envvar.Duration(&c.ConnTimeout, env.ConnTimeout)
	}

	if c.Name == "" {
		return errors.New("name required")
	}
	if c.User == "" {
		return errors.New("user required")
	}
	for field, v := range map[string]string{
		"conn_max_lifetime": c.ConnMaxLifetime,
		"conn_timeout":      c.ConnTimeout,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", field, err)
		}
	}
	return nil
}

// Merge copies every non-zero field of overlay.
func (c *Config) Merge(overlay *Config) {
	setString(&c.Host, overlay.Host)
	setString(&c.Name, overlay.Name)
	setString(&c.User, overlay.User)
	setString(&c.Password, overlay.Password)
	setString(&c.SSLMode, overlay.SSLMode)
	setString(&c.ConnMaxLifetime, overlay.ConnMaxLifetime)
	setString(&c.ConnTimeout, overlay.ConnTimeout)
	setInt(&c.Port, overlay.Port)
	setInt(&c.MaxOpenConns, overlay.MaxOpenConns)
	setInt(&c.MaxIdleConns, overlay.MaxIdleConns)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func (c *Config) Dsn() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Name, c.User, c.Password, c.SSLMode)
}

// URL is the postgres:// form of Dsn, as schema migration drivers expect.
func (c *Config) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

func (c *Config) ConnMaxLifetimeDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnMaxLifetime)
	return d
}

func (c *Config) ConnTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnTimeout)
	return d
}
