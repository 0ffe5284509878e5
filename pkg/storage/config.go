package storage

import (
	"errors"

	"github.com/JaimeStill/segmenter/pkg/envvar"
)

// Config points at one Azure Blob container. MaxListSize is the List page
// size used when a caller does not choose one.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	MaxListSize      int32  `toml:"max_list_size"`
}

type Env struct {
	ContainerName    string
	ConnectionString string
	MaxListSize      string
}

func (c *Config) Finalize(env *Env) error {
	if c.ContainerName == "" {
		c.ContainerName = "segmentations"
	}
	size := int(c.MaxListSize)
	if env != nil {
		envvar.String(&c.ContainerName, env.ContainerName)
		envvar.String(&c.ConnectionString, env.ConnectionString)
		envvar.Int(&size, env.MaxListSize)
	}
	if size <= 0 {
		size = 50
	}
	c.MaxListSize = int32(min(size, int(MaxListCap)))

	if c.ConnectionString == "" {
		return errors.New("connection_string required")
	}
	return nil
}

func (c *Config) Merge(overlay *Config) {
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.MaxListSize != 0 {
		c.MaxListSize = overlay.MaxListSize
	}
}
