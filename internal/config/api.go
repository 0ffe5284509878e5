package config

import (
	"fmt"

	"github.com/JaimeStill/segmenter/pkg/envvar"
	"github.com/JaimeStill/segmenter/pkg/formatting"
	"github.com/JaimeStill/segmenter/pkg/middleware"
	"github.com/JaimeStill/segmenter/pkg/pagination"
)

const defaultMaxBodySize = "10MB"

// APIConfig holds the mount point, request limits, CORS and list paging of
// the HTTP API.
type APIConfig struct {
	BasePath    string                `toml:"base_path"`
	MaxBodySize string                `toml:"max_body_size"`
	CORS        middleware.CORSConfig `toml:"cors"`
	Pagination  pagination.Config     `toml:"pagination"`
}

type APIEnv struct {
	BasePath    string
	MaxBodySize string
	CORS        *middleware.CORSEnv
	Pagination  *pagination.ConfigEnv
}

// MaxBodySizeBytes is the segmentation request body limit.
func (c *APIConfig) MaxBodySizeBytes() int64 {
	if size, err := formatting.ParseBytes(c.MaxBodySize); err == nil {
		return size
	}
	size, _ := formatting.ParseBytes(defaultMaxBodySize)
	return size
}

func (c *APIConfig) Finalize(env *APIEnv) error {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = defaultMaxBodySize
	}

	var (
		corsEnv       *middleware.CORSEnv
		paginationEnv *pagination.ConfigEnv
	)
	if env != nil {
		envvar.String(&c.BasePath, env.BasePath)
		envvar.String(&c.MaxBodySize, env.MaxBodySize)
		corsEnv, paginationEnv = env.CORS, env.Pagination
	}

	if _, err := formatting.ParseBytes(c.MaxBodySize); err != nil {
		return fmt.Errorf("invalid max_body_size: %w", err)
	}
	if err := section("cors", c.CORS.Finalize(corsEnv)); err != nil {
		return err
	}
	return section("pagination", c.Pagination.Finalize(paginationEnv))
}

func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxBodySize != "" {
		c.MaxBodySize = overlay.MaxBodySize
	}
	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}
