// Package api wires the prompts, segmentations and storage handlers into a
// single module mounted under the configured base path.
package api

import (
	"net/http"

	"github.com/JaimeStill/segmenter/internal/config"
	"github.com/JaimeStill/segmenter/internal/infrastructure"
	"github.com/JaimeStill/segmenter/internal/pagecache"
	"github.com/JaimeStill/segmenter/internal/prompts"
	"github.com/JaimeStill/segmenter/internal/segmentations"
	"github.com/JaimeStill/segmenter/internal/segmenter"
	"github.com/JaimeStill/segmenter/pkg/middleware"
	"github.com/JaimeStill/segmenter/pkg/module"
	"github.com/JaimeStill/segmenter/pkg/pagination"
	"github.com/JaimeStill/segmenter/pkg/routes"
)

// Runtime is the infrastructure as seen by the API, with an api-scoped
// logger and the settings its systems read.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Segmenter  segmenter.Config
}

func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: infra.WithLogger(infra.Logger.With("module", "api")),
		Pagination:     cfg.API.Pagination,
		Segmenter:      cfg.Segmenter,
	}
}

type Domain struct {
	Prompts       prompts.System
	Segmentations segmentations.System
}

// NewDomain builds the domain systems. Segmentation runs resolve prompt
// overrides through the prompts system.
func NewDomain(rt *Runtime) *Domain {
	db := rt.Database.Connection()
	promptSys := prompts.New(db, rt.Logger, rt.Pagination)

	var cache segmenter.Cache = segmenter.NewMemoryCache()
	if rt.Segmenter.Cache == segmenter.CachePostgres {
		cache = pagecache.New(db, rt.Logger)
	}

	pipeline := segmenter.New(&rt.Segmenter, rt.Model, cache, segmenter.NewMetrics(rt.Metrics), rt.Logger)
	runner := segmentations.NewRunner(pipeline, promptSys, rt.Logger)

	return &Domain{
		Prompts:       promptSys,
		Segmentations: segmentations.New(db, rt.Storage, runner, rt.Logger, rt.Pagination),
	}
}

func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	rt := NewRuntime(cfg, infra)
	domain := NewDomain(rt)

	groups := []routes.Group{
		domain.Prompts.Handler().Routes(),
		domain.Segmentations.Handler(cfg.API.MaxBodySizeBytes()).Routes(),
		newStorageHandler(rt.Storage, rt.Logger, cfg.Storage.MaxListSize).routes(),
	}

	mux := http.NewServeMux()
	for _, g := range groups {
		rt.Logger.Debug("registering routes", "base", cfg.API.BasePath, "patterns", g.Patterns())
	}
	routes.Register(mux, groups...)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(rt.Logger))
	return m, nil
}
