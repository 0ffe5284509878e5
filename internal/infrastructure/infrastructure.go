// Package infrastructure builds the systems shared by every module: the
// lifecycle coordinator, logging, PostgreSQL, blob storage, the model
// backend and the metrics registry.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JaimeStill/segmenter/internal/config"
	"github.com/JaimeStill/segmenter/internal/model"
	"github.com/JaimeStill/segmenter/pkg/database"
	"github.com/JaimeStill/segmenter/pkg/lifecycle"
	"github.com/JaimeStill/segmenter/pkg/storage"
)

type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Model     model.System
	Metrics   *prometheus.Registry
}

// New constructs every system without connecting; Start registers their
// startup and shutdown hooks.
func New(cfg *config.Config) (*Infrastructure, error) {
	infra := &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    slog.New(slog.NewTextHandler(os.Stderr, nil)),
		Metrics:   NewRegistry(),
	}

	var err error
	if infra.Database, err = database.New(&cfg.Database, infra.Logger); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if infra.Storage, err = storage.New(&cfg.Storage, infra.Logger); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if infra.Model, err = model.New(&cfg.Model, infra.Logger); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	return infra, nil
}

// NewRegistry carries the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// WithLogger returns a shallow copy sharing every system but the logger.
func (i *Infrastructure) WithLogger(logger *slog.Logger) *Infrastructure {
	c := *i
	c.Logger = logger
	return &c
}

func (i *Infrastructure) Start() error {
	for _, s := range []struct {
		name string
		sys  interface {
			Start(*lifecycle.Coordinator) error
		}
	}{
		{"database", i.Database},
		{"storage", i.Storage},
	} {
		if err := s.sys.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("%s start: %w", s.name, err)
		}
	}
	return nil
}
