// Package segmenter decomposes an AS-IS process description into classified
// subactivities by paging through a generative model.
//
// Each page requests a bounded id window, recovers JSON from the raw reply,
// salvages and validates it, and accumulates records until the model signals
// the end of data, the declared total is met, or the page ceiling is hit.
// Failures are retried with backoff, fall back to the next configured model,
// and finally abandon pagination with whatever was collected.
package segmenter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/JaimeStill/segmenter/internal/model"
)

// Options are the caller-controlled pagination parameters.
// Zero PageSize or MaxPages take the configured defaults.
type Options struct {
	PageSize        int  `json:"page_size"`
	MaxPages        int  `json:"max_pages"`
	UseCache        bool `json:"use_cache"`
	ForceReclassify bool `json:"force_reclassify"`
}

// Request is one segmentation run. Rules and Format override the built-in
// prompt blocks when non-empty.
type Request struct {
	Process string
	AsIs    string
	Rules   string
	Format  string
	Options Options
}

// System runs the segmentation pipeline.
type System interface {
	Segment(ctx context.Context, req Request) (*Segmentation, error)
	// Defaults returns the options applied when a caller leaves them unset.
	Defaults() Options
}

type pipeline struct {
	cfg     *Config
	backend model.System
	cache   Cache
	metrics *Metrics
	logger  *slog.Logger
	group   singleflight.Group

	mu      sync.Mutex
	flights map[string]*flight
}

// New creates the pipeline. A nil cache selects an in-memory cache; a nil
// metrics value disables instrumentation.
func New(cfg *Config, backend model.System, cache Cache, metrics *Metrics, logger *slog.Logger) System {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &pipeline{
		cfg:     cfg,
		backend: backend,
		cache:   cache,
		metrics: metrics,
		logger:  logger.With("system", "segmenter"),
		flights: make(map[string]*flight),
	}
}

func (p *pipeline) Defaults() Options {
	return Options{
		PageSize: p.cfg.PageSize,
		MaxPages: p.cfg.MaxPages,
		UseCache: true,
	}
}

func (p *pipeline) Segment(ctx context.Context, req Request) (*Segmentation, error) {
	if strings.TrimSpace(req.AsIs) == "" {
		return nil, ErrEmptyProcess
	}

	opts, err := p.resolve(req.Options)
	if err != nil {
		return nil, err
	}
	req.Options = opts

	if !opts.UseCache || opts.ForceReclassify {
		return p.execute(ctx, req)
	}

	// Identical cached runs share one execution; each caller gets its own copy.
	key := flightKey(req)
	f := p.join(ctx, key)
	defer p.leave(key, f)

	ch := p.group.DoChan(key, func() (any, error) {
		return p.execute(f.ctx, req)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			p.logger.DebugContext(ctx, "joined in-flight run", "process", req.Process)
		}
		return res.Val.(*Segmentation).clone(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// flight is the context of a shared execution. It is detached from any one
// caller and cancelled once every waiting caller has left.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func (p *pipeline) join(ctx context.Context, key string) *flight {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, ok := p.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		p.flights[key] = f
	}
	f.waiters++
	return f
}

func (p *pipeline) leave(key string, f *flight) {
	p.mu.Lock()
	defer p.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	delete(p.flights, key)
	// later callers start fresh instead of joining a cancelled execution
	p.group.Forget(key)
}

func (p *pipeline) resolve(opts Options) (Options, error) {
	if opts.PageSize == 0 {
		opts.PageSize = p.cfg.PageSize
	}
	if opts.MaxPages == 0 {
		opts.MaxPages = p.cfg.MaxPages
	}
	if opts.PageSize < MinPageSize || opts.PageSize > MaxPageSize {
		return opts, fmt.Errorf("%w: page_size must be between %d and %d", ErrInvalidOptions, MinPageSize, MaxPageSize)
	}
	if opts.MaxPages < MinMaxPages || opts.MaxPages > MaxMaxPages {
		return opts, fmt.Errorf("%w: max_pages must be between %d and %d", ErrInvalidOptions, MinMaxPages, MaxMaxPages)
	}
	return opts, nil
}

func (p *pipeline) execute(ctx context.Context, req Request) (*Segmentation, error) {
	started := time.Now()

	ctrl := NewController(p.backend, p.backend.Models(), RetryPolicy{
		MaxRetries: p.cfg.MaxRetries,
		BaseDelay:  p.cfg.BaseDelayDuration(),
		MaxBackoff: p.cfg.MaxBackoffDuration(),
	})

	logger := p.logger.With("process", prefix(req.Process))
	m := newMachine(req, req.Options, p.cache, ctrl, p.metrics, logger)

	if err := m.run(ctx); err != nil {
		p.metrics.run("failed")
		logger.ErrorContext(ctx, "segmentation failed",
			"pages", m.pageIndex,
			"model_calls", m.modelCalls,
			"error", err,
		)
		return nil, err
	}

	subs := FixDependencies(Normalize(m.collected))
	if len(subs) == 0 {
		p.metrics.run("empty")
		return nil, fmt.Errorf("%w: model returned no subactivities", ErrNoResult)
	}

	outcome := "completed"
	if m.abandoned {
		outcome = "partial"
	}
	p.metrics.run(outcome)

	logger.InfoContext(ctx, "segmentation complete",
		"outcome", outcome,
		"subactivities", len(subs),
		"declared", m.declared,
		"pages", m.pageIndex,
		"model_calls", m.modelCalls,
		"cache_hits", m.cacheHits,
		"model", ctrl.Model(),
		"duration", time.Since(started),
	)

	return &Segmentation{
		Process:       req.Process,
		Subactivities: subs,
		Declared:      m.declared,
		Pages:         m.pageIndex,
		ModelCalls:    m.modelCalls,
		CacheHits:     m.cacheHits,
		Model:         ctrl.Model(),
		Abandoned:     m.abandoned,
	}, nil
}

func flightKey(req Request) string {
	return fmt.Sprintf("%s|%s|%s|%d|%d",
		prefix(req.Process),
		ContentHash(req.AsIs),
		ContentHash(req.Rules+"\x00"+req.Format),
		req.Options.PageSize,
		req.Options.MaxPages,
	)
}
