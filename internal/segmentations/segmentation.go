// Package segmentations implements the segmentation run domain.
// A run takes uploaded AS-IS rows, segments them through the pipeline,
// reconciles the output with the source rows, and records the run with its
// source and result documents in blob storage.
package segmentations

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/segmenter/internal/enrichment"
	"github.com/JaimeStill/segmenter/internal/segmenter"
)

// DefaultProcessName names the process when a request omits it.
const DefaultProcessName = "Proceso de negocio"

// Run states.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is the persisted record of one segmentation.
type Run struct {
	ID               uuid.UUID  `json:"id"`
	ProcessName      string     `json:"process_name"`
	ContentHash      string     `json:"content_hash"`
	SourceCount      int        `json:"source_count"`
	PageSize         int        `json:"page_size"`
	MaxPages         int        `json:"max_pages"`
	Status           string     `json:"status"`
	SubactivityCount *int       `json:"subactivity_count"`
	Pages            *int       `json:"pages"`
	ModelCalls       *int       `json:"model_calls"`
	CacheHits        *int       `json:"cache_hits"`
	Model            *string    `json:"model"`
	Abandoned        bool       `json:"abandoned"`
	Error            *string    `json:"error"`
	StorageKey       string     `json:"storage_key"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at"`
}

// Command is a segmentation request. Nil options take the pipeline defaults;
// UseCache defaults to true.
type Command struct {
	ProcessName     string           `json:"proceso_general"`
	Data            []enrichment.Row `json:"data"`
	PageSize        *int             `json:"page_size,omitempty"`
	MaxPages        *int             `json:"max_pages,omitempty"`
	UseCache        *bool            `json:"use_cache,omitempty"`
	ForceReclassify bool             `json:"force_reclassify,omitempty"`
}

// Validate rejects commands without rows and fills the default process name.
func (c *Command) Validate() error {
	if len(c.Data) == 0 {
		return ErrNoData
	}
	if c.ProcessName == "" {
		c.ProcessName = DefaultProcessName
	}
	return nil
}

// Options resolves the pipeline options against defaults.
func (c Command) Options(defaults segmenter.Options) segmenter.Options {
	opts := defaults
	if c.PageSize != nil {
		opts.PageSize = *c.PageSize
	}
	if c.MaxPages != nil {
		opts.MaxPages = *c.MaxPages
	}
	opts.UseCache = true
	if c.UseCache != nil {
		opts.UseCache = *c.UseCache
	}
	opts.ForceReclassify = c.ForceReclassify
	return opts
}

// Stats reports how the pipeline produced a result.
type Stats struct {
	Declared   int    `json:"numero_subactividades"`
	Pages      int    `json:"pages"`
	ModelCalls int    `json:"model_calls"`
	CacheHits  int    `json:"cache_hits"`
	Model      string `json:"model"`
	Abandoned  bool   `json:"abandoned"`
}

// Result is the response to a segmentation request and the stored result document.
type Result struct {
	Success       bool                 `json:"success"`
	ProcessName   string               `json:"proceso_general"`
	SegmentedData []enrichment.Record  `json:"segmented_data"`
	Segments      []enrichment.Segment `json:"segments"`
	Summary       enrichment.Summary   `json:"summary"`
	Warnings      []string             `json:"warnings,omitempty"`
	Stats         Stats                `json:"stats"`
	Run           *Run                 `json:"run,omitempty"`
}
