package segmentations

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/segmenter/internal/enrichment"
	"github.com/JaimeStill/segmenter/internal/prompts"
	"github.com/JaimeStill/segmenter/internal/segmenter"
)

// Instructions resolves the prompt text in effect for a stage.
type Instructions interface {
	Instructions(ctx context.Context, stage prompts.Stage) (string, error)
}

// Runner turns a validated command into a Result without persisting it.
type Runner struct {
	pipeline     segmenter.System
	instructions Instructions
	matcher      enrichment.Matcher
	logger       *slog.Logger
}

// NewRunner creates a Runner. A nil instructions source uses the built-in
// prompt blocks.
func NewRunner(pipeline segmenter.System, instructions Instructions, logger *slog.Logger) *Runner {
	return &Runner{
		pipeline:     pipeline,
		instructions: instructions,
		matcher:      enrichment.DefaultMatcher(),
		logger:       logger.With("system", "segmentations"),
	}
}

// Options resolves cmd's options against the pipeline defaults.
func (r *Runner) Options(cmd Command) segmenter.Options {
	return cmd.Options(r.pipeline.Defaults())
}

// Run segments cmd.Data and reconciles the output with the source rows.
func (r *Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rules, format, err := r.overrides(ctx)
	if err != nil {
		return nil, err
	}

	seg, err := r.pipeline.Segment(ctx, segmenter.Request{
		Process: cmd.ProcessName,
		AsIs:    enrichment.AsIsText(cmd.Data),
		Rules:   rules,
		Format:  format,
		Options: r.Options(cmd),
	})
	if err != nil {
		return nil, err
	}

	var warnings []string
	if w := enrichment.CountWarning(len(cmd.Data), len(seg.Subactivities)); w != "" {
		r.logger.WarnContext(ctx, w, "process", cmd.ProcessName)
		warnings = append(warnings, w)
	}
	if seg.Abandoned {
		warnings = append(warnings, fmt.Sprintf(
			"pagination abandoned after %d pages; result is partial", seg.Pages,
		))
	}

	records := r.matcher.Enrich(
		enrichment.FromSubactivities(seg.Subactivities),
		enrichment.SourcesFromRows(cmd.Data),
	)

	return &Result{
		Success:       true,
		ProcessName:   cmd.ProcessName,
		SegmentedData: records,
		Segments:      enrichment.Segments(records),
		Summary:       enrichment.Summarize(records),
		Warnings:      warnings,
		Stats: Stats{
			Declared:   seg.Declared,
			Pages:      seg.Pages,
			ModelCalls: seg.ModelCalls,
			CacheHits:  seg.CacheHits,
			Model:      seg.Model,
			Abandoned:  seg.Abandoned,
		},
	}, nil
}

func (r *Runner) overrides(ctx context.Context) (rules, format string, err error) {
	if r.instructions == nil {
		return "", "", nil
	}
	if rules, err = r.instructions.Instructions(ctx, prompts.StageDecompose); err != nil {
		return "", "", fmt.Errorf("resolve decompose prompt: %w", err)
	}
	if format, err = r.instructions.Instructions(ctx, prompts.StageFormat); err != nil {
		return "", "", fmt.Errorf("resolve format prompt: %w", err)
	}
	return rules, format, nil
}
