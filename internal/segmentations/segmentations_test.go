package segmentations_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/segmenter/internal/enrichment"
	"github.com/JaimeStill/segmenter/internal/model"
	"github.com/JaimeStill/segmenter/internal/prompts"
	"github.com/JaimeStill/segmenter/internal/segmentations"
	"github.com/JaimeStill/segmenter/internal/segmenter"
)

func ptr[T any](v T) *T { return &v }

type mockPipeline struct {
	segmentFn func(ctx context.Context, req segmenter.Request) (*segmenter.Segmentation, error)
}

func (m *mockPipeline) Segment(ctx context.Context, req segmenter.Request) (*segmenter.Segmentation, error) {
	return m.segmentFn(ctx, req)
}

func (m *mockPipeline) Defaults() segmenter.Options {
	return segmenter.Options{PageSize: 5, MaxPages: 10, UseCache: true}
}

type stageTexts map[prompts.Stage]string

func (s stageTexts) Instructions(_ context.Context, stage prompts.Stage) (string, error) {
	text, ok := s[stage]
	if !ok {
		return "", prompts.ErrInvalidStage
	}
	return text, nil
}

func newRunner(p *mockPipeline, instructions segmentations.Instructions) *segmentations.Runner {
	return segmentations.NewRunner(p, instructions, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sub(id int, name string, source *int, minutes int) segmenter.Subactivity {
	return segmenter.Subactivity{
		ID:                    id,
		Name:                  name,
		Description:           segmenter.DefaultDescription,
		Type:                  segmenter.TypeOperational,
		AverageMinutes:        minutes,
		EstimatedTotalMinutes: minutes,
		Automatable:           segmenter.AutomatableNo,
		SourceID:              source,
	}
}

func TestCommandValidate(t *testing.T) {
	cmd := segmentations.Command{}
	if err := cmd.Validate(); !errors.Is(err, segmentations.ErrNoData) {
		t.Errorf("empty data error = %v, want ErrNoData", err)
	}

	cmd = segmentations.Command{Data: []enrichment.Row{{"Actividad": "x"}}}
	if err := cmd.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if cmd.ProcessName != segmentations.DefaultProcessName {
		t.Errorf("process name = %q, want default", cmd.ProcessName)
	}
}

func TestCommandOptions(t *testing.T) {
	defaults := segmenter.Options{PageSize: 5, MaxPages: 10}

	tests := []struct {
		name string
		cmd  segmentations.Command
		want segmenter.Options
	}{
		{
			"unset takes defaults and caches",
			segmentations.Command{},
			segmenter.Options{PageSize: 5, MaxPages: 10, UseCache: true},
		},
		{
			"explicit values",
			segmentations.Command{PageSize: ptr(12), MaxPages: ptr(3), UseCache: ptr(false), ForceReclassify: true},
			segmenter.Options{PageSize: 12, MaxPages: 3, UseCache: false, ForceReclassify: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.cmd.Options(defaults)); diff != "" {
				t.Errorf("Options mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunnerRun(t *testing.T) {
	rows := []enrichment.Row{
		{"Actividad": "Preparar pedido", "Descripción": "Arma el pedido", "Tiempo Estándar": float64(60), "Clasificación Lean": "Valor"},
		{"Actividad": "Despachar pedido", "Descripción": "Entrega al transporte", "Tiempo Estándar": float64(40)},
	}

	var captured segmenter.Request
	pipeline := &mockPipeline{
		segmentFn: func(_ context.Context, req segmenter.Request) (*segmenter.Segmentation, error) {
			captured = req
			return &segmenter.Segmentation{
				Process: req.Process,
				Subactivities: []segmenter.Subactivity{
					sub(1, "Preparar", ptr(1), 70),
					sub(2, "Empacar", ptr(1), 30),
					sub(3, "Despachar pedido", ptr(2), 12),
				},
				Declared:   3,
				Pages:      1,
				ModelCalls: 1,
				Model:      "gemini-2.5-flash",
			}, nil
		},
	}

	texts := stageTexts{prompts.StageDecompose: "reglas", prompts.StageFormat: "formato"}
	got, err := newRunner(pipeline, texts).Run(context.Background(), segmentations.Command{
		Data:     rows,
		PageSize: ptr(8),
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	wantReq := segmenter.Request{
		Process: segmentations.DefaultProcessName,
		AsIs:    "1. Preparar pedido: Arma el pedido\n2. Despachar pedido: Entrega al transporte",
		Rules:   "reglas",
		Format:  "formato",
		Options: segmenter.Options{PageSize: 8, MaxPages: 10, UseCache: true},
	}
	if diff := cmp.Diff(wantReq, captured); diff != "" {
		t.Errorf("pipeline request mismatch (-want +got):\n%s", diff)
	}

	if !got.Success || len(got.SegmentedData) != 3 {
		t.Fatalf("result = %+v", got)
	}
	if len(got.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", got.Warnings)
	}

	times := []float64{42, 18, 40}
	for i, want := range times {
		if st := got.SegmentedData[i].StandardTime; st == nil || *st != want {
			t.Errorf("record %d tiempo_estandar = %v, want %v", i+1, st, want)
		}
	}
	if got.SegmentedData[0].Classification != "Valor" {
		t.Errorf("classification = %q, want Valor", got.SegmentedData[0].Classification)
	}
	if got.SegmentedData[2].Description != "Entrega al transporte" {
		t.Errorf("description = %q, want source description", got.SegmentedData[2].Description)
	}

	wantStats := segmentations.Stats{Declared: 3, Pages: 1, ModelCalls: 1, Model: "gemini-2.5-flash"}
	if diff := cmp.Diff(wantStats, got.Stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	if got.Summary.TotalSubactivities != 3 || len(got.Segments) != 1 {
		t.Errorf("summary = %+v, segments = %+v", got.Summary, got.Segments)
	}
}

func TestRunnerWarnings(t *testing.T) {
	rows := make([]enrichment.Row, 5)
	for i := range rows {
		rows[i] = enrichment.Row{"Actividad": fmt.Sprintf("Paso %d", i+1)}
	}

	pipeline := &mockPipeline{
		segmentFn: func(context.Context, segmenter.Request) (*segmenter.Segmentation, error) {
			return &segmenter.Segmentation{
				Subactivities: []segmenter.Subactivity{sub(1, "Paso 1", nil, 5), sub(2, "Paso 2", nil, 5)},
				Pages:         2,
				Abandoned:     true,
			}, nil
		},
	}

	got, err := newRunner(pipeline, nil).Run(context.Background(), segmentations.Command{Data: rows})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if len(got.Warnings) != 2 {
		t.Fatalf("warnings = %v, want count and abandonment", got.Warnings)
	}
	if !strings.Contains(got.Warnings[0], "input 5, output 2") {
		t.Errorf("count warning = %q", got.Warnings[0])
	}
	if !strings.Contains(got.Warnings[1], "abandoned") {
		t.Errorf("abandon warning = %q", got.Warnings[1])
	}
	if !got.Stats.Abandoned {
		t.Error("stats.abandoned = false")
	}
}

func TestRunnerErrors(t *testing.T) {
	rows := []enrichment.Row{{"Actividad": "x"}}

	t.Run("no data", func(t *testing.T) {
		p := &mockPipeline{segmentFn: func(context.Context, segmenter.Request) (*segmenter.Segmentation, error) {
			t.Fatal("pipeline called without data")
			return nil, nil
		}}
		_, err := newRunner(p, nil).Run(context.Background(), segmentations.Command{})
		if !errors.Is(err, segmentations.ErrNoData) {
			t.Errorf("error = %v, want ErrNoData", err)
		}
	})

	t.Run("pipeline failure", func(t *testing.T) {
		cause := fmt.Errorf("%w: %w", segmenter.ErrNoResult, model.ErrQuotaExceeded)
		p := &mockPipeline{segmentFn: func(context.Context, segmenter.Request) (*segmenter.Segmentation, error) {
			return nil, cause
		}}
		_, err := newRunner(p, nil).Run(context.Background(), segmentations.Command{Data: rows})
		if !errors.Is(err, segmenter.ErrNoResult) {
			t.Errorf("error = %v, want ErrNoResult", err)
		}
	})

	t.Run("prompt lookup failure", func(t *testing.T) {
		p := &mockPipeline{segmentFn: func(context.Context, segmenter.Request) (*segmenter.Segmentation, error) {
			t.Fatal("pipeline called after prompt failure")
			return nil, nil
		}}
		_, err := newRunner(p, stageTexts{}).Run(context.Background(), segmentations.Command{Data: rows})
		if !errors.Is(err, prompts.ErrInvalidStage) {
			t.Errorf("error = %v, want wrapped ErrInvalidStage", err)
		}
	})
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", segmentations.ErrNotFound, http.StatusNotFound},
		{"not completed", segmentations.ErrNotCompleted, http.StatusConflict},
		{"no data", segmentations.ErrNoData, http.StatusBadRequest},
		{"invalid request", segmentations.ErrInvalidRequest, http.StatusBadRequest},
		{"body too large", segmentations.ErrBodyTooLarge, http.StatusRequestEntityTooLarge},
		{"empty process", segmenter.ErrEmptyProcess, http.StatusBadRequest},
		{"no result", fmt.Errorf("%w: %w", segmenter.ErrNoResult, model.ErrQuotaExceeded), http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := segmentations.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	got := segmentations.FiltersFromQuery(url.Values{
		"status":  {"failed"},
		"process": {"compras"},
	})

	want := segmentations.Filters{Status: ptr("failed"), Process: ptr("compras")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FiltersFromQuery mismatch (-want +got):\n%s", diff)
	}
}
