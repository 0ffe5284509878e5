package enrichment_test

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/segmenter/internal/enrichment"
	"github.com/JaimeStill/segmenter/internal/segmenter"
)

func ptr[T any](v T) *T { return &v }

func sub(id int, name string, source *int, minutes int) segmenter.Subactivity {
	return segmenter.Subactivity{
		ID:                    id,
		Name:                  name,
		Description:           "Generada",
		Type:                  segmenter.TypeOperational,
		AverageMinutes:        minutes,
		EstimatedTotalMinutes: minutes,
		Automatable:           segmenter.AutomatableNo,
		SourceID:              source,
	}
}

func TestSourcesFromRows(t *testing.T) {
	rows := []enrichment.Row{
		{
			"Actividad":                  "Recibir solicitud",
			"Descripción":                "Recibe la solicitud",
			"Cargo que ejecuta la tarea": "Asistente",
			"Clasificación Lean":         "Valor",
			"Tipo Desperdicio":           "Ninguno",
			"Justificación":              "Necesaria",
			"Tiempo Estándar":            float64(60),
			"Tarea Automatizada":         "sí",
		},
		{
			"name":         "Approve",
			"description":  "Approves",
			"responsible":  "Manager",
			"Tiempo Menor": float64(8),
			"Tiempo Mayor": "15",
			"time":         "12,5",
		},
		{
			"actividad":       "Archivar",
			"Tiempo Promedio": float64(4),
			"automated":       "no",
		},
		{
			"actividad": "",
			"tiempo":    float64(0),
		},
	}

	got := enrichment.SourcesFromRows(rows)

	want := []enrichment.Source{
		{
			Index:          1,
			ID:             "A1",
			Name:           "Recibir solicitud",
			Description:    "Recibe la solicitud",
			Responsible:    "Asistente",
			Classification: "Valor",
			WasteType:      "Ninguno",
			Justification:  "Necesaria",
			Automated:      true,
			Time:           ptr(60.0),
		},
		{
			Index:       2,
			ID:          "A2",
			Name:        "Approve",
			Description: "Approves",
			Responsible: "Manager",
			Time:        ptr(12.5),
			Min:         ptr(8.0),
			Max:         ptr(15.0),
		},
		{
			Index:   3,
			ID:      "A3",
			Name:    "Archivar",
			Time:    ptr(4.0),
			Average: ptr(4.0),
		},
		{Index: 4, ID: "A4"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SourcesFromRows mismatch (-want +got):\n%s", diff)
	}
}

func TestAsIsText(t *testing.T) {
	rows := []enrichment.Row{
		{"Actividad": "Recibir", "Descripción": "Recibe la solicitud"},
		{"descripcion": "Sin nombre propio"},
		{"name": float64(42)},
	}

	want := "1. Recibir: Recibe la solicitud\n2. Actividad 2: Sin nombre propio\n3. 42: "
	if got := enrichment.AsIsText(rows); got != want {
		t.Errorf("AsIsText = %q, want %q", got, want)
	}

	many := make([]enrichment.Row, 60)
	for i := range many {
		many[i] = enrichment.Row{"Actividad": "x"}
	}
	lines := strings.Split(enrichment.AsIsText(many), "\n")
	if len(lines) != enrichment.MaxAsIsRows {
		t.Errorf("lines = %d, want %d", len(lines), enrichment.MaxAsIsRows)
	}
}

func TestCountWarning(t *testing.T) {
	tests := []struct {
		input, output int
		warn          bool
	}{
		{5, 5, false},
		{5, 8, false},
		{5, 4, true},
		{5, 9, true},
	}

	for _, tt := range tests {
		got := enrichment.CountWarning(tt.input, tt.output)
		if (got != "") != tt.warn {
			t.Errorf("CountWarning(%d, %d) = %q", tt.input, tt.output, got)
		}
	}
}

func TestEnrichDistributesSplitTime(t *testing.T) {
	sources := enrichment.SourcesFromRows([]enrichment.Row{
		{"Actividad": "Preparar pedido", "Tiempo Estándar": float64(60)},
		{"Actividad": "Despachar pedido", "Tiempo Estándar": float64(40)},
	})

	records := enrichment.FromSubactivities([]segmenter.Subactivity{
		sub(1, "Preparar", ptr(1), 70),
		sub(2, "Empacar", ptr(1), 30),
		sub(3, "Cargar", ptr(2), 50),
		sub(4, "Entregar", ptr(2), 50),
	})

	got := enrichment.DefaultMatcher().Enrich(records, sources)

	want := []float64{42, 18, 20, 20}
	for i, w := range want {
		if got[i].StandardTime == nil || *got[i].StandardTime != w {
			t.Errorf("record %d tiempo_estandar = %v, want %v", i+1, got[i].StandardTime, w)
		}
	}

	sum := *got[0].StandardTime + *got[1].StandardTime
	if math.Abs(sum-60) > 0.01 {
		t.Errorf("split of 60 sums to %v", sum)
	}
}

func TestEnrichUnevenSplitConservesTime(t *testing.T) {
	sources := enrichment.SourcesFromRows([]enrichment.Row{
		{"Actividad": "Revisar", "Tiempo Estándar": float64(10)},
	})
	records := enrichment.FromSubactivities([]segmenter.Subactivity{
		sub(1, "a", ptr(1), 1),
		sub(2, "b", ptr(1), 1),
		sub(3, "c", ptr(1), 1),
	})

	got := enrichment.DefaultMatcher().Enrich(records, sources)

	var sum float64
	for _, r := range got {
		sum += *r.StandardTime
	}
	if math.Abs(sum-10) > 0.01 {
		t.Errorf("split sums to %v, want 10", sum)
	}
}

func TestEnrichManyChildrenConserveTime(t *testing.T) {
	tests := []struct {
		name     string
		original float64
		minutes  []int
	}{
		{"seven equal children of one minute", 1, []int{1, 1, 1, 1, 1, 1, 1}},
		{"four uneven children", 13.37, []int{3, 7, 11, 2}},
		{"six children of zero estimate", 25, []int{0, 0, 0, 0, 0, 0}},
		{"eleven children", 100, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sources := enrichment.SourcesFromRows([]enrichment.Row{
				{"Actividad": "Origen", "Tiempo Estándar": tt.original},
			})

			subs := make([]segmenter.Subactivity, len(tt.minutes))
			for i, m := range tt.minutes {
				subs[i] = sub(i+1, fmt.Sprintf("Paso %d", i+1), ptr(1), m)
			}

			got := enrichment.DefaultMatcher().Enrich(enrichment.FromSubactivities(subs), sources)

			var sum float64
			for _, r := range got {
				if r.StandardTime == nil {
					t.Fatalf("record %d has no tiempo_estandar", r.ID)
				}
				sum += *r.StandardTime
			}
			if math.Abs(sum-tt.original) > 0.01 {
				t.Errorf("split sums to %v, want %v", sum, tt.original)
			}
		})
	}
}

func TestEnrichOneToOne(t *testing.T) {
	sources := enrichment.SourcesFromRows([]enrichment.Row{
		{
			"Actividad":          "Aprobar gasto",
			"Clasificación Lean": "Valor",
			"Justificación":      "Control",
			"responsable":        "Gerente",
			"Tiempo Estándar":    float64(25),
		},
		{"Actividad": "Archivar"},
	})

	records := enrichment.FromSubactivities([]segmenter.Subactivity{
		sub(1, "Aprobar gasto", ptr(1), 10),
		sub(2, "Archivar", ptr(2), 7),
	})
	records[0].Classification = "Desperdicio"

	got := enrichment.DefaultMatcher().Enrich(records, sources)

	if *got[0].StandardTime != 25 {
		t.Errorf("1:1 time = %v, want 25", *got[0].StandardTime)
	}
	if got[0].Classification != "Desperdicio" {
		t.Errorf("existing classification overwritten: %q", got[0].Classification)
	}
	if got[0].Justification != "Control" || got[0].Responsible != "Gerente" {
		t.Errorf("fields not copied: %+v", got[0])
	}
	if *got[1].StandardTime != 7 {
		t.Errorf("time without original = %v, want model estimate 7", *got[1].StandardTime)
	}
}

func TestEnrichIdempotent(t *testing.T) {
	sources := enrichment.SourcesFromRows([]enrichment.Row{
		{"Actividad": "Preparar pedido", "Tiempo Estándar": float64(60), "Clasificación Lean": "Valor"},
		{"Actividad": "Despachar pedido", "Tiempo Estándar": float64(40)},
	})
	records := enrichment.FromSubactivities([]segmenter.Subactivity{
		sub(1, "Preparar", ptr(1), 70),
		sub(2, "Empacar", ptr(1), 30),
		sub(3, "Despachar pedido", nil, 12),
	})
	snapshot := enrichment.FromSubactivities([]segmenter.Subactivity{
		sub(1, "Preparar", ptr(1), 70),
		sub(2, "Empacar", ptr(1), 30),
		sub(3, "Despachar pedido", nil, 12),
	})

	m := enrichment.DefaultMatcher()
	once := m.Enrich(records, sources)
	twice := m.Enrich(once, sources)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second pass changed records (-once +twice):\n%s", diff)
	}
	if diff := cmp.Diff(snapshot, records); diff != "" {
		t.Errorf("input modified (-before +after):\n%s", diff)
	}
}

func TestMatcherByName(t *testing.T) {
	sources := enrichment.SourcesFromRows([]enrichment.Row{
		{"Actividad": "Recibir solicitud de compra"},
		{"Actividad": "Aprobar"},
		{"Actividad": "Emitir orden de pago"},
	})

	tests := []struct {
		name string
		want int
	}{
		{"recibir solicitud de compra", 1},
		{"  APROBAR  ", 2},
		{"Aprobar presupuesto", 2},
		{"emitir orden", 3},
		{"orden pago emitir", 3},
		{"Llamar proveedor", 0},
	}

	m := enrichment.DefaultMatcher()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := enrichment.Record{Subactivity: segmenter.Subactivity{Name: tt.name}}
			got := m.Match(rec, sources)

			switch {
			case tt.want == 0 && got != nil:
				t.Errorf("matched %q, want no match", got.Name)
			case tt.want != 0 && (got == nil || got.Index != tt.want):
				t.Errorf("match = %+v, want source %d", got, tt.want)
			}
		})
	}
}

func TestMatcherThreshold(t *testing.T) {
	sources := enrichment.SourcesFromRows([]enrichment.Row{
		{"Actividad": "validar datos del cliente nuevo"},
	})
	rec := enrichment.Record{Subactivity: segmenter.Subactivity{Name: "datos cliente"}}

	// overlap is 2/5
	if got := enrichment.DefaultMatcher().Match(rec, sources); got == nil || got.Index != 1 {
		t.Errorf("default threshold: match = %+v, want source 1", got)
	}
	if got := (enrichment.Matcher{Threshold: 0.5}).Match(rec, sources); got != nil {
		t.Errorf("threshold 0.5: matched %q, want no match", got.Name)
	}
}

func TestSummarize(t *testing.T) {
	records := enrichment.FromSubactivities([]segmenter.Subactivity{
		{ID: 1, Type: segmenter.TypeOperational, Automatable: "Si"},
		{ID: 2, Type: segmenter.TypeOperational, Automatable: "sí"},
		{ID: 3, Type: segmenter.TypeCognitive, Automatable: "Posible"},
		{ID: 4, Type: "", Automatable: "No"},
	})

	got := enrichment.Summarize(records)

	want := enrichment.Summary{
		TotalSubactivities: 4,
		Types: map[string]int{
			segmenter.TypeOperational:   2,
			segmenter.TypeCognitive:     1,
			enrichment.TypeUndetermined: 1,
		},
		PercentOperational:  50,
		PercentCognitive:    25,
		Automatable:         2,
		Possible:            1,
		NotAutomatable:      1,
		Value:               3,
		PercentValue:        75,
		Undetermined:        1,
		PercentUndetermined: 25,
		Recommendations:     3,
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize mismatch (-want +got):\n%s", diff)
	}
}

func TestSegments(t *testing.T) {
	records := enrichment.FromSubactivities([]segmenter.Subactivity{
		{ID: 1, Type: segmenter.TypeCognitive, EstimatedTotalMinutes: 10},
		{ID: 2, Type: segmenter.TypeOperational, EstimatedTotalMinutes: 5},
		{ID: 3, Type: segmenter.TypeCognitive, EstimatedTotalMinutes: 7},
		{ID: 4, Type: "", EstimatedTotalMinutes: 3},
	})

	want := []enrichment.Segment{
		{ID: 0, Name: "Cognitiva", Description: "Actividades de tipo Cognitiva", ActivityCount: 2, TimeTotal: 17},
		{ID: 1, Name: "Operativa", Description: "Actividades de tipo Operativa", ActivityCount: 1, TimeTotal: 5},
	}

	if diff := cmp.Diff(want, enrichment.Segments(records)); diff != "" {
		t.Errorf("Segments mismatch (-want +got):\n%s", diff)
	}
}
