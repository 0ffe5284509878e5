package segmenter_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/segmenter/internal/segmenter"
)

func ptr[T any](v T) *T { return &v }

func fullRecord(id int) map[string]any {
	return map[string]any{
		"id":                        float64(id),
		"nombre":                    "Actividad",
		"descripcion":               "Descripción",
		"objetivo":                  "Objetivo",
		"tipo_actividad":            "Operativa",
		"dependencias":              nil,
		"tiempo_promedio_min":       float64(10),
		"tiempo_estimado_total_min": float64(10),
		"automatizable":             "No",
	}
}

func TestValidate(t *testing.T) {
	missing := fullRecord(2)
	delete(missing, "objetivo")

	tests := []struct {
		name     string
		envelope map[string]any
		want     bool
	}{
		{"nil", nil, false},
		{"no key", map[string]any{"proceso": "x"}, false},
		{"not a list", map[string]any{"subactividades": "x"}, false},
		{"empty list", map[string]any{"subactividades": []any{}}, true},
		{"complete", map[string]any{"subactividades": []any{fullRecord(1)}}, true},
		{"missing field", map[string]any{"subactividades": []any{fullRecord(1), missing}}, false},
		{"non-object element", map[string]any{"subactividades": []any{fullRecord(1), "x"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := segmenter.Validate(tt.envelope); got != tt.want {
				t.Errorf("Validate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSalvage(t *testing.T) {
	t.Run("fills defaults and position ids", func(t *testing.T) {
		envelope := map[string]any{
			"subactividades": []any{
				map[string]any{"nombre": "Recibir"},
				"basura",
				map[string]any{"id": float64(0), "tipo_actividad": "Cognitiva"},
			},
		}

		got := segmenter.Salvage(envelope)
		if !segmenter.Validate(got) {
			t.Fatalf("salvaged envelope does not validate: %v", got)
		}

		records := segmenter.Records(got)
		if len(records) != 2 {
			t.Fatalf("records = %d, want 2", len(records))
		}

		first := records[0]
		if first["id"] != 1 {
			t.Errorf("first id = %v, want 1", first["id"])
		}
		if first["nombre"] != "Recibir" {
			t.Errorf("first nombre = %v, want Recibir", first["nombre"])
		}
		if first["descripcion"] != "Sin descripción" {
			t.Errorf("first descripcion = %v", first["descripcion"])
		}
		if first["tiempo_promedio_min"] != 5 {
			t.Errorf("first tiempo_promedio_min = %v, want 5", first["tiempo_promedio_min"])
		}

		second := records[1]
		if second["id"] != 3 {
			t.Errorf("second id = %v, want 3 (position based)", second["id"])
		}
		if second["tipo_actividad"] != "Cognitiva" {
			t.Errorf("second tipo_actividad = %v, want Cognitiva", second["tipo_actividad"])
		}
		if second["automatizable"] != "No" {
			t.Errorf("second automatizable = %v, want No", second["automatizable"])
		}
	})

	t.Run("leaves complete records unchanged", func(t *testing.T) {
		record := fullRecord(4)
		want := fullRecord(4)
		want["sugerencia_automatizacion"] = nil

		got := segmenter.Salvage(map[string]any{"subactividades": []any{record}})
		if diff := cmp.Diff(want, segmenter.Records(got)[0]); diff != "" {
			t.Errorf("record changed (-want +got):\n%s", diff)
		}
	})

	t.Run("no list", func(t *testing.T) {
		envelope := map[string]any{"proceso": "x"}
		got := segmenter.Salvage(envelope)
		if segmenter.Validate(got) {
			t.Error("envelope without list should stay invalid")
		}
	})
}

func TestDeclared(t *testing.T) {
	tests := []struct {
		value any
		want  int
	}{
		{float64(5), 5},
		{5, 5},
		{float64(0), 0},
		{float64(-2), 0},
		{float64(2.5), 0},
		{"5", 0},
		{nil, 0},
	}

	for _, tt := range tests {
		got := segmenter.Declared(map[string]any{"numero_subactividades": tt.value})
		if got != tt.want {
			t.Errorf("Declared(%v) = %d, want %d", tt.value, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	records := []segmenter.Record{
		{
			"id":                        float64(1),
			"nombre":                    "Recibir solicitud",
			"descripcion":               "Recibe",
			"objetivo":                  "Registrar",
			"tipo_actividad":            "OPERATIVA",
			"dependencias":              float64(1),
			"tiempo_promedio_min":       "12",
			"tiempo_estimado_total_min": float64(0),
			"automatizable":             "sí",
			"sugerencia_automatizacion": "Formulario",
			"actividad_original_id":     float64(1),
			"extra":                     "ignored",
		},
		{
			"id":                        "abc",
			"nombre":                    "Analizar",
			"tipo_actividad":            "analitica",
			"dependencias":              float64(-3),
			"tiempo_promedio_min":       "mucho",
			"tiempo_estimado_total_min": float64(7.9),
			"automatizable":             "posible",
		},
		{
			"id":             float64(5),
			"nombre":         "Aprobar",
			"tipo_actividad": "Cognitiva",
			"dependencias":   "null",
			"automatizable":  "yes",
		},
	}

	want := []segmenter.Subactivity{
		{
			ID:                    1,
			Name:                  "Recibir solicitud",
			Description:           "Recibe",
			Objective:             "Registrar",
			Type:                  segmenter.TypeOperational,
			DependsOn:             nil,
			AverageMinutes:        12,
			EstimatedTotalMinutes: 1,
			Automatable:           segmenter.AutomatableYes,
			AutomationSuggestion:  ptr("Formulario"),
			SourceID:              ptr(1),
		},
		{
			ID:                    2,
			Name:                  "Analizar",
			Description:           "Sin descripción",
			Objective:             "Sin objetivo",
			Type:                  segmenter.TypeAnalytical,
			DependsOn:             ptr(1),
			AverageMinutes:        1,
			EstimatedTotalMinutes: 7,
			Automatable:           segmenter.AutomatablePossible,
		},
		{
			ID:                    5,
			Name:                  "Aprobar",
			Description:           "Sin descripción",
			Objective:             "Sin objetivo",
			Type:                  segmenter.TypeCognitive,
			AverageMinutes:        5,
			EstimatedTotalMinutes: 5,
			Automatable:           segmenter.AutomatableYes,
		},
	}

	got := segmenter.Normalize(records)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeUniqueIDsAcrossPages(t *testing.T) {
	pages := []map[string]any{
		{"subactividades": []any{map[string]any{}, map[string]any{}, map[string]any{}}},
		{"subactividades": []any{map[string]any{}, map[string]any{"id": float64(2)}}},
	}

	var records []segmenter.Record
	for _, page := range pages {
		records = append(records, segmenter.Records(segmenter.Salvage(page))...)
	}

	var got []int
	for _, s := range segmenter.Normalize(records) {
		got = append(got, s.ID)
	}

	want := []int{1, 2, 3, 4, 5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeRepeatedIDSkipsTaken(t *testing.T) {
	records := []segmenter.Record{
		{"id": float64(1)},
		{"id": float64(3)},
		{"id": float64(1)},
		{"id": float64(2)},
	}

	var got []int
	for _, s := range segmenter.Normalize(records) {
		got = append(got, s.ID)
	}

	want := []int{1, 3, 4, 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeSelfDependencyPointsAtPrevious(t *testing.T) {
	records := []segmenter.Record{
		{"id": float64(1), "dependencias": float64(1)},
		{"id": float64(2), "dependencias": nil},
		{"id": float64(3), "dependencias": float64(3)},
	}

	var got []*int
	for _, s := range segmenter.Normalize(records) {
		got = append(got, s.DependsOn)
	}

	want := []*int{nil, nil, ptr(2)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeTruncatesLongText(t *testing.T) {
	long := strings.Repeat("á", segmenter.MaxTextLength+50)

	got := segmenter.Normalize([]segmenter.Record{{"id": 1, "descripcion": long}})
	desc := got[0].Description

	if n := utf8.RuneCountInString(desc); n != segmenter.MaxTextLength+1 {
		t.Errorf("length = %d runes, want %d", n, segmenter.MaxTextLength+1)
	}
	if !strings.HasSuffix(desc, "…") {
		t.Error("truncated text should end with an ellipsis")
	}
}

func TestNormalizeCanonicalizesUnknownType(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ANALÍTICA", segmenter.TypeAnalytical},
		{"cognitiva ", segmenter.TypeCognitive},
		{"ESTRATÉGICA", "Estratégica"},
		{"Mixta", "Mixta"},
		{"", segmenter.TypeOperational},
	}

	for _, tt := range tests {
		got := segmenter.Normalize([]segmenter.Record{{"id": 1, "tipo_actividad": tt.input}})
		if got[0].Type != tt.want {
			t.Errorf("tipo %q = %q, want %q", tt.input, got[0].Type, tt.want)
		}
	}
}

func TestSalvagedPagesValidate(t *testing.T) {
	pages := []map[string]any{
		{"subactividades": []any{map[string]any{}}},
		{"subactividades": []any{map[string]any{"id": float64(3), "nombre": "x"}, 42}},
		{"subactividades": []any{fullRecord(1), map[string]any{"automatizable": "Si"}}},
	}

	for i, page := range pages {
		if !segmenter.Validate(segmenter.Salvage(page)) {
			t.Errorf("page %d: salvaged page does not validate", i)
		}
	}
}
