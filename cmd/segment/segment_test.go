package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	reply := "Claro, aquí está:\n```json\n" + `{
  "proceso": "Compras",
  "numero_subactividades": 2,
  "subactividades": [
    {"id": 1, "nombre": "Recibir", "tipo_actividad": "operativa", "actividad_original_id": 1},
    {"id": 2, "nombre": "Revisar", "dependencias": 7, "actividad_original_id": 1},
  ]
}` + "\n```"

	out, err := execute(t, reply, "parse")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	var report parseReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}

	if report.Strategy != "object_span" {
		t.Errorf("strategy = %q, want object_span", report.Strategy)
	}
	if !report.Valid || report.Declared != 2 || len(report.Subactivities) != 2 {
		t.Errorf("report = %+v", report)
	}
	if dep := report.Subactivities[1].DependsOn; dep != nil {
		t.Errorf("dependencias = %d, want cleared dangling reference", *dep)
	}
}

func TestParseCommandNoJSON(t *testing.T) {
	_, err := execute(t, "no hay datos", "parse")
	if !errors.Is(err, errNoEnvelope) {
		t.Errorf("error = %v, want errNoEnvelope", err)
	}
}

func TestPromptCommand(t *testing.T) {
	rows := `[{"Actividad": "Recibir solicitud", "Descripción": "Recibe por correo"}]`

	out, err := execute(t, rows, "prompt", "--process", "Compras", "--page", "1", "--page-size", "4")
	if err != nil {
		t.Fatalf("prompt error: %v", err)
	}

	for _, want := range []string{
		"Proceso: Compras",
		"1. Recibir solicitud: Recibe por correo",
		"id entre 5 y 8",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
