// Package enrichment reconciles generated subactivities with the source rows
// they were decomposed from: it restores original times, copies the
// classification fields the model does not produce, and summarizes the run.
package enrichment

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxAsIsRows bounds how many source rows are rendered into the AS-IS text.
const MaxAsIsRows = 50

// Row is one uploaded source row with its original column names.
type Row = map[string]any

// Column aliases, most specific first.
var (
	nameKeys           = []string{"Actividad", "actividad", "name"}
	descriptionKeys    = []string{"Descripción", "descripcion", "description"}
	responsibleKeys    = []string{"Cargo que ejecuta la tarea", "responsable", "responsible"}
	classificationKeys = []string{"Clasificación Lean", "clasificacion", "classification"}
	wasteKeys          = []string{"Tipo Desperdicio", "tipo_desperdicio", "desperdicio"}
	justificationKeys  = []string{"Justificación", "justificacion"}
	automatedKeys      = []string{"Tarea Automatizada", "automatizada", "automated"}
	timeKeys           = []string{"Tiempo Estándar", "time", "tiempo"}
	averageKeys        = []string{"Tiempo Prom (Min/Tarea)", "Tiempo Promedio", "tiempo_promedio"}
	minKeys            = []string{"Tiempo Menor", "tiempo_min"}
	maxKeys            = []string{"Tiempo Mayor", "tiempo_max"}
)

// Source is one original activity as read from an uploaded row.
type Source struct {
	// Index is the 1-based row position referenced by actividad_original_id.
	Index int
	// ID is the display identifier, "A{Index}".
	ID             string
	Name           string
	Description    string
	Responsible    string
	Classification string
	WasteType      string
	Justification  string
	Automated      bool
	// Time is the original time in minutes: the standard time, else the
	// average. Nil when the row has neither.
	Time    *float64
	Average *float64
	Min     *float64
	Max     *float64
}

// SourcesFromRows reads a Source from every row.
func SourcesFromRows(rows []Row) []Source {
	sources := make([]Source, len(rows))
	for i, row := range rows {
		src := Source{
			Index:          i + 1,
			ID:             fmt.Sprintf("A%d", i+1),
			Name:           lookup(row, nameKeys),
			Description:    lookup(row, descriptionKeys),
			Responsible:    lookup(row, responsibleKeys),
			Classification: lookup(row, classificationKeys),
			WasteType:      lookup(row, wasteKeys),
			Justification:  lookup(row, justificationKeys),
			Automated:      automated(lookup(row, automatedKeys)),
			Time:           lookupTime(row, timeKeys),
			Average:        lookupTime(row, averageKeys),
			Min:            lookupTime(row, minKeys),
			Max:            lookupTime(row, maxKeys),
		}
		if src.Time == nil && src.Average != nil {
			v := *src.Average
			src.Time = &v
		}
		sources[i] = src
	}
	return sources
}

// AsIsText renders the first MaxAsIsRows rows as "i. Actividad: Descripción".
// Rows without a name are rendered as "Actividad i".
func AsIsText(rows []Row) string {
	n := min(len(rows), MaxAsIsRows)
	lines := make([]string, 0, n)

	for i, row := range rows[:n] {
		name := lookup(row, nameKeys)
		if name == "" {
			name = fmt.Sprintf("Actividad %d", i+1)
		}
		lines = append(lines, fmt.Sprintf("%d. %s: %s", i+1, name, lookup(row, descriptionKeys)))
	}

	return strings.Join(lines, "\n")
}

// CountWarning returns a message when the generated count falls outside
// [input, input+3], or "" when it is within range.
func CountWarning(input, output int) string {
	if output >= input && output <= input+3 {
		return ""
	}
	return fmt.Sprintf("segmentation count mismatch: input %d, output %d, expected %d-%d",
		input, output, input, input+3)
}

// lookup returns the first non-empty value among keys, rendered as text.
func lookup(row Row, keys []string) string {
	for _, k := range keys {
		v, ok := row[k]
		if !ok || v == nil {
			continue
		}
		s := strings.TrimSpace(text(v))
		if s != "" {
			return s
		}
	}
	return ""
}

func lookupTime(row Row, keys []string) *float64 {
	for _, k := range keys {
		if f, ok := number(row[k]); ok && f != 0 {
			return &f
		}
	}
	return nil
}

func automated(s string) bool {
	switch strings.ToUpper(s) {
	case "SI", "SÍ", "YES", "TRUE":
		return true
	}
	return false
}

func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(t, ",", ".")), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
