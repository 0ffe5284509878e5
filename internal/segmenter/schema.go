package segmenter

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTextLength caps every string field; longer values are cut and suffixed with "…".
const MaxTextLength = 1000

// RequiredFields must be present on every record of an accepted page.
var RequiredFields = []string{
	"id",
	"nombre",
	"descripcion",
	"objetivo",
	"tipo_actividad",
	"dependencias",
	"tiempo_promedio_min",
	"tiempo_estimado_total_min",
	"automatizable",
}

// Placeholders for text fields the model left out.
const (
	DefaultName        = "Sin nombre"
	DefaultDescription = "Sin descripción"
	DefaultObjective   = "Sin objetivo"
	defaultMinutes     = 5
)

type fieldDefault struct {
	key   string
	value any
}

// salvageDefaults fills absent fields; order matters only for readability.
var salvageDefaults = []fieldDefault{
	{"id", 0},
	{"nombre", DefaultName},
	{"descripcion", DefaultDescription},
	{"objetivo", DefaultObjective},
	{"tipo_actividad", TypeOperational},
	{"dependencias", nil},
	{"tiempo_promedio_min", defaultMinutes},
	{"tiempo_estimado_total_min", defaultMinutes},
	{"automatizable", AutomatableNo},
	{"sugerencia_automatizacion", nil},
}

// Salvage fills missing required fields of each record in the envelope from
// the default table, assigns position-based ids to records whose id is absent
// or zero, and drops elements that are not objects. Envelopes without a
// record list are returned unchanged.
func Salvage(envelope map[string]any) map[string]any {
	if envelope == nil {
		return nil
	}

	items, ok := envelope[KeySubactivities].([]any)
	if !ok {
		return envelope
	}

	salvaged := make([]any, 0, len(items))
	for i, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for _, d := range salvageDefaults {
			if _, present := record[d.key]; !present {
				record[d.key] = d.value
			}
		}
		if isZeroNumber(record["id"]) {
			record["id"] = i + 1
		}
		salvaged = append(salvaged, record)
	}

	envelope[KeySubactivities] = salvaged
	return envelope
}

// Validate reports whether envelope holds a record list whose every element
// is an object carrying all RequiredFields. It checks structure only.
func Validate(envelope map[string]any) bool {
	if envelope == nil {
		return false
	}

	items, ok := envelope[KeySubactivities].([]any)
	if !ok {
		return false
	}

	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			return false
		}
		for _, key := range RequiredFields {
			if _, present := record[key]; !present {
				return false
			}
		}
	}

	return true
}

// Records returns the envelope's record list. Call after Validate.
func Records(envelope map[string]any) []Record {
	items, _ := envelope[KeySubactivities].([]any)
	records := make([]Record, 0, len(items))
	for _, item := range items {
		if record, ok := item.(map[string]any); ok {
			records = append(records, record)
		}
	}
	return records
}

// Declared returns the positive integer numero_subactividades of the envelope, or 0.
func Declared(envelope map[string]any) int {
	n, ok := exactInt(envelope["numero_subactividades"])
	if !ok || n < 1 {
		return 0
	}
	return n
}

// Normalize converts raw records into Subactivities. Ids are forced positive
// and unique: invalid or repeated ids are replaced by the previous id + 1,
// skipping ids already taken. Minutes become integers of at least 1, self or
// non-positive dependencies fall back to the previous id, and enumerations
// are canonicalized.
func Normalize(records []Record) []Subactivity {
	result := make([]Subactivity, 0, len(records))
	seen := make(map[int]bool, len(records))
	next := 1

	for _, r := range records {
		if r == nil {
			continue
		}

		id, ok := exactInt(r["id"])
		if !ok || id < 1 || seen[id] {
			for seen[next] {
				next++
			}
			id = next
		}
		seen[id] = true
		next = id + 1

		result = append(result, Subactivity{
			ID:                    id,
			Name:                  text(r, "nombre", DefaultName),
			Description:           text(r, "descripcion", DefaultDescription),
			Objective:             text(r, "objetivo", DefaultObjective),
			Type:                  activityType(r["tipo_actividad"]),
			DependsOn:             dependency(r, id),
			AverageMinutes:        minutes(r, "tiempo_promedio_min"),
			EstimatedTotalMinutes: minutes(r, "tiempo_estimado_total_min"),
			Automatable:           automatable(r["automatizable"]),
			AutomationSuggestion:  optionalText(r["sugerencia_automatizacion"]),
			SourceID:              sourceID(r["actividad_original_id"]),
		})
	}

	return result
}

func text(r Record, key, fallback string) string {
	v, present := r[key]
	if !present || v == nil {
		return fallback
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return truncate(s)
}

func optionalText(v any) *string {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" || strings.EqualFold(s, "null") {
		return nil
	}
	s = truncate(s)
	return &s
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxTextLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxTextLength]) + "…"
}

func minutes(r Record, key string) int {
	v, present := r[key]
	if !present {
		return defaultMinutes
	}
	n, ok := toInt(v)
	if !ok || n < 1 {
		return 1
	}
	return n
}

func dependency(r Record, id int) *int {
	v := r["dependencias"]
	if isEmptyValue(v) {
		return nil
	}

	dep, ok := toInt(v)
	if !ok {
		return nil
	}
	if dep == id || dep < 1 {
		if id > 1 {
			prev := id - 1
			return &prev
		}
		return nil
	}
	return &dep
}

func sourceID(v any) *int {
	if isEmptyValue(v) {
		return nil
	}
	n, ok := toInt(v)
	if !ok || n < 1 {
		return nil
	}
	return &n
}

func activityType(v any) string {
	s, _ := v.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeOperational
	}

	switch foldAccents(strings.ToLower(s)) {
	case "operativa":
		return TypeOperational
	case "analitica":
		return TypeAnalytical
	case "cognitiva":
		return TypeCognitive
	}

	if isUpper(s) {
		return capitalize(s)
	}
	return s
}

func automatable(v any) string {
	switch t := v.(type) {
	case bool:
		if t {
			return AutomatableYes
		}
		return AutomatableNo
	case string:
		switch foldAccents(strings.ToLower(strings.TrimSpace(t))) {
		case "si", "yes", "true":
			return AutomatableYes
		case "posible", "parcial", "parcialmente", "possible":
			return AutomatablePossible
		}
	}
	return AutomatableNo
}

// exactInt accepts integral JSON numbers only.
func exactInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.IsNaN(t) {
			return 0, false
		}
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		return int(n), err == nil
	default:
		return 0, false
	}
}

// toInt converts numbers and numeric strings, truncating fractions.
func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if math.IsInf(t, 0) || math.IsNaN(t) {
			return 0, false
		}
		return int(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return int(f), true
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func isZeroNumber(v any) bool {
	n, ok := exactInt(v)
	return ok && n == 0
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(t)
		return s == "" || strings.EqualFold(s, "null")
	case []any:
		return len(t) == 0
	default:
		return false
	}
}

func isUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

var accentFolds = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u",
)

func foldAccents(s string) string {
	return accentFolds.Replace(s)
}
