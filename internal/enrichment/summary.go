package enrichment

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/segmenter/internal/segmenter"
)

// TypeUndetermined labels records with an empty tipo_actividad.
const TypeUndetermined = "Indeterminado"

var valueTypes = map[string]bool{
	segmenter.TypeOperational: true,
	segmenter.TypeAnalytical:  true,
	segmenter.TypeCognitive:   true,
}

// Summary aggregates a segmentation for reporting.
type Summary struct {
	TotalSubactivities  int            `json:"total_subactividades"`
	Types               map[string]int `json:"tipos_actividad"`
	PercentOperational  float64        `json:"porcentaje_operativas"`
	PercentCognitive    float64        `json:"porcentaje_cognitivas"`
	PercentAnalytical   float64        `json:"porcentaje_analiticas"`
	Automatable         int            `json:"total_automatizables"`
	Possible            int            `json:"total_posibles"`
	NotAutomatable      int            `json:"total_no_automatizables"`
	Value               int            `json:"valor"`
	PercentValue        float64        `json:"porcentaje_valor"`
	Undetermined        int            `json:"indeterminadas"`
	PercentUndetermined float64        `json:"porcentaje_indeterminadas"`
	Recommendations     int            `json:"recomendaciones_count"`
}

// Segment groups the records of one activity type.
type Segment struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	ActivityCount int     `json:"activity_count"`
	TimeTotal     float64 `json:"time_total"`
}

// Summarize counts records per type and automation verdict.
func Summarize(records []Record) Summary {
	s := Summary{
		TotalSubactivities: len(records),
		Types:              make(map[string]int),
	}
	if len(records) == 0 {
		return s
	}

	for _, r := range records {
		tipo := r.Type
		if strings.TrimSpace(tipo) == "" {
			tipo = TypeUndetermined
		}
		s.Types[tipo]++

		switch strings.ToLower(strings.TrimSpace(r.Automatable)) {
		case "si", "sí":
			s.Automatable++
		case "posible":
			s.Possible++
		case "no":
			s.NotAutomatable++
		}
	}

	for tipo, n := range s.Types {
		if valueTypes[tipo] {
			s.Value += n
		}
	}
	s.Undetermined = s.Types[TypeUndetermined]
	s.Recommendations = s.Automatable + s.Possible

	total := float64(len(records))
	s.PercentOperational = percent(s.Types[segmenter.TypeOperational], total)
	s.PercentCognitive = percent(s.Types[segmenter.TypeCognitive], total)
	s.PercentAnalytical = percent(s.Types[segmenter.TypeAnalytical], total)
	s.PercentValue = percent(s.Value, total)
	s.PercentUndetermined = percent(s.Undetermined, total)

	return s
}

// Segments groups records by tipo_actividad in first-seen order. TimeTotal
// sums tiempo_estimado_total_min.
func Segments(records []Record) []Segment {
	var segments []Segment
	positions := make(map[string]int)

	for _, r := range records {
		tipo := strings.TrimSpace(r.Type)
		if tipo == "" {
			continue
		}

		pos, ok := positions[tipo]
		if !ok {
			pos = len(segments)
			positions[tipo] = pos
			segments = append(segments, Segment{
				ID:          pos,
				Name:        tipo,
				Description: fmt.Sprintf("Actividades de tipo %s", tipo),
			})
		}

		segments[pos].ActivityCount++
		segments[pos].TimeTotal += float64(r.EstimatedTotalMinutes)
	}

	return segments
}

func percent(n int, total float64) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / total * 100
}
