package enrichment

import (
	"math"
	"sort"
	"strings"

	"github.com/JaimeStill/segmenter/internal/segmenter"
)

// DefaultThreshold is the minimum token-overlap score for a name match.
const DefaultThreshold = 0.3

// Record is a subactivity enriched with fields carried over from its source.
type Record struct {
	segmenter.Subactivity
	Classification string   `json:"clasificacion_lean,omitempty"`
	WasteType      string   `json:"tipo_desperdicio,omitempty"`
	Justification  string   `json:"justificacion,omitempty"`
	Responsible    string   `json:"responsable,omitempty"`
	StandardTime   *float64 `json:"tiempo_estandar,omitempty"`
}

// FromSubactivities wraps subactivities as records with no enrichment.
func FromSubactivities(subs []segmenter.Subactivity) []Record {
	records := make([]Record, len(subs))
	for i, s := range subs {
		records[i] = Record{Subactivity: s}
	}
	return records
}

// Matcher finds the source a generated record was decomposed from.
// Threshold is the token-overlap score a name match must exceed; it is a
// tuning knob, not part of the matching contract.
type Matcher struct {
	Threshold float64
}

// DefaultMatcher matches names with DefaultThreshold.
func DefaultMatcher() Matcher {
	return Matcher{Threshold: DefaultThreshold}
}

type namedSource struct {
	name   string
	source *Source
}

type index struct {
	byID   map[int]*Source
	byName map[string]*Source
	// names keeps first-seen order for substring and overlap scans.
	names []namedSource
}

func newIndex(sources []Source) *index {
	idx := &index{
		byID:   make(map[int]*Source, len(sources)),
		byName: make(map[string]*Source, len(sources)),
	}

	for i := range sources {
		s := &sources[i]
		idx.byID[s.Index] = s

		name := normalizeName(s.Name)
		if name == "" {
			continue
		}
		if _, seen := idx.byName[name]; !seen {
			idx.names = append(idx.names, namedSource{name: name})
		}
		idx.byName[name] = s
	}

	for i := range idx.names {
		idx.names[i].source = idx.byName[idx.names[i].name]
	}

	return idx
}

// match resolves rec to a source by actividad_original_id, then by name:
// exact, substring in either direction, then best token overlap.
func (m Matcher) match(rec Record, idx *index) *Source {
	if rec.SourceID != nil {
		if s, ok := idx.byID[*rec.SourceID]; ok {
			return s
		}
	}

	name := normalizeName(rec.Name)
	if name == "" {
		return nil
	}

	if s, ok := idx.byName[name]; ok {
		return s
	}

	for _, ns := range idx.names {
		if strings.Contains(name, ns.name) || strings.Contains(ns.name, name) {
			return ns.source
		}
	}

	words := tokenSet(name)
	var (
		best      *Source
		bestScore float64
	)
	for _, ns := range idx.names {
		score := overlap(words, tokenSet(ns.name))
		if score > bestScore && score > m.Threshold {
			best, bestScore = ns.source, score
		}
	}
	return best
}

// Match returns the source rec was decomposed from, or nil.
func (m Matcher) Match(rec Record, sources []Source) *Source {
	return m.match(rec, newIndex(sources))
}

// Enrich copies classification fields from each record's matched source and
// reconciles standard times. Sources split into several records have their
// original time distributed by each child's estimated share; 1:1 matches
// inherit the original time; without an original time the model estimate
// is used. The inputs are not modified and the result depends only on them.
func (m Matcher) Enrich(records []Record, sources []Source) []Record {
	idx := newIndex(sources)
	distributed := distribute(records, idx)

	out := make([]Record, len(records))
	for i, rec := range records {
		rec.Subactivity = rec.Subactivity.Clone()
		rec.StandardTime = nil
		if prev := records[i].StandardTime; prev != nil {
			v := *prev
			rec.StandardTime = &v
		}

		src := m.match(rec, idx)
		if src == nil {
			out[i] = rec
			continue
		}

		if rec.Classification == "" {
			rec.Classification = src.Classification
		}
		if rec.WasteType == "" {
			rec.WasteType = src.WasteType
		}
		if rec.Justification == "" {
			rec.Justification = src.Justification
		}
		if rec.Responsible == "" {
			rec.Responsible = src.Responsible
		}
		if (rec.Description == "" || rec.Description == segmenter.DefaultDescription) && src.Description != "" {
			rec.Description = src.Description
		}

		switch t, split := distributed[i]; {
		case split:
			rec.StandardTime = &t
		case src.Time != nil:
			v := *src.Time
			rec.StandardTime = &v
		default:
			if est := estimate(rec.Subactivity); est > 0 {
				rec.StandardTime = &est
			}
		}

		out[i] = rec
	}

	return out
}

// distribute splits original times across sources referenced by more than
// one record via actividad_original_id. Keys are record positions.
func distribute(records []Record, idx *index) map[int]float64 {
	groups := make(map[int][]int)
	var order []int
	for i, rec := range records {
		if rec.SourceID == nil {
			continue
		}
		id := *rec.SourceID
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], i)
	}

	result := make(map[int]float64)
	for _, id := range order {
		members := groups[id]
		src, ok := idx.byID[id]
		if !ok || src.Time == nil || len(members) < 2 {
			continue
		}

		weights := make([]float64, len(members))
		for j, pos := range members {
			weights[j] = estimate(records[pos].Subactivity)
		}

		for j, cents := range apportion(*src.Time, weights) {
			result[members[j]] = float64(cents) / 100
		}
	}
	return result
}

// apportion splits total, in cents, by weight using the largest remainder
// method so the parts always sum to total rounded to the cent. Zero total
// weight splits equally.
func apportion(total float64, weights []float64) []int64 {
	var sum float64
	for _, w := range weights {
		sum += w
	}

	target := int64(math.Round(total * 100))
	parts := make([]int64, len(weights))
	remainders := make([]float64, len(weights))

	var assigned int64
	for i, w := range weights {
		share := 1 / float64(len(weights))
		if sum > 0 {
			share = w / sum
		}
		exact := float64(target) * share
		parts[i] = int64(math.Floor(exact))
		remainders[i] = exact - float64(parts[i])
		assigned += parts[i]
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})

	for k := 0; assigned < target && k < len(order); k++ {
		parts[order[k]]++
		assigned++
	}
	return parts
}

// estimate is the model's time for a record: average minutes, else the total.
func estimate(s segmenter.Subactivity) float64 {
	if s.AverageMinutes > 0 {
		return float64(s.AverageMinutes)
	}
	return float64(s.EstimatedTotalMinutes)
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// overlap scores |a ∩ b| / max(|a|, |b|).
func overlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	common := 0
	for w := range a {
		if _, ok := b[w]; ok {
			common++
		}
	}
	return float64(common) / float64(max(len(a), len(b)))
}
