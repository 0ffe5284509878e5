package segmenter

// Activity types of the decomposition taxonomy.
const (
	TypeOperational = "Operativa"
	TypeAnalytical  = "Analítica"
	TypeCognitive   = "Cognitiva"
)

// Automation verdicts.
const (
	AutomatableYes      = "Si"
	AutomatableNo       = "No"
	AutomatablePossible = "Posible"
)

// Record is one raw subactivity object as decoded from model output.
type Record = map[string]any

// Page is the unit stored in the page cache: the raw records of one page
// window and the total the model declared on it (0 when absent).
type Page struct {
	Records  []Record `json:"records"`
	Declared int      `json:"declared"`
}

// Subactivity is the canonical, normalized shape of one generated record.
type Subactivity struct {
	ID                    int     `json:"id"`
	Name                  string  `json:"nombre"`
	Description           string  `json:"descripcion"`
	Objective             string  `json:"objetivo"`
	Type                  string  `json:"tipo_actividad"`
	DependsOn             *int    `json:"dependencias"`
	AverageMinutes        int     `json:"tiempo_promedio_min"`
	EstimatedTotalMinutes int     `json:"tiempo_estimado_total_min"`
	Automatable           string  `json:"automatizable"`
	AutomationSuggestion  *string `json:"sugerencia_automatizacion"`
	SourceID              *int    `json:"actividad_original_id"`
}

// Segmentation is the outcome of one pipeline run.
type Segmentation struct {
	Process       string        `json:"proceso"`
	Subactivities []Subactivity `json:"subactividades"`
	// Declared is the total the model reported on page 0, or 0.
	Declared   int    `json:"numero_subactividades"`
	Pages      int    `json:"pages"`
	ModelCalls int    `json:"model_calls"`
	CacheHits  int    `json:"cache_hits"`
	Model      string `json:"model"`
	// Abandoned is set when pagination stopped because a page could not be
	// produced after all retries and fallback models were exhausted.
	Abandoned bool `json:"abandoned"`
}

func (s *Segmentation) clone() *Segmentation {
	c := *s
	c.Subactivities = make([]Subactivity, len(s.Subactivities))
	for i, sub := range s.Subactivities {
		c.Subactivities[i] = sub.Clone()
	}
	return &c
}

// Clone returns a deep copy of s.
func (s Subactivity) Clone() Subactivity {
	c := s
	c.DependsOn = clonePtr(s.DependsOn)
	c.AutomationSuggestion = clonePtr(s.AutomationSuggestion)
	c.SourceID = clonePtr(s.SourceID)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
