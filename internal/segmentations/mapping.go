package segmentations

import (
	"net/url"

	"github.com/JaimeStill/segmenter/pkg/query"
	"github.com/JaimeStill/segmenter/pkg/repository"
)

var projection = query.
	NewProjection("public", "segmentations", "s").
	Project("id", "ID").
	Project("process_name", "ProcessName").
	Project("content_hash", "ContentHash").
	Project("source_count", "SourceCount").
	Project("page_size", "PageSize").
	Project("max_pages", "MaxPages").
	Project("status", "Status").
	Project("subactivity_count", "SubactivityCount").
	Project("pages", "Pages").
	Project("model_calls", "ModelCalls").
	Project("cache_hits", "CacheHits").
	Project("model", "Model").
	Project("abandoned", "Abandoned").
	Project("error", "Error").
	Project("storage_key", "StorageKey").
	Project("created_at", "CreatedAt").
	Project("completed_at", "CompletedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for run queries.
// Status and Model use exact matching; Process uses case-insensitive contains matching.
type Filters struct {
	Status  *string `json:"status,omitempty"`
	Process *string `json:"process,omitempty"`
	Model   *string `json:"model,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereContains("ProcessName", f.Process).
		WhereEquals("Model", f.Model)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if p := values.Get("process"); p != "" {
		f.Process = &p
	}

	if m := values.Get("model"); m != "" {
		f.Model = &m
	}

	return f
}

func scanRun(s repository.Scanner) (Run, error) {
	var r Run
	err := s.Scan(
		&r.ID,
		&r.ProcessName,
		&r.ContentHash,
		&r.SourceCount,
		&r.PageSize,
		&r.MaxPages,
		&r.Status,
		&r.SubactivityCount,
		&r.Pages,
		&r.ModelCalls,
		&r.CacheHits,
		&r.Model,
		&r.Abandoned,
		&r.Error,
		&r.StorageKey,
		&r.CreatedAt,
		&r.CompletedAt,
	)
	return r, err
}
