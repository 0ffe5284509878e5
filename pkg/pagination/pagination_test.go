package pagination_test

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/segmenter/pkg/pagination"
	"github.com/JaimeStill/segmenter/pkg/query"
)

func TestConfigFinalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     pagination.Config
		env     map[string]string
		want    pagination.Config
		wantErr bool
	}{
		{
			name: "defaults",
			want: pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
		},
		{
			name: "env overrides",
			env:  map[string]string{"SEG_PAGE_DEFAULT": "5", "SEG_PAGE_MAX": "50"},
			want: pagination.Config{DefaultPageSize: 5, MaxPageSize: 50},
		},
		{
			name: "unparsable env ignored",
			cfg:  pagination.Config{DefaultPageSize: 10},
			env:  map[string]string{"SEG_PAGE_MAX": "lots"},
			want: pagination.Config{DefaultPageSize: 10, MaxPageSize: 100},
		},
		{
			name:    "default above max",
			cfg:     pagination.Config{DefaultPageSize: 200},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg := tt.cfg
			err := cfg.Finalize(&pagination.ConfigEnv{
				DefaultPageSize: "SEG_PAGE_DEFAULT",
				MaxPageSize:     "SEG_PAGE_MAX",
			})

			if tt.wantErr {
				if err == nil {
					t.Fatal("Finalize succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, cfg); diff != "" {
				t.Errorf("config (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfigMerge(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
	cfg.Merge(&pagination.Config{MaxPageSize: 40})

	if diff := cmp.Diff(pagination.Config{DefaultPageSize: 20, MaxPageSize: 40}, cfg); diff != "" {
		t.Errorf("merged (-want +got):\n%s", diff)
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 10, MaxPageSize: 50}
	search := "compras"

	tests := []struct {
		name  string
		query string
		cfg   pagination.Config
		want  pagination.PageRequest
	}{
		{
			name: "empty",
			cfg:  cfg,
			want: pagination.PageRequest{Page: 1, PageSize: 10},
		},
		{
			name:  "all parameters",
			query: "page=3&page_size=25&search=compras&sort=-created_at",
			cfg:   cfg,
			want: pagination.PageRequest{
				Page:     3,
				PageSize: 25,
				Search:   &search,
				Sort:     pagination.SortFields{{Field: "created_at", Descending: true}},
			},
		},
		{
			name:  "clamped",
			query: "page=-2&page_size=500",
			cfg:   cfg,
			want:  pagination.PageRequest{Page: 1, PageSize: 50},
		},
		{
			name:  "zero config",
			query: "page_size=0",
			want:  pagination.PageRequest{Page: 1, PageSize: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			got := pagination.PageRequestFromQuery(values, tt.cfg)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("request (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSortFieldsUnmarshal(t *testing.T) {
	want := pagination.SortFields{{Field: "name"}, {Field: "created_at", Descending: true}}

	for _, body := range []string{
		`{"sort": "name,-created_at"}`,
		`{"sort": [{"field": "name"}, {"field": "created_at", "descending": true}]}`,
	} {
		var req pagination.PageRequest
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			t.Fatalf("%s: %v", body, err)
		}
		if diff := cmp.Diff(want, req.Sort); diff != "" {
			t.Errorf("%s (-want +got):\n%s", body, diff)
		}
	}

	var req pagination.PageRequest
	if err := json.Unmarshal([]byte(`{"sort": 7}`), &req); err == nil {
		t.Error("numeric sort decoded without error")
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		pageSize  int
		wantPages int
	}{
		{"empty", 0, 10, 1},
		{"exact", 30, 10, 3},
		{"remainder", 31, 10, 4},
		{"zero page size", 5, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pagination.NewPageResult[query.SortField](nil, tt.total, 1, tt.pageSize)
			if got.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", got.TotalPages, tt.wantPages)
			}
			if got.Data == nil {
				t.Error("Data is nil")
			}
		})
	}
}
