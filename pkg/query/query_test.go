package query_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/segmenter/pkg/query"
)

func runs() *query.Projection {
	return query.NewProjection("public", "segmentations", "s").
		Project("id", "ID").
		Project("process_name", "ProcessName").
		Project("status", "Status").
		Project("created_at", "CreatedAt")
}

func str(s string) *string { return &s }

func TestProjection(t *testing.T) {
	p := runs()

	if got := p.Select(); got != "s.id, s.process_name, s.status, s.created_at" {
		t.Errorf("Select() = %q", got)
	}
	if got := p.Returning(); got != "RETURNING id, process_name, status, created_at" {
		t.Errorf("Returning() = %q", got)
	}

	for _, field := range []string{"ProcessName", "processname", "process_name"} {
		if col, ok := p.Column(field); !ok || col != "s.process_name" {
			t.Errorf("Column(%q) = %q, %v", field, col, ok)
		}
	}
	if _, ok := p.Column("password"); ok {
		t.Error("Column resolved an unprojected field")
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		in   string
		want []query.SortField
	}{
		{"", nil},
		{"name", []query.SortField{{Field: "name"}}},
		{" -created_at , status,,-", []query.SortField{
			{Field: "created_at", Descending: true},
			{Field: "status"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, query.ParseSortFields(tt.in)); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuilder(t *testing.T) {
	newest := query.SortField{Field: "CreatedAt", Descending: true}

	tests := []struct {
		name      string
		build     func(*query.Builder) *query.Builder
		wantCount string
		wantPage  string
		wantArgs  []any
	}{
		{
			name:      "no conditions",
			build:     func(b *query.Builder) *query.Builder { return b },
			wantCount: "SELECT COUNT(*) FROM public.segmentations s",
			wantPage:  "SELECT s.id, s.process_name, s.status, s.created_at FROM public.segmentations s ORDER BY s.created_at DESC LIMIT 20 OFFSET 40",
		},
		{
			name: "nil filters skipped",
			build: func(b *query.Builder) *query.Builder {
				var status *string
				return b.WhereEquals("Status", status).WhereContains("ProcessName", str("")).WhereSearch(nil, "ProcessName")
			},
			wantCount: "SELECT COUNT(*) FROM public.segmentations s",
			wantPage:  "SELECT s.id, s.process_name, s.status, s.created_at FROM public.segmentations s ORDER BY s.created_at DESC LIMIT 20 OFFSET 40",
		},
		{
			name: "search then equals",
			build: func(b *query.Builder) *query.Builder {
				return b.
					WhereSearch(str("compra"), "ProcessName", "Status").
					WhereEquals("Status", str("completed")).
					OrderByFields([]query.SortField{{Field: "process_name"}, {Field: "; DROP TABLE"}})
			},
			wantCount: "SELECT COUNT(*) FROM public.segmentations s WHERE (s.process_name ILIKE $1 OR s.status ILIKE $2) AND s.status = $3",
			wantPage:  "SELECT s.id, s.process_name, s.status, s.created_at FROM public.segmentations s WHERE (s.process_name ILIKE $1 OR s.status ILIKE $2) AND s.status = $3 ORDER BY s.process_name LIMIT 20 OFFSET 40",
			wantArgs:  []any{"%compra%", "%compra%", "completed"},
		},
		{
			name: "unknown sort falls back to default",
			build: func(b *query.Builder) *query.Builder {
				return b.WhereContains("ProcessName", str("Ventas")).OrderByFields([]query.SortField{{Field: "secret"}})
			},
			wantCount: "SELECT COUNT(*) FROM public.segmentations s WHERE s.process_name ILIKE $1",
			wantPage:  "SELECT s.id, s.process_name, s.status, s.created_at FROM public.segmentations s WHERE s.process_name ILIKE $1 ORDER BY s.created_at DESC LIMIT 20 OFFSET 40",
			wantArgs:  []any{"%Ventas%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.build(query.NewBuilder(runs(), newest))

			count, countArgs := b.BuildCount()
			page, pageArgs := b.BuildPage(3, 20)

			if count != tt.wantCount {
				t.Errorf("count:\n got %s\nwant %s", count, tt.wantCount)
			}
			if page != tt.wantPage {
				t.Errorf("page:\n got %s\nwant %s", page, tt.wantPage)
			}
			if diff := cmp.Diff(tt.wantArgs, countArgs); diff != "" {
				t.Errorf("count args (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantArgs, pageArgs); diff != "" {
				t.Errorf("page args (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildSingle(t *testing.T) {
	sql, args := query.NewBuilder(runs()).WhereEquals("Status", "running").BuildSingle("ID", 7)

	if want := "SELECT s.id, s.process_name, s.status, s.created_at FROM public.segmentations s WHERE s.id = $1"; sql != want {
		t.Errorf("sql = %s", sql)
	}
	if diff := cmp.Diff([]any{7}, args); diff != "" {
		t.Errorf("args (-want +got):\n%s", diff)
	}
}

func TestBuilderPanicsOnUnknownField(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("WhereEquals on an unknown field did not panic")
		}
	}()
	query.NewBuilder(runs()).WhereEquals("Owner", "x")
}
