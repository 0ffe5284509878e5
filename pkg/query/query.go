// Package query builds parameterized PostgreSQL SELECT statements from a
// projection of a single table.
package query

import (
	"fmt"
	"reflect"
	"strings"
)

// Projection maps the field names callers use onto the qualified columns
// of one table. Lookups are case-insensitive and accept either the field
// name or the raw column name.
type Projection struct {
	table   string
	alias   string
	columns []string
	lookup  map[string]string
}

func NewProjection(schema, table, alias string) *Projection {
	return &Projection{
		table:  schema + "." + table + " " + alias,
		alias:  alias,
		lookup: map[string]string{},
	}
}

// Project adds column under the name field.
func (p *Projection) Project(column, field string) *Projection {
	p.columns = append(p.columns, column)
	qualified := p.alias + "." + column
	p.lookup[strings.ToLower(field)] = qualified
	p.lookup[strings.ToLower(column)] = qualified
	return p
}

func (p *Projection) Table() string { return p.table }

// Column resolves field to its qualified column.
func (p *Projection) Column(field string) (string, bool) {
	col, ok := p.lookup[strings.ToLower(field)]
	return col, ok
}

// Select is the qualified column list in projection order.
func (p *Projection) Select() string {
	qualified := make([]string, len(p.columns))
	for i, c := range p.columns {
		qualified[i] = p.alias + "." + c
	}
	return strings.Join(qualified, ", ")
}

// Returning is a RETURNING clause for the projected columns, for use with
// unaliased INSERT and UPDATE statements.
func (p *Projection) Returning() string {
	return "RETURNING " + strings.Join(p.columns, ", ")
}

type SortField struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending,omitempty"`
}

// ParseSortFields reads a list like "name,-created_at" where a leading
// minus sorts descending.
func ParseSortFields(s string) []SortField {
	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		name, desc := strings.CutPrefix(part, "-")
		if name == "" {
			continue
		}
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// Builder accumulates AND-ed conditions. Placeholders are numbered as
// conditions are added, so every statement built shares the same args.
type Builder struct {
	p     *Projection
	where []string
	args  []any
	sort  []SortField
	fixed []SortField
}

// NewBuilder orders by defaults unless OrderByFields supplies a usable
// field.
func NewBuilder(p *Projection, defaults ...SortField) *Builder {
	return &Builder{p: p, fixed: defaults}
}

func (b *Builder) bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *Builder) column(field string) string {
	if col, ok := b.p.Column(field); ok {
		return col
	}
	panic(fmt.Sprintf("query: %s has no field %q", b.p.table, field))
}

// WhereEquals skips nil values, including typed nil pointers. Non-nil
// pointers are dereferenced before binding.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	v := reflect.ValueOf(value)
	if !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil()) {
		return b
	}
	if v.Kind() == reflect.Pointer {
		value = v.Elem().Interface()
	}
	b.where = append(b.where, b.column(field)+" = "+b.bind(value))
	return b
}

// WhereContains adds a case-insensitive substring match. Nil or empty
// values are skipped.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	return b.WhereSearch(value, field)
}

// WhereSearch matches value as a substring of any of fields.
func (b *Builder) WhereSearch(value *string, fields ...string) *Builder {
	if value == nil || *value == "" || len(fields) == 0 {
		return b
	}
	pattern := "%" + *value + "%"
	ors := make([]string, len(fields))
	for i, f := range fields {
		ors[i] = b.column(f) + " ILIKE " + b.bind(pattern)
	}
	clause := strings.Join(ors, " OR ")
	if len(ors) > 1 {
		clause = "(" + clause + ")"
	}
	b.where = append(b.where, clause)
	return b
}

// OrderByFields replaces the default ordering. Fields outside the
// projection are ignored.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = fields
	return b
}

func (b *Builder) whereClause() string {
	if len(b.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.where, " AND ")
}

func (b *Builder) orderClause() string {
	var terms []string
	add := func(fields []SortField) {
		for _, f := range fields {
			col, ok := b.p.Column(f.Field)
			if !ok {
				continue
			}
			if f.Descending {
				col += " DESC"
			}
			terms = append(terms, col)
		}
	}
	if add(b.sort); len(terms) == 0 {
		add(b.fixed)
	}
	if len(terms) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

func (b *Builder) BuildCount() (string, []any) {
	return "SELECT COUNT(*) FROM " + b.p.table + b.whereClause(), b.args
}

// BuildPage selects the 1-based page of pageSize rows.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	sql := fmt.Sprintf("SELECT %s FROM %s%s%s LIMIT %d OFFSET %d",
		b.p.Select(), b.p.table, b.whereClause(), b.orderClause(),
		pageSize, (max(page, 1)-1)*pageSize)
	return sql, b.args
}

// BuildSingle selects the row whose field equals id, ignoring any
// accumulated conditions.
func (b *Builder) BuildSingle(field string, id any) (string, []any) {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", b.p.Select(), b.p.table, b.column(field)), []any{id}
}
