// Package query constructs parameterized SQL queries from field projections.
package query

import (
	"fmt"
	"strings"
)

// ProjectionMap binds logical field names to qualified table columns.
type ProjectionMap struct {
	schema  string
	table   string
	alias   string
	order   []string
	columns map[string]string
}

// NewProjectionMap creates a projection for the given schema, table, and alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema:  schema,
		table:   table,
		alias:   alias,
		columns: make(map[string]string),
	}
}

// Project maps a table column to a logical field name.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	qualified := fmt.Sprintf("%s.%s", p.alias, column)
	p.order = append(p.order, qualified)
	p.columns[field] = qualified
	return p
}

// Column returns the qualified column for a logical field name.
// Unknown fields panic: a projection miss is a programming error, not input.
func (p *ProjectionMap) Column(field string) string {
	col, ok := p.columns[field]
	if !ok {
		panic(fmt.Sprintf("query: field %q not projected on %s.%s", field, p.schema, p.table))
	}
	return col
}

// Has reports whether a logical field name is projected. Use it to screen
// caller-supplied field names before they reach Column.
func (p *ProjectionMap) Has(field string) bool {
	_, ok := p.columns[field]
	return ok
}

// Columns returns the select list in projection order.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.order, ", ")
}

// Table returns the aliased FROM clause target.
func (p *ProjectionMap) Table() string {
	return fmt.Sprintf("%s.%s %s", p.schema, p.table, p.alias)
}
