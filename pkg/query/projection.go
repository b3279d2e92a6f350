// Package query constructs SQL queries from logical field names using a
// fluent builder with automatic parameter numbering.
package query

import (
	"fmt"
	"strings"
)

type projectedColumn struct {
	column string
	field  string
}

// ProjectionMap maps logical field names to physical table columns
// for a single aliased table.
type ProjectionMap struct {
	schema  string
	table   string
	alias   string
	columns []projectedColumn
	byField map[string]string
}

// NewProjectionMap creates a ProjectionMap for the given schema-qualified table and alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema:  schema,
		table:   table,
		alias:   alias,
		byField: make(map[string]string),
	}
}

// Project registers a column under a logical field name. Returns the map for chaining.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	qualified := p.alias + "." + column
	p.columns = append(p.columns, projectedColumn{column: qualified, field: field})
	p.byField[field] = qualified
	return p
}

// Columns returns the comma-separated projected column list.
func (p *ProjectionMap) Columns() string {
	cols := make([]string, len(p.columns))
	for i, c := range p.columns {
		cols[i] = c.column
	}
	return strings.Join(cols, ", ")
}

// From returns the aliased FROM clause target.
func (p *ProjectionMap) From() string {
	return fmt.Sprintf("%s.%s %s", p.schema, p.table, p.alias)
}

// Has reports whether a logical field name is projected.
func (p *ProjectionMap) Has(field string) bool {
	_, ok := p.byField[field]
	return ok
}

// Column resolves a logical field name to its qualified column.
// Panics on unknown fields; projections are declared statically per domain.
func (p *ProjectionMap) Column(field string) string {
	col, ok := p.byField[field]
	if !ok {
		panic(fmt.Sprintf("query: unknown projection field %q", field))
	}
	return col
}
