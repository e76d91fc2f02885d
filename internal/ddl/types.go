// Package ddl defines a small, backend-agnostic model for table DDL and the
// diffing used by schema reconciliation. Dialect-specific rendering (quoting,
// type names, IF NOT EXISTS) lives with each storage backend.
package ddl

import (
	"fmt"
	"strings"

	"nyctaxi/internal/schema"
)

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting/escaping happens at render time)
//   - SQLType: target SQL type (e.g., INTEGER, DOUBLE PRECISION)
//   - Nullable: whether NULL is allowed
//   - Default: raw default expression
type ColumnDef struct {
	Name     string
	SQLType  string
	Nullable bool
	Default  string
}

// TableDef holds the fully-qualified table name (FQN) and an ordered list of
// columns. The FQN is expected in dotted form (e.g., "schema.table") and will
// be quoted/escaped by renderers as needed.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// FromSchema builds a TableDef for table from the expected columns, mapping
// each logical type through sqlType. Every column is nullable: the loader
// pads absent source columns with NULL.
func FromSchema(table string, cols []schema.Column, sqlType func(schema.Type) string) (TableDef, error) {
	if strings.TrimSpace(table) == "" {
		return TableDef{}, fmt.Errorf("ddl: table name must not be empty")
	}
	if len(cols) == 0 {
		return TableDef{}, fmt.Errorf("ddl: at least one column is required")
	}
	defs := make([]ColumnDef, 0, len(cols))
	for _, c := range cols {
		defs = append(defs, ColumnDef{
			Name:     c.Name,
			SQLType:  sqlType(c.Type),
			Nullable: true,
		})
	}
	return TableDef{FQN: table, Columns: defs}, nil
}

// Missing returns the columns of def whose names are absent from existing,
// in def order. Names are compared exactly (case-sensitive).
func Missing(def TableDef, existing []string) []ColumnDef {
	have := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		have[name] = struct{}{}
	}
	var out []ColumnDef
	for _, c := range def.Columns {
		if _, ok := have[c.Name]; !ok {
			out = append(out, c)
		}
	}
	return out
}
