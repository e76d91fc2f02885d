// Package ddl renders Postgres DDL for the generic ddl model: quoted
// identifiers, IF NOT EXISTS guards and the Postgres type names used by the
// trip table.
package ddl

import "nyctaxi/internal/schema"

// MapType maps a logical column type to its Postgres SQL type.
//
//	schema.Integer -> INTEGER
//	schema.Double  -> DOUBLE PRECISION
func MapType(t schema.Type) string {
	switch t {
	case schema.Integer:
		return "INTEGER"
	default:
		return "DOUBLE PRECISION"
	}
}
