package storage

import (
	"fmt"
	"sync"

	"nyctaxi/internal/ddl"
	"nyctaxi/internal/schema"
)

// Dialect renders backend-specific DDL for the generic ddl model. Backends
// register their dialect next to their Repository factory so the reconciler
// can stay backend-agnostic.
type Dialect interface {
	// SQLType maps a logical column type to the backend's SQL type.
	SQLType(t schema.Type) string
	// CreateTableSQL renders an idempotent CREATE TABLE for def.
	CreateTableSQL(def ddl.TableDef) (string, error)
	// AddColumnSQL renders an additive ALTER TABLE for one column.
	AddColumnSQL(table string, col ddl.ColumnDef) (string, error)
}

var (
	dialectMu sync.RWMutex
	dialects  = map[string]Dialect{}
)

// RegisterDialect registers (or replaces) the Dialect for kind.
func RegisterDialect(kind string, d Dialect) {
	dialectMu.Lock()
	defer dialectMu.Unlock()
	dialects[kind] = d
}

// DialectFor returns the Dialect registered for kind.
func DialectFor(kind string) (Dialect, error) {
	dialectMu.RLock()
	d, ok := dialects[kind]
	dialectMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no DDL dialect registered for storage.kind=%q", kind)
	}
	return d, nil
}
