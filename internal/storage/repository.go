// Package storage contains the warehouse contracts shared by the reconciler,
// the bulk loader and the orchestrator. Concrete backends register a factory
// (and a DDL dialect) at init time; callers obtain a Repository through New
// and stay free of driver imports.
package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// Repository is the minimal warehouse surface used by the ETL.
type Repository interface {
	// Columns returns the live column names of table in ordinal order. A
	// table that does not exist yields an empty slice and no error.
	Columns(ctx context.Context, table string) ([]string, error)

	// Exec runs a single statement (DDL in practice).
	Exec(ctx context.Context, sql string) error

	// CopyCSV bulk-loads headerless CSV from r into table's columns in one
	// transaction and returns the number of rows copied.
	CopyCSV(ctx context.Context, table string, columns []string, r io.Reader) (int64, error)

	// Close releases pooled connections.
	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind string // e.g. "postgres"
	DSN  string // backend connection string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered backend kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
