// Package reconcile brings the target table's column set up to the expected
// trip columns. It only ever adds columns; nothing is dropped or narrowed.
package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"nyctaxi/internal/ddl"
	"nyctaxi/internal/schema"
	"nyctaxi/internal/storage"
)

// Reconciler adds missing expected columns to Table.
type Reconciler struct {
	Repo    storage.Repository
	Dialect storage.Dialect
	Table   string

	// AutoCreate issues a single CREATE TABLE IF NOT EXISTS when the table
	// has no columns at all, instead of one ALTER per column.
	AutoCreate bool

	Log *zap.Logger
}

// Run compares the live columns with schema.Expected and issues DDL for the
// missing ones, in expected order. It returns the names it added. The first
// DDL error aborts the run.
func (r *Reconciler) Run(ctx context.Context) ([]string, error) {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	def, err := ddl.FromSchema(r.Table, schema.Expected, r.Dialect.SQLType)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	existing, err := r.Repo.Columns(ctx, r.Table)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	missing := ddl.Missing(def, existing)
	if len(missing) == 0 {
		log.Info("schema up to date", zap.String("table", r.Table), zap.Int("columns", len(existing)))
		return nil, nil
	}

	names := make([]string, len(missing))
	for i, c := range missing {
		names[i] = c.Name
	}

	if len(existing) == 0 && r.AutoCreate {
		stmt, err := r.Dialect.CreateTableSQL(def)
		if err != nil {
			return nil, fmt.Errorf("reconcile: %w", err)
		}
		if err := r.Repo.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("reconcile: create table %s: %w", r.Table, err)
		}
		log.Warn("created table", zap.String("table", r.Table), zap.Strings("columns", names))
		return names, nil
	}

	log.Warn("adding missing columns", zap.String("table", r.Table), zap.Strings("columns", names))
	for _, c := range missing {
		stmt, err := r.Dialect.AddColumnSQL(r.Table, c)
		if err != nil {
			return nil, fmt.Errorf("reconcile: %w", err)
		}
		if err := r.Repo.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("reconcile: add column %s: %w", c.Name, err)
		}
	}
	return names, nil
}
