// Package postgres implements the warehouse Repository on Postgres using
// pgx v5. Bulk loads stream headerless CSV through COPY ... FROM STDIN inside
// a single transaction, so a failed load leaves no partial rows behind.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	close := func() { pool.Close() }
	return &Repository{pool: pool, cfg: cfg}, close, nil
}

const columnsSQL = `
SELECT column_name
  FROM information_schema.columns
 WHERE table_schema = COALESCE($1::text, current_schema())
   AND table_name = $2
 ORDER BY ordinal_position`

// Columns returns the column names of table in ordinal order. An unqualified
// name resolves against current_schema().
func (r *Repository) Columns(ctx context.Context, table string) ([]string, error) {
	schemaName, tableName := splitFQN(table)
	rows, err := r.pool.Query(ctx, columnsSQL, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table, err)
	}
	return cols, nil
}

// Exec runs a single statement on a pooled connection.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return pgErrorf("exec", err)
	}
	return nil
}

// CopyCSV streams headerless CSV from src into table's columns via
// COPY ... FROM STDIN and commits. Empty unquoted fields load as NULL.
func (r *Repository) CopyCSV(ctx context.Context, table string, columns []string, src io.Reader) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("copy into %s: no columns", table)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Conn().PgConn().CopyFrom(ctx, src, copySQL(table, columns))
	if err != nil {
		return 0, pgErrorf("copy into "+table, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return tag.RowsAffected(), nil
}

func copySQL(table string, columns []string) string {
	return fmt.Sprintf("COPY %s (%s) FROM STDIN WITH (FORMAT csv)",
		pgFQN(table), strings.Join(mapIdent(columns), ", "))
}

// pgErrorf surfaces the server-side detail of a *pgconn.PgError when present.
func pgErrorf(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%s: %s: %s (%s): %w", op, pgErr.Message, pgErr.Detail, pgErr.SQLState(), err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// splitFQN splits "schema.table" into its parts. A bare table yields a nil
// schema so the query falls back to current_schema().
func splitFQN(name string) (*string, string) {
	if i := strings.LastIndex(name, "."); i >= 0 {
		s := name[:i]
		return &s, name[i+1:]
	}
	return nil, name
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.nyc_raw" to
// "public"."nyc_raw". If no dot is present, returns a single quoted ident.
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

// mapIdent maps a list of column names to their quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgIdent(c)
	}
	return out
}
