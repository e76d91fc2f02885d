package postgres

import (
	"context"

	"nyctaxi/internal/ddl"
	"nyctaxi/internal/schema"
	"nyctaxi/internal/storage"
	pgddl "nyctaxi/internal/storage/postgres/ddl"
)

// Kind is the storage kind this package registers.
const Kind = "postgres"

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepository = NewRepository

// wrappedRepo implements storage.Repository by delegating to the concrete
// *Repository while providing a Close method that calls the close function
// returned by NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

// Close implements storage.Repository.Close.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

// dialect renders Postgres DDL for the reconciler.
type dialect struct{}

var _ storage.Dialect = dialect{}

func (dialect) SQLType(t schema.Type) string { return pgddl.MapType(t) }

func (dialect) CreateTableSQL(def ddl.TableDef) (string, error) {
	return pgddl.BuildCreateTableSQL(def)
}

func (dialect) AddColumnSQL(table string, col ddl.ColumnDef) (string, error) {
	return pgddl.BuildAddColumnSQL(table, col)
}

// init registers the "postgres" backend and its DDL dialect. The libpq URL
// scheme "postgresql" is registered as an alias.
//
// Typical usage:
//
//	repo, err := storage.New(ctx, storage.Config{Kind: "postgres", DSN: dsn})
//	defer repo.Close()
func init() {
	factory := func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	}
	for _, kind := range []string{Kind, "postgresql"} {
		storage.Register(kind, factory)
		storage.RegisterDialect(kind, dialect{})
	}
}
