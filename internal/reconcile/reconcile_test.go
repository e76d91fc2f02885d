package reconcile

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"nyctaxi/internal/schema"
	"nyctaxi/internal/storage"
	_ "nyctaxi/internal/storage/postgres"
)

// memRepo tracks a column list and applies the DDL the reconciler emits.
type memRepo struct {
	cols    []string
	execs   []string
	failOn  string
	execErr error
}

func (m *memRepo) Columns(context.Context, string) ([]string, error) {
	return append([]string(nil), m.cols...), nil
}

func (m *memRepo) Exec(_ context.Context, sql string) error {
	m.execs = append(m.execs, sql)
	if m.failOn != "" && strings.Contains(sql, m.failOn) {
		return m.execErr
	}
	switch {
	case strings.HasPrefix(sql, "ALTER TABLE"):
		// ALTER TABLE "t" ADD COLUMN "name" TYPE;
		rest := sql[strings.Index(sql, "ADD COLUMN ")+len("ADD COLUMN "):]
		name := strings.Trim(strings.Fields(rest)[0], `"`)
		m.cols = append(m.cols, name)
	case strings.HasPrefix(sql, "CREATE TABLE"):
		m.cols = schema.ExpectedNames()
	}
	return nil
}

func (m *memRepo) CopyCSV(context.Context, string, []string, io.Reader) (int64, error) {
	return 0, nil
}
func (m *memRepo) Close() {}

func newReconciler(t *testing.T, repo storage.Repository, autoCreate bool) *Reconciler {
	t.Helper()
	d, err := storage.DialectFor("postgres")
	if err != nil {
		t.Fatalf("DialectFor error = %v", err)
	}
	return &Reconciler{Repo: repo, Dialect: d, Table: "nyc_raw", AutoCreate: autoCreate}
}

func TestRun_AddsMissingColumnsInOrder(t *testing.T) {
	t.Parallel()

	names := schema.ExpectedNames()
	present := []string{}
	for _, n := range names {
		if n != "airport_fee" && n != "congestion_surcharge" && n != "vendor_id" {
			present = append(present, n)
		}
	}
	repo := &memRepo{cols: present}

	added, err := newReconciler(t, repo, false).Run(context.Background())
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if want := []string{"vendor_id", "congestion_surcharge", "airport_fee"}; !reflect.DeepEqual(added, want) {
		t.Fatalf("added = %v, want %v", added, want)
	}
	wantSQL := []string{
		`ALTER TABLE "nyc_raw" ADD COLUMN "vendor_id" INTEGER;`,
		`ALTER TABLE "nyc_raw" ADD COLUMN "congestion_surcharge" DOUBLE PRECISION;`,
		`ALTER TABLE "nyc_raw" ADD COLUMN "airport_fee" DOUBLE PRECISION;`,
	}
	if !reflect.DeepEqual(repo.execs, wantSQL) {
		t.Fatalf("execs = %v, want %v", repo.execs, wantSQL)
	}
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	repo := &memRepo{cols: []string{"vendor_id", "extra_legacy"}}
	r := newReconciler(t, repo, false)

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("first Run error = %v", err)
	}
	first := len(repo.execs)
	if first != len(schema.Expected)-1 {
		t.Fatalf("first run issued %d statements, want %d", first, len(schema.Expected)-1)
	}

	added, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run error = %v", err)
	}
	if len(added) != 0 || len(repo.execs) != first {
		t.Fatalf("second run added %v and issued %d new statements", added, len(repo.execs)-first)
	}
}

func TestRun_AutoCreate(t *testing.T) {
	t.Parallel()

	repo := &memRepo{}
	added, err := newReconciler(t, repo, true).Run(context.Background())
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if len(added) != len(schema.Expected) {
		t.Fatalf("added %d columns, want %d", len(added), len(schema.Expected))
	}
	if len(repo.execs) != 1 || !strings.HasPrefix(repo.execs[0], `CREATE TABLE IF NOT EXISTS "nyc_raw"`) {
		t.Fatalf("execs = %v, want one CREATE TABLE", repo.execs)
	}
}

func TestRun_DDLErrorIsFatal(t *testing.T) {
	t.Parallel()

	boom := errors.New(`relation "nyc_raw" does not exist`)
	repo := &memRepo{failOn: "pickup_datetime", execErr: boom}

	_, err := newReconciler(t, repo, false).Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want %v", err, boom)
	}
	if len(repo.execs) != 2 {
		t.Fatalf("issued %d statements, want stop after the failing second one", len(repo.execs))
	}
}
