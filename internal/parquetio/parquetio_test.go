package parquetio

import (
	"context"
	"io"
	"math"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"nyctaxi/internal/table"
)

func writeFile(t *testing.T, path string, s Schema, batches ...*table.Batch) {
	t.Helper()

	w, err := Create(path, s)
	if err != nil {
		t.Fatalf("Create(%s) error = %v", path, err)
	}
	for _, b := range batches {
		if err := w.Write(b); err != nil {
			t.Fatalf("Write error = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	ts := time.Date(2023, 1, 1, 0, 32, 10, 0, time.UTC)
	s := Schema{
		{Name: "VendorID", Kind: KindInt},
		{Name: "tpep_pickup_datetime", Kind: KindTimestamp},
		{Name: "fare_amount", Kind: KindFloat},
		{Name: "store_and_fwd_flag", Kind: KindString},
		{Name: "flag", Kind: KindBool},
	}
	in := &table.Batch{
		Columns: s.Names(),
		Rows: [][]any{
			{int64(2), ts, 14.9, "N", true},
			{nil, nil, nil, nil, nil},
		},
	}

	path := filepath.Join(t.TempDir(), "trips.parquet")
	writeFile(t, path, s, in)

	got, err := ReadAll(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadAll error = %v", err)
	}
	if !reflect.DeepEqual(got.Columns, in.Columns) {
		t.Fatalf("Columns = %v, want %v", got.Columns, in.Columns)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(got.Rows))
	}
	row := got.Rows[0]
	if row[0] != int64(2) || row[2] != 14.9 || row[3] != "N" || row[4] != true {
		t.Fatalf("row 0 = %#v", row)
	}
	if gotTS, ok := row[1].(time.Time); !ok || !gotTS.Equal(ts) {
		t.Fatalf("timestamp = %#v, want %v", row[1], ts)
	}
	for i, v := range got.Rows[1] {
		if v != nil {
			t.Fatalf("row 1 col %d = %#v, want nil", i, v)
		}
	}

	schema, err := SchemaOf(path)
	if err != nil {
		t.Fatalf("SchemaOf error = %v", err)
	}
	if !reflect.DeepEqual(schema, s) {
		t.Fatalf("SchemaOf = %+v, want %+v", schema, s)
	}
}

func TestReaderBatches(t *testing.T) {
	t.Parallel()

	s := Schema{{Name: "n", Kind: KindInt}}
	b := &table.Batch{Columns: []string{"n"}}
	for i := 0; i < 10; i++ {
		b.Rows = append(b.Rows, []any{int64(i)})
	}
	path := filepath.Join(t.TempDir(), "n.parquet")
	writeFile(t, path, s, b)

	r, err := Open(context.Background(), path, 4)
	if err != nil {
		t.Fatalf("Open error = %v", err)
	}
	defer r.Close()

	if r.NumRows() != 10 {
		t.Fatalf("NumRows = %d, want 10", r.NumRows())
	}
	var total int
	for {
		got, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next error = %v", err)
		}
		if got.Len() > 4 {
			t.Fatalf("batch of %d rows exceeds batch size 4", got.Len())
		}
		total += got.Len()
	}
	if total != 10 {
		t.Fatalf("total rows = %d, want 10", total)
	}
}

func TestUnion(t *testing.T) {
	t.Parallel()

	a := Schema{{Name: "id", Kind: KindInt}, {Name: "fee", Kind: KindInt}, {Name: "flag", Kind: KindString}}
	b := Schema{{Name: "fee", Kind: KindFloat}, {Name: "flag", Kind: KindBool}, {Name: "airport_fee", Kind: KindFloat}}

	got := Union(a, b)
	want := Schema{
		{Name: "id", Kind: KindInt},
		{Name: "fee", Kind: KindFloat},
		{Name: "flag", Kind: KindString},
		{Name: "airport_fee", Kind: KindFloat},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Union = %+v, want %+v", got, want)
	}
}

func TestWriterRejectsDuplicateColumns(t *testing.T) {
	t.Parallel()

	s := Schema{{Name: "a", Kind: KindInt}, {Name: "a", Kind: KindFloat}}
	if _, err := Create(filepath.Join(t.TempDir(), "dup.parquet"), s); err == nil {
		t.Fatalf("Create with duplicate columns: error = nil")
	}
}

func TestWriterTypeMismatch(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.parquet")
	w, err := Create(path, Schema{{Name: "a", Kind: KindInt}})
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}
	defer w.Close()

	err = w.Write(&table.Batch{Columns: []string{"a"}, Rows: [][]any{{"x"}}})
	if err == nil {
		t.Fatalf("Write string into int column: error = nil")
	}
}

func TestConcatUnionsAndPads(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jan := filepath.Join(dir, "yellow_tripdata_2023-01.parquet")
	feb := filepath.Join(dir, "yellow_tripdata_2023-02.parquet")

	writeFile(t, jan, Schema{{Name: "VendorID", Kind: KindInt}, {Name: "fare", Kind: KindInt}},
		&table.Batch{Columns: []string{"VendorID", "fare"}, Rows: [][]any{{int64(1), int64(10)}}})
	writeFile(t, feb, Schema{{Name: "VendorID", Kind: KindInt}, {Name: "fare", Kind: KindFloat}, {Name: "airport_fee", Kind: KindFloat}},
		&table.Batch{Columns: []string{"VendorID", "fare", "airport_fee"}, Rows: [][]any{{int64(2), 7.5, 1.25}, {int64(2), math.Inf(1), nil}}})

	out := filepath.Join(dir, "yellow_tripdata_2023.parquet")
	n, err := Concat(context.Background(), out, []string{jan, feb}, 0)
	if err != nil {
		t.Fatalf("Concat error = %v", err)
	}
	if n != 3 {
		t.Fatalf("Concat rows = %d, want 3", n)
	}

	got, err := ReadAll(context.Background(), out)
	if err != nil {
		t.Fatalf("ReadAll error = %v", err)
	}
	if want := []string{"VendorID", "fare", "airport_fee"}; !reflect.DeepEqual(got.Columns, want) {
		t.Fatalf("Columns = %v, want %v", got.Columns, want)
	}
	if got.Rows[0][1] != 10.0 || got.Rows[0][2] != nil {
		t.Fatalf("first row = %#v, want widened fare and null airport_fee", got.Rows[0])
	}
	if got.Rows[1][0] != int64(2) || got.Rows[1][2] != 1.25 {
		t.Fatalf("second row = %#v", got.Rows[1])
	}
}

func TestConcatNoInputs(t *testing.T) {
	t.Parallel()

	if _, err := Concat(context.Background(), filepath.Join(t.TempDir(), "x.parquet"), nil, 0); err == nil {
		t.Fatalf("Concat(nil) error = nil")
	}
}

func TestValueUint64Range(t *testing.T) {
	t.Parallel()

	bld := array.NewUint64Builder(memory.DefaultAllocator)
	defer bld.Release()
	bld.AppendValues([]uint64{42, math.MaxInt64, math.MaxInt64 + 1}, nil)
	arr := bld.NewUint64Array()
	defer arr.Release()

	for i, want := range []int64{42, math.MaxInt64} {
		got, err := value(arr, i)
		if err != nil || got != want {
			t.Fatalf("value(%d) = %v, %v; want %d", i, got, err, want)
		}
	}
	if got, err := value(arr, 2); err == nil {
		t.Fatalf("value(MaxInt64+1) = %v, want overflow error", got)
	}
}
