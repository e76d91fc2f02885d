package parquetio

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"nyctaxi/internal/table"
)

// DefaultBatchSize is the number of rows decoded per batch when the caller
// does not choose one.
const DefaultBatchSize = 64 * 1024

// Reader streams a Parquet file as table batches. It implements table.Source.
type Reader struct {
	path   string
	pf     *file.Reader
	rr     pqarrow.RecordReader
	schema Schema
}

// Open opens path for batched reading. batchSize <= 0 selects
// DefaultBatchSize. The caller must Close the Reader.
func Open(ctx context.Context, path string, batchSize int) (*Reader, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	pf, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("parquetio: open %s: %w", path, err)
	}
	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: int64(batchSize)}, memory.DefaultAllocator)
	if err != nil {
		_ = pf.Close()
		return nil, fmt.Errorf("parquetio: reader %s: %w", path, err)
	}
	as, err := fr.Schema()
	if err != nil {
		_ = pf.Close()
		return nil, fmt.Errorf("parquetio: schema %s: %w", path, err)
	}
	rr, err := fr.GetRecordReader(ctx, nil, nil)
	if err != nil {
		_ = pf.Close()
		return nil, fmt.Errorf("parquetio: record reader %s: %w", path, err)
	}
	return &Reader{path: path, pf: pf, rr: rr, schema: schemaFromArrow(as)}, nil
}

// Schema returns the file's columns and their kinds.
func (r *Reader) Schema() Schema { return r.schema }

// NumRows returns the row count recorded in the file footer.
func (r *Reader) NumRows() int64 { return r.pf.NumRows() }

// Next decodes the next batch. It returns io.EOF after the last one.
func (r *Reader) Next() (*table.Batch, error) {
	if !r.rr.Next() {
		if err := r.rr.Err(); err != nil && err != io.EOF {
			return nil, fmt.Errorf("parquetio: read %s: %w", r.path, err)
		}
		return nil, io.EOF
	}
	rec := r.rr.Record()
	b, err := recordToBatch(rec)
	if err != nil {
		return nil, fmt.Errorf("parquetio: decode %s: %w", r.path, err)
	}
	return b, nil
}

// Close releases the record reader and the underlying file.
func (r *Reader) Close() error {
	r.rr.Release()
	return r.pf.Close()
}

// SchemaOf reads only the footer of path and returns its schema.
func SchemaOf(path string) (Schema, error) {
	pf, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("parquetio: open %s: %w", path, err)
	}
	defer pf.Close()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("parquetio: reader %s: %w", path, err)
	}
	as, err := fr.Schema()
	if err != nil {
		return nil, fmt.Errorf("parquetio: schema %s: %w", path, err)
	}
	return schemaFromArrow(as), nil
}

// ReadAll loads the whole file into one batch.
func ReadAll(ctx context.Context, path string) (*table.Batch, error) {
	r, err := Open(ctx, path, 0)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out := &table.Batch{Columns: r.Schema().Names()}
	for {
		b, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out.Rows = append(out.Rows, b.Rows...)
	}
}

func recordToBatch(rec arrow.Record) (*table.Batch, error) {
	ncols := int(rec.NumCols())
	nrows := int(rec.NumRows())

	b := &table.Batch{Columns: make([]string, ncols), Rows: make([][]any, nrows)}
	for i := range b.Rows {
		b.Rows[i] = make([]any, ncols)
	}
	for c := 0; c < ncols; c++ {
		b.Columns[c] = rec.ColumnName(c)
		col := rec.Column(c)
		for i := 0; i < nrows; i++ {
			v, err := value(col, i)
			if err != nil {
				return nil, fmt.Errorf("column %s row %d: %w", b.Columns[c], i, err)
			}
			b.Rows[i][c] = v
		}
	}
	return b, nil
}

// value decodes one cell into nil, int64, float64, string, bool or time.Time.
func value(arr arrow.Array, i int) (any, error) {
	if arr.IsNull(i) {
		return nil, nil
	}
	switch a := arr.(type) {
	case *array.Int8:
		return int64(a.Value(i)), nil
	case *array.Int16:
		return int64(a.Value(i)), nil
	case *array.Int32:
		return int64(a.Value(i)), nil
	case *array.Int64:
		return a.Value(i), nil
	case *array.Uint8:
		return int64(a.Value(i)), nil
	case *array.Uint16:
		return int64(a.Value(i)), nil
	case *array.Uint32:
		return int64(a.Value(i)), nil
	case *array.Uint64:
		u := a.Value(i)
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("uint64 %d overflows int64", u)
		}
		return int64(u), nil
	case *array.Float16:
		return float64(a.Value(i).Float32()), nil
	case *array.Float32:
		return float64(a.Value(i)), nil
	case *array.Float64:
		return a.Value(i), nil
	case *array.Boolean:
		return a.Value(i), nil
	case *array.String:
		return a.Value(i), nil
	case *array.LargeString:
		return a.Value(i), nil
	case *array.Binary:
		return string(a.Value(i)), nil
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit).UTC(), nil
	case *array.Date32:
		return a.Value(i).ToTime().UTC(), nil
	case *array.Date64:
		return a.Value(i).ToTime().UTC(), nil
	case *array.Dictionary:
		return value(a.Dictionary(), a.GetValueIndex(i))
	default:
		return arr.ValueStr(i), nil
	}
}
