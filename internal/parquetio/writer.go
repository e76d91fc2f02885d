package parquetio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"nyctaxi/internal/table"
)

// Writer writes table batches to one Parquet file under a fixed Schema.
// Batch columns are matched by name; schema columns absent from a batch are
// written as nulls and extra batch columns are ignored.
type Writer struct {
	path   string
	f      *os.File
	schema Schema
	as     *arrow.Schema
	fw     *pqarrow.FileWriter
	rows   int64
}

// Create truncates path and prepares a Writer for s.
func Create(path string, s Schema) (*Writer, error) {
	as, err := s.arrow()
	if err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("parquetio: create %s: %w", path, err)
	}
	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithCreatedBy("nyctaxi"),
	)
	fw, err := pqarrow.NewFileWriter(as, f, props, pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("parquetio: writer %s: %w", path, err)
	}
	return &Writer{path: path, f: f, schema: s, as: as, fw: fw}, nil
}

// Rows returns the number of rows written so far.
func (w *Writer) Rows() int64 { return w.rows }

// Write appends b as one record batch.
func (w *Writer) Write(b *table.Batch) error {
	if b.Len() == 0 {
		return nil
	}
	src := make([]int, len(w.schema))
	for i, f := range w.schema {
		src[i] = b.Index(f.Name)
	}

	rb := array.NewRecordBuilder(memory.DefaultAllocator, w.as)
	defer rb.Release()

	for i, f := range w.schema {
		fb := rb.Field(i)
		for r, row := range b.Rows {
			var v any
			if src[i] >= 0 {
				v = row[src[i]]
			}
			if err := appendValue(fb, f.Kind, v); err != nil {
				return fmt.Errorf("parquetio: %s: column %s row %d: %w", w.path, f.Name, r, err)
			}
		}
	}

	rec := rb.NewRecord()
	defer rec.Release()
	if err := w.fw.Write(rec); err != nil {
		return fmt.Errorf("parquetio: write %s: %w", w.path, err)
	}
	w.rows += int64(b.Len())
	return nil
}

// Close flushes the footer and closes the file.
func (w *Writer) Close() error {
	err := w.fw.Close()
	if cerr := w.f.Close(); cerr != nil && !errors.Is(cerr, os.ErrClosed) {
		err = errors.Join(err, cerr)
	}
	if err != nil {
		return fmt.Errorf("parquetio: close %s: %w", w.path, err)
	}
	return nil
}

// Concat writes every row of srcs, in order, to dst under the union of their
// schemas and returns the number of rows written. dst is removed on error.
func Concat(ctx context.Context, dst string, srcs []string, batchSize int) (int64, error) {
	if len(srcs) == 0 {
		return 0, fmt.Errorf("parquetio: concat: no input files")
	}
	schemas := make([]Schema, 0, len(srcs))
	for _, p := range srcs {
		s, err := SchemaOf(p)
		if err != nil {
			return 0, err
		}
		schemas = append(schemas, s)
	}

	w, err := Create(dst, Union(schemas...))
	if err != nil {
		return 0, err
	}
	if err := copyAll(ctx, w, srcs, batchSize); err != nil {
		_ = w.Close()
		_ = os.Remove(dst)
		return 0, err
	}
	if err := w.Close(); err != nil {
		_ = os.Remove(dst)
		return 0, err
	}
	return w.Rows(), nil
}

func copyAll(ctx context.Context, w *Writer, srcs []string, batchSize int) error {
	for _, p := range srcs {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := Open(ctx, p, batchSize)
		if err != nil {
			return err
		}
		for {
			b, err := r.Next()
			if err == io.EOF {
				break
			}
			if err == nil {
				err = w.Write(b)
			}
			if err != nil {
				_ = r.Close()
				return err
			}
		}
		if err := r.Close(); err != nil {
			return fmt.Errorf("parquetio: close %s: %w", p, err)
		}
	}
	return nil
}

func appendValue(b array.Builder, k Kind, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	switch fb := b.(type) {
	case *array.Int64Builder:
		n, ok := v.(int64)
		if !ok {
			return fmt.Errorf("cannot write %T as int", v)
		}
		fb.Append(n)
	case *array.Float64Builder:
		switch x := v.(type) {
		case float64:
			fb.Append(x)
		case int64:
			fb.Append(float64(x))
		default:
			return fmt.Errorf("cannot write %T as float", v)
		}
	case *array.BooleanBuilder:
		x, ok := v.(bool)
		if !ok {
			return fmt.Errorf("cannot write %T as bool", v)
		}
		fb.Append(x)
	case *array.TimestampBuilder:
		x, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("cannot write %T as timestamp", v)
		}
		ts, err := arrow.TimestampFromTime(x, arrow.Microsecond)
		if err != nil {
			return err
		}
		fb.Append(ts)
	case *array.StringBuilder:
		fb.Append(formatString(v))
	default:
		return fmt.Errorf("unsupported builder %T for kind %s", b, k)
	}
	return nil
}

// formatString renders a widened value as text.
func formatString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}
