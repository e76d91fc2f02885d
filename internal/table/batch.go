// Package table holds the in-memory row batch passed between the Parquet
// reader, the normalizer and the bulk loader.
package table

import "io"

// Batch is a column-named block of rows. Every row has len(Columns) cells;
// a cell is nil, int64, float64, string, bool or time.Time.
type Batch struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Rows)
}

// Index returns the position of column name, or -1.
func (b *Batch) Index(name string) int {
	for i, c := range b.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Source yields batches until it returns io.EOF.
type Source interface {
	Next() (*Batch, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (*Batch, error)

// Next calls f.
func (f SourceFunc) Next() (*Batch, error) { return f() }

// FromBatches returns a Source over the given batches, in order.
func FromBatches(batches ...*Batch) Source {
	i := 0
	return SourceFunc(func() (*Batch, error) {
		if i >= len(batches) {
			return nil, io.EOF
		}
		b := batches[i]
		i++
		return b, nil
	})
}

// Map returns a Source that applies fn to every batch of src.
func Map(src Source, fn func(*Batch) (*Batch, error)) Source {
	return SourceFunc(func() (*Batch, error) {
		b, err := src.Next()
		if err != nil {
			return nil, err
		}
		return fn(b)
	})
}
