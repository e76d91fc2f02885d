package table

import (
	"errors"
	"io"
	"testing"
)

func TestBatchIndexAndLen(t *testing.T) {
	t.Parallel()

	b := &Batch{Columns: []string{"a", "b"}, Rows: [][]any{{int64(1), nil}, {int64(2), 3.5}}}
	if got := b.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
	if got := b.Index("b"); got != 1 {
		t.Fatalf("Index(b) = %d, want 1", got)
	}
	if got := b.Index("z"); got != -1 {
		t.Fatalf("Index(z) = %d, want -1", got)
	}
	var nilBatch *Batch
	if nilBatch.Len() != 0 {
		t.Fatalf("nil Len() != 0")
	}
}

func TestFromBatchesAndMap(t *testing.T) {
	t.Parallel()

	one := &Batch{Columns: []string{"a"}, Rows: [][]any{{int64(1)}}}
	two := &Batch{Columns: []string{"a"}, Rows: [][]any{{int64(2)}, {int64(3)}}}

	var seen int
	src := Map(FromBatches(one, two), func(b *Batch) (*Batch, error) {
		seen += b.Len()
		return b, nil
	})
	for {
		_, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next error: %v", err)
		}
	}
	if seen != 3 {
		t.Fatalf("rows seen = %d, want 3", seen)
	}

	boom := errors.New("boom")
	failing := Map(FromBatches(one), func(*Batch) (*Batch, error) { return nil, boom })
	if _, err := failing.Next(); !errors.Is(err, boom) {
		t.Fatalf("Map error = %v, want %v", err, boom)
	}
}
