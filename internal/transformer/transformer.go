// Package transformer turns raw trip batches into rows that match the
// warehouse column contract.
//
// The normalizer is a Chain of three steps, applied in order:
//
//  1. Lowercase every column name.
//  2. Coerce the integer identifier columns that are present (null -> 0).
//  3. Conform to the expected columns: pad missing ones with nulls, drop
//     extras, reorder.
//
// Each step returns a new batch header; row slices are rewritten in place.
package transformer

import "nyctaxi/internal/table"

// Transformer rewrites one batch.
type Transformer interface {
	Apply(b *table.Batch) (*table.Batch, error)
}

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs every transformer in order, stopping at the first error.
func (c Chain) Apply(in *table.Batch) (*table.Batch, error) {
	out := in
	for _, t := range c {
		var err error
		if out, err = t.Apply(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}
