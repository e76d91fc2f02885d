package transformer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"nyctaxi/internal/schema"
	"nyctaxi/internal/table"
)

// ErrColumnCollision is returned when two source columns lowercase to the
// same name.
var ErrColumnCollision = errors.New("transformer: column names collide after lowercasing")

// Normalizer returns the chain that maps a raw batch onto the expected
// column list.
func Normalizer() Chain {
	return Chain{
		Lowercase{},
		CoerceIntegers{Columns: schema.IntegerCoerced},
		Conform{Columns: schema.ExpectedNames()},
	}
}

// Normalize applies Normalizer to b.
func Normalize(b *table.Batch) (*table.Batch, error) {
	return Normalizer().Apply(b)
}

// Lowercase lowercases every column name.
type Lowercase struct{}

func (Lowercase) Apply(b *table.Batch) (*table.Batch, error) {
	lower := cases.Lower(language.Und)
	cols := make([]string, len(b.Columns))
	seen := make(map[string]string, len(b.Columns))
	for i, c := range b.Columns {
		name := lower.String(c)
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %q and %q", ErrColumnCollision, prev, c)
		}
		seen[name] = c
		cols[i] = name
	}
	return &table.Batch{Columns: cols, Rows: b.Rows}, nil
}

// CoerceIntegers casts the listed columns to int64 where they exist. Nulls
// and NaN become 0; floats truncate toward zero.
type CoerceIntegers struct {
	Columns []string
}

func (c CoerceIntegers) Apply(b *table.Batch) (*table.Batch, error) {
	for _, name := range c.Columns {
		idx := b.Index(name)
		if idx < 0 {
			continue
		}
		for r, row := range b.Rows {
			n, err := toInt64(row[idx])
			if err != nil {
				return nil, fmt.Errorf("transformer: column %s row %d: %w", name, r, err)
			}
			row[idx] = n
		}
	}
	return b, nil
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return x, nil
	case float64:
		if math.IsNaN(x) {
			return 0, nil
		}
		if math.IsInf(x, 0) || x >= math.MaxInt64 || x < math.MinInt64 {
			return 0, fmt.Errorf("value %v out of integer range", x)
		}
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot cast %q to integer", x)
		}
		return toInt64(f)
	default:
		return 0, fmt.Errorf("cannot cast %T to integer", v)
	}
}

// Conform selects Columns in order, inserting all-null columns for names
// the batch lacks. Columns not listed are dropped.
type Conform struct {
	Columns []string
}

func (c Conform) Apply(b *table.Batch) (*table.Batch, error) {
	src := make([]int, len(c.Columns))
	for i, name := range c.Columns {
		src[i] = b.Index(name)
	}
	rows := make([][]any, len(b.Rows))
	for r, row := range b.Rows {
		out := make([]any, len(c.Columns))
		for i, j := range src {
			if j >= 0 {
				out[i] = row[j]
			}
		}
		rows[r] = out
	}
	cols := make([]string, len(c.Columns))
	copy(cols, c.Columns)
	return &table.Batch{Columns: cols, Rows: rows}, nil
}
