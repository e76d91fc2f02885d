// Package parquetio reads and writes Parquet files as table.Batch streams
// using Apache Arrow's pqarrow bridge. Values are decoded into a small set
// of Go types (int64, float64, string, bool, time.Time) so downstream code
// never touches Arrow arrays directly.
package parquetio

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// Kind is the coarse value type of a column.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTimestamp:
		return "timestamp"
	default:
		return "string"
	}
}

// Field is one named column of a Schema.
type Field struct {
	Name string
	Kind Kind
}

// Schema is an ordered list of fields.
type Schema []Field

// Names returns the field names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.Name
	}
	return out
}

// Union merges schemas by column name in first-seen order. A column whose
// kinds disagree is widened: int and float become float, any other mix
// becomes string.
func Union(schemas ...Schema) Schema {
	var out Schema
	pos := map[string]int{}
	for _, s := range schemas {
		for _, f := range s {
			i, ok := pos[f.Name]
			if !ok {
				pos[f.Name] = len(out)
				out = append(out, f)
				continue
			}
			out[i].Kind = widen(out[i].Kind, f.Kind)
		}
	}
	return out
}

func widen(a, b Kind) Kind {
	switch {
	case a == b:
		return a
	case (a == KindInt && b == KindFloat) || (a == KindFloat && b == KindInt):
		return KindFloat
	default:
		return KindString
	}
}

// kindOf maps an Arrow type onto a Kind. Unknown types read as strings.
func kindOf(dt arrow.DataType) Kind {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return KindInt
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return KindFloat
	case arrow.BOOL:
		return KindBool
	case arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
		return KindTimestamp
	case arrow.DICTIONARY:
		return kindOf(dt.(*arrow.DictionaryType).ValueType)
	default:
		return KindString
	}
}

func schemaFromArrow(as *arrow.Schema) Schema {
	out := make(Schema, 0, as.NumFields())
	for _, f := range as.Fields() {
		out = append(out, Field{Name: f.Name, Kind: kindOf(f.Type)})
	}
	return out
}

// arrowType is the physical Arrow type written for k.
func arrowType(k Kind) arrow.DataType {
	switch k {
	case KindInt:
		return arrow.PrimitiveTypes.Int64
	case KindFloat:
		return arrow.PrimitiveTypes.Float64
	case KindBool:
		return arrow.FixedWidthTypes.Boolean
	case KindTimestamp:
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
	default:
		return arrow.BinaryTypes.String
	}
}

func (s Schema) arrow() (*arrow.Schema, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("parquetio: empty schema")
	}
	seen := make(map[string]struct{}, len(s))
	fields := make([]arrow.Field, 0, len(s))
	for _, f := range s {
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("parquetio: duplicate column %q", f.Name)
		}
		seen[f.Name] = struct{}{}
		fields = append(fields, arrow.Field{Name: f.Name, Type: arrowType(f.Kind), Nullable: true})
	}
	return arrow.NewSchema(fields, nil), nil
}
