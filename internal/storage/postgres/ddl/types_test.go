package ddl

import (
	"testing"

	"nyctaxi/internal/schema"
)

func TestMapType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   schema.Type
		want string
	}{
		{in: schema.Integer, want: "INTEGER"},
		{in: schema.Double, want: "DOUBLE PRECISION"},
		{in: schema.Type(42), want: "DOUBLE PRECISION"},
	}
	for _, tt := range tests {
		if got := MapType(tt.in); got != tt.want {
			t.Fatalf("MapType(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
