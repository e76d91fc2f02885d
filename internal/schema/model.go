// Package schema holds the fixed column contract of the trip table: the
// ordered expected columns, their logical types, and the subset coerced to
// integers during normalization.
package schema

// Type is the logical type of an expected column.
type Type int

const (
	// Double is a double-precision floating-point column.
	Double Type = iota
	// Integer is a 32-bit integer column.
	Integer
)

// String returns the lowercase type name.
func (t Type) String() string {
	if t == Integer {
		return "integer"
	}
	return "double"
}

// Column is one expected column.
type Column struct {
	Name string
	Type Type
}

// Expected is the ordered column list every loaded row conforms to. Only the
// three location/vendor identifiers are INTEGER in the warehouse; everything
// else is DOUBLE PRECISION.
var Expected = []Column{
	{Name: "vendor_id", Type: Integer},
	{Name: "pickup_datetime", Type: Double},
	{Name: "dropoff_datetime", Type: Double},
	{Name: "passenger_count", Type: Double},
	{Name: "trip_distance", Type: Double},
	{Name: "rate_code", Type: Double},
	{Name: "store_and_fwd_flag", Type: Double},
	{Name: "pickup_location_id", Type: Integer},
	{Name: "dropoff_location_id", Type: Integer},
	{Name: "payment_type", Type: Double},
	{Name: "fare_amount", Type: Double},
	{Name: "extra", Type: Double},
	{Name: "mta_tax", Type: Double},
	{Name: "tip_amount", Type: Double},
	{Name: "tolls_amount", Type: Double},
	{Name: "improvement_surcharge", Type: Double},
	{Name: "total_amount", Type: Double},
	{Name: "congestion_surcharge", Type: Double},
	{Name: "airport_fee", Type: Double},
}

// IntegerCoerced lists the identifier-like columns whose nulls become 0 and
// whose values are cast to integers before loading.
var IntegerCoerced = []string{
	"vendor_id",
	"passenger_count",
	"rate_code",
	"pickup_location_id",
	"dropoff_location_id",
	"payment_type",
}

// ExpectedNames returns the names of Expected, in order.
func ExpectedNames() []string {
	names := make([]string, len(Expected))
	for i, c := range Expected {
		names[i] = c.Name
	}
	return names
}
