// Package period models calendar year-months, the unit in which the trip
// record source publishes files.
package period

import (
	"fmt"
	"time"
)

// Period is a single calendar month.
type Period struct {
	Year  int
	Month time.Month
}

// Parse parses a "YYYY-MM" string.
func Parse(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("period: %q is not YYYY-MM", s)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// String renders the period as "YYYY-MM".
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Next returns the following month.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Before reports whether p is strictly earlier than q.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

// Range expands the inclusive range [start, end] in chronological order.
// It returns an error when end precedes start.
func Range(start, end Period) ([]Period, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("period: end %s precedes start %s", end, start)
	}
	var out []Period
	for p := start; !end.Before(p); p = p.Next() {
		out = append(out, p)
	}
	return out, nil
}

// ParseRange parses and expands "YYYY-MM" bounds.
func ParseRange(start, end string) ([]Period, error) {
	s, err := Parse(start)
	if err != nil {
		return nil, err
	}
	e, err := Parse(end)
	if err != nil {
		return nil, err
	}
	return Range(s, e)
}
