package dataset

import (
	"strings"
	"time"
)

// Kind is the inferred logical type of a column.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindDate
	KindBool
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindBool:
		return "bool"
	default:
		return "string"
	}
}

// Column holds a single column of a Frame. Raw always carries the original
// cell text; the typed slices are populated only for the matching Kind and
// are index-aligned with Raw and Null.
type Column struct {
	Name    string
	Kind    Kind
	Raw     []string
	Null    []bool
	Numbers []float64
	Times   []time.Time
	Bools   []bool
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	return len(c.Raw)
}

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	n := 0
	for _, isNull := range c.Null {
		if isNull {
			n++
		}
	}
	return n
}

// NumberValues returns the non-null numeric values of a number column.
func (c *Column) NumberValues() []float64 {
	if c.Kind != KindNumber {
		return nil
	}
	out := make([]float64, 0, len(c.Numbers))
	for i, v := range c.Numbers {
		if !c.Null[i] {
			out = append(out, v)
		}
	}
	return out
}

// TimeValues returns the non-null date values of a date column.
func (c *Column) TimeValues() []time.Time {
	if c.Kind != KindDate {
		return nil
	}
	out := make([]time.Time, 0, len(c.Times))
	for i, v := range c.Times {
		if !c.Null[i] {
			out = append(out, v)
		}
	}
	return out
}

// StringValues returns the non-null raw cell values.
func (c *Column) StringValues() []string {
	out := make([]string, 0, len(c.Raw))
	for i, v := range c.Raw {
		if !c.Null[i] {
			out = append(out, v)
		}
	}
	return out
}

// ValueCounts returns the distinct non-null raw values of the column with
// their occurrence counts.
func (c *Column) ValueCounts() map[string]int {
	counts := make(map[string]int)
	for i, v := range c.Raw {
		if !c.Null[i] {
			counts[v]++
		}
	}
	return counts
}

// UniqueCount returns the number of distinct non-null raw values.
func (c *Column) UniqueCount() int {
	return len(c.ValueCounts())
}

// NumberAt returns the numeric value of the cell at row i and whether it is
// present. It works for number columns only.
func (c *Column) NumberAt(i int) (float64, bool) {
	if c.Kind != KindNumber || i >= len(c.Numbers) || c.Null[i] {
		return 0, false
	}
	return c.Numbers[i], true
}

// nullTokens are cell values treated as missing, compared case-insensitively.
var nullTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"null": true,
	"nan":  true,
	"none": true,
}

// isNullToken reports whether a raw cell value represents a missing value.
func isNullToken(s string) bool {
	return nullTokens[strings.ToLower(strings.TrimSpace(s))]
}
