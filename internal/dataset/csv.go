package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Column name keywords that suggest a logical type. Matching is against
// whole words of the header, checked in this order: date, number, bool.
// Word matching keeps short keywords like "at" and "is" from firing inside
// longer words ("Reservation", "Discount").
var (
	dateKeywords    = []string{"date", "time", "at"}
	numericKeywords = []string{"cost", "charge", "price", "amount", "size", "days", "discount"}
	boolKeywords    = []string{"is", "was", "has", "available", "completed", "selected", "required", "applied"}
)

// dateLayouts are the accepted textual date formats, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"01/02/2006 15:04",
	"2006/01/02",
}

// KindForName suggests a column kind from its header name alone.
func KindForName(name string) Kind {
	words := headerWords(name)
	for _, kw := range dateKeywords {
		if words[kw] {
			return KindDate
		}
	}
	for _, kw := range numericKeywords {
		if words[kw] {
			return KindNumber
		}
	}
	for _, kw := range boolKeywords {
		if words[kw] {
			return KindBool
		}
	}
	return KindString
}

// headerWords splits a header into its lower-cased words, treating any
// non-alphanumeric run as a separator.
func headerWords(name string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		words[w] = true
	}
	return words
}

// ParseCSV reads a CSV document with a header row into a typed Frame. Column
// kinds are suggested by header keywords and confirmed against the data: a
// suggested kind is adopted only when every non-null cell parses as that
// kind, otherwise the column stays a string column. Currency markers ($ and
// thousands separators) are stripped before numeric parsing.
func ParseCSV(r io.Reader, name string) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("dataset %q is empty", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %q: %w", name, err)
	}

	raw := make([][]string, len(header))
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", name, err)
		}
		for i := range header {
			raw[i] = append(raw[i], record[i])
		}
	}

	columns := make([]*Column, len(header))
	for i, colName := range header {
		columns[i] = buildColumn(strings.TrimSpace(colName), raw[i])
	}
	return NewFrame(name, columns), nil
}

// buildColumn types a single raw column.
func buildColumn(name string, cells []string) *Column {
	col := &Column{
		Name: name,
		Kind: KindString,
		Raw:  cells,
		Null: make([]bool, len(cells)),
	}
	for i, cell := range cells {
		col.Null[i] = isNullToken(cell)
	}

	switch KindForName(name) {
	case KindDate:
		if times, ok := parseAllDates(col); ok {
			col.Kind = KindDate
			col.Times = times
		}
	case KindNumber:
		if numbers, ok := parseAllNumbers(col); ok {
			col.Kind = KindNumber
			col.Numbers = numbers
		}
	case KindBool:
		if bools, ok := parseAllBools(col); ok {
			col.Kind = KindBool
			col.Bools = bools
		}
	}
	return col
}

func parseAllDates(col *Column) ([]time.Time, bool) {
	times := make([]time.Time, len(col.Raw))
	sawValue := false
	for i, cell := range col.Raw {
		if col.Null[i] {
			continue
		}
		t, ok := parseDate(cell)
		if !ok {
			return nil, false
		}
		times[i] = t
		sawValue = true
	}
	return times, sawValue
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseAllNumbers(col *Column) ([]float64, bool) {
	numbers := make([]float64, len(col.Raw))
	sawValue := false
	for i, cell := range col.Raw {
		if col.Null[i] {
			continue
		}
		v, ok := parseNumber(cell)
		if !ok {
			return nil, false
		}
		numbers[i] = v
		sawValue = true
	}
	return numbers, sawValue
}

// parseNumber parses a numeric cell, tolerating currency notation such as
// "$1,234.50" and parenthesized negatives.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

func parseAllBools(col *Column) ([]bool, bool) {
	bools := make([]bool, len(col.Raw))
	sawValue := false
	for i, cell := range col.Raw {
		if col.Null[i] {
			continue
		}
		v, ok := parseBool(cell)
		if !ok {
			return nil, false
		}
		bools[i] = v
		sawValue = true
	}
	return bools, sawValue
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1":
		return true, true
	case "false", "no", "n", "0":
		return false, true
	}
	return false, false
}
