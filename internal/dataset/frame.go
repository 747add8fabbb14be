package dataset

// Frame is an in-memory, column-oriented table parsed from a delimited source.
type Frame struct {
	Name    string
	Columns []*Column

	byName map[string]*Column
}

// NewFrame builds a frame from pre-constructed columns. All columns must have
// the same length.
func NewFrame(name string, columns []*Column) *Frame {
	f := &Frame{
		Name:    name,
		Columns: columns,
		byName:  make(map[string]*Column, len(columns)),
	}
	for _, col := range columns {
		f.byName[col.Name] = col
	}
	return f
}

// NumRows returns the number of data rows in the frame.
func (f *Frame) NumRows() int {
	if len(f.Columns) == 0 {
		return 0
	}
	return f.Columns[0].Len()
}

// NumCols returns the number of columns in the frame.
func (f *Frame) NumCols() int {
	return len(f.Columns)
}

// Column returns the named column, if present.
func (f *Frame) Column(name string) (*Column, bool) {
	col, ok := f.byName[name]
	return col, ok
}

// HasColumn reports whether the frame contains the named column.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.byName[name]
	return ok
}

// ColumnNames returns the column names in source order.
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.Columns))
	for i, col := range f.Columns {
		names[i] = col.Name
	}
	return names
}

// Row returns the raw cell values of row i in column order.
func (f *Frame) Row(i int) []string {
	row := make([]string, len(f.Columns))
	for j, col := range f.Columns {
		row[j] = col.Raw[i]
	}
	return row
}

// TotalCells returns rows times columns.
func (f *Frame) TotalCells() int {
	return f.NumRows() * f.NumCols()
}

// DuplicateRowCount returns the number of rows that are exact duplicates of
// an earlier row.
func (f *Frame) DuplicateRowCount() int {
	seen := make(map[string]bool, f.NumRows())
	dupes := 0
	for i := 0; i < f.NumRows(); i++ {
		key := rowKey(f.Row(i))
		if seen[key] {
			dupes++
		} else {
			seen[key] = true
		}
	}
	return dupes
}

// rowKey builds a collision-safe string key for a row.
func rowKey(cells []string) string {
	n := 0
	for _, c := range cells {
		n += len(c) + 1
	}
	b := make([]byte, 0, n)
	for _, c := range cells {
		b = append(b, c...)
		b = append(b, 0x1f)
	}
	return string(b)
}
