// Package table is the Table Provider of the generator: an ordered set of
// unique column names plus rows of typed cells, loaded from delimited text
// or XLSX workbooks.
package table

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
var (
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrRowOutOfRange   = errors.New("row out of range")
	ErrCellOutOfRange  = errors.New("cell out of range")
)

// Table holds rows positionally aligned to its columns. Rows are allowed to
// be shorter than the column set; reading a missing cell fails with
// ErrCellOutOfRange instead of wrapping or defaulting.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New creates an empty table with the given columns.
func New(columns ...string) (*Table, error) {
	t := &Table{index: make(map[string]int, len(columns))}
	if err := t.AddColumns(columns...); err != nil {
		return nil, err
	}
	return t, nil
}

// Columns returns a copy of the column names in insertion order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether name is a column of t.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// AddColumns appends columns; existing rows are padded with empty text.
func (t *Table) AddColumns(names ...string) error {
	for _, name := range names {
		if _, ok := t.index[name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		t.index[name] = len(t.columns)
		t.columns = append(t.columns, name)
	}
	for i, row := range t.rows {
		for len(row) < len(t.columns) {
			row = append(row, Text(""))
		}
		t.rows[i] = row
	}
	return nil
}

// AddRow appends a row. Its length is not checked against the columns.
func (t *Table) AddRow(values ...Value) {
	row := make([]Value, len(values))
	copy(row, values)
	t.rows = append(t.rows, row)
}

// AddRows appends n rows of empty text cells.
func (t *Table) AddRows(n int) {
	for ; n > 0; n-- {
		t.rows = append(t.rows, make([]Value, len(t.columns)))
	}
}

// Row returns a copy of row i.
func (t *Table) Row(i int) ([]Value, error) {
	if i < 0 || i >= len(t.rows) {
		return nil, fmt.Errorf("%w: %d", ErrRowOutOfRange, i)
	}
	out := make([]Value, len(t.rows[i]))
	copy(out, t.rows[i])
	return out, nil
}

// Cell returns the value at (column, row).
func (t *Table) Cell(column string, row int) (Value, error) {
	idx, ok := t.index[column]
	if !ok {
		return Value{}, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	if row < 0 || row >= len(t.rows) {
		return Value{}, fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	if idx >= len(t.rows[row]) {
		return Value{}, fmt.Errorf("%w: %q in row %d", ErrCellOutOfRange, column, row)
	}
	return t.rows[row][idx], nil
}

// Set replaces the value at (column, row).
func (t *Table) Set(column string, row int, v Value) error {
	idx, ok := t.index[column]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	if row < 0 || row >= len(t.rows) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	for len(t.rows[row]) <= idx {
		t.rows[row] = append(t.rows[row], Text(""))
	}
	t.rows[row][idx] = v
	return nil
}

// Column returns every cell of column in row order.
func (t *Table) Column(column string) ([]Value, error) {
	idx, ok := t.index[column]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	out := make([]Value, len(t.rows))
	for i, row := range t.rows {
		if idx >= len(row) {
			return nil, fmt.Errorf("%w: %q in row %d", ErrCellOutOfRange, column, i)
		}
		out[i] = row[idx]
	}
	return out, nil
}

// fromRecords builds a table from raw string records. Without transpose the
// first record holds the column names; with transpose the first field of
// every record is a column name and the remaining fields are its values.
func fromRecords(records [][]string, transpose bool) (*Table, error) {
	if transpose {
		return fromColumns(records)
	}
	if len(records) == 0 {
		return New()
	}
	t, err := New(records[0]...)
	if err != nil {
		return nil, err
	}
	for _, rec := range records[1:] {
		row := make([]Value, len(rec))
		for i, raw := range rec {
			row[i] = Infer(raw)
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func fromColumns(records [][]string) (*Table, error) {
	t, err := New()
	if err != nil {
		return nil, err
	}
	width := 0
	for _, rec := range records {
		if len(rec) == 0 {
			continue
		}
		if err := t.AddColumns(rec[0]); err != nil {
			return nil, err
		}
		if len(rec)-1 > width {
			width = len(rec) - 1
		}
	}
	t.AddRows(width)
	col := 0
	for _, rec := range records {
		if len(rec) == 0 {
			continue
		}
		for r, raw := range rec[1:] {
			t.rows[r][col] = Infer(raw)
		}
		col++
	}
	return t, nil
}
