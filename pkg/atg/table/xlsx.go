package table

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXOptions controls workbook loading.
type XLSXOptions struct {
	// Sheet to read; empty selects the active sheet.
	Sheet string
	// Transpose reads one column per sheet row.
	Transpose bool
}

// ReadXLSX loads a table from one sheet of an XLSX workbook. Cells are read
// as their formatted text and typed with Infer, like delimited input.
func ReadXLSX(r io.Reader, opts XLSXOptions) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return fromRecords(padRecords(rows, opts.Transpose), opts.Transpose)
}

// padRecords restores the empty trailing cells GetRows leaves out, so an
// empty cell inside the sheet reads as empty text rather than a missing cell.
// Data rows are padded to the header width, or to the widest record when
// transposed.
func padRecords(rows [][]string, transpose bool) [][]string {
	if len(rows) == 0 {
		return rows
	}
	width := len(rows[0])
	if transpose {
		for _, rec := range rows {
			if len(rec) > width {
				width = len(rec)
			}
		}
	}
	for i, rec := range rows {
		if len(rec) == 0 || len(rec) >= width {
			continue
		}
		padded := make([]string, width)
		copy(padded, rec)
		rows[i] = padded
	}
	return rows
}
