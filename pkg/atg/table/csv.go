package table

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/KaiSD/att/pkg/atg/textenc"
)

// CSVOptions controls delimited-text loading.
type CSVOptions struct {
	// Delimiter separates fields. Zero means ';', the spreadsheet-export default.
	Delimiter rune
	// Encoding of the input bytes; empty means UTF-8.
	Encoding string
	// Transpose reads one column per line instead of one row per line.
	Transpose bool
}

// DefaultCSVOptions returns the options used when none are given.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Delimiter: ';', Encoding: "utf-8"}
}

// ReadCSV loads a table from delimited text. Quoted fields use '"'.
// Records may have differing lengths.
func ReadCSV(r io.Reader, opts CSVOptions) (*Table, error) {
	decoded, err := textenc.NewReader(r, opts.Encoding)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(decoded)
	cr.Comma = opts.Delimiter
	if cr.Comma == 0 {
		cr.Comma = ';'
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return fromRecords(records, opts.Transpose)
}
