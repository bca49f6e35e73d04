package table

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadOptions selects and configures a reader for Load.
type LoadOptions struct {
	CSV       CSVOptions
	Sheet     string
	Transpose bool
}

// Load reads a table file, choosing the XLSX reader for .xlsx/.xlsm files and
// the delimited-text reader for everything else.
func Load(path string, opts LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(f, XLSXOptions{Sheet: opts.Sheet, Transpose: opts.Transpose})
	default:
		csvOpts := opts.CSV
		csvOpts.Transpose = csvOpts.Transpose || opts.Transpose
		return ReadCSV(f, csvOpts)
	}
}
