package atg

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KaiSD/att/pkg/atg/table"
)

// newTestTable builds a table whose cells are inferred from raw strings.
func newTestTable(t *testing.T, columns []string, rows ...[]string) *table.Table {
	t.Helper()
	tb, err := table.New(columns...)
	require.NoError(t, err)
	for _, raw := range rows {
		values := make([]table.Value, len(raw))
		for i, s := range raw {
			values[i] = table.Infer(s)
		}
		tb.AddRow(values...)
	}
	return tb
}

func quietLogger() *Logger {
	return NewLogger(io.Discard, LogOff)
}

func testMetadata() Metadata {
	return Metadata{KeyField: "ID", Extension: "txt", Encoding: "utf-8"}
}

func mustParseBody(t *testing.T, body string) *Template {
	t.Helper()
	tmpl, err := ParseBody(body, testMetadata())
	require.NoError(t, err)
	return tmpl
}

// run processes body over src in multi-file mode with logging disabled.
func run(t *testing.T, body string, src Source, opts ...ProcessOption) *Result {
	t.Helper()
	tmpl := mustParseBody(t, body)
	all := append([]ProcessOption{WithLogger(quietLogger()), WithWorkers(1), WithStrict(false)}, opts...)
	res, err := tmpl.Process(context.Background(), src, all...)
	require.NoError(t, err)
	return res
}

// renderOne processes body over a single-row table and returns the row text.
func renderOne(t *testing.T, body string, columns []string, row []string) (string, []Diagnostic) {
	t.Helper()
	res := run(t, body, newTestTable(t, append([]string{"ID"}, columns...), append([]string{"1"}, row...)))
	if len(res.Files) == 0 {
		return "", res.Diagnostics
	}
	require.Len(t, res.Files, 1)
	return res.Files[0].Text, res.Diagnostics
}

func diagCodes(ds []Diagnostic) []string {
	var codes []string
	for _, d := range ds {
		codes = append(codes, d.Code)
	}
	return codes
}
