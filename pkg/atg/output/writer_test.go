package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaiSD/att/pkg/atg"
	"github.com/KaiSD/att/pkg/atg/table"
	"github.com/KaiSD/att/pkg/atg/textenc"
)

func TestWriter_Path(t *testing.T) {
	tests := []struct {
		name      string
		extension string
		input     string
		want      string
		wantErr   bool
	}{
		{name: "plain", extension: "txt", input: "unit_1", want: "unit_1.txt"},
		{name: "leading dot", extension: ".lua", input: "a", want: "a.lua"},
		{name: "no extension", extension: "", input: "README", want: "README"},
		{name: "slash nests", extension: "txt", input: "units/archer", want: filepath.Join("units", "archer.txt")},
		{name: "backslash nests", extension: "txt", input: `units\archer`, want: filepath.Join("units", "archer.txt")},
		{name: "escape", extension: "txt", input: "../outside", wantErr: true},
		{name: "empty", extension: "", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Writer{Dir: "out", Extension: tt.extension}
			got, err := w.Path(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPathEscape)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Join("out", tt.want), got)
		})
	}
}

func TestWriter_WriteFileEncoding(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir, Extension: "txt", Encoding: "windows-1251"}

	path, err := w.WriteFile("nested/ru", "Привет")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nested", "ru.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want, err := textenc.Encode("Привет", "windows-1251")
	require.NoError(t, err)
	assert.Equal(t, want, data)

	_, err = (&Writer{Dir: dir, Encoding: "klingon"}).WriteFile("x", "y")
	assert.ErrorIs(t, err, textenc.ErrUnknownEncoding)
}

func TestWriter_DryRun(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir, Extension: "txt", DryRun: true}

	path, err := w.WriteFile("a/b", "text")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a", "b.txt"), path)
	assert.NoFileExists(t, path)
	assert.NoDirExists(t, filepath.Join(dir, "a"))
}

func processed(t *testing.T, body string, meta atg.Metadata) *atg.Result {
	t.Helper()
	src, err := table.New("ID", "Name")
	require.NoError(t, err)
	src.AddRow(table.Int(1), table.Text("a"))
	src.AddRow(table.Int(2), table.Text("b"))
	src.AddRow(table.Int(1), table.Text("c"))

	tmpl, err := atg.ParseBody(body, meta)
	require.NoError(t, err)
	res, err := tmpl.Process(context.Background(), src, atg.WithLogger(atg.NewLogger(nil, atg.LogOff)))
	require.NoError(t, err)
	return res
}

func TestWriter_WriteResult(t *testing.T) {
	res := processed(t, "[$ATGHEADER$#$][$Name$]", atg.Metadata{KeyField: "ID", Extension: "txt", NamePrefix: "dir/"})
	dir := t.TempDir()

	paths, err := NewWriter(dir, res).WriteResult(res, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "dir", "2.txt"),
		filepath.Join(dir, "dir", "1.txt"),
	}, paths)

	data, err := os.ReadFile(filepath.Join(dir, "dir", "1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "#c", string(data))
}

func TestWriter_WriteResultOneFile(t *testing.T) {
	res := processed(t, "[$Name$]", atg.Metadata{KeyField: "ID", Extension: "txt", OneFile: true})
	dir := t.TempDir()
	w := NewWriter(dir, res)

	_, err := w.WriteResult(res, "")
	assert.ErrorIs(t, err, ErrNoName)

	paths, err := w.WriteResult(res, "all")
	require.NoError(t, err)
	require.Len(t, paths, 1)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}
