package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/KaiSD/att/pkg/atg"
)

const unitsTemplate = "ATGV2\n[$ID$txt$units/$utf-8$]\n" +
	"[$ATGHEADER$# units\n$]name=[$Name$];tags=[$ATGLISTCUT$Tag$[$Tag$],$]\n"

const unitsTable = "ID;Name;Tag1;Tag2\n" +
	"1;Archer;ranged;\n" +
	"2;Knight;melee;armored\n"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		atg.SetGlobalConfig(atg.DefaultConfig())
		atg.SetLogger(atg.NewLogger(os.Stderr, atg.LogInfo))
	})

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--log-level", "off"}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "units.atg", unitsTemplate)
	tbl := writeFile(t, dir, "units.csv", unitsTable)
	outDir := filepath.Join(dir, "out")

	stdout, err := execute(t, "generate", tbl, tmpl, outDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote 2 file(s) from 2 row(s)")

	assert.Equal(t, "# units\nname=Archer;tags=ranged\n", readFile(t, filepath.Join(outDir, "units", "1.txt")))
	assert.Equal(t, "# units\nname=Knight;tags=melee,armored\n", readFile(t, filepath.Join(outDir, "units", "2.txt")))
}

func TestGenerate_OneFile(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "units.atg", unitsTemplate)
	tbl := writeFile(t, dir, "units.csv", unitsTable)

	_, err := execute(t, "generate", "--one-file", "--name", "all", "--workers", "2", tbl, tmpl, dir)
	require.NoError(t, err)

	assert.Equal(t,
		"# units\nname=Archer;tags=ranged\nname=Knight;tags=melee,armored\n",
		readFile(t, filepath.Join(dir, "all.txt")))
}

func TestGenerate_DryRun(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "units.atg", unitsTemplate)
	tbl := writeFile(t, dir, "units.csv", unitsTable)
	outDir := filepath.Join(dir, "out")

	stdout, err := execute(t, "generate", "--dry-run", tbl, tmpl, outDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Would write 2 file(s)")
	assert.NoDirExists(t, outDir)
}

func TestGenerate_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "atg.yaml", "csv_delimiter: \",\"\n")
	tmpl := writeFile(t, dir, "t.atg", "ATGV2\n[$ID$txt$$utf-8$]\n[$Name$]")
	tbl := writeFile(t, dir, "t.csv", "ID,Name\n7,Seven\n")

	_, err := execute(t, "--config", cfg, "generate", tbl, tmpl, dir)
	require.NoError(t, err)
	assert.Equal(t, "Seven", readFile(t, filepath.Join(dir, "7.txt")))
}

func TestGenerate_Errors(t *testing.T) {
	dir := t.TempDir()
	tbl := writeFile(t, dir, "units.csv", unitsTable)
	bad := writeFile(t, dir, "bad.atg", "not a template")

	_, err := execute(t, "generate", tbl, bad)
	require.Error(t, err)
	assert.True(t, atg.IsTemplateError(err))

	_, err = execute(t, "generate", tbl)
	assert.Error(t, err)

	_, err = execute(t, "--config", filepath.Join(dir, "atg.ini"), "generate", tbl, bad)
	assert.Error(t, err)
}

func TestOneFileName(t *testing.T) {
	tmpl, err := atg.ParseBody("x", atg.Metadata{KeyField: "ID", NamePrefix: "units/"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		flag   string
		prefix string
		want   string
	}{
		{name: "flag wins", flag: "given", prefix: "units/", want: "given"},
		{name: "prefix without separator", prefix: "units/", want: "units"},
		{name: "dot means key field", prefix: ".", want: "ID"},
		{name: "empty prefix", prefix: "", want: "t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &atg.Result{Prefix: tt.prefix}
			assert.Equal(t, tt.want, oneFileName(tt.flag, res, tmpl, "a/t.atg"))
		})
	}
}

func TestGenerate_OneFileNamedAfterPrefix(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "t.atg", "ATGV2\n[$ID$txt$$utf-8$oneFile$]\n[$ATGPREFIX$all_[$Kind$]$][$Name$]")
	tbl := writeFile(t, dir, "t.csv", "ID;Name;Kind\n1;a;units\n2;b;units\n")

	_, err := execute(t, "generate", tbl, tmpl, dir)
	require.NoError(t, err)
	assert.Equal(t, "ab", readFile(t, filepath.Join(dir, "all_units.txt")))
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	tbl := writeFile(t, dir, "units.csv", unitsTable)

	stdout, err := execute(t, "inspect", "--format", "yaml", tbl)
	require.NoError(t, err)

	var report tableReport
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, 2, report.Rows)
	assert.Equal(t, map[string]int{"Tag": 2}, report.Groups)
	assert.Equal(t, []columnInfo{
		{Name: "ID", Kind: "int"},
		{Name: "Name", Kind: "text"},
		{Name: "Tag1", Kind: "text", Group: "Tag"},
		{Name: "Tag2", Kind: "text", Group: "Tag"},
	}, report.Columns)

	stdout, err = execute(t, "inspect", tbl)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Rows:    2")
	assert.Contains(t, stdout, "Tag (2)")

	_, err = execute(t, "inspect", "--format", "xml", tbl)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "t.atg", "ATGV2\n[$ID$txt$$utf-8$]\n[$Name$][$Color$]")
	tbl := writeFile(t, dir, "units.csv", unitsTable)

	stdout, err := execute(t, "validate", tmpl)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Color")

	stdout, err = execute(t, "validate", tmpl, tbl)
	require.NoError(t, err)
	assert.Contains(t, stdout, "[UNKNOWN_COLUMN]")
	assert.Contains(t, stdout, "1 warning(s)")

	_, err = execute(t, "--strict", "validate", tmpl, tbl)
	assert.Error(t, err)
}

func TestReplace(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "a.txt", "hello NAME")

	_, err := execute(t, "replace", "--pattern", "NAME", "--with", "world", file)
	require.NoError(t, err)
	assert.Equal(t, "hello world", readFile(t, file))

	stdout, err := execute(t, "replace", "-p", ".txt", "--with", ".md", "--names", file)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Renamed 1 of 1 file(s)")
	assert.NoFileExists(t, file)
	assert.FileExists(t, filepath.Join(dir, "a.md"))

	_, err = execute(t, "replace", "-p", "x", filepath.Join(dir, "a.md"))
	assert.Error(t, err)
}

func TestReplace_Templated(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, dir, "1.cfg", "name = NAME")
	tmpl := writeFile(t, dir, "names.atg", "ATGV2\n[$ID$$$utf-8$]\n[$Name$]")
	tbl := writeFile(t, dir, "units.csv", unitsTable)

	_, err := execute(t, "replace", "-p", "NAME", "--template", tmpl, "--table", tbl, "--key", "index", target)
	require.NoError(t, err)
	assert.Equal(t, "name = NAME", readFile(t, target))

	require.NoError(t, os.Rename(target, filepath.Join(dir, "1")))
	target = filepath.Join(dir, "1")
	_, err = execute(t, "replace", "-p", "NAME", "--template", tmpl, "--table", tbl, target)
	require.NoError(t, err)
	assert.Equal(t, "name = Archer", readFile(t, target))
}

func TestVersion(t *testing.T) {
	stdout, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "atg v"+Version)
}
