package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KaiSD/att/pkg/atg"
)

type inspectOptions struct {
	table     tableFlags
	transpose bool
	format    string
}

// columnInfo describes one table column.
type columnInfo struct {
	Name  string `yaml:"name"`
	Kind  string `yaml:"kind"`
	Group string `yaml:"group,omitempty"`
}

// tableReport is what inspect prints.
type tableReport struct {
	Path    string         `yaml:"path"`
	Rows    int            `yaml:"rows"`
	Columns []columnInfo   `yaml:"columns"`
	Groups  map[string]int `yaml:"groups,omitempty"`
}

func newInspectCmd(g *globalOptions) *cobra.Command {
	o := &inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect <table>",
		Short: "Show the columns and repeated column groups of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, g, o, args[0])
		},
	}

	o.table.register(cmd)
	cmd.Flags().BoolVar(&o.transpose, "transpose", false, "read one column per line")
	cmd.Flags().StringVarP(&o.format, "format", "f", "text", "output format: text or yaml")
	return cmd
}

func runInspect(cmd *cobra.Command, g *globalOptions, o *inspectOptions, path string) error {
	loadOpts, err := o.table.loadOptions(o.transpose)
	if err != nil {
		return err
	}
	src, err := g.engine.LoadTable(path, loadOpts)
	if err != nil {
		return err
	}

	columns := src.Columns()
	groups := atg.BuildMultiValueIndex(columns)
	report := tableReport{Path: path, Rows: src.Len(), Groups: groups}
	for _, name := range columns {
		info := columnInfo{Name: name, Kind: "empty"}
		if values, err := src.Column(name); err == nil {
			for _, v := range values {
				if !v.IsEmpty() {
					info.Kind = v.Kind().String()
					break
				}
			}
		}
		if base := groupOf(groups, name); base != "" {
			info.Group = base
		}
		report.Columns = append(report.Columns, info)
	}

	switch strings.ToLower(o.format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		writeReport(cmd.OutOrStdout(), report)
		return nil
	default:
		return fmt.Errorf("unknown format %q", o.format)
	}
}

// groupOf returns the group column belongs to, or "".
func groupOf(groups atg.MultiValueIndex, column string) string {
	base := strings.TrimRight(column, "0123456789")
	if base == column || base == "" {
		return ""
	}
	if _, ok := groups.Count(base); !ok {
		return ""
	}
	return base
}

func writeReport(w io.Writer, r tableReport) {
	fmt.Fprintf(w, "Table:   %s\n", r.Path)
	fmt.Fprintf(w, "Rows:    %d\n", r.Rows)
	fmt.Fprintf(w, "Columns: %d\n\n", len(r.Columns))

	header := []string{"COLUMN", "KIND", "GROUP"}
	rows := make([][]string, 0, len(r.Columns))
	for _, c := range r.Columns {
		group := "-"
		if c.Group != "" {
			group = fmt.Sprintf("%s (%d)", c.Group, r.Groups[c.Group])
		}
		rows = append(rows, []string{c.Name, c.Kind, group})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i == len(cells)-1 {
				fmt.Fprintln(w, cell)
				break
			}
			fmt.Fprint(w, runewidth.FillRight(cell, widths[i]), "  ")
		}
	}
	writeRow(header)
	for _, row := range rows {
		writeRow(row)
	}
}
