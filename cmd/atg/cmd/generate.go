package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaiSD/att/pkg/atg"
	"github.com/KaiSD/att/pkg/atg/output"
	"github.com/KaiSD/att/pkg/atg/table"
)

// tableFlags are the flags shared by every command that reads a table.
type tableFlags struct {
	delimiter string
	encoding  string
	sheet     string
}

func (f *tableFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.delimiter, "delimiter", "d", "", "field delimiter of delimited tables (default from config)")
	cmd.Flags().StringVar(&f.encoding, "table-encoding", "", "text encoding of delimited tables (default from config)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "worksheet of .xlsx tables (default: first sheet)")
}

func (f *tableFlags) loadOptions(transpose bool) (table.LoadOptions, error) {
	opts := table.LoadOptions{
		CSV:       table.CSVOptions{Encoding: f.encoding},
		Sheet:     f.sheet,
		Transpose: transpose,
	}
	if f.delimiter != "" {
		r, err := atg.ParseDelimiter(f.delimiter)
		if err != nil {
			return opts, err
		}
		opts.CSV.Delimiter = r
	}
	return opts, nil
}

type generateOptions struct {
	table   tableFlags
	oneFile bool
	name    string
	workers int
	dryRun  bool
}

func newGenerateCmd(g *globalOptions) *cobra.Command {
	o := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate <table> <template> [outdir]",
		Short: "Evaluate a template over a table and write the results",
		Long: `Evaluates the template once for every row of the table.

Each row is written to <outdir>/<prefix><key>.<ext>, where prefix, key column
and extension come from the template's metadata line. Names containing '/'
create subdirectories. With --one-file, or when the template sets the oneFile
flag, all rows are joined into a single file.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, g, o, args)
		},
	}

	o.table.register(cmd)
	cmd.Flags().BoolVar(&o.oneFile, "one-file", false, "join all rows into a single file (default from template)")
	cmd.Flags().StringVar(&o.name, "name", "", "file name for single-file output (default: prefix or template name)")
	cmd.Flags().IntVarP(&o.workers, "workers", "w", 0, "rows evaluated concurrently (default from config)")
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "evaluate and report without writing files")
	return cmd
}

func runGenerate(cmd *cobra.Command, g *globalOptions, o *generateOptions, args []string) error {
	tablePath, templatePath := args[0], args[1]
	outDir := "."
	if len(args) == 3 {
		outDir = args[2]
	}

	tmpl, err := g.engine.PrepareFile(templatePath)
	if err != nil {
		return err
	}
	loadOpts, err := o.table.loadOptions(tmpl.Transpose)
	if err != nil {
		return err
	}
	src, err := g.engine.LoadTable(tablePath, loadOpts)
	if err != nil {
		return err
	}

	var opts []atg.ProcessOption
	if cmd.Flags().Changed("one-file") {
		opts = append(opts, atg.WithOneFile(o.oneFile))
	}
	if cmd.Flags().Changed("workers") {
		opts = append(opts, atg.WithWorkers(o.workers))
	}
	res, err := g.engine.Process(cmd.Context(), tmpl, src, opts...)
	if err != nil {
		return err
	}

	w := output.NewWriter(outDir, res)
	w.DryRun = o.dryRun
	paths, err := w.WriteResult(res, oneFileName(o.name, res, tmpl, templatePath))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, d := range atg.Warnings(res.Diagnostics) {
		fmt.Fprintln(cmd.ErrOrStderr(), d.String())
	}
	verb := "Wrote"
	if o.dryRun {
		verb = "Would write"
	}
	fmt.Fprintf(out, "%s %d file(s) from %d row(s) to %s\n", verb, len(paths), src.Len(), outDir)
	return nil
}

// oneFileName picks the file name of a single-file result: the --name flag,
// else the run's name prefix including ATGPREFIX contributions, with "."
// standing for the key field name, else the template file name without its
// extension.
func oneFileName(flag string, res *atg.Result, tmpl *atg.Template, templatePath string) string {
	if flag != "" {
		return flag
	}
	prefix := res.Prefix
	if prefix == "." {
		prefix = tmpl.KeyField
	}
	if prefix = strings.TrimRight(prefix, `/\`); prefix != "" {
		return prefix
	}
	base := filepath.Base(templatePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
