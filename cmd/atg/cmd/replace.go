package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaiSD/att/pkg/atg"
	"github.com/KaiSD/att/pkg/atr"
)

type replaceOptions struct {
	pattern   string
	with      string
	regexp    bool
	names     bool
	table     tableFlags
	tablePath string
	template  string
	key       string
	dryRun    bool
}

func newReplaceCmd(g *globalOptions) *cobra.Command {
	o := &replaceOptions{}
	cmd := &cobra.Command{
		Use:   "replace <file>...",
		Short: "Find and replace in file contents or names",
		Long: `Replaces --pattern in every given file.

The replacement is either the fixed --with text, or, with --template and
--table, the text the template generates for each file. --key selects how a
file is matched to a generated output name: filename (base name), fullname
(path as given) or index (position on the command line, from 0).

With --names the files are renamed instead of edited.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplace(cmd, g, o, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&o.pattern, "pattern", "p", "", "text to find")
	flags.StringVar(&o.with, "with", "", "replacement text")
	flags.BoolVarP(&o.regexp, "regexp", "r", false, "treat the pattern as a regular expression")
	flags.BoolVar(&o.names, "names", false, "rename files instead of editing their contents")
	flags.StringVar(&o.tablePath, "table", "", "table for templated replacement")
	flags.StringVar(&o.template, "template", "", "template for templated replacement")
	flags.StringVar(&o.key, "key", string(atr.KeyFilename), "how files match generated names: filename, fullname or index")
	flags.BoolVar(&o.dryRun, "dry-run", false, "report without changing files")
	o.table.register(cmd)
	_ = cmd.MarkFlagRequired("pattern")
	cmd.MarkFlagsRequiredTogether("table", "template")
	cmd.MarkFlagsMutuallyExclusive("with", "template")
	return cmd
}

func runReplace(cmd *cobra.Command, g *globalOptions, o *replaceOptions, files []string) error {
	r := atr.New(files...)

	if o.template != "" {
		key, err := atr.ParseKeyFormat(o.key)
		if err != nil {
			return err
		}
		tmpl, err := g.engine.PrepareFile(o.template)
		if err != nil {
			return err
		}
		loadOpts, err := o.table.loadOptions(tmpl.Transpose)
		if err != nil {
			return err
		}
		src, err := g.engine.LoadTable(o.tablePath, loadOpts)
		if err != nil {
			return err
		}
		res, err := g.engine.Process(cmd.Context(), tmpl, src)
		if err != nil {
			return err
		}
		for _, d := range atg.Warnings(res.Diagnostics) {
			fmt.Fprintln(cmd.ErrOrStderr(), d.String())
		}
		if err := r.TemplatedReplace(o.pattern, res, key, o.regexp); err != nil {
			return err
		}
	} else {
		if o.with == "" {
			return errors.New("either --with or --template and --table are required")
		}
		if err := r.PlainReplace(o.pattern, o.with, o.regexp); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if o.names {
		renamed := 0
		for i, name := range r.ReplaceInNames() {
			if name == files[i] {
				continue
			}
			fmt.Fprintf(out, "%s -> %s\n", files[i], name)
			renamed++
			if o.dryRun {
				continue
			}
			if dir := filepath.Dir(name); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			if err := os.Rename(files[i], name); err != nil {
				return err
			}
		}
		fmt.Fprintf(out, "Renamed %d of %d file(s)\n", renamed, len(files))
		return nil
	}

	if o.dryRun {
		for i, file := range files {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			if r.Apply(string(data), i) != string(data) {
				fmt.Fprintf(out, "would change %s\n", file)
			}
		}
		return nil
	}
	if err := r.WriteInPlace(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Processed %d file(s)\n", len(files))
	return nil
}
