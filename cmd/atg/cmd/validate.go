package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaiSD/att/pkg/atg"
)

type validateOptions struct {
	table tableFlags
}

func newValidateCmd(g *globalOptions) *cobra.Command {
	o := &validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate <template> [table]",
		Short: "Parse a template and check its column references",
		Long: `Parses the template and reports syntax errors.

Without a table the columns the template refers to are listed. With a table
every reference is checked against the table's columns without evaluating any
row. With --strict any warning makes the command fail.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, g, o, args)
		},
	}
	o.table.register(cmd)
	return cmd
}

func runValidate(cmd *cobra.Command, g *globalOptions, o *validateOptions, args []string) error {
	tmpl, err := g.engine.PrepareFile(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		fmt.Fprintf(out, "%s: ok\n", args[0])
		for _, ref := range tmpl.References() {
			name := ref.Name
			if ref.Group {
				name += "*"
			}
			fmt.Fprintf(out, "  %-12s %s\n", ref.Command, name)
		}
		return nil
	}

	loadOpts, err := o.table.loadOptions(tmpl.Transpose)
	if err != nil {
		return err
	}
	src, err := g.engine.LoadTable(args[1], loadOpts)
	if err != nil {
		return err
	}

	diags := tmpl.Validate(src.Columns())
	for _, d := range diags {
		fmt.Fprintln(out, d.String())
	}
	warnings := atg.Warnings(diags)
	if len(warnings) > 0 && g.engine.Config().StrictMode {
		return fmt.Errorf("%s: %d warning(s)", args[0], len(warnings))
	}
	fmt.Fprintf(out, "%s: ok, %d warning(s)\n", args[0], len(warnings))
	return nil
}
