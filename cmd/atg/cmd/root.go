package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaiSD/att/pkg/atg"
)

// globalOptions holds the persistent flags and the engine configured from
// them.
type globalOptions struct {
	configFile string
	logLevel   string
	strict     bool

	engine *atg.Engine
}

// NewRootCmd builds the atg command tree.
func NewRootCmd() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:   "atg",
		Short: "Advanced Text Generator",
		Long: `atg generates text files from a table and a template.

Each table row is evaluated against the template and written to a file named
after the row's key cell, or all rows are joined into a single file.

Commands:
  generate  - evaluate a template over a table and write the results
  inspect   - show the columns and repeated column groups of a table
  validate  - parse a template and check its column references
  replace   - find and replace in file contents or names`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&g.configFile, "config", "", "config file (.toml, .yaml or .yml)")
	flags.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error or off")
	flags.BoolVar(&g.strict, "strict", false, "fail on the first evaluation warning")

	root.AddCommand(
		newGenerateCmd(g),
		newInspectCmd(g),
		newValidateCmd(g),
		newReplaceCmd(g),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// setup resolves the configuration from defaults, the config file, the
// environment and the flags, in increasing precedence.
func (g *globalOptions) setup(cmd *cobra.Command) error {
	var config *atg.Config
	if g.configFile != "" {
		c, err := atg.LoadConfigFile(g.configFile)
		if err != nil {
			return err
		}
		c.ApplyEnvironment()
		config = c
	} else {
		config = atg.ConfigFromEnvironment()
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		config.LogLevel = g.logLevel
	}
	if flags.Changed("strict") {
		config.StrictMode = g.strict
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	atg.SetGlobalConfig(config)
	atg.SetLogger(atg.NewLogger(cmd.ErrOrStderr(), atg.LogInfo))
	atg.UpdateLoggerFromConfig()
	g.engine = atg.NewWithConfig(config)
	return nil
}
