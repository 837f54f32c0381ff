package cmd

import (
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gantry-io/gantry/internal/app"
	"github.com/gantry-io/gantry/internal/config"
	"github.com/gantry-io/gantry/internal/logger"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate the application graph under a directory",
		Long: `Run one discovery cycle and report the first fatal problem, if any:
an illegal directive for a component type, a resource type conflict, a
missing or invalid resource setting.

Exit code: 0 if the graph validates, 1 otherwise.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := rootArg(args)

			cfg, err := config.Load(filepath.Join(root, ".gantry.yml"))
			if err != nil {
				return err
			}

			a, err := app.New(root, app.Options{
				Config: cfg,
				Logger: logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel),
			})
			if err != nil {
				return err
			}
			if err := a.Discover(cmd.Context()); err != nil {
				return err
			}

			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(),
				"OK: %d component(s), %d resource(s), %d route(s)\n",
				len(a.Components), len(a.Resources), len(a.Routes))
			return nil
		},
	}
}

// rootArg returns the positional root path, defaulting to the current directory.
func rootArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return "."
}
