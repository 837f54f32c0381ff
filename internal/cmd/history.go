package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gantry-io/gantry/internal/config"
	"github.com/gantry-io/gantry/internal/history"
)

// NewHistoryCommand creates and returns the history subcommand
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:          "history",
		Short:        "List recorded discovery runs",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(".gantry.yml")
			if err != nil {
				return err
			}

			store, err := history.NewStore(cfg.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "no recorded runs")
				return nil
			}

			failed := color.New(color.FgRed)
			for _, run := range runs {
				status := "ok"
				fmt.Fprintf(out, "%s  %s  %s  %d components, %d resources, %d routes  %s",
					run.StartedAt.Format("2006-01-02 15:04:05"), run.ID[:8], run.Root,
					run.Components, run.Resources, run.Routes, run.Duration)
				if run.Error != "" {
					status = "failed"
					failed.Fprintf(out, "  [%s: %s]", status, run.Error)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list (0 = all)")
	return cmd
}
