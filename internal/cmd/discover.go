package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gantry-io/gantry/internal/app"
	"github.com/gantry-io/gantry/internal/config"
	"github.com/gantry-io/gantry/internal/history"
	"github.com/gantry-io/gantry/internal/logger"
)

// NewDiscoverCommand creates and returns the discover subcommand
func NewDiscoverCommand() *cobra.Command {
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "discover [path]",
		Short: "Discover and print the application graph under a directory",
		Long: `Run one discovery cycle: scan the tree for Stackfile manifests, build
and validate the component/resource/route graph, and print a summary.

The run is recorded in the history database unless --no-history is set.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(cmd.Context(), rootArg(args), cmd.OutOrStdout(), cmd.ErrOrStderr(), !noHistory)
		},
	}

	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record the run in the history database")
	return cmd
}

func runDiscover(ctx context.Context, root string, out, errOut io.Writer, record bool) error {
	cfg, err := config.Load(filepath.Join(root, ".gantry.yml"))
	if err != nil {
		return err
	}
	log := logger.NewConsoleLogger(errOut, cfg.LogLevel)

	a, err := app.New(root, app.Options{Config: cfg, Logger: log})
	if err != nil {
		return err
	}

	started := time.Now()
	discoverErr := a.Discover(ctx)

	if record {
		if err := recordRun(cfg, a, started, discoverErr); err != nil {
			log.LogWarn(fmt.Sprintf("history: %v", err))
		}
	}
	if discoverErr != nil {
		return discoverErr
	}

	printGraph(out, a)
	return nil
}

func recordRun(cfg *config.Config, a *app.Application, started time.Time, discoverErr error) error {
	store, err := history.NewStore(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	run := history.Run{
		Root:       a.Root,
		StartedAt:  started,
		Duration:   time.Since(started),
		Components: len(a.Components),
		Resources:  len(a.Resources),
		Routes:     len(a.Routes),
	}
	if discoverErr != nil {
		run.Error = discoverErr.Error()
	}
	_, err = store.Record(run)
	return err
}

func printGraph(out io.Writer, a *app.Application) {
	heading := color.New(color.FgCyan, color.Bold)

	heading.Fprintf(out, "Application %s (%s)\n", a.ID, a.Root)

	names := make([]string, 0, len(a.Components))
	for name := range a.Components {
		names = append(names, name)
	}
	sort.Strings(names)

	heading.Fprintf(out, "Components (%d)\n", len(names))
	for _, name := range names {
		c := a.Components[name]
		fmt.Fprintf(out, "  %s (%s) %s:%d\n", c.Name, c.Type, c.File, c.Line)
		if c.Settings.Port != nil {
			fmt.Fprintf(out, "    port: %d\n", *c.Settings.Port)
		}
		if c.Settings.Cron != "" {
			fmt.Fprintf(out, "    cron: %s\n", c.Settings.Cron)
		}
		vars := make([]string, 0, len(c.Variables))
		for key := range c.Variables {
			vars = append(vars, key)
		}
		sort.Strings(vars)
		for _, key := range vars {
			fmt.Fprintf(out, "    env: %s\n", key)
		}
	}

	resNames := make([]string, 0, len(a.Resources))
	for name := range a.Resources {
		resNames = append(resNames, name)
	}
	sort.Strings(resNames)

	heading.Fprintf(out, "Resources (%d)\n", len(resNames))
	for _, name := range resNames {
		res := a.Resources[name]
		fmt.Fprintf(out, "  %s (%s)\n", res.Name, res.Type)
	}

	heading.Fprintf(out, "Routes (%d)\n", len(a.Routes))
	for _, route := range a.Routes {
		fmt.Fprintf(out, "  %s %s -> %s (%s)\n", route.Method, route.Pattern, route.Component, route.Visibility)
	}
}
