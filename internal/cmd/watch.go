package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gantry-io/gantry/internal/app"
	"github.com/gantry-io/gantry/internal/config"
	"github.com/gantry-io/gantry/internal/filelock"
	"github.com/gantry-io/gantry/internal/logger"
	"github.com/gantry-io/gantry/internal/watch"
)

// NewWatchCommand creates and returns the watch subcommand
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [path]",
		Short: "Discover the application graph and stream change attributions",
		Long: `Run discovery with watching enabled and stream attributed change events:
manifest changes (re-discovery triggers) and per-component file changes.

Manifest and ignore file changes trigger a full reload of the graph. Only
one gantry process may watch a given root at a time.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := rootArg(args)

			cfg, err := config.Load(filepath.Join(root, ".gantry.yml"))
			if err != nil {
				return err
			}
			log := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)

			a, err := app.New(root, app.Options{Config: cfg, Logger: log, Watch: true})
			if err != nil {
				return err
			}

			lock, err := filelock.ForRoot(a.Root)
			if err != nil {
				return err
			}
			acquired, err := lock.TryAcquire()
			if err != nil {
				return err
			}
			if !acquired {
				return fmt.Errorf("another gantry process is already watching %s", a.Root)
			}
			defer lock.Release()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := a.Discover(ctx); err != nil {
				return err
			}
			defer a.Close()

			log.LogInfo(fmt.Sprintf("watching %s (%d components)", a.Root, len(a.Components)))

			for {
				select {
				case <-ctx.Done():
					return nil
				case event, ok := <-a.Events():
					if !ok {
						return nil
					}
					switch event.Kind {
					case watch.ManifestChange:
						log.LogInfo(fmt.Sprintf("manifest change: %s, reloading", event.Path))
						if err := a.Reload(ctx); err != nil {
							return err
						}
						log.LogInfo(fmt.Sprintf("reloaded %s (%d components)", a.Root, len(a.Components)))
					case watch.ComponentChange:
						log.LogInfo(fmt.Sprintf("component %s: %s", event.Component, event.Path))
					}
				}
			}
		},
	}
}
