// Package app orchestrates end-to-end discovery of an application graph
// from a tree of manifest files, and owns the resulting graph.
package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/gantry-io/gantry/internal/config"
	"github.com/gantry-io/gantry/internal/graph"
	"github.com/gantry-io/gantry/internal/logger"
	"github.com/gantry-io/gantry/internal/manifest"
	"github.com/gantry-io/gantry/internal/scan"
	"github.com/gantry-io/gantry/internal/watch"
)

// Application is the aggregate root: the complete validated graph discovered
// under one root directory. The whole graph is rebuilt, never incrementally
// patched, on every Discover or Reload; callers observe either the prior
// complete graph or the new one, never a partial state.
type Application struct {
	// Root is the absolute application root path.
	Root string
	// ID is a stable hash of the root path.
	ID string

	Components map[string]*graph.Component
	Resources  map[string]*graph.Resource
	Routes     []*graph.Route
	Manifests  []*manifest.Manifest

	cfg      *config.Config
	log      *logger.ConsoleLogger
	watching bool

	engine *watch.Engine
}

// Options configures an Application.
type Options struct {
	// Config supplies gantry configuration; nil means defaults.
	Config *config.Config
	// Logger receives diagnostics; nil discards them.
	Logger *logger.ConsoleLogger
	// Watch starts the watch engine at the end of each successful Discover.
	Watch bool
}

// New creates an Application rooted at root. No discovery happens yet.
func New(root string, opts Options) (*Application, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewConsoleLogger(nil, "")
	}

	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return &Application{
		Root:     abs,
		ID:       hex.EncodeToString(sum[:])[:12],
		cfg:      cfg,
		log:      log,
		watching: opts.Watch,
	}, nil
}

// Load is the public entry point: it discovers the graph under root and
// returns it fully validated, optionally watching for changes. When watching,
// attributed events arrive on Events() until the caller closes or reloads
// the application.
func Load(root string, watching bool) (*Application, error) {
	cfg, err := config.Load(filepath.Join(root, ".gantry.yml"))
	if err != nil {
		return nil, err
	}

	a, err := New(root, Options{
		Config: cfg,
		Logger: logger.NewConsoleLogger(os.Stderr, cfg.LogLevel),
		Watch:  watching,
	})
	if err != nil {
		return nil, err
	}
	if err := a.Discover(context.Background()); err != nil {
		return nil, err
	}
	return a, nil
}

// Discover runs the fixed, dependency-ordered discovery pipeline: scan,
// classify, parse, validate components, bind routes and resources, validate
// resources, then start the watch engine if requested. Each stage is a
// synchronous barrier: items
// within it may be processed concurrently, but the next stage starts only
// once every item has completed. Any single failure aborts the whole call
// and no partial graph is published.
func (a *Application) Discover(ctx context.Context) error {
	scanned, err := scan.Directory(a.Root, scan.Options{ExcludeDirs: a.cfg.ExcludeDirs})
	if err != nil {
		return err
	}
	if scanned.Errors != nil {
		a.log.LogWarn(fmt.Sprintf("scan: %v", scanned.Errors))
	}

	manifestFiles, ignoreFiles := a.classify(scanned.Files)
	a.log.LogDebug(fmt.Sprintf("discovered %d manifest file(s) under %s", len(manifestFiles), a.Root))

	manifests, err := a.parseAll(ctx, manifestFiles)
	if err != nil {
		return err
	}

	components, ordered, err := a.buildComponents(manifests)
	if err != nil {
		return err
	}

	g, _ := errgroup.WithContext(ctx)
	for _, c := range ordered {
		g.Go(c.Validate)
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Binding is sequential over the sorted-path component order: resource
	// setting merges are first-write-wins, and the winner must be the same
	// on every discovery of an unchanged tree.
	registry := graph.NewRegistry(a.log)
	for _, c := range ordered {
		if err := c.Bind(registry); err != nil {
			return err
		}
	}

	if err := registry.Validate(); err != nil {
		return err
	}

	var routes []*graph.Route
	for _, c := range ordered {
		routes = append(routes, c.Routes...)
	}

	// Starting a watch is one-shot: a live subscription survives repeated
	// Discover calls and is only replaced through Reload, which closes it
	// before re-entering here.
	var scopes *watch.Scopes
	var engine *watch.Engine
	if a.watching && a.engine == nil {
		scopes, err = watch.BuildScopes(a.Root, ignoreFiles, components)
		if err != nil {
			return err
		}
		engine, err = watch.NewEngine(scopes, a.cfg.ManifestFilename, a.cfg.IgnoreFilenames)
		if err != nil {
			return err
		}
	}

	// Publish only now: every stage has completed.
	a.Manifests = manifests
	a.Components = components
	a.Resources = registry.Resources()
	a.Routes = routes
	if engine != nil {
		a.engine = engine
	}

	return nil
}

// Reload discards the entire graph and all scope tables, closes any live
// watch subscription (blocking until closed), and re-runs Discover from a
// clean state. Nothing is reused across reloads.
func (a *Application) Reload(ctx context.Context) error {
	if a.engine != nil {
		if err := a.engine.Close(); err != nil {
			return err
		}
		a.engine = nil
	}

	a.Manifests = nil
	a.Components = nil
	a.Resources = nil
	a.Routes = nil

	return a.Discover(ctx)
}

// Events returns the attributed change event channel, or nil when the
// application is not watching.
func (a *Application) Events() <-chan watch.Event {
	if a.engine == nil {
		return nil
	}
	return a.engine.Events()
}

// Close tears down any live watch subscription.
func (a *Application) Close() error {
	if a.engine == nil {
		return nil
	}
	err := a.engine.Close()
	a.engine = nil
	return err
}

// classify splits scanned files into manifest files and ignore files.
// Ignore files are only collected when watching; discovery without a watch
// never reads them.
func (a *Application) classify(files []string) (manifests, ignores []string) {
	ignoreNames := make(map[string]bool, len(a.cfg.IgnoreFilenames))
	for _, name := range a.cfg.IgnoreFilenames {
		ignoreNames[name] = true
	}

	for _, f := range files {
		base := filepath.Base(f)
		switch {
		case base == a.cfg.ManifestFilename:
			manifests = append(manifests, f)
		case a.watching && ignoreNames[base]:
			ignores = append(ignores, f)
		}
	}
	return manifests, ignores
}

// parseAll parses every manifest concurrently, keeping the scan's sorted
// path order in the result.
func (a *Application) parseAll(ctx context.Context, files []string) ([]*manifest.Manifest, error) {
	manifests := make([]*manifest.Manifest, len(files))

	g, _ := errgroup.WithContext(ctx)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			m, err := manifest.ParseFile(file)
			if err != nil {
				return err
			}
			manifests[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, m := range manifests {
		for _, w := range m.Warnings {
			a.log.LogWarn(w.String())
		}
	}
	return manifests, nil
}

// buildComponents groups every manifest's directives into components. A
// later manifest (sorted path order) declaring an already-seen name
// overwrites the earlier component; the overwrite is deterministic and
// logged at debug level.
func (a *Application) buildComponents(manifests []*manifest.Manifest) (map[string]*graph.Component, []*graph.Component, error) {
	components := make(map[string]*graph.Component)
	var ordered []*graph.Component

	for _, m := range manifests {
		built, err := graph.BuildComponents(m)
		if err != nil {
			return nil, nil, err
		}
		for _, c := range built {
			if prev, ok := components[c.Name]; ok {
				a.log.LogDebug(fmt.Sprintf("component %q at %s:%d overwrites declaration at %s:%d",
					c.Name, c.File, c.Line, prev.File, prev.Line))
				for i, e := range ordered {
					if e.Name == c.Name {
						ordered[i] = c
						break
					}
				}
			} else {
				ordered = append(ordered, c)
			}
			components[c.Name] = c
		}
	}
	return components, ordered, nil
}
