// Package watch keeps a discovered application graph synchronized with live
// filesystem changes. It derives layered pattern scopes from the same
// directive data the graph was built from and attributes each raw filesystem
// event to the component(s) whose declared inputs cover the changed path.
package watch

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/gantry-io/gantry/internal/graph"
)

// IgnoreScope is a directory-rooted exclusion scope built from one ignore
// file. Paths under the directory are tested relative to it with full
// gitignore semantics (negation, directory-only patterns, later-pattern
// override).
type IgnoreScope struct {
	Dir     string
	matcher gitignore.Matcher
}

// WatchScope is a directory-rooted inclusion scope owned by one component,
// built from the source arguments of its ADD and COPY directives. A bare "."
// source marks blanket inclusion of everything under the directory.
type WatchScope struct {
	Dir       string
	Component string
	Blanket   bool
	matcher   gitignore.Matcher
}

// Scopes holds the two layered scope tables for one application graph. The
// tables are rebuilt from scratch on every discovery cycle and never patched.
type Scopes struct {
	Root   string
	ignore []IgnoreScope
	watch  []WatchScope
}

// BuildScopes derives the scope tables for a graph. ignoreFiles are the
// absolute paths of every recognized ignore file found during the scan;
// components is the graph's component table. Scope order is deterministic:
// ignore scopes sorted by directory, watch scopes by component name.
func BuildScopes(root string, ignoreFiles []string, components map[string]*graph.Component) (*Scopes, error) {
	s := &Scopes{Root: root}

	sorted := append([]string(nil), ignoreFiles...)
	sort.Strings(sorted)
	for _, file := range sorted {
		scope, err := buildIgnoreScope(file)
		if err != nil {
			return nil, err
		}
		s.ignore = append(s.ignore, scope)
	}

	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := components[name]
		scope, ok := buildWatchScope(c)
		if ok {
			s.watch = append(s.watch, scope)
		}
	}

	return s, nil
}

func buildIgnoreScope(file string) (IgnoreScope, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return IgnoreScope{}, fmt.Errorf("failed to read ignore file: %w", err)
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(trimmed, nil))
	}

	return IgnoreScope{
		Dir:     filepath.Dir(file),
		matcher: gitignore.NewMatcher(patterns),
	}, nil
}

// buildWatchScope derives a component's inclusion scope from its ADD/COPY
// source arguments. Components that declare no sources get no scope: they
// have no file inputs to attribute. Reports ok=false in that case.
func buildWatchScope(c *graph.Component) (WatchScope, bool) {
	sources := c.WatchSources()
	if len(sources) == 0 {
		return WatchScope{}, false
	}

	scope := WatchScope{
		Dir:       filepath.Dir(c.File),
		Component: c.Name,
	}

	var patterns []gitignore.Pattern
	for _, src := range sources {
		cleaned := path.Clean(filepath.ToSlash(src))
		if cleaned == "." || cleaned == "/" {
			scope.Blanket = true
			continue
		}
		// Anchor the pattern at the scope directory so "src" does not also
		// include nested directories that happen to share the name.
		if !strings.HasPrefix(cleaned, "/") {
			cleaned = "/" + cleaned
		}
		patterns = append(patterns, gitignore.ParsePattern(cleaned, nil))
	}
	scope.matcher = gitignore.NewMatcher(patterns)

	return scope, true
}

// Excluded reports whether any ignore scope whose directory prefixes the
// path excludes it. Each scope evaluates the path relative to its own
// directory, so nested ignore files keep their own negation context.
func (s *Scopes) Excluded(p string, isDir bool) bool {
	for _, scope := range s.ignore {
		rel, ok := relUnder(scope.Dir, p)
		if !ok {
			continue
		}
		if scope.matcher.Match(rel, isDir) {
			return true
		}
	}
	return false
}

// Attribute returns the names of every component whose watch scope includes
// the path, deduplicated, in scope table order.
func (s *Scopes) Attribute(p string, isDir bool) []string {
	var out []string
	seen := make(map[string]bool)
	for _, scope := range s.watch {
		rel, ok := relUnder(scope.Dir, p)
		if !ok {
			continue
		}
		if !scope.Blanket && !scope.matcher.Match(rel, isDir) {
			continue
		}
		if seen[scope.Component] {
			continue
		}
		seen[scope.Component] = true
		out = append(out, scope.Component)
	}
	return out
}

// relUnder returns p's path segments relative to dir, or ok=false when p is
// not strictly under dir.
func relUnder(dir, p string) ([]string, bool) {
	rel, err := filepath.Rel(dir, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, false
	}
	return strings.Split(filepath.ToSlash(rel), "/"), true
}
