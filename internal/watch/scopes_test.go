package watch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantry-io/gantry/internal/graph"
	"github.com/gantry-io/gantry/internal/manifest"
)

// componentsFrom builds a component table from manifest texts keyed by path.
func componentsFrom(t *testing.T, sources map[string]string) map[string]*graph.Component {
	t.Helper()
	out := make(map[string]*graph.Component)
	for path, text := range sources {
		m := manifest.Parse(text, path)
		require.Empty(t, m.Warnings)
		components, err := graph.BuildComponents(m)
		require.NoError(t, err)
		for _, c := range components {
			out[c.Name] = c
		}
	}
	return out
}

func writeIgnore(t *testing.T, path, text string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

func TestAttribution(t *testing.T) {
	root := t.TempDir()
	components := componentsFrom(t, map[string]string{
		filepath.Join(root, "app", "api", "Stackfile"): "COMPONENT api service\nADD . .",
		filepath.Join(root, "app", "web", "Stackfile"): "COMPONENT web service\nADD ./src ./src",
	})

	scopes, err := BuildScopes(root, nil, components)
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		want []string
	}{
		{
			name: "blanket scope includes direct child",
			path: filepath.Join(root, "app", "api", "foo.txt"),
			want: []string{"api"},
		},
		{
			name: "blanket scope includes nested file",
			path: filepath.Join(root, "app", "api", "pkg", "deep", "x.go"),
			want: []string{"api"},
		},
		{
			name: "pattern scope includes declared source",
			path: filepath.Join(root, "app", "web", "src", "index.js"),
			want: []string{"web"},
		},
		{
			name: "pattern scope excludes undeclared sibling",
			path: filepath.Join(root, "app", "web", "README.md"),
			want: nil,
		},
		{
			name: "path outside every scope",
			path: filepath.Join(root, "README.md"),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scopes.Attribute(tt.path, false))
		})
	}
}

func TestAttributionOverlappingScopes(t *testing.T) {
	root := t.TempDir()
	components := componentsFrom(t, map[string]string{
		filepath.Join(root, "Stackfile"):        "COMPONENT all service\nADD . .",
		filepath.Join(root, "api", "Stackfile"): "COMPONENT api service\nADD . .",
	})

	scopes, err := BuildScopes(root, nil, components)
	require.NoError(t, err)

	// Both scopes cover the nested path; each component attributes once.
	got := scopes.Attribute(filepath.Join(root, "api", "main.go"), false)
	assert.ElementsMatch(t, []string{"all", "api"}, got)

	// Only the root blanket scope covers a root-level file.
	assert.Equal(t, []string{"all"}, scopes.Attribute(filepath.Join(root, "notes.txt"), false))
}

func TestComponentWithoutSourcesHasNoScope(t *testing.T) {
	root := t.TempDir()
	components := componentsFrom(t, map[string]string{
		filepath.Join(root, "Stackfile"): "COMPONENT api service\nFROM golang:1.25",
	})

	scopes, err := BuildScopes(root, nil, components)
	require.NoError(t, err)
	assert.Empty(t, scopes.Attribute(filepath.Join(root, "anything.go"), false))
}

func TestIgnoreScopeExclusion(t *testing.T) {
	root := t.TempDir()
	ignore := writeIgnore(t, filepath.Join(root, ".stackignore"), "*.log\n!keep.log\n")

	components := componentsFrom(t, map[string]string{
		filepath.Join(root, "api", "Stackfile"): "COMPONENT api service\nADD . .",
	})

	scopes, err := BuildScopes(root, []string{ignore}, components)
	require.NoError(t, err)

	// Excluded even though the blanket watch scope covers it.
	assert.True(t, scopes.Excluded(filepath.Join(root, "api", "debug.log"), false))
	assert.Equal(t, []string{"api"}, scopes.Attribute(filepath.Join(root, "api", "debug.log"), false),
		"inclusion is scope-independent; the engine applies exclusion first")

	// Re-inclusion via negation.
	assert.False(t, scopes.Excluded(filepath.Join(root, "api", "keep.log"), false))

	assert.False(t, scopes.Excluded(filepath.Join(root, "api", "main.go"), false))
}

func TestNestedIgnoreScopes(t *testing.T) {
	root := t.TempDir()
	rootIgnore := writeIgnore(t, filepath.Join(root, ".stackignore"), "*.tmp\n")
	webIgnore := writeIgnore(t, filepath.Join(root, "web", ".stackignore"), "dist/\n")

	scopes, err := BuildScopes(root, []string{rootIgnore, webIgnore}, nil)
	require.NoError(t, err)

	// Root scope applies everywhere under the root.
	assert.True(t, scopes.Excluded(filepath.Join(root, "web", "cache.tmp"), false))

	// Nested scope applies only under its own directory.
	assert.True(t, scopes.Excluded(filepath.Join(root, "web", "dist", "app.js"), false))
	assert.False(t, scopes.Excluded(filepath.Join(root, "dist", "app.js"), false))
}

func TestWatchScopePatternAnchoring(t *testing.T) {
	root := t.TempDir()
	components := componentsFrom(t, map[string]string{
		filepath.Join(root, "Stackfile"): "COMPONENT web service\nADD ./src ./src",
	})

	scopes, err := BuildScopes(root, nil, components)
	require.NoError(t, err)

	assert.Equal(t, []string{"web"}, scopes.Attribute(filepath.Join(root, "src", "a.js"), false))
	// A nested directory that happens to be named src is not a declared source.
	assert.Empty(t, scopes.Attribute(filepath.Join(root, "vendor", "src", "a.js"), false))
}
