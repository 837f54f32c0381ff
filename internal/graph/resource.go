package graph

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gantry-io/gantry/internal/manifest"
)

// ConflictLogger receives non-fatal diagnostics emitted while merging
// resource settings across components. *logger.ConsoleLogger satisfies it.
type ConflictLogger interface {
	LogWarn(message string)
}

// Resource is a named external dependency shared by reference across
// components. Its type is fixed by the first declaration that names one; a
// later declaration with a different type is fatal. Settings accumulate
// across every contributing directive, first-write-wins.
type Resource struct {
	Name       string
	Type       string
	Settings   map[string]string
	Directives []manifest.Directive

	// typeSetAt locates the directive that fixed the type, for conflict
	// error messages.
	typeSetAt manifest.Directive
}

// Registry builds and merges resources across the whole graph. Safe for
// concurrent registration during the component validation stage.
type Registry struct {
	mu        sync.Mutex
	resources map[string]*Resource
	logger    ConflictLogger
}

// NewRegistry returns an empty registry. logger may be nil, in which case
// setting-conflict diagnostics are discarded.
func NewRegistry(logger ConflictLogger) *Registry {
	return &Registry{
		resources: make(map[string]*Resource),
		logger:    logger,
	}
}

// Register merges one RESOURCE directive into the registry. Registration is
// idempotent by name across the whole graph: the first declaration creates
// the resource, later declarations of the same name merge into it. A type
// conflict between declarations is fatal.
func (r *Registry) Register(c *Component, d manifest.Directive) (*Resource, error) {
	name := d.Param("name")
	typ := d.Param("type")

	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.resources[name]
	if !ok {
		res = &Resource{
			Name:     name,
			Settings: make(map[string]string),
		}
		r.resources[name] = res
	}

	if typ != "" {
		if res.Type == "" {
			res.Type = typ
			res.typeSetAt = d
		} else if res.Type != typ {
			return nil, &ResourceError{
				Resource: name,
				File:     d.File,
				Line:     d.Line,
				Message: fmt.Sprintf("type %q conflicts with %q declared at %s:%d",
					typ, res.Type, res.typeSetAt.File, res.typeSetAt.Line),
			}
		}
	}

	for key, value := range resourceSettings(d) {
		prev, exists := res.Settings[key]
		if !exists {
			res.Settings[key] = value
			continue
		}
		if prev == value {
			continue
		}
		// First-write-wins; the later, differing value is only diagnosed.
		if r.logger != nil {
			r.logger.LogWarn(fmt.Sprintf("%s:%d: resource %q setting %q: keeping %q, ignoring %q",
				d.File, d.Line, name, key, prev, value))
		}
	}

	res.Directives = append(res.Directives, d)
	return res, nil
}

// Resources returns every registered resource keyed by name.
func (r *Registry) Resources() map[string]*Resource {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*Resource, len(r.resources))
	for name, res := range r.resources {
		out[name] = res
	}
	return out
}

// Validate enforces every resource's type schema. It runs only after all
// contributing directives have merged, so a setting required by the schema
// may come from any component that references the resource.
func (r *Registry) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.resources))
	for name := range r.resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := r.resources[name].validate(); err != nil {
			return err
		}
	}
	return nil
}

// resourceSettings extracts setting=key=value parameters from one RESOURCE
// directive. The parser has already rejected malformed forms.
func resourceSettings(d manifest.Directive) map[string]string {
	out := make(map[string]string)
	for _, arg := range d.Args {
		rest, ok := strings.CutPrefix(arg, "setting=")
		if !ok {
			continue
		}
		key, value, _ := strings.Cut(rest, "=")
		out[key] = value
	}
	return out
}

// resourceSchema describes one resource type's settings contract.
type resourceSchema struct {
	required []string
	enums    map[string][]string
	// pairs maps a setting to another setting that must accompany it.
	pairs map[string]string
}

var resourceSchemas = map[string]resourceSchema{
	// Object storage buckets take no mandatory settings.
	"s3": {},
	// Relational engines carry an empty settings schema.
	"mysql":      {},
	"postgresql": {},
	// Document key-value tables require a hash key; a range key is optional
	// but must declare both its name and type.
	"dynamodb": {
		required: []string{"hash-key-name", "hash-key-type"},
		enums: map[string][]string{
			"hash-key-type":  {"S", "N", "B"},
			"range-key-type": {"S", "N", "B"},
		},
		pairs: map[string]string{
			"range-key-name": "range-key-type",
			"range-key-type": "range-key-name",
		},
	},
}

func (res *Resource) validate() error {
	if res.Type == "" {
		return &ResourceError{
			Resource: res.Name,
			File:     res.firstFile(),
			Line:     res.firstLine(),
			Message:  "missing type",
		}
	}

	schema, ok := resourceSchemas[res.Type]
	if !ok {
		return &ResourceError{
			Resource: res.Name,
			File:     res.typeSetAt.File,
			Line:     res.typeSetAt.Line,
			Message:  fmt.Sprintf("unknown type %q", res.Type),
		}
	}

	for _, key := range schema.required {
		if _, ok := res.Settings[key]; !ok {
			return &ResourceError{
				Resource: res.Name,
				Message:  fmt.Sprintf("missing required setting %q", key),
			}
		}
	}

	for key, allowed := range schema.enums {
		value, ok := res.Settings[key]
		if !ok {
			continue
		}
		if !contains(allowed, value) {
			return &ResourceError{
				Resource: res.Name,
				Message: fmt.Sprintf("invalid value %q for setting %q (expected one of %s)",
					value, key, strings.Join(allowed, ", ")),
			}
		}
	}

	for key, buddy := range schema.pairs {
		if _, ok := res.Settings[key]; !ok {
			continue
		}
		if _, ok := res.Settings[buddy]; !ok {
			return &ResourceError{
				Resource: res.Name,
				Message:  fmt.Sprintf("setting %q requires %q", key, buddy),
			}
		}
	}

	return nil
}

func (res *Resource) firstFile() string {
	if len(res.Directives) == 0 {
		return ""
	}
	return res.Directives[0].File
}

func (res *Resource) firstLine() int {
	if len(res.Directives) == 0 {
		return 0
	}
	return res.Directives[0].Line
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
