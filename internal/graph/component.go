// Package graph builds and validates the application graph: components
// grouped from manifest directives, shared resources merged across the whole
// graph, and HTTP routes owned by components.
package graph

import (
	"fmt"
	"strconv"

	"github.com/gantry-io/gantry/internal/manifest"
)

// ComponentType is the closed set of deployable unit kinds.
type ComponentType int

const (
	// TypeService is a long-running HTTP service.
	TypeService ComponentType = iota
	// TypeTask is a scheduled or lifecycle-triggered job.
	TypeTask
	// TypeStatic is a static site served from a content directory.
	TypeStatic
)

// String returns the manifest spelling of the component type.
func (t ComponentType) String() string {
	switch t {
	case TypeService:
		return "service"
	case TypeTask:
		return "task"
	case TypeStatic:
		return "static"
	default:
		return "unknown"
	}
}

// ParseComponentType parses the manifest spelling of a component type.
func ParseComponentType(s string) (ComponentType, error) {
	switch s {
	case "service":
		return TypeService, nil
	case "task":
		return TypeTask, nil
	case "static":
		return TypeStatic, nil
	default:
		return 0, fmt.Errorf("unknown component type %q (expected service, task or static)", s)
	}
}

// allows reports whether a directive command is legal for the component
// type. COMPONENT itself is always tolerated since it opens every block.
// The switch is exhaustive over the type enumeration so an added type
// cannot silently inherit another type's set.
func (t ComponentType) allows(command string) bool {
	if command == manifest.CmdComponent {
		return true
	}
	switch t {
	case TypeService:
		switch command {
		case manifest.CmdRoute, manifest.CmdResource, manifest.CmdEnv,
			manifest.CmdSpecial, manifest.CmdExpose, manifest.CmdFrom,
			manifest.CmdCopy, manifest.CmdAdd, manifest.CmdRun,
			manifest.CmdWorkdir, manifest.CmdEntrypoint, manifest.CmdCmd,
			manifest.CmdUser, manifest.CmdCPU, manifest.CmdMemory:
			return true
		}
	case TypeTask:
		switch command {
		case manifest.CmdLifecycle, manifest.CmdCron, manifest.CmdResource,
			manifest.CmdEnv, manifest.CmdFrom, manifest.CmdCopy,
			manifest.CmdAdd, manifest.CmdRun, manifest.CmdWorkdir,
			manifest.CmdEntrypoint, manifest.CmdCmd, manifest.CmdUser,
			manifest.CmdCPU, manifest.CmdMemory:
			return true
		}
	case TypeStatic:
		switch command {
		case manifest.CmdRoute, manifest.CmdFrom, manifest.CmdCopy,
			manifest.CmdAdd, manifest.CmdRun, manifest.CmdWorkdir,
			manifest.CmdEntrypoint, manifest.CmdUser, manifest.CmdAssets:
			return true
		}
	}
	return false
}

// Settings holds a component's derived runtime settings. Pointer fields are
// nil when the setting is absent for the component's type.
type Settings struct {
	Port       *int
	CPU        *float64
	Memory     *int
	Lifecycle  []string
	Cron       string
	ContentDir string
}

// Variable is one ENV-declared variable.
type Variable struct {
	Default string
	Secret  bool
}

// Component is one deployable unit grouped from a manifest block.
type Component struct {
	Name       string
	Type       ComponentType
	Directives []manifest.Directive
	Settings   Settings
	Variables  map[string]Variable
	Routes     []*Route
	Resources  []*Resource

	// File and Line locate the COMPONENT directive that declared the block.
	File string
	Line int

	validated bool
	bound     bool
}

func defaultSettings(t ComponentType) Settings {
	intp := func(n int) *int { return &n }
	floatp := func(f float64) *float64 { return &f }
	switch t {
	case TypeService:
		return Settings{Port: intp(80), CPU: floatp(0.1), Memory: intp(128)}
	case TypeTask:
		return Settings{CPU: floatp(0.1), Memory: intp(128)}
	default:
		return Settings{}
	}
}

// BuildComponents groups a manifest's directives into component blocks. Each
// block runs from a COMPONENT directive to the next one or end of file;
// directives before the first COMPONENT belong to no block and are skipped.
func BuildComponents(m *manifest.Manifest) ([]*Component, error) {
	var out []*Component
	var current *Component

	for _, d := range m.Directives {
		if d.Command == manifest.CmdComponent {
			typ, err := ParseComponentType(d.Param("type"))
			if err != nil {
				return nil, &ComponentError{
					Component: d.Param("name"),
					File:      d.File,
					Line:      d.Line,
					Message:   err.Error(),
				}
			}
			current = &Component{
				Name:      d.Param("name"),
				Type:      typ,
				Settings:  defaultSettings(typ),
				Variables: make(map[string]Variable),
				File:      d.File,
				Line:      d.Line,
			}
			current.Directives = append(current.Directives, d)
			out = append(out, current)
			continue
		}
		if current == nil {
			continue
		}
		current.Directives = append(current.Directives, d)
	}

	return out, nil
}

// Validate applies the component's self-contained directives: ENV
// collection, derived setting side effects and the per-type legality check.
// Components validate independently, so callers may run it concurrently.
// It is idempotent; the first illegal directive aborts with its file:line.
// Route construction and resource registration happen separately in Bind.
func (c *Component) Validate() error {
	if c.validated {
		return nil
	}

	// Pass 1: variables.
	for _, d := range c.Directives {
		if d.Command != manifest.CmdEnv {
			continue
		}
		c.Variables[d.Param("key")] = Variable{
			Default: d.Param("default"),
			Secret:  d.Param("secret") == "true",
		}
	}

	// Pass 2: remaining side effects.
	for _, d := range c.Directives {
		switch d.Command {
		case manifest.CmdExpose:
			port, _ := strconv.Atoi(d.Param("port"))
			c.Settings.Port = &port
		case manifest.CmdLifecycle:
			c.Settings.Lifecycle = append(c.Settings.Lifecycle, d.Param("entry"))
		case manifest.CmdCron:
			c.Settings.Cron = d.Param("spec")
		case manifest.CmdCPU:
			units, _ := strconv.ParseFloat(d.Param("units"), 64)
			c.Settings.CPU = &units
		case manifest.CmdMemory:
			units, _ := strconv.Atoi(d.Param("units"))
			c.Settings.Memory = &units
		case manifest.CmdStatic, manifest.CmdAssets:
			c.Settings.ContentDir = d.Param("dir")
		}
	}

	// Pass 3: legality.
	for _, d := range c.Directives {
		if !c.Type.allows(d.Command) {
			return &ComponentError{
				Component: c.Name,
				File:      d.File,
				Line:      d.Line,
				Message:   fmt.Sprintf("directive %s is not allowed for %s components", d.Command, c.Type),
			}
		}
	}

	c.validated = true
	return nil
}

// Bind constructs the component's routes and registers its resources with
// the shared registry. Registration order decides which contributing
// directive wins a resource setting conflict, so callers must invoke Bind
// sequentially in deterministic component order, after every component has
// validated. Idempotent.
func (c *Component) Bind(reg *Registry) error {
	if c.bound {
		return nil
	}

	for _, d := range c.Directives {
		switch d.Command {
		case manifest.CmdRoute:
			route, err := buildRoute(c, d)
			if err != nil {
				return err
			}
			c.Routes = append(c.Routes, route)
		case manifest.CmdResource:
			res, err := reg.Register(c, d)
			if err != nil {
				return err
			}
			c.Resources = append(c.Resources, res)
		}
	}

	c.bound = true
	return nil
}

// BuildText returns the component's Dockerfile-style build text: the verbatim
// concatenation of its passthrough directive lines, one per line.
func (c *Component) BuildText() string {
	var out string
	for _, d := range c.Directives {
		line := d.BuildLine()
		if line == "" {
			continue
		}
		out += line + "\n"
	}
	return out
}

// WatchSources returns the source arguments of the component's ADD and COPY
// directives, in declaration order. These are the component's declared
// inputs; the watch engine derives inclusion scopes from them.
func (c *Component) WatchSources() []string {
	var out []string
	for _, d := range c.Directives {
		if d.Command != manifest.CmdAdd && d.Command != manifest.CmdCopy {
			continue
		}
		// Last argument is the destination; everything before it is a source.
		if len(d.Args) < 2 {
			continue
		}
		out = append(out, d.Args[:len(d.Args)-1]...)
	}
	return out
}
