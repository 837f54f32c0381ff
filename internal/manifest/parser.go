// Package manifest parses Stackfile manifests into ordered directive
// sequences.
//
// A Stackfile is line-oriented: one directive per non-blank, non-comment
// line. Leading/trailing whitespace is trimmed and interior runs are
// collapsed before tokenizing. Structured directives derive named parameters
// by fixed per-command rules; malformed structured lines and unrecognized
// commands are tolerated as warnings rather than parse failures, so the
// format stays forward-compatible with directives this version does not
// know. Fatal checking (directive legality per component type, resource
// schemas) is deferred to the graph package.
package manifest

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Parse parses one manifest's text. It never fails: every problem is
// recorded as a warning on the returned Manifest and the offending line is
// dropped from the directive sequence.
func Parse(text, path string) *Manifest {
	m := &Manifest{Path: path}

	for i, line := range strings.Split(text, "\n") {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		fields := strings.Fields(trimmed)
		raw := strings.Join(fields, " ")
		command := fields[0]

		if !IsKnownCommand(command) {
			m.warnf(lineNo, raw, "unrecognized directive %q", command)
			continue
		}

		d := Directive{
			Command: command,
			Args:    fields[1:],
			Raw:     raw,
			File:    path,
			Line:    lineNo,
		}

		if err := deriveParams(&d); err != nil {
			m.warnf(lineNo, raw, "malformed %s directive: %v", command, err)
			continue
		}

		m.Directives = append(m.Directives, d)
	}

	return m
}

// ParseFile reads and parses a manifest from disk.
func ParseFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(string(data), path), nil
}

func (m *Manifest) warnf(line int, raw, format string, args ...interface{}) {
	m.Warnings = append(m.Warnings, Warning{
		File:    m.Path,
		Line:    line,
		Raw:     raw,
		Message: fmt.Sprintf(format, args...),
	})
}

// deriveParams fills d.Params according to the fixed per-command rules.
// Passthrough-only commands carry no named parameters; ENV is both
// passthrough and structured.
func deriveParams(d *Directive) error {
	switch d.Command {
	case CmdComponent:
		if len(d.Args) < 2 {
			return fmt.Errorf("expected name and type, got %d argument(s)", len(d.Args))
		}
		d.Params = map[string]string{
			"name": d.Args[0],
			"type": d.Args[1],
		}

	case CmdEnv:
		if len(d.Args) == 0 {
			return fmt.Errorf("expected key[=default]")
		}
		key, def, _ := strings.Cut(d.Args[0], "=")
		if key == "" {
			return fmt.Errorf("empty variable name")
		}
		d.Params = map[string]string{
			"key":     key,
			"default": def,
		}
		if len(d.Args) > 1 && d.Args[1] == "SECRET" {
			d.Params["secret"] = "true"
		}

	case CmdExpose:
		if len(d.Args) != 1 {
			return fmt.Errorf("expected a single port")
		}
		if _, err := strconv.Atoi(d.Args[0]); err != nil {
			return fmt.Errorf("invalid port %q", d.Args[0])
		}
		d.Params = map[string]string{"port": d.Args[0]}

	case CmdCPU:
		if len(d.Args) != 1 {
			return fmt.Errorf("expected a single value")
		}
		if _, err := strconv.ParseFloat(d.Args[0], 64); err != nil {
			return fmt.Errorf("invalid cpu units %q", d.Args[0])
		}
		d.Params = map[string]string{"units": d.Args[0]}

	case CmdMemory:
		if len(d.Args) != 1 {
			return fmt.Errorf("expected a single value")
		}
		if _, err := strconv.Atoi(d.Args[0]); err != nil {
			return fmt.Errorf("invalid memory units %q", d.Args[0])
		}
		d.Params = map[string]string{"units": d.Args[0]}

	case CmdRoute:
		if len(d.Args) < 2 {
			return fmt.Errorf("expected pattern and method")
		}
		d.Params = map[string]string{
			"pattern": d.Args[0],
			"method":  d.Args[1],
		}
		for _, flag := range d.Args[2:] {
			switch {
			case flag == "public" || flag == "internal" || flag == "private":
				d.Params["visibility"] = flag
			case strings.HasPrefix(flag, "when="):
				d.Params["when"] = strings.TrimPrefix(flag, "when=")
			default:
				return fmt.Errorf("unknown route flag %q", flag)
			}
		}

	case CmdResource:
		// RESOURCE name=<n> type=<t> [setting=<k=v>]...
		// Settings repeat, so they stay in Args; the resource registry
		// re-reads them per contributing directive.
		d.Params = map[string]string{}
		for _, arg := range d.Args {
			key, value, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("expected key=value, got %q", arg)
			}
			switch key {
			case "name", "type":
				d.Params[key] = value
			case "setting":
				if !strings.Contains(value, "=") {
					return fmt.Errorf("expected setting=key=value, got %q", arg)
				}
			default:
				return fmt.Errorf("unknown resource parameter %q", key)
			}
		}
		if d.Params["name"] == "" {
			return fmt.Errorf("missing resource name")
		}

	case CmdLifecycle:
		if len(d.Args) == 0 {
			return fmt.Errorf("expected a lifecycle entry")
		}
		d.Params = map[string]string{"entry": strings.Join(d.Args, " ")}

	case CmdCron:
		if len(d.Args) == 0 {
			return fmt.Errorf("expected a schedule")
		}
		d.Params = map[string]string{"spec": strings.Join(d.Args, " ")}

	case CmdStatic, CmdAssets:
		if len(d.Args) != 1 {
			return fmt.Errorf("expected a single directory")
		}
		d.Params = map[string]string{"dir": d.Args[0]}
	}

	return nil
}
