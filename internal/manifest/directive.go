package manifest

import "fmt"

// Directive command vocabulary. Commands are matched case-sensitively;
// anything outside this set is reported as a warning and dropped.
const (
	CmdComponent  = "COMPONENT"
	CmdFrom       = "FROM"
	CmdRun        = "RUN"
	CmdCopy       = "COPY"
	CmdAdd        = "ADD"
	CmdEntrypoint = "ENTRYPOINT"
	CmdCmd        = "CMD"
	CmdWorkdir    = "WORKDIR"
	CmdUser       = "USER"
	CmdEnv        = "ENV"
	CmdExpose     = "EXPOSE"
	CmdLifecycle  = "LIFECYCLE"
	CmdCron       = "CRON"
	CmdCPU        = "CPU"
	CmdMemory     = "MEMORY"
	CmdRoute      = "ROUTE"
	CmdResource   = "RESOURCE"
	CmdStatic     = "STATIC"
	CmdAssets     = "ASSETS"
	CmdTest       = "TEST"
	CmdSpecial    = "SPECIAL"
)

// commands is the full vocabulary of recognized directive commands.
var commands = map[string]bool{
	CmdComponent:  true,
	CmdFrom:       true,
	CmdRun:        true,
	CmdCopy:       true,
	CmdAdd:        true,
	CmdEntrypoint: true,
	CmdCmd:        true,
	CmdWorkdir:    true,
	CmdUser:       true,
	CmdEnv:        true,
	CmdExpose:     true,
	CmdLifecycle:  true,
	CmdCron:       true,
	CmdCPU:        true,
	CmdMemory:     true,
	CmdRoute:      true,
	CmdResource:   true,
	CmdStatic:     true,
	CmdAssets:     true,
	CmdTest:       true,
	CmdSpecial:    true,
}

// passthrough commands contribute their raw text verbatim to a component's
// build text. TEST is special-cased: its exact two-field form is rewritten
// to CMD, any other shape passes through unchanged.
var passthrough = map[string]bool{
	CmdFrom:       true,
	CmdRun:        true,
	CmdCopy:       true,
	CmdAdd:        true,
	CmdEntrypoint: true,
	CmdCmd:        true,
	CmdWorkdir:    true,
	CmdUser:       true,
	CmdEnv:        true,
	CmdTest:       true,
}

// Directive is one parsed statement from a manifest file. Directives are
// immutable after parsing and owned by their Manifest.
type Directive struct {
	Command string            // first token, e.g. "COMPONENT"
	Args    []string          // remaining tokens in order
	Params  map[string]string // command-specific named parameters
	Raw     string            // normalized source text (whitespace collapsed)
	File    string            // source manifest path
	Line    int               // 1-based line number in File
}

// Param returns the named parameter, or "" if the directive does not carry it.
func (d Directive) Param(key string) string {
	return d.Params[key]
}

// IsPassthrough reports whether the directive contributes verbatim to build text.
func (d Directive) IsPassthrough() bool {
	return passthrough[d.Command]
}

// BuildLine returns the directive's contribution to a component's build text.
// Returns "" for non-passthrough directives. A TEST directive with exactly one
// argument is rewritten to CMD; every other passthrough line is emitted verbatim.
func (d Directive) BuildLine() string {
	if !passthrough[d.Command] {
		return ""
	}
	if d.Command == CmdTest && len(d.Args) == 1 {
		return CmdCmd + " " + d.Args[0]
	}
	return d.Raw
}

// IsKnownCommand reports whether s is in the directive vocabulary.
func IsKnownCommand(s string) bool {
	return commands[s]
}

// Warning records a tolerated parse problem: a malformed structured line or
// an unrecognized command. Warnings never fail a parse.
type Warning struct {
	File    string
	Line    int
	Raw     string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s:%d: %s", w.File, w.Line, w.Message)
}

// Manifest is one parsed manifest file: an ordered directive sequence plus
// any tolerated warnings. A manifest may declare multiple components, each
// block running from a COMPONENT directive to the next one or end of file.
// Manifests are rebuilt wholesale each discovery cycle and never mutated.
type Manifest struct {
	Path       string
	Directives []Directive
	Warnings   []Warning
}
