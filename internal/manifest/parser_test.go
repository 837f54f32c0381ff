package manifest

import (
	"strings"
	"testing"
)

// TestParseSkipsCommentsAndBlanks verifies comment and blank line handling
func TestParseSkipsCommentsAndBlanks(t *testing.T) {
	text := `
# build definition
COMPONENT api service

   # indented comment
EXPOSE 8080
`
	m := Parse(text, "Stackfile")
	if len(m.Directives) != 2 {
		t.Fatalf("expected 2 directives, got %d", len(m.Directives))
	}
	if len(m.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", m.Warnings)
	}
	if m.Directives[0].Command != CmdComponent {
		t.Errorf("first directive = %s, want COMPONENT", m.Directives[0].Command)
	}
	if m.Directives[1].Line != 6 {
		t.Errorf("EXPOSE line = %d, want 6", m.Directives[1].Line)
	}
}

// TestParseCollapsesWhitespace verifies interior whitespace runs are collapsed
func TestParseCollapsesWhitespace(t *testing.T) {
	m := Parse("  RUN   apt-get   install -y  curl  ", "Stackfile")
	if len(m.Directives) != 1 {
		t.Fatalf("expected 1 directive, got %d", len(m.Directives))
	}
	d := m.Directives[0]
	if d.Raw != "RUN apt-get install -y curl" {
		t.Errorf("Raw = %q, want collapsed text", d.Raw)
	}
	if len(d.Args) != 4 {
		t.Errorf("Args = %v, want 4 tokens", d.Args)
	}
}

// TestParseCommandCaseSensitive verifies lowercase commands are not recognized
func TestParseCommandCaseSensitive(t *testing.T) {
	m := Parse("expose 8080", "Stackfile")
	if len(m.Directives) != 0 {
		t.Fatalf("expected lowercase command to be dropped, got %v", m.Directives)
	}
	if len(m.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(m.Warnings))
	}
	if !strings.Contains(m.Warnings[0].Message, "unrecognized") {
		t.Errorf("warning = %q, want unrecognized-directive message", m.Warnings[0].Message)
	}
}

// TestParseStructuredParams tests named parameter derivation per command
func TestParseStructuredParams(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		params map[string]string
	}{
		{
			name:   "component",
			line:   "COMPONENT api service",
			params: map[string]string{"name": "api", "type": "service"},
		},
		{
			name:   "env bare key",
			line:   "ENV PORT",
			params: map[string]string{"key": "PORT", "default": ""},
		},
		{
			name:   "env with default",
			line:   "ENV PORT=3000",
			params: map[string]string{"key": "PORT", "default": "3000"},
		},
		{
			name:   "env secret",
			line:   "ENV API_KEY= SECRET",
			params: map[string]string{"key": "API_KEY", "default": "", "secret": "true"},
		},
		{
			name:   "expose",
			line:   "EXPOSE 8080",
			params: map[string]string{"port": "8080"},
		},
		{
			name:   "cpu",
			line:   "CPU 0.5",
			params: map[string]string{"units": "0.5"},
		},
		{
			name:   "memory",
			line:   "MEMORY 512",
			params: map[string]string{"units": "512"},
		},
		{
			name:   "route default visibility",
			line:   "ROUTE /api/* GET",
			params: map[string]string{"pattern": "/api/*", "method": "GET"},
		},
		{
			name:   "route internal with condition",
			line:   "ROUTE /admin POST internal when=staging",
			params: map[string]string{"pattern": "/admin", "method": "POST", "visibility": "internal", "when": "staging"},
		},
		{
			name:   "resource",
			line:   "RESOURCE name=db type=postgresql",
			params: map[string]string{"name": "db", "type": "postgresql"},
		},
		{
			name:   "lifecycle",
			line:   "LIFECYCLE migrate ./bin/migrate",
			params: map[string]string{"entry": "migrate ./bin/migrate"},
		},
		{
			name:   "cron",
			line:   "CRON 0 4 * * *",
			params: map[string]string{"spec": "0 4 * * *"},
		},
		{
			name:   "assets",
			line:   "ASSETS ./public",
			params: map[string]string{"dir": "./public"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Parse(tt.line, "Stackfile")
			if len(m.Warnings) != 0 {
				t.Fatalf("unexpected warnings: %v", m.Warnings)
			}
			if len(m.Directives) != 1 {
				t.Fatalf("expected 1 directive, got %d", len(m.Directives))
			}
			d := m.Directives[0]
			for key, want := range tt.params {
				if got := d.Param(key); got != want {
					t.Errorf("param %q = %q, want %q", key, got, want)
				}
			}
			for key := range d.Params {
				if _, ok := tt.params[key]; !ok {
					t.Errorf("unexpected param %q=%q", key, d.Params[key])
				}
			}
		})
	}
}

// TestParseMalformedStructured verifies malformed lines warn and drop
func TestParseMalformedStructured(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"component missing type", "COMPONENT api"},
		{"expose non-numeric", "EXPOSE eighty"},
		{"expose extra args", "EXPOSE 80 81"},
		{"cpu non-numeric", "CPU lots"},
		{"route missing method", "ROUTE /api"},
		{"route unknown flag", "ROUTE /api GET secret"},
		{"resource missing name", "RESOURCE type=postgresql"},
		{"resource bare arg", "RESOURCE db"},
		{"resource malformed setting", "RESOURCE name=db type=dynamodb setting=hash-key-name"},
		{"env empty", "ENV"},
		{"lifecycle empty", "LIFECYCLE"},
		{"assets missing dir", "ASSETS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Parse(tt.line, "Stackfile")
			if len(m.Directives) != 0 {
				t.Errorf("expected directive to be dropped, got %v", m.Directives)
			}
			if len(m.Warnings) != 1 {
				t.Errorf("expected 1 warning, got %v", m.Warnings)
			}
		})
	}
}

// TestParseNeverFails verifies whole-file tolerance: good lines survive bad ones
func TestParseNeverFails(t *testing.T) {
	text := `COMPONENT web service
BOGUS directive here
EXPOSE nope
FROM node:20`
	m := Parse(text, "app/Stackfile")
	if len(m.Directives) != 2 {
		t.Fatalf("expected 2 surviving directives, got %d", len(m.Directives))
	}
	if len(m.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(m.Warnings))
	}
	if m.Warnings[0].File != "app/Stackfile" || m.Warnings[0].Line != 2 {
		t.Errorf("warning location = %s:%d, want app/Stackfile:2", m.Warnings[0].File, m.Warnings[0].Line)
	}
}

// TestBuildLine tests passthrough emission and the TEST rewrite rule
func TestBuildLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"from verbatim", "FROM golang:1.25", "FROM golang:1.25"},
		{"run verbatim", "RUN make build", "RUN make build"},
		{"env verbatim", "ENV PORT=3000", "ENV PORT=3000"},
		{"test two-field rewritten", "TEST ./run-tests.sh", "CMD ./run-tests.sh"},
		{"test longer form verbatim", "TEST go test ./...", "TEST go test ./..."},
		{"expose not passthrough", "EXPOSE 8080", ""},
		{"route not passthrough", "ROUTE /api GET", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Parse(tt.line, "Stackfile")
			if len(m.Directives) != 1 {
				t.Fatalf("expected 1 directive, got %d", len(m.Directives))
			}
			if got := m.Directives[0].BuildLine(); got != tt.want {
				t.Errorf("BuildLine() = %q, want %q", got, tt.want)
			}
		})
	}
}
