package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		logLevel  string
		logged    []string
		suppressed []string
	}{
		{
			name:      "info default",
			logLevel:  "info",
			logged:    []string{"INFO", "WARN", "ERROR"},
			suppressed: []string{"TRACE", "DEBUG"},
		},
		{
			name:      "debug",
			logLevel:  "debug",
			logged:    []string{"DEBUG", "INFO", "WARN", "ERROR"},
			suppressed: []string{"TRACE"},
		},
		{
			name:      "error only",
			logLevel:  "error",
			logged:    []string{"ERROR"},
			suppressed: []string{"TRACE", "DEBUG", "INFO", "WARN"},
		},
		{
			name:      "invalid level defaults to info",
			logLevel:  "verbose",
			logged:    []string{"INFO"},
			suppressed: []string{"DEBUG"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cl := NewConsoleLogger(&buf, tt.logLevel)

			cl.LogTrace("trace msg")
			cl.LogDebug("debug msg")
			cl.LogInfo("info msg")
			cl.LogWarn("warn msg")
			cl.LogError("error msg")

			out := buf.String()
			for _, level := range tt.logged {
				if !strings.Contains(out, "["+level+"]") {
					t.Errorf("expected %s to be logged, output: %q", level, out)
				}
			}
			for _, level := range tt.suppressed {
				if strings.Contains(out, "["+level+"]") {
					t.Errorf("expected %s to be suppressed, output: %q", level, out)
				}
			}
		})
	}
}

func TestNilWriterDiscards(t *testing.T) {
	cl := NewConsoleLogger(nil, "info")
	// Must not panic.
	cl.LogInfo("dropped")
	cl.LogError("dropped")
}

func TestTimestampPrefix(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "info")
	cl.LogInfo("hello")

	line := buf.String()
	if len(line) < 11 || line[0] != '[' || line[9] != ']' {
		t.Errorf("expected [HH:MM:SS] prefix, got %q", line)
	}
	if !strings.HasSuffix(line, "hello\n") {
		t.Errorf("expected message suffix, got %q", line)
	}
}

func TestNormalizeLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TRACE", "trace"},
		{" Debug ", "debug"},
		{"", "info"},
		{"nonsense", "info"},
		{"error", "error"},
	}
	for _, tt := range tests {
		if got := normalizeLogLevel(tt.in); got != tt.want {
			t.Errorf("normalizeLogLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
