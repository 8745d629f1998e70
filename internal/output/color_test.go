package output

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/bimmerbailey/spell/internal/config"
)

func stripANSI(s string) string {
	for _, code := range []string{colorReset, colorRed, colorYellow, colorCyan, colorGray, colorBold} {
		s = strings.ReplaceAll(s, code, "")
	}
	return s
}

func TestColorizeLine(t *testing.T) {
	line := "disk sda1 is full: 你好 !@#$%^&*()\tend"

	tests := []struct {
		level  config.LogLevel
		prefix string
	}{
		{config.LevelDebug, colorGray},
		{config.LevelInfo, ""},
		{config.LevelWarn, colorYellow},
		{config.LevelError, colorRed},
		{config.LevelFatal, colorBold + colorRed},
		{config.LevelUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			got := ColorizeLine(tt.level, line)
			if tt.prefix == "" {
				if got != line {
					t.Errorf("ColorizeLine() = %q, want the line unchanged", got)
				}
				return
			}
			if want := tt.prefix + line + colorReset; got != want {
				t.Errorf("ColorizeLine() = %q, want %q", got, want)
			}
			if stripANSI(got) != line {
				t.Errorf("content changed: %q", stripANSI(got))
			}
		})
	}
}

func TestFormatEntry(t *testing.T) {
	entry := config.LogEntry{Raw: "user bob logged in", Level: config.LevelError}

	if got := FormatEntry(7, entry, false); got != "[T7] user bob logged in" {
		t.Errorf("FormatEntry() = %q", got)
	}

	colored := FormatEntry(7, entry, true)
	if !strings.HasPrefix(colored, colorGray+"[T7]"+colorReset) || !strings.Contains(colored, colorRed) {
		t.Errorf("FormatEntry(colorize) = %q", colored)
	}
	if stripANSI(colored) != "[T7] user bob logged in" {
		t.Errorf("colored content = %q", stripANSI(colored))
	}
}

func TestColorizeTemplate(t *testing.T) {
	skeleton := []string{"match", "*", "from", "*"}

	// Position 1 is a literal "*" token, position 3 a wildcard.
	got := ColorizeTemplate(skeleton, []int{3})
	want := "match * from " + colorCyan + "*" + colorReset
	if got != want {
		t.Errorf("ColorizeTemplate() = %q, want %q", got, want)
	}

	if got := ColorizeTemplate(skeleton, nil); got != "match * from *" {
		t.Errorf("ColorizeTemplate() without positions = %q", got)
	}
}

func TestShouldColorize(t *testing.T) {
	tests := []struct {
		name   string
		mode   ColorMode
		writer interface{}
		want   bool
	}{
		{"always", ColorAlways, &bytes.Buffer{}, true},
		{"never", ColorNever, os.Stdout, false},
		{"auto on a buffer", ColorAuto, &bytes.Buffer{}, false},
		{"auto on stdout", ColorAuto, os.Stdout, isTerminal(os.Stdout)},
		{"unknown mode", ColorMode(42), os.Stdout, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldColorize(tt.mode, tt.writer); got != tt.want {
				t.Errorf("shouldColorize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriteTaggedEntry(t *testing.T) {
	entry := config.LogEntry{Raw: "disk sda1 is full", Level: config.LevelError}

	tests := []struct {
		name  string
		mode  ColorMode
		color bool
	}{
		{"never", ColorNever, false},
		{"always", ColorAlways, true},
		{"auto on a buffer", ColorAuto, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := New(&buf, FormatText).WriteTaggedEntry(3, entry, tt.mode); err != nil {
				t.Fatalf("WriteTaggedEntry() error = %v", err)
			}

			got := buf.String()
			if hasColor := strings.Contains(got, "\033["); hasColor != tt.color {
				t.Errorf("color codes present = %v, want %v: %q", hasColor, tt.color, got)
			}
			if stripANSI(got) != "[T3] disk sda1 is full\n" {
				t.Errorf("output = %q", stripANSI(got))
			}
		})
	}
}
