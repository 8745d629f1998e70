package cmd

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func newTailTestCmd(out *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{Use: "tail"}
	cmd.SetOut(out)
	cmd.Flags().StringP("pattern", "p", "", "")
	cmd.Flags().StringP("level", "l", "", "")
	cmd.Flags().IntP("lines", "n", 10, "")
	cmd.Flags().Bool("no-follow", true, "")
	cmd.Flags().Bool("follow-rotate", false, "")
	cmd.Flags().Bool("no-color", true, "")
	cmd.Flags().Bool("message", false, "")
	cmd.Flags().String("save-interval", "30s", "")
	cmd.Flags().Bool("no-save", false, "")
	return cmd
}

func TestTailReplaysAndSaves(t *testing.T) {
	snapshot := resetConfig(t)
	file := writeTempFile(t, t.TempDir(), "app.log", sampleLines)

	var out bytes.Buffer
	if err := runTail(newTailTestCmd(&out), []string{file}); err != nil {
		t.Fatalf("runTail() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != len(sampleLines) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(sampleLines), out.String())
	}
	if lines[0] != "[T0] user bob logged in" || lines[1] != "[T1] disk sda1 is full" {
		t.Errorf("tagged lines = %q", lines[:2])
	}
	if lines[5] != "[T1] disk sdb2 is full" {
		t.Errorf("last line = %q", lines[5])
	}

	if r := loadSnapshot(t, snapshot); r.NextLineID() != 6 || r.Len() != 3 {
		t.Errorf("snapshot: %d lines, %d templates, want 6 and 3", r.NextLineID(), r.Len())
	}

	// A second run continues the saved registry.
	out.Reset()
	if err := runTail(newTailTestCmd(&out), []string{file}); err != nil {
		t.Fatalf("runTail() error = %v", err)
	}
	if r := loadSnapshot(t, snapshot); r.NextLineID() != 12 || r.Len() != 3 {
		t.Errorf("resumed snapshot: %d lines, %d templates, want 12 and 3", r.NextLineID(), r.Len())
	}
}

func TestTailLastLines(t *testing.T) {
	snapshot := resetConfig(t)
	file := writeTempFile(t, t.TempDir(), "app.log", sampleLines)

	var out bytes.Buffer
	cmd := newTailTestCmd(&out)
	_ = cmd.Flags().Set("lines", "2")
	_ = cmd.Flags().Set("no-save", "true")
	if err := runTail(cmd, []string{file}); err != nil {
		t.Fatalf("runTail() error = %v", err)
	}

	want := "[T0] user carol logged in\n[T1] disk sdb2 is full\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if _, err := os.Stat(snapshot); !os.IsNotExist(err) {
		t.Errorf("snapshot written despite --no-save: %v", err)
	}
}

func TestTailErrors(t *testing.T) {
	dir := t.TempDir()
	file := writeTempFile(t, dir, "app.log", sampleLines)

	tests := []struct {
		name  string
		flag  string
		value string
		path  string
	}{
		{"missing file", "", "", dir + "/missing.log"},
		{"bad save interval", "save-interval", "soon", file},
		{"bad level", "level", "loud", file},
		{"bad pattern", "pattern", "[", file},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetConfig(t)
			var out bytes.Buffer
			cmd := newTailTestCmd(&out)
			if tt.flag != "" {
				_ = cmd.Flags().Set(tt.flag, tt.value)
			}
			if err := runTail(cmd, []string{tt.path}); err == nil {
				t.Error("expected error")
			}
		})
	}
}
