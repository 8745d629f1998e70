package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/bimmerbailey/spell/internal/spell"
	"github.com/spf13/viper"
)

var sampleLines = []string{
	"user bob logged in",
	"disk sda1 is full",
	"user alice logged in",
	"cache miss for key 42",
	"user carol logged in",
	"disk sdb2 is full",
}

// resetConfig clears viper, applies the defaults and points the snapshot at a
// fresh temp file, whose path it returns.
func resetConfig(t *testing.T) string {
	t.Helper()
	viper.Reset()
	setDefaults()
	snapshot := filepath.Join(t.TempDir(), "test.snap")
	viper.Set("snapshot", snapshot)
	t.Cleanup(viper.Reset)
	return snapshot
}

func writeTempFile(t *testing.T, dir string, name string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := []byte(joinLines(lines))
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func joinLines(lines []string) string {
	buf := bytes.Buffer{}
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	return buf.String()
}

// seedSnapshot writes a snapshot built from lines straight through the
// registry.
func seedSnapshot(t *testing.T, path string, lines ...string) {
	t.Helper()
	r, err := spell.New(spell.DefaultDelimiter)
	if err != nil {
		t.Fatalf("spell.New() error = %v", err)
	}
	for _, line := range lines {
		r.Insert(line)
	}
	if err := spell.SaveFile(path, r); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}
}

func loadSnapshot(t *testing.T, path string) *spell.Registry {
	t.Helper()
	r, err := spell.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	return r
}
