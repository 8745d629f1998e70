package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/bimmerbailey/spell/internal/config"
	"golang.org/x/term"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// ColorMode determines when to use colored output.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // Auto-detect based on TTY
	ColorAlways                  // Always use colors
	ColorNever                   // Never use colors
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// shouldColorize determines if output should be colorized based on mode and TTY detection.
func shouldColorize(mode ColorMode, w interface{}) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	case ColorAuto:
		if f, ok := w.(*os.File); ok {
			return isTerminal(f)
		}
		return false
	}
	return false
}

// ColorizeLine applies color to an entire log line based on its level.
func ColorizeLine(level config.LogLevel, line string) string {
	switch level {
	case config.LevelDebug:
		return colorGray + line + colorReset
	case config.LevelWarn:
		return colorYellow + line + colorReset
	case config.LevelError:
		return colorRed + line + colorReset
	case config.LevelFatal:
		return colorBold + colorRed + line + colorReset
	default:
		return line // INFO and UNKNOWN use default color
	}
}

// ColorizeTemplate renders a skeleton with its wildcard slots highlighted.
// Only the listed positions are colored, so a literal "*" stays plain.
func ColorizeTemplate(skeleton []string, positions []int) string {
	wild := make(map[int]bool, len(positions))
	for _, p := range positions {
		wild[p] = true
	}

	parts := make([]string, len(skeleton))
	for i, slot := range skeleton {
		if wild[i] {
			parts[i] = colorCyan + slot + colorReset
		} else {
			parts[i] = slot
		}
	}
	return strings.Join(parts, " ")
}

// FormatEntry formats a tailed entry with the id of the template it landed
// in, coloring the line by level.
func FormatEntry(templateID int, entry config.LogEntry, colorize bool) string {
	tag := fmt.Sprintf("[T%d]", templateID)
	if colorize {
		return colorGray + tag + colorReset + " " + ColorizeLine(entry.Level, entry.Raw)
	}
	return tag + " " + entry.Raw
}

// WriteTaggedEntry writes a tailed entry with its template id, with color
// based on ColorMode.
func (wr *Writer) WriteTaggedEntry(templateID int, entry config.LogEntry, mode ColorMode) error {
	_, err := fmt.Fprintln(wr.w, FormatEntry(templateID, entry, shouldColorize(mode, wr.w)))
	return err
}
