// Package tail follows a log file and hands every complete line to a callback.
//
// It implements "tail -f" like functionality with optional pattern and level
// filters, truncation handling and log rotation detection. The callback is
// always invoked from the goroutine running Run, one line at a time, so it
// may feed a template registry directly.
package tail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/bimmerbailey/spell/internal/config"
	"github.com/bimmerbailey/spell/internal/parser"
	"github.com/fsnotify/fsnotify"
)

// ErrRotated is returned by Run when the file is rotated away and
// FollowRotate is off.
var ErrRotated = errors.New("file rotated")

// maxLineSize bounds a single line.
const maxLineSize = 1024 * 1024

// Options configures the tailer behavior.
type Options struct {
	FilePath     string          // Path to the log file
	Lines        int             // Number of existing lines to replay before following
	Follow       bool            // Whether to follow the file for new content
	FollowRotate bool            // Whether to follow through log rotations
	Pattern      *regexp.Regexp  // Optional regex pattern lines must match
	LevelFilter  config.LogLevel // Minimum log level; LevelUnknown disables the filter
	Parser       *parser.Parser  // Parser for each line; nil uses the defaults
	Logger       *slog.Logger    // Diagnostics; nil discards them

	// Handler is called for each matching entry. Returning an error stops Run.
	Handler func(config.LogEntry) error

	// RotateTimeout bounds the wait for a rotated file to reappear.
	RotateTimeout time.Duration
}

// Tailer follows a single log file.
type Tailer struct {
	opts    Options
	parser  *parser.Parser
	logger  *slog.Logger
	file    *os.File
	offset  int64
	lineNum int
	watcher *fsnotify.Watcher
}

// New creates a new Tailer with the given options.
func New(opts Options) *Tailer {
	p := opts.Parser
	if p == nil {
		p = parser.New(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.RotateTimeout <= 0 {
		opts.RotateTimeout = 10 * time.Second
	}
	return &Tailer{opts: opts, parser: p, logger: logger}
}

// Run replays the last Lines lines and, when following, every line appended
// afterwards. It blocks until ctx is cancelled, the handler fails, or the
// file goes away.
func (t *Tailer) Run(ctx context.Context) error {
	if err := t.openFile(); err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer t.close()

	if t.opts.Lines > 0 {
		if err := t.readInitialLines(); err != nil {
			return fmt.Errorf("failed to read initial lines: %w", err)
		}
	}

	if !t.opts.Follow {
		return nil
	}

	if err := t.setupWatcher(); err != nil {
		return fmt.Errorf("failed to setup watcher: %w", err)
	}

	// Catch anything written between the initial read and the watch.
	if err := t.readNewContent(); err != nil {
		return err
	}
	return t.watch(ctx)
}

func (t *Tailer) openFile() error {
	f, err := os.Open(t.opts.FilePath)
	if err != nil {
		return err
	}
	t.file = f

	stat, err := f.Stat()
	if err != nil {
		return err
	}
	t.offset = stat.Size()
	return nil
}

// readInitialLines replays the last Lines complete lines. It reads backwards
// in growing windows until enough lines are found or the start is reached.
func (t *Tailer) readInitialLines() error {
	size := t.offset
	if size == 0 {
		return nil
	}

	// ~300 bytes per line is generous for JSON logs.
	window := int64(t.opts.Lines) * 300 * 2
	var lines []string
	for {
		start := size - window
		if start < 0 {
			start = 0
		}

		var err error
		lines, err = t.readLines(start, size)
		if err != nil {
			return err
		}
		if len(lines) >= t.opts.Lines || start == 0 {
			break
		}
		window *= 2
	}

	var entries []config.LogEntry
	for _, line := range lines {
		t.lineNum++
		entry := t.parser.ParseLine(line, t.lineNum)
		if t.shouldDisplay(entry) {
			entries = append(entries, entry)
		}
	}
	if len(entries) > t.opts.Lines {
		entries = entries[len(entries)-t.opts.Lines:]
	}

	for _, entry := range entries {
		if err := t.opts.Handler(entry); err != nil {
			return err
		}
	}
	return nil
}

// readLines returns the non-blank lines between start and end, skipping the
// first one when start falls inside it.
func (t *Tailer) readLines(start, end int64) ([]string, error) {
	section := io.NewSectionReader(t.file, start, end-start)
	scanner := bufio.NewScanner(section)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	if start > 0 {
		// Partial line.
		scanner.Scan()
	}

	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

func (t *Tailer) setupWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	t.watcher = watcher
	return watcher.Add(t.opts.FilePath)
}

func (t *Tailer) watch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-t.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed unexpectedly")
			}
			if err := t.handleEvent(ctx, event); err != nil {
				return err
			}

		case err, ok := <-t.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func (t *Tailer) handleEvent(ctx context.Context, event fsnotify.Event) error {
	switch {
	case event.Has(fsnotify.Write):
		return t.readNewContent()
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return t.handleRotation(ctx)
	}
	return nil
}

// readNewContent reads complete lines appended since the last read. A
// trailing line without a newline is left for the next write.
func (t *Tailer) readNewContent() error {
	stat, err := t.file.Stat()
	if err != nil {
		return err
	}
	if stat.Size() < t.offset {
		t.logger.Warn("file truncated, reading from start", "path", t.opts.FilePath)
		t.offset = 0
	}

	if _, err := t.file.Seek(t.offset, io.SeekStart); err != nil {
		return err
	}

	reader := bufio.NewReaderSize(t.file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		t.offset += int64(len(line))

		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		t.lineNum++
		entry := t.parser.ParseLine(line, t.lineNum)
		if !t.shouldDisplay(entry) {
			continue
		}
		if err := t.opts.Handler(entry); err != nil {
			return err
		}
	}
}

// handleRotation waits for the path to reappear and continues from the start
// of the new file.
func (t *Tailer) handleRotation(ctx context.Context) error {
	if !t.opts.FollowRotate {
		t.logger.Info("file rotated, stopping", "path", t.opts.FilePath)
		return ErrRotated
	}

	// Drain what was written before the rotation.
	if err := t.readNewContent(); err != nil {
		return err
	}
	if t.file != nil {
		t.file.Close()
		t.file = nil
	}

	timeout := time.After(t.opts.RotateTimeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timeout:
			return fmt.Errorf("timeout waiting for rotated file to reappear")
		case <-ticker.C:
			f, err := os.Open(t.opts.FilePath)
			if err != nil {
				continue
			}
			t.file = f
			t.offset = 0

			if err := t.watcher.Add(t.opts.FilePath); err != nil {
				return fmt.Errorf("failed to watch rotated file: %w", err)
			}
			t.logger.Info("file rotated, following new file", "path", t.opts.FilePath)
			return t.readNewContent()
		}
	}
}

// shouldDisplay checks if an entry matches the filter criteria. Entries with
// an unknown level always pass the level filter.
func (t *Tailer) shouldDisplay(entry config.LogEntry) bool {
	if t.opts.LevelFilter != config.LevelUnknown && entry.Level != config.LevelUnknown {
		if levelToInt(entry.Level) < levelToInt(t.opts.LevelFilter) {
			return false
		}
	}

	if t.opts.Pattern != nil && !t.opts.Pattern.MatchString(entry.Raw) {
		return false
	}
	return true
}

// levelToInt converts a log level to an integer for comparison.
func levelToInt(level config.LogLevel) int {
	switch level {
	case config.LevelDebug:
		return 0
	case config.LevelInfo:
		return 1
	case config.LevelWarn:
		return 2
	case config.LevelError:
		return 3
	case config.LevelFatal:
		return 4
	default:
		return -1
	}
}

func (t *Tailer) close() {
	if t.file != nil {
		t.file.Close()
	}
	if t.watcher != nil {
		t.watcher.Close()
	}
}
