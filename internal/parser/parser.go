// Package parser reads log sources line by line and turns each line into a
// config.LogEntry.
//
// It detects common log formats (syslog, JSON, Apache, generic) and separates
// the timestamp, level and source from the message body, so that template
// discovery can run over either the raw line or just the message.
package parser

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bimmerbailey/spell/internal/config"
)

// Format represents a detected log format.
type Format string

const (
	FormatJSON    Format = "json"
	FormatSyslog  Format = "syslog"
	FormatApache  Format = "apache"
	FormatGeneric Format = "generic"
)

// maxLineSize bounds a single line. bufio.Scanner defaults to 64KB.
const maxLineSize = 1024 * 1024

var (
	// <pri>Mmm dd hh:mm:ss host process[pid]: message
	syslogPattern = regexp.MustCompile(`^(?:<(\d{1,3})>)?([A-Z][a-z]{2}\s+\d{1,2}\s\d{2}:\d{2}:\d{2})\s+(\S+)\s+([^\s\[:]+)(?:\[(\d+)\])?:\s*(.*)$`)

	// host ident user [time] "METHOD path proto" status bytes "referer" "agent"
	apachePattern = regexp.MustCompile(`^(\S+) \S+ (\S+) \[([^\]]+)\] "(\S+) (\S+)[^"]*" (\d{3}) (\S+)(?: "([^"]*)" "([^"]*)")?`)

	// levelPrefix matches a level at the start of a message, e.g. "ERROR",
	// "[WARN]" or "Debug:".
	levelPrefix = regexp.MustCompile(`(?i)^\[?(DEBUG|INFO|WARN(?:ING)?|ERROR|FATAL|CRITICAL)\]?:?(?:\s+|$)`)

	// levelPattern matches a level anywhere in a line.
	levelPattern = regexp.MustCompile(`(?i)\b(DEBUG|INFO|WARN(?:ING)?|ERROR|FATAL|CRITICAL)\b`)
)

const (
	syslogLayout = "Jan _2 15:04:05"
	apacheLayout = "02/Jan/2006:15:04:05 -0700"
)

// DetectFormat guesses the format of a single line.
func DetectFormat(line string) Format {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return FormatJSON
	}
	if syslogPattern.MatchString(trimmed) {
		return FormatSyslog
	}
	if apachePattern.MatchString(trimmed) {
		return FormatApache
	}
	return FormatGeneric
}

// Parser reads and parses log files into entries.
type Parser struct {
	timestampFormats []string
}

// New creates a new Parser with the given timestamp format patterns.
func New(timestampFormats []string) *Parser {
	if len(timestampFormats) == 0 {
		timestampFormats = config.DefaultTimestampFormats
	}
	return &Parser{timestampFormats: timestampFormats}
}

// ParseFile opens a file and parses all log entries from it.
func (p *Parser) ParseFile(path string) ([]config.LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return p.Parse(f)
}

// ParseFileStream opens a file and calls fn for every entry in order. The
// entry's Source is set to path unless the line names its own source.
func (p *Parser) ParseFileStream(path string, fn func(config.LogEntry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return p.ParseStream(f, func(entry config.LogEntry) error {
		if entry.Source == "" {
			entry.Source = path
		}
		return fn(entry)
	})
}

// Parse reads log entries from the given reader.
func (p *Parser) Parse(r io.Reader) ([]config.LogEntry, error) {
	var entries []config.LogEntry
	err := p.ParseStream(r, func(entry config.LogEntry) error {
		entries = append(entries, entry)
		return nil
	})
	return entries, err
}

// ParseStream reads log entries from r and calls fn for each one. Blank lines
// are skipped but still counted. It stops at the first error returned by fn.
func (p *Parser) ParseStream(r io.Reader, fn func(config.LogEntry) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := fn(p.parseLine(line, lineNum)); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// ParseLine parses a single line. lineNum is recorded as-is.
func (p *Parser) ParseLine(line string, lineNum int) config.LogEntry {
	return p.parseLine(line, lineNum)
}

func (p *Parser) parseLine(line string, lineNum int) config.LogEntry {
	entry := config.LogEntry{
		Raw:    line,
		Line:   lineNum,
		Level:  config.LevelUnknown,
		Fields: make(map[string]interface{}),
	}

	switch DetectFormat(line) {
	case FormatJSON:
		p.parseJSON(line, &entry)
	case FormatSyslog:
		p.parseSyslog(line, &entry)
	case FormatApache:
		p.parseApache(line, &entry)
	default:
		p.parseGeneric(line, &entry)
	}
	return entry
}

var (
	jsonMessageKeys = []string{"msg", "message", "text"}
	jsonLevelKeys   = []string{"level", "severity", "lvl"}
	jsonTimeKeys    = []string{"time", "timestamp", "ts", "@timestamp"}
)

func (p *Parser) parseJSON(line string, entry *config.LogEntry) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &data); err != nil {
		entry.Message = line
		return
	}

	known := map[string]struct{}{"source": {}}
	for _, key := range jsonMessageKeys {
		known[key] = struct{}{}
		if v, ok := data[key].(string); ok && entry.Message == "" {
			entry.Message = v
		}
	}
	for _, key := range jsonLevelKeys {
		known[key] = struct{}{}
		if v, ok := data[key].(string); ok && entry.Level == config.LevelUnknown {
			entry.Level = config.ParseLevel(v)
		}
	}
	for _, key := range jsonTimeKeys {
		known[key] = struct{}{}
		if v, ok := data[key]; ok && entry.Timestamp.IsZero() {
			entry.Timestamp = p.jsonTimestamp(v)
		}
	}
	if v, ok := data["source"].(string); ok {
		entry.Source = v
	}

	for k, v := range data {
		if _, ok := known[k]; ok {
			continue
		}
		entry.Fields[k] = v
	}
}

// jsonTimestamp accepts formatted strings and epoch seconds or milliseconds.
func (p *Parser) jsonTimestamp(v interface{}) time.Time {
	switch ts := v.(type) {
	case string:
		return p.parseTimestamp(ts)
	case float64:
		if ts > 1e12 {
			return time.UnixMilli(int64(ts)).UTC()
		}
		return time.Unix(int64(ts), 0).UTC()
	}
	return time.Time{}
}

func (p *Parser) parseSyslog(line string, entry *config.LogEntry) {
	m := syslogPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		p.parseGeneric(line, entry)
		return
	}

	if ts, err := time.Parse(syslogLayout, strings.Join(strings.Fields(m[2]), " ")); err == nil {
		entry.Timestamp = ts.AddDate(time.Now().Year(), 0, 0)
	}
	entry.Source = m[3]
	entry.Fields["process"] = m[4]
	if m[5] != "" {
		entry.Fields["pid"] = m[5]
	}
	entry.Message = m[6]

	if m[1] != "" {
		pri, _ := strconv.Atoi(m[1])
		entry.Level = severityLevel(pri % 8)
	} else {
		entry.Level = extractLevel(entry.Message)
	}
}

// severityLevel maps a syslog severity (RFC 5424) to a LogLevel.
func severityLevel(severity int) config.LogLevel {
	switch {
	case severity <= 2:
		return config.LevelFatal
	case severity == 3:
		return config.LevelError
	case severity == 4:
		return config.LevelWarn
	case severity <= 6:
		return config.LevelInfo
	default:
		return config.LevelDebug
	}
}

func (p *Parser) parseApache(line string, entry *config.LogEntry) {
	m := apachePattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		p.parseGeneric(line, entry)
		return
	}

	entry.Source = m[1]
	if m[2] != "-" {
		entry.Fields["user"] = m[2]
	}
	if ts, err := time.Parse(apacheLayout, m[3]); err == nil {
		entry.Timestamp = ts
	}
	entry.Fields["method"] = m[4]
	entry.Fields["path"] = m[5]
	entry.Fields["status_code"] = m[6]
	if m[7] != "-" {
		entry.Fields["bytes"] = m[7]
	}
	if m[8] != "" && m[8] != "-" {
		entry.Fields["referer"] = m[8]
	}
	if m[9] != "" {
		entry.Fields["user_agent"] = m[9]
	}
	entry.Message = m[4] + " " + m[5] + " " + m[6]

	status, _ := strconv.Atoi(m[6])
	switch {
	case status >= 500:
		entry.Level = config.LevelError
	case status >= 400:
		entry.Level = config.LevelWarn
	default:
		entry.Level = config.LevelInfo
	}
}

// parseGeneric strips a leading timestamp and level from the line; what is
// left is the message.
func (p *Parser) parseGeneric(line string, entry *config.LogEntry) {
	ts, rest := p.splitTimestamp(strings.TrimSpace(line))
	entry.Timestamp = ts

	if m := levelPrefix.FindStringSubmatch(rest); m != nil {
		entry.Level = config.ParseLevel(m[1])
		rest = rest[len(m[0]):]
	} else {
		entry.Level = extractLevel(rest)
	}
	entry.Message = strings.TrimSpace(rest)
}

// extractLevel finds the first level keyword anywhere in the line.
func extractLevel(line string) config.LogLevel {
	match := levelPattern.FindString(line)
	if match == "" {
		return config.LevelUnknown
	}
	return config.ParseLevel(match)
}

// extractTimestamp returns the leading timestamp of line, if any.
func (p *Parser) extractTimestamp(line string) time.Time {
	ts, _ := p.splitTimestamp(strings.TrimSpace(line))
	return ts
}

// splitTimestamp parses a leading timestamp, optionally wrapped in brackets,
// and returns it with the remainder of the line.
func (p *Parser) splitTimestamp(line string) (time.Time, string) {
	if strings.HasPrefix(line, "[") {
		if end := strings.IndexByte(line, ']'); end > 0 {
			if ts := p.parseTimestamp(line[1:end]); !ts.IsZero() {
				return ts, strings.TrimSpace(line[end+1:])
			}
		}
	}

	for _, format := range p.timestampFormats {
		head, rest, ok := leadingFields(line, strings.Count(format, " ")+1)
		if !ok {
			continue
		}
		if ts, err := time.Parse(format, head); err == nil {
			return ts, rest
		}
	}
	return time.Time{}, line
}

// parseTimestamp parses a complete timestamp string.
func (p *Parser) parseTimestamp(s string) time.Time {
	for _, format := range p.timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// leadingFields returns the first n whitespace separated fields of s joined by
// single spaces, and the rest of s.
func leadingFields(s string, n int) (string, string, bool) {
	rest := strings.TrimLeft(s, " \t")
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if rest == "" {
			return "", "", false
		}
		end := strings.IndexAny(rest, " \t")
		if end < 0 {
			end = len(rest)
		}
		parts = append(parts, rest[:end])
		rest = strings.TrimLeft(rest[end:], " \t")
	}
	return strings.Join(parts, " "), rest, true
}
