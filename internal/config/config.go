// Package config provides configuration types and helpers for spell.
package config

import (
	"encoding/json"
	"strings"
	"time"
)

// Default values shared by the command line and the config file.
const (
	DefaultDelimiter = `\s+`
	DefaultSnapshot  = ".spell.snap"
	DefaultFormat    = "text"
)

// DefaultTimestampFormats are tried in order when a plain text line carries
// a leading timestamp.
var DefaultTimestampFormats = []string{
	"2006-01-02T15:04:05Z07:00",  // RFC3339
	"2006-01-02 15:04:05",        // Common datetime
	"Jan 02 15:04:05",            // Syslog
	"02/Jan/2006:15:04:05 -0700", // Apache/Nginx
}

// Config holds the application-wide configuration.
type Config struct {
	Format           string          `mapstructure:"format"`
	Verbose          bool            `mapstructure:"verbose"`
	Delimiter        string          `mapstructure:"delimiter"`
	Snapshot         string          `mapstructure:"snapshot"`
	TimestampFormats []string        `mapstructure:"timestamp_formats"`
	LLM              LLMConfig       `mapstructure:"llm"`
	Redaction        RedactionConfig `mapstructure:"redaction"`
}

// LLMConfig holds configuration for the labeling provider.
type LLMConfig struct {
	// Provider selects which LLM to use. Only "ollama" is supported.
	Provider string `mapstructure:"provider"`

	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`

	Ollama OllamaConfig `mapstructure:"ollama"`
}

// OllamaConfig holds Ollama-specific settings.
type OllamaConfig struct {
	Host      string `mapstructure:"host"`       // API endpoint
	Model     string `mapstructure:"model"`      // Default model name
	KeepAlive string `mapstructure:"keep_alive"` // e.g., "5m"
	NumCtx    int    `mapstructure:"num_ctx"`    // Context window size
}

// RedactionConfig holds configuration for redacting templates before they are
// sent to a provider.
type RedactionConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Patterns specifies which redaction patterns to use. Empty selects the
	// redact package defaults.
	// Available: ipv4, ipv6, email, api_key, aws_key, jwt, private_key, mac_address, credit_card, uuid
	Patterns []string `mapstructure:"patterns"`
}

// LogLevel represents a standard log severity level.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	LevelUnknown
)

// String returns the string representation of a LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON implements json.Marshaler for LogLevel.
func (l LogLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON implements json.Unmarshaler for LogLevel.
func (l *LogLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*l = ParseLevel(s)
	return nil
}

// ParseLevel converts a string to a LogLevel.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug", "dbg":
		return LevelDebug
	case "info", "inf":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error", "err":
		return LevelError
	case "fatal", "critical", "crit":
		return LevelFatal
	default:
		return LevelUnknown
	}
}

// LogEntry is a single line read from a log source, before it is handed to
// the template registry.
type LogEntry struct {
	Raw       string                 `json:"raw"`
	Timestamp time.Time              `json:"timestamp,omitempty"`
	Level     LogLevel               `json:"level"`
	Message   string                 `json:"message"`
	Source    string                 `json:"source,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Line      int                    `json:"line"`
}

// Text returns the message when message mode is requested and one was
// extracted, and the raw line otherwise.
func (e LogEntry) Text(message bool) string {
	if message && e.Message != "" {
		return e.Message
	}
	return e.Raw
}
