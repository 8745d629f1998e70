// Package redact replaces sensitive values in log text and template skeletons
// with correlation-preserving placeholders before they leave the process.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/bimmerbailey/spell/internal/config"
)

// Redactor removes sensitive data from text while preserving correlation
// between identical values.
//
// The same sensitive value is always replaced with the same placeholder, so
// "the same IP address appears in two templates" survives redaction without
// the address itself.
type Redactor struct {
	enabled  bool
	patterns []Pattern
	values   map[string]string // original value -> placeholder
	mu       sync.RWMutex
}

// New creates a Redactor from the redaction config. An empty pattern list
// selects DefaultPatterns. Unknown pattern names are an error.
func New(cfg config.RedactionConfig) (*Redactor, error) {
	names := cfg.Patterns
	if len(names) == 0 {
		names = DefaultPatterns()
	}
	patterns, err := Lookup(names)
	if err != nil {
		return nil, err
	}

	return &Redactor{
		enabled:  cfg.Enabled,
		patterns: patterns,
		values:   make(map[string]string),
	}, nil
}

// Enabled reports whether the redactor rewrites anything.
func (r *Redactor) Enabled() bool {
	return r.enabled
}

// Redact replaces every sensitive match in text with its placeholder.
//
//	"Connection from 192.168.1.1 failed" -> "Connection from [IPV4:a3f2] failed"
func (r *Redactor) Redact(text string) string {
	out, _ := r.RedactAndCount(text)
	return out
}

// RedactAndCount redacts text and returns the number of replacements made.
func (r *Redactor) RedactAndCount(text string) (string, int) {
	if !r.enabled {
		return text, 0
	}

	count := 0
	for _, p := range r.patterns {
		text = p.Regex.ReplaceAllStringFunc(text, func(match string) string {
			count++
			return r.placeholder(match, p.Type)
		})
	}
	return text, count
}

// RedactTemplate redacts the literal slots of a skeleton and renders it with
// single spaces. Wildcard slots are left as they are, so the shape of the
// template is unchanged.
func (r *Redactor) RedactTemplate(skeleton []string, positions []int) string {
	wild := make(map[int]bool, len(positions))
	for _, p := range positions {
		wild[p] = true
	}

	parts := make([]string, len(skeleton))
	for i, slot := range skeleton {
		if wild[i] {
			parts[i] = slot
			continue
		}
		parts[i] = r.Redact(slot)
	}
	return strings.Join(parts, " ")
}

// IsSensitive reports whether text contains any sensitive value.
func (r *Redactor) IsSensitive(text string) bool {
	if !r.enabled {
		return false
	}
	for _, p := range r.patterns {
		if p.Regex.MatchString(text) {
			return true
		}
	}
	return false
}

// Values returns a copy of every value redacted so far and its placeholder.
func (r *Redactor) Values() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Reset forgets every remembered value.
func (r *Redactor) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = make(map[string]string)
}

func (r *Redactor) placeholder(value, kind string) string {
	r.mu.RLock()
	p, ok := r.values[value]
	r.mu.RUnlock()
	if ok {
		return p
	}

	h := sha256.Sum256([]byte(value))
	p = fmt.Sprintf("[%s:%s]", kind, hex.EncodeToString(h[:2]))

	r.mu.Lock()
	r.values[value] = p
	r.mu.Unlock()
	return p
}
