package spell

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultDelimiter splits lines on runs of whitespace.
const DefaultDelimiter = `\s+`

// ErrInvalidPattern is returned when the tokenization pattern does not compile
// or matches the empty string.
var ErrInvalidPattern = errors.New("spell: invalid tokenization pattern")

// Tokenizer splits raw lines into tokens on a delimiter regular expression.
type Tokenizer struct {
	pattern string
	re      *regexp.Regexp
	lead    *regexp.Regexp
	trail   *regexp.Regexp
}

// NewTokenizer compiles the delimiter pattern.
func NewTokenizer(pattern string) (*Tokenizer, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	// A delimiter that matches nothing would split between every rune.
	if re.MatchString("") {
		return nil, fmt.Errorf("%w: %q matches the empty string", ErrInvalidPattern, pattern)
	}
	return &Tokenizer{
		pattern: pattern,
		re:      re,
		lead:    regexp.MustCompile(`^(?:` + pattern + `)`),
		trail:   regexp.MustCompile(`(?:` + pattern + `)$`),
	}, nil
}

// Pattern returns the delimiter pattern source.
func (t *Tokenizer) Pattern() string {
	return t.pattern
}

// Tokenize trims surrounding whitespace and splits on every delimiter match.
//
// Empty tokens produced by leading, trailing or consecutive delimiters are
// kept as-is. A blank line yields a single empty token.
func (t *Tokenizer) Tokenize(text string) []string {
	return t.re.Split(strings.TrimSpace(text), -1)
}

// trimDelimiters removes one delimiter match from each end of text.
func (t *Tokenizer) trimDelimiters(text string) string {
	text = t.lead.ReplaceAllString(text, "")
	return t.trail.ReplaceAllString(text, "")
}

// join renders tokens back into text using a single space.
func join(tokens []string) string {
	return strings.Join(tokens, " ")
}
