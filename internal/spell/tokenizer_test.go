package spell

import (
	"errors"
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		text    string
		want    []string
	}{
		{"whitespace", `\s+`, "connection from 10.0.0.1 closed", []string{"connection", "from", "10.0.0.1", "closed"}},
		{"surrounding whitespace trimmed", `\s+`, "  a  b\tc \n", []string{"a", "b", "c"}},
		{"consecutive delimiters keep empty token", `,`, "a,,b", []string{"a", "", "b"}},
		{"leading and trailing delimiters", `,`, ",a,", []string{"", "a", ""}},
		{"no delimiter", `,`, "abc", []string{"abc"}},
		{"empty line", `\s+`, "", []string{""}},
		{"blank line", `\s+`, "   ", []string{""}},
		{"case preserved", `\s+`, "Error error ERROR", []string{"Error", "error", "ERROR"}},
		{"duplicates preserved", `\s+`, "a a a", []string{"a", "a", "a"}},
		{"multi-char delimiter", `\s*\|\s*`, "a | b|c", []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := NewTokenizer(tt.pattern)
			if err != nil {
				t.Fatalf("NewTokenizer(%q) error = %v", tt.pattern, err)
			}
			got := tok.Tokenize(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestNewTokenizerInvalid(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
	}{
		{"empty", ""},
		{"unbalanced paren", "("},
		{"bad repetition", "*"},
		{"matches empty string", `\s*`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTokenizer(tt.pattern)
			if !errors.Is(err, ErrInvalidPattern) {
				t.Errorf("NewTokenizer(%q) error = %v, want ErrInvalidPattern", tt.pattern, err)
			}
		})
	}
}

func TestTokenizerPattern(t *testing.T) {
	tok, err := NewTokenizer(`[ ,]+`)
	if err != nil {
		t.Fatalf("NewTokenizer() error = %v", err)
	}
	if tok.Pattern() != `[ ,]+` {
		t.Errorf("Pattern() = %q, want %q", tok.Pattern(), `[ ,]+`)
	}
}
