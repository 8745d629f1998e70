package spell

import (
	"reflect"
	"strings"
	"testing"
)

func mustTokenizer(t *testing.T, pattern string) *Tokenizer {
	t.Helper()
	tok, err := NewTokenizer(pattern)
	if err != nil {
		t.Fatalf("NewTokenizer(%q) error = %v", pattern, err)
	}
	return tok
}

// buildTemplate seeds a template from the first line and generalizes it with
// the rest, numbering lines from 0.
func buildTemplate(t *testing.T, lines ...string) *Template {
	t.Helper()
	tok := mustTokenizer(t, DefaultDelimiter)
	tmpl := newTemplate(0, tok.Tokenize(lines[0]), 0, tok)
	for i, line := range lines[1:] {
		tmpl.generalize(tok.Tokenize(line), i+1)
	}
	return tmpl
}

func TestNewTemplate(t *testing.T) {
	tmpl := buildTemplate(t, "a * b")

	if tmpl.Len() != 3 {
		t.Errorf("Len() = %d, want 3", tmpl.Len())
	}
	if got := tmpl.WildcardPositions(); len(got) != 0 {
		t.Errorf("WildcardPositions() = %v, want none for a literal *", got)
	}
	if tmpl.IsWildcard(1) {
		t.Error("IsWildcard(1) = true for a literal * token")
	}
	if !reflect.DeepEqual(tmpl.LineIDs(), []int{0}) {
		t.Errorf("LineIDs() = %v, want [0]", tmpl.LineIDs())
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		skeleton string
		tokens   string
		want     int
	}{
		{"identical", "a b c", "a b c", 3},
		{"one differs", "a b c", "a x c", 2},
		{"disjoint", "a b c", "x y z", 0},
		{"extra tokens", "a b", "a x y b", 2},
		{"greedy undercount", "a b c", "b c a", 1},
		{"repeated literal", "a a", "a", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := buildTemplate(t, tt.skeleton)
			got := tmpl.Similarity(strings.Fields(tt.tokens))
			if got != tt.want {
				t.Errorf("Similarity(%q) = %d, want %d", tt.tokens, got, tt.want)
			}
		})
	}
}

func TestSimilaritySkipsWildcards(t *testing.T) {
	tmpl := buildTemplate(t, "get user 1 ok", "get user 2 ok")

	// "*" in the candidate must not count against the wildcard slot.
	got := tmpl.Similarity([]string{"get", "user", "*", "ok"})
	if got != 3 {
		t.Errorf("Similarity() = %d, want 3", got)
	}
}

func TestGeneralize(t *testing.T) {
	tests := []struct {
		name      string
		lines     []string
		want      []string
		positions []int
	}{
		{
			name:      "single variable",
			lines:     []string{"connection from 10.0.0.1 closed", "connection from 10.0.0.2 closed"},
			want:      []string{"connection", "from", "*", "closed"},
			positions: []int{2},
		},
		{
			name:      "variable length middle",
			lines:     []string{"a b c", "a x c", "a y z c"},
			want:      []string{"a", "*", "c"},
			positions: []int{1},
		},
		{
			name:      "identical lines",
			lines:     []string{"a b c", "a b c"},
			want:      []string{"a", "b", "c"},
			positions: nil,
		},
		{
			name:      "adjacent mismatches collapse",
			lines:     []string{"a b c d", "a x y d"},
			want:      []string{"a", "*", "d"},
			positions: []int{1},
		},
		{
			name:      "wildcard absorbs neighbour",
			lines:     []string{"a b c d", "a x y d", "a q r s d"},
			want:      []string{"a", "*", "d"},
			positions: []int{1},
		},
		{
			name:      "two variables",
			lines:     []string{"user alice id 1 ok", "user bob id 2 ok"},
			want:      []string{"user", "*", "id", "*", "ok"},
			positions: []int{1, 3},
		},
		{
			name:      "trailing literals dropped when tokens run out",
			lines:     []string{"a b c d e f", "a b c"},
			want:      []string{"a", "b", "c"},
			positions: nil,
		},
		{
			name:      "inserted token opens a gap",
			lines:     []string{"a b", "a x b"},
			want:      []string{"a", "*", "b"},
			positions: []int{1},
		},
		{
			name:      "leading mismatch",
			lines:     []string{"x b c", "y b c"},
			want:      []string{"*", "b", "c"},
			positions: []int{0},
		},
		{
			name:      "trailing mismatch",
			lines:     []string{"a b x", "a b y"},
			want:      []string{"a", "b", "*"},
			positions: []int{2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := buildTemplate(t, tt.lines...)
			if got := tmpl.Skeleton(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Skeleton() = %q, want %q", got, tt.want)
			}
			if got := tmpl.WildcardPositions(); !reflect.DeepEqual(got, tt.positions) {
				t.Errorf("WildcardPositions() = %v, want %v", got, tt.positions)
			}
			if tmpl.Count() != len(tt.lines) {
				t.Errorf("Count() = %d, want %d", tmpl.Count(), len(tt.lines))
			}
		})
	}
}

func TestGeneralizeRecordsLineIDs(t *testing.T) {
	tok := mustTokenizer(t, DefaultDelimiter)
	tmpl := newTemplate(3, tok.Tokenize("a b"), 4, tok)
	tmpl.generalize(tok.Tokenize("a c"), 9)
	tmpl.generalize(tok.Tokenize("a d"), 12)

	if !reflect.DeepEqual(tmpl.LineIDs(), []int{4, 9, 12}) {
		t.Errorf("LineIDs() = %v, want [4 9 12]", tmpl.LineIDs())
	}
	if tmpl.ID() != 3 {
		t.Errorf("ID() = %d, want 3", tmpl.ID())
	}
}

func TestParameterize(t *testing.T) {
	tests := []struct {
		name   string
		lines  []string
		tokens string
		want   [][]string
		ok     bool
	}{
		{
			name:   "single wildcard",
			lines:  []string{"connection from 10.0.0.1 closed", "connection from 10.0.0.2 closed"},
			tokens: "connection from 10.0.0.2 closed",
			want:   [][]string{{"10.0.0.2"}},
			ok:     true,
		},
		{
			name:   "multi-token parameter",
			lines:  []string{"a b c", "a x c"},
			tokens: "a p q r c",
			want:   [][]string{{"p", "q", "r"}},
			ok:     true,
		},
		{
			name:   "empty parameter",
			lines:  []string{"a b c", "a x c"},
			tokens: "a c",
			want:   [][]string{{}},
			ok:     true,
		},
		{
			name:   "two wildcards",
			lines:  []string{"user alice id 1 ok", "user bob id 2 ok"},
			tokens: "user carol id 3 ok",
			want:   [][]string{{"carol"}, {"3"}},
			ok:     true,
		},
		{
			name:   "trailing wildcard takes the rest",
			lines:  []string{"a b x", "a b y"},
			tokens: "a b y z",
			want:   [][]string{{"y", "z"}},
			ok:     true,
		},
		{
			name:   "no wildcards",
			lines:  []string{"a b c"},
			tokens: "a b c",
			want:   [][]string{},
			ok:     true,
		},
		{
			name:   "literal mismatch",
			lines:  []string{"connection from 10.0.0.1 closed", "connection from 10.0.0.2 closed"},
			tokens: "connection to 10.0.0.2 closed",
			ok:     false,
		},
		{
			name:   "unconsumed tokens",
			lines:  []string{"a b c", "a x c"},
			tokens: "a b c d",
			ok:     false,
		},
		{
			name:   "too few tokens",
			lines:  []string{"a b c", "a x c"},
			tokens: "a",
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := buildTemplate(t, tt.lines...)
			got, ok := tmpl.Parameterize(strings.Fields(tt.tokens))
			if ok != tt.ok {
				t.Fatalf("Parameterize(%q) ok = %v, want %v", tt.tokens, ok, tt.ok)
			}
			if !tt.ok {
				if got != nil {
					t.Errorf("Parameterize(%q) = %q, want nil on failure", tt.tokens, got)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parameterize(%q) = %q, want %q", tt.tokens, got, tt.want)
			}
		})
	}
}

func TestParameterizeDoesNotMutate(t *testing.T) {
	tmpl := buildTemplate(t, "a b c", "a x c")
	before := tmpl.Snapshot()

	tmpl.Parameterize([]string{"a", "q", "c"})
	tmpl.Parameterize([]string{"zzz"})

	if !reflect.DeepEqual(before, tmpl.Snapshot()) {
		t.Error("Parameterize() modified the template")
	}
}

func TestSeparatorPattern(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"all literal", []string{"a b c"}, `a(?:\s+)b(?:\s+)c`},
		{"middle wildcard", []string{"connection from 1 closed", "connection from 2 closed"}, `connection(?:\s+)from|closed`},
		{"single literal runs", []string{"a b c", "a x c"}, `a|c`},
		{"leading wildcard", []string{"x b c", "y b c"}, `b(?:\s+)c`},
		{"metacharacters quoted", []string{"GET /a.b?x=1 (ok)", "GET /c.d?x=2 (ok)"}, `GET|\(ok\)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := buildTemplate(t, tt.lines...)
			if got := tmpl.SeparatorPattern(); got != tt.want {
				t.Errorf("SeparatorPattern() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReparameterize(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		raw   string
		want  [][]string
		ok    bool
	}{
		{
			name:  "single wildcard",
			lines: []string{"connection from 10.0.0.1 closed", "connection from 10.0.0.2 closed"},
			raw:   "connection from 10.0.0.2 closed",
			want:  [][]string{{"10.0.0.2"}},
			ok:    true,
		},
		{
			name:  "extra whitespace in raw text",
			lines: []string{"connection from 10.0.0.1 closed", "connection from 10.0.0.2 closed"},
			raw:   "  connection   from 10.0.0.9   closed ",
			want:  [][]string{{"10.0.0.9"}},
			ok:    true,
		},
		{
			name:  "two wildcards",
			lines: []string{"user alice id 1 ok", "user bob id 2 ok"},
			raw:   "user carol id 3 ok",
			want:  [][]string{{"carol"}, {"3"}},
			ok:    true,
		},
		{
			name:  "chunk is re-tokenized",
			lines: []string{"a b c", "a x c"},
			raw:   "a p q c",
			want:  [][]string{{"p", "q"}},
			ok:    true,
		},
		{
			name:  "no wildcards",
			lines: []string{"a b c"},
			raw:   "a b c",
			want:  [][]string{},
			ok:    true,
		},
		{
			name:  "too many chunks",
			lines: []string{"connection from 10.0.0.1 closed", "connection from 10.0.0.2 closed"},
			raw:   "connection from 10.0.0.2 closed again",
			ok:    false,
		},
		{
			name:  "too few chunks",
			lines: []string{"user alice id 1 ok", "user bob id 2 ok"},
			raw:   "user carol ok",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := buildTemplate(t, tt.lines...)
			got, ok := tmpl.Reparameterize(tt.raw)
			if ok != tt.ok {
				t.Fatalf("Reparameterize(%q) ok = %v (got %q), want %v", tt.raw, ok, got, tt.ok)
			}
			if tt.ok && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Reparameterize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestReparameterizeDisagreesWithParameterize(t *testing.T) {
	tmpl := buildTemplate(t, "connection from 10.0.0.1 closed", "connection from 10.0.0.2 closed")

	// Text that shares no literal with the template is a single chunk, which
	// happens to match the wildcard count; the token path rejects it.
	raw := "totally different"
	if _, ok := tmpl.Parameterize(strings.Fields(raw)); ok {
		t.Error("Parameterize() accepted unrelated tokens")
	}
	got, ok := tmpl.Reparameterize(raw)
	if !ok {
		t.Fatal("Reparameterize() rejected a single chunk for a single wildcard")
	}
	if !reflect.DeepEqual(got, [][]string{{"totally", "different"}}) {
		t.Errorf("Reparameterize() = %q", got)
	}
}

func TestTemplateSnapshot(t *testing.T) {
	tmpl := buildTemplate(t, "user alice id 1 ok", "user bob id 2 ok")

	got := tmpl.Snapshot()
	want := Record{
		ID:                0,
		Skeleton:          []string{"user", "*", "id", "*", "ok"},
		LineIDs:           []int{0, 1},
		WildcardPositions: []int{1, 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}

	// The record must not alias template state.
	got.Skeleton[0] = "changed"
	got.LineIDs[0] = 99
	if tmpl.Skeleton()[0] != "user" || tmpl.LineIDs()[0] != 0 {
		t.Error("Snapshot() shares memory with the template")
	}
}

func TestTemplateString(t *testing.T) {
	tmpl := buildTemplate(t, "connection from 10.0.0.1 closed", "connection from 10.0.0.2 closed")
	if got := tmpl.String(); got != "connection from * closed" {
		t.Errorf("String() = %q", got)
	}
}
