package spell

import (
	"regexp"
	"strings"
)

// Wildcard is how a variable slot is rendered in a skeleton.
const Wildcard = "*"

// Template is one discovered event type: a skeleton of literal tokens and
// wildcard slots plus the ids of every line that matched it.
type Template struct {
	id        int
	skeleton  []string
	wild      []bool // wild[i] marks skeleton[i] as a wildcard slot
	lineIDs   []int
	tokenizer *Tokenizer

	// Derived from skeleton, rebuilt by refresh after every mutation.
	positions []int
	separator string
	sepRe     *regexp.Regexp
}

// Record is the structural state of a Template.
type Record struct {
	ID                int      `json:"id" msgpack:"id"`
	Skeleton          []string `json:"skeleton" msgpack:"skeleton"`
	LineIDs           []int    `json:"line_ids" msgpack:"line_ids"`
	WildcardPositions []int    `json:"wildcard_positions" msgpack:"positions"`
}

// newTemplate seeds a template with the tokens of its first line. Every slot
// starts out literal, including tokens that happen to read "*".
func newTemplate(id int, tokens []string, lineID int, tok *Tokenizer) *Template {
	t := &Template{
		id:        id,
		skeleton:  append([]string(nil), tokens...),
		wild:      make([]bool, len(tokens)),
		lineIDs:   []int{lineID},
		tokenizer: tok,
	}
	t.refresh()
	return t
}

// ID returns the template identifier assigned at creation.
func (t *Template) ID() int {
	return t.id
}

// Len returns the number of skeleton slots.
func (t *Template) Len() int {
	return len(t.skeleton)
}

// Skeleton returns a copy of the current skeleton with wildcard slots
// rendered as Wildcard.
func (t *Template) Skeleton() []string {
	return append([]string(nil), t.skeleton...)
}

// LineIDs returns a copy of the ids of every line that matched, in arrival order.
func (t *Template) LineIDs() []int {
	return append([]int(nil), t.lineIDs...)
}

// Count returns how many lines matched this template.
func (t *Template) Count() int {
	return len(t.lineIDs)
}

// WildcardPositions returns the skeleton indices of the wildcard slots.
func (t *Template) WildcardPositions() []int {
	return append([]int(nil), t.positions...)
}

// IsWildcard reports whether slot i is a wildcard.
func (t *Template) IsWildcard(i int) bool {
	return i >= 0 && i < len(t.wild) && t.wild[i]
}

// SeparatorPattern returns the pattern that matches the literal runs between
// wildcards. It is used by Reparameterize.
func (t *Template) SeparatorPattern() string {
	return t.separator
}

// String renders the skeleton as space separated text.
func (t *Template) String() string {
	return join(t.skeleton)
}

// Similarity counts literal slots that can be aligned, in order, with tokens.
//
// Each literal is searched for forward from the position after the last
// match. A literal that is not found leaves the cursor where it was. There is
// no backtracking, so the count can be lower than the true LCS.
func (t *Template) Similarity(tokens []string) int {
	count := 0
	last := -1
	for i, slot := range t.skeleton {
		if t.wild[i] {
			continue
		}
		for j := last + 1; j < len(tokens); j++ {
			if tokens[j] == slot {
				last = j
				count++
				break
			}
		}
	}
	return count
}

// generalize records lineID and widens the skeleton so that tokens also fits.
//
// Literal slots that cannot be found at the next candidate position turn into
// a wildcard which also absorbs every candidate token skipped while searching.
// Runs of wildcards collapse into one slot. A literal with no candidates left
// to search is dropped.
func (t *Template) generalize(tokens []string, lineID int) {
	t.lineIDs = append(t.lineIDs, lineID)

	skeleton := make([]string, 0, len(t.skeleton))
	wild := make([]bool, 0, len(t.skeleton))
	emitWildcard := func() {
		skeleton = append(skeleton, Wildcard)
		wild = append(wild, true)
	}

	last := -1
	inWildcard := false
	for i, slot := range t.skeleton {
		if t.wild[i] {
			if !inWildcard {
				emitWildcard()
			}
			inWildcard = true
			continue
		}

		for j := last + 1; j < len(tokens); j++ {
			if tokens[j] == slot {
				skeleton = append(skeleton, slot)
				wild = append(wild, false)
				inWildcard = false
				last = j
				break
			}
			if !inWildcard {
				emitWildcard()
				inWildcard = true
			}
		}
	}

	t.skeleton = skeleton
	t.wild = wild
	t.refresh()
}

// Parameterize aligns tokens exactly against the skeleton and returns the
// tokens covered by each wildcard, in skeleton order.
//
// A wildcard consumes tokens until the one equal to the next literal slot, or
// all remaining tokens when it is the last slot. It returns false when a
// literal does not line up or tokens remain unconsumed.
func (t *Template) Parameterize(tokens []string) ([][]string, bool) {
	params := make([][]string, 0, len(t.positions))
	j := 0
	last := len(t.skeleton) - 1
	for i, slot := range t.skeleton {
		if !t.wild[i] {
			if j >= len(tokens) || tokens[j] != slot {
				return nil, false
			}
			j++
			continue
		}

		param := []string{}
		for ; j < len(tokens); j++ {
			if i != last && tokens[j] == t.skeleton[i+1] {
				break
			}
			param = append(param, tokens[j])
		}
		params = append(params, param)
	}

	if j != len(tokens) {
		return nil, false
	}
	return params, true
}

// Reparameterize recovers parameters from raw text by splitting it on the
// literal runs of the skeleton and tokenizing each non-blank chunk.
//
// It works on text rather than tokens and may disagree with Parameterize on
// input that does not really belong to the template. It returns false when
// the number of chunks differs from the number of wildcards.
func (t *Template) Reparameterize(raw string) ([][]string, bool) {
	raw = strings.TrimSpace(raw)

	chunks := []string{raw}
	if t.sepRe != nil {
		chunks = t.sepRe.Split(raw, -1)
	}

	params := make([][]string, 0, len(t.positions))
	for _, chunk := range chunks {
		// Chunks keep the delimiters that glued them to the literal runs.
		chunk = t.tokenizer.trimDelimiters(strings.TrimSpace(chunk))
		if chunk == "" {
			continue
		}
		params = append(params, t.tokenizer.Tokenize(chunk))
	}

	if len(params) != len(t.positions) {
		return nil, false
	}
	return params, true
}

// Snapshot returns the structural state of the template.
func (t *Template) Snapshot() Record {
	return Record{
		ID:                t.id,
		Skeleton:          t.Skeleton(),
		LineIDs:           t.LineIDs(),
		WildcardPositions: t.WildcardPositions(),
	}
}

// refresh recomputes the wildcard positions and the separator pattern.
func (t *Template) refresh() {
	t.positions = t.positions[:0]
	for i, w := range t.wild {
		if w {
			t.positions = append(t.positions, i)
		}
	}

	t.separator = buildSeparator(t.skeleton, t.wild, t.tokenizer.Pattern())
	t.sepRe = nil
	if t.separator != "" {
		// Quoted literals joined by an already valid delimiter always compile.
		t.sepRe = regexp.MustCompile(t.separator)
	}
}

// buildSeparator turns every maximal run of literal slots into one
// alternative. Tokens inside a run are quoted and joined by the delimiter.
func buildSeparator(skeleton []string, wild []bool, delimiter string) string {
	glue := "(?:" + delimiter + ")"

	var runs []string
	var run []string
	flush := func() {
		// A run of one empty token would match everywhere.
		if s := strings.Join(run, glue); s != "" {
			runs = append(runs, s)
		}
		run = nil
	}

	for i, slot := range skeleton {
		if wild[i] {
			flush()
			continue
		}
		run = append(run, regexp.QuoteMeta(slot))
	}
	flush()

	return strings.Join(runs, "|")
}
