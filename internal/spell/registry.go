package spell

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned by TemplateAt for an invalid index.
var ErrOutOfRange = errors.New("spell: template index out of range")

// Registry routes lines to templates and owns every template it creates.
//
// Templates are kept in creation order and never removed. Every processed
// line gets the next line id, whether it matched or not, so ids are dense and
// strictly increasing for the lifetime of the registry.
type Registry struct {
	tokenizer      *Tokenizer
	templates      []*Template
	nextLineID     int
	nextTemplateID int
}

// New creates an empty Registry that tokenizes on the delimiter pattern.
func New(pattern string) (*Registry, error) {
	tok, err := NewTokenizer(pattern)
	if err != nil {
		return nil, err
	}
	return &Registry{tokenizer: tok}, nil
}

// Pattern returns the tokenization pattern shared by all templates.
func (r *Registry) Pattern() string {
	return r.tokenizer.Pattern()
}

// Tokenize splits a line the same way Insert does.
func (r *Registry) Tokenize(line string) []string {
	return r.tokenizer.Tokenize(line)
}

// Insert assigns the line the next line id and either generalizes the best
// matching template with it or creates a new template. It returns the
// template the line now belongs to.
func (r *Registry) Insert(line string) *Template {
	tokens := r.tokenizer.Tokenize(line)
	lineID := r.nextLineID
	r.nextLineID++

	if t := r.BestMatch(tokens); t != nil {
		t.generalize(tokens, lineID)
		return t
	}

	t := newTemplate(r.nextTemplateID, tokens, lineID, r.tokenizer)
	r.nextTemplateID++
	r.templates = append(r.templates, t)
	return t
}

// BestMatch returns the template with the highest similarity to tokens, or
// nil when none qualifies.
//
// Templates less than half or more than double the token count are skipped
// without scoring. A candidate qualifies when its similarity covers at least
// half of the tokens. Ties go to the earliest template.
func (r *Registry) BestMatch(tokens []string) *Template {
	var best *Template
	bestScore := 0
	n := len(tokens)

	for _, t := range r.templates {
		l := t.Len()
		if 2*l < n || l > 2*n {
			continue
		}

		score := t.Similarity(tokens)
		if 2*score >= n && score > bestScore {
			best = t
			bestScore = score
		}
	}
	return best
}

// Match tokenizes line and returns its best matching template without
// modifying the registry.
func (r *Registry) Match(line string) *Template {
	return r.BestMatch(r.tokenizer.Tokenize(line))
}

// TemplateAt returns the template at index in creation order.
func (r *Registry) TemplateAt(index int) (*Template, error) {
	if index < 0 || index >= len(r.templates) {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrOutOfRange, index, len(r.templates))
	}
	return r.templates[index], nil
}

// Len returns the number of templates.
func (r *Registry) Len() int {
	return len(r.templates)
}

// Templates returns the templates in creation order.
func (r *Registry) Templates() []*Template {
	return append([]*Template(nil), r.templates...)
}

// NextLineID returns the id the next inserted line will get, which is also
// the number of lines processed so far.
func (r *Registry) NextLineID() int {
	return r.nextLineID
}

// NextTemplateID returns the id the next created template will get.
func (r *Registry) NextTemplateID() int {
	return r.nextTemplateID
}
