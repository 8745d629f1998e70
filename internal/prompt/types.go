package prompt

import (
	"errors"
	"fmt"
)

// Template is one template as the model sees it. Pattern should already be
// redacted.
type Template struct {
	ID      int
	Pattern string
	Count   int
}

// BuildOptions holds everything needed to build a labeling prompt.
type BuildOptions struct {
	// Templates to label. Required.
	Templates []Template

	// TotalLines is the number of lines the registry has seen. Optional:
	// included as context when positive.
	TotalLines int

	// Files lists the log files the templates were mined from. Optional.
	Files []string

	// TwoPass selects the describe-then-extract flow.
	TwoPass bool

	// FirstPassResponse is the model's free-form answer to the first pass.
	// Only used with TwoPass.
	FirstPassResponse string
}

var (
	// ErrMissingField is returned by Build when a required field is absent.
	ErrMissingField = errors.New("prompt: missing required field")

	// ErrInvalidAnswer is returned by ParseLabels when the answer holds no
	// usable label.
	ErrInvalidAnswer = errors.New("prompt: answer contains no labels")
)

func missingField(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}
