package prompt

import (
	"fmt"
	"strings"

	"github.com/bimmerbailey/spell/internal/llm"
)

const extractInstruction = "Now turn your descriptions into the JSON object specified in the system prompt. " +
	"Output ONLY the JSON object, with no markdown and no explanation."

// Build constructs the messages for one labeling request.
//
// Without TwoPass the result is [system, user] and asks for JSON directly.
// With TwoPass and no FirstPassResponse it is [system, user] asking for
// descriptions. With TwoPass and a FirstPassResponse it is
// [system, user, assistant, user] ending in the extraction instruction.
//
// Returns ErrMissingField when Templates is empty.
func Build(opts BuildOptions) ([]llm.Message, error) {
	if len(opts.Templates) == 0 {
		return nil, missingField("Templates")
	}

	var sb strings.Builder
	if opts.TwoPass {
		sb.WriteString("Describe the following log templates:\n\n")
	} else {
		sb.WriteString("Label the following log templates:\n\n")
	}
	appendContext(&sb, opts)
	appendTemplates(&sb, opts.Templates)

	system := llm.Message{Role: llm.RoleSystem, Content: systemPrompt(opts)}
	user := llm.Message{Role: llm.RoleUser, Content: sb.String()}

	if !opts.TwoPass || opts.FirstPassResponse == "" {
		return []llm.Message{system, user}, nil
	}

	return []llm.Message{
		system,
		user,
		{Role: llm.RoleAssistant, Content: opts.FirstPassResponse},
		{Role: llm.RoleUser, Content: extractInstruction},
	}, nil
}

func appendContext(sb *strings.Builder, opts BuildOptions) {
	if len(opts.Files) == 1 {
		fmt.Fprintf(sb, "Source file: %s\n", opts.Files[0])
	} else if len(opts.Files) > 1 {
		fmt.Fprintf(sb, "Source files (%d): %s\n", len(opts.Files), strings.Join(opts.Files, ", "))
	}
	if opts.TotalLines > 0 {
		fmt.Fprintf(sb, "Total lines: %d\n", opts.TotalLines)
	}
	if len(opts.Files) > 0 || opts.TotalLines > 0 {
		sb.WriteString("\n")
	}
}

// appendTemplates writes one "id=N count=C: pattern" line per template.
func appendTemplates(sb *strings.Builder, templates []Template) {
	for _, t := range templates {
		fmt.Fprintf(sb, "id=%d count=%d: %s\n", t.ID, t.Count, t.Pattern)
	}
}
