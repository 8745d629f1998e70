// Package output renders templates, match results and statistics as text,
// JSON or tables.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/bimmerbailey/spell/internal/analyzer"
)

// Format represents an output format type.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

// ParseFormat converts a string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "table":
		return FormatTable
	default:
		return FormatText
	}
}

// maxTemplateWidth truncates templates in table output.
const maxTemplateWidth = 80

// MatchResult is the outcome of matching one line against a registry.
type MatchResult struct {
	Line       string     `json:"line"`
	Matched    bool       `json:"matched"`
	TemplateID int        `json:"template_id"`
	Template   string     `json:"template,omitempty"`
	Aligned    bool       `json:"aligned"`
	Params     [][]string `json:"params,omitempty"`
}

// Label is a human readable name attached to a template.
type Label struct {
	TemplateID int    `json:"template_id"`
	Template   string `json:"template"`
	Label      string `json:"label"`
}

// Writer handles writing formatted output.
type Writer struct {
	w      io.Writer
	format Format
	color  bool
}

// New creates a new output Writer.
func New(w io.Writer, format Format) *Writer {
	return &Writer{w: w, format: format}
}

// WithColor enables wildcard highlighting in text output when mode allows it
// for the underlying writer.
func (wr *Writer) WithColor(mode ColorMode) *Writer {
	wr.color = shouldColorize(mode, wr.w)
	return wr
}

// WriteJSON outputs any value as indented JSON.
func (wr *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(wr.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteTemplates outputs template summaries in the configured format.
func (wr *Writer) WriteTemplates(templates []analyzer.TemplateStats) error {
	switch wr.format {
	case FormatJSON:
		if templates == nil {
			templates = []analyzer.TemplateStats{}
		}
		return wr.WriteJSON(templates)
	case FormatTable:
		return wr.writeTemplateTable(templates)
	default:
		return wr.writeTemplateText(templates)
	}
}

func (wr *Writer) renderTemplate(t analyzer.TemplateStats) string {
	if wr.color {
		return ColorizeTemplate(t.Skeleton, t.WildcardPositions)
	}
	return t.Template
}

func (wr *Writer) writeTemplateText(templates []analyzer.TemplateStats) error {
	for _, t := range templates {
		if _, err := fmt.Fprintf(wr.w, "[T%d] %d lines (%.1f%%)  %s\n", t.ID, t.Count, t.Percent, wr.renderTemplate(t)); err != nil {
			return err
		}
	}
	return nil
}

func (wr *Writer) writeTemplateTable(templates []analyzer.TemplateStats) error {
	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOUNT\tPERCENT\tWILDCARDS\tTEMPLATE")
	fmt.Fprintln(tw, "--\t-----\t-------\t---------\t--------")

	for _, t := range templates {
		fmt.Fprintf(tw, "%d\t%d\t%.1f%%\t%d\t%s\n", t.ID, t.Count, t.Percent, t.Wildcards, truncate(t.Template, maxTemplateWidth))
	}
	return tw.Flush()
}

// WriteMatches outputs match results in the configured format.
func (wr *Writer) WriteMatches(results []MatchResult) error {
	switch wr.format {
	case FormatJSON:
		if results == nil {
			results = []MatchResult{}
		}
		return wr.WriteJSON(results)
	case FormatTable:
		tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TEMPLATE\tPARAMS\tLINE")
		fmt.Fprintln(tw, "--------\t------\t----")
		for _, r := range results {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", matchID(r), FormatParams(r), truncate(r.Line, maxTemplateWidth))
		}
		return tw.Flush()
	default:
		for _, r := range results {
			var err error
			if r.Matched {
				_, err = fmt.Fprintf(wr.w, "%s %s  params=%s\n", matchID(r), r.Template, FormatParams(r))
			} else {
				_, err = fmt.Fprintf(wr.w, "no match  %s\n", r.Line)
			}
			if err != nil {
				return err
			}
		}
		return nil
	}
}

func matchID(r MatchResult) string {
	if !r.Matched {
		return "-"
	}
	return fmt.Sprintf("T%d", r.TemplateID)
}

// FormatParams renders extracted parameters as [a b] [c], or "-" when the
// line did not align with its template.
func FormatParams(r MatchResult) string {
	if !r.Matched || !r.Aligned {
		return "-"
	}
	parts := make([]string, 0, len(r.Params))
	for _, p := range r.Params {
		parts = append(parts, "["+strings.Join(p, " ")+"]")
	}
	if len(parts) == 0 {
		return "[]"
	}
	return strings.Join(parts, " ")
}

// WriteStats outputs registry statistics in the configured format.
func (wr *Writer) WriteStats(stats analyzer.Stats) error {
	if wr.format == FormatJSON {
		return wr.WriteJSON(stats)
	}

	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total lines:\t%d\n", stats.TotalLines)
	fmt.Fprintf(tw, "Templates:\t%d\n", stats.TemplateCount)
	fmt.Fprintf(tw, "Singletons:\t%d\n", stats.Singletons)
	fmt.Fprintf(tw, "Coverage:\t%.1f%%\n", stats.Coverage)
	fmt.Fprintf(tw, "Wildcard density:\t%.2f\n", stats.WildcardDensity)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(stats.TopTemplates) == 0 {
		return nil
	}
	fmt.Fprintln(wr.w)
	fmt.Fprintln(wr.w, "Top templates:")
	return wr.WriteTemplates(stats.TopTemplates)
}

// WriteGroups outputs grouped template counts.
func (wr *Writer) WriteGroups(field string, groups []analyzer.GroupedResult) error {
	if wr.format == FormatJSON {
		if groups == nil {
			groups = []analyzer.GroupedResult{}
		}
		return wr.WriteJSON(groups)
	}

	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tTEMPLATES\tLINES\tPERCENT\n", strings.ToUpper(field))
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f%%\n", g.Key, g.Templates, g.Lines, g.Percent)
	}
	return tw.Flush()
}

// unlabeled is shown in text output for templates the model skipped.
const unlabeled = "(no label)"

// WriteLabels outputs template labels in the configured format.
func (wr *Writer) WriteLabels(labels []Label) error {
	switch wr.format {
	case FormatJSON:
		if labels == nil {
			labels = []Label{}
		}
		return wr.WriteJSON(labels)
	case FormatTable:
		tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tLABEL\tTEMPLATE")
		fmt.Fprintln(tw, "--\t-----\t--------")
		for _, l := range labels {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", l.TemplateID, labelText(l), truncate(l.Template, maxTemplateWidth))
		}
		return tw.Flush()
	default:
		for _, l := range labels {
			if _, err := fmt.Fprintf(wr.w, "[T%d] %s\n      %s\n", l.TemplateID, labelText(l), l.Template); err != nil {
				return err
			}
		}
		return nil
	}
}

func labelText(l Label) string {
	if l.Label == "" {
		return unlabeled
	}
	return l.Label
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
