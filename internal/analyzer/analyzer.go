// Package analyzer computes aggregate statistics over a template registry:
// how lines spread across templates, how general the templates are, and which
// templates dominate.
package analyzer

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/bimmerbailey/spell/internal/spell"
)

// Stats holds aggregate statistics for a registry.
type Stats struct {
	TotalLines      int             `json:"total_lines"`
	TemplateCount   int             `json:"template_count"`
	Singletons      int             `json:"singletons"`
	Coverage        float64         `json:"coverage"`
	WildcardDensity float64         `json:"wildcard_density"`
	TopTemplates    []TemplateStats `json:"top_templates,omitempty"`
}

// TemplateStats summarizes a single template.
type TemplateStats struct {
	ID                int      `json:"id"`
	Template          string   `json:"template"`
	Skeleton          []string `json:"skeleton"`
	WildcardPositions []int    `json:"wildcard_positions,omitempty"`
	Count             int      `json:"count"`
	Percent           float64  `json:"percent"`
	Length            int      `json:"length"`
	Wildcards         int      `json:"wildcards"`
	FirstLine         int      `json:"first_line"`
	LastLine          int      `json:"last_line"`
}

// GroupedResult represents templates grouped by a shape property.
type GroupedResult struct {
	Key       string  `json:"key"`
	Templates int     `json:"templates"`
	Lines     int     `json:"lines"`
	Percent   float64 `json:"percent"`
}

// Sort orders for Rank.
const (
	SortCount = "count"
	SortID    = "id"
)

// Analyzer computes statistics over registries.
type Analyzer struct{}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// ComputeStats summarizes the registry. Coverage is the share of lines that
// landed in a template seen more than once. WildcardDensity is the share of
// all skeleton slots that are wildcards.
func (a *Analyzer) ComputeStats(r *spell.Registry, topN int) Stats {
	stats := Stats{
		TotalLines:    r.NextLineID(),
		TemplateCount: r.Len(),
	}
	if r.Len() == 0 {
		return stats
	}

	shared, slots, wildcards := 0, 0, 0
	for _, t := range r.Templates() {
		if t.Count() == 1 {
			stats.Singletons++
		} else {
			shared += t.Count()
		}
		slots += t.Len()
		wildcards += len(t.WildcardPositions())
	}

	if stats.TotalLines > 0 {
		stats.Coverage = float64(shared) * 100 / float64(stats.TotalLines)
	}
	if slots > 0 {
		stats.WildcardDensity = float64(wildcards) / float64(slots)
	}

	stats.TopTemplates, _ = a.Rank(r, SortCount, topN)
	return stats
}

// Rank returns per-template statistics ordered by count (descending, ties in
// creation order) or by id, truncated to topN when topN > 0.
func (a *Analyzer) Rank(r *spell.Registry, sortBy string, topN int) ([]TemplateStats, error) {
	if sortBy != SortCount && sortBy != SortID {
		return nil, fmt.Errorf("unsupported sort: %s (must be 'count' or 'id')", sortBy)
	}

	total := r.NextLineID()
	result := make([]TemplateStats, 0, r.Len())
	for _, t := range r.Templates() {
		result = append(result, Summarize(t, total))
	}

	if sortBy == SortCount {
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].Count > result[j].Count
		})
	}

	if topN > 0 && len(result) > topN {
		result = result[:topN]
	}
	return result, nil
}

// Summarize builds the statistics of one template against a total line count.
func Summarize(t *spell.Template, totalLines int) TemplateStats {
	ids := t.LineIDs()
	positions := t.WildcardPositions()
	ts := TemplateStats{
		ID:                t.ID(),
		Template:          t.String(),
		Skeleton:          t.Skeleton(),
		WildcardPositions: positions,
		Count:             len(ids),
		Length:            t.Len(),
		Wildcards:         len(positions),
	}
	if len(ids) > 0 {
		ts.FirstLine = ids[0]
		ts.LastLine = ids[len(ids)-1]
	}
	if totalLines > 0 {
		ts.Percent = float64(ts.Count) * 100 / float64(totalLines)
	}
	return ts
}

// GroupBy groups templates by a shape property and returns the top N groups
// by line count. Supported fields: "length", "wildcards".
func (a *Analyzer) GroupBy(r *spell.Registry, field string, topN int) ([]GroupedResult, error) {
	var keyFn func(*spell.Template) int
	switch field {
	case "length":
		keyFn = (*spell.Template).Len
	case "wildcards":
		keyFn = func(t *spell.Template) int { return len(t.WildcardPositions()) }
	default:
		return nil, fmt.Errorf("unsupported group-by field: %s (must be 'length' or 'wildcards')", field)
	}
	if r.Len() == 0 {
		return nil, nil
	}

	type group struct{ templates, lines int }
	groups := make(map[int]*group)
	for _, t := range r.Templates() {
		k := keyFn(t)
		g, ok := groups[k]
		if !ok {
			g = &group{}
			groups[k] = g
		}
		g.templates++
		g.lines += t.Count()
	}

	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	total := r.NextLineID()
	result := make([]GroupedResult, 0, len(groups))
	for _, k := range keys {
		g := groups[k]
		gr := GroupedResult{Key: strconv.Itoa(k), Templates: g.templates, Lines: g.lines}
		if total > 0 {
			gr.Percent = float64(g.lines) * 100 / float64(total)
		}
		result = append(result, gr)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Lines > result[j].Lines
	})
	if topN > 0 && len(result) > topN {
		result = result[:topN]
	}
	return result, nil
}
