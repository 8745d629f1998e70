package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
)

type labelAnswer struct {
	Labels []struct {
		ID    *int   `json:"id"`
		Label string `json:"label"`
	} `json:"labels"`
}

// ParseLabels extracts template labels from a model answer. The JSON object
// may be wrapped in markdown fences or surrounded by prose. Entries for ids
// that were not asked about, and empty labels, are dropped; the first label
// for an id wins.
//
// Returns ErrInvalidAnswer when nothing usable remains.
func ParseLabels(content string, asked []Template) (map[int]string, error) {
	raw := extractObject(content)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object found", ErrInvalidAnswer)
	}

	var ans labelAnswer
	if err := json.Unmarshal([]byte(raw), &ans); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
	}

	known := make(map[int]bool, len(asked))
	for _, t := range asked {
		known[t.ID] = true
	}

	labels := make(map[int]string)
	for _, l := range ans.Labels {
		if l.ID == nil || !known[*l.ID] {
			continue
		}
		label := strings.Join(strings.Fields(l.Label), " ")
		if label == "" {
			continue
		}
		if _, dup := labels[*l.ID]; !dup {
			labels[*l.ID] = label
		}
	}

	if len(labels) == 0 {
		return nil, ErrInvalidAnswer
	}
	return labels, nil
}

// extractObject returns the outermost {...} span of s, or "".
func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}
