package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Stdin is the path argument that stands for standard input.
const Stdin = "-"

// ExpandGlobs expands file paths and glob patterns into a list of unique
// paths. Arguments keep the order they were given in, because that order
// decides which line gets which line id; the matches of a single glob are
// sorted. Stdin is passed through unchanged.
func ExpandGlobs(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no file patterns provided")
	}

	files := make([]string, 0, len(patterns))
	seen := make(map[string]struct{})
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, pattern := range patterns {
		switch {
		case pattern == Stdin:
			add(pattern)

		case hasGlobMeta(pattern):
			matches, err := filepath.Glob(pattern)
			if err != nil {
				return nil, err
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no matches for pattern %q", pattern)
			}
			sort.Strings(matches)
			for _, m := range matches {
				add(m)
			}

		default:
			if _, err := os.Stat(pattern); err != nil {
				return nil, err
			}
			add(pattern)
		}
	}
	return files, nil
}

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}
