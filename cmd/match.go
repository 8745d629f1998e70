package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/bimmerbailey/spell/internal/config"
	"github.com/bimmerbailey/spell/internal/output"
	"github.com/bimmerbailey/spell/internal/spell"
	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match [flags] [line...]",
	Short: "Match lines against the snapshot without learning",
	Long: `Find the template each line belongs to and extract the values of its
wildcards. The snapshot is not modified. Lines come from the arguments, from
--file, or from standard input when neither is given.

Examples:
  spell match "user bob logged in"
  spell match --file new.log --format json
  tail -n 100 app.log | spell match --raw`,
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().Bool("raw", false, "split the raw line on the template's literal runs")
	matchCmd.Flags().String("file", "", "read lines from file (- for stdin)")

	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetBool("raw")
	file, _ := cmd.Flags().GetString("file")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg, err := openSnapshot(cfg, newLogger(cfg.Verbose))
	if err != nil {
		return err
	}

	lines := args
	if len(lines) == 0 || file != "" {
		read, err := readLines(cmd, file)
		if err != nil {
			return err
		}
		lines = append(lines, read...)
	}

	results := make([]output.MatchResult, 0, len(lines))
	for _, line := range lines {
		results = append(results, matchLine(reg, line, raw))
	}
	return newWriter(cmd, cfg).WriteMatches(results)
}

// matchLine is read-only: it never assigns a line id.
func matchLine(reg *spell.Registry, line string, raw bool) output.MatchResult {
	res := output.MatchResult{Line: line}
	t := reg.Match(line)
	if t == nil {
		return res
	}

	res.Matched = true
	res.TemplateID = t.ID()
	res.Template = t.String()
	if raw {
		res.Params, res.Aligned = t.Reparameterize(line)
	} else {
		res.Params, res.Aligned = t.Parameterize(reg.Tokenize(line))
	}
	return res
}

func readLines(cmd *cobra.Command, path string) ([]string, error) {
	if path == "" {
		path = config.Stdin
	}
	rc, err := openInput(cmd, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var lines []string
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lines, nil
}
