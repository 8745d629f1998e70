package cmd

import (
	"fmt"
	"regexp"

	"github.com/bimmerbailey/spell/internal/analyzer"
	"github.com/bimmerbailey/spell/internal/config"
	"github.com/bimmerbailey/spell/internal/output"
	"github.com/bimmerbailey/spell/internal/parser"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] <file|glob>...",
	Short: "Learn templates from log files",
	Long: `Read log files line by line and group the lines into templates.
Files are read in the order given; "-" reads standard input. The resulting
registry is saved to the snapshot file unless --no-save is set.

Examples:
  spell parse /var/log/app.log
  spell parse --message "logs/*.json"
  spell parse --resume --level warn /var/log/app.log
  cat app.log | spell parse -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().Bool("message", false, "learn from the parsed message instead of the raw line")
	parseCmd.Flags().Bool("resume", false, "continue from the existing snapshot")
	parseCmd.Flags().Bool("no-save", false, "do not write the snapshot")
	parseCmd.Flags().Int("top", 20, "number of templates to print (0 for all)")
	parseCmd.Flags().StringP("pattern", "p", "", "only learn from lines matching regex pattern")
	parseCmd.Flags().StringP("level", "l", "", "only learn from lines at this level or above")

	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	useMessage, _ := cmd.Flags().GetBool("message")
	resume, _ := cmd.Flags().GetBool("resume")
	noSave, _ := cmd.Flags().GetBool("no-save")
	top, _ := cmd.Flags().GetInt("top")
	patternStr, _ := cmd.Flags().GetString("pattern")
	levelStr, _ := cmd.Flags().GetString("level")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Verbose)

	files, err := config.ExpandGlobs(args)
	if err != nil {
		return err
	}

	filter, err := newLineFilter(patternStr, levelStr)
	if err != nil {
		return err
	}

	reg, err := resumeOrNew(cfg, resume, logger)
	if err != nil {
		return err
	}
	before := reg.NextLineID()

	p := parser.New(cfg.TimestampFormats)
	insert := func(entry config.LogEntry) error {
		if !filter.keep(entry) {
			return nil
		}
		reg.Insert(entry.Text(useMessage))
		return nil
	}

	for _, file := range files {
		logger.Debug("parsing", "file", file)
		if file == config.Stdin {
			err = p.ParseStream(cmd.InOrStdin(), insert)
		} else {
			err = p.ParseFileStream(file, insert)
		}
		if err != nil {
			return fmt.Errorf("error parsing %s: %w", file, err)
		}
	}

	if !noSave {
		if err := saveSnapshot(cfg, reg, logger); err != nil {
			return err
		}
	}

	ranked, err := analyzer.New().Rank(reg, analyzer.SortCount, top)
	if err != nil {
		return err
	}

	format := output.ParseFormat(cfg.Format)
	if format == output.FormatText {
		fmt.Fprintf(cmd.OutOrStdout(), "Parsed %d lines into %d templates\n\n", reg.NextLineID()-before, reg.Len())
	}
	return newWriter(cmd, cfg).WriteTemplates(ranked)
}

// lineFilter drops entries before they reach the registry. Entries with an
// unknown level pass the level filter, as they do when tailing.
type lineFilter struct {
	pattern *regexp.Regexp
	level   config.LogLevel
}

func newLineFilter(pattern, level string) (lineFilter, error) {
	f := lineFilter{level: config.LevelUnknown}
	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return f, fmt.Errorf("invalid pattern: %w", err)
		}
		f.pattern = re
	}
	if level != "" {
		f.level = config.ParseLevel(level)
		if f.level == config.LevelUnknown {
			return f, fmt.Errorf("invalid level: %s", level)
		}
	}
	return f, nil
}

func (f lineFilter) keep(entry config.LogEntry) bool {
	if f.pattern != nil && !f.pattern.MatchString(entry.Raw) {
		return false
	}
	if f.level != config.LevelUnknown && entry.Level != config.LevelUnknown && entry.Level < f.level {
		return false
	}
	return true
}
