package cmd

import (
	"github.com/bimmerbailey/spell/internal/analyzer"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats [flags]",
	Short: "Show template statistics",
	Long: `Display a statistical summary of the snapshot: lines seen, template
count, singletons, coverage, wildcard density and the top templates.

Examples:
  spell stats
  spell stats --format json
  spell stats --group-by wildcards`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().Int("top", 5, "number of top templates to show")
	statsCmd.Flags().String("group-by", "", "group templates by shape (length, wildcards)")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	top, _ := cmd.Flags().GetInt("top")
	groupBy, _ := cmd.Flags().GetString("group-by")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg, err := openSnapshot(cfg, newLogger(cfg.Verbose))
	if err != nil {
		return err
	}

	a := analyzer.New()
	w := newWriter(cmd, cfg)
	if groupBy != "" {
		groups, err := a.GroupBy(reg, groupBy, top)
		if err != nil {
			return err
		}
		return w.WriteGroups(groupBy, groups)
	}
	return w.WriteStats(a.ComputeStats(reg, top))
}
