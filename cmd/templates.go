package cmd

import (
	"github.com/bimmerbailey/spell/internal/analyzer"
	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates [flags]",
	Short: "List the templates in the snapshot",
	Long: `List the templates stored in the snapshot, most frequent first.

Examples:
  spell templates
  spell templates --top 5 --format table
  spell templates --sort id --format json`,
	Args: cobra.NoArgs,
	RunE: runTemplates,
}

func init() {
	templatesCmd.Flags().Int("top", 0, "number of templates to list (0 for all)")
	templatesCmd.Flags().String("sort", analyzer.SortCount, "sort order (count, id)")

	rootCmd.AddCommand(templatesCmd)
}

func runTemplates(cmd *cobra.Command, args []string) error {
	top, _ := cmd.Flags().GetInt("top")
	sortBy, _ := cmd.Flags().GetString("sort")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg, err := openSnapshot(cfg, newLogger(cfg.Verbose))
	if err != nil {
		return err
	}

	ranked, err := analyzer.New().Rank(reg, sortBy, top)
	if err != nil {
		return err
	}
	return newWriter(cmd, cfg).WriteTemplates(ranked)
}
