package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/bimmerbailey/spell/internal/config"
	"github.com/bimmerbailey/spell/internal/llm/ollama"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "spell",
	Short: "Discover log templates as lines stream in",
	Long: `Spell groups log lines into templates: the words every line of a kind
shares, with "*" where the lines differ. Templates are learned online, one
line at a time, and kept in a snapshot so later runs can continue, match new
lines or report on what was seen.

Examples:
  spell parse /var/log/app.log
  spell templates --top 20
  spell match "user bob logged in"
  spell tail /var/log/app.log
  spell stats --group-by length
  spell label --top 10`,
	SilenceUsage: true,
}

// Execute is called by main.main(). It runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.spell.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", config.DefaultFormat, "output format (text, json, table)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringP("delimiter", "d", config.DefaultDelimiter, "regex that separates tokens")
	rootCmd.PersistentFlags().StringP("snapshot", "s", config.DefaultSnapshot, "registry snapshot file")

	for _, name := range []string{"format", "verbose", "delimiter", "snapshot"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error finding home directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".spell")
		viper.SetConfigType("yaml")
	}

	// SPELL_LLM_OLLAMA_HOST sets llm.ollama.host.
	viper.SetEnvPrefix("SPELL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func setDefaults() {
	viper.SetDefault("format", config.DefaultFormat)
	viper.SetDefault("verbose", false)
	viper.SetDefault("delimiter", config.DefaultDelimiter)
	viper.SetDefault("snapshot", config.DefaultSnapshot)
	viper.SetDefault("timestamp_formats", config.DefaultTimestampFormats)

	viper.SetDefault("llm.provider", "ollama")
	viper.SetDefault("llm.temperature", 0)
	viper.SetDefault("llm.max_tokens", 0)
	viper.SetDefault("llm.ollama.host", "http://localhost:11434")
	viper.SetDefault("llm.ollama.model", ollama.DefaultModel)
	viper.SetDefault("llm.ollama.keep_alive", "")
	viper.SetDefault("llm.ollama.num_ctx", 0)

	viper.SetDefault("redaction.enabled", true)
	viper.SetDefault("redaction.patterns", []string{})
}
