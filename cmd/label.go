package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/bimmerbailey/spell/internal/analyzer"
	"github.com/bimmerbailey/spell/internal/llm"
	"github.com/bimmerbailey/spell/internal/llm/ollama"
	"github.com/bimmerbailey/spell/internal/output"
	"github.com/bimmerbailey/spell/internal/prompt"
	"github.com/bimmerbailey/spell/internal/redact"
	"github.com/spf13/cobra"
)

// newProvider is replaced in tests.
var newProvider = llm.NewProvider

var labelCmd = &cobra.Command{
	Use:   "label [flags]",
	Short: "Name the top templates with a language model",
	Long: `Ask the configured language model for a short human readable label for
each of the most frequent templates. Sensitive values in the templates are
redacted before anything is sent.

Requires a reachable provider (Ollama by default: ollama serve).

Examples:
  spell label
  spell label --top 20 --model qwen2.5
  spell label --two-pass --format json`,
	Args: cobra.NoArgs,
	RunE: runLabel,
}

func init() {
	labelCmd.Flags().Int("top", 10, "number of templates to label")
	labelCmd.Flags().String("model", "", "model to use (default from config)")
	labelCmd.Flags().Bool("two-pass", false, "describe templates first, then extract labels")
	labelCmd.Flags().Duration("timeout", 2*time.Minute, "maximum time to wait for the model")

	rootCmd.AddCommand(labelCmd)
}

func runLabel(cmd *cobra.Command, args []string) error {
	top, _ := cmd.Flags().GetInt("top")
	model, _ := cmd.Flags().GetString("model")
	twoPass, _ := cmd.Flags().GetBool("two-pass")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Verbose)

	reg, err := openSnapshot(cfg, logger)
	if err != nil {
		return err
	}

	ranked, err := analyzer.New().Rank(reg, analyzer.SortCount, top)
	if err != nil {
		return err
	}
	w := newWriter(cmd, cfg)
	if len(ranked) == 0 {
		return w.WriteLabels(nil)
	}

	redactor, err := redact.New(cfg.Redaction)
	if err != nil {
		return err
	}
	templates := make([]prompt.Template, len(ranked))
	for i, t := range ranked {
		templates[i] = prompt.Template{
			ID:      t.ID,
			Pattern: redactor.RedactTemplate(t.Skeleton, t.WildcardPositions),
			Count:   t.Count,
		}
	}
	logger.Debug("redacted templates", "templates", len(templates), "values", len(redactor.Values()))

	provider, err := newProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}

	if model == "" {
		model = cfg.LLM.Ollama.Model
	}
	if model == "" {
		model = ollama.DefaultModel
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := llm.RequireModel(ctx, provider, model); err != nil {
		if cfg.LLM.Provider == "ollama" {
			return fmt.Errorf("cannot use Ollama at %s: %w\n\nStart Ollama with: ollama serve\nPull the model with: ollama pull %s",
				cfg.LLM.Ollama.Host, err, model)
		}
		return err
	}

	chatOpts := &llm.ChatOptions{
		Model:       model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}
	content, err := askLabels(ctx, provider, prompt.BuildOptions{
		Templates:  templates,
		TotalLines: reg.NextLineID(),
		TwoPass:    twoPass,
	}, chatOpts)
	if err != nil {
		return err
	}

	labels, err := prompt.ParseLabels(content, templates)
	if err != nil {
		logger.Debug("unusable answer", "content", content)
		return fmt.Errorf("model answer: %w", err)
	}

	result := make([]output.Label, len(templates))
	for i, t := range templates {
		result[i] = output.Label{TemplateID: t.ID, Template: t.Pattern, Label: labels[t.ID]}
	}
	return w.WriteLabels(result)
}

// askLabels runs one request, or two with the describe-then-extract flow,
// and returns the content of the final answer.
func askLabels(ctx context.Context, provider llm.Provider, opts prompt.BuildOptions, chatOpts *llm.ChatOptions) (string, error) {
	msgs, err := prompt.Build(opts)
	if err != nil {
		return "", err
	}

	first := *chatOpts
	first.JSON = !opts.TwoPass
	resp, err := provider.Chat(ctx, msgs, &first)
	if err != nil {
		return "", fmt.Errorf("label request failed: %w", err)
	}
	if !opts.TwoPass {
		return resp.Content, nil
	}

	opts.FirstPassResponse = resp.Content
	msgs, err = prompt.Build(opts)
	if err != nil {
		return "", err
	}
	second := *chatOpts
	second.JSON = true
	resp, err = provider.Chat(ctx, msgs, &second)
	if err != nil {
		return "", fmt.Errorf("label extraction failed: %w", err)
	}
	return resp.Content, nil
}
