package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bimmerbailey/spell/internal/config"
	"github.com/bimmerbailey/spell/internal/output"
	"github.com/bimmerbailey/spell/internal/parser"
	"github.com/bimmerbailey/spell/internal/tail"
	"github.com/spf13/cobra"
)

var tailCmd = &cobra.Command{
	Use:   "tail [flags] <file>",
	Short: "Live-tail a log file and learn templates as lines arrive",
	Long: `Watch a log file in real-time, similar to 'tail -f'. Every new line is
added to the registry and printed with the id of the template it landed in.
The registry continues from the snapshot when one exists and is saved
periodically and on exit.

Examples:
  spell tail /var/log/app.log
  spell tail --level error /var/log/app.log
  spell tail --save-interval 5m --follow-rotate /var/log/app.log
  spell tail --lines 1000 --no-follow app.log`,
	Args: cobra.ExactArgs(1),
	RunE: runTail,
}

func init() {
	tailCmd.Flags().StringP("pattern", "p", "", "only learn from lines matching regex pattern")
	tailCmd.Flags().StringP("level", "l", "", "minimum log level to learn from (debug, info, warn, error, fatal)")
	tailCmd.Flags().IntP("lines", "n", 10, "number of existing lines to replay first")
	tailCmd.Flags().Bool("no-follow", false, "replay the last N lines and exit (don't follow)")
	tailCmd.Flags().Bool("follow-rotate", false, "follow through log rotations (continue when file is renamed/removed)")
	tailCmd.Flags().Bool("no-color", false, "disable colored output")
	tailCmd.Flags().Bool("message", false, "learn from the parsed message instead of the raw line")
	tailCmd.Flags().String("save-interval", "30s", "how often to save the snapshot while lines arrive (e.g. 30s, 5m, 1h)")
	tailCmd.Flags().Bool("no-save", false, "do not write the snapshot")

	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	levelStr, _ := cmd.Flags().GetString("level")
	lines, _ := cmd.Flags().GetInt("lines")
	noFollow, _ := cmd.Flags().GetBool("no-follow")
	followRotate, _ := cmd.Flags().GetBool("follow-rotate")
	noColor, _ := cmd.Flags().GetBool("no-color")
	patternStr, _ := cmd.Flags().GetString("pattern")
	useMessage, _ := cmd.Flags().GetBool("message")
	intervalStr, _ := cmd.Flags().GetString("save-interval")
	noSave, _ := cmd.Flags().GetBool("no-save")

	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("file does not exist: %s", filePath)
	}

	interval, err := config.ParseDuration(intervalStr)
	if err != nil {
		return fmt.Errorf("invalid save interval: %w", err)
	}

	filter, err := newLineFilter(patternStr, levelStr)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Verbose)

	reg, err := resumeOrNew(cfg, true, logger)
	if err != nil {
		return err
	}

	colorMode := output.ColorAuto
	if noColor {
		colorMode = output.ColorNever
	}
	w := output.New(cmd.OutOrStdout(), output.FormatText)

	// The handler runs on the tailer goroutine only, so the registry needs
	// no lock while tailing. It is saved from the same goroutine.
	lastSave := time.Now()
	handler := func(entry config.LogEntry) error {
		t := reg.Insert(entry.Text(useMessage))
		if err := w.WriteTaggedEntry(t.ID(), entry, colorMode); err != nil {
			return err
		}

		if !noSave && time.Since(lastSave) >= interval {
			if err := saveSnapshot(cfg, reg, logger); err != nil {
				logger.Error("periodic save failed", "error", err)
			}
			lastSave = time.Now()
		}
		return nil
	}

	tailer := tail.New(tail.Options{
		FilePath:     filePath,
		Lines:        lines,
		Follow:       !noFollow,
		FollowRotate: followRotate,
		Pattern:      filter.pattern,
		LevelFilter:  filter.level,
		Parser:       parser.New(cfg.TimestampFormats),
		Logger:       logger,
		Handler:      handler,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- tailer.Run(ctx)
	}()

	var runErr error
	select {
	case <-sigChan:
		cancel()
		runErr = <-errChan
	case runErr = <-errChan:
	}
	if errors.Is(runErr, tail.ErrRotated) || errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	// The tailer has returned, so the registry is no longer shared.
	if !noSave {
		if err := saveSnapshot(cfg, reg, logger); err != nil {
			return errors.Join(runErr, err)
		}
	}
	return runErr
}
