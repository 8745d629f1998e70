package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bimmerbailey/spell/internal/config"
	"github.com/bimmerbailey/spell/internal/output"
	"github.com/bimmerbailey/spell/internal/spell"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadConfig unmarshals the merged flag, env and file settings.
func loadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// newLogger writes diagnostics to stderr: errors only, or everything down to
// debug with --verbose.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newWriter(cmd *cobra.Command, cfg *config.Config) *output.Writer {
	return output.New(cmd.OutOrStdout(), output.ParseFormat(cfg.Format)).WithColor(output.ColorAuto)
}

// openSnapshot loads the registry a previous parse or tail saved.
func openSnapshot(cfg *config.Config, logger *slog.Logger) (*spell.Registry, error) {
	r, err := spell.LoadFile(cfg.Snapshot)
	switch {
	case err == nil:
		logger.Debug("loaded snapshot", "path", cfg.Snapshot, "templates", r.Len(), "lines", r.NextLineID())
		return r, nil
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("no snapshot at %s (run 'spell parse' first)", cfg.Snapshot)
	case errors.Is(err, spell.ErrNotRegistry):
		logger.Error("snapshot is not a registry", "path", cfg.Snapshot, "error", err)
		return nil, err
	default:
		return nil, err
	}
}

// resumeOrNew loads the snapshot when resume is set and it exists, and
// creates an empty registry otherwise. A loaded registry keeps the delimiter
// it was built with.
func resumeOrNew(cfg *config.Config, resume bool, logger *slog.Logger) (*spell.Registry, error) {
	if resume {
		r, err := spell.LoadFile(cfg.Snapshot)
		switch {
		case err == nil:
			if r.Pattern() != cfg.Delimiter {
				logger.Warn("snapshot delimiter overrides configured delimiter",
					"snapshot", r.Pattern(), "configured", cfg.Delimiter)
			}
			logger.Debug("resuming snapshot", "path", cfg.Snapshot, "templates", r.Len(), "lines", r.NextLineID())
			return r, nil
		case errors.Is(err, os.ErrNotExist):
			logger.Debug("no snapshot to resume, starting empty", "path", cfg.Snapshot)
		default:
			return nil, err
		}
	}

	r, err := spell.New(cfg.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("invalid delimiter: %w", err)
	}
	return r, nil
}

func saveSnapshot(cfg *config.Config, r *spell.Registry, logger *slog.Logger) error {
	if err := spell.SaveFile(cfg.Snapshot, r); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	logger.Debug("saved snapshot", "path", cfg.Snapshot, "templates", r.Len(), "lines", r.NextLineID())
	return nil
}

// openInput opens a path argument, treating config.Stdin as the command's
// input stream.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == config.Stdin {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(path)
}
