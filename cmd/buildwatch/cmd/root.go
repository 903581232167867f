// Package cmd provides the CLI commands for buildwatch.
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/buildwatch/internal/config"
	"github.com/Aman-CERP/buildwatch/pkg/version"
)

var (
	configDir string
	noLog     bool
	logLevel  string
)

// NewRootCmd creates the root command for the buildwatch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buildwatch",
		Short: "Memory and bundle-size watchdog for bundler builds",
		Long: `Buildwatch monitors a bundler build: it samples the build process's
resident memory against warning and fatal thresholds while the build runs,
and checks bundle size, dependency-tree size, and dependency count once the
build's artifacts are on disk.

Wrap a build with 'buildwatch run -- <command>', or attach to one with
'buildwatch watch'.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("buildwatch version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory containing .buildwatch.yaml")
	cmd.PersistentFlags().BoolVar(&noLog, "no-log", false, "Disable console reporting")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the CLI, cancelling on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCmd().ExecuteContext(ctx)
}

// loadConfig resolves the effective configuration and installs the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}

	if noLog {
		cfg.Log = false
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	})
	slog.SetDefault(slog.New(handler))

	return cfg, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
