// Command decktube serves the deck video ranking API and offers the same
// pipeline from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/decktube/internal/config"
	"github.com/okian/decktube/pkg/logger"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "decktube",
		Short: "Find and rank YouTube videos about a Clash Royale deck",
		Long: `decktube searches YouTube for videos discussing an 8-card Clash Royale deck,
reads their captions and ranks them by how many of the deck's cards they cover.

Configuration is read from defaults, the YAML file named by --config or
DECKTUBE_CONFIG, and DECKTUBE_* environment variables (nested keys use "__").`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file (overrides "+config.EnvConfigFile+")")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newServeCmd(opts),
		newRankCmd(opts),
		newAnalyzeCmd(opts),
		newMigrateCmd(opts),
	)
	return root
}

// setup loads configuration and initializes logging for a subcommand.
// Logs go to stderr so command output on stdout stays parseable.
func setup(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	if opts.configPath != "" {
		if err := os.Setenv(config.EnvConfigFile, opts.configPath); err != nil {
			return nil, fmt.Errorf("set config path: %w", err)
		}
	}

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	if err := logger.InitWith(cmd.ErrOrStderr(), logger.Format(cfg.LogFormat)); err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}
	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}
