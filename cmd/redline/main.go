package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"redline/internal/config"
	"redline/internal/logging"
	"redline/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "redline",
	Short: "redline - chat-driven line edits for a remote file store",
	Long: `redline turns LLM replies into line-level edit directives and applies
them to a GitHub-backed file store with optimistic concurrency.

Run "redline serve" to start the chat server, or use the apply/extract
subcommands to drive the pipeline directly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		logOpts := logging.Options{
			DebugMode:  cfg.Logging.DebugMode || verbose,
			Level:      cfg.Logging.Level,
			JSONFormat: cfg.Logging.JSONFormat,
			Categories: cfg.Logging.Categories,
		}
		if err := logging.Initialize(".", logOpts); err != nil {
			logger.Warn("category logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// newGitHubStore builds the remote store from config, validating the
// fields it needs first.
func newGitHubStore() (*store.GitHub, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return store.NewGitHub(store.GitHubConfig{
		Owner:   cfg.Store.Owner,
		Repo:    cfg.Store.Repo,
		Branch:  cfg.Store.Branch,
		Token:   cfg.Store.Token,
		BaseURL: cfg.Store.BaseURL,
		Timeout: 30 * time.Second,
	}), nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "redline.yaml", "path to config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(filesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
