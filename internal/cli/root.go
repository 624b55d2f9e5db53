// Package cli implements the command-line interface for slackstash.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jflowers/slackstash/internal/observ"
	"github.com/jflowers/slackstash/pkg/config"
)

var (
	// Global flags
	configPath string
	outputDir  string
	logLevel   string
	verbose    bool
	chromePort int

	// Build info (set via SetVersion)
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetVersion sets the build version info from main.go ldflags.
func SetVersion(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "slackstash",
	Short: "Archive Slack message history using your browser session",
	Long: `slackstash crawls a Slack workspace's message history with the same
session credentials your browser uses, and writes a local JSON archive
plus plain-text transcripts.

No bot installation or admin approval is needed: the xoxc token and xoxd
cookie from an authenticated browser tab are enough.

Quick Start:
  # Pull credentials from a running Chrome session
  slackstash auth --workspace mycompany

  # Choose which channels to archive (optional; default is all)
  slackstash pick

  # Crawl everything into ./slack-archive
  slackstash crawl

  # Continue an interrupted run
  slackstash crawl --resume`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "Config file path")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "slack-archive", "Output directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (same as --log-level debug)")
	rootCmd.PersistentFlags().IntVar(&chromePort, "chrome-port", 9222, "Chrome DevTools Protocol port")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "slackstash", "config.json")
	}
	return filepath.Join(home, ".config", "slackstash", "config.json")
}

// newLogger builds the logger for a command run from the global flags.
func newLogger() (*zap.Logger, error) {
	return observ.NewLogger(logLevel, verbose)
}

// loadConfig reads the config file named by the global flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("no usable config at %s (run 'slackstash auth' first): %w", configPath, err)
	}
	return cfg, nil
}
