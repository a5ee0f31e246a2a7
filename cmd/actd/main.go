// Package main implements the actd CLI for extracting and assigning meeting
// tasks from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/actiond/internal/config"
	"github.com/fyrsmithlabs/actiond/internal/logging"
)

var (
	// configPath is an optional actiond config file
	configPath string
	// verbose enables debug logs on stderr
	verbose bool
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "actd",
	Short: "Extract and assign action items from meeting transcripts",
	Long: `actd reads a meeting transcript and a team roster, extracts the action
items discussed in the meeting and assigns each one to the best-matching
team member.

Progress is logged to stderr. Results go to files or stdout.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "actiond config file (extraction and assignment rules)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(versionCmd)
}

// versionCmd prints the version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the actd version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("actd %s\n", version)
	},
}

// loadConfig loads --config, or the default config file when present.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger returns a console logger on stderr.
func newLogger() (*zap.Logger, error) {
	cfg := logging.NewCLIConfig()
	if verbose {
		cfg.Level = zapcore.DebugLevel
	}
	logger, err := logging.NewLogger(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
