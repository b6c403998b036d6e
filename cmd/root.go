// Package cmd implements the taxgame CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/taxgame/internal/cli"
	"github.com/theirongolddev/taxgame/internal/config"
	"github.com/theirongolddev/taxgame/internal/logging"
	"github.com/theirongolddev/taxgame/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagLogLevel string
	flagQuiet    bool
)

// cfg is the effective configuration: file, then environment. Command flags
// are applied on top where each command reads it.
var (
	cfg     config.Config
	cfgPath string
)

var rootCmd = &cobra.Command{
	Use:   "taxgame",
	Short: "Where do your taxes go? Static site generator and calculator",
	Long: "Generate the per-country, per-language tax breakdown site from JSON data,\n" +
		"calculate breakdowns from the terminal and play with a generated site.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ./taxgame.toml, then the user config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

func loadConfig(_ *cobra.Command, _ []string) error {
	cfgPath = config.Resolve(flagConfig)
	c, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	cfg = c

	level := cfg.Log.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	return logging.SetLevel(level)
}

// progressFunc reports pipeline progress on stderr unless --quiet.
func progressFunc(label string) pipeline.ProgressFunc {
	return func(current, total int) {
		if flagQuiet {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  %s %s", label, cli.RenderProgressBar(current, total, 24))
		if current == total {
			fmt.Fprintln(os.Stderr)
		}
	}
}

// flagOr returns the flag value when the user set it, fallback otherwise.
func flagOr[T any](cmd *cobra.Command, name string, value, fallback T) T {
	if cmd.Flags().Changed(name) {
		return value
	}
	return fallback
}
