package cmd

import (
	"fmt"

	"github.com/theirongolddev/taxgame/internal/config"
	"github.com/theirongolddev/taxgame/internal/store"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("  Config file: %s\n", cfgPath)
	if config.Exists(cfgPath) {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println("  TAXGAME_* environment variables override the file.")
	fmt.Println()

	fmt.Println("  [Site]")
	fmt.Printf("    Base URL:       %s\n", cfg.Site.BaseURL)
	fmt.Printf("    Data dir:       %s\n", cfg.Site.DataDir)
	fmt.Printf("    Output dir:     %s\n", cfg.Site.DistDir)
	fmt.Printf("    Client dir:     %s\n", orDefault(cfg.Site.ClientDir, "none"))
	fmt.Printf("    Template:       %s\n", orDefault(cfg.Site.Template, "built in"))
	fmt.Println()

	fmt.Println("  [Build]")
	if cfg.Build.Workers > 0 {
		fmt.Printf("    Workers:        %d\n", cfg.Build.Workers)
	} else {
		fmt.Println("    Workers:        all CPUs")
	}
	fmt.Printf("    Manifest:       %v\n", cfg.Build.Manifest)
	if cfg.Build.Manifest {
		fmt.Printf("    Manifest path:  %s\n", orDefault(cfg.Build.ManifestPath, store.Path()))
	}
	fmt.Println()

	fmt.Println("  [Serve]")
	fmt.Printf("    Address:        %s\n", cfg.Serve.Addr)
	fmt.Printf("    Poll interval:  %ds\n", cfg.Serve.PollInterval)
	fmt.Println()

	fmt.Println("  [Runtime]")
	fmt.Printf("    Trends on year switch: %v\n", cfg.Runtime.RecomputeTrends)
	fmt.Printf("    HTTP retries:   %d\n", cfg.Runtime.RetryMax)
	fmt.Printf("    Theme:          %s\n", cfg.Runtime.Theme)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:          %s\n", cfg.Log.Level)
	fmt.Println()

	fmt.Println("  Run `taxgame setup` to reconfigure.")
	return nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
