package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/taxgame/internal/config"
	"github.com/theirongolddev/taxgame/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Seed from the file alone so environment overrides are not persisted.
	base, err := fileConfig(cfgPath)
	if err != nil {
		return err
	}
	vals := tui.SetupValuesFrom(base)

	fmt.Println()
	fmt.Println("  Welcome to taxgame!")
	fmt.Printf("  Settings are saved to %s\n\n", cfgPath)

	if err := tui.NewSetupForm(&vals).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	vals.Apply(&base)
	if err := config.Save(cfgPath, base); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", cfgPath)
	fmt.Println("  Run `taxgame setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

// fileConfig loads path without environment overrides.
func fileConfig(path string) (config.Config, error) {
	if !config.Exists(path) {
		return config.DefaultConfig(), nil
	}
	return config.LoadFile(path)
}
