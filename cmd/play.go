package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/theirongolddev/taxgame/internal/game"
	"github.com/theirongolddev/taxgame/internal/logging"
	"github.com/theirongolddev/taxgame/internal/model"
	"github.com/theirongolddev/taxgame/internal/tui"
	"github.com/theirongolddev/taxgame/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var (
	flagPlaySite    string
	flagPlayBaseURL string
	flagPlayCountry string
	flagPlayLang    string
	flagPlaySalary  string
	flagPlayLogFile string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play with a generated site in the terminal",
	Long: "Opens a generated page, local or published, and runs its calculator:\n" +
		"enter a salary, switch budget years, languages and countries.",
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagPlaySite, "site", "", "Generated site directory (default: the output directory)")
	playCmd.Flags().StringVar(&flagPlayBaseURL, "base-url", "", "Read a published site over HTTP instead")
	playCmd.Flags().StringVar(&flagPlayCountry, "country", "", "Start on this country's page")
	playCmd.Flags().StringVar(&flagPlayLang, "lang", "", "Start in this language")
	playCmd.Flags().StringVar(&flagPlaySalary, "salary", "", "Open straight onto the results for this salary")
	playCmd.Flags().StringVar(&flagPlayLogFile, "log-file", "", "Write logs here instead of discarding them")
	rootCmd.AddCommand(playCmd)
}

func runPlay(_ *cobra.Command, _ []string) error {
	if flagPlayLogFile != "" {
		//nolint:gosec // log path is configured by the local user
		f, err := os.OpenFile(flagPlayLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		logging.Log.SetOutput(f)
	} else {
		logging.Discard()
	}

	var f game.Fetcher
	if flagPlayBaseURL != "" {
		f = game.NewHTTPFetcher(flagPlayBaseURL, cfg.Runtime.RetryMax)
	} else {
		site := flagPlaySite
		if site == "" {
			site = cfg.Site.DistDir
		}
		f = game.DirFetcher{SiteDir: site}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	p, location, err := startPage(ctx, f)
	cancel()
	if err != nil {
		return err
	}

	theme.SetActive(cfg.Runtime.Theme)
	if termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	} else {
		lipgloss.SetColorProfile(termenv.TrueColor)
	}

	app, err := tui.NewApp(p, location, f, game.Options{RecomputeTrends: cfg.Runtime.RecomputeTrends})
	if err != nil {
		return err
	}
	final, err := tea.NewProgram(app, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	if a, ok := final.(tui.App); ok {
		fmt.Printf("  Last page: %s\n", a.Controller().State().Location)
	}
	return nil
}

// startPage resolves the --country/--lang/--salary flags to a page and
// loads it. A language that is the country's default lives at the country
// root, so the country page is loaded first.
func startPage(ctx context.Context, f game.Fetcher) (*model.ClientPayload, string, error) {
	path := "/"
	if flagPlayCountry != "" {
		path = "/" + flagPlayCountry + "/"
	}
	p, err := f.LoadPage(ctx, path)
	if err != nil {
		return nil, "", fmt.Errorf("loading %s: %w", path, err)
	}
	if flagPlayLang != "" && flagPlayLang != p.CurrentLanguage {
		path = "/" + p.Meta.ID + "/"
		if flagPlayLang != p.Meta.DefaultLanguage {
			path += flagPlayLang + "/"
		}
		if p, err = f.LoadPage(ctx, path); err != nil {
			return nil, "", fmt.Errorf("loading %s: %w", path, err)
		}
	}

	location := path
	if flagPlaySalary != "" {
		location += "?" + url.Values{"salary": {flagPlaySalary}}.Encode()
	}
	return p, location, nil
}
