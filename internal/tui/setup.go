package tui

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/theirongolddev/taxgame/internal/config"
	"github.com/theirongolddev/taxgame/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// SetupValues holds what the setup wizard edits. huh binds to string
// fields, so numbers travel as text.
type SetupValues struct {
	BaseURL         string
	DataDir         string
	DistDir         string
	Workers         string
	Theme           string
	RecomputeTrends bool
}

// SetupValuesFrom seeds the wizard from cfg.
func SetupValuesFrom(cfg config.Config) SetupValues {
	return SetupValues{
		BaseURL:         cfg.Site.BaseURL,
		DataDir:         cfg.Site.DataDir,
		DistDir:         cfg.Site.DistDir,
		Workers:         strconv.Itoa(cfg.Build.Workers),
		Theme:           cfg.Runtime.Theme,
		RecomputeTrends: cfg.Runtime.RecomputeTrends,
	}
}

// Apply writes the wizard answers into cfg.
func (v SetupValues) Apply(cfg *config.Config) {
	cfg.Site.BaseURL = strings.TrimRight(strings.TrimSpace(v.BaseURL), "/")
	cfg.Site.DataDir = strings.TrimSpace(v.DataDir)
	cfg.Site.DistDir = strings.TrimSpace(v.DistDir)
	if n, err := strconv.Atoi(strings.TrimSpace(v.Workers)); err == nil && n >= 0 {
		cfg.Build.Workers = n
	}
	cfg.Runtime.Theme = v.Theme
	cfg.Runtime.RecomputeTrends = v.RecomputeTrends
}

// NewSetupForm builds the configuration wizard bound to v.
func NewSetupForm(v *SetupValues) *huh.Form {
	themes := make([]huh.Option[string], len(theme.All))
	for i, t := range theme.All {
		themes[i] = huh.NewOption(t.Name, t.Name)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Site base URL").
				Description("Canonical links and the sitemap are built from it.").
				Value(&v.BaseURL).
				Validate(validateBaseURL),
			huh.NewInput().
				Title("Data directory").
				Value(&v.DataDir).
				Validate(notEmpty("data directory")),
			huh.NewInput().
				Title("Output directory").
				Value(&v.DistDir).
				Validate(notEmpty("output directory")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Build workers").
				Description("0 uses every CPU.").
				Value(&v.Workers).
				Validate(validateWorkers),
			huh.NewSelect[string]().
				Title("Play theme").
				Options(themes...).
				Value(&v.Theme),
			huh.NewConfirm().
				Title("Show spending trends after a year switch?").
				Value(&v.RecomputeTrends),
		),
	)
}

func validateBaseURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("enter an absolute http(s) URL")
	}
	return nil
}

func validateWorkers(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return errors.New("enter a whole number, 0 or more")
	}
	return nil
}

func notEmpty(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(what + " is required")
		}
		return nil
	}
}
