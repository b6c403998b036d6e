package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/theirongolddev/taxgame/internal/cli"
	"github.com/theirongolddev/taxgame/internal/logging"
	"github.com/theirongolddev/taxgame/internal/pipeline"
	"github.com/theirongolddev/taxgame/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagDataDir    string
	flagDistDir    string
	flagTemplate   string
	flagClientDir  string
	flagBaseURL    string
	flagWorkers    int
	flagNoManifest bool

	manifestPath string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate the static site",
	RunE:  runBuild,
}

func init() {
	addSiteFlags(buildCmd)
	rootCmd.AddCommand(buildCmd)
}

// addSiteFlags registers the flags shared by build and serve.
func addSiteFlags(c *cobra.Command) {
	c.Flags().StringVar(&flagDataDir, "data", "", "Site data directory")
	c.Flags().StringVar(&flagDistDir, "dist", "", "Output directory")
	c.Flags().StringVar(&flagTemplate, "template", "", "Page template (default: built in)")
	c.Flags().StringVar(&flagClientDir, "client", "", "Client assets directory")
	c.Flags().StringVar(&flagBaseURL, "base-url", "", "Public base URL for canonical links")
	c.Flags().IntVarP(&flagWorkers, "workers", "w", 0, "Render workers (0 = all CPUs)")
	c.Flags().BoolVar(&flagNoManifest, "no-manifest", false, "Skip the build manifest")
}

// buildOptions merges flags over cfg and opens the build manifest. The
// returned close func is always non-nil.
func buildOptions(c *cobra.Command) (pipeline.Options, func(), error) {
	opts := pipeline.Options{
		DataDir:      flagOr(c, "data", flagDataDir, cfg.Site.DataDir),
		DistDir:      flagOr(c, "dist", flagDistDir, cfg.Site.DistDir),
		TemplatePath: flagOr(c, "template", flagTemplate, cfg.Site.Template),
		ClientDir:    flagOr(c, "client", flagClientDir, cfg.Site.ClientDir),
		BaseURL:      flagOr(c, "base-url", flagBaseURL, cfg.Site.BaseURL),
		Workers:      flagOr(c, "workers", flagWorkers, cfg.Build.Workers),
	}
	if opts.ClientDir != "" {
		if _, err := os.Stat(opts.ClientDir); err != nil {
			logging.Log.Debugf("client dir %s unavailable, skipping assets", opts.ClientDir)
			opts.ClientDir = ""
		}
	}

	closeFn := func() {}
	if flagNoManifest || !cfg.Build.Manifest {
		return opts, closeFn, nil
	}

	manifestPath = cfg.Build.ManifestPath
	if manifestPath == "" {
		manifestPath = store.Path()
	}
	m, err := store.Open(manifestPath)
	if err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Manifest unavailable (%v), building without it\n", err)
		}
		return opts, closeFn, nil
	}
	opts.Manifest = m
	return opts, func() { _ = m.Close() }, nil
}

func runBuild(c *cobra.Command, _ []string) error {
	opts, closeManifest, err := buildOptions(c)
	if err != nil {
		return err
	}
	defer closeManifest()
	opts.Progress = progressFunc("Rendering")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Building %s -> %s\n", opts.DataDir, opts.DistDir)
	}
	rep, err := pipeline.Build(ctx, opts)
	if err != nil {
		return fmt.Errorf("building site: %w", err)
	}

	printBuildReport(rep, opts)
	if m, ok := opts.Manifest.(*store.Manifest); ok {
		if n, err := m.BuildCount(); err == nil {
			fmt.Println(cli.RenderMuted(fmt.Sprintf("  %d builds recorded in %s", n, manifestPath)))
		}
	}
	return nil
}

func printBuildReport(rep *pipeline.Report, opts pipeline.Options) {
	fmt.Println()
	fmt.Println(cli.RenderTitle("SITE BUILD"))
	fmt.Println()

	changed := "n/a"
	inputs := "n/a"
	if rep.Changed >= 0 {
		changed = cli.FormatNumber(int64(rep.Changed))
		inputs = cli.FormatNumber(int64(rep.InputsChanged))
	}
	root := "none (no default country)"
	if r := rep.Root(); r != nil {
		root = r.URL
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Rows: [][]string{
			{"Pages", cli.FormatNumber(int64(len(rep.Pages)))},
			{"Skipped", cli.FormatNumber(int64(len(rep.Skipped)))},
			{"Homepage", root},
			cli.SeparatorRow,
			{"Files written", cli.FormatNumber(int64(rep.Files))},
			{"Output size", cli.FormatBytes(rep.Bytes)},
			{"Changed outputs", changed},
			{"Changed inputs", inputs},
			cli.SeparatorRow,
			{"Output", filepath.Clean(opts.DistDir)},
			{"Elapsed", rep.Elapsed.Round(time.Millisecond).String()},
		},
		Left: []bool{true, true},
	}))

	if len(rep.Skipped) > 0 {
		fmt.Println()
		rows := make([][]string, len(rep.Skipped))
		for i, s := range rep.Skipped {
			lang := s.Lang
			if lang == "" {
				lang = "*"
			}
			rows[i] = []string{s.CountryID, lang, s.Err.Error()}
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Skipped",
			Headers: []string{"Country", "Lang", "Reason"},
			Rows:    rows,
			Left:    []bool{true, true, true},
		}))
	}

	fmt.Println()
	rows := make([][]string, len(rep.Pages))
	for i, p := range rep.Pages {
		rows[i] = []string{p.Path, p.URL, cli.FormatBytes(p.Size)}
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Pages",
		Headers: []string{"Path", "URL", "Size"},
		Rows:    rows,
		Left:    []bool{true, true, false},
	}))
}
