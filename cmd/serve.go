package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/theirongolddev/taxgame/internal/cli"
	"github.com/theirongolddev/taxgame/internal/daemon"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var (
	flagServeAddr     string
	flagServeInterval time.Duration
	flagServeNoWatch  bool
	flagServeEvents   int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build, serve and rebuild the site on change",
	Long: "Builds the site once, serves the output directory and polls the data\n" +
		"directory, rebuilding when inputs change. Build status is exposed at\n" +
		"/healthz, /v1/status, /v1/events and /v1/stream (SSE).",
	RunE: runServe,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a running preview server",
	RunE:  runServeStatus,
}

func init() {
	addSiteFlags(serveCmd)
	serveCmd.PersistentFlags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address")
	serveCmd.Flags().DurationVar(&flagServeInterval, "interval", 0, "Input polling interval")
	serveCmd.Flags().BoolVar(&flagServeNoWatch, "no-watch", false, "Build once and serve without polling")
	serveCmd.Flags().IntVar(&flagServeEvents, "events-buffer", 200, "Max in-memory build events retained")

	serveCmd.AddCommand(serveStatusCmd)
	rootCmd.AddCommand(serveCmd)
}

func serveAddr(c *cobra.Command) string {
	return flagOr(c, "addr", flagServeAddr, cfg.Serve.Addr)
}

func runServe(c *cobra.Command, _ []string) error {
	opts, closeManifest, err := buildOptions(c)
	if err != nil {
		return err
	}
	defer closeManifest()

	interval := time.Duration(cfg.Serve.PollInterval) * time.Second
	interval = flagOr(c, "interval", flagServeInterval, interval)
	addr := serveAddr(c)

	svc := daemon.New(daemon.Config{
		Build:        opts,
		Interval:     interval,
		Addr:         addr,
		EventsBuffer: flagServeEvents,
		Watch:        !flagServeNoWatch,
	})

	fmt.Printf("  taxgame preview on http://%s\n", addr)
	if flagServeNoWatch {
		fmt.Printf("  Serving %s (not watching)\n", opts.DistDir)
	} else {
		fmt.Printf("  Serving %s, watching %s every %s\n", opts.DistDir, opts.DataDir, interval)
	}
	fmt.Printf("  Status: http://%s/v1/status\n", addr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServeStatus(c *cobra.Command, _ []string) error {
	addr := serveAddr(c)
	fmt.Printf("  Address: http://%s\n", addr)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/v1/status") //nolint:noctx // short status probe
	if err != nil {
		fmt.Printf("  Preview server: unreachable (%v)\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("  Preview server: HTTP %d\n", resp.StatusCode)
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || !gjson.ValidBytes(body) {
		fmt.Printf("  Preview server: malformed response\n")
		return nil
	}

	st := gjson.ParseBytes(body)
	last := st.Get("last_build")
	rows := [][]string{
		{"Watching", fmt.Sprintf("%v", st.Get("watching").Bool())},
		{"Data dir", st.Get("data_dir").String()},
		{"Output dir", st.Get("dist_dir").String()},
		{"Polls", cli.FormatNumber(st.Get("poll_count").Int())},
		{"Builds", cli.FormatNumber(st.Get("build_count").Int())},
		cli.SeparatorRow,
		{"Last build", formatStatusTime(last.Get("at").String())},
		{"Pages", cli.FormatNumber(last.Get("pages").Int())},
		{"Skipped", cli.FormatNumber(last.Get("skipped").Int())},
		{"Output size", cli.FormatBytes(last.Get("bytes").Int())},
	}
	if e := st.Get("last_error").String(); e != "" {
		rows = append(rows, cli.SeparatorRow, []string{"Last error", e})
	}
	fmt.Print(cli.RenderTable(cli.Table{Rows: rows, Left: []bool{true, true}}))
	return nil
}

func formatStatusTime(s string) string {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil || t.IsZero() {
		return "pending"
	}
	return t.Local().Format(time.RFC3339)
}
