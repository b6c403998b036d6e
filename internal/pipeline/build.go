// Package pipeline turns a site data directory into a static site: it
// merges localized strings and year-over-year trends into page payloads and
// renders every country and language.
package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/taxgame/internal/logging"
	"github.com/theirongolddev/taxgame/internal/render"
	"github.com/theirongolddev/taxgame/internal/source"
	"github.com/theirongolddev/taxgame/internal/store"
)

// ProgressFunc is called as pages are rendered.
// current is the number of units processed so far, total is the unit count.
type ProgressFunc func(current, total int)

// Manifest is the build history a Build reports to. *store.Manifest
// implements it.
type Manifest interface {
	BeginBuild(dataDir, distDir string) (string, error)
	RecordOutputs(buildID, distDir string, outs []store.Output) (int, error)
	FinishBuild(buildID string, pages, skipped, changed int) error
	GetTrackedFiles() (map[string]store.FileInfo, error)
	ReplaceTrackedFiles(files map[string]store.FileInfo) error
}

// Options configures a build.
type Options struct {
	DataDir      string
	DistDir      string
	ClientDir    string // optional; robots.txt and asset dirs
	BaseURL      string
	TemplatePath string           // empty selects the embedded template
	Template     *render.Template // overrides TemplatePath
	Workers      int              // <= 0 means GOMAXPROCS
	Manifest     Manifest         // optional
	Progress     ProgressFunc
}

// PageResult describes one written page.
type PageResult struct {
	Path      string
	URL       string
	CountryID string
	Lang      string
	Root      bool
	Size      int64
}

// Report summarizes a build.
type Report struct {
	BuildID       string
	Pages         []PageResult
	Skipped       []Skip
	Files         int
	Bytes         int64
	Changed       int // -1 without a manifest
	InputsChanged int // -1 without a manifest
	Elapsed       time.Duration
}

// Root returns the homepage result, or nil when none was generated.
func (r *Report) Root() *PageResult {
	for i := range r.Pages {
		if r.Pages[i].Root {
			return &r.Pages[i]
		}
	}
	return nil
}

// assetDirs are the client subdirectories mirrored under dist/assets.
var assetDirs = []string{"styles", "scripts", "social"}

type unit struct {
	country *Country
	lang    string
	root    bool
}

type unitResult struct {
	pages []renderedPage
	skip  *Skip
}

type renderedPage struct {
	Page
	root bool
	html []byte
}

// Build generates the site described by opts.DataDir into opts.DistDir.
func Build(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()

	tmpl, err := loadTemplate(opts)
	if err != nil {
		return nil, err
	}

	src := source.New(opts.DataDir)
	site, skips, err := LoadSite(src)
	if err != nil {
		return nil, err
	}

	report := &Report{Skipped: skips, Changed: -1, InputsChanged: -1}
	if opts.Manifest != nil {
		id, err := opts.Manifest.BeginBuild(opts.DataDir, opts.DistDir)
		if err != nil {
			logging.Log.Warnf("build manifest unavailable: %v", err)
			opts.Manifest = nil
		} else {
			report.BuildID = id
		}
	}

	var units []unit
	for _, c := range site.Countries {
		for _, lang := range c.Meta.AvailableLanguages {
			units = append(units, unit{
				country: c,
				lang:    lang,
				root:    c.Meta.ID == site.DefaultID && lang == c.Meta.DefaultLanguage,
			})
		}
	}

	results, err := renderUnits(ctx, src, site, tmpl, units, opts)
	if err != nil {
		return nil, err
	}

	w := &distWriter{root: opts.DistDir}
	var urls []string
	var rootURL string
	for _, r := range results {
		if r.skip != nil {
			report.Skipped = append(report.Skipped, *r.skip)
			continue
		}
		for _, p := range r.pages {
			if err := w.write(p.Path, p.html); err != nil {
				return nil, err
			}
			logging.Log.WithFields(logrus.Fields{"country": p.CountryID, "lang": p.Lang, "path": p.Path}).Debug("page written")
			report.Pages = append(report.Pages, PageResult{
				Path: p.Path, URL: p.URL, CountryID: p.CountryID, Lang: p.Lang,
				Root: p.root, Size: int64(len(p.html)),
			})
			if p.root {
				rootURL = p.URL
			} else {
				urls = append(urls, p.URL)
			}
		}
	}

	if rootURL != "" {
		urls = append([]string{rootURL}, urls...)
	}
	var sm bytes.Buffer
	if err := render.Sitemap(&sm, urls); err != nil {
		return nil, err
	}
	if err := w.write("sitemap.xml", sm.Bytes()); err != nil {
		return nil, err
	}

	if err := copyStatic(w, opts); err != nil {
		return nil, err
	}

	report.Files = len(w.outs)
	report.Bytes = w.bytes
	if opts.Manifest != nil {
		recordManifest(opts, report, w.outs)
	}
	report.Elapsed = time.Since(start)
	return report, nil
}

func loadTemplate(opts Options) (*render.Template, error) {
	if opts.Template != nil {
		return opts.Template, nil
	}
	if opts.TemplatePath == "" {
		return render.Default(), nil
	}
	src, err := os.ReadFile(opts.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	tmpl, err := render.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", opts.TemplatePath, err)
	}
	return tmpl, nil
}

// renderUnits renders every unit with a bounded worker pool. Results are
// stored by unit index so output order never depends on scheduling.
func renderUnits(ctx context.Context, src *source.Dir, site *Site, tmpl *render.Template, units []unit, opts Options) ([]unitResult, error) {
	results := make([]unitResult, len(units))
	if len(units) == 0 {
		return results, nil
	}

	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(units) {
		numWorkers = len(units)
	}

	work := make(chan int, len(units))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range units {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				if ctx.Err() != nil {
					continue
				}
				results[idx] = renderUnit(src, site, tmpl, units[idx], opts.BaseURL)
				n := processed.Add(1)
				if opts.Progress != nil {
					opts.Progress(int(n), len(units))
				}
			}
		}()
	}

	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func renderUnit(src *source.Dir, site *Site, tmpl *render.Template, u unit, baseURL string) unitResult {
	id := u.country.Meta.ID
	pack, err := src.LoadLanguage(u.lang)
	if err != nil {
		logging.Log.WithFields(logrus.Fields{"country": id, "lang": u.lang}).Warnf("skipping page: %v", err)
		return unitResult{skip: &Skip{CountryID: id, Lang: u.lang, Err: err}}
	}

	page := ComposePage(u.country, site.Global, u.lang, pack, baseURL)
	pages := []Page{page}
	if u.root {
		pages = append(pages, RootPage(page, baseURL))
	}

	var res unitResult
	for _, p := range pages {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, p.Fields, p.Payload); err != nil {
			logging.Log.WithFields(logrus.Fields{"country": id, "lang": u.lang}).Warnf("skipping page: %v", err)
			return unitResult{skip: &Skip{CountryID: id, Lang: u.lang, Err: err}}
		}
		res.pages = append(res.pages, renderedPage{Page: p, root: p.Fields.IsRoot, html: buf.Bytes()})
	}
	return res
}

func copyStatic(w *distWriter, opts Options) error {
	if err := w.copyTree(opts.DataDir, "data"); err != nil {
		return fmt.Errorf("mirroring data: %w", err)
	}
	if opts.ClientDir == "" {
		return nil
	}
	robots := filepath.Join(opts.ClientDir, "robots.txt")
	if _, err := os.Stat(robots); err == nil {
		if err := w.copyFile(robots, "robots.txt"); err != nil {
			return fmt.Errorf("copying robots.txt: %w", err)
		}
	}
	for _, name := range assetDirs {
		dir := filepath.Join(opts.ClientDir, name)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := w.copyTree(dir, "assets/"+name); err != nil {
			return fmt.Errorf("copying %s: %w", name, err)
		}
	}
	return nil
}

func recordManifest(opts Options, report *Report, outs []store.Output) {
	m := opts.Manifest
	changed, err := m.RecordOutputs(report.BuildID, opts.DistDir, outs)
	if err != nil {
		logging.Log.Warnf("recording outputs: %v", err)
	} else {
		report.Changed = changed
	}

	if current, err := Fingerprint(opts.DataDir); err == nil {
		if tracked, err := m.GetTrackedFiles(); err == nil {
			report.InputsChanged = DiffFingerprints(tracked, current)
		}
		if err := m.ReplaceTrackedFiles(current); err != nil {
			logging.Log.Warnf("tracking inputs: %v", err)
		}
	}

	if err := m.FinishBuild(report.BuildID, len(report.Pages), len(report.Skipped), report.Changed); err != nil {
		logging.Log.Warnf("finishing build record: %v", err)
	}
}

// distWriter writes outputs under root and remembers their hashes.
type distWriter struct {
	root  string
	outs  []store.Output
	bytes int64
}

func (w *distWriter) write(rel string, data []byte) error {
	path := filepath.Join(w.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // public web output
		return fmt.Errorf("writing %s: %w", rel, err)
	}
	sum := sha256.Sum256(data)
	w.outs = append(w.outs, store.Output{Path: rel, SHA256: hex.EncodeToString(sum[:]), SizeBytes: int64(len(data))})
	w.bytes += int64(len(data))
	return nil
}

func (w *distWriter) copyFile(src, rel string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return w.write(rel, data)
}

func (w *distWriter) copyTree(srcDir, destRel string) error {
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(srcDir, path)
		return w.copyFile(path, destRel+"/"+filepath.ToSlash(rel))
	})
}
