package game

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/theirongolddev/taxgame/internal/pipeline"
	"github.com/theirongolddev/taxgame/internal/sitefixture"
)

func buildSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	data := sitefixture.Write(t, root)
	dist := filepath.Join(root, "dist")
	_, err := pipeline.Build(context.Background(), pipeline.Options{
		DataDir: data, DistDir: dist, BaseURL: "https://tax.example.dev", Workers: 1,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return dist
}

func TestLoadSnapshot_Errors(t *testing.T) {
	if _, err := LoadSnapshot(strings.NewReader("<html><body>nothing</body></html>")); err == nil {
		t.Error("page without payload accepted")
	}
	bad := `<script id="tax-data" type="application/json">{"meta":</script>`
	if _, err := LoadSnapshot(strings.NewReader(bad)); err == nil {
		t.Error("truncated payload accepted")
	}
}

func TestDirFetcher_RoundTrip(t *testing.T) {
	site := buildSite(t)
	f := DirFetcher{SiteDir: site}

	p, err := f.LoadPage(context.Background(), "/in/hi/")
	if err != nil {
		t.Fatalf("LoadPage: %v", err)
	}
	if p.CurrentLanguage != "hi" || p.Meta.ID != "in" || p.Budget.Year != "2026-27" {
		t.Errorf("payload = lang %s country %s year %s", p.CurrentLanguage, p.Meta.ID, p.Budget.Year)
	}
	if p.Strings.Label("defence") != "रक्षा" {
		t.Errorf("strings not carried: %q", p.Strings.Label("defence"))
	}

	root, err := f.LoadPage(context.Background(), "/")
	if err != nil {
		t.Fatalf("LoadPage(/): %v", err)
	}
	if root.Meta.ID != "in" || root.CurrentLanguage != "en" {
		t.Errorf("root payload = %s/%s", root.Meta.ID, root.CurrentLanguage)
	}

	b, err := f.FetchBudget(context.Background(), "in", "2025-26")
	if err != nil {
		t.Fatalf("FetchBudget: %v", err)
	}
	if b.Year != "2025-26" {
		t.Errorf("year = %s", b.Year)
	}

	_, err = f.FetchBudget(context.Background(), "in", "1990-91")
	var rfe *RuntimeFetchError
	if !errors.As(err, &rfe) {
		t.Errorf("missing budget error = %v", err)
	}
}

func TestHTTPFetcher(t *testing.T) {
	site := buildSite(t)
	srv := httptest.NewServer(http.FileServer(http.Dir(site)))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, 0)
	b, err := f.FetchBudget(context.Background(), "in", "2025-26")
	if err != nil {
		t.Fatalf("FetchBudget: %v", err)
	}
	if b.Year != "2025-26" || len(b.TaxRules.Brackets) != 2 {
		t.Errorf("budget = %+v", b)
	}

	_, err = f.FetchBudget(context.Background(), "in", "1990-91")
	var rfe *RuntimeFetchError
	if !errors.As(err, &rfe) || rfe.Status != http.StatusNotFound {
		t.Fatalf("missing budget error = %v, want 404", err)
	}

	p, err := f.LoadPage(context.Background(), "/us/")
	if err != nil {
		t.Fatalf("LoadPage: %v", err)
	}
	if p.Meta.ID != "us" {
		t.Errorf("page country = %s", p.Meta.ID)
	}
}

func TestHTTPFetcher_RejectsInvalidRules(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"year":"2025","taxRules":{"brackets":[]},"expenditure":{"categories":[]}}`))
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(srv.URL, 0).FetchBudget(context.Background(), "us", "2025")
	var rfe *RuntimeFetchError
	if !errors.As(err, &rfe) {
		t.Fatalf("error = %v, want *RuntimeFetchError", err)
	}
}

func TestController_OverBuiltSite(t *testing.T) {
	site := buildSite(t)
	f := DirFetcher{SiteDir: site}
	p, err := f.LoadPage(context.Background(), "/in/")
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(p, "/in/?salary=1500000", f, Options{RecomputeTrends: true})
	if err != nil {
		t.Fatal(err)
	}
	if got := c.State().Last.Tax; got != 156000 {
		t.Errorf("tax = %d, want 156000", got)
	}
	if err := c.SwitchYear(context.Background(), "2025-26"); err != nil {
		t.Fatalf("SwitchYear: %v", err)
	}
	// 2025-26: 400000 @ 0, remainder @ 10%, no cess.
	if got := c.State().Last.Tax; got != 110000 {
		t.Errorf("tax after switch = %d, want 110000", got)
	}
}
