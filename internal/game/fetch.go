package game

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/theirongolddev/taxgame/internal/model"
	"github.com/theirongolddev/taxgame/internal/source"
)

const maxBodySize = 4 << 20 // 4 MB

// Fetcher loads generated pages and budget documents of a published site.
type Fetcher interface {
	FetchBudget(ctx context.Context, countryID, year string) (*model.BudgetDocument, error)
	LoadPage(ctx context.Context, pagePath string) (*model.ClientPayload, error)
}

// BudgetPath is the site-relative location of a budget document.
func BudgetPath(countryID, year string) string {
	return "/data/countries/" + countryID + "/budgets/" + year + ".json"
}

// pageFile maps a page URL path such as "/in/hi/" to its index.html.
func pageFile(pagePath string) string {
	p := path.Clean("/" + pagePath)
	if p == "/" {
		return "index.html"
	}
	return strings.TrimPrefix(p, "/") + "/index.html"
}

// HTTPFetcher reads a site over HTTP.
type HTTPFetcher struct {
	baseURL string
	http    *retryablehttp.Client
}

// NewHTTPFetcher creates a fetcher for the site at baseURL. retryMax bounds
// retries on connection errors and 5xx responses.
func NewHTTPFetcher(baseURL string, retryMax int) *HTTPFetcher {
	client := retryablehttp.NewClient()
	client.Logger = log.New(io.Discard, "", 0)
	client.RetryMax = retryMax
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = 10 * time.Second
	return &HTTPFetcher{baseURL: strings.TrimRight(baseURL, "/"), http: client}
}

// FetchBudget implements Fetcher.
func (f *HTTPFetcher) FetchBudget(ctx context.Context, countryID, year string) (*model.BudgetDocument, error) {
	url := f.baseURL + BudgetPath(countryID, year)
	body, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := source.DecodeBudget(body)
	if err != nil {
		return nil, &RuntimeFetchError{Target: url, Err: err}
	}
	return doc, nil
}

// LoadPage implements Fetcher.
func (f *HTTPFetcher) LoadPage(ctx context.Context, pagePath string) (*model.ClientPayload, error) {
	url := f.baseURL + "/" + pageFile(pagePath)
	body, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	p, err := LoadSnapshot(bytes.NewReader(body))
	if err != nil {
		return nil, &RuntimeFetchError{Target: url, Err: err}
	}
	return p, nil
}

func (f *HTTPFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, &RuntimeFetchError{Target: url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json, text/html")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, &RuntimeFetchError{Target: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RuntimeFetchError{Target: url, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &RuntimeFetchError{Target: url, Err: fmt.Errorf("reading response: %w", err)}
	}
	return body, nil
}

// DirFetcher reads a generated site from disk.
type DirFetcher struct {
	SiteDir string
}

// FetchBudget implements Fetcher using the mirrored data tree.
func (f DirFetcher) FetchBudget(_ context.Context, countryID, year string) (*model.BudgetDocument, error) {
	doc, err := source.New(filepath.Join(f.SiteDir, "data")).LoadBudget(countryID, year)
	if err != nil {
		return nil, &RuntimeFetchError{Target: filepath.Join(f.SiteDir, filepath.FromSlash(BudgetPath(countryID, year))), Err: err}
	}
	return doc, nil
}

// LoadPage implements Fetcher.
func (f DirFetcher) LoadPage(_ context.Context, pagePath string) (*model.ClientPayload, error) {
	file := filepath.Join(f.SiteDir, filepath.FromSlash(pageFile(pagePath)))
	fh, err := os.Open(file)
	if err != nil {
		return nil, &RuntimeFetchError{Target: file, Err: err}
	}
	defer func() { _ = fh.Close() }()
	p, err := LoadSnapshot(fh)
	if err != nil {
		return nil, &RuntimeFetchError{Target: file, Err: err}
	}
	return p, nil
}
