package render

import (
	"encoding/xml"
	"fmt"
	"io"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	ChangeFreq string `xml:"changefreq"`
}

// Sitemap writes a sitemap listing urls in order, each with a weekly change
// frequency.
func Sitemap(w io.Writer, urls []string) error {
	set := urlset{XMLNS: sitemapNS}
	for _, u := range urls {
		set.URLs = append(set.URLs, sitemapURL{Loc: u, ChangeFreq: "weekly"})
	}
	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding sitemap: %w", err)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}
