// Package report exports a tax breakdown as a one-page PDF.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/theirongolddev/taxgame/internal/cli"
	"github.com/theirongolddev/taxgame/internal/model"
)

const (
	marginLeft   = 20.0
	marginTop    = 20.0
	marginRight  = 20.0
	contentWidth = 210.0 - marginLeft - marginRight
)

// Breakdown is what the PDF shows.
type Breakdown struct {
	Meta        model.CountryMeta
	Year        string
	SourceURL   string
	Salary      float64
	Tax         int64
	Level       int
	Categories  []model.CategoryBreakdownEntry
	Unlocked    []model.Achievement
	GeneratedAt time.Time
}

// Write renders b as PDF to w.
func Write(w io.Writer, b Breakdown) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// Standard fonts are Latin-1, so money uses the ISO code, not the symbol.
	money := func(v int64) string {
		return b.Meta.Currency + " " + cli.FormatNumber(v)
	}

	pdf.SetFont("Arial", "B", 22)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(contentWidth, 12, tr(fmt.Sprintf("Where your tax goes: %s %s", b.Meta.Name, b.Year)), "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "I", 10)
	pdf.SetTextColor(80, 80, 80)
	generated := b.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	pdf.CellFormat(contentWidth, 6, "Generated: "+generated.Format("2 January 2006"), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFillColor(245, 247, 250)
	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(contentWidth, 8, "Summary", "1", 1, "C", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.SetTextColor(50, 50, 50)
	summary := []string{
		"Salary: " + money(int64(b.Salary)),
		"Total tax: " + money(b.Tax),
		fmt.Sprintf("Citizen level: %d", b.Level),
	}
	for i, line := range summary {
		border := "LR"
		if i == len(summary)-1 {
			border = "LRB"
		}
		pdf.CellFormat(contentWidth, 7, tr(line), border, 1, "C", true, 0, "")
	}
	pdf.Ln(8)

	cols := []float64{70, 25, 45, 30}
	headers := []string{"Category", "Share", "Amount", "Change"}
	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(0, 51, 102)
	for i, h := range headers {
		pdf.CellFormat(cols[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(50, 50, 50)
	for _, c := range b.Categories {
		change := "-"
		if c.Change != nil && *c.Change != 0 {
			change = fmt.Sprintf("%+.1f%%", *c.Change)
		}
		pdf.CellFormat(cols[0], 7, tr(c.Label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(cols[1], 7, cli.FormatPercent(c.Percent), "1", 0, "R", false, 0, "")
		pdf.CellFormat(cols[2], 7, tr(money(c.Amount)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(cols[3], 7, change, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if len(b.Unlocked) > 0 {
		pdf.Ln(8)
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(0, 51, 102)
		pdf.CellFormat(contentWidth, 8, "Achievements", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(50, 50, 50)
		for _, a := range b.Unlocked {
			pdf.MultiCell(contentWidth, 6, tr(a.Label+": "+a.Description), "", "L", false)
		}
	}

	if b.SourceURL != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(contentWidth, 6, tr("Source: "+b.SourceURL), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("generating PDF: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteFile renders b to path.
func WriteFile(path string, b Breakdown) error {
	var buf bytes.Buffer
	if err := Write(&buf, b); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { //nolint:gosec // user-facing export
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
