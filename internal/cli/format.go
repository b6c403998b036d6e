// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/theirongolddev/taxgame/internal/model"
)

// Printer returns a number printer for a BCP 47 locale, falling back to
// en-US when the tag does not parse.
func Printer(locale string) *message.Printer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	return message.NewPrinter(tag)
}

// FormatNumber adds en-US digit grouping to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return Printer("en-US").Sprintf("%d", n)
}

// FormatMoney formats a whole-unit amount with the country's currency
// symbol and locale grouping.
func FormatMoney(amount int64, meta model.CountryMeta) string {
	p := Printer(meta.LocaleOrDefault())
	if amount < 0 {
		return "-" + meta.CurrencySymbol + p.Sprintf("%d", -amount)
	}
	return meta.CurrencySymbol + p.Sprintf("%d", amount)
}

// FormatCompact abbreviates an amount for tight columns. The indian system
// uses crore and lakh, everything else billions and millions.
func FormatCompact(amount int64, system string) string {
	a := float64(amount)
	if system == "indian" {
		switch {
		case amount >= 10_000_000:
			return fmt.Sprintf("%.1fCr", a/10_000_000)
		case amount >= 100_000:
			return fmt.Sprintf("%.1fL", a/100_000)
		case amount >= 1_000:
			return fmt.Sprintf("%.0fk", a/1_000)
		}
		return strconv.FormatInt(amount, 10)
	}
	switch {
	case amount >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", a/1_000_000_000)
	case amount >= 1_000_000:
		return fmt.Sprintf("%.1fM", a/1_000_000)
	case amount >= 1_000:
		return fmt.Sprintf("%.0fk", a/1_000)
	}
	return strconv.FormatInt(amount, 10)
}

// CompactSystem returns the meta's number system, defaulting to
// international.
func CompactSystem(meta model.CountryMeta) string {
	if meta.NumberFormat != nil && meta.NumberFormat.System != "" {
		return meta.NumberFormat.System
	}
	return "international"
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatChange renders a year-over-year change with an arrow. Missing and
// zero changes render empty.
func FormatChange(change *float64) string {
	if change == nil || *change == 0 {
		return ""
	}
	if *change > 0 {
		return fmt.Sprintf("▲ %.1f%%", *change)
	}
	return fmt.Sprintf("▼ %.1f%%", -*change)
}

// FormatBytes formats a byte count, e.g. 12345 -> "12 kB".
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
