package components

import (
	"fmt"

	"github.com/theirongolddev/taxgame/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ShareRow is one spending category line in the breakdown.
type ShareRow struct {
	Icon   string
	Label  string
	Amount string
	Share  float64 // fraction of total tax, 0..1
	Change string // pre-rendered trend, may be empty
}

// ShareBar renders a labeled bar scaled against maxShare, so the largest
// category always fills the bar.
func ShareBar(r ShareRow, maxShare float64, labelW, barW int) string {
	t := theme.Active

	pct := 0.0
	if maxShare > 0 {
		pct = min(max(r.Share/maxShare, 0), 1)
	}

	bar := progress.New(
		progress.WithSolidFill(string(t.Accent)),
		progress.WithWidth(barW),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	bg := lipgloss.NewStyle().Background(t.Surface)
	labelStyle := bg.Foreground(t.TextPrimary)
	amountStyle := bg.Foreground(t.AccentBright).Bold(true)
	shareStyle := bg.Foreground(t.TextMuted)

	label := r.Label
	if r.Icon != "" {
		label = r.Icon + " " + label
	}
	label = truncate(label, labelW)

	out := labelStyle.Render(label+spaces(labelW-lipgloss.Width(label))) +
		bg.Render(" ") +
		bar.ViewAs(pct) +
		bg.Render(" ") +
		amountStyle.Render(r.Amount) +
		bg.Render(" ") +
		shareStyle.Render(fmt.Sprintf("%4.1f%%", r.Share*100))
	if r.Change != "" {
		out += bg.Render("  ") + r.Change
	}
	return out
}

// LevelBar shows progress through the 1..99 citizen levels.
func LevelBar(level, width int) string {
	t := theme.Active
	bar := progress.New(
		progress.WithGradient(string(t.Accent), string(t.Gold)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)
	return bar.ViewAs(float64(level) / 99)
}

func truncate(s string, limit int) string {
	if lipgloss.Width(s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("%*s", n, "")
}
