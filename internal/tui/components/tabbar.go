package components

import (
	"strings"

	"github.com/theirongolddev/taxgame/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// ChoiceBar is a one-line selector such as the budget years or the page
// languages. Key is the hint shown before the options.
type ChoiceBar struct {
	Key     string
	Options []string
	Active  string
	Pending string // option being loaded
}

const choiceSep = " "

// prefix is the rendered text before the first option.
func (c ChoiceBar) prefix() string {
	return " [" + c.Key + "] "
}

func (c ChoiceBar) optionText(opt string) string {
	switch opt {
	case c.Active:
		return "‹" + opt + "›"
	case c.Pending:
		return opt + "…"
	default:
		return " " + opt + " "
	}
}

// Render draws the bar.
func (c ChoiceBar) Render() string {
	t := theme.Active

	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	activeStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	pendingStyle := lipgloss.NewStyle().Foreground(t.Warn)
	inactiveStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	parts := make([]string, len(c.Options))
	for i, opt := range c.Options {
		text := c.optionText(opt)
		switch opt {
		case c.Active:
			parts[i] = activeStyle.Render(text)
		case c.Pending:
			parts[i] = pendingStyle.Render(text)
		default:
			parts[i] = inactiveStyle.Render(text)
		}
	}
	return keyStyle.Render(c.prefix()) + strings.Join(parts, choiceSep)
}

// At returns the option under column x, or "" if none. Hitboxes follow the
// same widths Render uses.
func (c ChoiceBar) At(x int) string {
	pos := lipgloss.Width(c.prefix())
	for _, opt := range c.Options {
		w := lipgloss.Width(c.optionText(opt))
		if x >= pos && x < pos+w {
			return opt
		}
		pos += w + lipgloss.Width(choiceSep)
	}
	return ""
}

// Next returns the option after Active, wrapping around. delta may be
// negative.
func (c ChoiceBar) Next(delta int) string {
	if len(c.Options) == 0 {
		return ""
	}
	idx := 0
	for i, opt := range c.Options {
		if opt == c.Active {
			idx = i
			break
		}
	}
	n := len(c.Options)
	return c.Options[((idx+delta)%n+n)%n]
}
