// Package tui provides the interactive Bubble Tea play screen: enter a
// salary, see where the tax goes, switch budget years, languages and
// countries.
package tui

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/theirongolddev/taxgame/internal/cli"
	"github.com/theirongolddev/taxgame/internal/game"
	"github.com/theirongolddev/taxgame/internal/model"
	"github.com/theirongolddev/taxgame/internal/tui/components"
	"github.com/theirongolddev/taxgame/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// YearLoadedMsg carries the outcome of a budget year fetch.
type YearLoadedMsg struct {
	ctrl *game.Controller
	Req  game.YearRequest
	Doc  *model.BudgetDocument
	Err  error
}

// PageLoadedMsg carries a language or country page load.
type PageLoadedMsg struct {
	seq      int
	Location string
	Payload  *model.ClientPayload
	Err      error
}

// App is the root Bubble Tea model.
type App struct {
	ctrl    *game.Controller
	fetcher game.Fetcher
	opts    game.Options

	input   textinput.Model
	spinner spinner.Model

	width  int
	height int

	pendingYear string
	loadingPage string
	pageSeq     int
	err         error
}

const (
	minTerminalWidth = 60
	maxContentWidth  = 110
	fetchTimeout     = 30 * time.Second

	// Rows of the selector bars, for mouse hit testing.
	yearBarY    = 1
	langBarY    = 2
	countryBarY = 3
)

// NewApp starts the play screen on the page payload p, found at location.
func NewApp(p *model.ClientPayload, location string, f game.Fetcher, opts game.Options) (App, error) {
	ctrl, err := game.New(p, location, f, opts)
	if err != nil {
		return App{}, fmt.Errorf("starting controller: %w", err)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	a := App{
		ctrl:    ctrl,
		fetcher: f,
		opts:    opts,
		input:   textinput.New(),
		spinner: sp,
	}
	a.input.CharLimit = 24
	a.input.Width = 24
	a.syncInput()
	return a, nil
}

// syncInput mirrors the controller state into the text input.
func (a *App) syncInput() {
	st := a.ctrl.State()
	a.input.Prompt = st.Meta.CurrencySymbol + " "
	a.input.Placeholder = st.Strings.Text("salaryInputLabel", "Annual salary")
	a.input.SetValue(st.SalaryInput)
	if st.View == game.ViewHero {
		a.input.Focus()
	} else {
		a.input.Blur()
	}
}

// Controller exposes the underlying controller state, for callers that
// inspect the outcome after the program exits.
func (a App) Controller() *game.Controller {
	return a.ctrl
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		textinput.Blink,
		a.spinner.Tick,
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case YearLoadedMsg:
		if msg.ctrl != a.ctrl {
			return a, nil // page changed while the year was loading
		}
		err := a.ctrl.CompleteYearSwitch(msg.Req, msg.Doc, msg.Err)
		if errors.Is(err, game.ErrStaleResponse) {
			return a, nil
		}
		a.pendingYear = ""
		a.err = err
		return a, nil

	case PageLoadedMsg:
		if msg.seq != a.pageSeq {
			return a, nil
		}
		a.loadingPage = ""
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		ctrl, err := game.New(msg.Payload, msg.Location, a.fetcher, a.opts)
		if err != nil {
			a.err = err
			return a, nil
		}
		a.ctrl = ctrl
		a.pendingYear = ""
		a.err = nil
		a.syncInput()
		return a, nil

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return a, nil
		}
		return a.click(msg.X, msg.Y)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.ctrl.State().View == game.ViewHero {
			return a.updateHero(msg)
		}
		return a.updateResults(msg)
	}

	return a, nil
}

func (a App) updateHero(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if err := a.ctrl.Submit(a.input.Value()); err != nil {
			a.err = err
			return a, nil
		}
		a.err = nil
		a.input.Blur()
		return a, nil
	case "tab":
		return a.stepYear(1)
	case "shift+tab":
		return a.stepYear(-1)
	case "esc":
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	a.ctrl.SetSalaryInput(a.input.Value())
	return a, cmd
}

func (a App) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "esc", "backspace", "b":
		a.ctrl.Back()
		a.err = nil
		a.syncInput()
		return a, nil
	case "y", "tab":
		return a.stepYear(1)
	case "Y", "shift+tab":
		return a.stepYear(-1)
	case "l":
		return a.switchLanguage(a.langBar().Next(1))
	case "c":
		return a.switchCountry(a.countryBar().Next(1))
	}
	return a, nil
}

func (a App) click(x, y int) (tea.Model, tea.Cmd) {
	switch y {
	case yearBarY:
		if year := a.yearBar().At(x); year != "" {
			return a.switchYear(year)
		}
	case langBarY:
		if lang := a.langBar().At(x); lang != "" {
			return a.switchLanguage(lang)
		}
	case countryBarY:
		if id := a.countryBar().At(x); id != "" {
			return a.switchCountry(id)
		}
	}
	return a, nil
}

func (a App) stepYear(delta int) (tea.Model, tea.Cmd) {
	bar := a.yearBar()
	if a.pendingYear != "" {
		bar.Active = a.pendingYear
	}
	return a.switchYear(bar.Next(delta))
}

func (a App) switchYear(year string) (tea.Model, tea.Cmd) {
	if year == "" {
		return a, nil
	}
	req, ok := a.ctrl.BeginYearSwitch(year)
	if !ok {
		a.pendingYear = ""
		return a, nil
	}
	a.pendingYear = year
	ctrl := a.ctrl
	return a, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		doc, err := ctrl.Fetch(ctx, req)
		return YearLoadedMsg{ctrl: ctrl, Req: req, Doc: doc, Err: err}
	}
}

func (a App) switchLanguage(lang string) (tea.Model, tea.Cmd) {
	location, ok := a.ctrl.LanguageURL(lang)
	if !ok {
		return a, nil
	}
	return a.loadPage(location)
}

func (a App) switchCountry(id string) (tea.Model, tea.Cmd) {
	if id == "" || id == a.ctrl.State().Meta.ID {
		return a, nil
	}
	return a.loadPage(a.ctrl.CountryURL(id))
}

func (a App) loadPage(location string) (tea.Model, tea.Cmd) {
	a.pageSeq++
	a.loadingPage = location
	seq := a.pageSeq
	fetcher := a.fetcher
	return a, func() tea.Msg {
		u, err := url.Parse(location)
		if err != nil {
			return PageLoadedMsg{seq: seq, Location: location, Err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		p, err := fetcher.LoadPage(ctx, u.Path)
		return PageLoadedMsg{seq: seq, Location: location, Payload: p, Err: err}
	}
}

func (a App) yearBar() components.ChoiceBar {
	st := a.ctrl.State()
	bar := components.ChoiceBar{Key: "y", Options: st.Years(), Pending: a.pendingYear}
	if st.Budget != nil {
		bar.Active = st.Budget.Year
	}
	return bar
}

func (a App) langBar() components.ChoiceBar {
	st := a.ctrl.State()
	return components.ChoiceBar{Key: "l", Options: st.Meta.AvailableLanguages, Active: st.CurrentLanguage}
}

func (a App) countryBar() components.ChoiceBar {
	st := a.ctrl.State()
	ids := make([]string, len(st.GlobalCountries))
	for i, g := range st.GlobalCountries {
		ids[i] = g.ID
	}
	return components.ChoiceBar{Key: "c", Options: ids, Active: st.Meta.ID}
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  taxgame needs at least %d columns.\n",
			a.width, minTerminalWidth)
	}

	t := theme.Active
	st := a.ctrl.State()
	w := a.contentWidth()

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	var b strings.Builder
	b.WriteString(" " + titleStyle.Render(st.Meta.Flag+" "+st.Meta.Name) +
		mutedStyle.Render("  ·  "+st.Strings.Text("headline", "Where do your taxes go?")))
	b.WriteString("\n")
	b.WriteString(a.yearBar().Render() + "\n")
	b.WriteString(a.langBar().Render() + "\n")
	b.WriteString(a.countryBar().Render() + "\n\n")

	if st.View == game.ViewResults && st.Last != nil {
		b.WriteString(a.viewResults(st, w))
	} else {
		b.WriteString(a.viewHero(st))
	}

	if a.err != nil {
		warn := lipgloss.NewStyle().Foreground(t.Warn)
		b.WriteString("\n " + warn.Render("! "+errorText(a.err)) + "\n")
	}
	if a.pendingYear != "" || a.loadingPage != "" {
		b.WriteString("\n " + a.spinner.View() + mutedStyle.Render(" loading") + "\n")
	}

	body := b.String()
	if a.height > 0 {
		lines := strings.Split(body, "\n")
		if len(lines) > a.height-1 {
			lines = lines[:a.height-1]
		}
		for len(lines) < a.height-1 {
			lines = append(lines, "")
		}
		body = strings.Join(lines, "\n")
	}
	return body + "\n" + components.RenderStatusBar(w, a.hints(st.View), st.Location.String())
}

func (a App) hints(v game.View) string {
	if v == game.ViewHero {
		return "enter calculate · tab year · click bars · esc quit"
	}
	return "esc back · y/Y year · l language · c country · q quit"
}

func (a App) viewHero(st game.State) string {
	t := theme.Active
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	ctaStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)

	var b strings.Builder
	year := ""
	if st.Budget != nil {
		year = " • " + st.Budget.Year
	}
	b.WriteString(" " + mutedStyle.Render(st.Strings.Text("subtext", "")+year) + "\n\n")
	b.WriteString(" " + textStyle.Render(st.Strings.Text("salaryInputLabel", "Annual salary")) + "\n")
	b.WriteString(" " + a.input.View() + "\n\n")
	b.WriteString(" " + ctaStyle.Render("⏎ "+st.Strings.Text("cta", "Calculate")) + "\n")
	if d := st.Strings.Text("disclaimer", ""); d != "" {
		b.WriteString("\n " + lipgloss.NewStyle().Foreground(t.TextDim).Render(d) + "\n")
	}
	return b.String()
}

func (a App) viewResults(st game.State, w int) string {
	t := theme.Active
	calc := st.Last

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: st.Strings.Text("salaryInputLabel", "Salary"), Value: cli.FormatMoney(int64(calc.Salary), st.Meta)},
		{Label: st.Strings.Text("total_tax", "Your tax"), Value: cli.FormatMoney(calc.Tax, st.Meta),
			Note: cli.FormatCompact(calc.Tax, cli.CompactSystem(st.Meta))},
		{Label: st.Strings.Text("citizen_rank", "Citizen level"), Value: fmt.Sprintf("%d / 99", calc.Level),
			Note: components.LevelBar(calc.Level, 16)},
	}, w))
	b.WriteString("\n")

	inner := components.CardInnerWidth(w)
	labelW := min(22, inner/3)
	barW := max(inner-labelW-34, 6)
	maxShare := 0.0
	for _, e := range calc.Breakdown {
		maxShare = max(maxShare, e.Percent)
	}
	var rows []string
	for _, e := range calc.Breakdown {
		rows = append(rows, components.ShareBar(components.ShareRow{
			Icon:   e.Icon,
			Label:  e.Label,
			Amount: cli.FormatMoney(e.Amount, st.Meta),
			Share:  e.Percent,
			Change: cli.RenderChange(e.Change),
		}, maxShare, labelW, barW))
	}
	title := st.Strings.Text("breakdown_title", "Where it goes")
	if st.Budget != nil {
		title += " · " + st.Budget.Year
	}
	b.WriteString(components.ContentCard(title, strings.Join(rows, "\n"), w))
	b.WriteString("\n")

	if len(calc.Unlocked) > 0 {
		gold := lipgloss.NewStyle().Foreground(t.Gold).Background(t.Surface)
		muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
		var lines []string
		for _, ach := range calc.Unlocked {
			lines = append(lines, gold.Render(ach.Icon+" "+ach.Label)+muted.Render("  "+ach.Description))
		}
		b.WriteString(components.ContentCard(st.Strings.Text("achievements_title", "Unlocked"), strings.Join(lines, "\n"), w))
		b.WriteString("\n")
	}

	if src := st.SourceURL(); src != "" {
		b.WriteString(" " + lipgloss.NewStyle().Foreground(t.TextDim).Render("Source: "+src) + "\n")
	}
	return b.String()
}

func errorText(err error) string {
	var invalid *game.InvalidInputError
	if errors.As(err, &invalid) {
		return fmt.Sprintf("%q is not a salary", invalid.Input)
	}
	return err.Error()
}
