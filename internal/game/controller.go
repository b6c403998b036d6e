// Package game is the runtime side of a generated page: it recomputes the
// tax breakdown as the user enters a salary, switches budget years and
// moves between languages and countries.
package game

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/taxgame/internal/logging"
	"github.com/theirongolddev/taxgame/internal/model"
	"github.com/theirongolddev/taxgame/internal/pipeline"
	"github.com/theirongolddev/taxgame/internal/tax"
)

// View is the screen the controller is showing.
type View int

// Views.
const (
	ViewHero View = iota
	ViewResults
)

func (v View) String() string {
	if v == ViewResults {
		return "results"
	}
	return "hero"
}

var (
	nonNumericRe = regexp.MustCompile(`[^0-9.]`)
	numberRe     = regexp.MustCompile(`^[0-9]*\.?[0-9]*`)
)

// Calculation is the result of running the tax engine for a salary.
type Calculation struct {
	Salary    float64
	Tax       int64
	Breakdown []model.CategoryBreakdownEntry
	Level     int
	Unlocked  []model.Achievement
}

// Location is the page path plus its query string.
type Location struct {
	Path  string
	Query url.Values
}

func (l Location) String() string {
	if len(l.Query) == 0 {
		return l.Path
	}
	return l.Path + "?" + l.Query.Encode()
}

// State is everything the front end renders.
type State struct {
	Meta            model.CountryMeta
	Budget          *model.BudgetDocument
	Achievements    []model.Achievement
	GlobalCountries []model.GlobalCountry
	Strings         *model.LanguagePack
	CurrentLanguage string

	View        View
	SalaryInput string
	Last        *Calculation
	Location    Location
}

// SourceURL is the attribution link for the active budget.
func (s State) SourceURL() string {
	if s.Budget == nil {
		return ""
	}
	return s.Budget.SourceURL
}

// Years lists the selectable budget years.
func (s State) Years() []string {
	if s.Budget == nil {
		return s.Meta.AvailableBudgets
	}
	return s.Meta.Budgets(s.Budget.Year)
}

// Options tunes a Controller.
type Options struct {
	// RecomputeTrends applies year-over-year changes to budgets fetched by a
	// year switch, as the build does for the default year.
	RecomputeTrends bool
}

// YearRequest identifies one year switch. Only the newest request may
// change state.
type YearRequest struct {
	Seq       uint64
	CountryID string
	Year      string
}

// Controller owns the runtime State. It is not safe for concurrent use;
// only Fetch may run off the owning goroutine.
type Controller struct {
	state   State
	fetcher Fetcher
	opts    Options
	seq     uint64
}

// New starts a controller from a page payload at location (path and
// optional query). A salary in the query opens straight onto the results.
func New(p *model.ClientPayload, location string, f Fetcher, opts Options) (*Controller, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, err
	}
	if u.Path == "" {
		u.Path = "/"
	}
	c := &Controller{
		state: State{
			Meta:            p.Meta,
			Budget:          p.Budget,
			Achievements:    p.Achievements,
			GlobalCountries: p.GlobalCountries,
			Strings:         p.Strings,
			CurrentLanguage: p.CurrentLanguage,
			Location:        Location{Path: u.Path, Query: u.Query()},
		},
		fetcher: f,
		opts:    opts,
	}
	c.initialSalary()
	return c, nil
}

func (c *Controller) initialSalary() {
	saved := c.state.Location.Query.Get("salary")
	if saved == "" {
		return
	}
	salary, err := parseSalary(saved)
	if err != nil {
		logging.Log.Infof("ignoring salary in location: %v", err)
		return
	}
	c.state.SalaryInput = saved
	c.state.View = ViewResults
	c.recompute(salary)
}

// State returns the current state. Callers must not modify it.
func (c *Controller) State() State {
	return c.state
}

// SetSalaryInput records the salary text without submitting it.
func (c *Controller) SetSalaryInput(input string) {
	c.state.SalaryInput = input
}

// Submit parses input, stores it in the location and shows the results.
// Invalid input leaves the state untouched.
func (c *Controller) Submit(input string) error {
	salary, err := parseSalary(input)
	if err != nil {
		return err
	}
	c.state.SalaryInput = input
	c.setQuery("salary", strconv.FormatFloat(salary, 'f', -1, 64))
	c.state.View = ViewResults
	c.recompute(salary)
	return nil
}

// Back returns to the hero screen and forgets the salary in the location.
func (c *Controller) Back() {
	c.state.View = ViewHero
	c.state.Location.Query.Del("salary")
}

func (c *Controller) setQuery(key, value string) {
	if c.state.Location.Query == nil {
		c.state.Location.Query = url.Values{}
	}
	c.state.Location.Query.Set(key, value)
}

func (c *Controller) recompute(salary float64) {
	b := c.state.Budget
	total := tax.CalculateTax(salary, b.TaxRules)
	c.state.Last = &Calculation{
		Salary:    salary,
		Tax:       total,
		Breakdown: tax.SplitTax(total, b.Expenditure.Categories),
		Level:     tax.CitizenLevel(total),
		Unlocked:  tax.Unlocked(total, c.state.Achievements),
	}
}

// parseSalary keeps digits and dots, then reads the leading number.
func parseSalary(input string) (float64, error) {
	cleaned := numberRe.FindString(nonNumericRe.ReplaceAllString(input, ""))
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v <= 0 || v > tax.MaxSalary {
		return 0, &InvalidInputError{Input: input}
	}
	return v, nil
}

// BeginYearSwitch issues a request for year. It reports false when year is
// already active; that still supersedes any pending request.
func (c *Controller) BeginYearSwitch(year string) (YearRequest, bool) {
	c.seq++
	req := YearRequest{Seq: c.seq, CountryID: c.state.Meta.ID, Year: year}
	return req, c.state.Budget == nil || year != c.state.Budget.Year
}

// Fetch loads the budget for req, with trends when enabled. It touches no
// controller state and may run on another goroutine.
func (c *Controller) Fetch(ctx context.Context, req YearRequest) (*model.BudgetDocument, error) {
	doc, err := c.fetcher.FetchBudget(ctx, req.CountryID, req.Year)
	if err != nil {
		return nil, err
	}
	if !c.opts.RecomputeTrends {
		return doc, nil
	}
	prev, _, err := pipeline.PreviousBudget(req.Year, func(y string) (*model.BudgetDocument, error) {
		return c.fetcher.FetchBudget(ctx, req.CountryID, y)
	})
	if err != nil {
		logging.Log.WithFields(logrus.Fields{"country": req.CountryID, "year": req.Year}).Debugf("no trends: %v", err)
		return doc, nil
	}
	return pipeline.WithTrends(doc, prev), nil
}

// CompleteYearSwitch applies the outcome of req. Stale or failed requests
// keep the current budget.
func (c *Controller) CompleteYearSwitch(req YearRequest, doc *model.BudgetDocument, err error) error {
	fields := logrus.Fields{"country": req.CountryID, "year": req.Year}
	if req.Seq != c.seq {
		logging.Log.WithFields(fields).Debug("dropping stale year switch")
		return ErrStaleResponse
	}
	if err == nil && doc == nil {
		err = errors.New("empty budget")
	}
	if err != nil {
		var rfe *RuntimeFetchError
		if !errors.As(err, &rfe) {
			err = &RuntimeFetchError{Target: BudgetPath(req.CountryID, req.Year), Err: err}
		}
		logging.Log.WithFields(fields).Warnf("budget fetch failed: %v", err)
		return err
	}

	c.state.Budget = pipeline.Localize(doc, c.state.Strings)
	if salary, perr := parseSalary(c.state.SalaryInput); perr == nil {
		c.recompute(salary)
	}
	return nil
}

// SwitchYear fetches and applies year synchronously.
func (c *Controller) SwitchYear(ctx context.Context, year string) error {
	req, ok := c.BeginYearSwitch(year)
	if !ok {
		return nil
	}
	doc, err := c.Fetch(ctx, req)
	return c.CompleteYearSwitch(req, doc, err)
}

// LanguageURL returns the page for lang, carrying the entered salary. It
// reports false for the current language.
func (c *Controller) LanguageURL(lang string) (string, bool) {
	if lang == c.state.CurrentLanguage {
		return "", false
	}
	u := "/" + c.state.Meta.ID + "/"
	if lang != c.state.Meta.DefaultLanguage {
		u += lang + "/"
	}
	if s := nonNumericRe.ReplaceAllString(c.state.SalaryInput, ""); s != "" {
		u += "?salary=" + url.QueryEscape(s)
	}
	return u, true
}

// CountryURL returns the default page of another country.
func (c *Controller) CountryURL(id string) string {
	return "/" + id + "/"
}
