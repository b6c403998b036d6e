package game

import (
	"context"
	"errors"
	"testing"

	"github.com/theirongolddev/taxgame/internal/model"
)

type fakeFetcher struct {
	budgets map[string]*model.BudgetDocument
	calls   []string
}

func (f *fakeFetcher) FetchBudget(_ context.Context, id, year string) (*model.BudgetDocument, error) {
	f.calls = append(f.calls, id+"/"+year)
	b, ok := f.budgets[year]
	if !ok {
		return nil, &RuntimeFetchError{Target: BudgetPath(id, year), Status: 404}
	}
	return b.Clone(), nil
}

func (f *fakeFetcher) LoadPage(context.Context, string) (*model.ClientPayload, error) {
	return nil, errors.New("not implemented")
}

func slabBudget(year string, cats ...model.Category) *model.BudgetDocument {
	return &model.BudgetDocument{
		Year:      year,
		SourceURL: "https://example.org/" + year,
		TaxRules: model.TaxRules{
			Cess: 0.04,
			Brackets: []model.Bracket{
				{Limit: model.Limit(500000), Rate: 0},
				{Limit: model.Limit(1000000), Rate: 0.1},
				{Rate: 0.2},
			},
		},
		Expenditure: model.Expenditure{Categories: cats},
	}
}

func testPayload() *model.ClientPayload {
	return &model.ClientPayload{
		Meta: model.CountryMeta{
			ID: "in", Name: "India", DefaultBudget: "2026-27", DefaultLanguage: "en",
			AvailableLanguages: []string{"en", "hi"},
			AvailableBudgets:   []string{"2026-27", "2025-26", "2024-25"},
		},
		Budget: slabBudget("2026-27",
			model.Category{ID: "a", Percent: 0.6, Label: "Alpha"},
			model.Category{ID: "b", Percent: 0.4, Label: "Beta"},
		),
		Achievements: []model.Achievement{
			{MinAmount: 0, Label: "Taxpayer"},
			{MinAmount: 1000000, Label: "Whale"},
		},
		Strings:         &model.LanguagePack{Categories: map[string]string{"a": "Alpha", "c": "Gamma"}},
		CurrentLanguage: "en",
	}
}

func testFetcher() *fakeFetcher {
	return &fakeFetcher{budgets: map[string]*model.BudgetDocument{
		"2025-26": slabBudget("2025-26",
			model.Category{ID: "a", Percent: 0.5},
			model.Category{ID: "c", Percent: 0.5},
		),
		"2024-25": slabBudget("2024-25",
			model.Category{ID: "a", Percent: 0.4},
			model.Category{ID: "c", Percent: 0.6},
		),
	}}
}

func newTestController(t *testing.T, location string, opts Options) (*Controller, *fakeFetcher) {
	t.Helper()
	f := testFetcher()
	c, err := New(testPayload(), location, f, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, f
}

func TestSubmit_Valid(t *testing.T) {
	c, _ := newTestController(t, "/in/", Options{})

	if err := c.Submit("₹15,00,000"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	s := c.State()
	if s.View != ViewResults {
		t.Errorf("view = %v, want results", s.View)
	}
	if got := s.Location.String(); got != "/in/?salary=1500000" {
		t.Errorf("location = %q", got)
	}
	if s.Last == nil || s.Last.Tax != 156000 {
		t.Fatalf("last = %+v, want tax 156000", s.Last)
	}
	if s.Last.Breakdown[0].ID != "a" || s.Last.Breakdown[0].Amount != 93600 {
		t.Errorf("breakdown[0] = %+v, want a:93600", s.Last.Breakdown[0])
	}
	if len(s.Last.Unlocked) != 1 || s.Last.Unlocked[0].Label != "Taxpayer" {
		t.Errorf("unlocked = %+v", s.Last.Unlocked)
	}
	if s.Last.Level != 21 {
		t.Errorf("level = %d, want 21", s.Last.Level)
	}
}

func TestSubmit_InvalidLeavesState(t *testing.T) {
	c, _ := newTestController(t, "/in/", Options{})
	for _, in := range []string{"", "abc", "0", ".", "0.0"} {
		err := c.Submit(in)
		var iie *InvalidInputError
		if !errors.As(err, &iie) {
			t.Errorf("Submit(%q) error = %v, want *InvalidInputError", in, err)
		}
	}
	s := c.State()
	if s.View != ViewHero || s.Last != nil || s.Location.Query.Get("salary") != "" {
		t.Errorf("state changed after invalid input: %+v", s)
	}
}

func TestSubmit_RejectsSalaryAboveMax(t *testing.T) {
	c, _ := newTestController(t, "/in/", Options{})
	for _, in := range []string{"50000000000000000000", "1000000000000001"} {
		var iie *InvalidInputError
		if err := c.Submit(in); !errors.As(err, &iie) {
			t.Errorf("Submit(%q) error = %v, want *InvalidInputError", in, err)
		}
	}
	if s := c.State(); s.View != ViewHero || s.Last != nil {
		t.Errorf("state changed after oversized salary: view %v", s.View)
	}

	if err := c.Submit("1000000000000000"); err != nil {
		t.Fatalf("Submit(10^15): %v", err)
	}
	if got := c.State().Last.Tax; got <= 0 {
		t.Errorf("tax at 10^15 = %d, want positive", got)
	}
}

func TestSubmit_LeadingNumber(t *testing.T) {
	c, _ := newTestController(t, "/in/", Options{})
	if err := c.Submit("1.5.0"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := c.State().Last.Salary; got != 1.5 {
		t.Errorf("salary = %v, want 1.5", got)
	}
}

func TestBack_ClearsQuery(t *testing.T) {
	c, _ := newTestController(t, "/in/?salary=900000&ref=x", Options{})
	if c.State().View != ViewResults {
		t.Fatalf("initial salary did not open results")
	}
	c.Back()
	s := c.State()
	if s.View != ViewHero {
		t.Errorf("view = %v, want hero", s.View)
	}
	if got := s.Location.String(); got != "/in/?ref=x" {
		t.Errorf("location = %q, want /in/?ref=x", got)
	}
}

func TestInitialSalary(t *testing.T) {
	c, _ := newTestController(t, "/in/?salary=1000000", Options{})
	s := c.State()
	if s.View != ViewResults || s.Last == nil || s.Last.Tax != 52000 {
		t.Fatalf("state = view %v last %+v, want results with tax 52000", s.View, s.Last)
	}
	if s.SalaryInput != "1000000" {
		t.Errorf("salary input = %q", s.SalaryInput)
	}

	c, _ = newTestController(t, "/in/?salary=nope", Options{})
	if c.State().View != ViewHero {
		t.Errorf("invalid salary query opened results")
	}
}

func TestYearSwitch_LastSelectionWins(t *testing.T) {
	c, f := newTestController(t, "/in/", Options{})

	first, ok := c.BeginYearSwitch("2025-26")
	if !ok {
		t.Fatal("first switch reported no-op")
	}
	second, ok := c.BeginYearSwitch("2024-25")
	if !ok {
		t.Fatal("second switch reported no-op")
	}

	docB, errB := c.Fetch(context.Background(), second)
	if err := c.CompleteYearSwitch(second, docB, errB); err != nil {
		t.Fatalf("complete second: %v", err)
	}
	docA, errA := c.Fetch(context.Background(), first)
	if err := c.CompleteYearSwitch(first, docA, errA); !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("complete first error = %v, want ErrStaleResponse", err)
	}

	if got := c.State().Budget.Year; got != "2024-25" {
		t.Errorf("active year = %s, want 2024-25", got)
	}
	if len(f.calls) != 2 {
		t.Errorf("fetches = %v, want 2 without trends", f.calls)
	}
}

func TestYearSwitch_BackToActiveCancelsPending(t *testing.T) {
	c, _ := newTestController(t, "/in/", Options{})

	pending, _ := c.BeginYearSwitch("2025-26")
	if _, ok := c.BeginYearSwitch("2026-27"); ok {
		t.Fatal("switch to active year should be a no-op")
	}
	doc, err := c.Fetch(context.Background(), pending)
	if err := c.CompleteYearSwitch(pending, doc, err); !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("error = %v, want ErrStaleResponse", err)
	}
	if got := c.State().Budget.Year; got != "2026-27" {
		t.Errorf("active year = %s, want 2026-27", got)
	}
}

func TestYearSwitch_FailureKeepsBudget(t *testing.T) {
	c, _ := newTestController(t, "/in/", Options{})
	before := c.State().Budget

	err := c.SwitchYear(context.Background(), "1999-00")
	var rfe *RuntimeFetchError
	if !errors.As(err, &rfe) || rfe.Status != 404 {
		t.Fatalf("error = %v, want 404 *RuntimeFetchError", err)
	}
	if c.State().Budget != before {
		t.Error("budget replaced after failed fetch")
	}

	req, _ := c.BeginYearSwitch("2025-26")
	err = c.CompleteYearSwitch(req, nil, errors.New("connection reset"))
	if !errors.As(err, &rfe) {
		t.Errorf("plain error not wrapped: %v", err)
	}
}

func TestYearSwitch_RelocalizesAndRecomputes(t *testing.T) {
	c, _ := newTestController(t, "/in/", Options{})
	if err := c.Submit("1500000"); err != nil {
		t.Fatal(err)
	}
	if err := c.SwitchYear(context.Background(), "2025-26"); err != nil {
		t.Fatalf("SwitchYear: %v", err)
	}
	s := c.State()
	if s.Budget.Year != "2025-26" || s.SourceURL() != "https://example.org/2025-26" {
		t.Errorf("budget = %s source %s", s.Budget.Year, s.SourceURL())
	}
	labels := map[string]string{}
	for _, cat := range s.Budget.Expenditure.Categories {
		labels[cat.ID] = cat.Label
		if cat.Change != nil {
			t.Errorf("trend applied with RecomputeTrends off: %+v", cat)
		}
	}
	if labels["a"] != "Alpha" || labels["c"] != "Gamma" {
		t.Errorf("labels = %v", labels)
	}
	if s.Last == nil || len(s.Last.Breakdown) != 2 || s.Last.Breakdown[0].Amount != 78000 {
		t.Errorf("recomputed breakdown = %+v", s.Last)
	}
	if s.View != ViewResults {
		t.Errorf("view = %v", s.View)
	}
}

func TestYearSwitch_RecomputesTrends(t *testing.T) {
	c, f := newTestController(t, "/in/", Options{RecomputeTrends: true})
	if err := c.SwitchYear(context.Background(), "2025-26"); err != nil {
		t.Fatalf("SwitchYear: %v", err)
	}
	for _, cat := range c.State().Budget.Expenditure.Categories {
		if cat.Change == nil {
			t.Fatalf("category %s has no change", cat.ID)
		}
		if cat.ID == "a" && *cat.Change != 25 {
			t.Errorf("a change = %v, want 25", *cat.Change)
		}
	}
	if len(f.calls) != 2 || f.calls[1] != "in/2024-25" {
		t.Errorf("fetches = %v", f.calls)
	}

	if err := c.SwitchYear(context.Background(), "2024-25"); err != nil {
		t.Fatalf("SwitchYear without predecessor: %v", err)
	}
	for _, cat := range c.State().Budget.Expenditure.Categories {
		if cat.Change != nil {
			t.Errorf("change without predecessor: %+v", cat)
		}
	}
}

func TestLanguageAndCountryURL(t *testing.T) {
	c, _ := newTestController(t, "/in/", Options{})
	if _, ok := c.LanguageURL("en"); ok {
		t.Error("same language should not navigate")
	}
	c.SetSalaryInput("12,00,000")
	if got, _ := c.LanguageURL("hi"); got != "/in/hi/?salary=1200000" {
		t.Errorf("LanguageURL(hi) = %q", got)
	}
	c.SetSalaryInput("")
	if got, _ := c.LanguageURL("hi"); got != "/in/hi/" {
		t.Errorf("LanguageURL(hi) without salary = %q", got)
	}
	if got := c.CountryURL("us"); got != "/us/" {
		t.Errorf("CountryURL = %q", got)
	}
}

func TestState_Years(t *testing.T) {
	c, _ := newTestController(t, "/in/", Options{})
	if got := c.State().Years(); len(got) != 3 {
		t.Errorf("Years = %v", got)
	}
}
