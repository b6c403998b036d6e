package model

import (
	"encoding/json"
	"testing"
)

func TestLanguagePack_PreservesExtraKeys(t *testing.T) {
	src := `{"headline":"Where does it go?","categories":{"health":"Health"},"citizen_rank":"Citizen Rank","achievements":{"title":"Badges"}}`
	var p LanguagePack
	if err := json.Unmarshal([]byte(src), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if p.Headline != "Where does it go?" {
		t.Errorf("Headline = %q", p.Headline)
	}
	if got := p.Text("citizen_rank", "Level"); got != "Citizen Rank" {
		t.Errorf("Text(citizen_rank) = %q, want %q", got, "Citizen Rank")
	}
	if got := p.Text("total_contribution", "Total"); got != "Total" {
		t.Errorf("Text(missing) = %q, want fallback", got)
	}

	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"achievements":{"title":"Badges"},"categories":{"health":"Health"},"citizen_rank":"Citizen Rank","headline":"Where does it go?"}`
	if string(out) != want {
		t.Errorf("Marshal = %s\nwant %s", out, want)
	}
}

func TestLanguagePack_LabelFallback(t *testing.T) {
	p := &LanguagePack{Categories: map[string]string{"a": "Alpha", "b": ""}}
	if got := p.Label("a"); got != "Alpha" {
		t.Errorf("Label(a) = %q", got)
	}
	if got := p.Label("b"); got != "b" {
		t.Errorf("Label(b) = %q, want id", got)
	}
	var nilPack *LanguagePack
	if got := nilPack.Label("z"); got != "z" {
		t.Errorf("nil Label(z) = %q, want z", got)
	}
}

func TestBudgetDocument_CloneIsDeep(t *testing.T) {
	b := &BudgetDocument{
		Year:     "2026-27",
		TaxRules: TaxRules{Brackets: []Bracket{{Limit: Limit(100), Rate: 0}, {Rate: 0.1}}},
		Expenditure: Expenditure{Categories: []Category{
			{ID: "a", Percent: 0.5},
		}},
	}
	c := b.Clone()
	*c.TaxRules.Brackets[0].Limit = 5
	c.Expenditure.Categories[0].Label = "changed"
	if *b.TaxRules.Brackets[0].Limit != 100 {
		t.Errorf("clone shares bracket limit")
	}
	if b.Expenditure.Categories[0].Label != "" {
		t.Errorf("clone shares categories")
	}
}
