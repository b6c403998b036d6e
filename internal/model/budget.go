package model

// BudgetDocument is countries/<id>/budgets/<year>.json.
type BudgetDocument struct {
	Year        string      `json:"year"`
	SourceURL   string      `json:"sourceUrl,omitempty"`
	TaxRules    TaxRules    `json:"taxRules"`
	Expenditure Expenditure `json:"expenditure"`
}

// TaxRules describes a progressive schedule.
type TaxRules struct {
	StandardDeduction float64   `json:"standardDeduction,omitempty"`
	Cess              float64   `json:"cess,omitempty"`
	Brackets          []Bracket `json:"brackets"`
}

// Bracket is one slab. A nil Limit is unbounded and must be last.
type Bracket struct {
	Limit *float64 `json:"limit"`
	Rate  float64  `json:"rate"`
}

// Expenditure groups the spending categories of a budget.
type Expenditure struct {
	Categories []Category `json:"categories"`
}

// Category is one line of government spending. Label and Change are derived
// by the pipeline and never authored.
type Category struct {
	ID      string   `json:"id"`
	Percent float64  `json:"percent"`
	Icon    string   `json:"icon"`
	Amount  *float64 `json:"amount,omitempty"`
	Label   string   `json:"label,omitempty"`
	Change  *float64 `json:"change,omitempty"`
}

// Clone returns a deep copy of the document.
func (b *BudgetDocument) Clone() *BudgetDocument {
	if b == nil {
		return nil
	}
	out := *b
	out.TaxRules.Brackets = make([]Bracket, len(b.TaxRules.Brackets))
	for i, br := range b.TaxRules.Brackets {
		out.TaxRules.Brackets[i] = Bracket{Limit: clonePtr(br.Limit), Rate: br.Rate}
	}
	if b.Expenditure.Categories != nil {
		out.Expenditure.Categories = make([]Category, len(b.Expenditure.Categories))
		for i, c := range b.Expenditure.Categories {
			c.Amount = clonePtr(c.Amount)
			c.Change = clonePtr(c.Change)
			out.Expenditure.Categories[i] = c
		}
	}
	return &out
}

// Limit is a convenience constructor for a bounded bracket limit.
func Limit(v float64) *float64 {
	return &v
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// CategoryBreakdownEntry is one row of a computed tax split.
type CategoryBreakdownEntry struct {
	ID      string   `json:"id"`
	Percent float64  `json:"percent"`
	Icon    string   `json:"icon"`
	Label   string   `json:"label"`
	Change  *float64 `json:"change,omitempty"`
	Amount  int64    `json:"amount"`
}
