package pipeline

import "github.com/theirongolddev/taxgame/internal/model"

// Localize returns a copy of budget whose categories carry labels from pack.
// Untranslated categories are labelled with their id.
func Localize(budget *model.BudgetDocument, pack *model.LanguagePack) *model.BudgetDocument {
	out := budget.Clone()
	if out == nil {
		return nil
	}
	for i := range out.Expenditure.Categories {
		c := &out.Expenditure.Categories[i]
		c.Label = pack.Label(c.ID)
	}
	return out
}
