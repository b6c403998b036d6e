package pipeline

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/taxgame/internal/model"
)

// ErrTrendUnavailable means no predecessor budget could be used for trends.
var ErrTrendUnavailable = errors.New("trend unavailable")

// BudgetLoader fetches a budget document by year key.
type BudgetLoader func(year string) (*model.BudgetDocument, error)

// WithTrends returns a copy of current where each category shared with
// previous carries its percent change, rounded to one decimal. Categories
// that are new, or whose previous share was zero, get no change.
func WithTrends(current, previous *model.BudgetDocument) *model.BudgetDocument {
	if current == nil || previous == nil || previous.Expenditure.Categories == nil {
		return current
	}

	prev := make(map[string]float64, len(previous.Expenditure.Categories))
	for _, c := range previous.Expenditure.Categories {
		prev[c.ID] = c.Percent
	}

	out := current.Clone()
	hundred := decimal.NewFromInt(100)
	for i := range out.Expenditure.Categories {
		c := &out.Expenditure.Categories[i]
		p, ok := prev[c.ID]
		if !ok || p == 0 {
			continue
		}
		pd := decimal.NewFromFloat(p)
		change, _ := decimal.NewFromFloat(c.Percent).Sub(pd).Div(pd).Mul(hundred).Round(1).Float64()
		c.Change = &change
	}
	return out
}

// PreviousBudget loads the document for the fiscal year before year. Any
// failure is reported as ErrTrendUnavailable wrapping the cause.
func PreviousBudget(year string, load BudgetLoader) (*model.BudgetDocument, string, error) {
	key, err := model.ParseBudgetKey(year)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrTrendUnavailable, err)
	}
	prevYear := key.Prev().String()
	doc, err := load(prevYear)
	if err != nil {
		return nil, prevYear, fmt.Errorf("%w: %w", ErrTrendUnavailable, err)
	}
	return doc, prevYear, nil
}
