// Package tax computes progressive income tax and splits the result across
// expenditure categories.
package tax

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/taxgame/internal/model"
)

// MaxSalary is the largest salary accepted from user input. Tax on it stays
// well inside int64 for any rate up to 100% plus cess.
const MaxSalary = 1e15

var maxTax = decimal.NewFromInt(math.MaxInt64)

// CalculateTax returns the total tax owed on salary under rules, rounded to
// the nearest whole currency unit. Totals beyond int64 saturate at
// math.MaxInt64.
func CalculateTax(salary float64, rules model.TaxRules) int64 {
	taxable := decimal.NewFromFloat(salary).Sub(decimal.NewFromFloat(rules.StandardDeduction))
	if !taxable.IsPositive() {
		return 0
	}

	total := decimal.Zero
	previous := decimal.Zero
	for _, b := range rules.Brackets {
		if taxable.LessThanOrEqual(previous) {
			break
		}
		upper := taxable
		if b.Limit != nil {
			upper = decimal.Min(taxable, decimal.NewFromFloat(*b.Limit))
		}
		if slab := upper.Sub(previous); slab.IsPositive() {
			total = total.Add(slab.Mul(decimal.NewFromFloat(b.Rate)))
		}
		if b.Limit == nil {
			break
		}
		previous = decimal.NewFromFloat(*b.Limit)
	}

	if rules.Cess > 0 {
		total = total.Add(total.Mul(decimal.NewFromFloat(rules.Cess)))
	}
	total = total.Round(0)
	if total.GreaterThan(maxTax) {
		return math.MaxInt64
	}
	return total.IntPart()
}

// SplitTax distributes totalTax across categories by their percent share.
// Entries are ordered by amount, largest first; equal amounts keep their
// authored order.
func SplitTax(totalTax int64, categories []model.Category) []model.CategoryBreakdownEntry {
	t := decimal.NewFromInt(totalTax)
	out := make([]model.CategoryBreakdownEntry, len(categories))
	for i, c := range categories {
		label := c.Label
		if label == "" {
			label = c.ID
		}
		out[i] = model.CategoryBreakdownEntry{
			ID:      c.ID,
			Percent: c.Percent,
			Icon:    c.Icon,
			Label:   label,
			Change:  c.Change,
			Amount:  t.Mul(decimal.NewFromFloat(c.Percent)).Round(0).IntPart(),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount > out[j].Amount
	})
	return out
}

// CitizenLevel maps a tax total onto the 1..99 level scale shown next to
// the breakdown.
func CitizenLevel(totalTax int64) int {
	if totalTax <= 0 {
		return 1
	}
	// Log10 is not exact at powers of ten.
	level := int(math.Floor(math.Log10(float64(totalTax))*10+1e-9)) - 30
	switch {
	case level < 1:
		return 1
	case level > 99:
		return 99
	}
	return level
}

// Unlocked returns the achievements whose threshold totalTax meets, in
// authored order.
func Unlocked(totalTax int64, achievements []model.Achievement) []model.Achievement {
	var out []model.Achievement
	for _, a := range achievements {
		if a.MinAmount <= float64(totalTax) {
			out = append(out, a)
		}
	}
	return out
}
