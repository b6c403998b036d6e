package tax

import (
	"fmt"
	"math"

	"github.com/theirongolddev/taxgame/internal/model"
)

// ConfigurationError reports a tax schedule that cannot be evaluated safely.
type ConfigurationError struct {
	Bracket int // -1 when the problem is not tied to one bracket
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Bracket < 0 {
		return "invalid tax rules: " + e.Reason
	}
	return fmt.Sprintf("invalid tax rules: bracket %d: %s", e.Bracket, e.Reason)
}

// ValidateRules checks that brackets ascend strictly, that only the final
// bracket is unbounded, and that rates, deduction and cess are in range.
func ValidateRules(rules model.TaxRules) error {
	if len(rules.Brackets) == 0 {
		return &ConfigurationError{Bracket: -1, Reason: "no brackets"}
	}
	if bad(rules.StandardDeduction) || rules.StandardDeduction < 0 {
		return &ConfigurationError{Bracket: -1, Reason: "standard deduction must be a non-negative number"}
	}
	if bad(rules.Cess) || rules.Cess < 0 {
		return &ConfigurationError{Bracket: -1, Reason: "cess must be a non-negative number"}
	}

	last := len(rules.Brackets) - 1
	prev := math.Inf(-1)
	for i, b := range rules.Brackets {
		if bad(b.Rate) || b.Rate < 0 || b.Rate > 1 {
			return &ConfigurationError{Bracket: i, Reason: fmt.Sprintf("rate %v outside [0,1]", b.Rate)}
		}
		if b.Limit == nil {
			if i != last {
				return &ConfigurationError{Bracket: i, Reason: "unbounded limit before the final bracket"}
			}
			continue
		}
		if i == last {
			return &ConfigurationError{Bracket: i, Reason: "final bracket must have a null limit"}
		}
		if bad(*b.Limit) || *b.Limit <= prev || *b.Limit <= 0 {
			return &ConfigurationError{Bracket: i, Reason: fmt.Sprintf("limit %v does not ascend", *b.Limit)}
		}
		prev = *b.Limit
	}
	return nil
}

func bad(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}
