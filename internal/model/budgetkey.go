package model

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	spanKeyRe   = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	singleKeyRe = regexp.MustCompile(`^(\d{4})$`)
)

// BudgetKey identifies a fiscal year. Span keys look like "2026-27", single
// keys like "2026".
type BudgetKey struct {
	Start int
	Span  bool
}

// KeyParseError reports a budget key that matches neither accepted form.
type KeyParseError struct {
	Key string
}

func (e *KeyParseError) Error() string {
	return fmt.Sprintf("malformed budget key %q: want YYYY-YY or YYYY", e.Key)
}

// ParseBudgetKey parses a budget file key.
func ParseBudgetKey(s string) (BudgetKey, error) {
	if m := spanKeyRe.FindStringSubmatch(s); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if end != (start+1)%100 {
			return BudgetKey{}, &KeyParseError{Key: s}
		}
		return BudgetKey{Start: start, Span: true}, nil
	}
	if m := singleKeyRe.FindStringSubmatch(s); m != nil {
		start, _ := strconv.Atoi(m[1])
		return BudgetKey{Start: start}, nil
	}
	return BudgetKey{}, &KeyParseError{Key: s}
}

// Prev returns the preceding fiscal year.
func (k BudgetKey) Prev() BudgetKey {
	return BudgetKey{Start: k.Start - 1, Span: k.Span}
}

// String renders the key in its file-name form.
func (k BudgetKey) String() string {
	if k.Span {
		return fmt.Sprintf("%04d-%02d", k.Start, (k.Start+1)%100)
	}
	return fmt.Sprintf("%04d", k.Start)
}
