package game

import (
	"errors"
	"fmt"
)

// ErrStaleResponse is returned when a year switch completes after a newer
// one was requested.
var ErrStaleResponse = errors.New("stale year switch response")

// InvalidInputError rejects a salary that is not a positive number or is
// above tax.MaxSalary.
type InvalidInputError struct {
	Input string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid salary %q: want a positive number up to 10^15", e.Input)
}

// RuntimeFetchError reports a budget or page that could not be fetched.
type RuntimeFetchError struct {
	Target string // URL or file path
	Status int    // HTTP status, 0 when not applicable
	Err    error
}

func (e *RuntimeFetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s: unexpected status %d", e.Target, e.Status)
	}
	return fmt.Sprintf("fetching %s: %v", e.Target, e.Err)
}

func (e *RuntimeFetchError) Unwrap() error { return e.Err }
