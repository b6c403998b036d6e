package source

import (
	"errors"
	"fmt"
	"io/fs"
)

// Document kinds reported by SkippableDataError.
const (
	KindMeta         = "meta"
	KindBudget       = "budget"
	KindAchievements = "achievements"
	KindLanguage     = "language"
)

// FatalConfigError means the site has nothing to generate.
type FatalConfigError struct {
	Path string
	Err  error
}

func (e *FatalConfigError) Error() string {
	return fmt.Sprintf("site config %s: %v", e.Path, e.Err)
}

func (e *FatalConfigError) Unwrap() error { return e.Err }

// SkippableDataError marks a per-country or per-language document that is
// missing or malformed. Only the unit that needed it is dropped.
type SkippableDataError struct {
	Kind string
	Path string
	Err  error
}

func (e *SkippableDataError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *SkippableDataError) Unwrap() error { return e.Err }

// IsNotFound reports whether err comes from a document that does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
