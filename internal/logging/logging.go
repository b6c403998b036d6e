// Package logging holds the process-wide logger.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is shared by every package. Commands configure it before running.
var Log = logrus.New()

// SetLevel parses level (debug, info, warn, error) and applies it.
func SetLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(logrus.DebugLevel)
	case "", "info":
		Log.SetLevel(logrus.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(logrus.WarnLevel)
	case "error":
		Log.SetLevel(logrus.ErrorLevel)
	default:
		return fmt.Errorf("unknown log level %q", level)
	}
	return nil
}

// Discard silences the logger, for full-screen front ends.
func Discard() {
	Log.SetOutput(io.Discard)
}
