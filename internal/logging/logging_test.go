package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLevel(t *testing.T) {
	defer Log.SetLevel(logrus.InfoLevel)

	tests := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"WARN":    logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"":        logrus.InfoLevel,
	}
	for in, want := range tests {
		if err := SetLevel(in); err != nil {
			t.Fatalf("SetLevel(%q): %v", in, err)
		}
		if got := Log.GetLevel(); got != want {
			t.Errorf("SetLevel(%q) level = %v, want %v", in, got, want)
		}
	}
	if err := SetLevel("loud"); err == nil {
		t.Error("SetLevel(loud) accepted")
	}
}
