package cli

import (
	"strings"
	"testing"

	"github.com/theirongolddev/taxgame/internal/model"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1234567, "1,234,567"},
		{-1500, "-1,500"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	meta := model.CountryMeta{CurrencySymbol: "$", Locale: "en-US"}
	if got := FormatMoney(156000, meta); got != "$156,000" {
		t.Errorf("FormatMoney = %q, want $156,000", got)
	}
	meta.Locale = "not a locale!"
	if got := FormatMoney(-2500, meta); got != "-$2,500" {
		t.Errorf("FormatMoney with bad locale = %q, want -$2,500", got)
	}
}

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		amount int64
		system string
		want   string
	}{
		{25_000_000, "indian", "2.5Cr"},
		{150_000, "indian", "1.5L"},
		{93_600, "indian", "94k"},
		{999, "indian", "999"},
		{2_500_000_000, "international", "2.5B"},
		{1_500_000, "international", "1.5M"},
		{156_000, "international", "156k"},
		{12, "", "12"},
	}
	for _, tt := range tests {
		if got := FormatCompact(tt.amount, tt.system); got != tt.want {
			t.Errorf("FormatCompact(%d, %q) = %q, want %q", tt.amount, tt.system, got, tt.want)
		}
	}
}

func TestCompactSystem(t *testing.T) {
	if got := CompactSystem(model.CountryMeta{}); got != "international" {
		t.Errorf("default = %q", got)
	}
	m := model.CountryMeta{NumberFormat: &model.NumberFormat{System: "indian"}}
	if got := CompactSystem(m); got != "indian" {
		t.Errorf("indian = %q", got)
	}
}

func TestFormatChange(t *testing.T) {
	up, down, zero := 25.0, -3.3, 0.0
	if got := FormatChange(&up); got != "▲ 25.0%" {
		t.Errorf("up = %q", got)
	}
	if got := FormatChange(&down); got != "▼ 3.3%" {
		t.Errorf("down = %q", got)
	}
	if FormatChange(&zero) != "" || FormatChange(nil) != "" {
		t.Error("zero or missing change should render empty")
	}
}

func TestFormatBytes(t *testing.T) {
	if got := FormatBytes(12345); got != "12 kB" {
		t.Errorf("FormatBytes = %q, want 12 kB", got)
	}
}

func TestRenderTable_Alignment(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Category", "Amount"},
		Rows:    [][]string{{"Health", "600"}, SeparatorRow, {"Total", "1,000"}},
	})
	if strings.Count(out, "\n") != 7 {
		t.Errorf("line count = %d, want 7:\n%s", strings.Count(out, "\n"), out)
	}
	if !strings.Contains(out, "Health") || !strings.Contains(out, "1,000") {
		t.Errorf("missing cells:\n%s", out)
	}
}
