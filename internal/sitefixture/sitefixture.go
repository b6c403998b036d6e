// Package sitefixture writes a small but complete site data tree for tests.
package sitefixture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Files is the default fixture: India (default, en + hi, two budget years)
// and the United States (en only, single-year key with no predecessor).
var Files = map[string]string{
	"config.json": `{"countries":[
  {"id":"in","enabled":true,"default":true},
  {"id":"us","enabled":true,"default":false},
  {"id":"xx","enabled":false,"default":false}
]}`,
	"countries/in/meta.json": `{
  "id":"in","name":"India","flag":"🇮🇳","currency":"INR","currencySymbol":"₹",
  "locale":"en-IN","numberFormat":{"system":"indian"},"background":"#ff9933",
  "defaultBudget":"2026-27","defaultLanguage":"en",
  "availableLanguages":["en","hi"],"availableBudgets":["2026-27","2025-26"]
}`,
	"countries/in/budgets/2026-27.json": `{
  "year":"2026-27","sourceUrl":"https://example.org/in/2026-27",
  "taxRules":{"standardDeduction":0,"cess":0.04,"brackets":[
    {"limit":500000,"rate":0},{"limit":1000000,"rate":0.1},{"limit":null,"rate":0.2}]},
  "expenditure":{"categories":[
    {"id":"defence","percent":0.25,"icon":"🛡️"},
    {"id":"health","percent":0.15,"icon":"🏥"},
    {"id":"space","percent":0.6,"icon":"🚀"}]}
}`,
	"countries/in/budgets/2025-26.json": `{
  "year":"2025-26","sourceUrl":"https://example.org/in/2025-26",
  "taxRules":{"standardDeduction":0,"cess":0,"brackets":[
    {"limit":400000,"rate":0},{"limit":null,"rate":0.1}]},
  "expenditure":{"categories":[
    {"id":"defence","percent":0.2,"icon":"🛡️"},
    {"id":"health","percent":0,"icon":"🏥"},
    {"id":"roads","percent":0.8,"icon":"🛣️"}]}
}`,
	"countries/in/achievements.json": `[
  {"minAmount":0,"icon":"🌱","label":"Taxpayer","description":"Paid any tax"},
  {"minAmount":100000,"icon":"🏅","label":"Builder","description":"Paid over one lakh"}
]`,
	"countries/us/meta.json": `{
  "id":"us","name":"United States","flag":"🇺🇸","currency":"USD","currencySymbol":"$",
  "numberFormat":{"system":"international"},"background":"#3c3b6e",
  "defaultBudget":"2026","defaultLanguage":"en","availableLanguages":["en"]
}`,
	"countries/us/budgets/2026.json": `{
  "year":"2026",
  "taxRules":{"standardDeduction":14600,"brackets":[{"limit":11600,"rate":0.1},{"limit":null,"rate":0.22}]},
  "expenditure":{"categories":[{"id":"health","percent":0.5,"icon":"🏥"},{"id":"defence","percent":0.5,"icon":"🛡️"}]}
}`,
	"countries/us/achievements.json": `[{"minAmount":1,"icon":"🦅","label":"Patriot","description":"Paid tax"}]`,
	"languages/en.json": `{
  "headline":"Where do your taxes go?","subtext":"See your share","cta":"Calculate",
  "disclaimer":"Estimates only","salaryInputLabel":"Annual salary","subheadline_blink":"_",
  "citizen_rank":"Citizen Rank",
  "categories":{"defence":"Defence","health":"Health","roads":"Roads"}
}`,
	"languages/hi.json": `{
  "headline":"आपका कर कहाँ जाता है?","subtext":"अपना हिस्सा देखें","cta":"गणना करें",
  "disclaimer":"केवल अनुमान","salaryInputLabel":"वार्षिक वेतन",
  "categories":{"defence":"रक्षा"}
}`,
	"client/robots.txt": "User-agent: *\nAllow: /\n",
	"client/styles/main.css": "body{margin:0}\n",
	"client/scripts/app.js": "console.log('tax');\n",
}

// Write lays Files out under dir, with the data tree in dir/data and client
// assets in dir/client. It returns the data directory.
func Write(t testing.TB, dir string) string {
	t.Helper()
	for rel, body := range Files {
		path := filepath.Join(dir, "data", rel)
		if strings.HasPrefix(rel, "client/") {
			path = filepath.Join(dir, rel)
		}
		WriteFile(t, path, body)
	}
	return filepath.Join(dir, "data")
}

// WriteFile creates path and its parents with body.
func WriteFile(t testing.TB, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}
