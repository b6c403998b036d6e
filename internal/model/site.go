// Package model defines the site data documents shared by the build pipeline
// and the runtime controller.
package model

import "encoding/json"

// SiteConfig is the top-level config.json document.
type SiteConfig struct {
	Countries []CountryConfig `json:"countries"`
}

// CountryConfig is one entry in config.json.
type CountryConfig struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
	Default bool   `json:"default"`
}

// Enabled returns the enabled countries in config order.
func (c SiteConfig) Enabled() []CountryConfig {
	var out []CountryConfig
	for _, cc := range c.Countries {
		if cc.Enabled {
			out = append(out, cc)
		}
	}
	return out
}

// NumberFormat selects the compact number notation for a country.
type NumberFormat struct {
	System string `json:"system"` // "indian" or "international"
}

// CountryMeta is countries/<id>/meta.json.
type CountryMeta struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Flag               string        `json:"flag"`
	Currency           string        `json:"currency"`
	CurrencySymbol     string        `json:"currencySymbol"`
	Locale             string        `json:"locale,omitempty"`
	NumberFormat       *NumberFormat `json:"numberFormat,omitempty"`
	Background         string        `json:"background"`
	DefaultBudget      string        `json:"defaultBudget"`
	DefaultLanguage    string        `json:"defaultLanguage"`
	AvailableLanguages []string      `json:"availableLanguages"`
	AvailableBudgets   []string      `json:"availableBudgets,omitempty"`
}

// Budgets returns the selectable budget years, falling back to the active one.
func (m CountryMeta) Budgets(active string) []string {
	if len(m.AvailableBudgets) > 0 {
		return m.AvailableBudgets
	}
	return []string{active}
}

// LocaleOrDefault returns the meta locale or en-US.
func (m CountryMeta) LocaleOrDefault() string {
	if m.Locale != "" {
		return m.Locale
	}
	return "en-US"
}

// Achievement is one entry of countries/<id>/achievements.json.
type Achievement struct {
	MinAmount   float64 `json:"minAmount"`
	Icon        string  `json:"icon"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
}

// GlobalCountry is the short country record used by the country switcher.
type GlobalCountry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Flag string `json:"flag"`
}

// ClientPayload is embedded once per generated page and is the contract
// between build time and runtime.
type ClientPayload struct {
	Meta            CountryMeta     `json:"meta"`
	Budget          *BudgetDocument `json:"budget"`
	Achievements    []Achievement   `json:"achievements"`
	GlobalCountries []GlobalCountry `json:"globalCountries"`
	Strings         *LanguagePack   `json:"strings"`
	CurrentLanguage string          `json:"currentLanguage"`
}

// Clone returns a deep copy of the payload via its JSON form.
func (p ClientPayload) Clone() (ClientPayload, error) {
	var out ClientPayload
	data, err := json.Marshal(p)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}
