package render

// PageFields is the flattened string record rendered into a page template.
type PageFields struct {
	Lang             string
	CountryID        string
	Title            string
	Description      string
	Headline         string
	Subtext          string
	SalaryInputLabel string
	CTA              string
	CurrencySymbol   string
	Disclaimer       string
	SubheadlineBlink string
	CanonicalURL     string
	IsRoot           bool
}

// Field implements Fields using the placeholder names pages are authored with.
func (f PageFields) Field(name string) (string, bool) {
	switch name {
	case "lang":
		return f.Lang, true
	case "countryId":
		return f.CountryID, true
	case "title":
		return f.Title, true
	case "description":
		return f.Description, true
	case "headline":
		return f.Headline, true
	case "subtext":
		return f.Subtext, true
	case "salaryInputLabel":
		return f.SalaryInputLabel, true
	case "cta":
		return f.CTA, true
	case "currencySymbol":
		return f.CurrencySymbol, true
	case "disclaimer":
		return f.Disclaimer, true
	case "subheadline_blink":
		return f.SubheadlineBlink, true
	case "canonicalUrl":
		return f.CanonicalURL, true
	}
	return "", false
}
