package pipeline

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/taxgame/internal/logging"
	"github.com/theirongolddev/taxgame/internal/model"
	"github.com/theirongolddev/taxgame/internal/render"
	"github.com/theirongolddev/taxgame/internal/source"
)

// Country is one enabled country with everything its pages share.
type Country struct {
	Meta         model.CountryMeta
	Budget       *model.BudgetDocument // trends applied when available
	Achievements []model.Achievement
	TrendYear    string // predecessor used for trends, empty when none
}

// Site is the loaded, validated input of one build.
type Site struct {
	Countries []*Country
	Global    []model.GlobalCountry
	DefaultID string // empty when no root page will be generated
}

// Skip records a unit of work dropped because of a data error.
type Skip struct {
	CountryID string
	Lang      string // empty when the whole country was skipped
	Err       error
}

// Page is one rendered document before it is written.
type Page struct {
	CountryID string
	Lang      string
	Path      string // slash-separated, relative to the dist dir
	URL       string
	Fields    render.PageFields
	Payload   model.ClientPayload
}

// LoadSite reads config.json and every enabled country. A missing or broken
// config is fatal. Broken countries are returned as skips.
func LoadSite(src *source.Dir) (*Site, []Skip, error) {
	cfg, err := src.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	site := &Site{}
	var skips []Skip
	defaults := 0
	for _, cc := range cfg.Enabled() {
		if cc.Default {
			defaults++
			if defaults == 1 {
				site.DefaultID = cc.ID
			}
		}

		c, err := LoadCountry(src, cc.ID, "")
		if err != nil {
			logging.Log.WithField("country", cc.ID).Warnf("skipping country: %v", err)
			skips = append(skips, Skip{CountryID: cc.ID, Err: err})
			if c != nil {
				site.Global = append(site.Global, globalEntry(c.Meta))
			}
			if cc.ID == site.DefaultID {
				site.DefaultID = ""
			}
			continue
		}
		site.Countries = append(site.Countries, c)
		site.Global = append(site.Global, globalEntry(c.Meta))
	}

	switch {
	case defaults > 1:
		logging.Log.Warnf("%d enabled countries are marked default; using %q", defaults, site.DefaultID)
	case defaults == 0:
		logging.Log.Warn("no enabled country is marked default; no root page will be generated")
	}
	return site, skips, nil
}

func globalEntry(m model.CountryMeta) model.GlobalCountry {
	return model.GlobalCountry{ID: m.ID, Name: m.Name, Flag: m.Flag}
}

// LoadCountry loads a country's meta, the budget for year (the meta's
// default when empty) with trends applied, and its achievements. When the
// meta loaded but a later document failed, the partial Country is returned
// alongside the error.
func LoadCountry(src *source.Dir, id, year string) (*Country, error) {
	meta, err := src.LoadMeta(id)
	if err != nil {
		return nil, err
	}
	meta.ID = id
	c := &Country{Meta: meta}
	if year == "" {
		year = meta.DefaultBudget
	}

	budget, err := src.LoadBudget(id, year)
	if err != nil {
		return c, err
	}
	c.Achievements, err = src.LoadAchievements(id)
	if err != nil {
		return c, err
	}

	prev, prevYear, err := PreviousBudget(year, func(y string) (*model.BudgetDocument, error) {
		return src.LoadBudgetCategories(id, y)
	})
	if err != nil {
		logging.Log.WithFields(logrus.Fields{"country": id, "year": year}).Infof("no trends: %v", err)
		c.Budget = budget
		return c, nil
	}
	logging.Log.WithFields(logrus.Fields{"country": id, "year": year}).Debugf("trends against %s", prevYear)
	c.Budget = WithTrends(budget, prev)
	c.TrendYear = prevYear
	return c, nil
}

// PageURL returns the canonical URL of a country page. The default language
// lives at the country root.
func PageURL(baseURL, countryID, lang, defaultLang string) string {
	u := strings.TrimRight(baseURL, "/") + "/" + countryID + "/"
	if lang != defaultLang {
		u += lang + "/"
	}
	return u
}

// RootURL returns the site's homepage URL.
func RootURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/"
}

// ComposePage assembles the payload and fields for one country/language.
func ComposePage(c *Country, global []model.GlobalCountry, lang string, pack *model.LanguagePack, baseURL string) Page {
	meta := c.Meta
	budget := Localize(c.Budget, pack)

	path := meta.ID + "/index.html"
	if lang != meta.DefaultLanguage {
		path = meta.ID + "/" + lang + "/index.html"
	}
	url := PageURL(baseURL, meta.ID, lang, meta.DefaultLanguage)

	if pack == nil {
		pack = &model.LanguagePack{}
	}
	return Page{
		CountryID: meta.ID,
		Lang:      lang,
		Path:      path,
		URL:       url,
		Fields: render.PageFields{
			Lang:             lang,
			CountryID:        meta.ID,
			Title:            pack.Headline + " | " + meta.Name,
			Description:      pack.Subtext,
			Headline:         pack.Headline,
			Subtext:          pack.Subtext + " • " + budget.Year,
			SalaryInputLabel: pack.SalaryInputLabel,
			CTA:              pack.CTA,
			CurrencySymbol:   meta.CurrencySymbol,
			Disclaimer:       pack.Disclaimer,
			SubheadlineBlink: pack.SubheadlineBlink,
			CanonicalURL:     url,
		},
		Payload: model.ClientPayload{
			Meta:            meta,
			Budget:          budget,
			Achievements:    c.Achievements,
			GlobalCountries: global,
			Strings:         pack,
			CurrentLanguage: lang,
		},
	}
}

// RootPage derives the homepage from a country page.
func RootPage(p Page, baseURL string) Page {
	root := p
	root.Path = "index.html"
	root.URL = RootURL(baseURL)
	root.Fields.CanonicalURL = root.URL
	root.Fields.IsRoot = true
	return root
}
