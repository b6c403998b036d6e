// Package source loads the site's JSON documents from a data directory.
package source

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/language"

	"github.com/theirongolddev/taxgame/internal/model"
	"github.com/theirongolddev/taxgame/internal/tax"
)

// Dir is a site data directory laid out as config.json, countries/<id>/...
// and languages/<lang>.json.
type Dir struct {
	Root string
}

// New returns a Dir rooted at root.
func New(root string) *Dir {
	return &Dir{Root: root}
}

// ConfigPath returns the path of config.json.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.Root, "config.json")
}

// MetaPath returns the path of a country's meta.json.
func (d *Dir) MetaPath(id string) string {
	return filepath.Join(d.Root, "countries", id, "meta.json")
}

// BudgetPath returns the path of a country's budget document for year.
func (d *Dir) BudgetPath(id, year string) string {
	return filepath.Join(d.Root, "countries", id, "budgets", year+".json")
}

// AchievementsPath returns the path of a country's achievements.json.
func (d *Dir) AchievementsPath(id string) string {
	return filepath.Join(d.Root, "countries", id, "achievements.json")
}

// LanguagePath returns the path of a language pack.
func (d *Dir) LanguagePath(lang string) string {
	return filepath.Join(d.Root, "languages", lang+".json")
}

// LoadConfig reads config.json. Any failure is fatal to a build.
func (d *Dir) LoadConfig() (model.SiteConfig, error) {
	var cfg model.SiteConfig
	path := d.ConfigPath()
	if err := readJSON(path, &cfg); err != nil {
		return cfg, &FatalConfigError{Path: path, Err: err}
	}
	for i, c := range cfg.Countries {
		if c.ID == "" {
			return cfg, &FatalConfigError{Path: path, Err: errors.Errorf("country at index %d missing id", i)}
		}
	}
	return cfg, nil
}

// LoadMeta reads and validates a country's meta.json.
func (d *Dir) LoadMeta(id string) (model.CountryMeta, error) {
	var meta model.CountryMeta
	path := d.MetaPath(id)
	if err := readJSON(path, &meta); err != nil {
		return meta, &SkippableDataError{Kind: KindMeta, Path: path, Err: err}
	}
	if meta.ID == "" {
		meta.ID = id
	}
	if err := validateMeta(meta); err != nil {
		return meta, &SkippableDataError{Kind: KindMeta, Path: path, Err: errors.Wrap(err, "meta validation failed")}
	}
	if meta.DefaultLanguage == "" {
		meta.DefaultLanguage = meta.AvailableLanguages[0]
	}
	return meta, nil
}

func validateMeta(m model.CountryMeta) error {
	if m.Name == "" {
		return errors.New("name is required")
	}
	if m.DefaultBudget == "" {
		return errors.New("defaultBudget is required")
	}
	if len(m.AvailableLanguages) == 0 {
		return errors.New("availableLanguages is empty")
	}
	if m.DefaultLanguage != "" && !slices.Contains(m.AvailableLanguages, m.DefaultLanguage) {
		return errors.Errorf("defaultLanguage %q is not in availableLanguages %v", m.DefaultLanguage, m.AvailableLanguages)
	}
	for _, lang := range m.AvailableLanguages {
		if _, err := language.Parse(lang); err != nil {
			return errors.Wrapf(err, "invalid language code %q", lang)
		}
	}
	return nil
}

// LoadBudget reads a budget document and validates its tax rules.
func (d *Dir) LoadBudget(id, year string) (*model.BudgetDocument, error) {
	return d.loadBudget(id, year, DecodeBudget)
}

// LoadBudgetCategories reads a budget document without validating its tax
// rules, for callers that only compare expenditure categories.
func (d *Dir) LoadBudgetCategories(id, year string) (*model.BudgetDocument, error) {
	return d.loadBudget(id, year, decodeBudgetJSON)
}

func (d *Dir) loadBudget(id, year string, decode func([]byte) (*model.BudgetDocument, error)) (*model.BudgetDocument, error) {
	path := d.BudgetPath(id, year)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SkippableDataError{Kind: KindBudget, Path: path, Err: err}
	}
	doc, err := decode(data)
	if err != nil {
		return nil, &SkippableDataError{Kind: KindBudget, Path: path, Err: err}
	}
	return doc, nil
}

// DecodeBudget parses a budget document and validates its tax rules. Errors
// do not name the document; callers wrap them with its path or URL.
func DecodeBudget(data []byte) (*model.BudgetDocument, error) {
	doc, err := decodeBudgetJSON(data)
	if err != nil {
		return nil, err
	}
	if err := tax.ValidateRules(doc.TaxRules); err != nil {
		return nil, errors.Wrap(err, "invalid tax rules")
	}
	return doc, nil
}

func decodeBudgetJSON(data []byte) (*model.BudgetDocument, error) {
	var doc model.BudgetDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse budget JSON")
	}
	return &doc, nil
}

// LoadAchievements reads a country's achievement thresholds.
func (d *Dir) LoadAchievements(id string) ([]model.Achievement, error) {
	var list []model.Achievement
	path := d.AchievementsPath(id)
	if err := readJSON(path, &list); err != nil {
		return nil, &SkippableDataError{Kind: KindAchievements, Path: path, Err: err}
	}
	if list == nil {
		list = []model.Achievement{}
	}
	return list, nil
}

// LoadLanguage reads a language pack.
func (d *Dir) LoadLanguage(lang string) (*model.LanguagePack, error) {
	path := d.LanguagePath(lang)
	if _, err := language.Parse(lang); err != nil {
		return nil, &SkippableDataError{Kind: KindLanguage, Path: path, Err: errors.Wrapf(err, "invalid language code %q", lang)}
	}
	var pack model.LanguagePack
	if err := readJSON(path, &pack); err != nil {
		return nil, &SkippableDataError{Kind: KindLanguage, Path: path, Err: err}
	}
	return &pack, nil
}

// Budgets lists the budget years present on disk for a country, sorted.
func (d *Dir) Budgets(id string) ([]string, error) {
	dir := filepath.Join(d.Root, "countries", id, "budgets")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list budgets: %s", dir)
	}
	var years []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		years = append(years, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(years)
	return years, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read file: %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "failed to parse JSON: %s", path)
	}
	return nil
}
