package model

import (
	"encoding/json"
	"sort"
)

// LanguagePack is languages/<lang>.json. Keys beyond the typed ones are kept
// so the payload's strings carry everything the document authored.
type LanguagePack struct {
	Headline         string
	Subtext          string
	CTA              string
	Disclaimer       string
	SalaryInputLabel string
	SubheadlineBlink string
	Categories       map[string]string

	extra map[string]json.RawMessage
}

var packKeys = map[string]func(*LanguagePack) *string{
	"headline":          func(p *LanguagePack) *string { return &p.Headline },
	"subtext":           func(p *LanguagePack) *string { return &p.Subtext },
	"cta":               func(p *LanguagePack) *string { return &p.CTA },
	"disclaimer":        func(p *LanguagePack) *string { return &p.Disclaimer },
	"salaryInputLabel":  func(p *LanguagePack) *string { return &p.SalaryInputLabel },
	"subheadline_blink": func(p *LanguagePack) *string { return &p.SubheadlineBlink },
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *LanguagePack) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = LanguagePack{}
	for key, val := range raw {
		if field, ok := packKeys[key]; ok {
			if err := json.Unmarshal(val, field(p)); err != nil {
				return err
			}
			continue
		}
		if key == "categories" {
			if err := json.Unmarshal(val, &p.Categories); err != nil {
				return err
			}
			continue
		}
		if p.extra == nil {
			p.extra = make(map[string]json.RawMessage)
		}
		p.extra[key] = val
	}
	return nil
}

// MarshalJSON implements json.Marshaler. Keys come out sorted.
func (p LanguagePack) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.extra)+len(packKeys)+1)
	for k, v := range p.extra {
		out[k] = v
	}
	for key, field := range packKeys {
		if v := *field(&p); v != "" {
			out[key] = v
		}
	}
	cats := p.Categories
	if cats == nil {
		cats = map[string]string{}
	}
	out["categories"] = cats
	return json.Marshal(out)
}

// Label returns the category label for id, or id itself when untranslated.
func (p *LanguagePack) Label(id string) string {
	if p != nil {
		if l, ok := p.Categories[id]; ok && l != "" {
			return l
		}
	}
	return id
}

// Text returns a string key from the pack, including untyped keys such as
// "citizen_rank". Missing or non-string keys return fallback.
func (p *LanguagePack) Text(key, fallback string) string {
	if p == nil {
		return fallback
	}
	if field, ok := packKeys[key]; ok {
		if v := *field(p); v != "" {
			return v
		}
		return fallback
	}
	raw, ok := p.extra[key]
	if !ok {
		return fallback
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return fallback
	}
	return s
}

// Keys lists every authored key, sorted.
func (p *LanguagePack) Keys() []string {
	if p == nil {
		return nil
	}
	keys := []string{"categories"}
	for key, field := range packKeys {
		if *field(p) != "" {
			keys = append(keys, key)
		}
	}
	for k := range p.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
