// Package render turns page payloads into HTML through a typed placeholder
// template, and writes the sitemap.
package render

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
)

// InjectionToken is replaced by the JSON-encoded page payload.
const InjectionToken = "DATA_INJECTION"

//go:embed templates/index.html
var defaultTemplate []byte

var tokenRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

// ErrNoInjection is returned by Parse when the template has no payload slot.
var ErrNoInjection = errors.New("template has no {{" + InjectionToken + "}} token")

// Fields supplies values for named placeholders.
type Fields interface {
	Field(name string) (string, bool)
}

// FieldMap is a Fields backed by a plain map.
type FieldMap map[string]string

// Field implements Fields.
func (m FieldMap) Field(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

type segKind int

const (
	segLiteral segKind = iota
	segField
	segInjection
)

type segment struct {
	kind segKind
	text string // literal text or field name
}

// Template is a parsed page template.
type Template struct {
	segs []segment
}

// Default returns the template embedded in the binary.
func Default() *Template {
	t, err := Parse(defaultTemplate)
	if err != nil {
		panic("render: embedded template: " + err.Error())
	}
	return t
}

// Parse splits src into literal, field and injection segments. The
// injection token must appear exactly once.
func Parse(src []byte) (*Template, error) {
	t := &Template{}
	injections := 0
	last := 0
	for _, m := range tokenRe.FindAllSubmatchIndex(src, -1) {
		if m[0] > last {
			t.segs = append(t.segs, segment{kind: segLiteral, text: string(src[last:m[0]])})
		}
		name := string(src[m[2]:m[3]])
		if name == InjectionToken {
			injections++
			t.segs = append(t.segs, segment{kind: segInjection})
		} else {
			t.segs = append(t.segs, segment{kind: segField, text: name})
		}
		last = m[1]
	}
	if last < len(src) {
		t.segs = append(t.segs, segment{kind: segLiteral, text: string(src[last:])})
	}

	switch {
	case injections == 0:
		return nil, ErrNoInjection
	case injections > 1:
		return nil, fmt.Errorf("template has %d {{%s}} tokens, want 1", injections, InjectionToken)
	}
	return t, nil
}

// FieldNames lists the named placeholders in document order, without
// duplicates.
func (t *Template) FieldNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, s := range t.segs {
		if s.kind == segField && !seen[s.text] {
			seen[s.text] = true
			names = append(names, s.text)
		}
	}
	return names
}

// Execute writes the document. Field values are HTML-escaped and unknown
// fields render empty. The payload is encoded with encoding/json, which
// escapes <, > and & so it cannot terminate the surrounding script element.
func (t *Template) Execute(w io.Writer, fields Fields, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	var buf bytes.Buffer
	for _, s := range t.segs {
		switch s.kind {
		case segLiteral:
			buf.WriteString(s.text)
		case segInjection:
			buf.Write(data)
		case segField:
			if fields == nil {
				continue
			}
			if v, ok := fields.Field(s.text); ok {
				buf.WriteString(html.EscapeString(v))
			}
		}
	}
	_, err = w.Write(buf.Bytes())
	return err
}
