package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParse_InjectionCount(t *testing.T) {
	if _, err := Parse([]byte("<p>{{title}}</p>")); !errors.Is(err, ErrNoInjection) {
		t.Errorf("no injection: error = %v, want ErrNoInjection", err)
	}
	if _, err := Parse([]byte("{{DATA_INJECTION}}{{DATA_INJECTION}}")); err == nil {
		t.Error("duplicate injection accepted")
	}
}

func TestExecute_UnknownFieldsRenderEmpty(t *testing.T) {
	tmpl, err := Parse([]byte(`<h1>{{headline}}</h1><p>{{nope}}</p><script>{{DATA_INJECTION}}</script>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, FieldMap{"headline": "Hi"}, map[string]int{"a": 1}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := `<h1>Hi</h1><p></p><script>{"a":1}</script>`
	if got := buf.String(); got != want {
		t.Errorf("Execute = %q, want %q", got, want)
	}
}

func TestExecute_PayloadCannotCloseScript(t *testing.T) {
	tmpl, err := Parse([]byte(`<script>{{DATA_INJECTION}}</script>`))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	payload := map[string]string{"x": "</script><script>alert(1)</script>\u2028"}
	if err := tmpl.Execute(&buf, nil, payload); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Count(out, "</script>") != 1 {
		t.Errorf("payload closed the script element: %s", out)
	}
	if strings.Contains(out, "\u2028") {
		t.Errorf("U+2028 not escaped: %q", out)
	}
}

func TestExecute_FieldsAreEscaped(t *testing.T) {
	tmpl, err := Parse([]byte(`<title>{{title}}</title>{{DATA_INJECTION}}`))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, PageFields{Title: `Tax & "you" <3`}, nil); err != nil {
		t.Fatal(err)
	}
	want := `<title>Tax &amp; &#34;you&#34; &lt;3</title>null`
	if got := buf.String(); got != want {
		t.Errorf("Execute = %q, want %q", got, want)
	}
}

func TestDefault_HasPageFields(t *testing.T) {
	names := Default().FieldNames()
	f := PageFields{}
	for _, n := range names {
		if _, ok := f.Field(n); !ok {
			t.Errorf("embedded template uses %q, which PageFields does not provide", n)
		}
	}
}

func TestSitemap(t *testing.T) {
	var buf bytes.Buffer
	if err := Sitemap(&buf, []string{"https://x.dev/", "https://x.dev/in/"}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Errorf("missing XML header: %s", out)
	}
	root := strings.Index(out, "<loc>https://x.dev/</loc>")
	in := strings.Index(out, "<loc>https://x.dev/in/</loc>")
	if root < 0 || in < 0 || root > in {
		t.Errorf("sitemap order wrong: %s", out)
	}
	if strings.Count(out, "<changefreq>weekly</changefreq>") != 2 {
		t.Errorf("changefreq count wrong: %s", out)
	}
}
