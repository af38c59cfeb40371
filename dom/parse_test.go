package dom

import (
	"strings"
	"testing"
)

func TestParseHTML(t *testing.T) {
	doc := `<!DOCTYPE html>
<html>
<head>
	<title>Example Page</title>
	<style>
		:root { --primary: #3366ff; --radius: 8px; }
		@keyframes spin { from { transform: rotate(0); } }
		@media (max-width: 768px) { body { font-size: 14px; } }
		h1 { color: inherit; }
	</style>
	<link rel="stylesheet" href="https://cdn.example.com/app.css">
</head>
<body style="color: #333333; font-family: Inter, sans-serif">
	<header id="top" class="site-header sticky">
		<nav aria-label="Main"><a href="/">Home</a></nav>
	</header>
	<main>
		<p>Hello world</p>
		<div style="display: none"><span>invisible</span></div>
	</main>
</body>
</html>`

	p, err := ParseHTML(strings.NewReader(doc), "https://example.com/docs/intro")
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}

	if p.Hostname != "example.com" {
		t.Errorf("hostname = %q, want example.com", p.Hostname)
	}
	if p.Path != "/docs/intro" {
		t.Errorf("path = %q, want /docs/intro", p.Path)
	}
	if p.Title != "Example Page" {
		t.Errorf("title = %q", p.Title)
	}

	body := p.Body()
	if body == nil || body.Tag != "body" {
		t.Fatalf("Body() = %+v, want body element", body)
	}
	if body.Parent != -1 {
		t.Errorf("body parent = %d, want -1", body.Parent)
	}

	var header, span, anchor *Element
	for i := range p.Elements {
		switch {
		case p.Elements[i].Tag == "header":
			header = &p.Elements[i]
		case p.Elements[i].Tag == "span":
			span = &p.Elements[i]
		case p.Elements[i].Tag == "a":
			anchor = &p.Elements[i]
		}
	}
	if header == nil {
		t.Fatal("header not captured")
	}
	if header.ID != "top" {
		t.Errorf("header id = %q", header.ID)
	}
	if !header.HasClass("sticky") {
		t.Error("header missing class sticky")
	}

	// Text properties propagate down from body's inline style.
	if anchor == nil {
		t.Fatal("anchor not captured")
	}
	if got := anchor.StyleOf("color"); got != "#333333" {
		t.Errorf("anchor inherited color = %q, want #333333", got)
	}
	if got := anchor.StyleOf("font-family"); got != "Inter, sans-serif" {
		t.Errorf("anchor inherited font = %q", got)
	}

	// display:none marks the whole subtree hidden.
	if span == nil {
		t.Fatal("span not captured")
	}
	if !span.Hidden {
		t.Error("span inside display:none div should be hidden")
	}
}

func TestParseHTMLSheets(t *testing.T) {
	doc := `<html><head>
	<style>
		:root { --bg: #ffffff; }
		@keyframes pulse { 50% { opacity: 0.5; } }
		@media (min-width: 1024px) { .wide { display: block; } }
	</style>
	<link rel="stylesheet" href="/ext.css">
	</head><body></body></html>`

	p, err := ParseHTML(strings.NewReader(doc), "https://example.com/")
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}

	if len(p.Sheets) != 2 {
		t.Fatalf("sheets = %d, want 2", len(p.Sheets))
	}
	inline := p.Sheets[0]
	if !inline.Accessible {
		t.Error("inline sheet should be accessible")
	}
	if len(inline.Keyframes) != 1 || inline.Keyframes[0] != "pulse" {
		t.Errorf("keyframes = %v", inline.Keyframes)
	}
	if len(inline.Media) != 1 || inline.Media[0] != "(min-width: 1024px)" {
		t.Errorf("media = %v", inline.Media)
	}
	if p.Sheets[1].Accessible {
		t.Error("linked sheet should be inaccessible")
	}

	if got := p.RootVars["--bg"]; got != "#ffffff" {
		t.Errorf("--bg = %q", got)
	}
}

func TestParseHTMLElementCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < MaxCapturedElements+200; i++ {
		b.WriteString("<div></div>")
	}
	b.WriteString("</body></html>")

	p, err := ParseHTML(strings.NewReader(b.String()), "https://example.com/")
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}
	if len(p.Elements) != MaxCapturedElements {
		t.Errorf("elements = %d, want cap %d", len(p.Elements), MaxCapturedElements)
	}
}

func TestChildrenIndex(t *testing.T) {
	doc := `<html><body><ul><li>a</li><li>b</li><li>c</li></ul></body></html>`
	p, err := ParseHTML(strings.NewReader(doc), "https://example.com/")
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}

	var ul *Element
	for i := range p.Elements {
		if p.Elements[i].Tag == "ul" {
			ul = &p.Elements[i]
		}
	}
	if ul == nil {
		t.Fatal("ul not captured")
	}
	kids := p.Children(ul.Index)
	if len(kids) != 3 {
		t.Fatalf("children = %d, want 3", len(kids))
	}
	for _, k := range kids {
		if p.Elements[k].Tag != "li" {
			t.Errorf("child %d tag = %q", k, p.Elements[k].Tag)
		}
		if got := p.ParentOf(&p.Elements[k]); got == nil || got.Index != ul.Index {
			t.Errorf("ParentOf(li) = %+v", got)
		}
	}
}

func TestBuildSelector(t *testing.T) {
	tests := []struct {
		name string
		el   Element
		want string
	}{
		{
			name: "testid wins over everything",
			el: Element{
				Tag: "button", ID: "save",
				Attrs:   map[string]string{"data-testid": "save-btn", "aria-label": "Save", "role": "button"},
				Classes: []string{"btn", "primary"},
			},
			want: `[data-testid="save-btn"]`,
		},
		{
			name: "id next",
			el: Element{
				Tag: "button", ID: "save",
				Attrs:   map[string]string{"aria-label": "Save"},
				Classes: []string{"btn"},
			},
			want: "#save",
		},
		{
			name: "aria label next",
			el:   Element{Tag: "button", Attrs: map[string]string{"aria-label": "Save", "role": "button"}},
			want: `[aria-label="Save"]`,
		},
		{
			name: "role next",
			el:   Element{Tag: "div", Attrs: map[string]string{"role": "dialog"}},
			want: `[role="dialog"]`,
		},
		{
			name: "tag plus classes",
			el:   Element{Tag: "div", Classes: []string{"card", "card-body", "mt-2"}},
			want: "div.card.card-body",
		},
		{
			name: "bare tag",
			el:   Element{Tag: "footer"},
			want: "footer",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildSelector(&tt.el); got != tt.want {
				t.Errorf("BuildSelector = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEscapeIdent(t *testing.T) {
	if got := EscapeIdent("a:b.c"); got != `a\:b\.c` {
		t.Errorf("EscapeIdent = %q", got)
	}
	if got := EscapeIdent("plain-name_1"); got != "plain-name_1" {
		t.Errorf("EscapeIdent should pass through, got %q", got)
	}
}
