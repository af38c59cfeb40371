package dom

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Properties propagated from parent to child when the child has no explicit
// value, approximating computed-style inheritance for static captures.
var inheritedProps = []string{
	"color", "font-family", "font-size", "line-height",
	"font-weight", "letter-spacing",
}

var (
	keyframesRe = regexp.MustCompile(`@keyframes\s+([\w-]+)`)
	mediaRe     = regexp.MustCompile(`@media([^{]+)\{`)
	rootRuleRe  = regexp.MustCompile(`(?s)(?::root|html)\s*\{([^}]*)\}`)
	varDeclRe   = regexp.MustCompile(`(--[\w-]+)\s*:\s*([^;]+)`)
)

// ParseHTML builds a Page from static HTML. Computed styles are approximated
// from inline style attributes, with inheritance propagation for text
// properties, so style-reading detectors behave the same way they do against
// a live capture. <style> elements become accessible stylesheet digests;
// <link rel="stylesheet"> becomes an inaccessible one.
func ParseHTML(r io.Reader, pageURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	p := &Page{URL: pageURL, Title: strings.TrimSpace(doc.Find("title").First().Text())}
	if u, err := url.Parse(pageURL); err == nil {
		p.Hostname = u.Hostname()
		p.Path = u.Path
	}

	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		p.Sheets = append(p.Sheets, parseSheetText(text))
		for _, block := range rootRuleRe.FindAllStringSubmatch(text, -1) {
			for _, decl := range varDeclRe.FindAllStringSubmatch(block[1], -1) {
				if p.RootVars == nil {
					p.RootVars = map[string]string{}
				}
				p.RootVars[decl[1]] = strings.TrimSpace(decl[2])
			}
		}
	})
	doc.Find(`link[rel="stylesheet"]`).Each(func(_ int, s *goquery.Selection) {
		p.Sheets = append(p.Sheets, StyleSheet{Accessible: false})
	})

	root := doc.Find("body").First()
	if root.Length() == 0 {
		root = doc.Selection.Children().First()
	}
	if root.Length() == 0 || len(root.Nodes) == 0 {
		return p, nil
	}

	var walk func(n *html.Node, parent, depth int)
	walk = func(n *html.Node, parent, depth int) {
		if n.Type != html.ElementNode || len(p.Elements) >= MaxCapturedElements {
			return
		}
		el := Element{
			Index:  len(p.Elements),
			Parent: parent,
			Depth:  depth,
			Tag:    strings.ToLower(n.Data),
			Attrs:  map[string]string{},
		}
		for _, a := range n.Attr {
			el.Attrs[strings.ToLower(a.Key)] = a.Val
		}
		el.ID = el.Attrs["id"]
		el.Classes = strings.Fields(el.Attrs["class"])
		el.Style = parseInlineStyle(el.Attrs["style"])
		if parent >= 0 {
			ps := p.Elements[parent].Style
			for _, prop := range inheritedProps {
				if el.Style[prop] == "" && ps[prop] != "" {
					if el.Style == nil {
						el.Style = map[string]string{}
					}
					el.Style[prop] = ps[prop]
				}
			}
			el.Hidden = p.Elements[parent].Hidden
		}
		if el.Style["display"] == "none" {
			el.Hidden = true
		}
		el.Rect = Rect{W: pxInt(el.Style["width"]), H: pxInt(el.Style["height"])}
		el.Text = capText(textContent(n))

		idx := el.Index
		p.Elements = append(p.Elements, el)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, idx, depth+1)
		}
	}
	walk(root.Nodes[0], -1, 0)
	return p, nil
}

func parseSheetText(text string) StyleSheet {
	sheet := StyleSheet{Accessible: true}
	for _, m := range keyframesRe.FindAllStringSubmatch(text, -1) {
		sheet.Keyframes = append(sheet.Keyframes, m[1])
	}
	for _, m := range mediaRe.FindAllStringSubmatch(text, -1) {
		sheet.Media = append(sheet.Media, strings.TrimSpace(m[1]))
	}
	sheet.UsesInherit = strings.Contains(text, "inherit")
	return sheet
}

func parseInlineStyle(s string) map[string]string {
	if s == "" {
		return nil
	}
	style := map[string]string{}
	for _, decl := range strings.Split(s, ";") {
		colon := strings.Index(decl, ":")
		if colon < 0 {
			continue
		}
		prop := strings.ToLower(strings.TrimSpace(decl[:colon]))
		val := strings.TrimSpace(decl[colon+1:])
		if prop != "" && val != "" {
			style[prop] = val
		}
	}
	if len(style) == 0 {
		return nil
	}
	return style
}

func pxInt(v string) int {
	if !strings.HasSuffix(v, "px") {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64)
	if err != nil {
		return 0
	}
	return int(f + 0.5)
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.Data == "script" || c.Data == "style") {
				continue
			}
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func capText(s string) string {
	const max = 80
	if len(s) > max {
		return s[:max]
	}
	return s
}
