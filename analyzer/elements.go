package analyzer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"paintbrush/dom"
)

// Non-visual tags excluded from element coverage.
var nonVisualTags = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"meta": true, "link": true, "br": true, "wbr": true,
}

var (
	typographyTags = tagSet("h1", "h2", "h3", "h4", "h5", "h6", "p", "span", "strong",
		"em", "b", "i", "u", "mark", "small", "sub", "sup", "blockquote", "q", "cite",
		"code", "pre", "kbd", "samp", "var", "abbr", "address", "time")
	semanticTags = tagSet("header", "footer", "main", "nav", "aside", "article",
		"section", "figure", "figcaption", "details", "summary", "dialog")
	mediaTags = tagSet("img", "picture", "video", "audio", "source", "track",
		"canvas", "svg", "iframe", "embed", "object")
	interactiveTags = tagSet("a", "button", "details", "summary", "dialog")
	formTags        = tagSet("form", "input", "textarea", "select", "option", "optgroup",
		"button", "label", "fieldset", "legend", "datalist", "output", "progress", "meter")
	tableTags = tagSet("table", "thead", "tbody", "tfoot", "tr", "th", "td",
		"caption", "colgroup", "col")
	listTags      = tagSet("ul", "ol", "li", "dl", "dt", "dd", "menu")
	containerTags = tagSet("div", "span", "section", "article", "aside", "header",
		"footer", "main", "nav")
)

func tagSet(tags ...string) map[string]bool {
	m := make(map[string]bool, len(tags))
	for _, t := range tags {
		m[t] = true
	}
	return m
}

// extractElementTypes returns the sorted unique visual tags under the body.
// The body element itself is excluded; coverage describes its descendants.
func extractElementTypes(p *dom.Page) []string {
	seen := map[string]bool{}
	for i := 1; i < len(p.Elements); i++ {
		tag := p.Elements[i].Tag
		if !nonVisualTags[tag] {
			seen[tag] = true
		}
	}
	types := make([]string, 0, len(seen))
	for tag := range seen {
		types = append(types, tag)
	}
	sort.Strings(types)
	return types
}

func countElements(p *dom.Page) map[string]int {
	counts := map[string]int{}
	for i := 1; i < len(p.Elements); i++ {
		tag := p.Elements[i].Tag
		if !nonVisualTags[tag] {
			counts[tag]++
		}
	}
	if len(counts) == 0 {
		return nil
	}
	return counts
}

// categorizeElements buckets the present tags by purpose. Runs over the
// already-computed type list; a tag may land in several buckets.
func categorizeElements(types []string) ElementCategories {
	var cats ElementCategories
	for _, tag := range types {
		if typographyTags[tag] {
			cats.Typography = append(cats.Typography, tag)
		}
		if semanticTags[tag] {
			cats.Semantic = append(cats.Semantic, tag)
		}
		if mediaTags[tag] {
			cats.Media = append(cats.Media, tag)
		}
		if interactiveTags[tag] {
			cats.Interactive = append(cats.Interactive, tag)
		}
		if formTags[tag] {
			cats.Forms = append(cats.Forms, tag)
		}
		if tableTags[tag] {
			cats.Tables = append(cats.Tables, tag)
		}
		if listTags[tag] {
			cats.Lists = append(cats.Lists, tag)
		}
		if containerTags[tag] {
			cats.Containers = append(cats.Containers, tag)
		}
	}
	return cats
}

// Icon-font library fingerprints over i/span class strings.
var iconFontPatterns = []struct {
	re      *regexp.Regexp
	library string
}{
	{regexp.MustCompile(`^fa[srbl]?\s|^fa-`), "font-awesome"},
	{regexp.MustCompile(`^material-icons`), "material-icons"},
	{regexp.MustCompile(`^glyphicon`), "glyphicons"},
	{regexp.MustCompile(`^icon-|^icons-`), "custom-icons"},
	{regexp.MustCompile(`^bi\s|^bi-`), "bootstrap-icons"},
	{regexp.MustCompile(`^feather-|^fe-`), "feather-icons"},
	{regexp.MustCompile(`^ion-|^ionicon`), "ionicons"},
}

// detectIcons finds inline SVG usage, sprites, and icon fonts.
func detectIcons(p *dom.Page) Icons {
	svgs := detectSVGs(p)
	fonts := detectIconFonts(p)

	var recs []string
	if svgs.Count > 0 {
		recs = append(recs, "Style SVGs with fill: currentColor to inherit text colors")
		if svgs.HasSprite {
			recs = append(recs, "SVG sprite detected - use symbol IDs for targeting")
		}
	}
	if fonts.Detected && len(fonts.Libraries) > 0 {
		recs = append(recs, fmt.Sprintf("Icon font detected (%s) - style via color property",
			strings.Join(fonts.Libraries, ", ")))
	}
	return Icons{SVGs: svgs, Fonts: fonts, Recommendations: recs}
}

func detectSVGs(p *dom.Page) SVGInfo {
	var info SVGInfo
	sizes := newCounter[string]()
	for i := range p.Elements {
		el := &p.Elements[i]
		if el.Tag == "symbol" {
			// A symbol only appears inside an svg, so a sprite is in use.
			info.HasSprite = true
		}
		if el.Tag != "svg" {
			continue
		}
		info.Count++
		w, h := el.Rect.W, el.Rect.H
		if aw := attrPx(el, "width"); aw > 0 {
			w = aw
		}
		if ah := attrPx(el, "height"); ah > 0 {
			h = ah
		}
		if w > 0 && h > 0 {
			sizes.Add(fmt.Sprintf("%dx%d", w, h))
		}
	}
	info.Sizes = sizes.Top(10)
	return info
}

var leadingIntRe = regexp.MustCompile(`^\d+`)

func attrPx(el *dom.Element, name string) int {
	m := leadingIntRe.FindString(el.Attr(name))
	if m == "" {
		return 0
	}
	n := 0
	for _, r := range m {
		n = n*10 + int(r-'0')
	}
	return n
}

func detectIconFonts(p *dom.Page) IconFonts {
	var fonts IconFonts
	libraries := newCounter[string]()
	seenClasses := map[string]bool{}
	emptyIconish := 0

	for i := range p.Elements {
		el := &p.Elements[i]
		if el.Tag != "i" && el.Tag != "span" {
			continue
		}
		class := el.ClassString()
		if el.Text == "" && len(p.Children(el.Index)) == 0 {
			emptyIconish++
		}
		if class == "" {
			continue
		}
		for _, pat := range iconFontPatterns {
			if pat.re.MatchString(class) {
				libraries.Add(pat.library)
				first := strings.Fields(class)[0]
				if !seenClasses[first] && len(fonts.Classes) < 20 {
					seenClasses[first] = true
					fonts.Classes = append(fonts.Classes, first)
				}
				break
			}
		}
	}
	fonts.Libraries = libraries.Ranked()
	// Many empty i/span elements usually mean pseudo-content icon fonts.
	fonts.Detected = len(fonts.Libraries) > 0 || emptyIconish > 5
	return fonts
}
