package analyzer

import (
	"strings"

	"paintbrush/dom"
)

const colorInheritScanLimit = 200

var fontChainTags = tagSet("h1", "h2", "h3", "h4", "h5", "h6", "p", "span",
	"div", "a", "button", "li")

var colorInheritTags = tagSet("p", "span", "a", "h1", "h2", "h3", "h4", "li", "td")

// trackInheritance compares each text element's color against its parent
// to tell inherited colors from explicitly set ones, and records which
// font families carry most of the page.
func trackInheritance(p *dom.Page) Inheritance {
	var inh Inheritance
	inh.RootStyles = rootStyles(p)
	inh.FontChain = fontChain(p)

	type tally struct{ inherited, explicit int }
	colorMap := map[string]*tally{}
	var colorOrder []string

	checked := 0
	for i := 1; i < len(p.Elements) && checked < colorInheritScanLimit; i++ {
		el := &p.Elements[i]
		if !colorInheritTags[el.Tag] {
			continue
		}
		checked++
		color := NormalizeColor(el.StyleOf("color"))
		if color == "" {
			continue
		}
		parent := p.ParentOf(el)
		if parent == nil {
			continue
		}
		t := colorMap[color]
		if t == nil {
			t = &tally{}
			colorMap[color] = t
			colorOrder = append(colorOrder, color)
		}
		if color == NormalizeColor(parent.StyleOf("color")) {
			t.inherited++
		} else {
			t.explicit++
		}
	}

	for _, color := range colorOrder {
		t := colorMap[color]
		if t.inherited > t.explicit {
			inh.Inherited = append(inh.Inherited, ColorUsage{Color: color, Times: t.inherited})
		} else {
			inh.Explicit = append(inh.Explicit, ColorUsage{Color: color, Times: t.explicit})
		}
		inh.ColorInheritance = append(inh.ColorInheritance, ColorInheritance{
			Color:     color,
			Inherited: t.inherited,
			Explicit:  t.explicit,
			Ratio:     float64(t.inherited) / float64(t.inherited+t.explicit),
		})
	}
	inh.Inherited = truncate(inh.Inherited, 10)
	inh.Explicit = truncate(inh.Explicit, 10)
	inh.ColorInheritance = truncate(inh.ColorInheritance, 10)

	for _, sheet := range p.Sheets {
		if sheet.UsesInherit {
			inh.UsesInherit = true
			break
		}
	}
	return inh
}

func rootStyles(p *dom.Page) RootStyles {
	body := p.Body()
	if body == nil {
		return RootStyles{}
	}
	return RootStyles{
		FontFamily:      body.StyleOf("font-family"),
		FontSize:        body.StyleOf("font-size"),
		LineHeight:      body.StyleOf("line-height"),
		Color:           NormalizeColor(body.StyleOf("color")),
		BackgroundColor: NormalizeColor(body.StyleOf("background-color")),
	}
}

func fontChain(p *dom.Page) []FontUsage {
	counts := newCounter[string]()
	usedBy := map[string][]string{}
	for i := range p.Elements {
		el := &p.Elements[i]
		if !fontChainTags[el.Tag] {
			continue
		}
		font := el.StyleOf("font-family")
		if font == "" {
			continue
		}
		counts.Add(font)
		tags := usedBy[font]
		if len(tags) < 3 && !containsString(tags, el.Tag) {
			usedBy[font] = append(tags, el.Tag)
		}
	}

	var chain []FontUsage
	for _, font := range counts.Top(5) {
		chain = append(chain, FontUsage{
			FontFamily: firstFontFamily(font),
			Count:      counts.Count(font),
			UsedBy:     usedBy[font],
		})
	}
	return chain
}

// firstFontFamily reduces a font-family stack to its unquoted first entry.
func firstFontFamily(stack string) string {
	first, _, _ := strings.Cut(stack, ",")
	return strings.Trim(strings.TrimSpace(first), `'"`)
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
