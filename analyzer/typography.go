package analyzer

import "paintbrush/dom"

var basicFontTags = tagSet("body", "h1", "h2", "h3", "p", "a", "button")

// analyzeTypography summarizes the body font and the first five distinct
// font families seen on common text elements.
func analyzeTypography(p *dom.Page) Typography {
	var t Typography
	if body := p.Body(); body != nil {
		t.BodyFont = firstFontFamily(body.StyleOf("font-family"))
		t.BaseFontSize = body.StyleOf("font-size")
	}

	fonts := newCounter[string]()
	for i := range p.Elements {
		el := &p.Elements[i]
		if !basicFontTags[el.Tag] {
			continue
		}
		if f := firstFontFamily(el.StyleOf("font-family")); f != "" {
			fonts.Add(f)
		}
	}
	// First-seen order, not frequency. The body font leads because the
	// body element is walked first.
	t.Fonts = truncate(fonts.order, 5)
	return t
}
