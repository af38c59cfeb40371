package analyzer

import (
	"fmt"
	"strconv"
	"strings"

	"paintbrush/dom"
)

const typeScaleScanLimit = 300

var headingTags = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

var typeScaleTags = tagSet("h1", "h2", "h3", "h4", "h5", "h6", "p", "span",
	"a", "li", "td", "th", "label", "button")

// detectTypographyScale measures the heading size ladder plus the common
// line heights, weights, and letter spacing across text elements.
func detectTypographyScale(p *dom.Page) TypographyScale {
	var ts TypographyScale
	ts.Base = 16
	if body := p.Body(); body != nil {
		if v := spacingPx(body.StyleOf("font-size")); v > 0 {
			ts.Base = v
		}
	}

	headings := map[string]HeadingStyle{}
	for _, tag := range headingTags {
		el := firstWithTag(p, tag)
		if el == nil {
			continue
		}
		headings[tag] = HeadingStyle{
			FontSize:   spacingPx(el.StyleOf("font-size")),
			LineHeight: el.StyleOf("line-height"),
			FontWeight: el.StyleOf("font-weight"),
		}
	}
	if len(headings) > 0 {
		ts.Headings = headings
	}

	lineHeights := newCounter[string]()
	fontWeights := newCounter[string]()
	letterSpacings := newCounter[string]()

	checked := 0
	for i := range p.Elements {
		if checked >= typeScaleScanLimit {
			break
		}
		el := &p.Elements[i]
		if !typeScaleTags[el.Tag] {
			continue
		}
		checked++

		if lh := el.StyleOf("line-height"); lh != "" && lh != "normal" {
			lineHeights.Add(normalizeLineHeight(lh, el.StyleOf("font-size")))
		}
		if fw := el.StyleOf("font-weight"); fw != "" {
			fontWeights.Add(fw)
		}
		if ls := el.StyleOf("letter-spacing"); ls != "" && ls != "normal" && ls != "0px" {
			letterSpacings.Add(ls)
		}
	}

	ts.LineHeights = lineHeights.Top(5)
	ts.FontWeights = fontWeights.Top(5)
	ts.LetterSpacing = letterSpacings.Top(5)
	ts.Ratio = scaleRatio(headings)
	return ts
}

func firstWithTag(p *dom.Page, tag string) *dom.Element {
	for i := range p.Elements {
		if p.Elements[i].Tag == tag {
			return &p.Elements[i]
		}
	}
	return nil
}

// normalizeLineHeight converts px line heights into a unitless ratio
// against the element's font size so values group across sizes.
func normalizeLineHeight(lh, fontSize string) string {
	if !strings.Contains(lh, "px") {
		return lh
	}
	lhVal, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(lh), "px"), 64)
	if err != nil {
		return lh
	}
	fs := spacingPx(fontSize)
	if fs <= 0 {
		return lh
	}
	return fmt.Sprintf("%.2f", lhVal/float64(fs))
}

// scaleRatio derives the type scale from h1/h2, falling back to h2/h3.
func scaleRatio(headings map[string]HeadingStyle) float64 {
	pairs := [][2]string{{"h1", "h2"}, {"h2", "h3"}}
	for _, pair := range pairs {
		a, okA := headings[pair[0]]
		b, okB := headings[pair[1]]
		if okA && okB && b.FontSize > 0 {
			r := float64(a.FontSize) / float64(b.FontSize)
			v, _ := strconv.ParseFloat(fmt.Sprintf("%.3f", r), 64)
			return v
		}
	}
	return 0
}
