package analyzer

import "paintbrush/dom"

const (
	pseudoScanLimit     = 500
	pseudoContentMaxLen = 50
	pseudoListCap       = 30
	pseudoSelectorsCap  = 50
)

// detectPseudoElements surfaces generated ::before/::after content so a
// stylesheet can restyle decorative markers and icon glyphs.
func detectPseudoElements(p *dom.Page) PseudoElements {
	var out PseudoElements
	seen := map[string]bool{}
	addSelector := func(s string) {
		if !seen[s] && len(out.Selectors) < pseudoSelectorsCap {
			seen[s] = true
			out.Selectors = append(out.Selectors, s)
		}
	}

	limit := min(len(p.Elements), pseudoScanLimit)
	for i := 0; i < limit; i++ {
		el := &p.Elements[i]

		if c := pseudoContent(el.Before); c != "" {
			sel := dom.BuildSelector(el)
			out.Before = append(out.Before, PseudoElement{Selector: sel, Content: c})
			addSelector(sel + "::before")
			out.Count++
		}
		if c := pseudoContent(el.After); c != "" {
			sel := dom.BuildSelector(el)
			out.After = append(out.After, PseudoElement{Selector: sel, Content: c})
			addSelector(sel + "::after")
			out.Count++
		}

		if (el.Tag == "input" || el.Tag == "textarea") && el.Attr("placeholder") != "" {
			out.HasPlaceholders = true
		}
	}

	out.Before = truncate(out.Before, pseudoListCap)
	out.After = truncate(out.After, pseudoListCap)
	return out
}

// pseudoContent filters out the no-op content values and truncates the rest.
func pseudoContent(content string) string {
	switch content {
	case "", "none", "normal", `""`:
		return ""
	}
	if len(content) > pseudoContentMaxLen {
		return content[:pseudoContentMaxLen]
	}
	return content
}
