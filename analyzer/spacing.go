package analyzer

import (
	"sort"
	"strconv"
	"strings"

	"paintbrush/dom"
)

const spacingScanLimit = 500

// detectSpacing collects padding, margin, and gap values to recover the
// spacing scale the page was built on.
func detectSpacing(p *dom.Page) Spacing {
	padding := newCounter[int]()
	margin := newCounter[int]()
	gap := newCounter[int]()

	limit := min(len(p.Elements), spacingScanLimit)
	for i := 0; i < limit; i++ {
		el := &p.Elements[i]

		for _, side := range []string{"padding-top", "padding-right", "padding-bottom", "padding-left"} {
			if v := spacingPx(el.StyleOf(side)); v > 0 {
				padding.Add(v)
			}
		}
		for _, side := range []string{"margin-top", "margin-right", "margin-bottom", "margin-left"} {
			raw := el.StyleOf(side)
			if raw == "auto" {
				continue
			}
			if v := spacingPx(raw); v > 0 {
				margin.Add(v)
			}
		}
		g := el.StyleOf("gap")
		if g == "" {
			g = el.StyleOf("grid-gap")
		}
		if g != "normal" {
			if v := spacingPx(g); v > 0 {
				gap.Add(v)
			}
		}
	}

	var s Spacing
	s.Padding = padding.Top(10)
	s.Margin = margin.Top(10)
	s.Gap = gap.Top(10)

	scaleSet := map[int]bool{}
	all := newCounter[int]()
	for _, c := range []*counter[int]{padding, margin, gap} {
		for _, v := range c.Ranked() {
			scaleSet[v] = true
			all.AddN(v, c.Count(v))
		}
	}
	for v := range scaleSet {
		s.Scale = append(s.Scale, v)
	}
	sort.Ints(s.Scale)
	s.Scale = truncate(s.Scale, 15)
	s.Common = all.Top(8)
	return s
}

// spacingPx parses the leading integer of a px value, 0 when absent.
func spacingPx(v string) int {
	v = strings.TrimSpace(v)
	if v == "" || v == "0px" || v == "0" {
		return 0
	}
	end := 0
	for end < len(v) && v[end] >= '0' && v[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(v[:end])
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
