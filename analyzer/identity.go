package analyzer

import (
	"regexp"
	"sort"
	"strings"

	"paintbrush/dom"
)

const (
	domSnapshotMaxDepth = 6
	domSnapshotMaxChars = 4500
	elementContextCap   = 100
	parentContextHops   = 5
)

// truncationMarker terminates an oversized DOM snapshot.
const truncationMarker = "\n... (truncated)"

// hashedClassRe matches build-tool generated class names that make poor
// targeting hooks.
var hashedClassRe = regexp.MustCompile(`^(css-|_|r-|sc-)[a-zA-Z0-9]`)

// extractTestIDs collects the distinct data-testid values in document order.
func extractTestIDs(p *dom.Page) []string {
	seen := map[string]bool{}
	var ids []string
	for i := range p.Elements {
		id := p.Elements[i].Attr("data-testid")
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// extractTestIDsByTag groups test-ids by lowercase tag name, deduplicated
// per tag.
func extractTestIDsByTag(p *dom.Page) map[string][]string {
	byTag := map[string][]string{}
	for i := range p.Elements {
		el := &p.Elements[i]
		id := el.Attr("data-testid")
		if id == "" {
			continue
		}
		dup := false
		for _, existing := range byTag[el.Tag] {
			if existing == id {
				dup = true
				break
			}
		}
		if !dup {
			byTag[el.Tag] = append(byTag[el.Tag], id)
		}
	}
	if len(byTag) == 0 {
		return nil
	}
	return byTag
}

// extractAriaLabels records labelled elements, resolving aria-labelledby
// references to the referenced element's text. Deduplicated by (tag, label).
func extractAriaLabels(p *dom.Page) []AriaLabel {
	var labels []AriaLabel
	seen := map[string]bool{}

	add := func(el *dom.Element, label, labelledBy string) {
		key := el.Tag + "-" + label
		if label == "" || seen[key] {
			return
		}
		seen[key] = true
		labels = append(labels, AriaLabel{
			Label:      label,
			ElementTag: el.Tag,
			Selector:   dom.BuildSelector(el),
			LabelledBy: labelledBy,
		})
	}

	for i := range p.Elements {
		el := &p.Elements[i]
		if label := el.Attr("aria-label"); label != "" {
			add(el, label, "")
		}
	}
	for i := range p.Elements {
		el := &p.Elements[i]
		ref := el.Attr("aria-labelledby")
		if ref == "" {
			continue
		}
		if target := elementByID(p, ref); target != nil {
			add(el, strings.TrimSpace(target.Text), ref)
		}
	}
	return labels
}

func elementByID(p *dom.Page, id string) *dom.Element {
	for i := range p.Elements {
		if p.Elements[i].ID == id {
			return &p.Elements[i]
		}
	}
	return nil
}

// Tags never descended into when building the DOM snapshot.
var snapshotSkipTags = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"svg": true, "path": true, "g": true,
}

// generateDOMSnapshot emits a depth- and size-bounded textual tree of the
// body subtree: tag plus role/test-id/aria-label/id and up to three
// meaningful class names per element. Text content is never included.
func generateDOMSnapshot(p *dom.Page) string {
	body := p.Body()
	if body == nil {
		return ""
	}
	var lines []string
	var walk func(idx, depth int)
	walk = func(idx, depth int) {
		if depth > domSnapshotMaxDepth {
			return
		}
		el := &p.Elements[idx]
		if snapshotSkipTags[el.Tag] {
			return
		}
		var attrs []string
		if role := el.Attr("role"); role != "" {
			attrs = append(attrs, `role="`+role+`"`)
		}
		if id := el.Attr("data-testid"); id != "" {
			attrs = append(attrs, `data-testid="`+id+`"`)
		}
		if label := el.Attr("aria-label"); label != "" {
			attrs = append(attrs, `aria-label="`+label+`"`)
		}
		if el.ID != "" {
			attrs = append(attrs, `id="`+el.ID+`"`)
		}
		var meaningful []string
		for _, c := range el.Classes {
			if len(meaningful) >= 3 {
				break
			}
			if hashedClassRe.MatchString(c) || len(c) >= 30 {
				continue
			}
			meaningful = append(meaningful, c)
		}
		if len(meaningful) > 0 {
			attrs = append(attrs, `class="`+strings.Join(meaningful, " ")+`"`)
		}
		line := strings.Repeat("  ", depth) + "<" + el.Tag
		if len(attrs) > 0 {
			line += " " + strings.Join(attrs, " ")
		}
		lines = append(lines, line+">")
		for _, child := range p.Children(idx) {
			walk(child, depth+1)
		}
	}
	for _, child := range p.Children(body.Index) {
		walk(child, 0)
	}
	snapshot := strings.Join(lines, "\n")
	if len(snapshot) > domSnapshotMaxChars {
		return snapshot[:domSnapshotMaxChars] + truncationMarker
	}
	return snapshot
}

func isInteractive(el *dom.Element) bool {
	switch el.Tag {
	case "button", "a", "input", "select", "textarea":
		return true
	}
	return el.Attr("role") == "button" || el.Attr("data-testid") != ""
}

// extractElementContext collects interactive elements with their targeting
// hooks, ranked by targeting value (test-id beats aria-label), capped at 100.
func extractElementContext(p *dom.Page) []ElementContext {
	var out []ElementContext
	for i := range p.Elements {
		el := &p.Elements[i]
		if !isInteractive(el) {
			continue
		}
		// Hidden elements are unreachable targets; native inputs are exempt
		// because they report no offset parent in some layouts.
		if el.Hidden && el.Tag != "input" {
			continue
		}
		ctx := ElementContext{
			Tag:       el.Tag,
			TestID:    el.Attr("data-testid"),
			AriaLabel: el.Attr("aria-label"),
			Role:      el.Attr("role"),
			Selector:  dom.BuildSelector(el),
			Size:      Size{Width: el.Rect.W, Height: el.Rect.H},
		}
		parent := p.ParentOf(el)
		for hop := 0; parent != nil && hop < parentContextHops; hop++ {
			if role := parent.Attr("role"); role != "" {
				ctx.ParentContext = role
				break
			}
			if id := parent.Attr("data-testid"); id != "" {
				ctx.ParentContext = id
				break
			}
			parent = p.ParentOf(parent)
		}
		out = append(out, ctx)
	}

	score := func(c ElementContext) int {
		s := 0
		if c.TestID != "" {
			s += 2
		}
		if c.AriaLabel != "" {
			s++
		}
		return s
	}
	sort.SliceStable(out, func(i, j int) bool { return score(out[i]) > score(out[j]) })
	return truncate(out, elementContextCap)
}
