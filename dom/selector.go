package dom

import "strings"

// BuildSelector returns the most stable CSS selector for an element. The
// priority order is fixed: data-testid, then id, then aria-label, then role,
// then tag plus up to two class names. First matching rule wins.
func BuildSelector(e *Element) string {
	if testID := e.Attr("data-testid"); testID != "" {
		return `[data-testid="` + testID + `"]`
	}
	if e.ID != "" {
		return "#" + EscapeIdent(e.ID)
	}
	if label := e.Attr("aria-label"); label != "" {
		return `[aria-label="` + label + `"]`
	}
	if role := e.Attr("role"); role != "" {
		return `[role="` + role + `"]`
	}
	sel := e.Tag
	for i, c := range e.Classes {
		if i >= 2 {
			break
		}
		sel += "." + EscapeIdent(c)
	}
	return sel
}

// EscapeIdent escapes a string for use as a CSS identifier. Characters
// outside [a-zA-Z0-9_-] are backslash-escaped.
func EscapeIdent(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}
