// Package dom provides a bounded, immutable view of a web page for analysis.
//
// A Page is a flat element table in document order (the body subtree) plus
// digests of the page's stylesheets. It can be built from a live browser via
// a capture script (see the browser package) or from static HTML via
// ParseHTML. Detectors treat a Page as read-only.
package dom

import "strings"

// MaxCapturedElements bounds how many elements a capture may contain.
// Arbitrarily large pages are truncated at the source for latency control.
const MaxCapturedElements = 1500

// Rect holds a rounded bounding-box size in CSS pixels.
type Rect struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Element is one captured element. Style holds the computed-style subset the
// detectors read, keyed by CSS property name.
type Element struct {
	Index      int               `json:"index"`
	Parent     int               `json:"parent"` // -1 for the root element
	Depth      int               `json:"depth"`
	Tag        string            `json:"tag"`
	ID         string            `json:"id,omitempty"`
	Classes    []string          `json:"classes,omitempty"`
	Attrs      map[string]string `json:"attrs,omitempty"`
	Style      map[string]string `json:"style,omitempty"`
	Rect       Rect              `json:"rect"`
	Hidden     bool              `json:"hidden,omitempty"` // no offset parent
	ShadowRoot bool              `json:"shadowRoot,omitempty"`
	Before     string            `json:"before,omitempty"` // ::before content
	After      string            `json:"after,omitempty"`  // ::after content
	Text       string            `json:"text,omitempty"`   // trimmed, capped
}

// Attr returns the value of an attribute, or "".
func (e *Element) Attr(name string) string {
	if e.Attrs == nil {
		return ""
	}
	return e.Attrs[name]
}

// HasAttr reports whether the attribute is present, even if empty.
func (e *Element) HasAttr(name string) bool {
	if e.Attrs == nil {
		return false
	}
	_, ok := e.Attrs[name]
	return ok
}

// StyleOf returns a computed style property, or "".
func (e *Element) StyleOf(prop string) string {
	if e.Style == nil {
		return ""
	}
	return e.Style[prop]
}

// HasClass reports whether the element carries the given class.
func (e *Element) HasClass(name string) bool {
	for _, c := range e.Classes {
		if c == name {
			return true
		}
	}
	return false
}

// ClassString joins the element's classes, mirroring the class attribute.
func (e *Element) ClassString() string {
	return strings.Join(e.Classes, " ")
}

// StyleSheet is a digest of one stylesheet. Inaccessible sheets (cross-origin
// or external links whose rules could not be read) carry empty digests and
// are skipped by rule-level detectors.
type StyleSheet struct {
	Accessible  bool     `json:"accessible"`
	Keyframes   []string `json:"keyframes,omitempty"`
	Media       []string `json:"media,omitempty"` // media condition texts
	UsesInherit bool     `json:"usesInherit,omitempty"`
}

// Page is one captured page. Elements[0] is the body (or document root when
// no body exists). The slice is never mutated after construction.
type Page struct {
	URL      string       `json:"url"`
	Hostname string       `json:"hostname"`
	Path     string       `json:"path"`
	Title    string       `json:"title"`
	Elements []Element    `json:"elements"`
	Sheets   []StyleSheet `json:"sheets,omitempty"`

	// RootVars holds CSS custom properties declared on :root (or probed from
	// the root element's computed style in live captures).
	RootVars map[string]string `json:"rootVars,omitempty"`

	children [][]int
}

// Body returns the root captured element, or nil for an empty capture.
func (p *Page) Body() *Element {
	if len(p.Elements) == 0 {
		return nil
	}
	return &p.Elements[0]
}

// Children returns the indexes of an element's direct children in document
// order. The index is built on first use.
func (p *Page) Children(i int) []int {
	if p.children == nil {
		p.children = make([][]int, len(p.Elements))
		for idx := range p.Elements {
			parent := p.Elements[idx].Parent
			if parent >= 0 && parent < len(p.Elements) {
				p.children[parent] = append(p.children[parent], idx)
			}
		}
	}
	if i < 0 || i >= len(p.children) {
		return nil
	}
	return p.children[i]
}

// ParentOf returns the parent element, or nil at the root.
func (p *Page) ParentOf(e *Element) *Element {
	if e.Parent < 0 || e.Parent >= len(p.Elements) {
		return nil
	}
	return &p.Elements[e.Parent]
}

// Sample returns the first n elements, or all of them when the page is
// smaller. Detectors use this for their bounded scans.
func (p *Page) Sample(n int) []Element {
	if len(p.Elements) <= n {
		return p.Elements
	}
	return p.Elements[:n]
}
