package analyzer

import (
	"regexp"
	"strings"

	"paintbrush/dom"
)

// Candidate selector lists per structural region, ordered semantic tag ->
// ARIA role -> common id -> common class.
var (
	headerCandidates = []string{
		"header", `[role="banner"]`, "#header", ".header",
		"#masthead", ".masthead", "#top-bar", ".top-bar",
	}
	navCandidates = []string{
		"nav", `[role="navigation"]`, ".nav", ".navbar",
		".navigation", "#nav", ".menu", ".main-menu",
	}
	mainCandidates = []string{
		"main", `[role="main"]`, "#main", ".main",
		"#content", ".content", "#main-content", ".main-content",
	}
	sidebarCandidates = []string{
		"aside", `[role="complementary"]`, ".sidebar", "#sidebar",
		".side-panel", ".aside",
	}
	footerCandidates = []string{
		"footer", `[role="contentinfo"]`, "#footer", ".footer",
		"#bottom", ".bottom",
	}
	articleCandidates = []string{
		"article", `[role="article"]`, ".article", ".post", ".entry", ".story",
	}
	buttonCandidates = []string{
		"button", `[role="button"]`, `input[type="submit"]`, `input[type="button"]`,
		".btn", ".button", `[class*="btn-"]`, `[class*="button-"]`,
	}
	inputCandidates = []string{
		`input:not([type="hidden"])`, "textarea", "select",
		".input", ".form-control", `[class*="input-"]`,
	}
	cardCandidates = []string{
		".card", `[class*="card"]`, ".tile", ".panel", ".box", ".item",
	}
)

// Naming-convention patterns for site-specific class mining.
var sitePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(post|article|story|item|card|entry|comment|thread|message)[-_]?`),
	regexp.MustCompile(`(?i)^(container|wrapper|content|main|page|layout)[-_]?`),
	regexp.MustCompile(`(?i)^(nav|menu|header|footer|sidebar|toolbar)[-_]?`),
	regexp.MustCompile(`(?i)^(btn|button|link|action|cta)[-_]?`),
}

// detectSelectors finds canonical selectors for structural regions and
// site-specific repeating class patterns.
func detectSelectors(p *dom.Page) SelectorMap {
	sel := SelectorMap{
		Header:  firstMatching(p, headerCandidates),
		Nav:     firstMatching(p, navCandidates),
		Main:    firstMatching(p, mainCandidates),
		Sidebar: firstMatching(p, sidebarCandidates),
		Footer:  firstMatching(p, footerCandidates),
		Article: firstMatching(p, articleCandidates),
		Buttons: allMatching(p, buttonCandidates),
		Links:   "a",
		Inputs:  allMatching(p, inputCandidates),
		Cards:   allMatching(p, cardCandidates),
		Custom:  siteSpecificSelectors(p),
	}
	if anyMatches(p, "table") {
		sel.Tables = "table, thead, tbody, tr, th, td"
	}
	return sel
}

// firstMatching returns the first candidate matching at least one element.
func firstMatching(p *dom.Page, candidates []string) string {
	for _, c := range candidates {
		if anyMatches(p, c) {
			return c
		}
	}
	return ""
}

// allMatching returns the comma-joined union of every matching candidate.
func allMatching(p *dom.Page, candidates []string) string {
	var found []string
	for _, c := range candidates {
		if anyMatches(p, c) {
			found = append(found, c)
		}
	}
	return strings.Join(found, ", ")
}

func anyMatches(p *dom.Page, sel string) bool {
	for i := range p.Elements {
		if matchesCandidate(&p.Elements[i], sel) {
			return true
		}
	}
	return false
}

// matchesCandidate evaluates the restricted selector grammar used by the
// fixed candidate lists: tag, #id, .class, [attr], [attr="v"], [attr*="v"],
// tag[attr="v"] and input:not([type="hidden"]).
func matchesCandidate(el *dom.Element, sel string) bool {
	switch {
	case sel == `input:not([type="hidden"])`:
		return el.Tag == "input" && el.Attr("type") != "hidden"
	case strings.HasPrefix(sel, "#"):
		return el.ID == sel[1:]
	case strings.HasPrefix(sel, "."):
		return el.HasClass(sel[1:])
	case strings.HasPrefix(sel, "["):
		return matchesAttr(el, sel)
	case strings.Contains(sel, "["):
		open := strings.Index(sel, "[")
		return el.Tag == sel[:open] && matchesAttr(el, sel[open:])
	default:
		return el.Tag == sel
	}
}

func matchesAttr(el *dom.Element, sel string) bool {
	body := strings.TrimSuffix(strings.TrimPrefix(sel, "["), "]")
	substring := false
	eq := strings.Index(body, "*=")
	if eq >= 0 {
		substring = true
	} else {
		eq = strings.Index(body, "=")
	}
	if eq < 0 {
		return el.HasAttr(body)
	}
	name := body[:eq]
	value := strings.Trim(body[eq+1:], `*="'`)
	if name == "class" {
		if substring {
			return strings.Contains(el.ClassString(), value)
		}
		return el.ClassString() == value
	}
	got := el.Attr(name)
	if substring {
		return strings.Contains(got, value)
	}
	return got == value
}

// siteSpecificSelectors keeps classes that match a naming convention and are
// used by more than one element, filtering one-off utility classes.
func siteSpecificSelectors(p *dom.Page) []string {
	usage := newCounter[string]()
	for i := range p.Elements {
		for _, c := range p.Elements[i].Classes {
			usage.Add(c)
		}
	}
	var custom []string
	for _, cls := range usage.order {
		if usage.Count(cls) < 2 {
			continue
		}
		for _, pat := range sitePatterns {
			if pat.MatchString(cls) {
				custom = append(custom, "."+cls)
				break
			}
		}
		if len(custom) >= 20 {
			break
		}
	}
	return custom
}

// analyzeStructure derives coarse page-shape flags.
func analyzeStructure(p *dom.Page) Structure {
	s := Structure{
		HasSidebar: anyMatchesAny(p, "aside", ".sidebar", "#sidebar"),
		HasCards:   anyMatchesAny(p, ".card", `[class*="card"]`, "article"),
		HasTables:  anyMatches(p, "table"),
		HasModals:  anyMatchesAny(p, ".modal", `[role="dialog"]`, ".dialog", ".popup"),
		HasForms:   anyMatches(p, "form"),
		HasCode:    anyMatchesAny(p, "pre", "code", ".code", ".highlight"),
	}
	imgCount := 0
	for i := range p.Elements {
		if p.Elements[i].Tag == "img" {
			imgCount++
		}
	}
	s.HasImages = imgCount > 3

	for i := range p.Elements {
		el := &p.Elements[i]
		if matchesCandidate(el, "header") || matchesCandidate(el, `[role="banner"]`) ||
			matchesCandidate(el, "#header") || matchesCandidate(el, ".header") {
			pos := el.StyleOf("position")
			s.HasFixedHeader = pos == "fixed" || pos == "sticky"
			break
		}
	}
	return s
}

func anyMatchesAny(p *dom.Page, sels ...string) bool {
	for _, s := range sels {
		if anyMatches(p, s) {
			return true
		}
	}
	return false
}
