package prompt

import (
	"fmt"
	"sort"
	"strings"

	"paintbrush/analyzer"
)

// buildUserPrompt renders the snapshot into the site-context prompt. Each
// section is emitted only when the analysis found something for it.
func buildUserPrompt(userRequest string, s *analyzer.Snapshot, existing *ExistingTheme, corrections []Correction) string {
	var b strings.Builder

	mode := "Currently LIGHT"
	if s.Colors.DarkMode {
		mode = "Currently DARK"
	}
	fmt.Fprintf(&b, `WEBSITE CONTEXT
===============
Site: %s
Page: %s
Title: %s

CURRENT APPEARANCE
------------------
Mode: %s
Main backgrounds: %s
Main text colors: %s
Border colors: %s

PAGE STRUCTURE
--------------
Header: %s%s
Navigation: %s
Main content: %s
Sidebar: %s
Footer: %s
Article/Post elements: %s

INTERACTIVE ELEMENTS
--------------------
Buttons: %s
Inputs: %s
Cards/Panels: %s
Tables: %s

SITE-SPECIFIC SELECTORS
-----------------------
%s

`,
		s.Hostname, s.Path, s.Title, mode,
		orElse(join(head(s.Colors.Backgrounds, 5)), "standard white"),
		orElse(join(head(s.Colors.Text, 5)), "standard black"),
		orElse(join(head(s.Colors.Borders, 3)), "none detected"),
		orElse(s.Selectors.Header, "<header> (standard)"), fixedTag(s.Structure.HasFixedHeader),
		orElse(s.Selectors.Nav, "<nav> (standard)"),
		orElse(s.Selectors.Main, "<main> (standard)"),
		orElse(s.Selectors.Sidebar, "none detected"),
		orElse(s.Selectors.Footer, "<footer> (standard)"),
		orElse(s.Selectors.Article, "none detected"),
		orElse(s.Selectors.Buttons, "button, .btn"),
		orElse(s.Selectors.Inputs, "input, textarea, select"),
		orElse(s.Selectors.Cards, "none detected"),
		orElse(s.Selectors.Tables, "none detected"),
		orElse(strings.Join(s.Selectors.Custom, "\n"),
			"No site-specific patterns detected - use standard element selectors"))

	writeTestIDs(&b, s)
	writeAriaLabels(&b, s)
	writeElementContext(&b, s)
	writeDOMSnapshot(&b, s)
	writeFrameworks(&b, s)
	writeCSSInJS(&b, s)
	writeMediaQueries(&b, s)
	writeAnimations(&b, s)
	writeLayers(&b, s)
	writeCSSVariables(&b, s)
	writeStructure(&b, s)
	writeElementCoverage(&b, s)
	writeIcons(&b, s)
	writeForms(&b, s)
	writeColorAnalysis(&b, s)
	writePseudoElements(&b, s)
	writeInheritance(&b, s)
	writeSpacing(&b, s)
	writeTypographyScale(&b, s)
	writeBorderShadow(&b, s)

	if existing != nil {
		fmt.Fprintf(&b, `CURRENT THEME (user wants to modify this)
-----------------------------------------
Previous request: %q

The user wants to REFINE the existing theme, not start over.
Make targeted changes based on their new request while keeping the overall theme intact.

`, existing.Prompt)
	}

	if len(corrections) > 0 {
		b.WriteString("PAST CORRECTIONS (user undid these - avoid similar approaches)\n")
		b.WriteString("-----------------------------------------------------\n")
		for _, c := range tail(corrections, 3) {
			fmt.Fprintf(&b, "- Rejected: %q -> Kept: %q\n", c.Rejected, c.Accepted)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, `USER REQUEST
============
%q

Generate a complete CSS stylesheet that fulfills this request. Be thorough - cover every element type that exists on this page. The goal is a polished, cohesive theme that the user never needs to adjust again.`, userRequest)

	return b.String()
}

func writeTestIDs(b *strings.Builder, s *analyzer.Snapshot) {
	if len(s.TestIDs) == 0 {
		return
	}
	b.WriteString("DATA-TESTID SELECTORS (use these for precise targeting!)\n")
	b.WriteString("----------------------------------------------------\n")
	fmt.Fprintf(b, "Available testIds: %s\n", join(head(s.TestIDs, 30)))
	if ids := s.TestIDsByTag["button"]; len(ids) > 0 {
		fmt.Fprintf(b, "Button testIds: %s\n", join(head(ids, 10)))
	}
	if ids := s.TestIDsByTag["div"]; len(ids) > 0 {
		fmt.Fprintf(b, "Container testIds: %s\n", join(head(ids, 10)))
	}
	if ids := s.TestIDsByTag["article"]; len(ids) > 0 {
		fmt.Fprintf(b, "Article testIds: %s\n", join(ids))
	}
	b.WriteString("\nUse [data-testid=\"name\"] selectors - they're stable and specific!\n\n")
}

func writeAriaLabels(b *strings.Builder, s *analyzer.Snapshot) {
	if len(s.AriaLabels) == 0 {
		return
	}
	var buttons, links []string
	for _, a := range s.AriaLabels {
		switch a.ElementTag {
		case "button":
			if len(buttons) < 10 {
				buttons = append(buttons, fmt.Sprintf("%q", a.Label))
			}
		case "a":
			if len(links) < 5 {
				links = append(links, fmt.Sprintf("%q", a.Label))
			}
		}
	}
	b.WriteString("ARIA-LABELED ELEMENTS (useful for targeting by purpose)\n")
	b.WriteString("-----------------------------------------------------\n")
	if len(buttons) > 0 {
		fmt.Fprintf(b, "Buttons: %s\n", join(buttons))
	}
	if len(links) > 0 {
		fmt.Fprintf(b, "Links: %s\n", join(links))
	}
	b.WriteString("\nUse [aria-label=\"Label\"] selectors for specific interactive elements.\n\n")
}

func writeElementContext(b *strings.Builder, s *analyzer.Snapshot) {
	var actions []analyzer.ElementContext
	for _, e := range s.ElementContext {
		if e.TestID != "" && e.ParentContext != "" && e.Tag == "button" {
			actions = append(actions, e)
			if len(actions) == 8 {
				break
			}
		}
	}
	if len(actions) == 0 {
		return
	}
	b.WriteString("KEY INTERACTIVE ELEMENTS (with context)\n")
	b.WriteString("--------------------------------------\n")
	for _, e := range actions {
		fmt.Fprintf(b, "- %s (%dx%dpx, in %s)\n", e.Selector, e.Size.Width, e.Size.Height, e.ParentContext)
	}
	b.WriteString("\nThese selectors are precise - use them for targeted styling.\n\n")
}

func writeDOMSnapshot(b *strings.Builder, s *analyzer.Snapshot) {
	if s.DOMSnapshot == "" {
		return
	}
	lines := strings.Split(s.DOMSnapshot, "\n")
	shown := head(lines, maxSnapshotLines)
	b.WriteString("DOM STRUCTURE SNAPSHOT (simplified, for context)\n")
	b.WriteString("-----------------------------------------------\n")
	b.WriteString(strings.Join(shown, "\n"))
	if len(shown) < len(lines) {
		b.WriteString("\n...(truncated)")
	}
	b.WriteString("\n\n")
}

func writeFrameworks(b *strings.Builder, s *analyzer.Snapshot) {
	type named struct {
		name   string
		signal analyzer.FrameworkSignal
	}
	all := []named{
		{"tailwind", s.Frameworks.Tailwind},
		{"bootstrap", s.Frameworks.Bootstrap},
		{"react", s.Frameworks.React},
		{"vue", s.Frameworks.Vue},
		{"materialUI", s.Frameworks.MaterialUI},
	}
	var detected []named
	for _, f := range all {
		if f.signal.Detected {
			detected = append(detected, f)
		}
	}
	if len(detected) == 0 {
		return
	}
	b.WriteString("DETECTED FRAMEWORKS/LIBRARIES\n")
	b.WriteString("-----------------------------\n")
	for _, f := range detected {
		fmt.Fprintf(b, "+ %s", strings.ToUpper(f.name))
		if len(f.signal.Selectors) > 0 {
			fmt.Fprintf(b, " - use selectors: %s", join(head(f.signal.Selectors, 5)))
		}
		b.WriteString("\n")
	}
	b.WriteString("\nUse framework-specific selectors for better targeting!\n\n")
}

func writeCSSInJS(b *strings.Builder, s *analyzer.Snapshot) {
	if !s.CSSInJS.Detected {
		return
	}
	fmt.Fprintf(b, `WARNING: CSS-IN-JS DETECTED (%s)
------------------------------------------
This site uses hashed/generated class names that may change.
PREFER: [data-testid], [aria-label], [role], semantic elements
AVOID: Targeting classes like .css-*, .sc-*, .r-* directly

`, join(s.CSSInJS.Patterns))
}

func writeMediaQueries(b *strings.Builder, s *analyzer.Snapshot) {
	if len(s.MediaQueries.Breakpoints) == 0 {
		return
	}
	b.WriteString("RESPONSIVE BREAKPOINTS\n")
	b.WriteString("---------------------\n")
	b.WriteString(join(s.MediaQueries.Breakpoints) + "\n")
	if s.MediaQueries.Features.PrefersColorScheme {
		b.WriteString("+ Site supports prefers-color-scheme\n")
	}
	if s.MediaQueries.Features.PrefersReducedMotion {
		b.WriteString("+ Site respects prefers-reduced-motion\n")
	}
	b.WriteString("\nConsider these breakpoints for responsive theming.\n\n")
}

func writeAnimations(b *strings.Builder, s *analyzer.Snapshot) {
	if len(s.Animations.Keyframes) == 0 && !s.Animations.HasTransitions {
		return
	}
	b.WriteString("ANIMATIONS & TRANSITIONS\n")
	b.WriteString("-----------------------\n")
	if len(s.Animations.Keyframes) > 0 {
		fmt.Fprintf(b, "Keyframes: %s\n", join(s.Animations.Keyframes))
	}
	if s.Animations.HasTransitions {
		b.WriteString("+ Has CSS transitions - preserve or enhance them\n")
	}
	b.WriteString("\n")
}

func writeLayers(b *strings.Builder, s *analyzer.Snapshot) {
	if s.Layers.Max <= 0 {
		return
	}
	b.WriteString("Z-INDEX LAYERS (for modals/overlays)\n")
	b.WriteString("-----------------------------------\n")
	fmt.Fprintf(b, "Max z-index: %d\n", s.Layers.Max)
	var cats []string
	for _, cat := range []string{"modal", "dropdown", "tooltip", "sticky", "toast"} {
		if z, ok := s.Layers.Categories[cat]; ok {
			cats = append(cats, fmt.Sprintf("%s: %d", cat, z))
		}
	}
	if len(cats) > 0 {
		b.WriteString(join(cats) + "\n")
	}
	b.WriteString("\nUse appropriate z-index values to maintain layer hierarchy.\n\n")
}

func writeCSSVariables(b *strings.Builder, s *analyzer.Snapshot) {
	if len(s.CSSVariables) == 0 {
		return
	}
	b.WriteString("CSS VARIABLES (can override these directly)\n")
	b.WriteString("------------------------------------------\n")
	for _, name := range sortedKeys(s.CSSVariables) {
		fmt.Fprintf(b, "%s: %s\n", name, s.CSSVariables[name])
	}
	b.WriteString("\n")
}

func writeStructure(b *strings.Builder, s *analyzer.Snapshot) {
	b.WriteString("PAGE FEATURES\n")
	b.WriteString("-------------\n")
	if s.Structure.HasCards {
		b.WriteString("+ Has cards/panels - style .card and similar\n")
	}
	if s.Structure.HasTables {
		b.WriteString("+ Has tables - style table elements\n")
	}
	if s.Structure.HasModals {
		b.WriteString("+ Has modals - style .modal, [role=\"dialog\"]\n")
	}
	if s.Structure.HasForms {
		b.WriteString("+ Has forms - style form elements thoroughly\n")
	}
	if s.Structure.HasCode {
		b.WriteString("+ Has code blocks - style pre, code elements\n")
	}
	if s.Structure.HasImages {
		b.WriteString("+ Has images - preserve visibility, maybe add subtle treatment\n")
	}
	b.WriteString("\n")
}

func writeElementCoverage(b *strings.Builder, s *analyzer.Snapshot) {
	if len(s.ElementTypes) > 0 {
		fmt.Fprintf(b, "ELEMENT TYPES TO STYLE (%d types found)\n", len(s.ElementTypes))
		b.WriteString("-----------------------------------------\n")
		b.WriteString(join(s.ElementTypes) + "\n")
		b.WriteString("\nStyle ALL of these element types for complete coverage.\n\n")
	}

	cats := s.ElementCategories
	var info []string
	if len(cats.Typography) > 0 {
		info = append(info, "Typography: "+join(cats.Typography))
	}
	if len(cats.Semantic) > 0 {
		info = append(info, "Semantic: "+join(cats.Semantic))
	}
	if len(cats.Media) > 0 {
		info = append(info, "Media: "+join(cats.Media))
	}
	if len(cats.Lists) > 0 {
		info = append(info, "Lists: "+join(cats.Lists))
	}
	if len(info) > 0 {
		b.WriteString("ELEMENT CATEGORIES\n")
		b.WriteString("------------------\n")
		b.WriteString(strings.Join(info, "\n") + "\n\n")
	}
}

func writeIcons(b *strings.Builder, s *analyzer.Snapshot) {
	svgs, fonts := s.Icons.SVGs, s.Icons.Fonts
	if svgs.Count == 0 && !fonts.Detected {
		return
	}
	b.WriteString("ICONS DETECTED\n")
	b.WriteString("--------------\n")
	if svgs.Count > 0 {
		fmt.Fprintf(b, "+ SVG icons: %d found", svgs.Count)
		if len(svgs.Sizes) > 0 {
			fmt.Fprintf(b, " (sizes: %s)", join(head(svgs.Sizes, 5)))
		}
		if svgs.HasSprite {
			b.WriteString(" [uses sprite]")
		}
		b.WriteString("\n")
	}
	if fonts.Detected && len(fonts.Libraries) > 0 {
		fmt.Fprintf(b, "+ Icon fonts: %s\n", join(fonts.Libraries))
	}
	if len(s.Icons.Recommendations) > 0 {
		b.WriteString("\nTips:\n")
		for _, r := range s.Icons.Recommendations {
			fmt.Fprintf(b, "- %s\n", r)
		}
	}
	b.WriteString("\n")
}

func writeForms(b *strings.Builder, s *analyzer.Snapshot) {
	f := s.Forms
	if len(f.InputTypes) == 0 {
		return
	}
	b.WriteString("FORM ELEMENTS (comprehensive styling needed)\n")
	b.WriteString("--------------------------------------------\n")
	fmt.Fprintf(b, "Input types: %s\n", join(f.InputTypes))
	if f.States.HasRequired {
		b.WriteString("+ Has required fields - style :required, :invalid\n")
	}
	if f.States.HasDisabled {
		b.WriteString("+ Has disabled fields - style :disabled\n")
	}
	if f.States.HasPlaceholder {
		b.WriteString("+ Has placeholders - style ::placeholder\n")
	}
	if f.Structure.HasFieldsets {
		b.WriteString("+ Has fieldset/legend - style these elements\n")
	}
	if f.Selects.HasMultiple {
		b.WriteString("+ Has multi-select - style select[multiple]\n")
	}
	if f.Groups.RadioGroups > 0 {
		fmt.Fprintf(b, "+ Has %d radio group(s)\n", f.Groups.RadioGroups)
	}
	if f.Groups.CheckboxCount > 0 {
		fmt.Fprintf(b, "+ Has %d checkbox(es)\n", f.Groups.CheckboxCount)
	}
	if f.HasDatalist {
		b.WriteString("+ Has datalist - style datalist, option\n")
	}
	fmt.Fprintf(b, "\nSelectors: %s\n\n", join(head(f.Selectors, 15)))
}

func writeColorAnalysis(b *strings.Builder, s *analyzer.Snapshot) {
	h := s.ColorHarmony
	b.WriteString("COLOR ANALYSIS\n")
	b.WriteString("--------------\n")
	fmt.Fprintf(b, "Scheme type: %s\n", orElse(h.Scheme, "mixed"))
	fmt.Fprintf(b, "Dominant colors: %s\n", orElse(join(head(h.Dominant, 5)), "various"))
	if h.Roles.Primary != "" {
		fmt.Fprintf(b, "Primary/accent: %s\n", h.Roles.Primary)
	}
	if h.Semantic.Success != "" {
		fmt.Fprintf(b, "Semantic - Success: %s, Error: %s, Warning: %s\n",
			h.Semantic.Success, h.Semantic.Error, h.Semantic.Warning)
	}
	if h.HasIssues {
		b.WriteString("WARNING: Contrast issues detected - ensure WCAG AA compliance\n")
	}
	b.WriteString("\nUse this color information to create a harmonious theme that respects the site's existing palette or transforms it cohesively.\n\n")
}

func writePseudoElements(b *strings.Builder, s *analyzer.Snapshot) {
	p := s.PseudoElements
	if p.Count == 0 {
		return
	}
	fmt.Fprintf(b, "PSEUDO-ELEMENTS (%d found)\n", p.Count)
	b.WriteString("--------------------------------------------\n")
	if len(p.Before) > 0 {
		fmt.Fprintf(b, "::before elements: %s\n", join(selectorsOf(head(p.Before, 5))))
	}
	if len(p.After) > 0 {
		fmt.Fprintf(b, "::after elements: %s\n", join(selectorsOf(head(p.After, 5))))
	}
	if p.HasPlaceholders {
		b.WriteString("+ Has input placeholders - style ::placeholder\n")
	}
	b.WriteString("\nStyle these pseudo-elements to match the theme. Use appropriate colors for ::before/::after content.\n\n")
}

func writeInheritance(b *strings.Builder, s *analyzer.Snapshot) {
	inh := s.Inheritance
	b.WriteString("STYLE INHERITANCE\n")
	b.WriteString("-----------------\n")
	root := inh.RootStyles
	font, _, _ := strings.Cut(root.FontFamily, ",")
	fmt.Fprintf(b, "Root font: %s\n", orElse(strings.TrimSpace(font), "system default"))
	fmt.Fprintf(b, "Root color: %s\n", orElse(root.Color, "default"))
	fmt.Fprintf(b, "Root line-height: %s\n", orElse(root.LineHeight, "default"))
	if len(inh.FontChain) > 0 {
		var fonts []string
		for _, f := range head(inh.FontChain, 3) {
			fonts = append(fonts, f.FontFamily)
		}
		fmt.Fprintf(b, "Font chain: %s\n", strings.Join(fonts, " -> "))
	}
	b.WriteString("\nConsider the inheritance chain when setting base styles. Override at root level for broad changes.\n\n")
}

func writeSpacing(b *strings.Builder, s *analyzer.Snapshot) {
	sp := s.Spacing
	if len(sp.Scale) == 0 {
		return
	}
	b.WriteString("SPACING SYSTEM\n")
	b.WriteString("--------------\n")
	fmt.Fprintf(b, "Detected scale: %spx\n", joinInts(head(sp.Scale, 8)))
	fmt.Fprintf(b, "Common values: %spx\n", joinInts(head(sp.Common, 5)))
	if len(sp.Padding) > 0 {
		fmt.Fprintf(b, "Padding range: %dpx - %dpx\n", minInt(sp.Padding), maxInt(sp.Padding))
	}
	if len(sp.Gap) > 0 {
		fmt.Fprintf(b, "Grid/flex gaps: %spx\n", joinInts(sp.Gap))
	}
	b.WriteString("\nUse consistent spacing values from this scale for a cohesive layout.\n\n")
}

func writeTypographyScale(b *strings.Builder, s *analyzer.Snapshot) {
	ts := s.TypoScale
	b.WriteString("TYPOGRAPHY SCALE\n")
	b.WriteString("----------------\n")
	base := ts.Base
	if base == 0 {
		base = 16
	}
	fmt.Fprintf(b, "Base font size: %dpx\n", base)
	if ts.Ratio > 0 {
		fmt.Fprintf(b, "Scale ratio: %.2f\n", ts.Ratio)
	} else {
		b.WriteString("Scale ratio: varies\n")
	}
	if len(ts.Headings) > 0 {
		fmt.Fprintf(b, "Heading sizes: h1=%s, h2=%s, h3=%s\n",
			headingSize(ts.Headings, "h1"), headingSize(ts.Headings, "h2"), headingSize(ts.Headings, "h3"))
	}
	if len(ts.LineHeights) > 0 {
		fmt.Fprintf(b, "Line heights: %s\n", join(head(ts.LineHeights, 5)))
	}
	if len(ts.FontWeights) > 0 {
		fmt.Fprintf(b, "Font weights: %s\n", join(ts.FontWeights))
	}
	b.WriteString("\nMaintain this typographic hierarchy for visual consistency.\n\n")
}

func writeBorderShadow(b *strings.Builder, s *analyzer.Snapshot) {
	bs := s.BorderShadow
	b.WriteString("BORDER & SHADOW PATTERNS\n")
	b.WriteString("------------------------\n")
	var radius []string
	if bs.RadiusCategories.Small > 0 {
		radius = append(radius, "small (up to 4px)")
	}
	if bs.RadiusCategories.Medium > 0 {
		radius = append(radius, "medium (up to 12px)")
	}
	if bs.RadiusCategories.Large > 0 {
		radius = append(radius, "large")
	}
	if bs.RadiusCategories.Pill > 0 {
		radius = append(radius, "pill")
	}
	if len(radius) > 0 {
		fmt.Fprintf(b, "Border radius scale: %s\n", join(radius))
	} else {
		b.WriteString("Border radius: none detected\n")
	}
	if bs.ShadowLevels.Subtle > 0 {
		b.WriteString("+ Has subtle shadows\n")
	}
	if bs.ShadowLevels.Medium > 0 {
		b.WriteString("+ Has medium shadows\n")
	}
	if bs.ShadowLevels.Strong > 0 {
		b.WriteString("+ Has strong shadows\n")
	}
	if len(bs.BorderStyles) > 0 {
		fmt.Fprintf(b, "Border styles: %s\n", join(head(bs.BorderStyles, 3)))
	}
	b.WriteString("\nMatch the site's border-radius and shadow patterns for consistent styling.\n\n")
}

func fixedTag(fixed bool) string {
	if fixed {
		return " [FIXED/STICKY]"
	}
	return ""
}

func headingSize(headings map[string]analyzer.HeadingStyle, tag string) string {
	if h, ok := headings[tag]; ok && h.FontSize > 0 {
		return fmt.Sprintf("%dpx", h.FontSize)
	}
	return "default"
}

func selectorsOf(ps []analyzer.PseudoElement) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Selector
	}
	return out
}

func join(s []string) string { return strings.Join(s, ", ") }

func joinInts(s []int) string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}

func minInt(s []int) int {
	m := s[0]
	for _, v := range s[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxInt(s []int) int {
	m := s[0]
	for _, v := range s[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
