// Package analyzer extracts a page's visual identity from a captured DOM
// view: colors, typography, spacing, structure, frameworks, and targeting
// hooks. All detectors are pure functions over dom.Page, so analysis of the
// same capture always yields the same Snapshot.
package analyzer

import (
	"log/slog"
	"time"

	"paintbrush/dom"
)

// Analyzer runs the full detector suite over a captured page.
type Analyzer struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Analyzer {
	if log == nil {
		log = slog.Default()
	}
	return &Analyzer{log: log}
}

// Analyze runs every detector and assembles the snapshot. Detectors only
// read the page, so a failure in the input surfaces as empty sections
// rather than a partial snapshot.
func (a *Analyzer) Analyze(p *dom.Page) *Snapshot {
	start := time.Now()

	s := &Snapshot{
		URL:      p.URL,
		Hostname: p.Hostname,
		Path:     p.Path,
		Title:    p.Title,
	}

	s.Colors = sampleColors(p)
	s.ColorHarmony = analyzeColorHarmony(p)
	s.Selectors = detectSelectors(p)
	s.Structure = analyzeStructure(p)
	s.Typography = analyzeTypography(p)
	s.CSSVariables = extractCSSVariables(p)

	s.TestIDs = extractTestIDs(p)
	s.TestIDsByTag = extractTestIDsByTag(p)
	s.AriaLabels = extractAriaLabels(p)
	s.DOMSnapshot = generateDOMSnapshot(p)
	s.ElementContext = extractElementContext(p)

	s.Frameworks = detectFrameworks(p)
	s.CSSInJS = detectCSSInJS(p)
	s.MediaQueries = extractMediaQueries(p)
	s.Animations = detectAnimations(p)
	s.ShadowDOM = detectShadowDOM(p)
	s.Layers = extractLayers(p)

	s.ElementTypes = extractElementTypes(p)
	s.ElementCounts = countElements(p)
	s.ElementCategories = categorizeElements(s.ElementTypes)

	s.Icons = detectIcons(p)
	s.Forms = detectForms(p)
	s.PseudoElements = detectPseudoElements(p)
	s.Inheritance = trackInheritance(p)
	s.Spacing = detectSpacing(p)
	s.TypoScale = detectTypographyScale(p)
	s.BorderShadow = detectBorderShadow(p)

	s.Duration = time.Since(start)
	a.log.Debug("page analyzed",
		"hostname", p.Hostname,
		"elements", len(p.Elements),
		"duration", s.Duration)
	return s
}
