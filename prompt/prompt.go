// Package prompt renders analysis snapshots into the system and user
// prompts for theme generation and refinement.
package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"paintbrush/analyzer"
)

// ExistingTheme carries the context needed to refine a theme in place.
type ExistingTheme struct {
	Prompt string
	CSS    string
}

// Correction is a rejected/accepted prompt pair from theme history. Recent
// corrections steer generation away from approaches the user undid.
type Correction struct {
	Rejected string
	Accepted string
}

const (
	maxSnapshotLines = 40
	maxExistingCSS   = 8000
)

var (
	hidingRe   = regexp.MustCompile(`(?i)hide|remove|block|delete|no more|get rid|disable`)
	targetedRe = regexp.MustCompile(`(?i)just|only|specifically|the links|the buttons|the header|this button`)
)

// Build constructs the full-generation prompt pair.
func Build(userRequest string, s *analyzer.Snapshot, existing *ExistingTheme, corrections []Correction) (system, user string) {
	return systemPrompt, buildUserPrompt(userRequest, s, existing, corrections)
}

// BuildRefinement constructs the prompt pair for modifying an existing
// theme. The existing CSS is included verbatim so the model returns the
// complete updated stylesheet rather than a fragment.
func BuildRefinement(request string, s *analyzer.Snapshot, existing ExistingTheme, corrections []Correction) (system, user string) {
	isHiding := hidingRe.MatchString(request)
	isTargeted := targetedRe.MatchString(request)

	var sys strings.Builder
	sys.WriteString(`You are a CSS expert making targeted refinements to an existing website theme.

CRITICAL RULES:
1. Output ONLY valid CSS code - no explanations, no markdown
2. PRESERVE the existing theme - start with the existing CSS and make targeted additions/modifications
3. For HIDING elements (ads, banners, popups): add "display: none !important" rules
4. For TARGETED changes: modify only the specific selectors mentioned, keep everything else
5. The existing CSS is working well - don't break it by removing styles
`)
	if isHiding {
		sys.WriteString(`
AD/ELEMENT HIDING TIPS:
- Use [class*="ad"], [id*="ad"], [class*="sponsor"], [class*="promo"] patterns
- Target common ad containers: .ad, .ads, .advertisement, .banner-ad
- Hide newsletter popups: [class*="newsletter"], [class*="subscribe"], [class*="popup"]
- Hide cookie banners: [class*="cookie"], [class*="consent"], [class*="gdpr"]
- Always use display: none !important for hiding
`)
	}
	sys.WriteString(`
OUTPUT APPROACH:
1. Include ALL the existing CSS first (keeping the theme intact)
2. Then ADD your new/modified rules at the end
3. If modifying existing selectors, override with new values`)

	existingCSS := existing.CSS
	if len(existingCSS) > maxExistingCSS {
		existingCSS = existingCSS[:maxExistingCSS] + "\n/* ... truncated ... */"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `EXISTING THEME (KEEP THIS - it's working well)
=============================================
Original request: %q

EXISTING CSS:
`+"```css\n%s\n```"+`

SITE: %s

`, existing.Prompt, existingCSS, s.Hostname)

	if len(s.TestIDs) > 0 {
		b.WriteString("AVAILABLE TESTID SELECTORS (use for precise targeting)\n")
		b.WriteString("-----------------------------------------------------\n")
		for _, id := range head(s.TestIDs, 20) {
			fmt.Fprintf(&b, "[data-testid=%q]\n", id)
		}
		b.WriteString("\n")
	}

	if isTargeted && len(s.ElementContext) > 0 {
		var relevant []analyzer.ElementContext
		for _, e := range s.ElementContext {
			if e.TestID != "" || e.AriaLabel != "" {
				relevant = append(relevant, e)
				if len(relevant) == 15 {
					break
				}
			}
		}
		if len(relevant) > 0 {
			b.WriteString("INTERACTIVE ELEMENTS (for targeted changes)\n")
			b.WriteString("------------------------------------------\n")
			for _, e := range relevant {
				fmt.Fprintf(&b, "%s - %s (%dx%dpx)", e.Selector, e.Tag, e.Size.Width, e.Size.Height)
				if e.ParentContext != "" {
					fmt.Fprintf(&b, " in [%s]", e.ParentContext)
				}
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}

	if len(corrections) > 0 {
		b.WriteString("PAST CORRECTIONS (user undid these - avoid similar)\n")
		b.WriteString("-------------------------------------------------\n")
		for _, c := range tail(corrections, 3) {
			fmt.Fprintf(&b, "- Rejected: %q\n", c.Rejected)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, `USER'S REFINEMENT REQUEST
=========================
%q

Generate the COMPLETE updated CSS. Start with the existing CSS above, then add/modify rules to fulfill the refinement request. Keep the overall theme intact. Output only CSS.`, request)

	return sys.String(), b.String()
}

// SummarizeCSS produces a short description of a stylesheet for history
// display and refinement context.
func SummarizeCSS(css string) string {
	colorRe := regexp.MustCompile(`#[0-9a-fA-F]{3,6}|rgba?\([^)]+\)`)
	var colors []string
	seen := map[string]bool{}
	for _, c := range colorRe.FindAllString(css, -1) {
		if !seen[c] {
			seen[c] = true
			colors = append(colors, c)
			if len(colors) == 8 {
				break
			}
		}
	}

	selRe := regexp.MustCompile(`[^{}]+\{`)
	var selectors []string
	for _, m := range selRe.FindAllString(css, 10) {
		selectors = append(selectors, strings.TrimSpace(strings.TrimSuffix(m, "{")))
	}

	return fmt.Sprintf("Colors used: %s\nSelectors styled: %s...\n(%d chars total)",
		strings.Join(colors, ", "), strings.Join(selectors, ", "), len(css))
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func tail[T any](s []T, n int) []T {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}

func orElse(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
