// Package css cleans, repairs and validates model-generated stylesheets
// before they touch a page. Model output routinely arrives wrapped in
// markdown fences or prose, with unbalanced braces near the token limit.
package css

import (
	"regexp"
	"sort"
	"strings"
)

var (
	fenceOpenRe  = regexp.MustCompile("(?i)```css\n?")
	fenceCloseRe = regexp.MustCompile("```\n?")

	cssStartRe     = regexp.MustCompile(`(?m)^\s*[a-zA-Z*#.:\[\]@]`)
	proseLeadRe    = regexp.MustCompile(`\n\s*[a-zA-Z*#.:\[\]@][^{]*\{`)
	emptyRuleRe    = regexp.MustCompile(`[^{}]+\{\s*\}`)
	repeatSemiRe   = regexp.MustCompile(`;+`)
	missingSemiRe  = regexp.MustCompile(`([^;{}\s])\s*\}`)
	doubleBraceRe  = regexp.MustCompile(`\{\s*\{`)
	colorLiteralRe = regexp.MustCompile(`#[0-9a-fA-F]{3,8}\b|rgba?\([^)]+\)|hsla?\([^)]+\)`)
)

// Clean strips markdown fences and leading explanation prose, leaving bare
// CSS text.
func Clean(css string) string {
	css = fenceOpenRe.ReplaceAllString(css, "")
	css = fenceCloseRe.ReplaceAllString(css, "")

	// Explanation text before the stylesheet pushes the first brace far out.
	firstBrace := strings.Index(css, "{")
	if firstBrace > 50 {
		if loc := cssStartRe.FindStringIndex(css); loc != nil && loc[0] < firstBrace {
			css = css[loc[0]:]
		}
	}
	css = strings.TrimSpace(css)

	if strings.HasPrefix(css, "Here") || strings.HasPrefix(css, "I ") || strings.HasPrefix(css, "The ") {
		if loc := proseLeadRe.FindStringIndex(css); loc != nil {
			css = strings.TrimSpace(css[loc[0]:])
		}
	}
	return css
}

// Repair balances braces and fixes the common syntax damage of truncated
// output: extra closing braces are dropped, missing ones appended, empty
// rules removed, semicolons normalized.
func Repair(css string) string {
	var b strings.Builder
	open := 0
	inString := false
	var stringChar byte

	for i := 0; i < len(css); i++ {
		ch := css[i]

		// Braces inside quoted strings (content: "{") do not count.
		if ch == '"' || ch == '\'' {
			escaped := i > 0 && css[i-1] == '\\'
			if !escaped {
				if !inString {
					inString = true
					stringChar = ch
				} else if ch == stringChar {
					inString = false
				}
			}
		}

		if !inString {
			switch ch {
			case '{':
				open++
			case '}':
				if open == 0 {
					continue
				}
				open--
			}
		}
		b.WriteByte(ch)
	}

	repaired := b.String()
	if open > 0 {
		repaired += strings.Repeat("}", open)
	}

	repaired = emptyRuleRe.ReplaceAllString(repaired, "")
	repaired = repeatSemiRe.ReplaceAllString(repaired, ";")
	repaired = missingSemiRe.ReplaceAllString(repaired, "$1; }")
	return repaired
}

// Validate runs the structural sanity checks that distinguish a usable
// stylesheet from prose or a refusal. Repair should run first.
func Validate(css string) bool {
	if strings.Count(css, "{") != strings.Count(css, "}") {
		return false
	}
	if doubleBraceRe.MatchString(css) {
		return false
	}
	if len(css) < 100 {
		return false
	}
	return true
}

// DominantColors returns the three most-used color literals, lowercased,
// ranked by occurrence count. Ties break toward first appearance. Used for
// theme swatch previews.
func DominantColors(css string) []string {
	counts := map[string]int{}
	var order []string
	for _, m := range colorLiteralRe.FindAllString(css, -1) {
		key := strings.ToLower(m)
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > 3 {
		order = order[:3]
	}
	return order
}
