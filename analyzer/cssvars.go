package analyzer

import (
	"regexp"

	"paintbrush/dom"
)

// Variable names frameworks and design systems conventionally use for
// theme colors. These are kept even when their values are not colors.
var wellKnownVars = map[string]bool{
	"--background": true, "--bg": true, "--foreground": true, "--fg": true,
	"--primary": true, "--secondary": true, "--accent": true, "--muted": true,
	"--text": true, "--text-primary": true, "--text-secondary": true,
	"--border": true, "--border-color": true,
	"--color-bg": true, "--color-text": true, "--color-primary": true,
	"--theme-bg": true, "--theme-text": true, "--theme-primary": true,
	"--radius": true, "--border-radius": true,
}

var colorValueRe = regexp.MustCompile(`(?i)^(#|rgb|hsl|var\(--|white|black|gray|grey|red|blue|green|transparent)`)

// extractCSSVariables keeps the root-scope custom properties worth
// overriding: the conventional theme names plus anything color-valued.
func extractCSSVariables(p *dom.Page) map[string]string {
	if len(p.RootVars) == 0 {
		return nil
	}
	vars := map[string]string{}
	for name, value := range p.RootVars {
		if wellKnownVars[name] || looksLikeColor(value) {
			vars[name] = value
		}
	}
	if len(vars) == 0 {
		return nil
	}
	return vars
}

func looksLikeColor(value string) bool {
	return colorValueRe.MatchString(value)
}
