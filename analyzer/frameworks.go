package analyzer

import (
	"math"
	"regexp"
	"strings"

	"paintbrush/dom"
)

var tailwindPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(flex|grid|block|inline|hidden)$`),
	regexp.MustCompile(`^(p|m|px|py|mx|my|pt|pb|pl|pr|mt|mb|ml|mr)-\d+$`),
	regexp.MustCompile(`^(bg|text|border)-(gray|red|blue|green|yellow|purple|pink|indigo)-\d{2,3}$`),
	regexp.MustCompile(`^(w|h|min-w|min-h|max-w|max-h)-`),
	regexp.MustCompile(`^(rounded|shadow|opacity|z)-`),
	regexp.MustCompile(`^(sm|md|lg|xl|2xl):`),
	regexp.MustCompile(`^dark:`),
}

var bootstrapPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^btn(-\w+)?$`),
	regexp.MustCompile(`^col(-\w+)?(-\d+)?$`),
	regexp.MustCompile(`^row$`),
	regexp.MustCompile(`^container(-fluid)?$`),
	regexp.MustCompile(`^navbar(-\w+)?$`),
	regexp.MustCompile(`^nav(-\w+)?$`),
	regexp.MustCompile(`^card(-\w+)?$`),
	regexp.MustCompile(`^modal(-\w+)?$`),
	regexp.MustCompile(`^alert(-\w+)?$`),
	regexp.MustCompile(`^form-\w+$`),
	regexp.MustCompile(`^d-(none|flex|block|inline)$`),
	regexp.MustCompile(`^(mt|mb|ms|me|mx|my|pt|pb|ps|pe|px|py)-\d$`),
}

var cssModuleRe = regexp.MustCompile(`^[a-zA-Z]+_[a-zA-Z]+__[a-zA-Z0-9-]+$`)
var emotionRe = regexp.MustCompile(`^css-[a-z0-9]+$`)

// allClasses returns every distinct class name in use, in first-seen order.
func allClasses(p *dom.Page) []string {
	seen := map[string]bool{}
	var out []string
	for i := range p.Elements {
		for _, c := range p.Elements[i].Classes {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// matchClassPatterns counts classes matching any pattern and captures up to
// ten as selectors for operator visibility.
func matchClassPatterns(classes []string, patterns []*regexp.Regexp) (int, []string) {
	matches := 0
	var selectors []string
	for _, cls := range classes {
		for _, pat := range patterns {
			if pat.MatchString(cls) {
				matches++
				if len(selectors) < 10 {
					selectors = append(selectors, "."+cls)
				}
				break
			}
		}
	}
	return matches, selectors
}

// detectFrameworks fingerprints the known CSS frameworks and component
// libraries from class naming conventions and telltale DOM hooks.
func detectFrameworks(p *dom.Page) Frameworks {
	classes := allClasses(p)
	return Frameworks{
		Tailwind:   detectTailwind(classes),
		Bootstrap:  detectBootstrap(p, classes),
		React:      detectReact(p, classes),
		Vue:        detectVue(p),
		MaterialUI: detectMaterialUI(p),
	}
}

func detectTailwind(classes []string) FrameworkSignal {
	matches, selectors := matchClassPatterns(classes, tailwindPatterns)
	return FrameworkSignal{
		Detected:   matches >= 5,
		Confidence: math.Min(float64(matches)/10, 1),
		Selectors:  selectors,
	}
}

func detectBootstrap(p *dom.Page, classes []string) FrameworkSignal {
	matches, selectors := matchClassPatterns(classes, bootstrapPatterns)
	hasDataBs := false
	for i := range p.Elements {
		el := &p.Elements[i]
		if el.HasAttr("data-bs-toggle") || el.HasAttr("data-bs-target") {
			hasDataBs = true
			break
		}
	}
	return FrameworkSignal{
		Detected:   matches >= 5 || hasDataBs,
		Confidence: math.Min(float64(matches)/10, 1),
		Selectors:  selectors,
	}
}

func detectReact(p *dom.Page, classes []string) FrameworkSignal {
	hasReactRoot, hasReactFiber, hasRootDiv := false, false, false
	for i := range p.Elements {
		el := &p.Elements[i]
		if el.HasAttr("data-reactroot") || el.HasAttr("data-react-root") {
			hasReactRoot = true
		}
		if el.HasAttr("data-reactid") {
			hasReactFiber = true
		}
		if el.ID == "root" || el.ID == "__next" {
			hasRootDiv = true
		}
	}
	moduleClasses := 0
	for _, c := range classes {
		if cssModuleRe.MatchString(c) || emotionRe.MatchString(c) {
			moduleClasses++
		}
	}
	var selectors []string
	if hasRootDiv {
		selectors = append(selectors, "#root")
	}
	if hasReactRoot {
		selectors = append(selectors, "[data-reactroot]")
	}
	confidence := 0.0
	if hasReactRoot {
		confidence += 0.5
	}
	if hasReactFiber {
		confidence += 0.3
	}
	if moduleClasses > 3 {
		confidence += 0.2
	}
	return FrameworkSignal{
		Detected:   hasReactRoot || hasReactFiber || (hasRootDiv && moduleClasses > 3),
		Confidence: confidence,
		Selectors:  selectors,
	}
}

func detectVue(p *dom.Page) FrameworkSignal {
	hasVueAttrs, hasVuetify := false, false
	for i := range p.Elements {
		el := &p.Elements[i]
		for name := range el.Attrs {
			if strings.HasPrefix(name, "data-v-") {
				hasVueAttrs = true
				break
			}
		}
		if el.HasClass("v-application") || el.HasClass("v-btn") || el.HasClass("v-card") {
			hasVuetify = true
		}
	}
	confidence := 0.0
	if hasVueAttrs {
		confidence += 0.4
	}
	if hasVuetify {
		confidence += 0.3
	}
	selectors := []string{"#app"}
	if hasVuetify {
		selectors = []string{".v-application", ".v-btn", ".v-card"}
	}
	return FrameworkSignal{
		Detected:   hasVueAttrs || hasVuetify,
		Confidence: confidence,
		Selectors:  selectors,
	}
}

func detectMaterialUI(p *dom.Page) FrameworkSignal {
	count := 0
	muiClasses := newCounter[string]()
	for i := range p.Elements {
		el := &p.Elements[i]
		matched := false
		for _, c := range el.Classes {
			if strings.HasPrefix(c, "Mui") {
				matched = true
				muiClasses.Add(c)
			}
		}
		if matched {
			count++
		}
	}
	var selectors []string
	for _, c := range muiClasses.Top(10) {
		selectors = append(selectors, "."+c)
	}
	return FrameworkSignal{
		Detected:   count >= 3,
		Confidence: math.Min(float64(count)/20, 1),
		Selectors:  selectors,
	}
}

// CSS-in-JS hashed-class families. Each contributes past its own count
// threshold; the generic family needs a stronger signal.
var (
	styledComponentsRe = regexp.MustCompile(`^sc-[a-zA-Z]`)
	genericHashedRe    = regexp.MustCompile(`(?i)^(r-[a-z0-9]+|css-\d+[a-z]+)$`)
)

// detectCSSInJS looks for build-tool generated class names that are unstable
// across builds and therefore poor styling targets.
func detectCSSInJS(p *dom.Page) CSSInJS {
	classes := allClasses(p)
	countMatching := func(re *regexp.Regexp) int {
		n := 0
		for _, c := range classes {
			if re.MatchString(c) {
				n++
			}
		}
		return n
	}

	var patterns []string
	hashed := 0
	if n := countMatching(styledComponentsRe); n > 2 {
		patterns = append(patterns, "styled-components")
		hashed += n
	}
	if n := countMatching(emotionRe); n > 2 {
		patterns = append(patterns, "emotion")
		hashed += n
	}
	if n := countMatching(cssModuleRe); n > 2 {
		patterns = append(patterns, "css-modules")
		hashed += n
	}
	if n := countMatching(genericHashedRe); n > 5 {
		patterns = append(patterns, "generic-hashed")
		hashed += n
	}

	detected := len(patterns) > 0 || hashed > 10
	result := CSSInJS{
		Detected:         detected,
		Patterns:         patterns,
		HashedClassCount: hashed,
	}
	if detected {
		result.Recommendation = "use-testid"
	}
	return result
}
