package analyzer

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"paintbrush/dom"
)

const animationScanLimit = 300

var widthQueryRe = regexp.MustCompile(`(?:min|max)-width:\s*(\d+)px`)

// extractMediaQueries pulls breakpoints and preference features from the
// accessible stylesheets. Inaccessible sheets are silently skipped.
func extractMediaQueries(p *dom.Page) MediaQueries {
	var mq MediaQueries
	seen := map[int]bool{}
	var widths []int
	for _, sheet := range p.Sheets {
		if !sheet.Accessible {
			continue
		}
		for _, cond := range sheet.Media {
			for _, m := range widthQueryRe.FindAllStringSubmatch(cond, -1) {
				w, err := strconv.Atoi(m[1])
				if err != nil || seen[w] {
					continue
				}
				seen[w] = true
				widths = append(widths, w)
			}
			if strings.Contains(cond, "prefers-color-scheme") {
				mq.Features.PrefersColorScheme = true
			}
			if strings.Contains(cond, "prefers-reduced-motion") {
				mq.Features.PrefersReducedMotion = true
			}
			if strings.Contains(cond, "prefers-contrast") {
				mq.Features.PrefersContrast = true
			}
		}
	}
	sort.Ints(widths)
	for _, w := range widths {
		mq.Breakpoints = append(mq.Breakpoints, strconv.Itoa(w)+"px")
	}
	return mq
}

// detectAnimations unions keyframe names from accessible stylesheets with a
// bounded scan for elements carrying a running animation or a non-trivial
// transition.
func detectAnimations(p *dom.Page) Animations {
	var anim Animations
	seen := map[string]bool{}
	for _, sheet := range p.Sheets {
		if !sheet.Accessible {
			continue
		}
		for _, name := range sheet.Keyframes {
			if !seen[name] {
				seen[name] = true
				anim.Keyframes = append(anim.Keyframes, name)
			}
		}
	}

	sample := p.Sample(animationScanLimit)
	for i := range sample {
		el := &sample[i]
		if name := el.StyleOf("animation-name"); name != "" && name != "none" {
			anim.AnimatedElements = append(anim.AnimatedElements, AnimatedElement{
				Selector:  dom.BuildSelector(el),
				Animation: name,
			})
		}
		if tr := el.StyleOf("transition"); tr != "" && tr != "none" && tr != "all 0s ease 0s" {
			anim.HasTransitions = true
		}
	}
	anim.AnimatedElements = truncate(anim.AnimatedElements, 20)
	return anim
}

// detectShadowDOM walks the full captured tree; shadow roots are rare enough
// that this scan is unbounded.
func detectShadowDOM(p *dom.Page) ShadowDOM {
	var sd ShadowDOM
	for i := range p.Elements {
		el := &p.Elements[i]
		if !el.ShadowRoot {
			continue
		}
		sd.Count++
		if len(sd.Hosts) < 10 {
			sd.Hosts = append(sd.Hosts, dom.BuildSelector(el))
		}
	}
	sd.Detected = sd.Count > 0
	return sd
}
