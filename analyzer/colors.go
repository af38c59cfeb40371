package analyzer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"paintbrush/dom"
)

// colorSampleLimit caps the elements inspected per color pass. Large pages
// trade sampling completeness for a predictable latency budget.
const colorSampleLimit = 500

var rgbRe = regexp.MustCompile(`rgba?\((\d+),\s*(\d+),\s*(\d+)`)

// NormalizeColor converts rgb()/rgba() triples to #rrggbb, dropping alpha.
// Values already in hex (or anything unparsable) pass through unchanged, so
// the function is idempotent.
func NormalizeColor(color string) string {
	if strings.HasPrefix(color, "#") {
		return color
	}
	m := rgbRe.FindStringSubmatch(color)
	if m == nil {
		return color
	}
	r, _ := strconv.Atoi(m[1])
	g, _ := strconv.Atoi(m[2])
	b, _ := strconv.Atoi(m[3])
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func isTransparent(v string) bool {
	return v == "" || v == "transparent" || strings.Contains(v, "rgba(0, 0, 0, 0)")
}

// sampleColors walks a bounded element sample reading background, text and
// border colors, aggregates by exact string value, ranks by frequency and
// only then normalizes to hex.
func sampleColors(p *dom.Page) ColorSummary {
	backgrounds := newCounter[string]()
	text := newCounter[string]()
	borders := newCounter[string]()

	for _, el := range p.Sample(colorSampleLimit) {
		if bg := el.StyleOf("background-color"); !isTransparent(bg) {
			backgrounds.Add(bg)
		}
		color := el.StyleOf("color")
		if color != "" {
			text.Add(color)
		}
		// border-color: currentColor resolves to the text color; counting it
		// would invent border colors that are not really there.
		if bc := el.StyleOf("border-color"); !isTransparent(bc) && bc != color {
			borders.Add(bc)
		}
	}

	normalize := func(raw []string) []string {
		out := make([]string, len(raw))
		for i, c := range raw {
			out[i] = NormalizeColor(c)
		}
		return out
	}

	bgRanked := normalize(backgrounds.Ranked())
	textRanked := normalize(text.Ranked())

	dominant := []string{}
	seen := map[string]bool{}
	for _, c := range append(truncate(bgRanked, 3), truncate(textRanked, 2)...) {
		if !seen[c] {
			seen[c] = true
			dominant = append(dominant, c)
		}
	}

	return ColorSummary{
		Backgrounds: truncate(bgRanked, 10),
		Text:        truncate(textRanked, 10),
		Borders:     truncate(normalize(borders.Ranked()), 5),
		Dominant:    dominant,
		DarkMode:    detectDarkMode(p),
	}
}

// detectDarkMode classifies the body background by BT.601 luminance.
func detectDarkMode(p *dom.Page) bool {
	body := p.Body()
	if body == nil {
		return false
	}
	r, g, b, ok := parseColor(body.StyleOf("background-color"))
	if !ok {
		return false
	}
	luminance := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 255
	return luminance < 0.5
}

// parseColor extracts an RGB triple from a hex or rgb()/rgba() string.
func parseColor(v string) (r, g, b int, ok bool) {
	v = NormalizeColor(v)
	if !strings.HasPrefix(v, "#") {
		return 0, 0, 0, false
	}
	hex := v[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0, false
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(n >> 16), int(n >> 8 & 0xff), int(n & 0xff), true
}

// colorSimilarity maps Euclidean RGB distance onto [0,1]; 441.67 is the
// black-to-white diagonal.
func colorSimilarity(c1, c2 string) float64 {
	r1, g1, b1, ok1 := parseColor(c1)
	r2, g2, b2, ok2 := parseColor(c2)
	if !ok1 || !ok2 {
		return 0
	}
	d := math.Sqrt(float64((r1-r2)*(r1-r2) + (g1-g2)*(g1-g2) + (b1-b2)*(b1-b2)))
	return 1 - d/441.67
}

// wcagLuminance is the WCAG relative luminance used for contrast ratios.
func wcagLuminance(color string) float64 {
	r, g, b, ok := parseColor(color)
	if !ok {
		return 0
	}
	lin := func(v int) float64 {
		f := float64(v) / 255
		if f <= 0.03928 {
			return f / 12.92
		}
		return math.Pow((f+0.055)/1.055, 2.4)
	}
	return 0.2126*lin(r) + 0.7152*lin(g) + 0.0722*lin(b)
}

func contrastRatio(c1, c2 string) float64 {
	l1, l2 := wcagLuminance(c1), wcagLuminance(c2)
	if l2 > l1 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

type hsl struct{ h, s, l float64 }

func colorToHSL(color string) (hsl, bool) {
	ri, gi, bi, ok := parseColor(color)
	if !ok {
		return hsl{}, false
	}
	r, g, b := float64(ri)/255, float64(gi)/255, float64(bi)/255
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l := (max + min) / 2
	if max == min {
		return hsl{0, 0, l * 100}, true
	}
	d := max - min
	var s float64
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}
	var h float64
	switch max {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return hsl{h / 6 * 360, s * 100, l * 100}, true
}

// colorData buckets sampled colors by the role they were seen in.
type colorData struct {
	backgrounds, text, borders, links, buttons, all *counter[string]
}

func collectColorData(p *dom.Page) *colorData {
	d := &colorData{
		backgrounds: newCounter[string](),
		text:        newCounter[string](),
		borders:     newCounter[string](),
		links:       newCounter[string](),
		buttons:     newCounter[string](),
		all:         newCounter[string](),
	}
	for _, el := range p.Sample(colorSampleLimit) {
		if bg := NormalizeColor(el.StyleOf("background-color")); !isTransparent(bg) {
			d.backgrounds.Add(bg)
			d.all.Add(bg)
		}
		color := NormalizeColor(el.StyleOf("color"))
		if color != "" {
			d.text.Add(color)
			d.all.Add(color)
			if el.Tag == "a" {
				d.links.Add(color)
			}
			if el.Tag == "button" || el.Attr("role") == "button" {
				d.buttons.Add(color)
			}
		}
		if bc := NormalizeColor(el.StyleOf("border-color")); !isTransparent(bc) && bc != color {
			d.borders.Add(bc)
			d.all.Add(bc)
		}
	}
	return d
}

// analyzeColorHarmony derives role assignment, semantic colors, a
// deduplicated palette, contrast issues and a named scheme.
func analyzeColorHarmony(p *dom.Page) ColorHarmony {
	data := collectColorData(p)
	palette := extractPalette(data)
	issues := contrastIssues(data)
	return ColorHarmony{
		Roles:     identifyRoles(data),
		Semantic:  identifySemantic(data),
		Palette:   palette,
		Dominant:  data.all.Top(5),
		Issues:    issues,
		HasIssues: len(issues) > 0,
		Scheme:    classifyScheme(palette),
	}
}

func identifyRoles(d *colorData) ColorRoles {
	roles := ColorRoles{
		Background: d.backgrounds.Top(3),
		Text:       d.text.Top(3),
	}
	links := d.links.Ranked()
	if len(links) > 0 {
		roles.Primary = links[0]
		roles.Accent = []string{links[0]}
	} else if bgs := d.backgrounds.Ranked(); len(bgs) > 1 {
		roles.Primary = bgs[1]
	}
	return roles
}

// identifySemantic applies fixed channel-ratio heuristics; the first color
// matching a category claims it.
func identifySemantic(d *colorData) SemanticColors {
	var sem SemanticColors
	for _, color := range d.all.order {
		r, g, b, ok := parseColor(color)
		if !ok {
			continue
		}
		rf, gf, bf := float64(r), float64(g), float64(b)
		if sem.Success == "" && gf > rf*1.2 && gf > bf*1.2 && g > 100 {
			sem.Success = color
		}
		if sem.Error == "" && rf > gf*1.5 && rf > bf*1.5 && r > 150 {
			sem.Error = color
		}
		if sem.Warning == "" && r > 180 && g > 100 && g < 200 && b < 100 {
			sem.Warning = color
		}
		if sem.Info == "" && bf > rf && bf > gf*0.8 && b > 100 {
			sem.Info = color
		}
	}
	return sem
}

// extractPalette keeps the most used colors, dropping any within 0.85
// similarity of an already kept one, capped at 10.
func extractPalette(d *colorData) []string {
	palette := []string{}
	for _, color := range d.all.Ranked() {
		if len(palette) >= 10 {
			break
		}
		similar := false
		for _, kept := range palette {
			if colorSimilarity(kept, color) > 0.85 {
				similar = true
				break
			}
		}
		if !similar {
			palette = append(palette, color)
		}
	}
	return palette
}

func contrastIssues(d *colorData) []ContrastIssue {
	var issues []ContrastIssue
	for _, bg := range d.backgrounds.Top(3) {
		for _, text := range d.text.Top(3) {
			ratio := contrastRatio(bg, text)
			if ratio >= 4.5 {
				continue
			}
			level := "aa-small-fail"
			if ratio < 3 {
				level = "fail"
			}
			issues = append(issues, ContrastIssue{
				Background: bg,
				Text:       text,
				Ratio:      math.Round(ratio*100) / 100,
				Level:      level,
			})
		}
	}
	return truncate(issues, 5)
}

// classifyScheme buckets the average hue distance from the first palette
// color. Ranges overlap near boundaries; branch order decides ties.
func classifyScheme(palette []string) string {
	if len(palette) < 2 {
		return "monochromatic"
	}
	var hues []float64
	for _, c := range palette {
		if h, ok := colorToHSL(c); ok {
			hues = append(hues, h.h)
		}
	}
	if len(hues) < 2 {
		return "mixed"
	}
	var sum float64
	for _, h := range hues[1:] {
		diff := math.Abs(h - hues[0])
		if diff > 180 {
			diff = 360 - diff
		}
		sum += diff
	}
	avg := sum / float64(len(hues)-1)

	switch {
	case avg < 30:
		return "monochromatic"
	case avg > 150 && avg < 210:
		return "complementary"
	case avg < 60:
		return "analogous"
	case avg > 100 && avg < 140:
		return "triadic"
	case avg > 140 && avg < 160:
		return "split-complementary"
	}
	return "mixed"
}
