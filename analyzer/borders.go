package analyzer

import (
	"regexp"
	"strconv"
	"strings"

	"paintbrush/dom"
)

const borderScanLimit = 500

// detectBorderShadow collects border-radius, box-shadow, border-style, and
// border-color patterns and buckets radii and shadows by intensity.
func detectBorderShadow(p *dom.Page) BorderShadow {
	radii := newCounter[string]()
	shadows := newCounter[string]()
	styles := newCounter[string]()
	colors := newCounter[string]()

	limit := min(len(p.Elements), borderScanLimit)
	for i := 0; i < limit; i++ {
		el := &p.Elements[i]

		if br := el.StyleOf("border-radius"); br != "" && br != "0px" {
			radii.Add(normalizeRadius(br))
		}
		if bs := el.StyleOf("box-shadow"); bs != "" && bs != "none" {
			if len(bs) > 60 {
				bs = bs[:60] + "..."
			}
			shadows.Add(bs)
		}
		if st := el.StyleOf("border-style"); st != "" && st != "none" {
			styles.Add(st)
		}
		if bw := el.StyleOf("border-width"); bw != "" && bw != "0px" {
			if c := NormalizeColor(el.StyleOf("border-color")); c != "" && c != "transparent" {
				colors.Add(c)
			}
		}
	}

	topRadii := radii.Top(10)
	topShadows := shadows.Top(10)

	var bs BorderShadow
	bs.BorderRadius = topRadii
	bs.BoxShadow = topShadows
	bs.BorderStyles = styles.Top(5)
	bs.BorderColors = colors.Top(8)
	bs.RadiusCategories = categorizeRadii(topRadii, radii)
	bs.ShadowLevels = categorizeShadows(topShadows, shadows)
	return bs
}

// normalizeRadius collapses a four-corner shorthand when all corners match.
func normalizeRadius(br string) string {
	parts := strings.Fields(br)
	if len(parts) == 0 {
		return br
	}
	for _, part := range parts {
		if part != parts[0] {
			return br
		}
	}
	return parts[0]
}

func categorizeRadii(top []string, counts *counter[string]) RadiusCategories {
	var cats RadiusCategories
	for _, value := range top {
		count := counts.Count(value)
		num, _ := strconv.Atoi(leadingIntRe.FindString(value))
		switch {
		case value == "0px":
			cats.None += count
		case num >= 9999 || strings.Contains(value, "50%"):
			cats.Pill += count
		case num <= 4:
			cats.Small += count
		case num <= 12:
			cats.Medium += count
		default:
			cats.Large += count
		}
	}
	return cats
}

// Offset-x, offset-y, blur. The third length decides the intensity bucket.
var shadowBlurRe = regexp.MustCompile(`(\d+)px\s+(\d+)px\s+(\d+)px`)

func categorizeShadows(top []string, counts *counter[string]) ShadowLevels {
	var levels ShadowLevels
	for _, value := range top {
		count := counts.Count(value)
		if value == "none" {
			levels.None += count
			continue
		}
		m := shadowBlurRe.FindStringSubmatch(value)
		if m == nil {
			levels.Medium += count
			continue
		}
		blur, _ := strconv.Atoi(m[3])
		switch {
		case blur <= 3:
			levels.Subtle += count
		case blur <= 10:
			levels.Medium += count
		default:
			levels.Strong += count
		}
	}
	return levels
}
