package analyzer

import (
	"strconv"
	"strings"

	"paintbrush/dom"
)

const layerScanLimit = 500

// extractLayers maps z-index usage across a bounded sample. Category rules
// combine numeric ranges with class-name hints; rules are not mutually
// exclusive, first match claims the element.
func extractLayers(p *dom.Page) Layers {
	layers := Layers{Values: map[string]int{}, Categories: map[string]int{}}
	var stacking []string

	sample := p.Sample(layerScanLimit)
	for i := range sample {
		el := &sample[i]
		position := el.StyleOf("position")

		z, err := strconv.Atoi(el.StyleOf("z-index"))
		if err == nil && z != 0 && position != "static" && position != "" {
			selector := dom.BuildSelector(el)
			layers.Values[selector] = z
			if z > layers.Max {
				layers.Max = z
			}
			class := strings.ToLower(el.ClassString())
			role := el.Attr("role")

			category := ""
			switch {
			case z >= 1000 || role == "dialog" || strings.Contains(class, "modal"):
				category = "modal"
			case (z >= 100 && z < 500) || strings.Contains(class, "dropdown"):
				category = "dropdown"
			case z >= 2000 || strings.Contains(class, "tooltip"):
				category = "tooltip"
			case (z >= 500 && z < 1000) || strings.Contains(class, "sticky") || strings.Contains(class, "header"):
				category = "sticky"
			case z >= 3000 || strings.Contains(class, "toast") || strings.Contains(class, "notification"):
				category = "toast"
			}
			if category != "" && z > layers.Categories[category] {
				layers.Categories[category] = z
			}
		}

		if len(stacking) < 20 && createsStackingContext(el) {
			stacking = append(stacking, dom.BuildSelector(el))
		}
	}
	layers.StackingContexts = stacking
	if len(layers.Values) == 0 {
		layers.Values = nil
	}
	if len(layers.Categories) == 0 {
		layers.Categories = nil
	}
	return layers
}

func createsStackingContext(el *dom.Element) bool {
	if pos := el.StyleOf("position"); pos != "" && pos != "static" {
		return true
	}
	if op := el.StyleOf("opacity"); op != "" && op != "1" {
		return true
	}
	if tr := el.StyleOf("transform"); tr != "" && tr != "none" {
		return true
	}
	return false
}
