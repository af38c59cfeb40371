package analyzer

import (
	"fmt"
	"sort"

	"paintbrush/dom"
)

// detectForms inspects form controls to describe inputs, validation
// states, grouping, and the selectors a stylesheet should target.
func detectForms(p *dom.Page) Forms {
	var f Forms
	inputTypes := map[string]bool{}
	radioGroups := map[string]bool{}
	selectCount := 0
	textareaCount := 0

	for i := range p.Elements {
		el := &p.Elements[i]
		switch el.Tag {
		case "form":
			f.Count++
		case "input":
			typ := el.Attr("type")
			if typ == "" {
				typ = "text"
			}
			if typ == "hidden" {
				continue
			}
			inputTypes[typ] = true
			switch typ {
			case "radio":
				if name := el.Attr("name"); name != "" {
					radioGroups[name] = true
				}
			case "checkbox":
				f.Groups.CheckboxCount++
			}
		case "select":
			selectCount++
			if el.HasAttr("multiple") {
				f.Selects.HasMultiple = true
			}
		case "textarea":
			textareaCount++
		case "fieldset":
			f.Structure.HasFieldsets = true
		case "legend":
			f.Structure.HasLegends = true
		case "label":
			f.Structure.HasLabels = true
		case "optgroup":
			f.Selects.HasOptgroups = true
		case "datalist":
			f.HasDatalist = true
		}

		if el.HasAttr("required") {
			f.States.HasRequired = true
		}
		if el.HasAttr("disabled") {
			f.States.HasDisabled = true
		}
		if el.HasAttr("readonly") {
			f.States.HasReadonly = true
		}
		if el.HasAttr("pattern") {
			f.States.HasPattern = true
		}
		if el.HasAttr("placeholder") {
			f.States.HasPlaceholder = true
		}
	}

	f.Selects.Count = selectCount
	f.Groups.RadioGroups = len(radioGroups)

	f.InputTypes = make([]string, 0, len(inputTypes))
	for t := range inputTypes {
		f.InputTypes = append(f.InputTypes, t)
	}
	sort.Strings(f.InputTypes)

	f.Selectors = formSelectors(&f, textareaCount)
	return f
}

// formSelectors suggests targets for the observed controls and states.
func formSelectors(f *Forms, textareaCount int) []string {
	var sels []string
	seen := map[string]bool{}
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			sels = append(sels, s)
		}
	}

	if f.States.HasRequired {
		add("[required]")
		add(":required")
	}
	if f.States.HasDisabled {
		add("[disabled]")
		add(":disabled")
	}
	if f.States.HasReadonly {
		add("[readonly]")
		add(":read-only")
	}
	if f.States.HasPlaceholder {
		add("::placeholder")
	}
	for _, t := range f.InputTypes {
		add(fmt.Sprintf("input[type=%q]", t))
	}
	if f.Structure.HasFieldsets {
		add("fieldset")
		add("legend")
	}
	if f.Selects.Count > 0 {
		add("select")
		add("option")
	}
	if textareaCount > 0 {
		add("textarea")
	}
	if f.Groups.CheckboxCount > 0 {
		add(`input[type="checkbox"]`)
	}
	if f.Groups.RadioGroups > 0 {
		add(`input[type="radio"]`)
	}
	return sels
}
