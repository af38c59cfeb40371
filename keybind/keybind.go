// Package keybind resolves keyboard shortcuts for toggling the prompt UI.
// Bindings are matched against raw key events; Cmd counts as Ctrl so one
// binding works across platforms.
package keybind

import "strings"

// Event is a normalized key event.
type Event struct {
	Key   string
	Ctrl  bool
	Meta  bool
	Alt   bool
	Shift bool
}

// Binding is one shortcut definition.
type Binding struct {
	ID       string `json:"id"`
	Ctrl     bool   `json:"ctrl,omitempty"`
	Alt      bool   `json:"alt,omitempty"`
	Shift    bool   `json:"shift,omitempty"`
	Key      string `json:"key"`
	Label    string `json:"label"`
	MacLabel string `json:"macLabel"`
}

// Known holds every binding the user can enable.
var Known = map[string]Binding{
	"ctrl+shift+p": {ID: "ctrl+shift+p", Ctrl: true, Shift: true, Key: "p", Label: "Ctrl+Shift+P", MacLabel: "⌘⇧P"},
	"alt+shift+p":  {ID: "alt+shift+p", Alt: true, Shift: true, Key: "p", Label: "Alt+Shift+P", MacLabel: "⌥⇧P"},
	"ctrl+shift+y": {ID: "ctrl+shift+y", Ctrl: true, Shift: true, Key: "y", Label: "Ctrl+Shift+Y", MacLabel: "⌘⇧Y"},
}

// DefaultEnabled is the binding set used before the user customizes.
func DefaultEnabled() []string {
	return []string{"ctrl+shift+p", "alt+shift+p"}
}

// Matches reports whether the event triggers this binding: the event's
// modifier set must equal the binding's declared set, with Cmd and Ctrl
// treated as equivalent.
func (b Binding) Matches(e Event) bool {
	ctrlOrMeta := e.Ctrl || e.Meta
	return ctrlOrMeta == b.Ctrl &&
		e.Alt == b.Alt &&
		e.Shift == b.Shift &&
		strings.ToLower(e.Key) == b.Key
}

// Set is the user's enabled bindings.
type Set struct {
	enabled []string
}

// NewSet builds a Set from enabled binding IDs, nil meaning the defaults.
// Unknown IDs are dropped.
func NewSet(enabled []string) Set {
	if enabled == nil {
		enabled = DefaultEnabled()
	}
	var kept []string
	for _, id := range enabled {
		if _, ok := Known[id]; ok {
			kept = append(kept, id)
		}
	}
	return Set{enabled: kept}
}

// IDs returns the enabled binding IDs in order.
func (s Set) IDs() []string {
	return append([]string(nil), s.enabled...)
}

// Match returns the first enabled binding the event triggers.
func (s Set) Match(e Event) (Binding, bool) {
	for _, id := range s.enabled {
		if b := Known[id]; b.Matches(e) {
			return b, true
		}
	}
	return Binding{}, false
}
