// Package theme persists generated themes per hostname. A hostname owns a
// list of themes plus an active-theme pointer, so users can keep several
// looks per site and switch between them.
package theme

import (
	"strings"
	"time"
	"unicode"

	"paintbrush/css"

	"github.com/google/uuid"
)

// Theme is one saved stylesheet for a hostname. The Previous* fields hold
// the state before the last update so a refinement can be undone.
type Theme struct {
	ID       string   `json:"id"`
	Hostname string   `json:"hostname"`
	Name     string   `json:"name"`
	Prompt   string   `json:"prompt"`
	CSS      string   `json:"css"`
	Colors   []string `json:"colors,omitempty"`

	PreviousCSS    string `json:"previousCss,omitempty"`
	PreviousPrompt string `json:"previousPrompt,omitempty"`
	PreviousName   string `json:"previousName,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Correction records a reverted refinement: the prompt that was undone and
// the prompt whose result was kept. Recent corrections feed back into
// generation so the model avoids repeating rejected directions.
type Correction struct {
	Hostname string    `json:"hostname"`
	Rejected string    `json:"rejectedPrompt"`
	Accepted string    `json:"acceptedPrompt"`
	At       time.Time `json:"at"`
}

// Settings are global user preferences. APIKey is kept for installs that
// store the key alongside the themes instead of the config file.
type Settings struct {
	APIKey       string `json:"apiKey,omitempty"`
	AutoApply    bool   `json:"autoApply"`
	SoundEnabled bool   `json:"soundEnabled"`
}

// DefaultSettings returns the settings used before the user saves any.
func DefaultSettings() Settings {
	return Settings{AutoApply: true, SoundEnabled: true}
}

func newID() string {
	return uuid.NewString()
}

// nameStopwords are filler words dropped from auto-generated theme names.
var nameStopwords = map[string]bool{
	"make": true, "with": true, "like": true, "want": true, "please": true,
	"the": true, "and": true, "for": true, "more": true, "less": true,
}

// GenerateName derives a display name from the generation prompt: the first
// three meaningful words, title-cased.
func GenerateName(prompt string) string {
	var clean strings.Builder
	for _, r := range strings.ToLower(prompt) {
		if (r >= 'a' && r <= 'z') || unicode.IsSpace(r) {
			clean.WriteRune(r)
		}
	}

	var words []string
	for _, w := range strings.Fields(clean.String()) {
		if len(w) <= 3 || nameStopwords[w] {
			continue
		}
		words = append(words, strings.ToUpper(w[:1])+w[1:])
		if len(words) == 3 {
			break
		}
	}
	if len(words) == 0 {
		return "Custom Theme"
	}
	return strings.Join(words, " ")
}

func themeColors(stylesheet string) []string {
	return css.DominantColors(stylesheet)
}
