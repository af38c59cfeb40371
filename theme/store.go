package theme

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"paintbrush/kv"
)

const (
	themesPrefix   = "themes:"
	activePrefix   = "activeTheme:"
	legacyPrefix   = "theme:"
	correctionsKey = "paintbrush:corrections"
	settingsKey    = "paintbrush:settings"
	keybindsKey    = "paintbrush:keybinds"
	maxCorrections = 50
)

// ErrNotFound is returned when a theme ID does not exist for the hostname.
var ErrNotFound = errors.New("theme not found")

// ErrNoPrevious is returned by Revert when the theme has never been updated.
var ErrNoPrevious = errors.New("no previous version to revert to")

// Update holds the fields to change. Empty fields are left as they are.
type Update struct {
	CSS    string
	Prompt string
	Name   string
}

// Store is the theme database. All operations are safe for concurrent use;
// the kv layer holds one JSON document per hostname so mutations serialize
// behind a single lock.
type Store struct {
	mu  sync.Mutex
	kv  kv.Store
	log *slog.Logger
}

func NewStore(store kv.Store, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{kv: store, log: log}
}

// Themes returns all themes saved for the hostname, oldest first.
func (s *Store) Themes(hostname string) ([]Theme, error) {
	return s.readThemes(hostname)
}

func (s *Store) readThemes(hostname string) ([]Theme, error) {
	raw, err := s.kv.Get(themesPrefix + hostname)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var themes []Theme
	if err := json.Unmarshal(raw, &themes); err != nil {
		return nil, fmt.Errorf("decode themes for %s: %w", hostname, err)
	}
	return themes, nil
}

func (s *Store) writeThemes(hostname string, themes []Theme) error {
	raw, err := json.Marshal(themes)
	if err != nil {
		return err
	}
	return s.kv.Set(themesPrefix+hostname, raw)
}

// ActiveThemeID returns the active theme ID for the hostname, "" when themes
// are disabled for the site.
func (s *Store) ActiveThemeID(hostname string) (string, error) {
	raw, err := s.kv.Get(activePrefix + hostname)
	if errors.Is(err, kv.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ActiveTheme resolves the active theme, nil when none is active.
func (s *Store) ActiveTheme(hostname string) (*Theme, error) {
	id, err := s.ActiveThemeID(hostname)
	if err != nil || id == "" {
		return nil, err
	}
	themes, err := s.readThemes(hostname)
	if err != nil {
		return nil, err
	}
	for i := range themes {
		if themes[i].ID == id {
			return &themes[i], nil
		}
	}
	return nil, nil
}

// HasTheme reports whether the hostname has an active theme with CSS.
func (s *Store) HasTheme(hostname string) (bool, error) {
	active, err := s.ActiveTheme(hostname)
	if err != nil {
		return false, err
	}
	return active != nil && active.CSS != "", nil
}

// SetActive points the hostname at the given theme. An empty ID disables
// theming for the site without deleting anything.
func (s *Store) SetActive(hostname, id string) error {
	if id == "" {
		if err := s.kv.Delete(activePrefix + hostname); err != nil {
			return err
		}
		s.log.Info("themes disabled", "hostname", hostname)
		return nil
	}
	if err := s.kv.Set(activePrefix+hostname, []byte(id)); err != nil {
		return err
	}
	s.log.Info("theme activated", "hostname", hostname, "theme", id)
	return nil
}

// Create saves a new theme without activating it. An empty name is derived
// from the prompt.
func (s *Store) Create(hostname, prompt, stylesheet, name string) (*Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	themes, err := s.readThemes(hostname)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = GenerateName(prompt)
	}
	now := time.Now()
	t := Theme{
		ID:        newID(),
		Hostname:  hostname,
		Name:      name,
		Prompt:    prompt,
		CSS:       stylesheet,
		Colors:    themeColors(stylesheet),
		CreatedAt: now,
		UpdatedAt: now,
	}

	themes = append(themes, t)
	if err := s.writeThemes(hostname, themes); err != nil {
		return nil, err
	}
	s.log.Info("theme created", "hostname", hostname, "name", t.Name, "theme", t.ID)
	return &t, nil
}

// CreateAndActivate saves a new theme and makes it the active one.
func (s *Store) CreateAndActivate(hostname, prompt, stylesheet, name string) (*Theme, error) {
	t, err := s.Create(hostname, prompt, stylesheet, name)
	if err != nil {
		return nil, err
	}
	if err := s.SetActive(hostname, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTheme applies the non-empty fields of u, stashing the previous CSS,
// prompt and name for Revert.
func (s *Store) UpdateTheme(hostname, id string, u Update) (*Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(hostname, id, u)
}

func (s *Store) updateLocked(hostname, id string, u Update) (*Theme, error) {
	themes, err := s.readThemes(hostname)
	if err != nil {
		return nil, err
	}
	for i := range themes {
		if themes[i].ID != id {
			continue
		}
		t := &themes[i]
		t.PreviousCSS = t.CSS
		t.PreviousPrompt = t.Prompt
		t.PreviousName = t.Name

		if u.CSS != "" {
			t.CSS = u.CSS
			t.Colors = themeColors(u.CSS)
		}
		if u.Prompt != "" {
			t.Prompt = u.Prompt
		}
		if u.Name != "" {
			t.Name = u.Name
		}
		t.UpdatedAt = time.Now()

		if err := s.writeThemes(hostname, themes); err != nil {
			return nil, err
		}
		s.log.Info("theme updated", "hostname", hostname, "name", t.Name)
		out := *t
		return &out, nil
	}
	return nil, ErrNotFound
}

// Rename changes the display name only.
func (s *Store) Rename(hostname, id, name string) (*Theme, error) {
	return s.UpdateTheme(hostname, id, Update{Name: name})
}

// Revert restores the stashed previous version and records the rejected
// prompt as a correction.
func (s *Store) Revert(hostname, id string) (*Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	themes, err := s.readThemes(hostname)
	if err != nil {
		return nil, err
	}
	var cur *Theme
	for i := range themes {
		if themes[i].ID == id {
			cur = &themes[i]
			break
		}
	}
	if cur == nil {
		return nil, ErrNotFound
	}
	if cur.PreviousCSS == "" {
		return nil, ErrNoPrevious
	}

	if err := s.recordCorrectionLocked(hostname, cur.Prompt, cur.PreviousPrompt); err != nil {
		return nil, err
	}
	return s.updateLocked(hostname, id, Update{
		CSS:    cur.PreviousCSS,
		Prompt: cur.PreviousPrompt,
		Name:   cur.PreviousName,
	})
}

// DeleteTheme removes the theme, clearing the active pointer when it was the
// active one.
func (s *Store) DeleteTheme(hostname, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	themes, err := s.readThemes(hostname)
	if err != nil {
		return err
	}
	kept := themes[:0]
	for _, t := range themes {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if err := s.writeThemes(hostname, kept); err != nil {
		return err
	}

	active, err := s.ActiveThemeID(hostname)
	if err != nil {
		return err
	}
	if active == id {
		if err := s.SetActive(hostname, ""); err != nil {
			return err
		}
	}
	s.log.Info("theme deleted", "hostname", hostname, "theme", id)
	return nil
}

// Duplicate copies a theme under "<name> (copy)" without activating it.
func (s *Store) Duplicate(hostname, id string) (*Theme, error) {
	themes, err := s.readThemes(hostname)
	if err != nil {
		return nil, err
	}
	for _, t := range themes {
		if t.ID == id {
			return s.Create(hostname, t.Prompt, t.CSS, t.Name+" (copy)")
		}
	}
	return nil, ErrNotFound
}

// RecordCorrection appends to the global correction log, keeping the most
// recent entries only.
func (s *Store) RecordCorrection(hostname, rejected, accepted string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordCorrectionLocked(hostname, rejected, accepted)
}

func (s *Store) recordCorrectionLocked(hostname, rejected, accepted string) error {
	corrections, err := s.Corrections()
	if err != nil {
		return err
	}
	corrections = append(corrections, Correction{
		Hostname: hostname,
		Rejected: rejected,
		Accepted: accepted,
		At:       time.Now(),
	})
	if len(corrections) > maxCorrections {
		corrections = corrections[len(corrections)-maxCorrections:]
	}
	raw, err := json.Marshal(corrections)
	if err != nil {
		return err
	}
	return s.kv.Set(correctionsKey, raw)
}

// Corrections returns the global correction log, oldest first.
func (s *Store) Corrections() ([]Correction, error) {
	raw, err := s.kv.Get(correctionsKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []Correction
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HostCorrections filters the correction log to one hostname.
func (s *Store) HostCorrections(hostname string) ([]Correction, error) {
	all, err := s.Corrections()
	if err != nil {
		return nil, err
	}
	var out []Correction
	for _, c := range all {
		if c.Hostname == hostname {
			out = append(out, c)
		}
	}
	return out, nil
}

// AllThemes returns every saved theme across all hostnames, most recently
// updated first.
func (s *Store) AllThemes() ([]Theme, error) {
	keys, err := s.kv.Keys(themesPrefix)
	if err != nil {
		return nil, err
	}
	var all []Theme
	for _, key := range keys {
		themes, err := s.readThemes(strings.TrimPrefix(key, themesPrefix))
		if err != nil {
			return nil, err
		}
		all = append(all, themes...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})
	return all, nil
}

// Hostnames lists every hostname that has at least one saved theme.
func (s *Store) Hostnames() ([]string, error) {
	keys, err := s.kv.Keys(themesPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = strings.TrimPrefix(key, themesPrefix)
	}
	return out, nil
}

// DeleteAllForHost removes the hostname's themes and active pointer.
func (s *Store) DeleteAllForHost(hostname string) error {
	if err := s.kv.Delete(themesPrefix + hostname); err != nil {
		return err
	}
	if err := s.kv.Delete(activePrefix + hostname); err != nil {
		return err
	}
	s.log.Info("all themes deleted", "hostname", hostname)
	return nil
}

// LoadSettings returns the saved settings, defaults when none were saved.
func (s *Store) LoadSettings() (Settings, error) {
	raw, err := s.kv.Get(settingsKey)
	if errors.Is(err, kv.ErrNotFound) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, err
	}
	var out Settings
	if err := json.Unmarshal(raw, &out); err != nil {
		return Settings{}, err
	}
	return out, nil
}

func (s *Store) SaveSettings(settings Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return s.kv.Set(settingsKey, raw)
}

// Keybinds returns the saved keybind document, nil when the defaults apply.
func (s *Store) Keybinds() (json.RawMessage, error) {
	raw, err := s.kv.Get(keybindsKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func (s *Store) SetKeybinds(raw json.RawMessage) error {
	return s.kv.Set(keybindsKey, []byte(raw))
}

// Migrate converts entries from the old single-theme format, where each
// hostname held one bare theme under "theme:<hostname>". Returns the number
// of hostnames migrated.
func (s *Store) Migrate() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.kv.Keys(legacyPrefix)
	if err != nil {
		return 0, err
	}

	migrated := 0
	for _, key := range keys {
		// The themes: prefix shares the theme: prefix.
		if strings.HasPrefix(key, themesPrefix) {
			continue
		}
		hostname := strings.TrimPrefix(key, legacyPrefix)

		raw, err := s.kv.Get(key)
		if err != nil {
			return migrated, err
		}
		var legacy struct {
			Name      string   `json:"name"`
			Prompt    string   `json:"prompt"`
			CSS       string   `json:"css"`
			Colors    []string `json:"colors"`
			CreatedAt int64    `json:"createdAt"`
			UpdatedAt int64    `json:"updatedAt"`
		}
		if err := json.Unmarshal(raw, &legacy); err != nil || legacy.CSS == "" {
			continue
		}

		t := Theme{
			ID:        newID(),
			Hostname:  hostname,
			Name:      legacy.Name,
			Prompt:    legacy.Prompt,
			CSS:       legacy.CSS,
			Colors:    legacy.Colors,
			CreatedAt: legacyTime(legacy.CreatedAt),
			UpdatedAt: legacyTime(legacy.UpdatedAt),
		}
		if t.Name == "" {
			t.Name = GenerateName(t.Prompt)
		}
		if len(t.Colors) == 0 {
			t.Colors = themeColors(t.CSS)
		}

		if err := s.writeThemes(hostname, []Theme{t}); err != nil {
			return migrated, err
		}
		if err := s.SetActive(hostname, t.ID); err != nil {
			return migrated, err
		}
		if err := s.kv.Delete(key); err != nil {
			return migrated, err
		}
		migrated++
		s.log.Info("theme migrated", "hostname", hostname)
	}
	return migrated, nil
}

// legacyTime converts a millisecond epoch, zero meaning now.
func legacyTime(ms int64) time.Time {
	if ms == 0 {
		return time.Now()
	}
	return time.UnixMilli(ms)
}
