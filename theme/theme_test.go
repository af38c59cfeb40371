package theme

import (
	"encoding/json"
	"errors"
	"testing"

	"paintbrush/kv"
)

const testCSS = `body { background: #0d1117; color: #e6edf3; }
a { color: #58a6ff; }`

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(kv.NewMemory(), nil)
}

func TestGenerateName(t *testing.T) {
	cases := []struct {
		prompt string
		want   string
	}{
		{"make it dark with purple accents", "Dark Purple Accents"},
		{"please make the site look like a terminal", "Site Look Terminal"},
		{"dark", "Dark"},
		{"!!! ???", "Custom Theme"},
		{"", "Custom Theme"},
		{"and the for", "Custom Theme"},
	}
	for _, tc := range cases {
		if got := GenerateName(tc.prompt); got != tc.want {
			t.Errorf("GenerateName(%q) = %q, want %q", tc.prompt, got, tc.want)
		}
	}
}

func TestCreateAndActivate(t *testing.T) {
	s := newTestStore(t)

	th, err := s.CreateAndActivate("example.com", "dark github style", testCSS, "")
	if err != nil {
		t.Fatalf("CreateAndActivate: %v", err)
	}
	if th.ID == "" {
		t.Fatalf("theme has no ID")
	}
	if th.Name != "Dark Github Style" {
		t.Errorf("Name = %q", th.Name)
	}
	if len(th.Colors) == 0 || th.Colors[0] != "#0d1117" {
		t.Errorf("Colors = %v", th.Colors)
	}

	active, err := s.ActiveTheme("example.com")
	if err != nil {
		t.Fatalf("ActiveTheme: %v", err)
	}
	if active == nil || active.ID != th.ID {
		t.Fatalf("active = %+v, want id %s", active, th.ID)
	}

	// A second theme does not steal the active slot.
	if _, err := s.Create("example.com", "light mode", "body { background: #fff; }", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	themes, _ := s.Themes("example.com")
	if len(themes) != 2 {
		t.Fatalf("len(themes) = %d, want 2", len(themes))
	}
	active, _ = s.ActiveTheme("example.com")
	if active.ID != th.ID {
		t.Errorf("active changed to %s", active.ID)
	}

	if has, _ := s.HasTheme("example.com"); !has {
		t.Errorf("HasTheme = false with an active theme")
	}
	if has, _ := s.HasTheme("other.com"); has {
		t.Errorf("HasTheme = true for a host with no themes")
	}
}

func TestSetActiveEmptyDisables(t *testing.T) {
	s := newTestStore(t)
	th, _ := s.CreateAndActivate("example.com", "dark", testCSS, "")

	if err := s.SetActive("example.com", ""); err != nil {
		t.Fatalf("SetActive(\"\"): %v", err)
	}
	active, err := s.ActiveTheme("example.com")
	if err != nil {
		t.Fatalf("ActiveTheme: %v", err)
	}
	if active != nil {
		t.Fatalf("active = %+v, want nil", active)
	}

	// Themes themselves survive.
	themes, _ := s.Themes("example.com")
	if len(themes) != 1 || themes[0].ID != th.ID {
		t.Errorf("themes = %+v", themes)
	}
}

func TestUpdateStashesPrevious(t *testing.T) {
	s := newTestStore(t)
	th, _ := s.CreateAndActivate("example.com", "dark", testCSS, "")

	updated, err := s.UpdateTheme("example.com", th.ID, Update{
		CSS:    "body { background: #112233; }",
		Prompt: "darker blue",
	})
	if err != nil {
		t.Fatalf("UpdateTheme: %v", err)
	}
	if updated.PreviousCSS != testCSS || updated.PreviousPrompt != "dark" {
		t.Errorf("previous state not stashed: %+v", updated)
	}
	if updated.CSS != "body { background: #112233; }" {
		t.Errorf("CSS = %q", updated.CSS)
	}
	if updated.Colors[0] != "#112233" {
		t.Errorf("Colors not refreshed: %v", updated.Colors)
	}

	if _, err := s.UpdateTheme("example.com", "nope", Update{Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateTheme(unknown) = %v, want ErrNotFound", err)
	}
}

func TestRevertRecordsCorrection(t *testing.T) {
	s := newTestStore(t)
	th, _ := s.CreateAndActivate("example.com", "dark", testCSS, "")

	if _, err := s.Revert("example.com", th.ID); !errors.Is(err, ErrNoPrevious) {
		t.Fatalf("Revert before update = %v, want ErrNoPrevious", err)
	}

	if _, err := s.UpdateTheme("example.com", th.ID, Update{CSS: "body{background:#f00;}", Prompt: "red everywhere"}); err != nil {
		t.Fatalf("UpdateTheme: %v", err)
	}
	reverted, err := s.Revert("example.com", th.ID)
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if reverted.CSS != testCSS || reverted.Prompt != "dark" {
		t.Errorf("revert restored %+v", reverted)
	}

	corrections, err := s.HostCorrections("example.com")
	if err != nil {
		t.Fatalf("HostCorrections: %v", err)
	}
	if len(corrections) != 1 {
		t.Fatalf("len(corrections) = %d, want 1", len(corrections))
	}
	if corrections[0].Rejected != "red everywhere" || corrections[0].Accepted != "dark" {
		t.Errorf("correction = %+v", corrections[0])
	}
}

func TestCorrectionsCapped(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < maxCorrections+10; i++ {
		if err := s.RecordCorrection("example.com", "bad", "good"); err != nil {
			t.Fatalf("RecordCorrection: %v", err)
		}
	}
	all, err := s.Corrections()
	if err != nil {
		t.Fatalf("Corrections: %v", err)
	}
	if len(all) != maxCorrections {
		t.Errorf("len = %d, want %d", len(all), maxCorrections)
	}
}

func TestDeleteClearsActive(t *testing.T) {
	s := newTestStore(t)
	th, _ := s.CreateAndActivate("example.com", "dark", testCSS, "")
	other, _ := s.Create("example.com", "light", "body{background:#fff;}", "")

	if err := s.DeleteTheme("example.com", th.ID); err != nil {
		t.Fatalf("DeleteTheme: %v", err)
	}
	active, _ := s.ActiveTheme("example.com")
	if active != nil {
		t.Errorf("active should be cleared, got %+v", active)
	}
	themes, _ := s.Themes("example.com")
	if len(themes) != 1 || themes[0].ID != other.ID {
		t.Errorf("themes = %+v", themes)
	}
}

func TestDuplicate(t *testing.T) {
	s := newTestStore(t)
	th, _ := s.Create("example.com", "dark", testCSS, "Night")

	copyTheme, err := s.Duplicate("example.com", th.ID)
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}
	if copyTheme.Name != "Night (copy)" {
		t.Errorf("Name = %q", copyTheme.Name)
	}
	if copyTheme.ID == th.ID {
		t.Errorf("duplicate shares ID")
	}
	if copyTheme.CSS != th.CSS {
		t.Errorf("duplicate CSS differs")
	}
}

func TestAllThemesAndHostnames(t *testing.T) {
	s := newTestStore(t)
	s.Create("a.com", "dark", testCSS, "")
	s.Create("b.com", "light", "body{background:#fff;}", "")
	s.Create("b.com", "sepia", "body{background:#f4ecd8;}", "")

	all, err := s.AllThemes()
	if err != nil {
		t.Fatalf("AllThemes: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}

	hosts, err := s.Hostnames()
	if err != nil {
		t.Fatalf("Hostnames: %v", err)
	}
	if len(hosts) != 2 || hosts[0] != "a.com" || hosts[1] != "b.com" {
		t.Errorf("hosts = %v", hosts)
	}

	if err := s.DeleteAllForHost("b.com"); err != nil {
		t.Fatalf("DeleteAllForHost: %v", err)
	}
	hosts, _ = s.Hostnames()
	if len(hosts) != 1 {
		t.Errorf("hosts after delete = %v", hosts)
	}
}

func TestSettingsDefaults(t *testing.T) {
	s := newTestStore(t)
	settings, err := s.LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if !settings.AutoApply {
		t.Errorf("AutoApply should default to true")
	}
	if !settings.SoundEnabled {
		t.Errorf("SoundEnabled should default to true")
	}

	settings.AutoApply = false
	if err := s.SaveSettings(settings); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	settings, _ = s.LoadSettings()
	if settings.AutoApply {
		t.Errorf("saved settings not returned")
	}
}

func TestMigrateLegacyFormat(t *testing.T) {
	mem := kv.NewMemory()
	legacy := map[string]any{
		"prompt":    "dark hacker news",
		"css":       testCSS,
		"createdAt": int64(1700000000000),
		"updatedAt": int64(1700000000000),
	}
	raw, _ := json.Marshal(legacy)
	mem.Set("theme:news.ycombinator.com", raw)
	// Entries without CSS are skipped.
	mem.Set("theme:broken.com", []byte(`{"prompt":"x"}`))

	s := NewStore(mem, nil)
	n, err := s.Migrate()
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if n != 1 {
		t.Fatalf("migrated = %d, want 1", n)
	}

	active, err := s.ActiveTheme("news.ycombinator.com")
	if err != nil {
		t.Fatalf("ActiveTheme: %v", err)
	}
	if active == nil || active.CSS != testCSS {
		t.Fatalf("migrated theme = %+v", active)
	}
	if active.Name != "Dark Hacker News" {
		t.Errorf("Name = %q", active.Name)
	}
	if _, err := mem.Get("theme:news.ycombinator.com"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("legacy key should be removed")
	}

	// Migrated data must not be picked up twice.
	n, _ = s.Migrate()
	if n != 0 {
		t.Errorf("second Migrate = %d, want 0", n)
	}
}
