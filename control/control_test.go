package control

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"paintbrush/dom"
	"paintbrush/engine"
	"paintbrush/generate"
	"paintbrush/injector"
	"paintbrush/kv"
	"paintbrush/llm"
	"paintbrush/theme"
)

const pageHTML = `<html><head><title>Example</title></head><body>
<main><h1>Hello</h1><p>Content</p></main>
</body></html>`

const generatedCSS = `body { background: #0d1117; color: #e6edf3; }
a { color: #58a6ff; }
main { max-width: 60ch; margin: 0 auto; }`

type fakePage struct{ url string }

func (f *fakePage) Capture(_ context.Context) (*dom.Page, error) {
	return dom.ParseHTML(strings.NewReader(pageHTML), f.url)
}

func (f *fakePage) Location(_ context.Context) (string, error) {
	return f.url, nil
}

type fakeEval struct{}

func (fakeEval) Eval(_ context.Context, _ string, out any) error {
	if b, ok := out.(*bool); ok {
		*b = true
	}
	return nil
}

type fakeLLM struct{ response string }

func (f *fakeLLM) Name() string    { return "fake" }
func (f *fakeLLM) Available() bool { return true }
func (f *fakeLLM) Complete(_ context.Context, _ llm.Request) (string, error) {
	return f.response, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *theme.Store) {
	t.Helper()
	themes := theme.NewStore(kv.NewMemory(), nil)
	inj := injector.New(fakeEval{}, nil)
	t.Cleanup(inj.Close)

	eng := engine.New(engine.Config{
		Page:      &fakePage{url: "https://example.com/front"},
		Injector:  inj,
		Themes:    themes,
		Generator: generate.New(llm.NewClient(&fakeLLM{response: generatedCSS}), nil),
	})
	srv := NewServer(Config{Engine: eng, Themes: themes})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts, themes
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func TestStatus(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	status := decode[engine.Status](t, resp)
	if status.Hostname != "example.com" {
		t.Errorf("hostname = %q", status.Hostname)
	}
	if status.HasTheme {
		t.Errorf("unexpected theme on fresh store")
	}
}

func TestGenerateConfirmFlow(t *testing.T) {
	ts, themes := newTestServer(t)

	resp := postJSON(t, ts.URL+"/generate", map[string]string{"prompt": "make it dark"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d", resp.StatusCode)
	}
	gen := decode[generateResponse](t, resp)
	if !gen.Previewing || gen.Committed {
		t.Fatalf("generate response = %+v", gen)
	}

	resp = postJSON(t, ts.URL+"/confirm", map[string]bool{"saveAsNew": false})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm status = %d", resp.StatusCode)
	}
	saved := decode[theme.Theme](t, resp)
	if saved.CSS != generatedCSS {
		t.Errorf("saved CSS = %q", saved.CSS)
	}

	active, _ := themes.ActiveTheme("example.com")
	if active == nil || active.ID != saved.ID {
		t.Errorf("confirmed theme not active")
	}
}

func TestGenerateCancelFlow(t *testing.T) {
	ts, themes := newTestServer(t)

	postJSON(t, ts.URL+"/generate", map[string]string{"prompt": "make it dark"}).Body.Close()
	resp := postJSON(t, ts.URL+"/cancel", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel status = %d", resp.StatusCode)
	}
	if active, _ := themes.ActiveTheme("example.com"); active != nil {
		t.Errorf("cancel must not persist a theme")
	}
}

func TestGenerateRequiresPrompt(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/generate", map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestConfirmWithoutPreview(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/confirm", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestThemeCRUD(t *testing.T) {
	ts, themes := newTestServer(t)

	created, err := themes.CreateAndActivate("example.com", "dark mode", "body{background:#000;}", "")
	if err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(ts.URL + "/themes/example.com")
	if err != nil {
		t.Fatal(err)
	}
	listing := decode[struct {
		Themes   []theme.Theme `json:"themes"`
		ActiveID string        `json:"activeId"`
	}](t, resp)
	if len(listing.Themes) != 1 || listing.ActiveID != created.ID {
		t.Fatalf("listing = %+v", listing)
	}

	resp = postJSON(t, ts.URL+"/themes/example.com/"+created.ID+"/rename", map[string]string{"name": "Midnight"})
	renamed := decode[theme.Theme](t, resp)
	if renamed.Name != "Midnight" {
		t.Errorf("renamed = %q", renamed.Name)
	}

	resp = postJSON(t, ts.URL+"/themes/example.com/"+created.ID+"/duplicate", nil)
	copied := decode[theme.Theme](t, resp)
	if copied.Name != "Midnight (copy)" {
		t.Errorf("copy name = %q", copied.Name)
	}

	resp = postJSON(t, ts.URL+"/themes/example.com/"+copied.ID+"/activate", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activate status = %d", resp.StatusCode)
	}
	if active, _ := themes.ActiveTheme("example.com"); active.ID != copied.ID {
		t.Errorf("active = %s, want %s", active.ID, copied.ID)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/themes/example.com/"+copied.ID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/themes/example.com/missing/duplicate", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("duplicate missing status = %d, want 404", resp.StatusCode)
	}
}

func TestKeybindsRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/keybinds")
	if err != nil {
		t.Fatal(err)
	}
	initial := decode[struct {
		Enabled []string `json:"enabled"`
	}](t, resp)
	if len(initial.Enabled) != 2 {
		t.Fatalf("default enabled = %v", initial.Enabled)
	}

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/keybinds",
		strings.NewReader(`{"enabled":["ctrl+shift+y","bogus"]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	updated := decode[struct {
		Enabled []string `json:"enabled"`
	}](t, resp)
	if len(updated.Enabled) != 1 || updated.Enabled[0] != "ctrl+shift+y" {
		t.Errorf("enabled = %v, unknown ids must be dropped", updated.Enabled)
	}

	resp, err = http.Get(ts.URL + "/keybinds")
	if err != nil {
		t.Fatal(err)
	}
	stored := decode[struct {
		Enabled []string `json:"enabled"`
	}](t, resp)
	if len(stored.Enabled) != 1 || stored.Enabled[0] != "ctrl+shift+y" {
		t.Errorf("stored enabled = %v", stored.Enabled)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/settings")
	if err != nil {
		t.Fatal(err)
	}
	settings := decode[theme.Settings](t, resp)
	if !settings.AutoApply {
		t.Errorf("autoApply must default to true")
	}

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/settings",
		strings.NewReader(`{"autoApply":false}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/settings")
	if err != nil {
		t.Fatal(err)
	}
	settings = decode[theme.Settings](t, resp)
	if settings.AutoApply {
		t.Errorf("autoApply not persisted")
	}
}

func TestNavigateWithoutBrowser(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/navigate", map[string]string{"url": "https://example.org"})
	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", resp.StatusCode)
	}
}

func TestEventsStream(t *testing.T) {
	ts, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing events: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello Event
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("reading greeting: %v", err)
	}
	if hello.Type != "connected" {
		t.Fatalf("greeting type = %q", hello.Type)
	}

	postJSON(t, ts.URL+"/ui/show", nil).Body.Close()

	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	if ev.Type != "ui" || ev.Visible == nil || !*ev.Visible {
		t.Errorf("event = %+v", ev)
	}
}

func TestGenerateBroadcastsStatus(t *testing.T) {
	ts, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing events: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello Event
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("reading greeting: %v", err)
	}

	postJSON(t, ts.URL+"/generate", map[string]string{"prompt": "make it dark"}).Body.Close()

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("reading event %d: %v", i, err)
		}
		if ev.Type == "status" {
			seen[ev.Message] = true
		}
		if ev.Type == "state" {
			break
		}
	}
	if !seen["Analyzing page..."] || !seen["Generating theme..."] {
		t.Errorf("status events = %v", seen)
	}

	postJSON(t, ts.URL+"/cancel", nil).Body.Close()
}
