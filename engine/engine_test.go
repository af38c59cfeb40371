package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"paintbrush/dom"
	"paintbrush/generate"
	"paintbrush/injector"
	"paintbrush/kv"
	"paintbrush/llm"
	"paintbrush/theme"
)

const pageHTML = `<html><head><title>Example</title></head><body>
<header class="site-header"><nav><a href="/">Home</a></nav></header>
<main><h1>Hello</h1><p>Content</p><button data-testid="cta">Go</button></main>
</body></html>`

type fakePage struct {
	mu       sync.Mutex
	captures int
	url      string
}

func (f *fakePage) Capture(_ context.Context) (*dom.Page, error) {
	f.mu.Lock()
	f.captures++
	f.mu.Unlock()
	return dom.ParseHTML(strings.NewReader(pageHTML), f.url)
}

func (f *fakePage) Location(_ context.Context) (string, error) {
	return f.url, nil
}

func (f *fakePage) captureCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.captures
}

type fakeEval struct {
	mu      sync.Mutex
	scripts []string
}

func (f *fakeEval) Eval(_ context.Context, js string, out any) error {
	f.mu.Lock()
	f.scripts = append(f.scripts, js)
	f.mu.Unlock()
	if b, ok := out.(*bool); ok {
		*b = true
	}
	return nil
}

func (f *fakeEval) joined() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.scripts, "\n---\n")
}

type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	err       error
	requests  []llm.Request
}

func (f *fakeLLM) Name() string    { return "fake" }
func (f *fakeLLM) Available() bool { return true }

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", nil
	}
	r := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return r, nil
}

const generatedCSS = `body { background: #0d1117; color: #e6edf3; }
a { color: #58a6ff; }
header { background: #161b22; }`

type fixture struct {
	engine *Engine
	page   *fakePage
	eval   *fakeEval
	llm    *fakeLLM
	themes *theme.Store
	inj    *injector.Injector
}

func newFixture(t *testing.T, responses ...string) *fixture {
	t.Helper()
	if len(responses) == 0 {
		responses = []string{generatedCSS}
	}
	page := &fakePage{url: "https://example.com/front"}
	eval := &fakeEval{}
	provider := &fakeLLM{responses: responses}
	themes := theme.NewStore(kv.NewMemory(), nil)
	inj := injector.New(eval, nil)
	t.Cleanup(inj.Close)

	eng := New(Config{
		Page:      page,
		Injector:  inj,
		Themes:    themes,
		Generator: generate.New(llm.NewClient(provider), nil),
	})
	return &fixture{engine: eng, page: page, eval: eval, llm: provider, themes: themes, inj: inj}
}

func TestIsHidingRequest(t *testing.T) {
	cases := []struct {
		prompt string
		want   bool
	}{
		{"hide the cookie banner", true},
		{"no more ads please", true},
		{"get rid of the newsletter popup", true},
		{"make it dark and cozy", false},
		{"bigger fonts", false},
	}
	for _, tc := range cases {
		if got := IsHidingRequest(tc.prompt); got != tc.want {
			t.Errorf("IsHidingRequest(%q) = %v, want %v", tc.prompt, got, tc.want)
		}
	}
}

func TestGeneratePreviewConfirm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var stages []string
	res, err := f.engine.Generate(ctx, "make it dark", func(s string) { stages = append(stages, s) })
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !res.Previewing || res.Committed {
		t.Fatalf("res = %+v, want previewing", res)
	}
	if f.engine.State() != StatePreviewing {
		t.Fatalf("state = %s", f.engine.State())
	}
	if !strings.Contains(f.eval.joined(), "#0d1117") {
		t.Errorf("generated CSS was not injected")
	}
	if len(stages) == 0 || stages[0] != "Analyzing page..." {
		t.Errorf("stages = %v", stages)
	}

	// Nothing persisted during preview.
	if active, _ := f.themes.ActiveTheme("example.com"); active != nil {
		t.Fatalf("preview must not persist, got %+v", active)
	}

	saved, err := f.engine.Confirm(ctx, false)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if saved.CSS != generatedCSS {
		t.Errorf("saved CSS = %q", saved.CSS)
	}
	if f.engine.State() != StateIdle {
		t.Errorf("state after confirm = %s", f.engine.State())
	}
	active, _ := f.themes.ActiveTheme("example.com")
	if active == nil || active.ID != saved.ID {
		t.Errorf("confirmed theme not active: %+v", active)
	}
}

func TestGenerateCancelRestoresPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Committed theme in place first.
	f.themes.CreateAndActivate("example.com", "old look", "body{background:#111111;}", "")

	if _, err := f.engine.Generate(ctx, "make it bright", nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := f.engine.Cancel(ctx); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if f.engine.State() != StateIdle {
		t.Errorf("state = %s", f.engine.State())
	}
	// The pre-preview stylesheet goes back in.
	if got := f.inj.PendingCSS(); got != "body{background:#111111;}" {
		t.Errorf("pending CSS after cancel = %q", got)
	}
}

func TestCancelWithoutThemeRemoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.engine.Generate(ctx, "make it dark", nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := f.engine.Cancel(ctx); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got := f.inj.PendingCSS(); got != "" {
		t.Errorf("pending CSS after cancel = %q, want removal", got)
	}
}

func TestFastHidingPathCommitsWithoutPreview(t *testing.T) {
	hideCSS := `[class*="cookie"] { display: none !important; }`
	f := newFixture(t, hideCSS)
	ctx := context.Background()

	existing, _ := f.themes.CreateAndActivate("example.com", "dark mode", "body{background:#000;}", "")

	res, err := f.engine.Generate(ctx, "hide the cookie banner", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !res.Committed || res.Previewing {
		t.Fatalf("res = %+v, want committed without preview", res)
	}
	want := "body{background:#000;}\n\n/* Hidden elements */\n" + hideCSS
	if res.CSS != want {
		t.Errorf("combined CSS = %q, want %q", res.CSS, want)
	}
	if f.engine.State() != StateIdle {
		t.Errorf("state = %s", f.engine.State())
	}

	// Persisted immediately with the combined prompt.
	active, _ := f.themes.ActiveTheme("example.com")
	if active.CSS != want {
		t.Errorf("persisted CSS = %q", active.CSS)
	}
	if active.Prompt != "dark mode + hide the cookie banner" {
		t.Errorf("persisted prompt = %q", active.Prompt)
	}
	if active.ID != existing.ID {
		t.Errorf("fast path must update the existing theme, not create one")
	}
}

func TestHidingRequestWithoutThemeRunsFullCycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.engine.Generate(ctx, "hide the ads", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !res.Previewing {
		t.Errorf("without an active theme a hiding request must go through preview")
	}
	f.engine.Cancel(ctx)
}

func TestGenerateBusy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.engine.Generate(ctx, "make it dark", nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// Previewing: a second submission is rejected.
	if _, err := f.engine.Generate(ctx, "another one", nil); err != ErrBusy {
		t.Fatalf("second Generate = %v, want ErrBusy", err)
	}
	f.engine.Cancel(ctx)
	if _, err := f.engine.Generate(ctx, "after cancel", nil); err != nil {
		t.Errorf("Generate after cancel: %v", err)
	}
}

// failingKV forwards to an in-memory store but fails writes on demand.
type failingKV struct {
	kv.Store
	failWrites bool
}

func (f *failingKV) Set(key string, value []byte) error {
	if f.failWrites {
		return errors.New("disk full")
	}
	return f.Store.Set(key, value)
}

func TestConfirmStoreFailureKeepsPreview(t *testing.T) {
	page := &fakePage{url: "https://example.com/front"}
	eval := &fakeEval{}
	store := &failingKV{Store: kv.NewMemory()}
	themes := theme.NewStore(store, nil)
	inj := injector.New(eval, nil)
	t.Cleanup(inj.Close)
	eng := New(Config{
		Page:      page,
		Injector:  inj,
		Themes:    themes,
		Generator: generate.New(llm.NewClient(&fakeLLM{responses: []string{generatedCSS}}), nil),
	})
	ctx := context.Background()

	if _, err := eng.Generate(ctx, "make it dark", nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	store.failWrites = true
	if _, err := eng.Confirm(ctx, false); err == nil {
		t.Fatal("Confirm must surface the store failure")
	}
	// The preview is still pending: the user can retry or back out.
	if eng.State() != StatePreviewing {
		t.Fatalf("state after failed confirm = %s, want previewing", eng.State())
	}

	store.failWrites = false
	saved, err := eng.Confirm(ctx, false)
	if err != nil {
		t.Fatalf("Confirm retry: %v", err)
	}
	if saved.CSS != generatedCSS {
		t.Errorf("saved CSS = %q", saved.CSS)
	}
	if eng.State() != StateIdle {
		t.Errorf("state after retry = %s", eng.State())
	}
}

func TestConfirmStoreFailureStillCancellable(t *testing.T) {
	page := &fakePage{url: "https://example.com/front"}
	eval := &fakeEval{}
	store := &failingKV{Store: kv.NewMemory()}
	themes := theme.NewStore(store, nil)
	inj := injector.New(eval, nil)
	t.Cleanup(inj.Close)
	eng := New(Config{
		Page:      page,
		Injector:  inj,
		Themes:    themes,
		Generator: generate.New(llm.NewClient(&fakeLLM{responses: []string{generatedCSS}}), nil),
	})
	ctx := context.Background()

	if _, err := eng.Generate(ctx, "make it dark", nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	store.failWrites = true
	if _, err := eng.Confirm(ctx, false); err == nil {
		t.Fatal("Confirm must surface the store failure")
	}
	if err := eng.Cancel(ctx); err != nil {
		t.Fatalf("Cancel after failed confirm: %v", err)
	}
	if eng.State() != StateIdle {
		t.Errorf("state after cancel = %s", eng.State())
	}
	if got := inj.PendingCSS(); got != "" {
		t.Errorf("pending CSS after cancel = %q, want removal", got)
	}
}

func TestConfirmCancelWithoutPreview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.engine.Confirm(ctx, false); err != ErrNoPreview {
		t.Errorf("Confirm = %v, want ErrNoPreview", err)
	}
	if err := f.engine.Cancel(ctx); err != ErrNoPreview {
		t.Errorf("Cancel = %v, want ErrNoPreview", err)
	}
	if f.engine.State() != StateIdle {
		t.Errorf("state = %s", f.engine.State())
	}
}

func TestSnapshotCachedPerPageLoad(t *testing.T) {
	f := newFixture(t, generatedCSS, generatedCSS)
	ctx := context.Background()

	if _, err := f.engine.Snapshot(ctx); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if _, err := f.engine.Snapshot(ctx); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if f.page.captureCount() != 1 {
		t.Fatalf("captures = %d, want 1", f.page.captureCount())
	}

	// A new page load invalidates the cache.
	if err := f.engine.PageLoaded(ctx); err != nil {
		t.Fatalf("PageLoaded: %v", err)
	}
	if _, err := f.engine.Snapshot(ctx); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if f.page.captureCount() != 2 {
		t.Errorf("captures = %d, want 2", f.page.captureCount())
	}
}

func TestPageLoadedAppliesSavedTheme(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.themes.CreateAndActivate("example.com", "dark", "body{background:#222222;}", "")
	if err := f.engine.PageLoaded(ctx); err != nil {
		t.Fatalf("PageLoaded: %v", err)
	}
	if !strings.Contains(f.eval.joined(), "#222222") {
		t.Errorf("saved theme not applied on page load")
	}
}

func TestPageLoadedRespectsAutoApplyOff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.themes.CreateAndActivate("example.com", "dark", "body{background:#222222;}", "")
	f.themes.SaveSettings(theme.Settings{AutoApply: false})

	if err := f.engine.PageLoaded(ctx); err != nil {
		t.Fatalf("PageLoaded: %v", err)
	}
	if strings.Contains(f.eval.joined(), "#222222") {
		t.Errorf("theme applied despite autoApply=false")
	}
}

func TestRevertActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	th, _ := f.themes.CreateAndActivate("example.com", "dark", "body{background:#010101;}", "")
	ok, err := f.engine.RevertActive(ctx)
	if err != nil || ok {
		t.Fatalf("RevertActive before update = %v, %v; want false, nil", ok, err)
	}

	f.themes.UpdateTheme("example.com", th.ID, theme.Update{CSS: "body{background:#020202;}", Prompt: "redder"})
	ok, err = f.engine.RevertActive(ctx)
	if err != nil || !ok {
		t.Fatalf("RevertActive = %v, %v", ok, err)
	}
	if !strings.Contains(f.eval.joined(), "#010101") {
		t.Errorf("reverted CSS not injected")
	}
}

func TestSwitchAndDisable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.themes.CreateAndActivate("example.com", "dark", "body{background:#000;}", "")
	other, _ := f.themes.Create("example.com", "light", "body{background:#fefefe;}", "")

	if err := f.engine.SwitchTheme(ctx, other.ID); err != nil {
		t.Fatalf("SwitchTheme: %v", err)
	}
	active, _ := f.themes.ActiveTheme("example.com")
	if active.ID != other.ID {
		t.Errorf("active = %s, want %s", active.ID, other.ID)
	}
	if !strings.Contains(f.eval.joined(), "#fefefe") {
		t.Errorf("switched CSS not injected")
	}

	if err := f.engine.SwitchTheme(ctx, "missing"); err != theme.ErrNotFound {
		t.Errorf("SwitchTheme(missing) = %v, want ErrNotFound", err)
	}

	if err := f.engine.DisableThemes(ctx); err != nil {
		t.Fatalf("DisableThemes: %v", err)
	}
	active, _ = f.themes.ActiveTheme("example.com")
	if active != nil {
		t.Errorf("active after disable = %+v", active)
	}
}

func TestCurrentStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.themes.CreateAndActivate("example.com", "dark hacker style", "body{background:#000;}", "")
	status, err := f.engine.CurrentStatus(ctx)
	if err != nil {
		t.Fatalf("CurrentStatus: %v", err)
	}
	if status.Hostname != "example.com" || !status.HasTheme || status.Prompt != "dark hacker style" {
		t.Errorf("status = %+v", status)
	}
	if status.State != StateIdle {
		t.Errorf("state = %s", status.State)
	}
}

type preloadingPage struct {
	fakePage
	mu       sync.Mutex
	preloads []string
}

func (p *preloadingPage) PreloadStyle(_ context.Context, css string) error {
	p.mu.Lock()
	p.preloads = append(p.preloads, css)
	p.mu.Unlock()
	return nil
}

func (p *preloadingPage) last(t *testing.T) string {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.preloads) == 0 {
		t.Fatal("no preload registered")
	}
	return p.preloads[len(p.preloads)-1]
}

func TestPreloadFollowsCommittedTheme(t *testing.T) {
	page := &preloadingPage{fakePage: fakePage{url: "https://example.com/front"}}
	eval := &fakeEval{}
	themes := theme.NewStore(kv.NewMemory(), nil)
	inj := injector.New(eval, nil)
	t.Cleanup(inj.Close)
	eng := New(Config{
		Page:      page,
		Injector:  inj,
		Themes:    themes,
		Generator: generate.New(llm.NewClient(&fakeLLM{responses: []string{generatedCSS}}), nil),
	})
	ctx := context.Background()

	if _, err := eng.Generate(ctx, "make it dark", nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := eng.Confirm(ctx, false); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if got := page.last(t); got != generatedCSS {
		t.Errorf("preload after confirm = %q", got)
	}

	if err := eng.DisableThemes(ctx); err != nil {
		t.Fatalf("DisableThemes: %v", err)
	}
	if got := page.last(t); got != "" {
		t.Errorf("preload after disable = %q, want cleared", got)
	}
}

func TestClearTheme(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.themes.CreateAndActivate("example.com", "dark", "body{background:#000;}", "")
	if err := f.engine.ClearTheme(ctx); err != nil {
		t.Fatalf("ClearTheme: %v", err)
	}
	active, _ := f.themes.ActiveTheme("example.com")
	if active != nil {
		t.Errorf("active after clear = %+v", active)
	}
}
