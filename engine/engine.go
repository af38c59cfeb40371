// Package engine orchestrates the generation/preview cycle: analyze the page
// once per load, generate through the LLM, preview on the live page, then
// commit or roll back against the theme store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sync"

	"paintbrush/analyzer"
	"paintbrush/dom"
	"paintbrush/generate"
	"paintbrush/injector"
	"paintbrush/prompt"
	"paintbrush/theme"
)

// State names the orchestrator's position in the cycle.
type State string

const (
	StateIdle           State = "idle"
	StateAnalyzing      State = "analyzing"
	StateFastHiding     State = "fast-hiding"
	StateBuildingPrompt State = "building-prompt"
	StateGenerating     State = "generating"
	StatePreviewing     State = "previewing"
)

// ErrBusy is returned when a generation is submitted while another cycle is
// in flight. One cycle per page at a time.
var ErrBusy = errors.New("a generation is already in progress")

// ErrNoPreview is returned by Confirm and Cancel when nothing is being
// previewed. The engine state is untouched; callers may treat it as a no-op.
var ErrNoPreview = errors.New("no preview pending")

// hidingRe detects element-hiding requests eligible for the fast path.
var hidingRe = regexp.MustCompile(`(?i)\b(hide|remove|block|delete|no more|get rid|disable|ads?|advert|banner|popup|cookie|newsletter)\b`)

// IsHidingRequest reports whether the prompt asks to hide or remove page
// elements.
func IsHidingRequest(p string) bool {
	return hidingRe.MatchString(p)
}

// PageSession is the live page the engine works against.
type PageSession interface {
	Capture(ctx context.Context) (*dom.Page, error)
	Location(ctx context.Context) (string, error)
}

// stylePreloader is implemented by sessions that can install a stylesheet
// before first paint of future documents. Detected dynamically so fakes and
// static sessions need not support it.
type stylePreloader interface {
	PreloadStyle(ctx context.Context, css string) error
}

// Preview holds the pending, not yet persisted stylesheet.
type Preview struct {
	CSS         string
	Prompt      string
	PreviousCSS string
	ThemeID     string // existing theme being refined, "" for a new theme
	IsNew       bool
}

// Result reports how a generation resolved.
type Result struct {
	CSS        string
	Committed  bool // fast hiding path: persisted without preview
	Previewing bool // full generation: awaiting Confirm/Cancel
}

// StatusFunc receives progress stage messages during a generation.
type StatusFunc func(stage string)

// Config wires the engine's collaborators.
type Config struct {
	Page      PageSession
	Injector  *injector.Injector
	Themes    *theme.Store
	Generator *generate.Generator
	Analyzer  *analyzer.Analyzer
	Log       *slog.Logger
}

// Engine is the per-page orchestrator.
type Engine struct {
	page     PageSession
	inj      *injector.Injector
	themes   *theme.Store
	gen      *generate.Generator
	analyzer *analyzer.Analyzer
	log      *slog.Logger

	mu       sync.Mutex
	state    State
	hostname string
	snapshot *analyzer.Snapshot
	preview  *Preview
}

func New(cfg Config) *Engine {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	an := cfg.Analyzer
	if an == nil {
		an = analyzer.New(log)
	}
	return &Engine{
		page:     cfg.Page,
		inj:      cfg.Injector,
		themes:   cfg.Themes,
		gen:      cfg.Generator,
		analyzer: an,
		log:      log,
		state:    StateIdle,
	}
}

// State returns the current cycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// PageLoaded resets per-page state for a fresh document and, when a theme is
// active for the host, applies it immediately.
func (e *Engine) PageLoaded(ctx context.Context) error {
	loc, err := e.page.Location(ctx)
	if err != nil {
		return fmt.Errorf("resolving location: %w", err)
	}
	u, err := url.Parse(loc)
	if err != nil {
		return fmt.Errorf("parsing location %q: %w", loc, err)
	}
	hostname := u.Hostname()

	e.mu.Lock()
	e.hostname = hostname
	e.snapshot = nil
	e.preview = nil
	e.state = StateIdle
	e.mu.Unlock()

	if hostname == "" {
		return nil
	}

	settings, err := e.themes.LoadSettings()
	if err != nil {
		return err
	}
	if !settings.AutoApply {
		return nil
	}

	active, err := e.themes.ActiveTheme(hostname)
	if err != nil {
		return err
	}
	if active == nil || active.CSS == "" {
		return nil
	}
	if err := e.inj.InjectEarly(ctx, active.CSS); err != nil {
		return fmt.Errorf("applying saved theme: %w", err)
	}
	e.preloadStyle(ctx, active.CSS)
	e.log.Debug("saved theme applied", "hostname", hostname, "theme", active.ID)
	return nil
}

// preloadStyle keeps the session's pre-paint stylesheet in step with the
// committed theme, when the session supports it.
func (e *Engine) preloadStyle(ctx context.Context, css string) {
	p, ok := e.page.(stylePreloader)
	if !ok {
		return
	}
	if err := p.PreloadStyle(ctx, css); err != nil {
		e.log.Warn("preloading style", "error", err)
	}
}

// Snapshot returns the page analysis, capturing and analyzing on first use.
// The snapshot is cached for the page load.
func (e *Engine) Snapshot(ctx context.Context) (*analyzer.Snapshot, error) {
	e.mu.Lock()
	cached := e.snapshot
	e.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	page, err := e.page.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("capturing page: %w", err)
	}
	s := e.analyzer.Analyze(page)

	e.mu.Lock()
	e.snapshot = s
	if e.hostname == "" {
		e.hostname = s.Hostname
	}
	e.mu.Unlock()
	return s, nil
}

// Generate runs one full cycle for the user's request. Hiding requests
// against an active theme take the fast path: the hide rules are appended to
// the committed stylesheet and persisted without a preview gate. Everything
// else ends in Previewing, awaiting Confirm or Cancel.
func (e *Engine) Generate(ctx context.Context, userPrompt string, onStatus StatusFunc) (*Result, error) {
	if onStatus == nil {
		onStatus = func(string) {}
	}

	e.mu.Lock()
	if e.state != StateIdle {
		e.mu.Unlock()
		return nil, ErrBusy
	}
	e.state = StateAnalyzing
	e.mu.Unlock()

	res, err := e.generate(ctx, userPrompt, onStatus)
	if err != nil || !res.Previewing {
		e.setState(StateIdle)
	}
	return res, err
}

func (e *Engine) generate(ctx context.Context, userPrompt string, onStatus StatusFunc) (*Result, error) {
	onStatus("Analyzing page...")
	snapshot, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	hostname := snapshot.Hostname

	existing, err := e.themes.ActiveTheme(hostname)
	if err != nil {
		return nil, err
	}

	if existing != nil && existing.CSS != "" && IsHidingRequest(userPrompt) {
		e.setState(StateFastHiding)
		if res, ok := e.fastHide(ctx, userPrompt, hostname, existing, onStatus); ok {
			return res, nil
		}
		// Fast path failed, fall through to full generation.
		e.log.Debug("fast hiding path failed, running full generation")
	}

	e.setState(StateBuildingPrompt)
	onStatus("Building prompt...")
	corrections, err := e.themes.HostCorrections(hostname)
	if err != nil {
		return nil, err
	}

	var existingPrompt *prompt.ExistingTheme
	previousCSS, themeID := "", ""
	if existing != nil && existing.CSS != "" {
		existingPrompt = &prompt.ExistingTheme{Prompt: existing.Prompt, CSS: existing.CSS}
		previousCSS = existing.CSS
		themeID = existing.ID
	}

	e.setState(StateGenerating)
	onStatus("Generating theme...")
	generated, err := e.gen.Theme(ctx, userPrompt, snapshot, existingPrompt, promptCorrections(corrections))
	if err != nil {
		return nil, err
	}

	e.setState(StatePreviewing)
	onStatus("Previewing...")
	if err := e.inj.InjectWithTransition(ctx, generated.CSS, 0); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.preview = &Preview{
		CSS:         generated.CSS,
		Prompt:      userPrompt,
		PreviousCSS: previousCSS,
		ThemeID:     themeID,
		IsNew:       existing == nil || existing.CSS == "",
	}
	e.mu.Unlock()

	return &Result{CSS: generated.CSS, Previewing: true}, nil
}

// fastHide appends generated hide rules to the committed theme. It returns
// ok=false when generation failed and the caller should fall back.
func (e *Engine) fastHide(ctx context.Context, userPrompt, hostname string, existing *theme.Theme, onStatus StatusFunc) (*Result, bool) {
	onStatus("Generating hiding rules...")
	hideCSS, err := e.gen.Hide(ctx, userPrompt, hostname)
	if err != nil {
		e.log.Warn("hide generation failed", "hostname", hostname, "error", err)
		return nil, false
	}

	combined := existing.CSS + "\n\n/* Hidden elements */\n" + hideCSS

	onStatus("Applying...")
	if err := e.inj.InjectWithTransition(ctx, combined, 0); err != nil {
		e.log.Warn("hide injection failed", "error", err)
		return nil, false
	}

	onStatus("Saving...")
	if _, err := e.themes.UpdateTheme(hostname, existing.ID, theme.Update{
		CSS:    combined,
		Prompt: existing.Prompt + " + " + userPrompt,
	}); err != nil {
		e.log.Warn("hide persist failed", "error", err)
		return nil, false
	}
	e.preloadStyle(ctx, combined)
	return &Result{CSS: combined, Committed: true}, true
}

// Confirm persists the previewed stylesheet. saveAsNew forces a new theme
// even when an existing one was being refined. On a store failure the
// preview stays pending so the user can retry or Cancel back out.
func (e *Engine) Confirm(ctx context.Context, saveAsNew bool) (*theme.Theme, error) {
	e.mu.Lock()
	p := e.preview
	hostname := e.hostname
	e.mu.Unlock()
	if p == nil {
		return nil, ErrNoPreview
	}

	var t *theme.Theme
	var err error
	if p.IsNew || saveAsNew {
		t, err = e.themes.CreateAndActivate(hostname, p.Prompt, p.CSS, "")
	} else {
		t, err = e.themes.UpdateTheme(hostname, p.ThemeID, theme.Update{CSS: p.CSS, Prompt: p.Prompt})
	}
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.preview = nil
	e.state = StateIdle
	e.mu.Unlock()

	e.preloadStyle(ctx, t.CSS)
	e.log.Info("preview committed", "hostname", hostname, "theme", t.ID)
	return t, nil
}

// Cancel rolls the page back to its pre-preview stylesheet.
func (e *Engine) Cancel(ctx context.Context) error {
	e.mu.Lock()
	p := e.preview
	if p == nil {
		e.mu.Unlock()
		return ErrNoPreview
	}
	e.preview = nil
	e.state = StateIdle
	e.mu.Unlock()

	if p.PreviousCSS != "" {
		return e.inj.Inject(ctx, p.PreviousCSS)
	}
	return e.inj.Remove(ctx)
}

// ClearTheme removes the injected stylesheet and deletes the active theme.
func (e *Engine) ClearTheme(ctx context.Context) error {
	hostname, err := e.currentHostname(ctx)
	if err != nil {
		return err
	}
	if err := e.inj.Remove(ctx); err != nil {
		return err
	}
	active, err := e.themes.ActiveTheme(hostname)
	if err != nil {
		return err
	}
	if active == nil {
		return nil
	}
	if err := e.themes.DeleteTheme(hostname, active.ID); err != nil {
		return err
	}
	e.preloadStyle(ctx, "")
	return nil
}

// RevertActive undoes the last refinement of the active theme and re-injects
// the restored stylesheet. Returns false when there is nothing to revert.
func (e *Engine) RevertActive(ctx context.Context) (bool, error) {
	hostname, err := e.currentHostname(ctx)
	if err != nil {
		return false, err
	}
	active, err := e.themes.ActiveTheme(hostname)
	if err != nil || active == nil {
		return false, err
	}

	reverted, err := e.themes.Revert(hostname, active.ID)
	if errors.Is(err, theme.ErrNoPrevious) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if reverted.CSS != "" {
		if err := e.inj.Inject(ctx, reverted.CSS); err != nil {
			return false, err
		}
	}
	e.preloadStyle(ctx, reverted.CSS)
	return true, nil
}

// SwitchTheme activates another saved theme and applies it.
func (e *Engine) SwitchTheme(ctx context.Context, id string) error {
	hostname, err := e.currentHostname(ctx)
	if err != nil {
		return err
	}
	themes, err := e.themes.Themes(hostname)
	if err != nil {
		return err
	}
	for _, t := range themes {
		if t.ID != id {
			continue
		}
		if err := e.themes.SetActive(hostname, id); err != nil {
			return err
		}
		e.preloadStyle(ctx, t.CSS)
		if t.CSS != "" {
			return e.inj.InjectWithTransition(ctx, t.CSS, 0)
		}
		return nil
	}
	return theme.ErrNotFound
}

// DisableThemes clears the active pointer and removes the injected
// stylesheet, keeping the saved themes.
func (e *Engine) DisableThemes(ctx context.Context) error {
	hostname, err := e.currentHostname(ctx)
	if err != nil {
		return err
	}
	if err := e.themes.SetActive(hostname, ""); err != nil {
		return err
	}
	e.preloadStyle(ctx, "")
	return e.inj.Remove(ctx)
}

// Status describes the engine for the UI layer.
type Status struct {
	Hostname   string `json:"hostname"`
	State      State  `json:"state"`
	HasTheme   bool   `json:"hasTheme"`
	Prompt     string `json:"prompt,omitempty"`
	IsInjected bool   `json:"isInjected"`
}

// CurrentStatus reports the page's theming state.
func (e *Engine) CurrentStatus(ctx context.Context) (*Status, error) {
	hostname, err := e.currentHostname(ctx)
	if err != nil {
		return nil, err
	}
	active, err := e.themes.ActiveTheme(hostname)
	if err != nil {
		return nil, err
	}
	injected, err := e.inj.IsInjected(ctx)
	if err != nil {
		return nil, err
	}

	status := &Status{
		Hostname:   hostname,
		State:      e.State(),
		HasTheme:   active != nil && active.CSS != "",
		IsInjected: injected,
	}
	if active != nil {
		status.Prompt = active.Prompt
	}
	return status, nil
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// currentHostname resolves the page's hostname, caching it for later calls.
func (e *Engine) currentHostname(ctx context.Context) (string, error) {
	e.mu.Lock()
	cached := e.hostname
	e.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	loc, err := e.page.Location(ctx)
	if err != nil {
		return "", fmt.Errorf("resolving location: %w", err)
	}
	u, err := url.Parse(loc)
	if err != nil {
		return "", fmt.Errorf("parsing location %q: %w", loc, err)
	}

	e.mu.Lock()
	e.hostname = u.Hostname()
	e.mu.Unlock()
	return u.Hostname(), nil
}

func promptCorrections(in []theme.Correction) []prompt.Correction {
	out := make([]prompt.Correction, len(in))
	for i, c := range in {
		out[i] = prompt.Correction{Rejected: c.Rejected, Accepted: c.Accepted}
	}
	return out
}
