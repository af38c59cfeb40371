// Package injector applies a stylesheet to a live page and keeps it there.
// The style element is injected at the end of head for maximum specificity,
// and a watcher re-injects it when the page removes or relocates it.
package injector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	// StyleID identifies the injected style element in the page.
	StyleID = "paintbrush-theme"

	transitionID = "paintbrush-transition"

	// watchInterval is how often the fallback watcher reconciles the page.
	// The page-side MutationObserver does the instant repair; the poll
	// covers pages that tear the observer itself down.
	watchInterval = 2 * time.Second
)

// Session evaluates JavaScript in the page. out, when non-nil, receives the
// JSON-decoded expression result.
type Session interface {
	Eval(ctx context.Context, js string, out any) error
}

// Injector owns the themed style element of one page session.
type Injector struct {
	session Session
	log     *slog.Logger

	mu      sync.Mutex
	current string
	stop    chan struct{}
}

func New(session Session, log *slog.Logger) *Injector {
	if log == nil {
		log = slog.Default()
	}
	return &Injector{session: session, log: log}
}

// Inject replaces any previously injected stylesheet with css and starts the
// watcher. The page ends up with exactly one style element under our ID.
func (in *Injector) Inject(ctx context.Context, css string) error {
	if err := in.session.Eval(ctx, injectScript(css), nil); err != nil {
		return fmt.Errorf("inject style: %w", err)
	}
	in.mu.Lock()
	in.current = css
	in.startWatcherLocked()
	in.mu.Unlock()
	in.log.Debug("stylesheet injected", "length", len(css))
	return nil
}

// Update swaps the stylesheet text in place, falling back to a full inject
// when the element is gone.
func (in *Injector) Update(ctx context.Context, css string) error {
	var updated bool
	if err := in.session.Eval(ctx, updateScript(css), &updated); err != nil {
		return fmt.Errorf("update style: %w", err)
	}
	if !updated {
		return in.Inject(ctx, css)
	}
	in.mu.Lock()
	in.current = css
	in.mu.Unlock()
	in.log.Debug("stylesheet updated", "length", len(css))
	return nil
}

// Remove deletes the style element and stops the watcher.
func (in *Injector) Remove(ctx context.Context) error {
	in.mu.Lock()
	in.current = ""
	in.stopWatcherLocked()
	in.mu.Unlock()

	if err := in.session.Eval(ctx, removeScript(), nil); err != nil {
		return fmt.Errorf("remove style: %w", err)
	}
	in.log.Debug("stylesheet removed")
	return nil
}

// IsInjected reports whether the style element is present in the page.
func (in *Injector) IsInjected(ctx context.Context) (bool, error) {
	var present bool
	err := in.session.Eval(ctx, fmt.Sprintf(
		`!!document.getElementById(%s)`, jsString(StyleID)), &present)
	return present, err
}

// CurrentCSS returns the stylesheet text currently in the page, "" when none.
func (in *Injector) CurrentCSS(ctx context.Context) (string, error) {
	var css string
	err := in.session.Eval(ctx, fmt.Sprintf(
		`(document.getElementById(%s) || {textContent: ""}).textContent`,
		jsString(StyleID)), &css)
	return css, err
}

// PendingCSS returns the stylesheet this injector last applied, without
// touching the page.
func (in *Injector) PendingCSS() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.current
}

// InjectEarly applies css before the document has finished parsing, attaching
// to documentElement when head does not exist yet. The saved theme paints
// before the page's own styles settle.
func (in *Injector) InjectEarly(ctx context.Context, css string) error {
	if err := in.session.Eval(ctx, earlyScript(css), nil); err != nil {
		return fmt.Errorf("early inject: %w", err)
	}
	in.mu.Lock()
	in.current = css
	in.startWatcherLocked()
	in.mu.Unlock()
	return nil
}

// InjectWithTransition injects css with a temporary all-element transition so
// the theme fades in. The transition rules are removed once the fade is over.
func (in *Injector) InjectWithTransition(ctx context.Context, css string, duration time.Duration) error {
	if duration <= 0 {
		duration = 300 * time.Millisecond
	}
	if err := in.session.Eval(ctx, transitionScript(duration), nil); err != nil {
		return fmt.Errorf("transition style: %w", err)
	}
	if err := in.Inject(ctx, css); err != nil {
		return err
	}

	time.AfterFunc(duration+50*time.Millisecond, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := in.session.Eval(ctx, fmt.Sprintf(
			`{const t = document.getElementById(%s); if (t) t.remove();}`,
			jsString(transitionID)), nil); err != nil {
			in.log.Debug("transition cleanup failed", "error", err)
		}
	})
	return nil
}

// Close stops the watcher without touching the page.
func (in *Injector) Close() {
	in.mu.Lock()
	in.stopWatcherLocked()
	in.mu.Unlock()
}

func (in *Injector) startWatcherLocked() {
	if in.stop != nil {
		return
	}
	stop := make(chan struct{})
	in.stop = stop
	go in.watch(stop)
}

func (in *Injector) stopWatcherLocked() {
	if in.stop != nil {
		close(in.stop)
		in.stop = nil
	}
}

// watch periodically restores the style element if the page removed it or
// moved it out of head.
func (in *Injector) watch(stop chan struct{}) {
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			in.reconcile()
		}
	}
}

func (in *Injector) reconcile() {
	in.mu.Lock()
	css := in.current
	in.mu.Unlock()
	if css == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var restored bool
	if err := in.session.Eval(ctx, reconcileScript(css), &restored); err != nil {
		in.log.Debug("reconcile failed", "error", err)
		return
	}
	if restored {
		in.log.Debug("stylesheet restored after page tampering")
	}
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// observerSnippet installs a page-side MutationObserver that restores the
// managed style element the moment a page script removes it, and reattaches
// it to head on relocation. One observer per page; text updates reuse it
// through the window.__paintbrushCss slot.
func observerSnippet() string {
	return fmt.Sprintf(`
	if (!window.__paintbrushObserver) {
		const observer = new MutationObserver(() => {
			const css = window.__paintbrushCss;
			if (typeof css !== 'string') return;
			const oid = %s;
			let el = document.getElementById(oid);
			if (!el) {
				el = document.createElement('style');
				el.id = oid;
				el.setAttribute('data-paintbrush', 'true');
				el.textContent = css;
				(document.head || document.documentElement).appendChild(el);
				return;
			}
			if (document.head && el.parentNode !== document.head) {
				document.head.appendChild(el);
			}
		});
		observer.observe(document.documentElement, { childList: true, subtree: true });
		window.__paintbrushObserver = observer;
	}`, jsString(StyleID))
}

// injectScript removes every element under our ID, then appends a fresh one
// at the end of head and arms the observer.
func injectScript(css string) string {
	return fmt.Sprintf(`(() => {
	const id = %s;
	document.querySelectorAll('#' + CSS.escape(id)).forEach(el => el.remove());
	const style = document.createElement('style');
	style.id = id;
	style.setAttribute('data-paintbrush', 'true');
	style.textContent = %s;
	(document.head || document.documentElement).appendChild(style);
	window.__paintbrushCss = style.textContent;%s
})()`, jsString(StyleID), jsString(css), observerSnippet())
}

// updateScript swaps the text in place, returning false when the element is
// missing so the caller can fall back to a full inject.
func updateScript(css string) string {
	return fmt.Sprintf(`(() => {
	const style = document.getElementById(%s);
	if (!style) return false;
	style.textContent = %s;
	window.__paintbrushCss = style.textContent;
	return true;
})()`, jsString(StyleID), jsString(css))
}

// removeScript clears the observer state first so the removal below is not
// immediately undone by its own callback.
func removeScript() string {
	return fmt.Sprintf(`(() => {
	delete window.__paintbrushCss;
	if (window.__paintbrushObserver) {
		window.__paintbrushObserver.disconnect();
		delete window.__paintbrushObserver;
	}
	document.querySelectorAll('#' + CSS.escape(%s)).forEach(el => el.remove());
})()`, jsString(StyleID))
}

func earlyScript(css string) string {
	return fmt.Sprintf(`(() => {
	const id = %s;
	window.__paintbrushCss = %s;
	if (!document.getElementById(id)) {
		const style = document.createElement('style');
		style.id = id;
		style.setAttribute('data-paintbrush', 'true');
		style.textContent = window.__paintbrushCss;
		(document.head || document.documentElement).appendChild(style);
	}%s
})()`, jsString(StyleID), jsString(css), observerSnippet())
}

// reconcileScript returns true when it had to restore or relocate the style.
// It also re-arms the observer in case the page disconnected it.
func reconcileScript(css string) string {
	return fmt.Sprintf(`(() => {
	const id = %s;
	window.__paintbrushCss = %s;%s
	let style = document.getElementById(id);
	if (!style) {
		style = document.createElement('style');
		style.id = id;
		style.setAttribute('data-paintbrush', 'true');
		style.textContent = window.__paintbrushCss;
		(document.head || document.documentElement).appendChild(style);
		return true;
	}
	if (document.head && style.parentNode !== document.head) {
		document.head.appendChild(style);
		return true;
	}
	return false;
})()`, jsString(StyleID), jsString(css), observerSnippet())
}

func transitionScript(duration time.Duration) string {
	ms := duration.Milliseconds()
	rules := fmt.Sprintf(`*, *::before, *::after {
	transition: background-color %dms ease,
		color %dms ease,
		border-color %dms ease,
		box-shadow %dms ease !important;
}`, ms, ms, ms, ms)
	return fmt.Sprintf(`(() => {
	if (document.getElementById(%s)) return;
	const style = document.createElement('style');
	style.id = %s;
	style.textContent = %s;
	(document.head || document.documentElement).appendChild(style);
})()`, jsString(transitionID), jsString(transitionID), jsString(rules))
}
