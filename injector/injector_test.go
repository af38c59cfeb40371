package injector

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeSession records evaluated scripts and answers through a handler.
type fakeSession struct {
	mu      sync.Mutex
	scripts []string
	handler func(js string, out any) error
}

func (f *fakeSession) Eval(_ context.Context, js string, out any) error {
	f.mu.Lock()
	f.scripts = append(f.scripts, js)
	handler := f.handler
	f.mu.Unlock()
	if handler != nil {
		return handler(js, out)
	}
	return nil
}

func (f *fakeSession) evaluated() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.scripts...)
}

func TestInjectEmbedsCSS(t *testing.T) {
	s := &fakeSession{}
	in := New(s, nil)
	defer in.Close()

	css := `body { background: #000; content: "}{"; }`
	if err := in.Inject(context.Background(), css); err != nil {
		t.Fatalf("Inject: %v", err)
	}

	scripts := s.evaluated()
	if len(scripts) != 1 {
		t.Fatalf("evaluated %d scripts, want 1", len(scripts))
	}
	if !strings.Contains(scripts[0], `"paintbrush-theme"`) {
		t.Errorf("script missing style id: %s", scripts[0])
	}
	// CSS must be passed as a JSON string literal, braces and quotes escaped.
	if !strings.Contains(scripts[0], `content: \"}{\"`) {
		t.Errorf("css not JSON-escaped in script: %s", scripts[0])
	}
	if in.PendingCSS() != css {
		t.Errorf("PendingCSS = %q", in.PendingCSS())
	}
}

func TestInjectArmsMutationObserver(t *testing.T) {
	s := &fakeSession{}
	in := New(s, nil)
	defer in.Close()

	if err := in.Inject(context.Background(), "body{background:#000;}"); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	script := s.evaluated()[0]
	if !strings.Contains(script, "new MutationObserver(") {
		t.Errorf("inject script does not register an observer:\n%s", script)
	}
	if !strings.Contains(script, "observer.observe(document.documentElement") {
		t.Errorf("observer not watching the document subtree:\n%s", script)
	}
	// The observer restores from this slot, so inject must fill it.
	if !strings.Contains(script, "window.__paintbrushCss = style.textContent") {
		t.Errorf("inject script does not record the css for restoration:\n%s", script)
	}
}

func TestEarlyInjectArmsMutationObserver(t *testing.T) {
	s := &fakeSession{}
	in := New(s, nil)
	defer in.Close()

	if err := in.InjectEarly(context.Background(), "body{background:#000;}"); err != nil {
		t.Fatalf("InjectEarly: %v", err)
	}
	script := s.evaluated()[0]
	if !strings.Contains(script, "new MutationObserver(") {
		t.Errorf("early script does not register an observer:\n%s", script)
	}
}

func TestRemoveTearsDownObserver(t *testing.T) {
	s := &fakeSession{}
	in := New(s, nil)
	defer in.Close()

	if err := in.Inject(context.Background(), "body{background:#000;}"); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	if err := in.Remove(context.Background()); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	scripts := s.evaluated()
	removal := scripts[len(scripts)-1]
	if !strings.Contains(removal, "__paintbrushObserver.disconnect()") {
		t.Errorf("removal script leaves the observer running:\n%s", removal)
	}
	// The css slot must be cleared before the element goes, or the
	// observer's own callback would resurrect it.
	cssIdx := strings.Index(removal, "delete window.__paintbrushCss")
	removeIdx := strings.Index(removal, "el.remove()")
	if cssIdx < 0 || removeIdx < 0 || cssIdx > removeIdx {
		t.Errorf("css slot not cleared before element removal:\n%s", removal)
	}
}

func TestUpdateRefreshesObserverState(t *testing.T) {
	s := &fakeSession{handler: func(js string, out any) error {
		if b, ok := out.(*bool); ok {
			*b = true
		}
		return nil
	}}
	in := New(s, nil)
	defer in.Close()

	if err := in.Inject(context.Background(), "body{background:#000;}"); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	if err := in.Update(context.Background(), "body{background:#fff;}"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	scripts := s.evaluated()
	update := scripts[len(scripts)-1]
	if !strings.Contains(update, "window.__paintbrushCss = style.textContent") {
		t.Errorf("update script does not refresh the restoration css:\n%s", update)
	}
}

func TestInjectReplacesExisting(t *testing.T) {
	s := &fakeSession{}
	in := New(s, nil)
	defer in.Close()

	in.Inject(context.Background(), "body{background:#000;}")
	script := s.evaluated()[0]
	if !strings.Contains(script, "querySelectorAll") || !strings.Contains(script, "el.remove()") {
		t.Errorf("inject script must clear previous style elements first:\n%s", script)
	}
}

func TestUpdateFallsBackToInject(t *testing.T) {
	s := &fakeSession{handler: func(js string, out any) error {
		if b, ok := out.(*bool); ok {
			*b = false // element missing
		}
		return nil
	}}
	in := New(s, nil)
	defer in.Close()

	if err := in.Update(context.Background(), "body{color:#fff;}"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	scripts := s.evaluated()
	if len(scripts) != 2 {
		t.Fatalf("evaluated %d scripts, want update then inject", len(scripts))
	}
	if !strings.Contains(scripts[1], "createElement") {
		t.Errorf("fallback script should create the element:\n%s", scripts[1])
	}
}

func TestUpdateInPlace(t *testing.T) {
	s := &fakeSession{handler: func(js string, out any) error {
		if b, ok := out.(*bool); ok {
			*b = true
		}
		return nil
	}}
	in := New(s, nil)
	defer in.Close()

	if err := in.Update(context.Background(), "body{color:#fff;}"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(s.evaluated()) != 1 {
		t.Fatalf("in-place update should evaluate one script")
	}
	if in.PendingCSS() != "body{color:#fff;}" {
		t.Errorf("PendingCSS = %q", in.PendingCSS())
	}
}

func TestRemoveClearsState(t *testing.T) {
	s := &fakeSession{}
	in := New(s, nil)

	in.Inject(context.Background(), "body{background:#000;}")
	if err := in.Remove(context.Background()); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if in.PendingCSS() != "" {
		t.Errorf("PendingCSS after Remove = %q", in.PendingCSS())
	}
}

func TestReconcileRestoresMissingStyle(t *testing.T) {
	s := &fakeSession{handler: func(js string, out any) error {
		if b, ok := out.(*bool); ok {
			*b = true // style was missing, script restored it
		}
		return nil
	}}
	in := New(s, nil)
	defer in.Close()

	in.Inject(context.Background(), "body{background:#000;}")
	in.reconcile()

	scripts := s.evaluated()
	last := scripts[len(scripts)-1]
	if !strings.Contains(last, "parentNode !== document.head") {
		t.Errorf("reconcile script should relocate a moved style:\n%s", last)
	}
	if !strings.Contains(last, "createElement") {
		t.Errorf("reconcile script should recreate a removed style:\n%s", last)
	}
}

func TestReconcileNoopWithoutCSS(t *testing.T) {
	s := &fakeSession{}
	in := New(s, nil)
	in.reconcile()
	if len(s.evaluated()) != 0 {
		t.Errorf("reconcile without injected css should not touch the page")
	}
}

func TestIsInjected(t *testing.T) {
	s := &fakeSession{handler: func(js string, out any) error {
		if b, ok := out.(*bool); ok {
			*b = strings.Contains(js, "getElementById")
		}
		return nil
	}}
	in := New(s, nil)

	present, err := in.IsInjected(context.Background())
	if err != nil {
		t.Fatalf("IsInjected: %v", err)
	}
	if !present {
		t.Errorf("expected present")
	}
}

func TestInjectWithTransitionCleansUp(t *testing.T) {
	s := &fakeSession{}
	in := New(s, nil)
	defer in.Close()

	if err := in.InjectWithTransition(context.Background(), "body{background:#000;}", 10*time.Millisecond); err != nil {
		t.Fatalf("InjectWithTransition: %v", err)
	}

	// Transition style goes in before the theme.
	scripts := s.evaluated()
	if len(scripts) != 2 {
		t.Fatalf("evaluated %d scripts, want transition then inject", len(scripts))
	}
	if !strings.Contains(scripts[0], "paintbrush-transition") {
		t.Errorf("first script should add the transition style:\n%s", scripts[0])
	}

	// Cleanup runs after duration+50ms.
	deadline := time.After(2 * time.Second)
	for {
		all := s.evaluated()
		if strings.Contains(all[len(all)-1], "t.remove()") {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("transition style never removed; scripts: %d", len(all))
		case <-time.After(5 * time.Millisecond):
		}
	}
}
