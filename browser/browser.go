// Package browser drives a Chrome instance for page capture and stylesheet
// injection. A Session wraps one chromedp browser context; the capture script
// serializes the visible DOM into the bounded dom.Page form the analyzer
// consumes.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"paintbrush/dom"
	"paintbrush/injector"
)

// Options configures the browser session.
type Options struct {
	UserAgent  string
	ChromePath string // Path to Chrome binary (empty = auto-detect)
	Headless   bool
	Timeout    time.Duration
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Headless:  false,
		Timeout:   30 * time.Second,
	}
}

// userDataDir returns a persistent directory for Chrome user data so logins
// and cookies survive between runs.
func userDataDir() string {
	dir, _ := os.UserCacheDir()
	return filepath.Join(dir, "paintbrush-chrome-profile")
}

// Session is one live browser tab.
type Session struct {
	opts   Options
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	preloadID page.ScriptIdentifier
}

// NewSession launches a browser and opens a tab. Close releases it.
func NewSession(opts Options, log *slog.Logger) (*Session, error) {
	if log == nil {
		log = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-component-update", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(opts.UserAgent),
		chromedp.WindowSize(1440, 900),
		chromedp.UserDataDir(userDataDir()),
	}
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		ctxCancel()
		allocCancel()
	}

	// Start the browser now so the first navigation isn't billed the startup
	// cost.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	log.Debug("browser session started", "headless", opts.Headless)
	return &Session{opts: opts, log: log, ctx: ctx, cancel: cancel}, nil
}

// Navigate loads a URL and waits until body is ready.
func (s *Session) Navigate(ctx context.Context, url string) error {
	ctx, cancel := s.runCtx(ctx)
	defer cancel()

	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	s.log.Debug("navigated", "url", url)
	return nil
}

// Eval runs JavaScript in the page. When out is non-nil the expression
// result is JSON-decoded into it.
func (s *Session) Eval(ctx context.Context, js string, out any) error {
	ctx, cancel := s.runCtx(ctx)
	defer cancel()
	return chromedp.Run(ctx, chromedp.Evaluate(js, out))
}

// Location returns the page's current URL.
func (s *Session) Location(ctx context.Context) (string, error) {
	ctx, cancel := s.runCtx(ctx)
	defer cancel()
	var loc string
	if err := chromedp.Run(ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// Capture serializes the current page into the analyzer's input form.
func (s *Session) Capture(ctx context.Context) (*dom.Page, error) {
	ctx, cancel := s.runCtx(ctx)
	defer cancel()

	start := time.Now()
	var page dom.Page
	if err := chromedp.Run(ctx, chromedp.Evaluate(captureScript, &page)); err != nil {
		return nil, fmt.Errorf("capturing page: %w", err)
	}
	s.log.Debug("page captured",
		"hostname", page.Hostname,
		"elements", len(page.Elements),
		"duration", time.Since(start))
	return &page, nil
}

// PreloadStyle installs the stylesheet in every future document of this tab
// before any page script runs, so a saved theme is visible from first paint.
// An empty css clears the preload. Replaces any earlier registration.
func (s *Session) PreloadStyle(ctx context.Context, css string) error {
	ctx, cancel := s.runCtx(ctx)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if s.preloadID != "" {
			if err := page.RemoveScriptToEvaluateOnNewDocument(s.preloadID).Do(ctx); err != nil {
				return fmt.Errorf("removing preload script: %w", err)
			}
			s.preloadID = ""
		}
		if css == "" {
			return nil
		}
		id, err := page.AddScriptToEvaluateOnNewDocument(preloadScript(css)).Do(ctx)
		if err != nil {
			return fmt.Errorf("registering preload script: %w", err)
		}
		s.preloadID = id
		return nil
	}))
}

func preloadScript(css string) string {
	encoded, _ := json.Marshal(css)
	return fmt.Sprintf(`(() => {
	const style = document.createElement('style');
	style.id = %q;
	style.setAttribute('data-paintbrush', 'true');
	style.textContent = %s;
	(document.head || document.documentElement).appendChild(style);
})();`, injector.StyleID, encoded)
}

// Close shuts the tab and browser down.
func (s *Session) Close() {
	s.cancel()
}

// runCtx derives a chromedp-compatible context, applying the session timeout
// when the caller set no deadline.
func (s *Session) runCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		// chromedp actions need the browser context; carry the caller's
		// deadline over.
		runCtx, cancel := context.WithDeadline(s.ctx, deadlineOf(ctx))
		return runCtx, cancel
	}
	return context.WithTimeout(s.ctx, s.opts.Timeout)
}

func deadlineOf(ctx context.Context) time.Time {
	d, _ := ctx.Deadline()
	return d
}
